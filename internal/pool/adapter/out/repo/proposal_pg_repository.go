package repo

import (
	"context"
	"errors"
	"fmt"

	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"

	"github.com/jackc/pgx/v5"
)

const proposalColumns = `
	id, ride_rider_id, counter, ride_date, start_time,
	seat_count, luggage_count, baby_seat_count, sport_gear_count,
	pay_method, smoke_policy, pet_policy, curb_policy, close_ride,
	neighborhood_id, neighborhood_ordinal, terminal_id, terminal_ordinal,
	created_at, updated_at`

// ProposalPgStore — PostgreSQL хранилище запросов на изменение. Списки
// удаляемых остановок живут в отдельных таблицах и грузятся вместе с запросом.
type ProposalPgStore struct {
	q   querier
	log *logger.Logger
}

// NewProposalPgStore создает новое хранилище запросов
func NewProposalPgStore(q querier, log *logger.Logger) *ProposalPgStore {
	return &ProposalPgStore{q: q, log: log}
}

// Create создает запрос вместе со списками удаляемых остановок
func (r *ProposalPgStore) Create(ctx context.Context, p *domain.ChangeProposal) error {
	query := `
		INSERT INTO ride_rider_requests (` + proposalColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
	`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.MembershipID, p.Counter, p.Date, p.StartTime,
		p.SeatCount, p.LuggageCount, p.BabySeatCount, p.SportGearCount,
		p.PayMethod, p.SmokePolicy, p.PetPolicy, p.CurbPolicy, p.CloseRide,
		p.NeighborhoodID, p.NeighborhoodOrdinal, p.TerminalID, p.TerminalOrdinal,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_create_proposal_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("insert proposal: %w", err)
	}
	return r.saveDrops(ctx, p)
}

// FindByID возвращает запрос по ID
func (r *ProposalPgStore) FindByID(ctx context.Context, proposalID string) (*domain.ChangeProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM ride_rider_requests WHERE id = $1`
	return r.queryOne(ctx, query, proposalID)
}

// FindByMembershipID возвращает незакрытый запрос связки
func (r *ProposalPgStore) FindByMembershipID(ctx context.Context, membershipID string) (*domain.ChangeProposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM ride_rider_requests
		WHERE ride_rider_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.queryOne(ctx, query, membershipID)
}

// Update перезаписывает запрос и его списки удаляемых остановок
func (r *ProposalPgStore) Update(ctx context.Context, p *domain.ChangeProposal) error {
	query := `
		UPDATE ride_rider_requests SET
			counter = $2, ride_date = $3, start_time = $4,
			seat_count = $5, luggage_count = $6, baby_seat_count = $7, sport_gear_count = $8,
			pay_method = $9, smoke_policy = $10, pet_policy = $11, curb_policy = $12,
			close_ride = $13, neighborhood_id = $14, neighborhood_ordinal = $15,
			terminal_id = $16, terminal_ordinal = $17, updated_at = $18
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.Counter, p.Date, p.StartTime,
		p.SeatCount, p.LuggageCount, p.BabySeatCount, p.SportGearCount,
		p.PayMethod, p.SmokePolicy, p.PetPolicy, p.CurbPolicy,
		p.CloseRide, p.NeighborhoodID, p.NeighborhoodOrdinal,
		p.TerminalID, p.TerminalOrdinal, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProposalNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM neighborhood_drops WHERE request_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear city drops: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM terminal_drops WHERE request_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear terminal drops: %w", err)
	}
	return r.saveDrops(ctx, p)
}

// Delete удаляет запрос; списки удаляемых остановок уходят каскадно
func (r *ProposalPgStore) Delete(ctx context.Context, proposalID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM ride_rider_requests WHERE id = $1`, proposalID)
	if err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProposalNotFound
	}
	return nil
}

func (r *ProposalPgStore) queryOne(ctx context.Context, query string, arg any) (*domain.ChangeProposal, error) {
	p := &domain.ChangeProposal{}
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.MembershipID, &p.Counter, &p.Date, &p.StartTime,
		&p.SeatCount, &p.LuggageCount, &p.BabySeatCount, &p.SportGearCount,
		&p.PayMethod, &p.SmokePolicy, &p.PetPolicy, &p.CurbPolicy, &p.CloseRide,
		&p.NeighborhoodID, &p.NeighborhoodOrdinal, &p.TerminalID, &p.TerminalOrdinal,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProposalNotFound
		}
		return nil, fmt.Errorf("query proposal: %w", err)
	}
	if err := r.loadDrops(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProposalPgStore) saveDrops(ctx context.Context, p *domain.ChangeProposal) error {
	for _, d := range p.CityStopDrops {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO neighborhood_drops (id, request_id, city_stop_id) VALUES ($1, $2, $3)`,
			d.ID, p.ID, d.StopID,
		); err != nil {
			return fmt.Errorf("insert city drop: %w", err)
		}
	}
	for _, d := range p.TerminalStopDrops {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO terminal_drops (id, request_id, terminal_stop_id) VALUES ($1, $2, $3)`,
			d.ID, p.ID, d.StopID,
		); err != nil {
			return fmt.Errorf("insert terminal drop: %w", err)
		}
	}
	return nil
}

func (r *ProposalPgStore) loadDrops(ctx context.Context, p *domain.ChangeProposal) error {
	rows, err := r.q.Query(ctx,
		`SELECT id, request_id, city_stop_id FROM neighborhood_drops WHERE request_id = $1`, p.ID)
	if err != nil {
		return fmt.Errorf("query city drops: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d domain.StopDrop
		if err := rows.Scan(&d.ID, &d.RequestID, &d.StopID); err != nil {
			return fmt.Errorf("scan city drop: %w", err)
		}
		p.CityStopDrops = append(p.CityStopDrops, d)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	trows, err := r.q.Query(ctx,
		`SELECT id, request_id, terminal_stop_id FROM terminal_drops WHERE request_id = $1`, p.ID)
	if err != nil {
		return fmt.Errorf("query terminal drops: %w", err)
	}
	defer trows.Close()
	for trows.Next() {
		var d domain.StopDrop
		if err := trows.Scan(&d.ID, &d.RequestID, &d.StopID); err != nil {
			return fmt.Errorf("scan terminal drop: %w", err)
		}
		p.TerminalStopDrops = append(p.TerminalStopDrops, d)
	}
	return trows.Err()
}

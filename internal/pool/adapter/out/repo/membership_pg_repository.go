package repo

import (
	"context"
	"errors"
	"fmt"

	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"

	"github.com/jackc/pgx/v5"
)

const membershipColumns = `id, ride_id, rider_id, status, joined_at, created_at, updated_at`

// MembershipPgStore — PostgreSQL хранилище связок участия
type MembershipPgStore struct {
	q   querier
	log *logger.Logger
}

// NewMembershipPgStore создает новое хранилище связок
func NewMembershipPgStore(q querier, log *logger.Logger) *MembershipPgStore {
	return &MembershipPgStore{q: q, log: log}
}

// Create создает новую связку
func (r *MembershipPgStore) Create(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO rides_riders (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.RideID, m.RiderID, m.Status, m.JoinedAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_create_membership_failed",
			Message: err.Error(),
			RideID:  m.RideID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// FindByID возвращает связку по ID
func (r *MembershipPgStore) FindByID(ctx context.Context, membershipID string) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM rides_riders WHERE id = $1`

	m := &domain.Membership{}
	err := r.q.QueryRow(ctx, query, membershipID).Scan(
		&m.ID, &m.RideID, &m.RiderID, &m.Status, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("query membership by id: %w", err)
	}
	return m, nil
}

// FindByRiderID возвращает все связки спецификации
func (r *MembershipPgStore) FindByRiderID(ctx context.Context, riderID string) ([]domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM rides_riders WHERE rider_id = $1 ORDER BY created_at`
	return r.queryMany(ctx, query, riderID)
}

// FindActiveByRiderID возвращает связки спецификации с активным статусом
func (r *MembershipPgStore) FindActiveByRiderID(ctx context.Context, riderID string) ([]domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM rides_riders
		WHERE rider_id = $1
		  AND status IN ('driver', 'provider', 'owner', 'admin', 'joined')
		ORDER BY created_at
	`
	return r.queryMany(ctx, query, riderID)
}

// FindSuspendedByRiderID возвращает приостановленные связки спецификации
func (r *MembershipPgStore) FindSuspendedByRiderID(ctx context.Context, riderID string) ([]domain.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM rides_riders
		WHERE rider_id = $1 AND status = 'suspend'
		ORDER BY created_at
	`
	return r.queryMany(ctx, query, riderID)
}

// Update обновляет существующую связку
func (r *MembershipPgStore) Update(ctx context.Context, m *domain.Membership) error {
	query := `
		UPDATE rides_riders SET
			status = $2,
			joined_at = $3,
			updated_at = $4
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, query, m.ID, m.Status, m.JoinedAt, m.UpdatedAt)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_update_membership_failed",
			Message: err.Error(),
			RideID:  m.RideID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("update membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

// Delete удаляет связку
func (r *MembershipPgStore) Delete(ctx context.Context, membershipID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM rides_riders WHERE id = $1`, membershipID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMembershipNotFound
	}
	return nil
}

func (r *MembershipPgStore) queryMany(ctx context.Context, query string, args ...any) ([]domain.Membership, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.RideID, &m.RiderID, &m.Status, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

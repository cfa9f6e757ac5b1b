package repo

import (
	"context"
	"errors"
	"fmt"

	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"

	"github.com/jackc/pgx/v5"
)

// RiderPgStore — PostgreSQL хранилище спецификаций путешественников
type RiderPgStore struct {
	q   querier
	log *logger.Logger
}

// NewRiderPgStore создает новое хранилище спецификаций
func NewRiderPgStore(q querier, log *logger.Logger) *RiderPgStore {
	return &RiderPgStore{q: q, log: log}
}

// FindByID возвращает спецификацию по ID
func (r *RiderPgStore) FindByID(ctx context.Context, riderID string) (*domain.Rider, error) {
	query := `
		SELECT
			id, traveler_id, ride_date, start_time, toward,
			airport_id, COALESCE(terminal_id::text, ''), neighborhood_id, agglo_id,
			seat_count, luggage_count, baby_seat_count, sport_gear_count,
			pay_pref, smoke_pref, pet_pref, curb_pref,
			created_at, updated_at
		FROM riders
		WHERE id = $1
	`

	rd := &domain.Rider{}
	err := r.q.QueryRow(ctx, query, riderID).Scan(
		&rd.ID, &rd.TravelerID, &rd.Date, &rd.StartTime, &rd.Toward,
		&rd.AirportID, &rd.TerminalID, &rd.NeighborhoodID, &rd.AggloID,
		&rd.SeatCount, &rd.LuggageCount, &rd.BabySeatCount, &rd.SportGearCount,
		&rd.PayPref, &rd.SmokePref, &rd.PetPref, &rd.CurbPref,
		&rd.CreatedAt, &rd.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRiderNotFound
		}
		return nil, fmt.Errorf("query rider by id: %w", err)
	}
	return rd, nil
}

package repo

import (
	"context"
	"fmt"

	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"
)

// StopPgStore — PostgreSQL хранилище остановок. Save-методы выполняют ровно
// одну запись: немедленный UNIQUE (ride_id, ordinal) проверяется на каждой,
// поэтому последовательность записей задает вызывающий.
type StopPgStore struct {
	q   querier
	log *logger.Logger
}

// NewStopPgStore создает новое хранилище остановок
func NewStopPgStore(q querier, log *logger.Logger) *StopPgStore {
	return &StopPgStore{q: q, log: log}
}

// CreateCity создает городскую остановку
func (r *StopPgStore) CreateCity(ctx context.Context, s *domain.CityStop) error {
	query := `
		INSERT INTO rides_neighborhoods (id, ride_id, ride_rider_id, neighborhood_id, ordinal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.RideID, s.MembershipID, s.NeighborhoodID, s.Ordinal, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert city stop: %w", err)
	}
	return nil
}

// UpdateCity обновляет городскую остановку
func (r *StopPgStore) UpdateCity(ctx context.Context, s *domain.CityStop) error {
	query := `
		UPDATE rides_neighborhoods SET
			neighborhood_id = $2,
			ordinal = $3,
			updated_at = $4
		WHERE id = $1
	`
	_, err := r.q.Exec(ctx, query, s.ID, s.NeighborhoodID, s.Ordinal, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update city stop: %w", err)
	}
	return nil
}

// DeleteCity удаляет городские остановки по списку id
func (r *StopPgStore) DeleteCity(ctx context.Context, stopIDs []string) error {
	if len(stopIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `DELETE FROM rides_neighborhoods WHERE id = ANY($1)`, stopIDs)
	if err != nil {
		return fmt.Errorf("delete city stops: %w", err)
	}
	return nil
}

// ListCityByRide возвращает городские остановки поездки по порядку
func (r *StopPgStore) ListCityByRide(ctx context.Context, rideID string) ([]domain.CityStop, error) {
	query := `
		SELECT id, ride_id, ride_rider_id, neighborhood_id, ordinal, created_at, updated_at
		FROM rides_neighborhoods
		WHERE ride_id = $1
		ORDER BY ordinal
	`
	rows, err := r.q.Query(ctx, query, rideID)
	if err != nil {
		return nil, fmt.Errorf("query city stops: %w", err)
	}
	defer rows.Close()

	var out []domain.CityStop
	for rows.Next() {
		var s domain.CityStop
		if err := rows.Scan(&s.ID, &s.RideID, &s.MembershipID, &s.NeighborhoodID, &s.Ordinal, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan city stop: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateTerminal создает терминальную остановку
func (r *StopPgStore) CreateTerminal(ctx context.Context, s *domain.TerminalStop) error {
	query := `
		INSERT INTO rides_terminals (id, ride_id, ride_rider_id, terminal_id, ordinal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.RideID, s.MembershipID, s.TerminalID, s.Ordinal, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert terminal stop: %w", err)
	}
	return nil
}

// UpdateTerminal обновляет терминальную остановку
func (r *StopPgStore) UpdateTerminal(ctx context.Context, s *domain.TerminalStop) error {
	query := `
		UPDATE rides_terminals SET
			terminal_id = $2,
			ordinal = $3,
			updated_at = $4
		WHERE id = $1
	`
	_, err := r.q.Exec(ctx, query, s.ID, s.TerminalID, s.Ordinal, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update terminal stop: %w", err)
	}
	return nil
}

// DeleteTerminal удаляет терминальные остановки по списку id
func (r *StopPgStore) DeleteTerminal(ctx context.Context, stopIDs []string) error {
	if len(stopIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `DELETE FROM rides_terminals WHERE id = ANY($1)`, stopIDs)
	if err != nil {
		return fmt.Errorf("delete terminal stops: %w", err)
	}
	return nil
}

// ListTerminalByRide возвращает терминальные остановки поездки по порядку
func (r *StopPgStore) ListTerminalByRide(ctx context.Context, rideID string) ([]domain.TerminalStop, error) {
	query := `
		SELECT id, ride_id, ride_rider_id, terminal_id, ordinal, created_at, updated_at
		FROM rides_terminals
		WHERE ride_id = $1
		ORDER BY ordinal
	`
	rows, err := r.q.Query(ctx, query, rideID)
	if err != nil {
		return nil, fmt.Errorf("query terminal stops: %w", err)
	}
	defer rows.Close()

	var out []domain.TerminalStop
	for rows.Next() {
		var s domain.TerminalStop
		if err := rows.Scan(&s.ID, &s.RideID, &s.MembershipID, &s.TerminalID, &s.Ordinal, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan terminal stop: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

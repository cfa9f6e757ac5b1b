package repo

import (
	"context"
	"errors"
	"fmt"

	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"

	"github.com/jackc/pgx/v5"
)

// PlacePgResolver подтверждает привязку мест: району — агломерацию,
// терминалу — аэропорт.
type PlacePgResolver struct {
	q   querier
	log *logger.Logger
}

// NewPlacePgResolver создает новый resolver
func NewPlacePgResolver(q querier, log *logger.Logger) *PlacePgResolver {
	return &PlacePgResolver{q: q, log: log}
}

// NeighborhoodAgglo возвращает id агломерации района
func (r *PlacePgResolver) NeighborhoodAgglo(ctx context.Context, neighborhoodID string) (string, error) {
	var aggloID string
	err := r.q.QueryRow(ctx,
		`SELECT agglo_id FROM neighborhoods WHERE id = $1`, neighborhoodID,
	).Scan(&aggloID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrPlaceNotFound
		}
		return "", fmt.Errorf("query neighborhood agglo: %w", err)
	}
	return aggloID, nil
}

// TerminalAirport возвращает id аэропорта терминала
func (r *PlacePgResolver) TerminalAirport(ctx context.Context, terminalID string) (string, error) {
	var airportID string
	err := r.q.QueryRow(ctx,
		`SELECT airport_id FROM terminals WHERE id = $1`, terminalID,
	).Scan(&airportID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrPlaceNotFound
		}
		return "", fmt.Errorf("query terminal airport: %w", err)
	}
	return airportID, nil
}

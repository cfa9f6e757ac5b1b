package repo

import (
	"context"
	"errors"
	"fmt"

	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"

	"github.com/jackc/pgx/v5"
)

const rideColumns = `
	id, ride_date, start_time, status, ride_type, toward,
	seat_count, luggage_count, baby_seat_count, sport_gear_count,
	pay_method, smoke_policy, pet_policy, curb_policy,
	public, airport_id, agglo_id, creator_id, created_at, updated_at`

// RidePgStore — PostgreSQL хранилище поездок
type RidePgStore struct {
	q   querier
	log *logger.Logger
}

// NewRidePgStore создает новое хранилище поездок
func NewRidePgStore(q querier, log *logger.Logger) *RidePgStore {
	return &RidePgStore{q: q, log: log}
}

// Create создает новую поездку
func (r *RidePgStore) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
	`

	_, err := r.q.Exec(ctx, query,
		ride.ID,
		ride.Date,
		ride.StartTime,
		ride.Status,
		ride.Type,
		ride.Toward,
		ride.SeatCount,
		ride.LuggageCount,
		ride.BabySeatCount,
		ride.SportGearCount,
		ride.PayMethod,
		ride.SmokePolicy,
		ride.PetPolicy,
		ride.CurbPolicy,
		ride.Public,
		ride.AirportID,
		ride.AggloID,
		ride.CreatorID,
		ride.CreatedAt,
		ride.UpdatedAt,
	)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_create_ride_failed",
			Message: err.Error(),
			RideID:  ride.ID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("insert ride: %w", err)
	}

	return nil
}

// FindByID возвращает поездку по ID
func (r *RidePgStore) FindByID(ctx context.Context, rideID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.q.QueryRow(ctx, query, rideID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRideNotFound
		}
		r.log.Error(logger.Entry{
			Action:  "db_find_ride_by_id_failed",
			Message: err.Error(),
			RideID:  rideID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("query ride by id: %w", err)
	}

	return ride, nil
}

// FindState возвращает полный снимок поездки: участники со спецификациями и
// оба упорядоченных списка остановок.
func (r *RidePgStore) FindState(ctx context.Context, rideID string) (*domain.RideState, error) {
	ride, err := r.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	st := &domain.RideState{Ride: *ride}

	query := `
		SELECT
			rr.id, rr.ride_id, rr.rider_id, rr.status, rr.joined_at,
			rr.created_at, rr.updated_at,
			r.id, r.traveler_id, r.ride_date, r.start_time, r.toward,
			r.airport_id, COALESCE(r.terminal_id::text, ''), r.neighborhood_id, r.agglo_id,
			r.seat_count, r.luggage_count, r.baby_seat_count, r.sport_gear_count,
			r.pay_pref, r.smoke_pref, r.pet_pref, r.curb_pref,
			r.created_at, r.updated_at
		FROM rides_riders rr
		JOIN riders r ON r.id = rr.rider_id
		WHERE rr.ride_id = $1
		ORDER BY rr.created_at
	`
	rows, err := r.q.Query(ctx, query, rideID)
	if err != nil {
		return nil, fmt.Errorf("query ride members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mv domain.MemberView
		err := rows.Scan(
			&mv.Membership.ID,
			&mv.Membership.RideID,
			&mv.Membership.RiderID,
			&mv.Membership.Status,
			&mv.Membership.JoinedAt,
			&mv.Membership.CreatedAt,
			&mv.Membership.UpdatedAt,
			&mv.Rider.ID,
			&mv.Rider.TravelerID,
			&mv.Rider.Date,
			&mv.Rider.StartTime,
			&mv.Rider.Toward,
			&mv.Rider.AirportID,
			&mv.Rider.TerminalID,
			&mv.Rider.NeighborhoodID,
			&mv.Rider.AggloID,
			&mv.Rider.SeatCount,
			&mv.Rider.LuggageCount,
			&mv.Rider.BabySeatCount,
			&mv.Rider.SportGearCount,
			&mv.Rider.PayPref,
			&mv.Rider.SmokePref,
			&mv.Rider.PetPref,
			&mv.Rider.CurbPref,
			&mv.Rider.CreatedAt,
			&mv.Rider.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ride member: %w", err)
		}
		st.Members = append(st.Members, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ride members: %w", err)
	}

	stops := NewStopPgStore(r.q, r.log)
	if st.CityStops, err = stops.ListCityByRide(ctx, rideID); err != nil {
		return nil, err
	}
	if st.TerminalStops, err = stops.ListTerminalByRide(ctx, rideID); err != nil {
		return nil, err
	}
	return st, nil
}

// Update обновляет существующую поездку
func (r *RidePgStore) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides SET
			ride_date = $2,
			start_time = $3,
			status = $4,
			toward = $5,
			seat_count = $6,
			luggage_count = $7,
			baby_seat_count = $8,
			sport_gear_count = $9,
			pay_method = $10,
			smoke_policy = $11,
			pet_policy = $12,
			curb_policy = $13,
			public = $14,
			airport_id = $15,
			agglo_id = $16,
			creator_id = $17,
			updated_at = $18
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		ride.ID,
		ride.Date,
		ride.StartTime,
		ride.Status,
		ride.Toward,
		ride.SeatCount,
		ride.LuggageCount,
		ride.BabySeatCount,
		ride.SportGearCount,
		ride.PayMethod,
		ride.SmokePolicy,
		ride.PetPolicy,
		ride.CurbPolicy,
		ride.Public,
		ride.AirportID,
		ride.AggloID,
		ride.CreatorID,
		ride.UpdatedAt,
	)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_update_ride_failed",
			Message: err.Error(),
			RideID:  ride.ID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("update ride: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRideNotFound
	}

	return nil
}

// Delete удаляет поездку; связки и остановки удаляются каскадно
func (r *RidePgStore) Delete(ctx context.Context, rideID string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM rides WHERE id = $1`, rideID)
	if err != nil {
		return fmt.Errorf("delete ride: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRideNotFound
	}
	return nil
}

func scanRide(row pgx.Row) (*domain.Ride, error) {
	ride := &domain.Ride{}
	err := row.Scan(
		&ride.ID,
		&ride.Date,
		&ride.StartTime,
		&ride.Status,
		&ride.Type,
		&ride.Toward,
		&ride.SeatCount,
		&ride.LuggageCount,
		&ride.BabySeatCount,
		&ride.SportGearCount,
		&ride.PayMethod,
		&ride.SmokePolicy,
		&ride.PetPolicy,
		&ride.CurbPolicy,
		&ride.Public,
		&ride.AirportID,
		&ride.AggloID,
		&ride.CreatorID,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ride, nil
}

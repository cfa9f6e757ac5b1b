package usecase

import (
	"context"
	"fmt"
	"time"

	"airpool/internal/model"
	"airpool/internal/pool/application/ports/in"
	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"
)

// Cascade обрабатывает массовое удаление спецификаций: из каждой затронутой
// поездки вычищаются их связки и остановки. Поездка, потерявшая уникальную
// роль, растворяется: унаследовать ее нельзя, выжившим возвращаются их
// приостановленные поездки, сама она уничтожается. Каждая поездка чистится в
// собственной транзакции: сбой одной не откатывает остальные.
func (s *LifecycleService) Cascade(ctx context.Context, input in.CascadeInput) (*in.CascadeOutput, error) {
	purge := toSet(input.RiderIDs)

	// поездки, затронутые хотя бы одной связкой удаляемых спецификаций
	affected := map[string]bool{}
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx out.Tx) error {
		for _, riderID := range input.RiderIDs {
			ms, err := tx.Memberships().FindByRiderID(ctx, riderID)
			if err != nil {
				return fmt.Errorf("find memberships of %s: %w", riderID, err)
			}
			for _, m := range ms {
				affected[m.RideID] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &in.CascadeOutput{}
	for rideID := range affected {
		destroyed, err := s.purgeRide(ctx, rideID, purge)
		if err != nil {
			s.log.Error(logger.Entry{
				Action:  "cascade_purge",
				Message: "ride purge failed",
				RideID:  rideID,
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
			continue
		}
		if destroyed {
			result.RidesDestroyed = append(result.RidesDestroyed, rideID)
		} else {
			result.RidesRetained = append(result.RidesRetained, rideID)
		}
	}
	return result, nil
}

// purgeRide вычищает связки удаляемых спецификаций из одной поездки в ее
// собственной транзакции. Возвращает true, если поездка уничтожена.
func (s *LifecycleService) purgeRide(ctx context.Context, rideID string, purge map[string]bool) (bool, error) {
	destroyed := false
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx out.Tx) error {
		st, err := s.loadState(ctx, tx, rideID)
		if err != nil {
			return err
		}

		keyDeleted := false
		var removals []domain.MemberView
		for _, m := range st.Members {
			if !purge[m.Membership.RiderID] {
				continue
			}
			removals = append(removals, m)
			if m.Membership.IsActive() && m.Membership.IsRideUnique() {
				keyDeleted = true
			}
		}

		for _, mv := range removals {
			if mv.Membership.IsActive() && mv.Membership.IsRideUnique() {
				// связка уникальной роли умирает вместе с поездкой ниже
				continue
			}
			if err := s.purgeMember(ctx, tx, st, mv); err != nil {
				return err
			}
		}

		if keyDeleted {
			// растворенную поездку нельзя унаследовать: выжившим участникам
			// возвращаются их приостановленные поездки, эта уничтожается
			for _, mv := range st.ActiveMembers() {
				if purge[mv.Rider.ID] {
					continue
				}
				if err := s.reactivateSuspended(ctx, tx, mv.Rider.ID, st.Ride.ID); err != nil {
					return err
				}
			}
			if err := s.destroyRide(ctx, tx, st); err != nil {
				return err
			}
			destroyed = true
			return nil
		}

		recomputeUsage(st)
		st.Ride.UpdatedAt = time.Now().UTC()
		if err := tx.Rides().Update(ctx, &st.Ride); err != nil {
			return fmt.Errorf("update ride %s: %w", st.Ride.ID, err)
		}
		return nil
	})
	return destroyed, err
}

// purgeMember удаляет связку участника насовсем вместе с его запросом и
// остановками. Спецификация удаляется, статусная история ей не нужна.
func (s *LifecycleService) purgeMember(ctx context.Context, tx out.Tx, st *domain.RideState, mv domain.MemberView) error {
	if err := s.dropPendingProposal(ctx, tx, mv.Membership.ID); err != nil {
		return err
	}
	wasActive := mv.Membership.IsActive()
	if err := tx.Memberships().Delete(ctx, mv.Membership.ID); err != nil {
		return fmt.Errorf("delete membership %s: %w", mv.Membership.ID, err)
	}
	st.RemoveMember(mv.Membership.ID)
	if err := s.removeMemberStops(ctx, tx, st, mv.Membership.ID); err != nil {
		return err
	}
	if wasActive {
		tx.Buffer(newEvent(model.EventMemberLeft, st.Ride.ID, mv.Rider.ID, mv.Membership.ID, map[string]any{
			"reason": "rider_deleted",
		}))
	}
	return nil
}

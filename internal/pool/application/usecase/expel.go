package usecase

import (
	"context"
	"fmt"
	"time"

	"airpool/internal/model"
	"airpool/internal/pool/application/ports/in"
	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"
)

// Expel исключает участника без уникальной роли: связка переводится в
// неактивный статус, его остановки удаляются, загрузка пересчитывается.
func (s *LifecycleService) Expel(ctx context.Context, input in.ExpelInput) (*in.RideResult, error) {
	newStatus := input.NewStatus
	if newStatus == "" {
		newStatus = model.MemberStatusLeft
	}

	var result *in.RideResult
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx out.Tx) error {
		st, err := s.loadState(ctx, tx, input.RideID)
		if err != nil {
			return err
		}
		mv, ok := st.MemberByID(input.MembershipID)
		if !ok {
			return domain.ErrMembershipNotFound
		}
		if mv.Membership.IsRideUnique() {
			return domain.ErrRideUniqueMember
		}

		if err := s.expelMember(ctx, tx, st, mv, newStatus, model.EventMemberExpelled); err != nil {
			return err
		}

		if !input.SuppressReactivate {
			if err := s.reactivateSuspended(ctx, tx, mv.Rider.ID, st.Ride.ID); err != nil {
				return err
			}
		}

		ride := st.Ride
		result = &in.RideResult{Ride: &ride}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// expelMember — общий путь исключения/выхода не-уникального участника:
// деактивация связки, чистка его запроса, пересеквенирование остановок,
// пересчет загрузки и сохранение поездки.
func (s *LifecycleService) expelMember(ctx context.Context, tx out.Tx, st *domain.RideState, mv domain.MemberView, newStatus, eventType string) error {
	if err := s.dropPendingProposal(ctx, tx, mv.Membership.ID); err != nil {
		return err
	}
	if err := s.deactivateMember(ctx, tx, st, mv, newStatus); err != nil {
		return err
	}
	st.Ride.UpdatedAt = time.Now().UTC()
	if err := tx.Rides().Update(ctx, &st.Ride); err != nil {
		return fmt.Errorf("update ride %s: %w", st.Ride.ID, err)
	}
	tx.Buffer(newEvent(eventType, st.Ride.ID, mv.Rider.ID, mv.Membership.ID, map[string]any{
		"new_status": newStatus,
	}))
	return nil
}

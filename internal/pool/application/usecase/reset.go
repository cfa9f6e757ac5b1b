package usecase

import (
	"context"
	"fmt"

	"airpool/internal/model"
	"airpool/internal/pool/application/ports/in"
	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"
)

// Reset пересобирает поездку по спецификации владельца. Пока в поездке есть
// попутчики, их условия нельзя молча переписать: операция ведет себя как
// выход владельца, и он получает свежую поездку отдельно. Для поездки без
// попутчиков условия переписываются на месте.
func (s *LifecycleService) Reset(ctx context.Context, input in.ResetInput) (*in.RideResult, error) {
	var result *in.RideResult
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx out.Tx) error {
		st, err := s.loadState(ctx, tx, input.RideID)
		if err != nil {
			return err
		}
		res, err := s.resetTx(ctx, tx, st, input)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LifecycleService) resetTx(ctx context.Context, tx out.Tx, st *domain.RideState, input in.ResetInput) (*in.RideResult, error) {
	owner, ok := st.UniqueMember()
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}

	if len(st.CoRiders()) > 0 {
		return s.dropOwnerTx(ctx, tx, st, input.Suspend)
	}

	if input.UpdatedOwnerRiderID != nil {
		rider, err := s.riders.FindByID(ctx, *input.UpdatedOwnerRiderID)
		if err != nil {
			return nil, fmt.Errorf("find rider %s: %w", *input.UpdatedOwnerRiderID, err)
		}
		owner.Rider = *rider
		st.ReplaceMember(owner)
	}

	if err := s.rewriteRideFromRider(ctx, tx, st, owner); err != nil {
		return nil, err
	}
	tx.Buffer(newEvent(model.EventRideReset, st.Ride.ID, owner.Rider.ID, owner.Membership.ID, nil))

	ride := st.Ride
	return &in.RideResult{Ride: &ride}, nil
}

package usecase

import (
	"context"

	"airpool/internal/model"
	"airpool/internal/pool/application/ports/in"
	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"
)

// DropOwner выводит владельца из поездки. Дальнейшая судьба поездки зависит
// от оставшихся участников: при двух и более попутчиках она передается самому
// раннему из них, при одном — сворачивается на него и переписывается по его
// спецификации, при нуле — приостанавливается либо уничтожается.
func (s *LifecycleService) DropOwner(ctx context.Context, input in.DropOwnerInput) (*in.RideResult, error) {
	var result *in.RideResult
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx out.Tx) error {
		st, err := s.loadState(ctx, tx, input.RideID)
		if err != nil {
			return err
		}
		res, err := s.dropOwnerTx(ctx, tx, st, input.Suspend)
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

func (s *LifecycleService) dropOwnerTx(ctx context.Context, tx out.Tx, st *domain.RideState, suspend bool) (*in.RideResult, error) {
	owner, ok := st.UniqueMember()
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}

	co := st.CoRiders()
	switch {
	case len(co) >= 2 && model.AllowsCoRiders(st.Ride.Type):
		if _, err := s.spinOffTx(ctx, tx, st); err != nil {
			return nil, err
		}
	case len(co) >= 1:
		// единственный попутчик, либо тип поездки не допускает нескольких
		// не-владельцев: поездка сворачивается на самого раннего
		if err := s.collapseOntoSurvivor(ctx, tx, st, owner, co[0]); err != nil {
			return nil, err
		}
	default:
		if suspend {
			if err := s.suspendRide(ctx, tx, st); err != nil {
				return nil, err
			}
		} else {
			if err := s.destroyRide(ctx, tx, st); err != nil {
				return nil, err
			}
			return &in.RideResult{Destroyed: true}, nil
		}
	}

	ride := st.Ride
	return &in.RideResult{Ride: &ride}, nil
}

// collapseOntoSurvivor передает поездку единственному попутчику и переписывает
// ее условия по его спецификации: прежний состав больше не ограничивает
// расписание и вместимость.
func (s *LifecycleService) collapseOntoSurvivor(ctx context.Context, tx out.Tx, st *domain.RideState, owner, survivor domain.MemberView) error {
	if err := s.dropPendingProposal(ctx, tx, owner.Membership.ID); err != nil {
		return err
	}
	if err := s.deactivateMember(ctx, tx, st, owner, model.MemberStatusLeft); err != nil {
		return err
	}

	survivor.Membership.Status = model.RideUniqueStatusFor(st.Ride.Type)
	if err := tx.Memberships().Update(ctx, &survivor.Membership); err != nil {
		return err
	}
	st.ReplaceMember(survivor)
	st.Ride.CreatorID = survivor.Rider.TravelerID

	if err := s.rewriteRideFromRider(ctx, tx, st, survivor); err != nil {
		return err
	}

	tx.Buffer(newEvent(model.EventMemberLeft, st.Ride.ID, owner.Rider.ID, owner.Membership.ID, nil))
	tx.Buffer(newEvent(model.EventOwnerChanged, st.Ride.ID, survivor.Rider.ID, survivor.Membership.ID, map[string]any{
		"previous_rider_id": owner.Rider.ID,
	}))
	return nil
}

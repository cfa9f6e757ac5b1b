package usecase

import (
	"context"
	"fmt"

	"airpool/internal/model"
	"airpool/internal/pool/application/ports/in"
	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"
)

// DropOut — добровольный выход участника из его активной поездки. Попутчик
// просто выходит; для владельца операция раскладывается либо в пересборку
// поездки по его новой спецификации, либо в выход владельца.
func (s *LifecycleService) DropOut(ctx context.Context, input in.DropOutInput) (*in.RideResult, error) {
	var result *in.RideResult
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx out.Tx) error {
		active, err := tx.Memberships().FindActiveByRiderID(ctx, input.RiderID)
		if err != nil {
			return fmt.Errorf("find active memberships of %s: %w", input.RiderID, err)
		}
		if len(active) == 0 {
			return domain.ErrMembershipNotFound
		}
		m := active[0]

		st, err := s.loadState(ctx, tx, m.RideID)
		if err != nil {
			return err
		}
		mv, ok := st.MemberByID(m.ID)
		if !ok {
			return domain.ErrMembershipNotFound
		}

		if mv.Membership.IsRideUnique() {
			var res *in.RideResult
			if input.Reset {
				res, err = s.resetTx(ctx, tx, st, in.ResetInput{
					RideID:              st.Ride.ID,
					UpdatedOwnerRiderID: &input.RiderID,
				})
			} else {
				res, err = s.dropOwnerTx(ctx, tx, st, false)
			}
			if err != nil {
				return err
			}
			result = res
			return nil
		}

		if err := s.expelMember(ctx, tx, st, mv, model.MemberStatusLeft, model.EventMemberLeft); err != nil {
			return err
		}
		if !input.SuppressReactivate {
			if err := s.reactivateSuspended(ctx, tx, input.RiderID, st.Ride.ID); err != nil {
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

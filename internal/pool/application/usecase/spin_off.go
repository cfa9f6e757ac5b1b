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

// SpinOff передает поездку самому раннему попутчику. Прежний владелец
// выходит, новый получает уникальную роль, несовместимые с новым расписанием
// участники отцепляются. Продолжение follow выполняется в той же транзакции.
func (s *LifecycleService) SpinOff(ctx context.Context, input in.SpinOffInput, follow in.PostSpinOff) (*in.RideResult, error) {
	var result *in.RideResult
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx out.Tx) error {
		st, err := s.loadState(ctx, tx, input.RideID)
		if err != nil {
			return err
		}
		departed, err := s.spinOffTx(ctx, tx, st)
		if err != nil {
			return err
		}
		if follow != nil {
			if err := follow(ctx, tx, departed); err != nil {
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

// spinOffTx выполняет передачу внутри открытой транзакции и возвращает снимок
// ушедшего владельца на момент передачи.
func (s *LifecycleService) spinOffTx(ctx context.Context, tx out.Tx, st *domain.RideState) (domain.MemberView, error) {
	owner, ok := st.UniqueMember()
	if !ok {
		return domain.MemberView{}, domain.ErrMembershipNotFound
	}
	heir, ok := st.EarliestJoinedCoRider()
	if !ok {
		return domain.MemberView{}, domain.ErrNoCoRiders
	}
	departed := owner

	if err := s.dropPendingProposal(ctx, tx, owner.Membership.ID); err != nil {
		return domain.MemberView{}, err
	}
	if err := s.deactivateMember(ctx, tx, st, owner, model.MemberStatusLeft); err != nil {
		return domain.MemberView{}, err
	}

	now := time.Now().UTC()
	heir.Membership.Status = model.RideUniqueStatusFor(st.Ride.Type)
	heir.Membership.UpdatedAt = now
	if err := tx.Memberships().Update(ctx, &heir.Membership); err != nil {
		return domain.MemberView{}, fmt.Errorf("promote membership %s: %w", heir.Membership.ID, err)
	}
	st.ReplaceMember(heir)
	st.Ride.CreatorID = heir.Rider.TravelerID

	// расписание поездки наследуется от нового владельца
	st.Ride.Date = heir.Rider.Date
	st.Ride.StartTime = heir.Rider.StartTime

	if err := s.pruneIncompatible(ctx, tx, st, heir.Membership.ID); err != nil {
		return domain.MemberView{}, err
	}

	recomputeUsage(st)
	st.Ride.UpdatedAt = now
	if err := tx.Rides().Update(ctx, &st.Ride); err != nil {
		return domain.MemberView{}, fmt.Errorf("update ride %s: %w", st.Ride.ID, err)
	}

	tx.Buffer(newEvent(model.EventMemberLeft, st.Ride.ID, departed.Rider.ID, departed.Membership.ID, nil))
	tx.Buffer(newEvent(model.EventOwnerChanged, st.Ride.ID, heir.Rider.ID, heir.Membership.ID, map[string]any{
		"previous_rider_id": departed.Rider.ID,
	}))
	return departed, nil
}

// pruneIncompatible отцепляет активных участников, которые после смены условий
// больше не проходят проверку совместимости.
func (s *LifecycleService) pruneIncompatible(ctx context.Context, tx out.Tx, st *domain.RideState, keepMembershipID string) error {
	for {
		var victim domain.MemberView
		found := false
		for _, m := range st.ActiveMembers() {
			if m.Membership.ID == keepMembershipID {
				continue
			}
			if err := domain.MayKeep(*st, m); err != nil {
				victim = m
				found = true
				break
			}
		}
		if !found {
			return nil
		}
		if err := s.dropPendingProposal(ctx, tx, victim.Membership.ID); err != nil {
			return err
		}
		if err := s.deactivateMember(ctx, tx, st, victim, model.MemberStatusLeft); err != nil {
			return err
		}
		tx.Buffer(newEvent(model.EventMemberLeft, st.Ride.ID, victim.Rider.ID, victim.Membership.ID, map[string]any{
			"reason": "incompatible_after_transfer",
		}))
	}
}

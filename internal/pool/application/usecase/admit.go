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

// Admit принимает заявку в поездку: проверяет совместимость кандидата,
// при необходимости приостанавливает его одиночную поездку, применяет
// сопровождающий запрос на изменение и вписывает остановки кандидата.
func (s *LifecycleService) Admit(ctx context.Context, input in.AdmitInput) (*in.RideResult, error) {
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
		if mv.Membership.Status != model.MemberStatusApplied {
			return domain.ErrNotApplicant
		}
		if err := domain.MayAdmit(*st, mv.Rider); err != nil {
			return err
		}
		if err := s.leaveOtherRides(ctx, tx, mv.Rider.ID, st.Ride.ID); err != nil {
			return err
		}

		patch := StopPatch{}
		if input.ProposalID != nil {
			p, err := tx.Proposals().FindByID(ctx, *input.ProposalID)
			if err != nil {
				return fmt.Errorf("find proposal %s: %w", *input.ProposalID, err)
			}
			if p.MembershipID != mv.Membership.ID {
				return domain.ErrProposalMismatch
			}
			applied, err := s.applyProposal(ctx, tx, st, mv, p, &patch)
			if err != nil {
				return err
			}
			if !applied {
				return domain.ErrNoChange
			}
		}
		if input.CounterProposalID != nil {
			if err := tx.Proposals().Delete(ctx, *input.CounterProposalID); err != nil {
				return fmt.Errorf("delete counter proposal %s: %w", *input.CounterProposalID, err)
			}
		}

		// остановки кандидата: запрос имеет приоритет, иначе в конец списков
		if patch.NewCity == nil && !st.HasCityStopFor(mv.Rider.NeighborhoodID) {
			patch.NewCity = &domain.CityStop{
				MembershipID:   mv.Membership.ID,
				NeighborhoodID: mv.Rider.NeighborhoodID,
				Ordinal:        -1,
			}
		}
		if patch.NewTerminal == nil && mv.Rider.TerminalID != "" && !st.HasTerminalStopFor(mv.Rider.TerminalID) {
			patch.NewTerminal = &domain.TerminalStop{
				MembershipID: mv.Membership.ID,
				TerminalID:   mv.Rider.TerminalID,
				Ordinal:      -1,
			}
		}

		now := time.Now().UTC()
		mv.Membership.Status = model.MemberStatusJoined
		mv.Membership.JoinedAt = &now
		mv.Membership.UpdatedAt = now
		if err := tx.Memberships().Update(ctx, &mv.Membership); err != nil {
			return fmt.Errorf("admit membership %s: %w", mv.Membership.ID, err)
		}
		st.ReplaceMember(mv)

		if err := s.seq.Apply(ctx, tx, st, patch); err != nil {
			return err
		}

		recomputeUsage(st)
		st.Ride.UpdatedAt = now
		if err := tx.Rides().Update(ctx, &st.Ride); err != nil {
			return fmt.Errorf("update ride %s: %w", st.Ride.ID, err)
		}

		tx.Buffer(newEvent(model.EventMemberAdmitted, st.Ride.ID, mv.Rider.ID, mv.Membership.ID, map[string]any{
			"score": domain.MatchScore(*st, mv.Rider),
		}))

		ride := st.Ride
		result = &in.RideResult{Ride: &ride}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyProposal валидирует запрос, проверяет его применимость и переносит
// изменения на поездку и в патч остановок. Возвращает false, если запрос пуст.
func (s *LifecycleService) applyProposal(ctx context.Context, tx out.Tx, st *domain.RideState, mv domain.MemberView, p *domain.ChangeProposal, patch *StopPatch) (bool, error) {
	if !p.HasChange() {
		return false, nil
	}
	if err := p.Validate(); err != nil {
		return false, err
	}

	scope, err := s.resolveScope(ctx, p)
	if err != nil {
		return false, err
	}
	if err := domain.MayApplyChange(*st, *p, scope); err != nil {
		return false, err
	}

	p.ApplyTo(&st.Ride)
	if p.CloseRide != nil && *p.CloseRide {
		st.Ride.Status = model.RideStatusClosed
	}

	for _, d := range p.CityStopDrops {
		patch.DropCityIDs = append(patch.DropCityIDs, d.StopID)
	}
	for _, d := range p.TerminalStopDrops {
		patch.DropTerminalIDs = append(patch.DropTerminalIDs, d.StopID)
	}
	if p.NeighborhoodID != nil {
		ord := -1
		if p.NeighborhoodOrdinal != nil {
			ord = *p.NeighborhoodOrdinal
		}
		patch.NewCity = &domain.CityStop{
			MembershipID:   mv.Membership.ID,
			NeighborhoodID: *p.NeighborhoodID,
			Ordinal:        ord,
		}
	}
	if p.TerminalID != nil {
		ord := -1
		if p.TerminalOrdinal != nil {
			ord = *p.TerminalOrdinal
		}
		patch.NewTerminal = &domain.TerminalStop{
			MembershipID: mv.Membership.ID,
			TerminalID:   *p.TerminalID,
			Ordinal:      ord,
		}
	}

	if err := tx.Proposals().Delete(ctx, p.ID); err != nil {
		return false, fmt.Errorf("delete proposal %s: %w", p.ID, err)
	}
	return true, nil
}

// resolveScope подтягивает агломерацию и аэропорт упомянутых в запросе мест
// для проверки вхождения в зону поездки.
func (s *LifecycleService) resolveScope(ctx context.Context, p *domain.ChangeProposal) (domain.ChangeScope, error) {
	var scope domain.ChangeScope
	if p.NeighborhoodID != nil {
		agglo, err := s.places.NeighborhoodAgglo(ctx, *p.NeighborhoodID)
		if err != nil {
			return scope, fmt.Errorf("resolve neighborhood %s: %w", *p.NeighborhoodID, err)
		}
		scope.NeighborhoodAggloID = agglo
	}
	if p.TerminalID != nil {
		airport, err := s.places.TerminalAirport(ctx, *p.TerminalID)
		if err != nil {
			return scope, fmt.Errorf("resolve terminal %s: %w", *p.TerminalID, err)
		}
		scope.TerminalAirportID = airport
	}
	return scope, nil
}

// leaveOtherRides разбирается с прочими активными связками кандидата: одиночную
// поездку, где он единственный участник с уникальной ролью, приостанавливает,
// поездку с попутчиками считает конфликтом.
func (s *LifecycleService) leaveOtherRides(ctx context.Context, tx out.Tx, riderID, admitRideID string) error {
	active, err := tx.Memberships().FindActiveByRiderID(ctx, riderID)
	if err != nil {
		return fmt.Errorf("find active memberships of %s: %w", riderID, err)
	}
	for _, m := range active {
		if m.RideID == admitRideID {
			continue
		}
		other, err := s.loadState(ctx, tx, m.RideID)
		if err != nil {
			return err
		}
		if !m.IsRideUnique() || len(other.CoRiders()) > 0 {
			return domain.ErrOtherRideActive
		}
		if err := s.suspendRide(ctx, tx, other); err != nil {
			return err
		}
	}
	return nil
}

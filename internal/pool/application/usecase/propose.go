package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airpool/internal/pool/application/ports/in"
	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"

	"github.com/google/uuid"
)

// ProposeChange сохраняет запрос на изменение условий поездки для связки.
// Запрос валидируется и проверяется на применимость уже при подаче, чтобы
// заведомо неприменимое предложение не висело в ожидании решения. Pending-
// запрос той же связки переписывается на месте; идентичный повтор не пишется.
func (s *LifecycleService) ProposeChange(ctx context.Context, input in.ProposeChangeInput) (*domain.ChangeProposal, error) {
	var result *domain.ChangeProposal
	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx out.Tx) error {
		st, err := s.loadState(ctx, tx, input.RideID)
		if err != nil {
			return err
		}
		mv, ok := st.MemberByID(input.MembershipID)
		if !ok {
			return domain.ErrMembershipNotFound
		}

		p := input.Proposal
		if !p.HasChange() {
			return domain.ErrNoChange
		}
		if err := p.Validate(); err != nil {
			return err
		}
		scope, err := s.resolveScope(ctx, &p)
		if err != nil {
			return err
		}
		if err := domain.MayApplyChange(*st, p, scope); err != nil {
			return err
		}

		p.MembershipID = mv.Membership.ID
		p.Counter = input.Counter
		now := time.Now().UTC()

		existing, err := tx.Proposals().FindByMembershipID(ctx, mv.Membership.ID)
		switch {
		case err == nil:
			if !existing.DiffersFrom(p) && existing.Counter == p.Counter {
				// идентичный pending-запрос не переписываем
				result = existing
				return nil
			}
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = now
			if err := tx.Proposals().Update(ctx, &p); err != nil {
				return fmt.Errorf("update proposal %s: %w", p.ID, err)
			}
		case errors.Is(err, domain.ErrProposalNotFound):
			p.ID = uuid.New().String()
			p.CreatedAt, p.UpdatedAt = now, now
			if err := tx.Proposals().Create(ctx, &p); err != nil {
				return fmt.Errorf("create proposal: %w", err)
			}
		default:
			return fmt.Errorf("find proposal of membership %s: %w", mv.Membership.ID, err)
		}

		result = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

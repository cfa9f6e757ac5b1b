package in

import (
	"context"

	"airpool/internal/pool/domain"
)

// ProposeChangeInput — создание или обновление запроса на изменение условий
// поездки. Пока запрос связки pending, повторная подача переписывает его на
// месте. Counter=true помечает встречное предложение: оно прикрепляется к
// связке противоположной стороны переговоров.
type ProposeChangeInput struct {
	RideID       string                `json:"ride_id"`
	MembershipID string                `json:"membership_id"`
	Counter      bool                  `json:"counter"`
	Proposal     domain.ChangeProposal `json:"proposal"`
}

// ProposeChangeUseCase — интерфейс use-case подачи запроса на изменение
type ProposeChangeUseCase interface {
	ProposeChange(ctx context.Context, input ProposeChangeInput) (*domain.ChangeProposal, error)
}

package in

import "context"

// AdmitInput — входные данные для принятия заявки в поездку
type AdmitInput struct {
	RideID       string `json:"ride_id"`
	MembershipID string `json:"membership_id"` // связка в статусе applied

	// ProposalID — запрос на изменение условий, применяемый при принятии
	ProposalID *string `json:"proposal_id,omitempty"`

	// CounterProposalID — встречное предложение, удаляемое при принятии
	CounterProposalID *string `json:"counter_proposal_id,omitempty"`
}

// AdmitUseCase — интерфейс use-case принятия участника
type AdmitUseCase interface {
	Admit(ctx context.Context, input AdmitInput) (*RideResult, error)
}

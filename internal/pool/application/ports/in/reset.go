package in

import "context"

// ResetInput — владелец задает новые условия, обнуляющие прежние остановки
// и загрузку. При наличии других участников ведет себя как выход владельца;
// иначе поездка переписывается на месте по текущей спецификации владельца.
type ResetInput struct {
	RideID string `json:"ride_id"`

	// Suspend — приостановить пустую поездку вместо уничтожения
	Suspend bool `json:"suspend"`

	// UpdatedOwnerRiderID — обновленная спецификация владельца, если она
	// сменилась (nil — перечитать текущую)
	UpdatedOwnerRiderID *string `json:"updated_owner_rider_id,omitempty"`
}

// ResetUseCase — интерфейс use-case пересборки поездки
type ResetUseCase interface {
	Reset(ctx context.Context, input ResetInput) (*RideResult, error)
}

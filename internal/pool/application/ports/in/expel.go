package in

import "context"

// ExpelInput — входные данные для исключения участника без уникальной роли
type ExpelInput struct {
	RideID       string `json:"ride_id"`
	MembershipID string `json:"membership_id"`

	// NewStatus — статус связки после исключения (по умолчанию left)
	NewStatus string `json:"new_status,omitempty"`

	// SuppressReactivate отключает возврат приостановленной поездки участника;
	// по умолчанию она реактивируется
	SuppressReactivate bool `json:"suppress_reactivate"`
}

// ExpelUseCase — интерфейс use-case исключения участника
type ExpelUseCase interface {
	Expel(ctx context.Context, input ExpelInput) (*RideResult, error)
}

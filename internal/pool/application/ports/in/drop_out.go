package in

import "context"

// DropOutInput — выход участника по его собственной инициативе (например,
// когда новое бронирование сделало его несовместимым с текущей поездкой)
type DropOutInput struct {
	RiderID string `json:"rider_id"`

	// SuppressReactivate отключает возврат приостановленной поездки участника;
	// по умолчанию она реактивируется
	SuppressReactivate bool `json:"suppress_reactivate"`

	// Reset — для владельца: пересобрать поездку по новой спецификации
	// вместо выхода из нее
	Reset bool `json:"reset"`
}

// DropOutUseCase — интерфейс use-case добровольного выхода
type DropOutUseCase interface {
	DropOut(ctx context.Context, input DropOutInput) (*RideResult, error)
}

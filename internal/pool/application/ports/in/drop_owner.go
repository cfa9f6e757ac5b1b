package in

import "context"

// DropOwnerInput — выход владельца из поездки. При >=2 попутчиках поездка
// передается самому раннему из них (spin-off); при одном — сворачивается на
// него; при нуле — приостанавливается либо уничтожается.
type DropOwnerInput struct {
	RideID string `json:"ride_id"`

	// Suspend — приостановить пустую поездку вместо уничтожения
	Suspend bool `json:"suspend"`
}

// DropOwnerUseCase — интерфейс use-case выхода владельца
type DropOwnerUseCase interface {
	DropOwner(ctx context.Context, input DropOwnerInput) (*RideResult, error)
}

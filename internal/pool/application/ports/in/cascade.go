package in

import "context"

// CascadeInput — массовое удаление спецификаций: каждая затронутая поездка
// чистится от их связок и остановок, пустые поездки уничтожаются
type CascadeInput struct {
	RiderIDs []string `json:"rider_ids"`
}

// CascadeOutput — итог каскада по затронутым поездкам
type CascadeOutput struct {
	RidesDestroyed []string `json:"rides_destroyed"`
	RidesRetained  []string `json:"rides_retained"`
}

// CascadeUseCase — интерфейс use-case каскадного удаления
type CascadeUseCase interface {
	Cascade(ctx context.Context, input CascadeInput) (*CascadeOutput, error)
}

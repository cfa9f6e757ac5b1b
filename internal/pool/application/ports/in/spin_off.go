package in

import (
	"context"

	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"
)

// PostSpinOff — продолжение, выполняемое в той же транзакции после передачи
// поездки (например, создание новой поездки для ушедшего владельца).
// departed — снимок бывшего владельца на момент передачи.
type PostSpinOff func(ctx context.Context, tx out.Tx, departed domain.MemberView) error

// SpinOffInput — передача поездки самому раннему попутчику
type SpinOffInput struct {
	RideID string `json:"ride_id"`
}

// SpinOffUseCase — интерфейс use-case передачи поездки
type SpinOffUseCase interface {
	SpinOff(ctx context.Context, input SpinOffInput, follow PostSpinOff) (*RideResult, error)
}

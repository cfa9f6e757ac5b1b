package out

import (
	"context"

	"airpool/internal/pool/domain"
)

// Tx — явный транзакционный контекст. Все записи жизненного цикла идут через
// его хранилища; доменные события накапливаются в буфере и публикуются только
// после успешного commit.
type Tx interface {
	Rides() RideStore
	Memberships() MembershipStore
	Stops() StopStore
	Proposals() ProposalStore

	// Buffer откладывает доменное событие до commit.
	Buffer(evt domain.Event)
}

// TxManager открывает одну атомарную транзакцию: любая ошибка из fn
// откатывает все записи, успех — commit и публикация накопленных событий.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

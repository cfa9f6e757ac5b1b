package repo

import (
	"context"
	"fmt"

	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgTxManager открывает pgx-транзакции и после commit публикует накопленные
// доменные события. Откат транзакции отбрасывает буфер целиком.
type PgTxManager struct {
	pool *pgxpool.Pool
	pub  out.EventPublisher
	log  *logger.Logger
}

// NewPgTxManager создает новый менеджер транзакций
func NewPgTxManager(pool *pgxpool.Pool, pub out.EventPublisher, log *logger.Logger) *PgTxManager {
	return &PgTxManager{pool: pool, pub: pub, log: log}
}

// WithinTx выполняет fn в одной транзакции. События публикуются только после
// успешного commit; сбой публикации не откатывает уже закоммиченные записи.
func (m *PgTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx out.Tx) error) error {
	pgtx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := newPgTx(pgtx, m.log)
	if err := fn(ctx, wrapped); err != nil {
		if rbErr := pgtx.Rollback(ctx); rbErr != nil {
			m.log.Warn(logger.Entry{
				Action:  "tx_rollback_failed",
				Message: rbErr.Error(),
			})
		}
		return err
	}

	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	for _, evt := range wrapped.buffered {
		if err := m.pub.PublishPoolEvent(ctx, evt); err != nil {
			m.log.Error(logger.Entry{
				Action:  "publish_pool_event_failed",
				Message: err.Error(),
				RideID:  evt.RideID,
				Error:   &logger.ErrObj{Msg: err.Error()},
				Additional: map[string]any{
					"event_type": evt.EventType,
				},
			})
		}
	}
	return nil
}

// pgTx — транзакционный контекст поверх pgx.Tx: все хранилища разделяют одну
// транзакцию, события копятся до commit.
type pgTx struct {
	rides       *RidePgStore
	memberships *MembershipPgStore
	stops       *StopPgStore
	proposals   *ProposalPgStore

	buffered []domain.Event
}

func newPgTx(q querier, log *logger.Logger) *pgTx {
	return &pgTx{
		rides:       NewRidePgStore(q, log),
		memberships: NewMembershipPgStore(q, log),
		stops:       NewStopPgStore(q, log),
		proposals:   NewProposalPgStore(q, log),
	}
}

func (t *pgTx) Rides() out.RideStore             { return t.rides }
func (t *pgTx) Memberships() out.MembershipStore { return t.memberships }
func (t *pgTx) Stops() out.StopStore             { return t.stops }
func (t *pgTx) Proposals() out.ProposalStore     { return t.proposals }

func (t *pgTx) Buffer(evt domain.Event) {
	t.buffered = append(t.buffered, evt)
}

package out

import (
	"context"

	"airpool/internal/pool/domain"
)

// EventPublisher — интерфейс для публикации доменных событий в RabbitMQ.
// Вызывается менеджером транзакций после commit.
type EventPublisher interface {
	// PublishPoolEvent публикует событие жизненного цикла участия
	PublishPoolEvent(ctx context.Context, evt domain.Event) error
}

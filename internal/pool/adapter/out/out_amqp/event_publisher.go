package out_amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"airpool/internal/model"
	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"
	"airpool/internal/shared/mq"
)

// PoolEventPublisher публикует события жизненного цикла участия в RabbitMQ
type PoolEventPublisher struct {
	mq  *mq.RabbitMQ
	log *logger.Logger
}

// NewPoolEventPublisher создает новый publisher
func NewPoolEventPublisher(mqConn *mq.RabbitMQ, log *logger.Logger) *PoolEventPublisher {
	return &PoolEventPublisher{
		mq:  mqConn,
		log: log,
	}
}

// PublishPoolEvent публикует событие в pool_topic exchange
func (p *PoolEventPublisher) PublishPoolEvent(ctx context.Context, evt domain.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal pool event: %w", err)
	}

	routingKey := getRoutingKey(evt.EventType)

	if err := p.mq.Publish(ctx, "pool_topic", routingKey, payload); err != nil {
		p.log.Error(logger.Entry{
			Action:  "publish_pool_event_failed",
			Message: err.Error(),
			RideID:  evt.RideID,
			Error:   &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"event_type":  evt.EventType,
				"routing_key": routingKey,
			},
		})
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}

	p.log.Debug(logger.Entry{
		Action:  "pool_event_published",
		Message: evt.EventType,
		RideID:  evt.RideID,
		Additional: map[string]any{
			"routing_key": routingKey,
		},
	})

	return nil
}

// getRoutingKey возвращает routing key для события
func getRoutingKey(eventType string) string {
	switch eventType {
	case model.EventMemberAdmitted:
		return "member.admitted"
	case model.EventMemberLeft:
		return "member.left"
	case model.EventMemberExpelled:
		return "member.expelled"
	case model.EventOwnerChanged:
		return "owner.changed"
	case model.EventRideReset:
		return "ride.reset"
	case model.EventRideSuspended:
		return "ride.suspended"
	case model.EventRideReactivated:
		return "ride.reactivated"
	case model.EventRideDestroyed:
		return "ride.destroyed"
	default:
		return "ride.event"
	}
}

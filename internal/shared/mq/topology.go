package mq

import (
	"fmt"

	"airpool/internal/shared/logger"
)

// SetupTopology создает exchange и очереди для событий участия в поездках
func SetupTopology(mq *RabbitMQ, log *logger.Logger) error {
	ch := mq.Channel()
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	// Exchange: pool_topic (topic)
	if err := ch.ExchangeDeclare(
		"pool_topic", // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // args
	); err != nil {
		return fmt.Errorf("declare pool_topic: %w", err)
	}

	// Очереди для downstream-потребителей (нотификации, аналитика)
	queues := map[string]string{
		"pool.member.changed": "member.*",
		"pool.owner.changed":  "owner.*",
		"pool.ride.changed":   "ride.*",
	}

	for queue, binding := range queues {
		if _, err := ch.QueueDeclare(
			queue,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, binding, "pool_topic", false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	log.Info(logger.Entry{
		Action:  "rabbitmq_topology_ready",
		Message: "pool_topic exchange and queues declared",
	})

	return nil
}

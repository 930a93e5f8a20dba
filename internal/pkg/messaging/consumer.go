package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler handles one event from the feed.
type MessageHandler func(ctx context.Context, event *Event) error

// Consumer reads the change-notification feed and dispatches events to
// registered handlers by event type.
type Consumer struct {
	rmq       *RabbitMQ
	queueName string
	handlers  map[string]MessageHandler
	logger    *slog.Logger
}

func NewConsumer(rmq *RabbitMQ, queueName string, logger *slog.Logger) (*Consumer, error) {
	if _, err := rmq.DeclareQueue(queueName); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	return &Consumer{
		rmq:       rmq,
		queueName: queueName,
		handlers:  make(map[string]MessageHandler),
		logger:    logger,
	}, nil
}

// Subscribe binds the consumer queue to an exchange with a routing key
// pattern, e.g. "payroll.#".
func (c *Consumer) Subscribe(exchange, routingKeyPattern string) error {
	if err := c.rmq.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	if err := c.rmq.BindQueue(c.queueName, exchange, routingKeyPattern); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.logger.Info("subscribed to exchange",
		"queue", c.queueName, "exchange", exchange, "routing_key", routingKeyPattern)
	return nil
}

// RegisterHandler registers a handler for a specific event type.
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.handlers[eventType] = handler
}

// Start consumes messages until ctx is cancelled. Handler failures are
// logged and acknowledged; the feed only drives cache refresh, so redelivery
// buys nothing.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.rmq.Channel().Consume(
		c.queueName, // queue
		"",          // consumer tag (auto-generated)
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("consumer started", "queue", c.queueName)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("consumer stopped", "queue", c.queueName)
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("message channel closed", "queue", c.queueName)
					return
				}
				c.handleMessage(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error("failed to unmarshal event", "error", err)
		_ = msg.Reject(false)
		return
	}

	handler, ok := c.handlers[event.Type]
	if !ok {
		_ = msg.Ack(false)
		return
	}

	if err := handler(ctx, &event); err != nil {
		c.logger.Error("failed to process event",
			"event_type", event.Type, "event_id", event.ID, "error", err)
	}
	_ = msg.Ack(false)
}

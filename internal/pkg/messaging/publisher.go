package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits change events for committed mutations. Callers treat it as
// fire-and-forget: use TryPublish from mutation paths so a broker outage
// never fails the mutation that already committed.
type Publisher struct {
	channel  *amqp.Channel
	exchange string
	source   string
	logger   *slog.Logger
}

func NewPublisher(rmq *RabbitMQ, exchange, source string, logger *slog.Logger) (*Publisher, error) {
	if err := rmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		channel:  rmq.Channel(),
		exchange: exchange,
		source:   source,
		logger:   logger,
	}, nil
}

// Publish sends an event to the exchange, using the event type as routing
// key.
func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	event, err := NewEvent(eventType, p.source, data)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		eventType,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("event published", "event_type", eventType, "event_id", event.ID)
	return nil
}

// TryPublish publishes and downgrades any failure to a log line.
func (p *Publisher) TryPublish(ctx context.Context, eventType string, data interface{}) {
	if err := p.Publish(ctx, eventType, data); err != nil {
		p.logger.Error("failed to publish change event", "event_type", eventType, "error", err)
	}
}

// ChangePublisher is the narrow interface mutation services depend on.
type ChangePublisher interface {
	TryPublish(ctx context.Context, eventType string, data interface{})
}

// NopPublisher discards events; used in tests and when the feed is disabled.
type NopPublisher struct{}

func (NopPublisher) TryPublish(ctx context.Context, eventType string, data interface{}) {}

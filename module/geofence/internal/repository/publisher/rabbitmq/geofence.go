package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/publisher"
)

var _ publisher.EventListener = (*EventListener)(nil)

const (
	ExchangeName = "geofence.events"
	QueueName    = "geofence_events"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// EventListener publishes listener messages to a durable fanout exchange.
type EventListener struct {
	ch channel
}

func NewEventListener(conn *amqp.Connection) (*EventListener, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := Declare(ch); err != nil {
		return nil, err
	}

	return &EventListener{ch: ch}, nil
}

// Declare sets up the exchange, queue and binding used by both the
// listener and the event consumer.
func Declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (l *EventListener) Deliver(ctx context.Context, msg domain.ListenerMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Method, err)
	}

	return l.ch.PublishWithContext(ctx, ExchangeName, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         msg.Method,
		Body:         body,
	})
}

package config

import (
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NewRabbitMQ dials the broker carrying geofence events. Callers skip it
// when RABBITMQ_URL is unset.
func NewRabbitMQ(cfg *Config) (*amqp.Connection, error) {
	if cfg.RabbitMQURL == "" {
		return nil, errors.New("rabbitmq url not configured")
	}
	conn, err := amqp.DialConfig(cfg.RabbitMQURL, amqp.Config{
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
		Properties: amqp.Table{"connection_name": cfg.MQTTClientID},
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect: %w", err)
	}
	return conn, nil
}

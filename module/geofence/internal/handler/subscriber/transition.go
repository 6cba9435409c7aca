package subscriber

import (
	"context"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type transitionService interface {
	Receive(ctx context.Context, payload []byte) int
}

// TransitionSubscriber wakes the transition pipeline for every platform
// broadcast published on the transitions topic.
type TransitionSubscriber struct {
	client        mqtt.Client
	topic         string
	transitionSvc transitionService
	logger        *slog.Logger
}

func NewTransitionSubscriber(client mqtt.Client, topic string, transitionSvc transitionService, logger *slog.Logger) *TransitionSubscriber {
	return &TransitionSubscriber{
		client:        client,
		topic:         topic,
		transitionSvc: transitionSvc,
		logger:        logger,
	}
}

func (s *TransitionSubscriber) Start() error {
	token := s.client.Subscribe(s.topic, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *TransitionSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	emitted := s.transitionSvc.Receive(context.Background(), msg.Payload())
	s.logger.Debug("transition broadcast handled", "topic", msg.Topic(), "events", emitted)
}

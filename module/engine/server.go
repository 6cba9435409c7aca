package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
)

const qos = 1

// Server exposes an Engine on the platform topics: commands arrive on the
// requests topic, acks and broadcasts are published back.
type Server struct {
	client mqtt.Client
	topics domain.Topics
	engine *Engine
	logger *slog.Logger
}

func NewServer(client mqtt.Client, topics domain.Topics, engine *Engine, logger *slog.Logger) *Server {
	return &Server{
		client: client,
		topics: topics,
		engine: engine,
		logger: logger,
	}
}

func (s *Server) Start() error {
	token := s.client.Subscribe(s.topics.Requests, qos, s.handleRequest)
	token.Wait()
	return token.Error()
}

func (s *Server) handleRequest(_ mqtt.Client, msg mqtt.Message) {
	var cmd domain.PlatformCommand
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		s.logger.Warn("invalid geofencing command", "error", err)
		return
	}

	ack, broadcasts := s.engine.Apply(cmd)
	s.logger.Info("geofencing command applied", "request_id", cmd.RequestID, "op", cmd.Op, "status", ack.Status)

	if err := s.publish(s.topics.Acks, ack); err != nil {
		s.logger.Error("failed to publish ack", "request_id", cmd.RequestID, "error", err)
		return
	}
	s.publishBroadcasts(broadcasts)
}

// Observe moves the simulated device and publishes the resulting
// transitions.
func (s *Server) Observe(fix domain.LocationFix) int {
	broadcasts := s.engine.Observe(fix)
	s.publishBroadcasts(broadcasts)
	return len(broadcasts)
}

func (s *Server) publishBroadcasts(broadcasts []domain.TransitionBroadcast) {
	for _, b := range broadcasts {
		if err := s.publish(s.topics.Transitions, b); err != nil {
			s.logger.Error("failed to publish transition", "type", b.TransitionType, "error", err)
			continue
		}
		s.logger.Info("transition published", "type", b.TransitionType, "regions", b.TriggeringRegionIDs)
	}
}

// publish queues v and returns without waiting for the PUBACK. It runs on
// paho's message router, which cannot read the PUBACK while a handler is
// blocked. Outgoing messages keep their queue order.
func (s *Server) publish(topic string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	token := s.client.Publish(topic, qos, false, body)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			s.logger.Error("publish failed", "topic", topic, "error", err)
		}
	}()
	return nil
}

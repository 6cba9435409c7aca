package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/platform"
)

var _ platform.GeofencingClient = (*Client)(nil)

var errNotConnected = errors.New("mqtt: connection not open")

const qos = 1

// Client talks to the geofencing platform over MQTT. Commands carry a
// request ID; the matching ack on the acks topic resolves the pending
// continuation.
type Client struct {
	mqtt   pahomqtt.Client
	topics domain.Topics
	logger *slog.Logger
	newID  func() string

	mu      sync.Mutex
	pending map[string]func(error)
}

func NewClient(client pahomqtt.Client, topics domain.Topics, logger *slog.Logger) *Client {
	return &Client{
		mqtt:    client,
		topics:  topics,
		logger:  logger,
		newID:   uuid.NewString,
		pending: make(map[string]func(error)),
	}
}

// Start subscribes to acknowledgments. It must run before any request is
// submitted.
func (c *Client) Start() error {
	token := c.mqtt.Subscribe(c.topics.Acks, qos, c.handleAck)
	token.Wait()
	return token.Error()
}

func (c *Client) AddGeofences(req domain.GeofencingRequest, done func(error)) error {
	return c.submit(domain.PlatformCommand{Op: domain.CommandAdd, Request: &req}, done)
}

func (c *Client) RemoveGeofences(identifiers []string, done func(error)) error {
	return c.submit(domain.PlatformCommand{Op: domain.CommandRemove, Identifiers: identifiers}, done)
}

func (c *Client) submit(cmd domain.PlatformCommand, done func(error)) error {
	if !c.mqtt.IsConnectionOpen() {
		return fmt.Errorf("%w: %w", domain.ErrPlatform, errNotConnected)
	}

	cmd.RequestID = c.newID()
	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal %s command: %w", cmd.Op, err)
	}

	c.mu.Lock()
	c.pending[cmd.RequestID] = done
	c.mu.Unlock()

	token := c.mqtt.Publish(c.topics.Requests, qos, false, body)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			if cb := c.take(cmd.RequestID); cb != nil {
				cb(fmt.Errorf("%w: publish %s: %w", domain.ErrPlatform, cmd.Op, err))
			}
		}
	}()

	c.logger.Debug("geofencing command submitted", "request_id", cmd.RequestID, "op", cmd.Op)
	return nil
}

func (c *Client) handleAck(_ pahomqtt.Client, msg pahomqtt.Message) {
	var ack domain.PlatformAck
	if err := json.Unmarshal(msg.Payload(), &ack); err != nil {
		c.logger.Warn("invalid geofencing ack", "error", err)
		return
	}

	cb := c.take(ack.RequestID)
	if cb == nil {
		c.logger.Debug("ack for unknown request", "request_id", ack.RequestID)
		return
	}
	cb(ack.Err())
}

func (c *Client) take(requestID string) func(error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.pending[requestID]
	if !ok {
		return nil
	}
	delete(c.pending, requestID)
	return cb
}

// Pending reports the number of commands awaiting acknowledgment.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

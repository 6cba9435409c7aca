package publisher

import (
	"context"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
)

// EventListener is a one-way delivery sink for listener messages.
type EventListener interface {
	Deliver(ctx context.Context, msg domain.ListenerMessage) error
}

package store

import (
	"context"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
)

// GeofenceStore is the durable identifier -> definition mapping.
// ListAll skips entries that fail to decode and is not a snapshot.
type GeofenceStore interface {
	Put(ctx context.Context, def domain.GeofenceDefinition) error
	Remove(ctx context.Context, identifier string) error
	ListAll(ctx context.Context) ([]domain.GeofenceDefinition, error)
}

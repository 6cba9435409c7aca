package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/store"
)

var _ store.GeofenceStore = (*GeofenceStore)(nil)

// GeofenceStore keeps every definition of a namespace as a field of one
// Redis hash, so single-key writes are atomic and HGETALL enumerates them.
type GeofenceStore struct {
	client redis.UniversalClient
	key    string
	logger *slog.Logger
}

func NewGeofenceStore(client redis.UniversalClient, namespace string, logger *slog.Logger) *GeofenceStore {
	return &GeofenceStore{
		client: client,
		key:    "geofences:" + namespace,
		logger: logger,
	}
}

func (s *GeofenceStore) Put(ctx context.Context, def domain.GeofenceDefinition) error {
	if err := s.client.HSet(ctx, s.key, def.Identifier, def.EncodeValue()).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", def.Identifier, err)
	}
	return nil
}

func (s *GeofenceStore) Remove(ctx context.Context, identifier string) error {
	if err := s.client.HDel(ctx, s.key, identifier).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", identifier, err)
	}
	return nil
}

func (s *GeofenceStore) ListAll(ctx context.Context) ([]domain.GeofenceDefinition, error) {
	entries, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall: %w", err)
	}

	results := make([]domain.GeofenceDefinition, 0, len(entries))
	for identifier, value := range entries {
		def, err := domain.DecodeDefinition(identifier, value)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping stored geofence", "identifier", identifier, "error", err)
			continue
		}
		results = append(results, def)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Identifier < results[j].Identifier })
	return results, nil
}

func (s *GeofenceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

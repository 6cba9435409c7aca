package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/store"
)

var _ store.GeofenceStore = (*GeofenceStore)(nil)

const schema = `CREATE TABLE IF NOT EXISTS geofences (
	namespace  TEXT NOT NULL,
	identifier TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, identifier)
)`

type GeofenceStore struct {
	db        *sql.DB
	namespace string
	logger    *slog.Logger
}

func NewGeofenceStore(db *sql.DB, namespace string, logger *slog.Logger) *GeofenceStore {
	return &GeofenceStore{db: db, namespace: namespace, logger: logger}
}

// EnsureSchema creates the key-value table on first run.
func (s *GeofenceStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create geofences table: %w", err)
	}
	return nil
}

func (s *GeofenceStore) Put(ctx context.Context, def domain.GeofenceDefinition) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geofences (namespace, identifier, value) VALUES ($1, $2, $3)
		 ON CONFLICT (namespace, identifier) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.namespace, def.Identifier, def.EncodeValue(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", def.Identifier, err)
	}
	return nil
}

func (s *GeofenceStore) Remove(ctx context.Context, identifier string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM geofences WHERE namespace = $1 AND identifier = $2`,
		s.namespace, identifier,
	)
	if err != nil {
		return fmt.Errorf("delete %s: %w", identifier, err)
	}
	return nil
}

func (s *GeofenceStore) ListAll(ctx context.Context) ([]domain.GeofenceDefinition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, value FROM geofences WHERE namespace = $1 ORDER BY identifier ASC`,
		s.namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("select geofences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []domain.GeofenceDefinition{}
	for rows.Next() {
		var identifier, value string
		if err := rows.Scan(&identifier, &value); err != nil {
			return nil, fmt.Errorf("scan geofence: %w", err)
		}
		def, err := domain.DecodeDefinition(identifier, value)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping stored geofence", "identifier", identifier, "error", err)
			continue
		}
		results = append(results, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate geofences: %w", err)
	}
	return results, nil
}

func (s *GeofenceStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

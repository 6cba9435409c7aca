package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/metrics"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/platform"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/store"
)

const DefaultStoreTimeout = 5 * time.Second

// Registrar owns the platform-side lifecycle of geofences and keeps the
// store in line with what the platform acknowledged. The store is only
// written after the platform succeeds.
type Registrar struct {
	client       platform.GeofencingClient
	store        store.GeofenceStore
	faults       FaultReporter
	logger       *slog.Logger
	metrics      *metrics.Metrics
	storeTimeout time.Duration
}

func NewRegistrar(client platform.GeofencingClient, st store.GeofenceStore, faults FaultReporter, logger *slog.Logger, m *metrics.Metrics, storeTimeout time.Duration) *Registrar {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &Registrar{
		client:       client,
		store:        st,
		faults:       faults,
		logger:       logger,
		metrics:      m,
		storeTimeout: storeTimeout,
	}
}

// Register submits def to the platform and returns before the outcome is
// known. Only an invalid definition is returned; every later failure is
// reported as a fault and passed to done, which may be nil.
func (r *Registrar) Register(ctx context.Context, def domain.GeofenceDefinition, done func(domain.Outcome)) error {
	if err := def.Validate(); err != nil {
		return err
	}

	bg := context.WithoutCancel(ctx)
	err := r.client.AddGeofences(domain.NewGeofencingRequest(def), func(err error) {
		if err != nil {
			r.settle(bg, domain.OpRegister, def.Identifier, domain.ClassifyPlatformError(err), err, done)
			return
		}

		sctx, cancel := context.WithTimeout(bg, r.storeTimeout)
		defer cancel()
		if err := r.store.Put(sctx, def); err != nil {
			r.settle(bg, domain.OpRegister, def.Identifier, domain.FaultStore, err, done)
			return
		}

		r.logger.InfoContext(bg, "geofence registered",
			"identifier", def.Identifier,
			"latitude", def.Latitude,
			"longitude", def.Longitude,
			"radius", def.RadiusMeters,
		)
		r.settle(bg, domain.OpRegister, def.Identifier, "", nil, done)
	})
	if err != nil {
		r.settle(bg, domain.OpRegister, def.Identifier, domain.ClassifyPlatformError(err), err, done)
	}
	return nil
}

// Unregister asks the platform to drop identifier. The store entry is
// removed only after the platform confirms; on failure it stays.
func (r *Registrar) Unregister(ctx context.Context, identifier string, done func(domain.Outcome)) error {
	if err := domain.ValidateIdentifier(identifier); err != nil {
		return err
	}

	bg := context.WithoutCancel(ctx)
	err := r.client.RemoveGeofences([]string{identifier}, func(err error) {
		if err != nil {
			r.settle(bg, domain.OpUnregister, identifier, domain.ClassifyPlatformError(err), err, done)
			return
		}

		sctx, cancel := context.WithTimeout(bg, r.storeTimeout)
		defer cancel()
		if err := r.store.Remove(sctx, identifier); err != nil {
			r.settle(bg, domain.OpUnregister, identifier, domain.FaultStore, err, done)
			return
		}

		r.logger.InfoContext(bg, "geofence removed", "identifier", identifier)
		r.settle(bg, domain.OpUnregister, identifier, "", nil, done)
	})
	if err != nil {
		r.settle(bg, domain.OpUnregister, identifier, domain.ClassifyPlatformError(err), err, done)
	}
	return nil
}

// ListRegistered returns what the store holds. It does not consult the
// platform.
func (r *Registrar) ListRegistered(ctx context.Context) ([]domain.GeofenceDefinition, error) {
	return r.store.ListAll(ctx)
}

func (r *Registrar) settle(ctx context.Context, op domain.Operation, identifier string, kind domain.FaultKind, err error, done func(domain.Outcome)) {
	outcome := "ok"
	if err != nil {
		outcome = string(kind)
		r.faults.ReportFault(ctx, domain.Fault{Kind: kind, Op: op, Identifier: identifier, Err: err})
	}
	r.metrics.ObservePlatformRequest(string(op), outcome)

	if done != nil {
		done(domain.Outcome{Op: op, Identifier: identifier, Err: err})
	}
}

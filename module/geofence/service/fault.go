package service

import (
	"context"
	"log/slog"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/metrics"
)

// FaultReporter is where every pipeline failure ends up. Nothing is
// returned to the caller once a request has been accepted.
type FaultReporter interface {
	ReportFault(ctx context.Context, f domain.Fault)
}

type FaultLogger struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewFaultLogger(logger *slog.Logger, m *metrics.Metrics) *FaultLogger {
	return &FaultLogger{logger: logger, metrics: m}
}

func (l *FaultLogger) ReportFault(ctx context.Context, f domain.Fault) {
	l.metrics.ObserveFault(string(f.Kind))

	level := slog.LevelError
	if f.Kind == domain.FaultDecode || f.Kind == domain.FaultDelivery {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "geofence fault",
		"kind", f.Kind,
		"op", f.Op,
		"identifier", f.Identifier,
		"error", f.Err,
	)
}

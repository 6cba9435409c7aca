package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/metrics"
)

type eventNotifier interface {
	Notify(ctx context.Context, method string, args any) bool
}

// TransitionService turns platform broadcasts into geofenceEvent messages.
// It keeps no state between broadcasts.
type TransitionService struct {
	notifier eventNotifier
	faults   FaultReporter
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewTransitionService(notifier eventNotifier, faults FaultReporter, logger *slog.Logger, m *metrics.Metrics) *TransitionService {
	return &TransitionService{
		notifier: notifier,
		faults:   faults,
		logger:   logger,
		metrics:  m,
	}
}

// Receive decodes a raw broadcast and dispatches it. It returns the number
// of events handed to the notifier.
func (s *TransitionService) Receive(ctx context.Context, payload []byte) int {
	b, err := domain.DecodeBroadcast(payload)
	if err != nil {
		s.faults.ReportFault(ctx, domain.Fault{Kind: domain.FaultDecode, Op: domain.OpReceive, Err: err})
		return 0
	}
	return s.Dispatch(ctx, b)
}

// Dispatch fans a broadcast out into one event per triggering region, all
// sharing the broadcast's transition type and location fix.
func (s *TransitionService) Dispatch(ctx context.Context, b *domain.TransitionBroadcast) int {
	if b.ErrorCode != nil {
		err := fmt.Errorf("%w: platform error code %d", domain.ErrPlatform, *b.ErrorCode)
		s.faults.ReportFault(ctx, domain.Fault{Kind: domain.FaultPlatform, Op: domain.OpReceive, Err: err})
		return 0
	}

	s.metrics.ObserveTransition(b.TransitionType.String())

	if !b.TransitionType.Monitored() {
		s.logger.DebugContext(ctx, "ignoring transition", "type", b.TransitionType.String())
		return 0
	}

	if len(b.TriggeringRegionIDs) == 0 || b.TriggeringLocation == nil {
		s.logger.DebugContext(ctx, "transition without regions or location",
			"type", b.TransitionType.String(),
			"regions", len(b.TriggeringRegionIDs),
		)
		return 0
	}

	for _, id := range b.TriggeringRegionIDs {
		ev := domain.TransitionEvent{
			Identifier: id,
			Type:       b.TransitionType,
			Location:   *b.TriggeringLocation,
		}
		s.logger.DebugContext(ctx, "geofence transition", "identifier", id, "type", ev.Type.String())
		s.notifier.Notify(ctx, domain.MethodGeofenceEvent, ev.Args())
	}
	return len(b.TriggeringRegionIDs)
}

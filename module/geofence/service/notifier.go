package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nandanugg/geofence-bridge/module/geofence/domain"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/metrics"
	"github.com/nandanugg/geofence-bridge/module/geofence/internal/repository/publisher"
)

// Notifier delivers listener messages to at most one listener. Without a
// listener messages are dropped; nothing is buffered or retried.
type Notifier struct {
	faults  FaultReporter
	logger  *slog.Logger
	metrics *metrics.Metrics

	// mu is held across check-and-deliver so a listener is never swapped
	// out mid-delivery.
	mu       sync.Mutex
	listener publisher.EventListener
	fallback publisher.EventListener
}

func NewNotifier(faults FaultReporter, logger *slog.Logger, m *metrics.Metrics) *Notifier {
	return &Notifier{faults: faults, logger: logger, metrics: m}
}

// SetListener installs l, replacing and returning the previous listener.
// A nil l clears the listener.
func (n *Notifier) SetListener(l publisher.EventListener) publisher.EventListener {
	n.mu.Lock()
	defer n.mu.Unlock()

	prev := n.listener
	n.listener = l
	return prev
}

// SetFallback installs l as the current listener and as the one restored
// whenever a later listener detaches.
func (n *Notifier) SetFallback(l publisher.EventListener) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.fallback = l
	n.listener = l
}

// Detach removes l only if it is still the one installed. The fallback,
// if any, takes its place.
func (n *Notifier) Detach(l publisher.EventListener) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listener == nil || n.listener != l {
		return false
	}
	n.listener = nil
	if l != n.fallback {
		n.listener = n.fallback
	}
	return true
}

func (n *Notifier) HasListener() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.listener != nil
}

// Notify delivers one message synchronously and reports whether it was
// delivered.
func (n *Notifier) Notify(ctx context.Context, method string, args any) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listener == nil {
		n.metrics.ObserveEvent("dropped")
		n.logger.DebugContext(ctx, "no listener, event dropped", "method", method)
		return false
	}

	if err := n.listener.Deliver(ctx, domain.ListenerMessage{Method: method, Args: args}); err != nil {
		n.metrics.ObserveEvent("failed")
		n.faults.ReportFault(ctx, domain.Fault{Kind: domain.FaultDelivery, Op: domain.OpNotify, Err: err})
		return false
	}

	n.metrics.ObserveEvent("delivered")
	return true
}

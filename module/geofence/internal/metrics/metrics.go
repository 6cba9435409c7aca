package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	PlatformRequests *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	Events           *prometheus.CounterVec
	Faults           *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PlatformRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_platform_requests_total",
			Help: "Geofencing platform requests by operation and outcome",
		}, []string{"op", "outcome"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_transitions_total",
			Help: "Transition broadcasts received, by transition type",
		}, []string{"type"}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_events_total",
			Help: "Listener messages by delivery result",
		}, []string{"result"}),
		Faults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "geofence_faults_total",
			Help: "Pipeline faults by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObservePlatformRequest(op, outcome string) {
	if m == nil {
		return
	}
	m.PlatformRequests.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ObserveTransition(transitionType string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(transitionType).Inc()
}

func (m *Metrics) ObserveEvent(result string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveFault(kind string) {
	if m == nil {
		return
	}
	m.Faults.WithLabelValues(kind).Inc()
}

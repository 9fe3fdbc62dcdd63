// Package metrics holds the Prometheus collectors shared by the pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "plantscout"

// Lookup outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty"
)

// Metrics groups every collector the service exports.
type Metrics struct {
	lookupsTotal   *prometheus.CounterVec   // By kind and outcome
	lookupDuration *prometheus.HistogramVec // By kind
	inFlight       prometheus.Gauge
	sessionsActive prometheus.Gauge
	eventsTotal    *prometheus.CounterVec // By SSE event name
	cacheHits      *prometheus.CounterVec // By source: plant, query
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		lookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hydration",
			Name:      "lookups_total",
			Help:      "Elementary enrichment lookups by kind and outcome",
		}, []string{"kind", "outcome"}),

		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "hydration",
			Name:      "lookup_duration_seconds",
			Help:      "Elementary lookup latency including upstream calls",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),

		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hydration",
			Name:      "lookups_in_flight",
			Help:      "Lookups currently holding a limiter permit",
		}),

		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Open recommendation streams",
		}),

		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "events_total",
			Help:      "Server-sent events written to clients",
		}, []string{"event"}),

		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Answers served from the plant cache",
		}, []string{"source"}),
	}

	collectors := []prometheus.Collector{
		m.lookupsTotal, m.lookupDuration, m.inFlight,
		m.sessionsActive, m.eventsTotal, m.cacheHits,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return m, nil
}

// ObserveLookup records one finished lookup.
func (m *Metrics) ObserveLookup(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.lookupsTotal.WithLabelValues(kind, outcome).Inc()
	m.lookupDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// InFlight exposes the limiter gauge. It returns nil when metrics are disabled.
func (m *Metrics) InFlight() prometheus.Gauge {
	if m == nil {
		return nil
	}
	return m.inFlight
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

// EventWritten counts one SSE event.
func (m *Metrics) EventWritten(event string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(event).Inc()
}

// CacheHit counts a cache answer from source.
func (m *Metrics) CacheHit(source string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(source).Inc()
}

package skynet

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the client's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	// RequestsTotal counts calls by operation and outcome (success, fallback).
	RequestsTotal *prometheus.CounterVec
	// FallbacksTotal counts fallbacks by operation and failure kind.
	FallbacksTotal *prometheus.CounterVec
	// RequestDuration observes round-trip latency, including failed calls.
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the client collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "skynet",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total assessment calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		FallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "skynet",
				Subsystem: "client",
				Name:      "fallbacks_total",
				Help:      "Total fallback records returned, by operation and failure kind",
			},
			[]string{"operation", "kind"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "skynet",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Assessment round-trip duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) observe(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.RequestsTotal.WithLabelValues(op, "fallback").Inc()
		m.FallbacksTotal.WithLabelValues(op, string(KindOf(err))).Inc()
		return
	}
	m.RequestsTotal.WithLabelValues(op, "success").Inc()
}

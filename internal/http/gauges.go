package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alexcarney460-hue/skynet/internal/session"
	"github.com/alexcarney460-hue/skynet/pkg/skynet"
)

// WatchGauges expose the latest watch report on /metrics.
type WatchGauges struct {
	PressureLevel      prometheus.Gauge
	SessionViability   prometheus.Gauge
	RemainingLife      prometheus.Gauge
	VerbosityDrift     prometheus.Gauge
	Samples            prometheus.Counter
	FallbackOperations *prometheus.GaugeVec
}

// NewWatchGauges registers the watch gauges with reg.
func NewWatchGauges(reg prometheus.Registerer) *WatchGauges {
	factory := promauto.With(reg)
	return &WatchGauges{
		PressureLevel: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "skynet",
			Subsystem: "watch",
			Name:      "pressure_level",
			Help:      "Latest pressure level severity: 0 LOW, 1 MODERATE, 2 HIGH, 3 CRITICAL",
		}),
		SessionViability: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "skynet",
			Subsystem: "watch",
			Name:      "session_viability",
			Help:      "Latest session viability score (0-100)",
		}),
		RemainingLife: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "skynet",
			Subsystem: "watch",
			Name:      "remaining_life_minutes",
			Help:      "Latest estimated remaining useful session life in minutes",
		}),
		VerbosityDrift: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "skynet",
			Subsystem: "watch",
			Name:      "verbosity_drift_percent",
			Help:      "Latest output length drift from baseline, in percent",
		}),
		Samples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "skynet",
			Subsystem: "watch",
			Name:      "samples_total",
			Help:      "Telemetry samples assessed",
		}),
		FallbackOperations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "skynet",
			Subsystem: "watch",
			Name:      "fallback",
			Help:      "1 if the latest result for the operation is the fallback record",
		}, []string{"operation"}),
	}
}

// Update sets the gauges from r.
func (g *WatchGauges) Update(r session.Report) {
	if g == nil {
		return
	}
	g.PressureLevel.Set(float64(r.Pressure.Level.Severity()))
	g.SessionViability.Set(float64(r.Pressure.SessionViability))
	g.RemainingLife.Set(float64(r.HalfLife.RemainingUsefulLifeMinutes))
	g.VerbosityDrift.Set(float64(r.Verbosity.DriftPercentage))
	g.Samples.Inc()
	for _, op := range []string{skynet.OpPressure, skynet.OpVerbosity, skynet.OpHalfLife} {
		v := 0.0
		if r.FellBack(op) {
			v = 1
		}
		g.FallbackOperations.WithLabelValues(op).Set(v)
	}
}

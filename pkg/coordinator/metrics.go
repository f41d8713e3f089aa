package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the coordinator's Prometheus instruments.
type Metrics struct {
	Workers            prometheus.Gauge
	RegistrationsTotal prometheus.Counter
	DispatchesTotal    *prometheus.CounterVec
	DispatchSeconds    prometheus.Histogram
	SummaryFallbacks   prometheus.Counter
}

// NewMetrics builds and registers the coordinator instruments. Pass a
// fresh registry in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Workers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fog_coordinator_workers",
				Help: "Workers currently registered.",
			},
		),
		RegistrationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fog_coordinator_registrations_total",
				Help: "Registration calls accepted, heartbeats included.",
			},
		),
		DispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fog_coordinator_dispatches_total",
				Help: "Fan-out dispatches, by outcome.",
			},
			[]string{"outcome"},
		),
		DispatchSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fog_coordinator_dispatch_seconds",
				Help:    "Wall-clock time from fan-out to aggregated response.",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
		),
		SummaryFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fog_coordinator_summary_fallbacks_total",
				Help: "Requests answered with the best-client response because summarization failed.",
			},
		),
	}
	reg.MustRegister(m.Workers, m.RegistrationsTotal, m.DispatchesTotal, m.DispatchSeconds, m.SummaryFallbacks)
	return m
}

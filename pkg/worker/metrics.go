package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the worker's Prometheus instruments.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	ProcessingSeconds *prometheus.HistogramVec
	QueueDepth        prometheus.Gauge
	InFlight          prometheus.Gauge
}

// NewMetrics builds and registers the worker instruments. Pass a fresh
// registry in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fog_worker_requests_total",
				Help: "Inference requests served, by terminal status.",
			},
			[]string{"status"},
		),
		ProcessingSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fog_worker_processing_seconds",
				Help:    "Wall-clock inference time per request.",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
			},
			[]string{"model"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fog_worker_queue_depth",
				Help: "Requests waiting for an inference slot.",
			},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fog_worker_inflight",
				Help: "Requests currently running on a slot.",
			},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.ProcessingSeconds, m.QueueDepth, m.InFlight)
	return m
}

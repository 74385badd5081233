package service

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects service-level counters and timings.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	FeaturesVectorized prometheus.Counter
	DownstreamFailures *prometheus.CounterVec
	EnhanceDuration    prometheus.Histogram
}

// NewMetrics returns a Metrics set registered on its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statvec_vectorize_requests_total",
			Help: "Vectorize requests by outcome.",
		}, []string{"outcome"}),
		FeaturesVectorized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statvec_features_vectorized_total",
			Help: "Features vectorized across all requests.",
		}),
		DownstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statvec_downstream_failures_total",
			Help: "Failed downstream calls by target.",
		}, []string{"target"}),
		EnhanceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "statvec_enhance_duration_seconds",
			Help:    "Duration of dataset enhancement.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.RequestsTotal,
		m.FeaturesVectorized,
		m.DownstreamFailures,
		m.EnhanceDuration,
	)
	return m
}

// Handler serves the metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

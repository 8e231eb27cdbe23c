package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"janitor-hq/janitor/pkg/config"
)

// APIMetrics tracks calls to the Looker API.
type APIMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewAPIMetrics creates and registers API metrics.
func NewAPIMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *APIMetrics {
	am := &APIMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "api_requests_total",
				Help:      "Looker API requests by operation and HTTP status",
			},
			[]string{"operation", "status"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "api_request_duration_seconds",
				Help:      "Looker API request latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(am.requests, am.duration)
	return am
}

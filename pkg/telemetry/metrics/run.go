package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"janitor-hq/janitor/pkg/config"
)

// RunMetrics tracks cleanup runs and what they changed.
type RunMetrics struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastRun       prometheus.Gauge
	lastSuccess   prometheus.Gauge
	passRows      *prometheus.GaugeVec
	passFailures  *prometheus.CounterVec
	mutations     *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewRunMetrics creates and registers run metrics.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of cleanup runs by outcome",
			},
			[]string{"status"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Wall time of cleanup runs in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last cleanup run finished",
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time the last fully successful cleanup run finished",
			},
		),

		passRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pass_rows",
				Help:      "Rows returned by the pass query in the last run",
			},
			[]string{"pass"},
		),

		passFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pass_failures_total",
				Help:      "Passes aborted before mutating content",
			},
			[]string{"pass", "stage"},
		),

		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "mutations_total",
				Help:      "Soft and permanent deletes by content type and result",
			},
			[]string{"action", "content_type", "result"},
		),

		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "notifications_total",
				Help:      "Summary emails scheduled by pass and result",
			},
			[]string{"pass", "result"},
		),
	}

	registry.MustRegister(
		rm.runs,
		rm.runDuration,
		rm.lastRun,
		rm.lastSuccess,
		rm.passRows,
		rm.passFailures,
		rm.mutations,
		rm.notifications,
	)

	return rm
}

func (rm *RunMetrics) recordRun(status string, duration time.Duration, finished time.Time) {
	rm.runs.WithLabelValues(status).Inc()
	rm.runDuration.Observe(duration.Seconds())
	rm.lastRun.Set(float64(finished.Unix()))
	if status == StatusSuccess {
		rm.lastSuccess.Set(float64(finished.Unix()))
	}
}

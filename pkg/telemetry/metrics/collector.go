package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"janitor-hq/janitor/pkg/cleanup"
	"janitor-hq/janitor/pkg/config"
)

// Run statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Collector owns the registry and every metric family.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	run *RunMetrics
	api *APIMetrics
}

// NewCollector creates a collector and registers its metrics on registry.
// A nil registry gets a fresh one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		run:      NewRunMetrics(cfg, registry),
		api:      NewAPIMetrics(cfg, registry),
	}
}

// RecordReport records a finished run. Its signature matches
// cleanup.ReportHook so it can be passed to cleanup.WithHook.
func (c *Collector) RecordReport(_ context.Context, report *cleanup.Report) error {
	if !c.config.Enabled || report == nil {
		return nil
	}

	c.run.recordRun(runStatus(report), report.Duration(), report.FinishedAt)

	for _, pass := range report.Passes {
		kind := string(pass.Kind)
		if pass.Err != nil {
			stage := "unknown"
			var perr *cleanup.PassError
			if errors.As(pass.Err, &perr) {
				stage = string(perr.Stage)
			}
			c.run.passFailures.WithLabelValues(kind, stage).Inc()
			continue
		}

		c.run.passRows.WithLabelValues(kind).Set(float64(pass.Rows))
		for _, o := range pass.Outcomes {
			c.run.mutations.WithLabelValues(string(o.Action), string(o.ContentType), result(o)).Inc()
		}
		if pass.Notification != nil {
			c.run.notifications.WithLabelValues(kind, result(*pass.Notification)).Inc()
		}
	}
	return nil
}

// ObserveAPIRequest records a Looker API call. Its signature matches
// looker.RequestObserver.
func (c *Collector) ObserveAPIRequest(operation string, statusCode int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}

	status := strconv.Itoa(statusCode)
	if statusCode == 0 {
		status = "error"
	}
	c.api.requests.WithLabelValues(operation, status).Inc()
	c.api.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func runStatus(report *cleanup.Report) string {
	if report.Completed() {
		return StatusSuccess
	}
	for _, p := range report.Passes {
		if p.Completed() {
			return StatusPartial
		}
	}
	return StatusFailed
}

func result(o cleanup.Outcome) string {
	switch {
	case !o.Success:
		return "error"
	case o.DryRun:
		return "dry_run"
	default:
		return "success"
	}
}

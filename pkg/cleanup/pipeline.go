package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"janitor-hq/janitor/pkg/looker"
	"janitor-hq/janitor/pkg/telemetry/logging"
)

// Config is the per-run configuration of a pipeline. It is copied into the
// pipeline and never changes during a run.
type Config struct {
	// SoftDeleteAfterDays is the inactivity threshold for moving content to
	// the trash.
	SoftDeleteAfterDays int

	// HardDeleteAfterDays is the time content must spend in the trash before
	// it is permanently deleted.
	HardDeleteAfterDays int

	// DryRun sends deleted=false on soft deletes and suppresses permanent
	// deletes.
	DryRun bool

	// AllowIrreversibleDelete enables permanent deletes when DryRun is off.
	AllowIrreversibleDelete bool

	// NotificationAddress receives the CSV summary emails.
	NotificationAddress string

	// NotifyEnabled turns the summary emails on.
	NotifyEnabled bool
}

// ReportHook is invoked with the finished report of every run. Hook errors
// are logged and do not change the run result.
type ReportHook func(ctx context.Context, report *Report) error

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHook appends a report hook.
func WithHook(h ReportHook) Option {
	return func(p *Pipeline) {
		p.hooks = append(p.hooks, h)
	}
}

// WithClock overrides the wall clock (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
		p.notifier.now = now
	}
}

// Pipeline runs the soft pass followed by the hard pass.
type Pipeline struct {
	cfg      Config
	builder  *Builder
	runner   *Runner
	mutator  *Mutator
	notifier *Notifier
	hooks    []ReportHook
	now      func() time.Time
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewPipeline wires a pipeline over api.
func NewPipeline(api looker.API, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		builder:  NewBuilder(api),
		runner:   NewRunner(api),
		mutator:  NewMutator(api, cfg.DryRun, cfg.AllowIrreversibleDelete),
		notifier: NewNotifier(api),
		now:      time.Now,
		tracer:   otel.Tracer("janitor/cleanup"),
		logger:   slog.Default().With("component", "cleanup.pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run executes both passes. A failed pass does not prevent the other from
// running. The returned error is non-nil only when every pass failed; the
// report is always returned.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
		DryRun:    p.cfg.DryRun,
	}
	ctx = logging.WithRunID(ctx, report.RunID)

	ctx, span := p.tracer.Start(ctx, "cleanup.run", trace.WithAttributes(
		attribute.String("run_id", report.RunID),
		attribute.Bool("dry_run", p.cfg.DryRun),
	))
	defer span.End()

	p.logger.InfoContext(ctx, "starting content cleanup",
		"soft_delete_after_days", p.cfg.SoftDeleteAfterDays,
		"hard_delete_after_days", p.cfg.HardDeleteAfterDays,
		"dry_run", p.cfg.DryRun,
		"allow_irreversible_delete", p.cfg.AllowIrreversibleDelete,
	)

	var errs []error
	for _, kind := range []DeleteKind{Soft, Hard} {
		pass := p.RunPass(ctx, kind)
		report.Passes = append(report.Passes, pass)
		if pass.Err != nil {
			errs = append(errs, pass.Err)
		}
	}
	report.FinishedAt = p.now()

	var runErr error
	if len(errs) == len(report.Passes) {
		runErr = fmt.Errorf("%w: %w", ErrAllPassesFailed, errors.Join(errs...))
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	}

	if report.Completed() {
		p.logger.InfoContext(ctx, report.Status(), "duration", report.Duration())
	} else {
		p.logger.WarnContext(ctx, report.Status(), "duration", report.Duration())
	}

	// Hooks persist the outcome, so they run even when the run was cancelled.
	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range p.hooks {
		if err := hook(hookCtx, report); err != nil {
			p.logger.WarnContext(ctx, "report hook failed", "error", err)
		}
	}

	return report, runErr
}

// RunPass executes a single pass: build, run, select, mutate, notify.
func (p *Pipeline) RunPass(ctx context.Context, kind DeleteKind) *PassReport {
	ctx = logging.WithPass(ctx, string(kind))
	ctx, span := p.tracer.Start(ctx, "cleanup.pass", trace.WithAttributes(attribute.String("pass", string(kind))))
	defer span.End()

	start := time.Now()
	pass := &PassReport{Kind: kind}
	defer func() {
		pass.Duration = time.Since(start)
	}()

	days := p.cfg.SoftDeleteAfterDays
	if kind == Hard {
		days = p.cfg.HardDeleteAfterDays
	}

	queryID, err := p.builder.Build(ctx, kind, days)
	if err != nil {
		return p.fail(ctx, span, pass, err)
	}
	pass.QueryID = queryID

	rows, err := p.runner.Run(ctx, queryID)
	if err != nil {
		return p.fail(ctx, span, pass, NewPassError(kind, StageRun, err))
	}
	pass.Rows = len(rows)
	pass.Dashboards = DashboardIDs(rows)
	pass.Looks = LookIDs(rows)

	p.logger.InfoContext(ctx, "selected content",
		"query_id", queryID,
		"rows", pass.Rows,
		"dashboards", len(pass.Dashboards),
		"looks", len(pass.Looks),
	)
	span.SetAttributes(
		attribute.Int("rows", pass.Rows),
		attribute.Int("dashboards", len(pass.Dashboards)),
		attribute.Int("looks", len(pass.Looks)),
	)

	pass.Outcomes = p.mutator.Apply(ctx, kind, pass.Dashboards, pass.Looks)
	if err := ctx.Err(); err != nil {
		return p.fail(ctx, span, pass, NewPassError(kind, StageMutate, err))
	}

	if p.cfg.NotifyEnabled && p.cfg.NotificationAddress != "" {
		n := p.notifier.Send(ctx, queryID, kind, p.cfg.NotificationAddress)
		pass.Notification = &n
	}

	if failures := pass.Failures(); failures > 0 {
		p.logger.WarnContext(ctx, "pass finished with failed mutations", "failures", failures, "total", len(pass.Outcomes))
	}
	return pass
}

func (p *Pipeline) fail(ctx context.Context, span trace.Span, pass *PassReport, err error) *PassReport {
	pass.Err = err
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.logger.ErrorContext(ctx, "pass aborted", "error", err)
	return pass
}

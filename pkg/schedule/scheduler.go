// Package schedule runs jobs on cron expressions. It is used for the
// periodic cleanup run and for pruning the audit trail.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Func is the work executed on every tick.
type Func func(ctx context.Context) error

// Scheduler runs a single job on a cron expression. Ticks that fire while
// the previous invocation is still running are skipped.
type Scheduler struct {
	name     string
	spec     string
	location *time.Location
	fn       Func
	timeout  time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	running bool
	logger  *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation sets the timezone the expression is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithTimeout bounds every invocation.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// New creates a scheduler. The expression uses the standard five-field
// syntax and is validated here.
//
// Common expressions:
//   - "0 6 * * *"    - Daily at 6 AM
//   - "0 */6 * * *"  - Every 6 hours
//   - "0 0 * * 0"    - Weekly on Sunday at midnight
func New(name, spec string, fn Func, opts ...Option) (*Scheduler, error) {
	if fn == nil {
		return nil, fmt.Errorf("schedule %q: job function is required", name)
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	s := &Scheduler{
		name:     name,
		spec:     spec,
		location: time.UTC,
		fn:       fn,
		logger:   slog.Default().With("component", "schedule", "job", name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start schedules the job. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("schedule %q already running", s.name)
	}

	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	entry, err := c.AddFunc(s.spec, func() { s.invoke(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule %q: %w", s.name, err)
	}

	c.Start()
	s.cron = c
	s.entry = entry
	s.running = true

	s.logger.Info("scheduler started",
		"schedule", s.spec,
		"timezone", s.location.String(),
		"next_run", c.Entry(entry).Next,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) invoke(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Info("scheduled job starting")
	if err := s.fn(ctx); err != nil {
		s.logger.Error("scheduled job failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("scheduled job completed", "duration", time.Since(start))
}

// RunNow executes the job immediately on the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.invoke(ctx)
}

// Stop stops the scheduler and waits for a running invocation to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		done := s.cron.Stop()
		<-done.Done()
		s.running = false
		s.logger.Info("scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled invocation, or nil when stopped.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

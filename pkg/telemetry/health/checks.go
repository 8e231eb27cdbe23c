package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"janitor-hq/janitor/pkg/cleanup"
)

// Pinger is implemented by components with a cheap connectivity check,
// such as the Looker client and the SQLite audit store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger.
func PingCheck(p Pinger) CheckFunc {
	return p.Ping
}

// LastRunSource returns the most recent run, as cleanup.Job.Last does.
type LastRunSource func() (*cleanup.Report, time.Time, error)

// LastRunCheck fails when the last run failed every pass or could not start,
// or when no run finished within maxAge. Before the first run it reports healthy. A zero
// maxAge disables the staleness check.
func LastRunCheck(last LastRunSource, maxAge time.Duration, now func() time.Time) CheckFunc {
	if now == nil {
		now = time.Now
	}
	started := now()

	return func(ctx context.Context) error {
		report, at, err := last()
		if report == nil && err == nil {
			if maxAge > 0 && now().Sub(started) > maxAge {
				return fmt.Errorf("no cleanup run in the last %s", maxAge)
			}
			return nil
		}

		if report == nil {
			return fmt.Errorf("last run at %s could not start: %w", at.Format(time.RFC3339), err)
		}
		if errors.Is(err, cleanup.ErrAllPassesFailed) {
			return fmt.Errorf("last run at %s failed: %w", at.Format(time.RFC3339), err)
		}
		if maxAge > 0 && now().Sub(at) > maxAge {
			return fmt.Errorf("last cleanup run finished %s ago", now().Sub(at).Round(time.Second))
		}
		return nil
	}
}

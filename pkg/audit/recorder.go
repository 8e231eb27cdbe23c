package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"janitor-hq/janitor/pkg/cleanup"
)

// Recorder converts cleanup reports into audit records.
type Recorder struct {
	storage Storage
	logger  *slog.Logger
}

// NewRecorder creates a recorder writing to storage.
func NewRecorder(storage Storage) *Recorder {
	return &Recorder{
		storage: storage,
		logger:  slog.Default().With("component", "audit.recorder"),
	}
}

// Hook returns the recorder as a pipeline report hook.
func (r *Recorder) Hook() cleanup.ReportHook {
	return r.Record
}

// Record stores the trail of report. Every record is attempted; failures
// are joined into a single RecorderError.
func (r *Recorder) Record(ctx context.Context, report *cleanup.Report) error {
	if report == nil {
		return nil
	}

	records := Records(report)
	var errs []error
	for _, rec := range records {
		if err := r.storage.Store(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", rec.ID, err))
		}
	}

	if len(errs) > 0 {
		err := NewRecorderError(report.RunID, errors.Join(errs...))
		r.logger.ErrorContext(ctx, "failed to record audit trail",
			"failed", len(errs),
			"total", len(records),
			"error", err,
		)
		return err
	}

	r.logger.DebugContext(ctx, "audit trail recorded", "records", len(records))
	return nil
}

// Records flattens report into audit records, pass summary first.
func Records(report *cleanup.Report) []*Record {
	var out []*Record
	for _, pass := range report.Passes {
		summary := &Record{
			ID:        uuid.NewString(),
			RunID:     report.RunID,
			Pass:      string(pass.Kind),
			Action:    ActionPass,
			QueryID:   pass.QueryID,
			Success:   pass.Completed(),
			DryRun:    report.DryRun,
			Timestamp: report.FinishedAt,
		}
		if pass.Err != nil {
			summary.Error = pass.Err.Error()
			summary.Message = fmt.Sprintf("%s delete pass failed", pass.Kind)
		} else {
			summary.Message = fmt.Sprintf("%s delete pass selected %d dashboards and %d looks from %d rows",
				pass.Kind, len(pass.Dashboards), len(pass.Looks), pass.Rows)
		}
		out = append(out, summary)

		for _, o := range pass.Outcomes {
			out = append(out, fromOutcome(report, pass, o))
		}
		if pass.Notification != nil {
			out = append(out, fromOutcome(report, pass, *pass.Notification))
		}
	}
	return out
}

func fromOutcome(report *cleanup.Report, pass *cleanup.PassReport, o cleanup.Outcome) *Record {
	rec := &Record{
		ID:          uuid.NewString(),
		RunID:       report.RunID,
		Pass:        string(pass.Kind),
		Action:      string(o.Action),
		ContentType: string(o.ContentType),
		ContentID:   o.ID,
		QueryID:     pass.QueryID,
		Success:     o.Success,
		DryRun:      o.DryRun,
		Message:     o.Message,
		Timestamp:   report.FinishedAt,
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	return rec
}

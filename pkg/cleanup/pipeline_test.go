package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

const unusedRows = `[
	{"dashboard.id": "1", "look.id": null, "content_usage.content_type": "dashboard"},
	{"dashboard.id": null, "look.id": "9", "content_usage.content_type": "look"},
	{"dashboard.id": null, "look.id": null, "content_usage.content_type": "look"}
]`

const trashedRows = `[
	{"dashboard.id": "5", "look.id": null, "content_usage.content_type": "dashboard", "days_since_moved_to_trash": 120}
]`

func testConfig() Config {
	return Config{
		SoftDeleteAfterDays: 90,
		HardDeleteAfterDays: 90,
		DryRun:              true,
		NotificationAddress: "bi@example.com",
		NotifyEnabled:       true,
	}
}

func fixedClock() time.Time { return runDate }

func TestPipeline_RunDefaults(t *testing.T) {
	api := newFakeAPI()
	api.unusedRows = unusedRows
	api.trashedRows = trashedRows

	report, err := NewPipeline(api, testConfig(), WithClock(fixedClock)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Status() != StatusSuccess {
		t.Errorf("unexpected status: %q", report.Status())
	}
	if report.RunID == "" {
		t.Error("expected a run id")
	}

	soft := report.Pass(Soft)
	if soft == nil || soft.QueryID != "unused-q" || soft.Rows != 3 {
		t.Fatalf("unexpected soft pass: %+v", soft)
	}
	if !slices.Equal(soft.Dashboards, []string{"1"}) || !slices.Equal(soft.Looks, []string{"9"}) {
		t.Errorf("unexpected soft selection: %v %v", soft.Dashboards, soft.Looks)
	}

	// Dry run soft deletes still call Looker, with deleted=false.
	updates := append(api.methodCalls("UpdateDashboard"), api.methodCalls("UpdateLook")...)
	if len(updates) != 2 {
		t.Fatalf("expected 2 update calls, got %d", len(updates))
	}
	for _, c := range updates {
		if c.Deleted == nil || *c.Deleted {
			t.Errorf("expected deleted=false on %s %s", c.Method, c.ID)
		}
	}

	// Hard deletes are suppressed by default.
	if n := len(api.methodCalls("DeleteDashboard")) + len(api.methodCalls("DeleteLook")); n != 0 {
		t.Errorf("expected no permanent deletes, got %d", n)
	}
	hard := report.Pass(Hard)
	if len(hard.Outcomes) != 1 || !hard.Outcomes[0].Success || !hard.Outcomes[0].DryRun {
		t.Errorf("unexpected hard outcomes: %+v", hard.Outcomes)
	}

	if len(api.plans) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(api.plans))
	}
	if api.plans[0].Name != "[Looker Automation] Soft deleted content (2026-10-19)." || api.plans[0].QueryID != "unused-q" {
		t.Errorf("unexpected soft plan: %+v", api.plans[0])
	}
	if api.plans[1].QueryID != "trashed-q" {
		t.Errorf("expected hard plan for trashed-q, got %q", api.plans[1].QueryID)
	}
	if !report.StartedAt.Equal(runDate) || report.Duration() != 0 {
		t.Errorf("expected clock override to apply, got %v / %v", report.StartedAt, report.Duration())
	}
}

func TestPipeline_LiveIrreversible(t *testing.T) {
	api := newFakeAPI()
	api.unusedRows = unusedRows
	api.trashedRows = trashedRows

	cfg := testConfig()
	cfg.DryRun = false
	cfg.AllowIrreversibleDelete = true

	if _, err := NewPipeline(api, cfg).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, c := range api.methodCalls("UpdateDashboard") {
		if c.Deleted == nil || !*c.Deleted {
			t.Errorf("expected deleted=true, got %v", c.Deleted)
		}
	}
	deletes := api.methodCalls("DeleteDashboard")
	if len(deletes) != 1 || deletes[0].ID != "5" {
		t.Errorf("expected permanent delete of dashboard 5, got %v", deletes)
	}
}

func TestPipeline_CancelledBatchFailsPass(t *testing.T) {
	api := newFakeAPI()
	api.trashedRows = `[
		{"dashboard.id": "5", "content_usage.content_type": "dashboard", "days_since_moved_to_trash": 120},
		{"dashboard.id": "6", "content_usage.content_type": "dashboard", "days_since_moved_to_trash": 120},
		{"dashboard.id": "7", "content_usage.content_type": "dashboard", "days_since_moved_to_trash": 120}
	]`

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api.afterCall = func(c call) {
		if c.Method == "DeleteDashboard" {
			cancel()
		}
	}

	cfg := testConfig()
	cfg.DryRun = false
	cfg.AllowIrreversibleDelete = true

	var hookErr error
	hook := func(ctx context.Context, r *Report) error {
		hookErr = ctx.Err()
		return nil
	}

	report, err := NewPipeline(api, cfg, WithHook(hook)).Run(ctx)
	if err != nil {
		t.Fatalf("expected nil error while the soft pass completed, got %v", err)
	}
	if hookErr != nil {
		t.Errorf("expected hooks to run with a live context, got %v", hookErr)
	}

	hard := report.Pass(Hard)
	var perr *PassError
	if !errors.As(hard.Err, &perr) || perr.Stage != StageMutate || !errors.Is(hard.Err, context.Canceled) {
		t.Fatalf("expected hard mutate failure, got %v", hard.Err)
	}
	if len(hard.Outcomes) != 3 {
		t.Fatalf("expected an outcome for every selected id, got %d", len(hard.Outcomes))
	}
	if !hard.Outcomes[0].Success {
		t.Errorf("expected first delete to succeed, got %+v", hard.Outcomes[0])
	}
	for _, o := range hard.Outcomes[1:] {
		if o.Success || !errors.Is(o.Err, context.Canceled) {
			t.Errorf("expected skipped id to be reported as failed, got %+v", o)
		}
	}
	if hard.Failures() != 2 {
		t.Errorf("expected 2 failures, got %d", hard.Failures())
	}
	if n := len(api.methodCalls("DeleteDashboard")); n != 1 {
		t.Errorf("expected 1 delete call, got %d", n)
	}
	if hard.Notification != nil {
		t.Errorf("expected no notification for a cancelled pass, got %+v", hard.Notification)
	}
	if report.Status() == StatusSuccess {
		t.Error("expected status to report the cancelled pass")
	}
}

func TestPipeline_NotificationFailureDoesNotFailPass(t *testing.T) {
	api := newFakeAPI()
	api.unusedRows = unusedRows
	api.planErr = errors.New("mail relay down")

	report, err := NewPipeline(api, testConfig(), WithClock(fixedClock)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	soft := report.Pass(Soft)
	if !soft.Completed() {
		t.Errorf("expected soft pass to complete, got %v", soft.Err)
	}
	if soft.Notification == nil || soft.Notification.Success {
		t.Fatalf("expected failed notification, got %+v", soft.Notification)
	}
	if !strings.Contains(soft.Notification.Message, "Error sending soft delete email notification") {
		t.Errorf("unexpected message: %q", soft.Notification.Message)
	}
}

func TestPipeline_NotificationsDisabled(t *testing.T) {
	api := newFakeAPI()
	cfg := testConfig()
	cfg.NotifyEnabled = false

	report, err := NewPipeline(api, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(api.plans) != 0 {
		t.Errorf("expected no notifications, got %d", len(api.plans))
	}
	if report.Pass(Soft).Notification != nil {
		t.Error("expected no notification outcome")
	}
}

func TestPipeline_EmptyResultStillNotifies(t *testing.T) {
	api := newFakeAPI()

	report, err := NewPipeline(api, testConfig()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(api.calls) != 0 {
		t.Errorf("expected no mutations, got %v", api.calls)
	}
	if len(api.plans) != 2 {
		t.Errorf("expected a notification per pass, got %d", len(api.plans))
	}
	if report.Pass(Soft).Rows != 0 {
		t.Errorf("expected 0 rows, got %d", report.Pass(Soft).Rows)
	}
}

func TestPipeline_PassesAreIndependent(t *testing.T) {
	api := newFakeAPI()
	api.trashedRows = trashedRows
	api.createErr[Soft] = errors.New("permission denied")

	report, err := NewPipeline(api, testConfig()).Run(context.Background())
	if err != nil {
		t.Fatalf("expected nil error when one pass completes, got %v", err)
	}

	soft := report.Pass(Soft)
	var perr *PassError
	if !errors.As(soft.Err, &perr) || perr.Stage != StageBuild {
		t.Errorf("expected soft build failure, got %v", soft.Err)
	}
	if !report.Pass(Hard).Completed() {
		t.Errorf("expected hard pass to complete, got %v", report.Pass(Hard).Err)
	}
	if len(api.plans) != 1 || api.plans[0].QueryID != "trashed-q" {
		t.Errorf("expected only the hard notification, got %+v", api.plans)
	}
	if !strings.HasPrefix(report.Status(), "Content automation finished with errors: soft delete pass failed:") {
		t.Errorf("unexpected status: %q", report.Status())
	}
}

func TestPipeline_RunStageFailure(t *testing.T) {
	api := newFakeAPI()
	api.runErr["trashed-q"] = errors.New("query timed out")

	report, err := NewPipeline(api, testConfig()).Run(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	var perr *PassError
	if !errors.As(report.Pass(Hard).Err, &perr) || perr.Stage != StageRun || perr.Kind != Hard {
		t.Errorf("expected hard run failure, got %v", report.Pass(Hard).Err)
	}
}

func TestPipeline_AllPassesFailed(t *testing.T) {
	api := newFakeAPI()
	api.createErr[Soft] = errors.New("down")
	api.createErr[Hard] = errors.New("down")

	report, err := NewPipeline(api, testConfig()).Run(context.Background())
	if !errors.Is(err, ErrAllPassesFailed) {
		t.Fatalf("expected ErrAllPassesFailed, got %v", err)
	}
	if report == nil || len(report.Passes) != 2 {
		t.Fatalf("expected report with both passes, got %+v", report)
	}
}

func TestPipeline_Hooks(t *testing.T) {
	api := newFakeAPI()
	var got []*Report
	hookErr := errors.New("hook failed")

	p := NewPipeline(api, testConfig(),
		WithHook(func(ctx context.Context, r *Report) error {
			got = append(got, r)
			return hookErr
		}),
		WithHook(func(ctx context.Context, r *Report) error {
			got = append(got, r)
			return nil
		}),
	)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("hook errors must not fail the run: %v", err)
	}
	if len(got) != 2 || got[0] != report || got[1] != report {
		t.Errorf("expected both hooks to see the report, got %d calls", len(got))
	}
}

func TestReport_MarshalJSON(t *testing.T) {
	report := &Report{
		RunID: "r",
		Passes: []*PassReport{
			{Kind: Soft, Err: errors.New("soft delete pass build stage failed: boom")},
		},
	}
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"error":"soft delete pass build stage failed: boom"`) {
		t.Errorf("expected error text in JSON, got %s", data)
	}
}

func TestJob_RejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	api := newFakeAPI()

	var once sync.Once
	job := NewJob(func() (*Pipeline, error) {
		return NewPipeline(api, testConfig(), WithHook(func(ctx context.Context, r *Report) error {
			once.Do(func() { close(started) })
			<-release
			return nil
		})), nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := job.Run(context.Background())
		done <- err
	}()

	<-started
	if !job.Running() {
		t.Error("expected job to report running")
	}
	if _, err := job.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if job.Running() {
		t.Error("expected job to be idle")
	}

	report, at, err := job.Last()
	if report == nil || at.IsZero() || err != nil {
		t.Errorf("unexpected last run: %v %v %v", report, at, err)
	}
}

func TestJob_FactoryError(t *testing.T) {
	job := NewJob(func() (*Pipeline, error) { return nil, errors.New("bad config") })
	if _, err := job.Run(context.Background()); err == nil || err.Error() != "bad config" {
		t.Errorf("expected factory error, got %v", err)
	}
	if job.Running() {
		t.Error("expected job to be idle after factory error")
	}
	report, at, err := job.Last()
	if report != nil || at.IsZero() || err == nil || err.Error() != "bad config" {
		t.Errorf("expected failed start to be recorded, got %v %v %v", report, at, err)
	}
}

package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"janitor-hq/janitor/pkg/cleanup"
	"janitor-hq/janitor/pkg/config"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "cleanup",
		DurationBuckets: []float64{1, 10, 60},
	}
}

func report() *cleanup.Report {
	finished := time.Date(2026, 10, 19, 6, 0, 30, 0, time.UTC)
	return &cleanup.Report{
		RunID:      "r",
		StartedAt:  finished.Add(-30 * time.Second),
		FinishedAt: finished,
		DryRun:     true,
		Passes: []*cleanup.PassReport{
			{
				Kind: cleanup.Soft,
				Rows: 3,
				Outcomes: []cleanup.Outcome{
					{Action: cleanup.ActionSoftDelete, ContentType: cleanup.ContentDashboard, ID: "1", Success: true, DryRun: true},
					{Action: cleanup.ActionSoftDelete, ContentType: cleanup.ContentLook, ID: "9", Success: false, DryRun: true},
				},
				Notification: &cleanup.Outcome{Action: cleanup.ActionNotify, Success: true},
			},
			{
				Kind: cleanup.Hard,
				Err:  cleanup.NewPassError(cleanup.Hard, cleanup.StageRun, errors.New("timeout")),
			},
		},
	}
}

func TestCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, nil)

	if cfg.Namespace != "janitor" || cfg.Subsystem != "cleanup" || len(cfg.DurationBuckets) == 0 {
		t.Errorf("expected defaults to be filled, got %+v", cfg)
	}
}

func TestCollector_RecordReport(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	if err := c.RecordReport(context.Background(), report()); err != nil {
		t.Fatalf("RecordReport failed: %v", err)
	}

	if got := testutil.ToFloat64(c.run.runs.WithLabelValues(StatusPartial)); got != 1 {
		t.Errorf("expected 1 partial run, got %v", got)
	}
	if got := testutil.ToFloat64(c.run.passRows.WithLabelValues("soft")); got != 3 {
		t.Errorf("expected 3 soft rows, got %v", got)
	}
	if got := testutil.ToFloat64(c.run.mutations.WithLabelValues("soft_delete", "dashboard", "dry_run")); got != 1 {
		t.Errorf("expected 1 dry run dashboard mutation, got %v", got)
	}
	if got := testutil.ToFloat64(c.run.mutations.WithLabelValues("soft_delete", "look", "error")); got != 1 {
		t.Errorf("expected 1 failed look mutation, got %v", got)
	}
	if got := testutil.ToFloat64(c.run.notifications.WithLabelValues("soft", "success")); got != 1 {
		t.Errorf("expected 1 notification, got %v", got)
	}
	if got := testutil.ToFloat64(c.run.passFailures.WithLabelValues("hard", "run")); got != 1 {
		t.Errorf("expected 1 hard run-stage failure, got %v", got)
	}
	if got := testutil.ToFloat64(c.run.lastRun); got != float64(report().FinishedAt.Unix()) {
		t.Errorf("unexpected last run timestamp %v", got)
	}
	if got := testutil.ToFloat64(c.run.lastSuccess); got != 0 {
		t.Errorf("expected no successful run recorded, got %v", got)
	}
}

func TestRunStatus(t *testing.T) {
	ok := &cleanup.Report{Passes: []*cleanup.PassReport{{Kind: cleanup.Soft}, {Kind: cleanup.Hard}}}
	failed := &cleanup.Report{Passes: []*cleanup.PassReport{
		{Kind: cleanup.Soft, Err: errors.New("x")},
		{Kind: cleanup.Hard, Err: errors.New("y")},
	}}

	if got := runStatus(ok); got != StatusSuccess {
		t.Errorf("expected success, got %s", got)
	}
	if got := runStatus(report()); got != StatusPartial {
		t.Errorf("expected partial, got %s", got)
	}
	if got := runStatus(failed); got != StatusFailed {
		t.Errorf("expected failed, got %s", got)
	}
}

func TestCollector_ObserveAPIRequest(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())

	c.ObserveAPIRequest("create_query", 200, 120*time.Millisecond, nil)
	c.ObserveAPIRequest("delete_look", 404, 30*time.Millisecond, errors.New("not found"))
	c.ObserveAPIRequest("run_query", 0, time.Second, errors.New("dial tcp: refused"))

	if got := testutil.ToFloat64(c.api.requests.WithLabelValues("create_query", "200")); got != 1 {
		t.Errorf("expected 1 create_query 200, got %v", got)
	}
	if got := testutil.ToFloat64(c.api.requests.WithLabelValues("delete_look", "404")); got != 1 {
		t.Errorf("expected 1 delete_look 404, got %v", got)
	}
	if got := testutil.ToFloat64(c.api.requests.WithLabelValues("run_query", "error")); got != 1 {
		t.Errorf("expected 1 transport error, got %v", got)
	}
	if n := testutil.CollectAndCount(c.api.duration); n != 3 {
		t.Errorf("expected 3 latency series, got %d", n)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, prometheus.NewRegistry())

	_ = c.RecordReport(context.Background(), report())
	c.ObserveAPIRequest("me", 200, time.Millisecond, nil)

	if n := testutil.CollectAndCount(c.run.runs); n != 0 {
		t.Errorf("expected no run series when disabled, got %d", n)
	}
	if n := testutil.CollectAndCount(c.api.requests); n != 0 {
		t.Errorf("expected no api series when disabled, got %d", n)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	_ = c.RecordReport(context.Background(), report())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_cleanup_runs_total{status="partial"} 1`) {
		t.Errorf("expected runs_total in exposition, got:\n%s", rec.Body.String())
	}
}

func TestCollector_Push(t *testing.T) {
	var gotPath, gotBody string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	cfg := testConfig()
	cfg.PushgatewayURL = gw.URL
	cfg.PushJob = "janitor-test"
	c := NewCollector(cfg, prometheus.NewRegistry())
	_ = c.RecordReport(context.Background(), report())

	if err := c.Push(context.Background()); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if gotPath != "/metrics/job/janitor-test" {
		t.Errorf("unexpected push path %q", gotPath)
	}
	if gotBody == "" {
		t.Error("expected metrics in push body")
	}
}

func TestCollector_PushWithoutGateway(t *testing.T) {
	c := NewCollector(testConfig(), prometheus.NewRegistry())
	if err := c.Push(context.Background()); err != nil {
		t.Errorf("expected no-op without gateway, got %v", err)
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"janitor-hq/janitor/pkg/cleanup"
	"janitor-hq/janitor/pkg/config"
	"janitor-hq/janitor/pkg/telemetry/health"
)

type runnerFunc func(ctx context.Context) (*cleanup.Report, error)

func (f runnerFunc) Run(ctx context.Context) (*cleanup.Report, error) { return f(ctx) }

func completedReport() *cleanup.Report {
	return &cleanup.Report{
		RunID: "run-1",
		Passes: []*cleanup.PassReport{
			{Kind: cleanup.Soft},
			{Kind: cleanup.Hard},
		},
	}
}

func testConfig() *config.ServerConfig {
	return &config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
	}
}

func post(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("ignored"))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRun_ReturnsStatusLine(t *testing.T) {
	s := NewServer(testConfig(), runnerFunc(func(ctx context.Context) (*cleanup.Report, error) {
		return completedReport(), nil
	}))

	rec := post(t, s.Handler(), "/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != cleanup.StatusSuccess {
		t.Errorf("unexpected body %q", got)
	}
	if rec.Header().Get("X-Run-ID") != "run-1" {
		t.Errorf("expected run id header, got %q", rec.Header().Get("X-Run-ID"))
	}
}

func TestRun_PartialFailureIsOK(t *testing.T) {
	s := NewServer(testConfig(), runnerFunc(func(ctx context.Context) (*cleanup.Report, error) {
		r := completedReport()
		r.Passes[1].Err = errors.New("run query: 500")
		return r, nil
	}))

	rec := post(t, s.Handler(), "/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hard delete pass failed") {
		t.Errorf("expected failed pass in body, got %q", rec.Body.String())
	}
}

func TestRun_AllPassesFailed(t *testing.T) {
	s := NewServer(testConfig(), runnerFunc(func(ctx context.Context) (*cleanup.Report, error) {
		r := completedReport()
		r.Passes[0].Err = errors.New("boom")
		r.Passes[1].Err = errors.New("boom")
		return r, fmt.Errorf("run: %w", cleanup.ErrAllPassesFailed)
	}))

	rec := post(t, s.Handler(), "/run", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRun_InProgress(t *testing.T) {
	s := NewServer(testConfig(), runnerFunc(func(ctx context.Context) (*cleanup.Report, error) {
		return nil, cleanup.ErrRunInProgress
	}))

	if rec := post(t, s.Handler(), "/run", ""); rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestRun_FactoryError(t *testing.T) {
	s := NewServer(testConfig(), runnerFunc(func(ctx context.Context) (*cleanup.Report, error) {
		return nil, errors.New("invalid configuration")
	}))

	rec := post(t, s.Handler(), "/run", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid configuration") {
		t.Errorf("expected error in body, got %q", rec.Body.String())
	}
}

func TestRun_MethodNotAllowed(t *testing.T) {
	s := NewServer(testConfig(), runnerFunc(func(ctx context.Context) (*cleanup.Report, error) {
		t.Error("runner must not be called")
		return nil, nil
	}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestRun_Token(t *testing.T) {
	cfg := testConfig()
	cfg.RunToken = "s3cret"
	calls := 0
	s := NewServer(cfg, runnerFunc(func(ctx context.Context) (*cleanup.Report, error) {
		calls++
		return completedReport(), nil
	}))
	h := s.Handler()

	if rec := post(t, h, "/run", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: expected 401, got %d", rec.Code)
	}
	if rec := post(t, h, "/run", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: expected 401, got %d", rec.Code)
	}
	if rec := post(t, h, "/run", "s3cret"); rec.Code != http.StatusOK {
		t.Errorf("valid token: expected 200, got %d", rec.Code)
	}
	if calls != 1 {
		t.Errorf("expected exactly one run, got %d", calls)
	}
}

func TestRun_Timeout(t *testing.T) {
	s := NewServer(testConfig(), runnerFunc(func(ctx context.Context) (*cleanup.Report, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected run context to carry a deadline")
		}
		return completedReport(), nil
	}), WithRunTimeout(time.Minute))

	post(t, s.Handler(), "/run", "")
}

func TestHandler_OperationalRoutes(t *testing.T) {
	checker := health.New(time.Second)
	checker.RegisterCheck("looker", func(ctx context.Context) error { return errors.New("down") })

	s := NewServer(testConfig(), runnerFunc(nil),
		WithHealth(checker, &config.HealthConfig{LivenessPath: "/healthz", ReadinessPath: "/readyz"}),
		WithMetrics("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "janitor_cleanup_runs_total 1\n")
		})),
		WithVersion("1.0.0", "abc", "today"),
	)
	h := s.Handler()

	tests := []struct {
		path string
		code int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusServiceUnavailable},
		{"/metrics", http.StatusOK},
		{"/version", http.StatusOK},
		{"/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.code, rec.Code)
		}
	}
}

func TestHandler_RecoversPanics(t *testing.T) {
	s := NewServer(testConfig(), runnerFunc(func(ctx context.Context) (*cleanup.Report, error) {
		panic("unexpected")
	}))

	if rec := post(t, s.Handler(), "/run", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", rec.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	s := NewServer(testConfig(), runnerFunc(func(ctx context.Context) (*cleanup.Report, error) {
		return completedReport(), nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.Addr() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !s.IsRunning() {
		t.Fatal("expected server to be running")
	}

	resp, err := http.Post("http://"+s.Addr()+"/run", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /run failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	if s.IsRunning() {
		t.Error("expected server to be stopped")
	}
}

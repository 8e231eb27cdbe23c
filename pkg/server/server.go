package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"janitor-hq/janitor/pkg/cleanup"
	"janitor-hq/janitor/pkg/config"
	"janitor-hq/janitor/pkg/telemetry/health"
	"janitor-hq/janitor/pkg/telemetry/logging"
	"janitor-hq/janitor/pkg/telemetry/tracing"
)

// Runner runs one cleanup. cleanup.Job implements it.
type Runner interface {
	Run(ctx context.Context) (*cleanup.Report, error)
}

// Option configures a Server.
type Option func(*Server)

// WithHealth mounts the liveness and readiness probes.
func WithHealth(checker *health.Checker, cfg *config.HealthConfig) Option {
	return func(s *Server) {
		s.checker = checker
		s.healthConfig = cfg
	}
}

// WithMetrics mounts the Prometheus handler at path.
func WithMetrics(path string, handler http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metricsHandler = handler
	}
}

// WithVersion mounts GET /version.
func WithVersion(version, commit, buildTime string) Option {
	return func(s *Server) {
		s.versionHandler = health.VersionHandler(version, commit, buildTime)
	}
}

// WithRunTimeout bounds runs triggered over HTTP.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.runTimeout = d
	}
}

// Server exposes the run trigger and the operational endpoints.
type Server struct {
	config *config.ServerConfig
	runner Runner

	checker        *health.Checker
	healthConfig   *config.HealthConfig
	metricsPath    string
	metricsHandler http.Handler
	versionHandler http.HandlerFunc
	runTimeout     time.Duration

	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	logger       *slog.Logger
}

// NewServer creates a server that triggers runner on POST /run.
func NewServer(cfg *config.ServerConfig, runner Runner, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		runner: runner,
		logger: slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server. In-flight runs get up to
// ShutdownTimeout to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		s.mu.Unlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		s.logger.Info("http server stopped")
	})

	return shutdownErr
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/run", tracing.HTTPMiddleware(http.HandlerFunc(s.handleRun)))

	if s.checker != nil {
		liveness, readiness := "/healthz", "/readyz"
		if s.healthConfig != nil {
			liveness, readiness = s.healthConfig.LivenessPath, s.healthConfig.ReadinessPath
		}
		mux.Handle(liveness, s.checker.LivenessHandler())
		mux.Handle(readiness, s.checker.ReadinessHandler())
	}
	if s.metricsHandler != nil {
		mux.Handle(s.metricsPath, s.metricsHandler)
	}
	if s.versionHandler != nil {
		mux.Handle("/version", s.versionHandler)
	}

	return recoveryMiddleware(s.logger, mux)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := logging.WithTrigger(r.Context(), "http")
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	report, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, cleanup.ErrRunInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case report == nil:
		s.logger.ErrorContext(ctx, "run failed to start", "error", err)
		http.Error(w, fmt.Sprintf("run failed: %v", err), http.StatusInternalServerError)
		return
	}

	code := http.StatusOK
	if errors.Is(err, cleanup.ErrAllPassesFailed) {
		code = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Run-ID", report.RunID)
	w.WriteHeader(code)
	fmt.Fprintln(w, report.Status())
}

func (s *Server) authorized(r *http.Request) bool {
	if s.config.RunToken == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.config.RunToken)) == 1
}

func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

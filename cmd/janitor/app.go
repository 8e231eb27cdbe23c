package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"janitor-hq/janitor/pkg/audit"
	"janitor-hq/janitor/pkg/audit/storage"
	"janitor-hq/janitor/pkg/cleanup"
	"janitor-hq/janitor/pkg/config"
	"janitor-hq/janitor/pkg/looker"
	"janitor-hq/janitor/pkg/secrets"
	"janitor-hq/janitor/pkg/telemetry/metrics"
	"janitor-hq/janitor/pkg/telemetry/tracing"
)

// app holds the long-lived components shared by run and serve.
type app struct {
	tracer   *tracing.Tracer
	metrics  *metrics.Collector
	storage  audit.Storage
	recorder *audit.Recorder
	secrets  *secrets.Manager
	logger   *slog.Logger

	// client is reused by scheduled and HTTP runs while the configuration
	// pointer it was built from stays current.
	clientMu  sync.Mutex
	client    *looker.Client
	clientCfg *config.Config
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{logger: slog.Default().With("component", "janitor")}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracer = tracer
	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	a.secrets, err = newSecretManager(&cfg.Secrets)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	if cfg.Audit.Enabled {
		store, err := openAuditStorage(&cfg.Audit)
		if err != nil {
			_ = a.Close(context.Background())
			return nil, err
		}
		a.storage = store
		a.recorder = audit.NewRecorder(store)
	}

	return a, nil
}

// lookerClient builds a client from cfg with secret references resolved and
// API metrics attached.
func (a *app) lookerClient(ctx context.Context, cfg *config.Config) (*looker.Client, error) {
	lc := cfg.Looker
	var err error
	if lc.ClientID, err = a.secrets.Resolve(ctx, lc.ClientID); err != nil {
		return nil, fmt.Errorf("failed to resolve looker.client_id: %w", err)
	}
	if lc.ClientSecret, err = a.secrets.Resolve(ctx, lc.ClientSecret); err != nil {
		return nil, fmt.Errorf("failed to resolve looker.client_secret: %w", err)
	}

	client, err := looker.NewClient(lookerConfig(&lc))
	if err != nil {
		return nil, fmt.Errorf("failed to create looker client: %w", err)
	}
	client.SetObserver(a.metrics.ObserveAPIRequest)
	return client, nil
}

// runClient returns the client for cfg, building it on first use and after
// every configuration reload. The client it replaces is closed; runs are
// serialized by cleanup.Job, so no run still holds it.
func (a *app) runClient(ctx context.Context, cfg *config.Config) (*looker.Client, error) {
	a.clientMu.Lock()
	defer a.clientMu.Unlock()

	if a.client != nil && a.clientCfg == cfg {
		return a.client, nil
	}
	client, err := a.lookerClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if a.client != nil {
		_ = a.client.Close()
	}
	a.client, a.clientCfg = client, cfg
	return client, nil
}

// pipeline wires a pipeline with the metrics and audit hooks.
func (a *app) pipeline(api looker.API, cfg cleanup.Config) *cleanup.Pipeline {
	opts := []cleanup.Option{cleanup.WithHook(a.metrics.RecordReport)}
	if a.recorder != nil {
		opts = append(opts, cleanup.WithHook(a.recorder.Hook()))
	}
	return cleanup.NewPipeline(api, cfg, opts...)
}

// Close flushes traces, closes the run client and the audit store.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	a.clientMu.Lock()
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			errs = append(errs, err)
		}
		a.client = nil
	}
	a.clientMu.Unlock()
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func lookerConfig(cfg *config.LookerConfig) looker.Config {
	return looker.Config{
		BaseURL:           cfg.BaseURL,
		ClientID:          cfg.ClientID,
		ClientSecret:      cfg.ClientSecret,
		Timeout:           cfg.Timeout,
		VerifySSL:         cfg.VerifySSL,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}
}

// pipelineConfig extracts the per-run settings. The result is a copy, so a
// configuration reload never changes a run in flight.
func pipelineConfig(cfg *config.Config) cleanup.Config {
	return cleanup.Config{
		SoftDeleteAfterDays:     cfg.Cleanup.SoftDeleteAfterDays,
		HardDeleteAfterDays:     cfg.Cleanup.HardDeleteAfterDays,
		DryRun:                  cfg.Cleanup.DryRun,
		AllowIrreversibleDelete: cfg.Cleanup.AllowIrreversibleDelete,
		NotificationAddress:     cfg.Notification.Address,
		NotifyEnabled:           cfg.Notification.Enabled,
	}
}

func newSecretManager(cfg *config.SecretsConfig) (*secrets.Manager, error) {
	providers := []secrets.Provider{secrets.NewEnvProvider(cfg.EnvPrefix)}
	if cfg.Dir != "" {
		fp, err := secrets.NewFileProvider(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open secrets directory: %w", err)
		}
		providers = append(providers, fp)
	}
	return secrets.NewManager(cfg.CacheTTL, providers...), nil
}

func openAuditStorage(cfg *config.AuditConfig) (audit.Storage, error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Driver:       cfg.SQLite.Driver,
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		return store, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Backend)
	}
}

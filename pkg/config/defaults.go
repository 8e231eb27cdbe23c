package config

import "time"

// Default values for configuration fields.
const (
	// Looker defaults
	DefaultLookerTimeout   = 120 * time.Second
	DefaultLookerVerifySSL = true
	DefaultRateLimitBurst  = 1

	// Cleanup defaults
	DefaultSoftDeleteAfterDays     = 90
	DefaultHardDeleteAfterDays     = 90
	DefaultDryRun                  = true
	DefaultAllowIrreversibleDelete = false

	// Notification defaults
	DefaultNotificationEnabled = true

	// Audit defaults
	DefaultAuditEnabled           = true
	DefaultAuditBackend           = "sqlite"
	DefaultAuditSQLiteDriver      = "sqlite"
	DefaultAuditSQLitePath        = "data/audit.db"
	DefaultAuditSQLiteMaxOpen     = 4
	DefaultAuditSQLiteMaxIdle     = 2
	DefaultAuditSQLiteWALMode     = true
	DefaultAuditSQLiteBusyTimeout = 5 * time.Second
	DefaultAuditRetentionDays     = 365
	DefaultAuditPruneSchedule     = "0 3 * * *"

	// Schedule defaults
	DefaultScheduleEnabled    = true
	DefaultScheduleCron       = "0 6 * * *"
	DefaultScheduleTimezone   = "UTC"
	DefaultScheduleRunTimeout = 30 * time.Minute

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Secrets defaults
	DefaultSecretsEnvPrefix = "JANITOR_SECRET_"
	DefaultSecretsCacheTTL  = 5 * time.Minute

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultLoggingRedactPII   = true
	DefaultMetricsEnabled     = true
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "janitor"
	DefaultMetricsSubsystem   = "cleanup"
	DefaultPushJob            = "janitor"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingService     = "janitor"
	DefaultOTLPInsecure       = true
	DefaultOTLPTimeout        = 10 * time.Second
	DefaultLivenessPath       = "/healthz"
	DefaultReadinessPath      = "/readyz"
	DefaultHealthCheckTimeout = 5 * time.Second
	DefaultHealthCheckLooker  = true
)

// DefaultDurationBuckets are the run duration histogram buckets in seconds.
var DefaultDurationBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800}

// NewDefault returns a Config with every default applied, including the
// defaults that ApplyDefaults cannot infer from zero values (booleans, the
// cleanup thresholds and audit retention, where 0 is a valid setting). Files are decoded on top of
// it so an explicit "false" or 0 survives.
func NewDefault() *Config {
	cfg := &Config{}
	cfg.Looker.VerifySSL = DefaultLookerVerifySSL
	cfg.Cleanup.SoftDeleteAfterDays = DefaultSoftDeleteAfterDays
	cfg.Cleanup.HardDeleteAfterDays = DefaultHardDeleteAfterDays
	cfg.Cleanup.DryRun = DefaultDryRun
	cfg.Cleanup.AllowIrreversibleDelete = DefaultAllowIrreversibleDelete
	cfg.Notification.Enabled = DefaultNotificationEnabled
	cfg.Audit.Enabled = DefaultAuditEnabled
	cfg.Audit.SQLite.WALMode = DefaultAuditSQLiteWALMode
	cfg.Audit.Retention.Days = DefaultAuditRetentionDays
	cfg.Schedule.Enabled = DefaultScheduleEnabled
	cfg.Secrets.CacheTTL = DefaultSecretsCacheTTL
	cfg.Telemetry.Logging.RedactPII = DefaultLoggingRedactPII
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Enabled = DefaultTracingEnabled
	cfg.Telemetry.Tracing.OTLP.Insecure = DefaultOTLPInsecure
	cfg.Telemetry.Health.CheckLooker = DefaultHealthCheckLooker
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued non-boolean fields with their defaults.
func ApplyDefaults(cfg *Config) {
	// Looker defaults
	if cfg.Looker.Timeout == 0 {
		cfg.Looker.Timeout = DefaultLookerTimeout
	}
	if cfg.Looker.RateLimit.Burst == 0 {
		cfg.Looker.RateLimit.Burst = DefaultRateLimitBurst
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLite.Driver == "" {
		cfg.Audit.SQLite.Driver = DefaultAuditSQLiteDriver
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditSQLiteMaxOpen
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultAuditSQLiteMaxIdle
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditSQLiteBusyTimeout
	}
	if cfg.Audit.Retention.Schedule == "" {
		cfg.Audit.Retention.Schedule = DefaultAuditPruneSchedule
	}

	// Schedule defaults
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = DefaultScheduleCron
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = DefaultScheduleTimezone
	}
	if cfg.Schedule.RunTimeout == 0 {
		cfg.Schedule.RunTimeout = DefaultScheduleRunTimeout
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Secrets defaults
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}

	// Telemetry defaults
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultPrometheusPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.DurationBuckets) == 0 {
		t.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if t.Metrics.PushJob == "" {
		t.Metrics.PushJob = DefaultPushJob
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 && t.Tracing.Sampler == "ratio" {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingService
	}
	if t.Tracing.OTLP.Timeout == 0 {
		t.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultReadinessPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}

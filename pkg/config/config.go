package config

import "time"

// Config is the root configuration structure for janitor.
// It contains all configuration sections for the Looker connection, the
// cleanup thresholds and safety gates, notifications, the audit trail,
// scheduling, the HTTP trigger and observability.
type Config struct {
	// Looker contains the API connection settings.
	Looker LookerConfig `yaml:"looker"`

	// Cleanup contains thresholds and safety gates for a run.
	Cleanup CleanupConfig `yaml:"cleanup"`

	// Notification contains the summary email settings.
	Notification NotificationConfig `yaml:"notification"`

	// Audit contains the local audit trail settings.
	Audit AuditConfig `yaml:"audit"`

	// Schedule contains the cron settings used by "janitor serve".
	Schedule ScheduleConfig `yaml:"schedule"`

	// Server contains the HTTP trigger settings used by "janitor serve".
	Server ServerConfig `yaml:"server"`

	// Secrets controls how ${secret:name} references are resolved.
	Secrets SecretsConfig `yaml:"secrets"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing, and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LookerConfig contains the Looker API connection settings.
type LookerConfig struct {
	// BaseURL is the API host including the port, without the /api/4.0 suffix.
	// Example: "https://example.looker.com:19999"
	BaseURL string `yaml:"base_url"`

	// ClientID is the API3 client id.
	ClientID string `yaml:"client_id"`

	// ClientSecret is the API3 client secret.
	// Prefer JANITOR_LOOKER_CLIENT_SECRET or a ${secret:name} reference over
	// storing it in the file.
	ClientSecret string `yaml:"client_secret"`

	// Timeout bounds every API call.
	// Default: 120s
	Timeout time.Duration `yaml:"timeout"`

	// VerifySSL enables TLS certificate verification.
	// Default: true
	VerifySSL bool `yaml:"verify_ssl"`

	// RateLimit paces outgoing API calls.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig paces API calls. Pacing only delays calls; nothing is
// retried.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained call rate. 0 disables pacing.
	// Default: 0
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the number of calls allowed without waiting.
	// Default: 1
	Burst int `yaml:"burst"`
}

// CleanupConfig contains the thresholds and safety gates of a run.
// It is read once per run and never mutated during a run.
type CleanupConfig struct {
	// SoftDeleteAfterDays is the inactivity threshold for trashing content.
	// Default: 90
	SoftDeleteAfterDays int `yaml:"soft_delete_after_days"`

	// HardDeleteAfterDays is the time content must spend in the trash
	// before it is permanently deleted.
	// Default: 90
	HardDeleteAfterDays int `yaml:"hard_delete_after_days"`

	// DryRun sends deleted=false on soft deletes and suppresses permanent
	// deletes.
	// Default: true
	DryRun bool `yaml:"dry_run"`

	// AllowIrreversibleDelete must be set, together with dry_run: false,
	// before content is permanently deleted.
	// Default: false
	AllowIrreversibleDelete bool `yaml:"allow_irreversible_delete"`
}

// NotificationConfig contains the summary email settings.
type NotificationConfig struct {
	// Enabled controls whether summary emails are scheduled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Address receives the CSV summaries. Required when enabled.
	Address string `yaml:"address"`
}

// AuditConfig contains the local audit trail settings.
type AuditConfig struct {
	// Enabled controls whether run outcomes are persisted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend settings.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention contains audit retention settings.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite backend settings.
type SQLiteConfig struct {
	// Driver selects the database/sql driver.
	// Options: "sqlite3" (mattn/go-sqlite3, cgo), "sqlite" (modernc.org/sqlite, pure Go)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file path.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 2
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains audit retention settings.
type RetentionConfig struct {
	// Days is how long audit records are kept. 0 keeps them forever.
	// Default: 365
	Days int `yaml:"days"`

	// Schedule is the cron expression for pruning in serve mode.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`

	// MaxRecords caps the number of stored records. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// ScheduleConfig contains the cron settings used by "janitor serve".
type ScheduleConfig struct {
	// Enabled controls whether the cleanup runs on a schedule.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Cron is a standard five-field cron expression.
	// Default: "0 6 * * *"
	Cron string `yaml:"cron"`

	// Timezone is the IANA zone the expression is evaluated in.
	// Default: "UTC"
	Timezone string `yaml:"timezone"`

	// RunOnStart triggers one run immediately when the server starts.
	// Default: false
	RunOnStart bool `yaml:"run_on_start"`

	// RunTimeout bounds a single scheduled or HTTP-triggered run.
	// Default: 30m
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// ServerConfig contains the HTTP trigger settings.
type ServerConfig struct {
	// ListenAddress is the address to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response. A run
	// triggered over HTTP must finish within it.
	// Default: 30m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RunToken, when set, must be presented as a bearer token on POST /run.
	RunToken string `yaml:"run_token"`
}

// SecretsConfig controls resolution of ${secret:name} references in
// looker.client_id, looker.client_secret and server.run_token.
type SecretsConfig struct {
	// EnvPrefix is prepended to the upper-cased secret name to form the
	// environment variable that is consulted first.
	// Default: "JANITOR_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Dir holds one file per secret and is consulted after the environment.
	// Empty disables file lookups.
	Dir string `yaml:"dir"`

	// CacheTTL is how long resolved values are reused. 0 disables caching.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII masks credentials and email addresses in logs.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains additional redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "janitor"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "cleanup"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for run duration (seconds).
	DurationBuckets []float64 `yaml:"duration_buckets"`

	// PushgatewayURL, when set, makes "janitor run" push its metrics there
	// after the run.
	PushgatewayURL string `yaml:"pushgateway_url"`

	// PushJob is the job label used when pushing.
	// Default: "janitor"
	PushJob string `yaml:"push_job"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "janitor"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/healthz"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/readyz"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`

	// CheckLooker includes a Looker API call in readiness checks.
	// Default: true
	CheckLooker bool `yaml:"check_looker"`
}

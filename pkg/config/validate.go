package config

import (
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "looker.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLooker(&cfg.Looker)...)
	errs = append(errs, validateCleanup(&cfg.Cleanup)...)
	errs = append(errs, validateNotification(&cfg.Notification)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateSchedule(&cfg.Schedule)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateSecrets(&cfg.Secrets)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateLooker validates the API connection settings.
func validateLooker(cfg *LookerConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{Field: "looker.base_url", Message: "base URL is required"})
	} else if u, err := url.Parse(cfg.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, FieldError{Field: "looker.base_url", Message: "must be an absolute http or https URL"})
	} else if strings.Contains(u.Path, "/api/") {
		errs = append(errs, FieldError{Field: "looker.base_url", Message: "must not include the /api/ path"})
	}

	if cfg.ClientID == "" {
		errs = append(errs, FieldError{Field: "looker.client_id", Message: "client id is required"})
	}
	if cfg.ClientSecret == "" {
		errs = append(errs, FieldError{Field: "looker.client_secret", Message: "client secret is required"})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "looker.timeout", Message: "timeout must be positive"})
	}
	if cfg.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, FieldError{Field: "looker.rate_limit.requests_per_second", Message: "must be non-negative"})
	}
	if cfg.RateLimit.Burst < 0 {
		errs = append(errs, FieldError{Field: "looker.rate_limit.burst", Message: "must be non-negative"})
	}

	return errs
}

// validateCleanup validates thresholds.
func validateCleanup(cfg *CleanupConfig) []FieldError {
	var errs []FieldError

	if cfg.SoftDeleteAfterDays < 0 {
		errs = append(errs, FieldError{Field: "cleanup.soft_delete_after_days", Message: "must be non-negative"})
	}
	if cfg.HardDeleteAfterDays < 0 {
		errs = append(errs, FieldError{Field: "cleanup.hard_delete_after_days", Message: "must be non-negative"})
	}

	return errs
}

// validateNotification validates the summary email settings.
func validateNotification(cfg *NotificationConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Address == "" {
		return []FieldError{{Field: "notification.address", Message: "address is required when notifications are enabled"}}
	}
	if _, err := mail.ParseAddress(cfg.Address); err != nil {
		return []FieldError{{Field: "notification.address", Message: fmt.Sprintf("invalid email address: %v", err)}}
	}
	return nil
}

// validateAudit validates the audit trail settings.
func validateAudit(cfg *AuditConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{Field: "audit.sqlite.driver", Message: fmt.Sprintf("invalid driver %q: must be sqlite or sqlite3", cfg.SQLite.Driver)})
		}
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "audit.sqlite.path", Message: "path is required"})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{Field: "audit.sqlite.max_open_conns", Message: "must be non-negative"})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{Field: "audit.sqlite.max_idle_conns", Message: "must be non-negative"})
		}
	default:
		errs = append(errs, FieldError{Field: "audit.backend", Message: fmt.Sprintf("invalid backend %q: must be sqlite or memory", cfg.Backend)})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.days", Message: "must be non-negative"})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.max_records", Message: "must be non-negative"})
	}
	if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
		errs = append(errs, FieldError{Field: "audit.retention.schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)})
	}

	return errs
}

// validateSchedule validates the cron settings.
func validateSchedule(cfg *ScheduleConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled {
		if _, err := cron.ParseStandard(cfg.Cron); err != nil {
			errs = append(errs, FieldError{Field: "schedule.cron", Message: fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		errs = append(errs, FieldError{Field: "schedule.timezone", Message: fmt.Sprintf("unknown timezone: %v", err)})
	}
	if cfg.RunTimeout < 0 {
		errs = append(errs, FieldError{Field: "schedule.run_timeout", Message: "must be positive"})
	}

	return errs
}

// validateSecrets validates secret reference resolution.
func validateSecrets(cfg *SecretsConfig) []FieldError {
	var errs []FieldError

	if cfg.CacheTTL < 0 {
		errs = append(errs, FieldError{Field: "secrets.cache_ttl", Message: "must be non-negative"})
	}
	if cfg.Dir != "" {
		if info, err := os.Stat(cfg.Dir); err != nil || !info.IsDir() {
			errs = append(errs, FieldError{Field: "secrets.dir", Message: "must be an existing directory"})
		}
	}

	return errs
}

// validateServer validates the HTTP trigger settings.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be positive"})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: fmt.Sprintf("invalid log level %q", cfg.Logging.Level)})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: fmt.Sprintf("invalid log format %q", cfg.Logging.Format)})
	}
	for i, p := range cfg.Logging.RedactPatterns {
		if p.Name == "" || p.Pattern == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("telemetry.logging.redact_patterns[%d]", i), Message: "name and pattern are required"})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "path must start with /"})
	}
	if cfg.Metrics.PushgatewayURL != "" {
		if u, err := url.Parse(cfg.Metrics.PushgatewayURL); err != nil || u.Host == "" {
			errs = append(errs, FieldError{Field: "telemetry.metrics.pushgateway_url", Message: "must be an absolute URL"})
		}
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{Field: "telemetry.tracing.sampler", Message: fmt.Sprintf("invalid sampler %q: must be always, never or ratio", cfg.Tracing.Sampler)})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0.0 and 1.0"})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
		}
	}

	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{Field: "telemetry.health.check_timeout", Message: "must be positive"})
	}

	return errs
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "JANITOR_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention JANITOR_SECTION_FIELD (e.g., JANITOR_CLEANUP_DRY_RUN).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file, so a deployment can be configured through
// the environment alone.
//
// The loading sequence is:
// 1. Start from defaults
// 2. Decode YAML from file on top
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefault()
	} else {
		var err error
		if cfg, err = parseFile(path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := NewDefault()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// envOverride binds one environment variable to a field.
type envOverride struct {
	name  string
	apply func(val string) error
}

func stringVar(dst *string) func(string) error {
	return func(val string) error {
		*dst = val
		return nil
	}
}

func boolVar(dst *bool) func(string) error {
	return func(val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func intVar(dst *int) func(string) error {
	return func(val string) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*dst = i
		return nil
	}
}

func floatVar(dst *float64) func(string) error {
	return func(val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

// envOverrides lists every supported override for cfg.
func envOverrides(cfg *Config) []envOverride {
	return []envOverride{
		// Looker overrides
		{"LOOKER_BASE_URL", stringVar(&cfg.Looker.BaseURL)},
		{"LOOKER_CLIENT_ID", stringVar(&cfg.Looker.ClientID)},
		{"LOOKER_CLIENT_SECRET", stringVar(&cfg.Looker.ClientSecret)},
		{"LOOKER_TIMEOUT", durationVar(&cfg.Looker.Timeout)},
		{"LOOKER_VERIFY_SSL", boolVar(&cfg.Looker.VerifySSL)},
		{"LOOKER_RATE_LIMIT_REQUESTS_PER_SECOND", floatVar(&cfg.Looker.RateLimit.RequestsPerSecond)},
		{"LOOKER_RATE_LIMIT_BURST", intVar(&cfg.Looker.RateLimit.Burst)},

		// Cleanup overrides
		{"CLEANUP_SOFT_DELETE_AFTER_DAYS", intVar(&cfg.Cleanup.SoftDeleteAfterDays)},
		{"CLEANUP_HARD_DELETE_AFTER_DAYS", intVar(&cfg.Cleanup.HardDeleteAfterDays)},
		{"CLEANUP_DRY_RUN", boolVar(&cfg.Cleanup.DryRun)},
		{"CLEANUP_ALLOW_IRREVERSIBLE_DELETE", boolVar(&cfg.Cleanup.AllowIrreversibleDelete)},

		// Notification overrides
		{"NOTIFICATION_ENABLED", boolVar(&cfg.Notification.Enabled)},
		{"NOTIFICATION_ADDRESS", stringVar(&cfg.Notification.Address)},

		// Audit overrides
		{"AUDIT_ENABLED", boolVar(&cfg.Audit.Enabled)},
		{"AUDIT_BACKEND", stringVar(&cfg.Audit.Backend)},
		{"AUDIT_SQLITE_DRIVER", stringVar(&cfg.Audit.SQLite.Driver)},
		{"AUDIT_SQLITE_PATH", stringVar(&cfg.Audit.SQLite.Path)},
		{"AUDIT_RETENTION_DAYS", intVar(&cfg.Audit.Retention.Days)},
		{"AUDIT_RETENTION_SCHEDULE", stringVar(&cfg.Audit.Retention.Schedule)},

		// Schedule overrides
		{"SCHEDULE_ENABLED", boolVar(&cfg.Schedule.Enabled)},
		{"SCHEDULE_CRON", stringVar(&cfg.Schedule.Cron)},
		{"SCHEDULE_TIMEZONE", stringVar(&cfg.Schedule.Timezone)},
		{"SCHEDULE_RUN_ON_START", boolVar(&cfg.Schedule.RunOnStart)},
		{"SCHEDULE_RUN_TIMEOUT", durationVar(&cfg.Schedule.RunTimeout)},

		// Server overrides
		{"SERVER_LISTEN_ADDRESS", stringVar(&cfg.Server.ListenAddress)},
		{"SERVER_RUN_TOKEN", stringVar(&cfg.Server.RunToken)},

		// Secrets overrides
		{"SECRETS_DIR", stringVar(&cfg.Secrets.Dir)},
		{"SECRETS_CACHE_TTL", durationVar(&cfg.Secrets.CacheTTL)},

		// Telemetry overrides
		{"TELEMETRY_LOGGING_LEVEL", stringVar(&cfg.Telemetry.Logging.Level)},
		{"TELEMETRY_LOGGING_FORMAT", stringVar(&cfg.Telemetry.Logging.Format)},
		{"TELEMETRY_LOGGING_REDACT_PII", boolVar(&cfg.Telemetry.Logging.RedactPII)},
		{"TELEMETRY_METRICS_ENABLED", boolVar(&cfg.Telemetry.Metrics.Enabled)},
		{"TELEMETRY_METRICS_PATH", stringVar(&cfg.Telemetry.Metrics.Path)},
		{"TELEMETRY_METRICS_PUSHGATEWAY_URL", stringVar(&cfg.Telemetry.Metrics.PushgatewayURL)},
		{"TELEMETRY_TRACING_ENABLED", boolVar(&cfg.Telemetry.Tracing.Enabled)},
		{"TELEMETRY_TRACING_ENDPOINT", stringVar(&cfg.Telemetry.Tracing.Endpoint)},
		{"TELEMETRY_TRACING_SAMPLE_RATIO", floatVar(&cfg.Telemetry.Tracing.SampleRatio)},
	}
}

// lookerSDKFallbacks maps the Looker SDK's own variable names onto the
// corresponding JANITOR_ override. They apply only when the JANITOR_ variant
// is unset.
var lookerSDKFallbacks = map[string]string{
	"LOOKERSDK_BASE_URL":      "LOOKER_BASE_URL",
	"LOOKERSDK_CLIENT_ID":     "LOOKER_CLIENT_ID",
	"LOOKERSDK_CLIENT_SECRET": "LOOKER_CLIENT_SECRET",
	"LOOKERSDK_VERIFY_SSL":    "LOOKER_VERIFY_SSL",
	"LOOKERSDK_TIMEOUT":       "LOOKER_TIMEOUT",
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format JANITOR_SECTION_FIELD. Unparseable
// values are reported as a ValidationError.
func applyEnvOverrides(cfg *Config) error {
	overrides := envOverrides(cfg)
	byName := make(map[string]envOverride, len(overrides))
	for _, o := range overrides {
		byName[o.name] = o
	}

	var errs []FieldError
	apply := func(envName string, o envOverride, val string) {
		if err := o.apply(val); err != nil {
			errs = append(errs, FieldError{Field: envName, Message: fmt.Sprintf("invalid value %q: %v", val, err)})
		}
	}

	for sdkName, name := range lookerSDKFallbacks {
		if _, set := os.LookupEnv(EnvPrefix + name); set {
			continue
		}
		if val, ok := os.LookupEnv(sdkName); ok && val != "" {
			apply(sdkName, byName[name], normalizeSDKValue(name, val))
		}
	}

	for _, o := range overrides {
		if val := os.Getenv(EnvPrefix + o.name); val != "" {
			apply(EnvPrefix+o.name, o, val)
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// normalizeSDKValue converts SDK conventions: LOOKERSDK_TIMEOUT is in seconds.
func normalizeSDKValue(name, val string) string {
	if name == "LOOKER_TIMEOUT" {
		if _, err := strconv.Atoi(val); err == nil {
			return val + "s"
		}
	}
	return val
}

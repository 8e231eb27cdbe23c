package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalConfig = `
looker:
  base_url: "https://example.looker.com:19999"
  client_id: "id"
  client_secret: "secret"

notification:
  address: "bi-admins@example.com"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "janitor.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
looker:
  base_url: "https://example.looker.com:19999"
  client_id: "id"
  client_secret: "secret"
  timeout: "30s"
  rate_limit:
    requests_per_second: 5

cleanup:
  soft_delete_after_days: 60
  hard_delete_after_days: 30
  dry_run: false

notification:
  address: "bi-admins@example.com"

audit:
  backend: "memory"

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Looker.Timeout != 30*time.Second {
		t.Errorf("expected timeout %v, got %v", 30*time.Second, cfg.Looker.Timeout)
	}
	if cfg.Looker.RateLimit.RequestsPerSecond != 5 || cfg.Looker.RateLimit.Burst != DefaultRateLimitBurst {
		t.Errorf("unexpected rate limit: %+v", cfg.Looker.RateLimit)
	}
	if cfg.Cleanup.SoftDeleteAfterDays != 60 || cfg.Cleanup.HardDeleteAfterDays != 30 {
		t.Errorf("unexpected thresholds: %+v", cfg.Cleanup)
	}
	if cfg.Cleanup.DryRun {
		t.Error("expected explicit dry_run: false to survive defaults")
	}
	if cfg.Cleanup.AllowIrreversibleDelete {
		t.Error("expected allow_irreversible_delete to default to false")
	}
	if !cfg.Looker.VerifySSL {
		t.Error("expected verify_ssl to default to true")
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.Audit.Backend)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Cleanup.SoftDeleteAfterDays != 90 || cfg.Cleanup.HardDeleteAfterDays != 90 {
		t.Errorf("expected 90/90 thresholds, got %d/%d", cfg.Cleanup.SoftDeleteAfterDays, cfg.Cleanup.HardDeleteAfterDays)
	}
	if !cfg.Cleanup.DryRun {
		t.Error("expected dry_run to default to true")
	}
	if !cfg.Notification.Enabled {
		t.Error("expected notifications enabled by default")
	}
	if cfg.Schedule.Cron != DefaultScheduleCron {
		t.Errorf("expected cron %q, got %q", DefaultScheduleCron, cfg.Schedule.Cron)
	}
	if cfg.Audit.SQLite.Driver != "sqlite" || cfg.Audit.Retention.Days != DefaultAuditRetentionDays {
		t.Errorf("unexpected audit defaults: %+v", cfg.Audit)
	}
	if cfg.Telemetry.Metrics.Namespace != "janitor" {
		t.Errorf("expected metrics namespace janitor, got %q", cfg.Telemetry.Metrics.Namespace)
	}
}

func TestLoadConfig_RetentionZeroKeepsForever(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
audit:
  retention:
    days: 0
`))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Audit.Retention.Days != 0 {
		t.Errorf("expected explicit 0 retention, got %d", cfg.Audit.Retention.Days)
	}
}

func TestLoadConfig_ZeroThresholdsSurvive(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
cleanup:
  soft_delete_after_days: 0
  hard_delete_after_days: 0
`))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Cleanup.SoftDeleteAfterDays != 0 || cfg.Cleanup.HardDeleteAfterDays != 0 {
		t.Errorf("expected explicit 0/0 thresholds, got %d/%d", cfg.Cleanup.SoftDeleteAfterDays, cfg.Cleanup.HardDeleteAfterDays)
	}
}

func TestLoadConfigWithEnvOverrides_ZeroThresholds(t *testing.T) {
	t.Setenv("JANITOR_CLEANUP_SOFT_DELETE_AFTER_DAYS", "0")
	t.Setenv("JANITOR_CLEANUP_HARD_DELETE_AFTER_DAYS", "0")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Cleanup.SoftDeleteAfterDays != 0 || cfg.Cleanup.HardDeleteAfterDays != 0 {
		t.Errorf("expected env 0/0 thresholds, got %d/%d", cfg.Cleanup.SoftDeleteAfterDays, cfg.Cleanup.HardDeleteAfterDays)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read configuration file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "looker: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse configuration file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, minimalConfig+"\ncleanup:\n  dryrun: false\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "cleanup:\n  dry_run: true\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := map[string]bool{}
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"looker.base_url", "looker.client_id", "looker.client_secret", "notification.address"} {
		if !fields[want] {
			t.Errorf("expected error for %s, got %v", want, verr.Errors)
		}
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
looker:
  base_url: "https://example.looker.com:19999"
  client_id: "id"
notification:
  address: "bi-admins@example.com"
`)

	t.Setenv("JANITOR_LOOKER_CLIENT_SECRET", "from-env")
	t.Setenv("JANITOR_CLEANUP_DRY_RUN", "false")
	t.Setenv("JANITOR_CLEANUP_SOFT_DELETE_AFTER_DAYS", "120")
	t.Setenv("JANITOR_LOOKER_TIMEOUT", "45s")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Looker.ClientSecret != "from-env" {
		t.Errorf("expected client secret from env, got %q", cfg.Looker.ClientSecret)
	}
	if cfg.Cleanup.DryRun {
		t.Error("expected dry run disabled by env")
	}
	if cfg.Cleanup.SoftDeleteAfterDays != 120 {
		t.Errorf("expected 120 days, got %d", cfg.Cleanup.SoftDeleteAfterDays)
	}
	if cfg.Looker.Timeout != 45*time.Second {
		t.Errorf("expected 45s timeout, got %v", cfg.Looker.Timeout)
	}
}

func TestLoadConfigWithEnvOverrides_LookerSDKVariables(t *testing.T) {
	t.Setenv("LOOKERSDK_BASE_URL", "https://sdk.looker.com:19999")
	t.Setenv("LOOKERSDK_CLIENT_ID", "sdk-id")
	t.Setenv("LOOKERSDK_CLIENT_SECRET", "sdk-secret")
	t.Setenv("LOOKERSDK_TIMEOUT", "60")
	t.Setenv("JANITOR_LOOKER_CLIENT_ID", "janitor-id")
	t.Setenv("JANITOR_NOTIFICATION_ADDRESS", "ops@example.com")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Looker.BaseURL != "https://sdk.looker.com:19999" {
		t.Errorf("expected SDK base URL, got %q", cfg.Looker.BaseURL)
	}
	if cfg.Looker.ClientID != "janitor-id" {
		t.Errorf("expected JANITOR_ variable to win, got %q", cfg.Looker.ClientID)
	}
	if cfg.Looker.Timeout != 60*time.Second {
		t.Errorf("expected SDK timeout in seconds, got %v", cfg.Looker.Timeout)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidValue(t *testing.T) {
	t.Setenv("JANITOR_CLEANUP_DRY_RUN", "maybe")

	_, err := LoadConfigWithEnvOverrides(writeConfig(t, minimalConfig))
	if err == nil {
		t.Fatal("expected error for invalid boolean")
	}
	if !strings.Contains(err.Error(), "JANITOR_CLEANUP_DRY_RUN") {
		t.Errorf("expected variable name in error, got %v", err)
	}
}

// Package config provides configuration management for janitor.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("janitor.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("janitor.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention JANITOR_SECTION_FIELD:
//
//   - JANITOR_LOOKER_CLIENT_SECRET overrides looker.client_secret
//   - JANITOR_CLEANUP_DRY_RUN overrides cleanup.dry_run
//   - JANITOR_NOTIFICATION_ADDRESS overrides notification.address
//
// The Looker SDK variables LOOKERSDK_BASE_URL, LOOKERSDK_CLIENT_ID,
// LOOKERSDK_CLIENT_SECRET, LOOKERSDK_VERIFY_SSL and LOOKERSDK_TIMEOUT are
// honoured when the JANITOR_ equivalent is unset.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Safety defaults
//
// cleanup.dry_run defaults to true and cleanup.allow_irreversible_delete to
// false. Content is only permanently deleted when an operator flips both.
//
// # Example Configuration
//
//	looker:
//	  base_url: "https://example.looker.com:19999"
//	  client_id: "abc"
//	  # client_secret from JANITOR_LOOKER_CLIENT_SECRET
//
//	cleanup:
//	  soft_delete_after_days: 90
//	  hard_delete_after_days: 90
//	  dry_run: false
//
//	notification:
//	  address: "bi-admins@example.com"
//
// # Hot reload
//
// In serve mode a Watcher reloads the file on change. Runs capture the
// configuration pointer when they start, so a reload takes effect at the
// next run.
package config

// Janitor removes stale Looker content.
//
// Each run executes two passes against the Looker API 4.0:
//   - soft delete: content not accessed for more than
//     cleanup.soft_delete_after_days is moved to the trash
//   - hard delete: content in the trash for more than
//     cleanup.hard_delete_after_days is permanently deleted
//
// After each pass a CSV of the affected content is emailed through a one-off
// scheduled plan. Runs are dry by default.
//
// Usage:
//
//	# One-shot run with the configuration in janitor.yaml
//	janitor run
//
//	# Long-running service with a cron schedule and POST /run
//	janitor serve --config /etc/janitor/janitor.yaml
//
//	# Print the System Activity query definitions
//	janitor queries
//
//	# Inspect the audit trail
//	janitor audit query --run-id 5f0c... --format csv
package main

func main() {
	Execute()
}

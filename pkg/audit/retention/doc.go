// Package retention prunes the audit trail by age and by record count,
// optionally on a cron schedule.
package retention

// Package audit keeps a durable trail of every mutation and notification
// performed by a cleanup run.
//
// # Overview
//
// Each cleanup run produces a report. The Recorder turns the report into one
// Record per soft delete, hard delete and notification, plus one record per
// pass that summarizes whether the pass completed. Records are written to a
// Storage backend and can later be queried, exported or pruned.
//
// # Backends
//
//   - storage.MemoryStorage keeps records in a map (tests, one-off runs)
//   - storage.SQLiteStorage persists records to a SQLite file using either
//     the cgo driver (github.com/mattn/go-sqlite3, driver "sqlite3") or the
//     pure Go driver (modernc.org/sqlite, driver "sqlite")
//
// # Retention
//
// retention.Pruner deletes records older than the configured number of days
// and caps the total record count. It can run on a cron schedule.
//
// # Export
//
// export.JSONExporter and export.CSVExporter write records for offline
// review, for example attaching the trail of a run to a change ticket.
package audit

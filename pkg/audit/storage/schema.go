package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the audit tables. Timestamps are stored as Unix
// nanoseconds so both SQLite drivers compare them the same way.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_records (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    pass TEXT NOT NULL,
    action TEXT NOT NULL,
    content_type TEXT,
    content_id TEXT,
    query_id TEXT,
    success INTEGER NOT NULL,
    dry_run INTEGER NOT NULL,
    message TEXT,
    error TEXT,
    timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_records(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_run_id ON audit_records(run_id);
CREATE INDEX IF NOT EXISTS idx_audit_content ON audit_records(content_type, content_id);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const selectColumns = `id, run_id, pass, action, content_type, content_id, query_id,
    success, dry_run, message, error, timestamp`

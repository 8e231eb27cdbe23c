package audit

import (
	"context"
	"io"
	"time"
)

// Actions recorded besides the cleanup mutations themselves.
const (
	ActionPass = "pass"
)

// Record is one audited event of a cleanup run.
type Record struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	Pass        string    `json:"pass"`
	Action      string    `json:"action"`
	ContentType string    `json:"content_type,omitempty"`
	ContentID   string    `json:"content_id,omitempty"`
	QueryID     string    `json:"query_id,omitempty"`
	Success     bool      `json:"success"`
	DryRun      bool      `json:"dry_run"`
	Message     string    `json:"message"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Query defines filter parameters for audit records. Zero values match
// everything.
type Query struct {
	// Time range, both inclusive.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	IDs         []string `json:"ids,omitempty"`
	RunID       string   `json:"run_id,omitempty"`
	Pass        string   `json:"pass,omitempty"`
	Action      string   `json:"action,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	ContentID   string   `json:"content_id,omitempty"`
	DryRun      *bool    `json:"dry_run,omitempty"`

	// Status is "success" or "error".
	Status string `json:"status,omitempty"`

	// Limit 0 returns every matching record.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder orders by timestamp: "asc" or "desc" (default).
	SortOrder string `json:"sort_order,omitempty"`
}

// Sort orders.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Status filters.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Storage defines the interface for audit storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query retrieves records matching the filters. It returns an empty
	// slice if nothing matches.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// QueryStream streams matching records. Both channels are closed when
	// the query completes; errCh carries at most one error.
	QueryStream(ctx context.Context, query *Query) (<-chan *Record, <-chan error, error)

	// Count returns the number of matching records.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes matching records and returns how many were removed.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Exporter writes records in a specific format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error

	// ExportStream writes records as they arrive until recordsCh is closed.
	ExportStream(ctx context.Context, recordsCh <-chan *Record, w io.Writer) error
}

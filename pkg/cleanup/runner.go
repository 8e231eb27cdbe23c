package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"janitor-hq/janitor/pkg/looker"
)

// Runner executes saved queries and decodes their rows.
type Runner struct {
	api    looker.API
	logger *slog.Logger
}

// NewRunner creates a query runner.
func NewRunner(api looker.API) *Runner {
	return &Runner{
		api:    api,
		logger: slog.Default().With("component", "cleanup.runner"),
	}
}

// Run executes the query in JSON format, allowing Looker's result cache.
func (r *Runner) Run(ctx context.Context, queryID string) ([]ContentRow, error) {
	raw, err := r.api.RunQuery(ctx, queryID, "json", true)
	if err != nil {
		return nil, err
	}
	rows, err := DecodeRows(raw)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", queryID, err)
	}
	r.logger.Debug("query returned rows", "query_id", queryID, "rows", len(rows))
	return rows, nil
}

// DecodeRows parses a JSON query result into rows.
func DecodeRows(raw []byte) ([]ContentRow, error) {
	var rows []ContentRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode query result: %w", err)
	}
	return rows, nil
}

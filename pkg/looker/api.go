package looker

import "context"

// API is the set of Looker operations consumed by the cleanup pipeline.
// *Client implements it; tests substitute an in-memory fake.
type API interface {
	// CreateQuery registers a query definition and returns it with its
	// server-allocated ID.
	CreateQuery(ctx context.Context, query *WriteQuery) (*Query, error)

	// RunQuery executes a saved query and returns the raw result payload in
	// the requested format ("json", "csv", ...). When cache is true Looker may
	// serve the result from its own result cache.
	RunQuery(ctx context.Context, queryID, resultFormat string, cache bool) ([]byte, error)

	// UpdateDashboard patches a dashboard.
	UpdateDashboard(ctx context.Context, dashboardID string, body *WriteDashboard) error

	// UpdateLook patches a Look.
	UpdateLook(ctx context.Context, lookID string, body *WriteLookWithQuery) error

	// DeleteDashboard permanently deletes a dashboard. There is no undo.
	DeleteDashboard(ctx context.Context, dashboardID string) error

	// DeleteLook permanently deletes a Look. There is no undo.
	DeleteLook(ctx context.Context, lookID string) error

	// ScheduledPlanRunOnce delivers a scheduled plan a single time without
	// saving it.
	ScheduledPlanRunOnce(ctx context.Context, plan *WriteScheduledPlan) (*ScheduledPlan, error)
}

var _ API = (*Client)(nil)

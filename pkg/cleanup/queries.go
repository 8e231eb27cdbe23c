package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"janitor-hq/janitor/pkg/looker"
)

// System Activity model and explore used by both queries.
const (
	SystemActivityModel = "system__activity"
	ContentUsageView    = "content_usage"

	// QueryRowLimit is the row cap applied to both queries.
	QueryRowLimit = "50000"
)

const (
	unusedFilterExpression  = "if(is_null(${dashboard.deleted_date}) = no OR is_null(${look.deleted_date}) = no,no,yes)"
	trashedFilterExpression = "if(is_null(${dashboard.deleted_date}) = no OR is_null(${look.deleted_date}) = no,yes,no)"
	daysInTrashExpression   = "diff_days(coalesce(${dashboard.deleted_date},${look.deleted_date}), now())"
)

func baseFields() []string {
	return []string{
		FieldDashboardID,
		FieldLookID,
		FieldContentTitle,
		FieldContentType,
		FieldLastAccessedDate,
	}
}

// UnusedContentQuery returns the definition of the query that lists live
// dashboards and Looks not accessed for more than days.
func UnusedContentQuery(days int) *looker.WriteQuery {
	return &looker.WriteQuery{
		Model:  SystemActivityModel,
		View:   ContentUsageView,
		Fields: baseFields(),
		Filters: map[string]string{
			FieldDaysSinceLastAccessed:                     fmt.Sprintf(">%d", days),
			FieldContentType:                               "dashboard,look",
			"_dashboard_linked_looks.is_used_on_dashboard": "No",
			"look.public":                                  "No",
		},
		FilterExpression: unusedFilterExpression,
		Sorts:            []string{FieldLastAccessedDate},
		Limit:            QueryRowLimit,
	}
}

// TrashedContentQuery returns the definition of the query that lists
// dashboards and Looks that have been in the trash for more than days.
func TrashedContentQuery(days int) (*looker.WriteQuery, error) {
	dynamic, err := json.Marshal([]looker.DynamicField{{
		Category:   "dimension",
		Expression: daysInTrashExpression,
		Label:      "Days Since Moved to Trash",
		Dimension:  FieldDaysSinceMovedToTrash,
		KindHint:   "dimension",
		TypeHint:   "number",
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode dynamic fields: %w", err)
	}

	fields := append(baseFields(), FieldDashboardDeletedDate, FieldLookDeletedDate)
	return &looker.WriteQuery{
		Model:  SystemActivityModel,
		View:   ContentUsageView,
		Fields: fields,
		Filters: map[string]string{
			FieldContentType:           "dashboard,look",
			FieldDaysSinceMovedToTrash: fmt.Sprintf(">%d", days),
		},
		FilterExpression: trashedFilterExpression,
		Sorts:            []string{FieldLastAccessedDate},
		Limit:            QueryRowLimit,
		DynamicFields:    string(dynamic),
	}, nil
}

// Builder registers the cleanup queries with Looker.
type Builder struct {
	api    looker.API
	logger *slog.Logger
}

// NewBuilder creates a query builder.
func NewBuilder(api looker.API) *Builder {
	return &Builder{
		api:    api,
		logger: slog.Default().With("component", "cleanup.queries"),
	}
}

// BuildUnusedContentQuery creates the unused content query and returns its id.
func (b *Builder) BuildUnusedContentQuery(ctx context.Context, days int) (string, error) {
	return b.create(ctx, Soft, UnusedContentQuery(days))
}

// BuildTrashedContentQuery creates the trashed content query and returns its id.
func (b *Builder) BuildTrashedContentQuery(ctx context.Context, days int) (string, error) {
	q, err := TrashedContentQuery(days)
	if err != nil {
		return "", NewPassError(Hard, StageBuild, err)
	}
	return b.create(ctx, Hard, q)
}

// Build dispatches on kind.
func (b *Builder) Build(ctx context.Context, kind DeleteKind, days int) (string, error) {
	if kind == Hard {
		return b.BuildTrashedContentQuery(ctx, days)
	}
	return b.BuildUnusedContentQuery(ctx, days)
}

func (b *Builder) create(ctx context.Context, kind DeleteKind, q *looker.WriteQuery) (string, error) {
	created, err := b.api.CreateQuery(ctx, q)
	if err != nil {
		b.logger.Error("failed to create query", "pass", kind, "error", err)
		return "", NewPassError(kind, StageBuild, err)
	}
	b.logger.Debug("created query", "pass", kind, "query_id", created.ID)
	return created.ID, nil
}

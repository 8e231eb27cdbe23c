package looker

// WriteQuery is the body of a create query request.
// Only the fields used by this project are modelled.
type WriteQuery struct {
	// Model is the LookML model name, e.g. "system__activity".
	Model string `json:"model"`

	// View is the explore name, e.g. "content_usage".
	View string `json:"view"`

	// Fields lists the fully scoped field names to select.
	Fields []string `json:"fields,omitempty"`

	// Filters maps field names to Looker filter expressions.
	Filters map[string]string `json:"filters,omitempty"`

	// FilterExpression is a custom filter written in Looker expression syntax.
	FilterExpression string `json:"filter_expression,omitempty"`

	// Sorts lists sort specifications ("field" or "field desc").
	Sorts []string `json:"sorts,omitempty"`

	// Limit is the row limit. Looker transports it as a string.
	Limit string `json:"limit,omitempty"`

	// DynamicFields is a JSON encoded array of table calculations and
	// custom dimensions.
	DynamicFields string `json:"dynamic_fields,omitempty"`
}

// Query is a query definition as returned by the API.
type Query struct {
	ID               string            `json:"id"`
	Slug             string            `json:"slug,omitempty"`
	Model            string            `json:"model"`
	View             string            `json:"view"`
	Fields           []string          `json:"fields,omitempty"`
	Filters          map[string]string `json:"filters,omitempty"`
	FilterExpression string            `json:"filter_expression,omitempty"`
	Sorts            []string          `json:"sorts,omitempty"`
	Limit            string            `json:"limit,omitempty"`
	DynamicFields    string            `json:"dynamic_fields,omitempty"`
}

// DynamicField describes a custom dimension embedded in WriteQuery.DynamicFields.
type DynamicField struct {
	Category        string  `json:"category"`
	Expression      string  `json:"expression"`
	Label           string  `json:"label"`
	ValueFormat     *string `json:"value_format"`
	ValueFormatName *string `json:"value_format_name"`
	Dimension       string  `json:"dimension"`
	KindHint        string  `json:"_kind_hint"`
	TypeHint        string  `json:"_type_hint"`
}

// WriteDashboard is the body of an update dashboard request.
type WriteDashboard struct {
	// Deleted moves the dashboard to (true) or out of (false) the trash.
	Deleted *bool `json:"deleted,omitempty"`
}

// WriteLookWithQuery is the body of an update Look request.
type WriteLookWithQuery struct {
	// Deleted moves the Look to (true) or out of (false) the trash.
	Deleted *bool `json:"deleted,omitempty"`
}

// ScheduledPlanDestination describes where a scheduled plan delivers its data.
type ScheduledPlanDestination struct {
	Format          string `json:"format"`
	Type            string `json:"type"`
	Address         string `json:"address"`
	Message         string `json:"message,omitempty"`
	ApplyFormatting bool   `json:"apply_formatting"`
	ApplyVis        bool   `json:"apply_vis"`
}

// WriteScheduledPlan is the body of a run once request.
type WriteScheduledPlan struct {
	Name                     string                     `json:"name"`
	QueryID                  string                     `json:"query_id"`
	ScheduledPlanDestination []ScheduledPlanDestination `json:"scheduled_plan_destination"`
}

// ScheduledPlan is a scheduled plan as returned by the API.
type ScheduledPlan struct {
	ID                       string                     `json:"id,omitempty"`
	Name                     string                     `json:"name"`
	QueryID                  string                     `json:"query_id"`
	ScheduledPlanDestination []ScheduledPlanDestination `json:"scheduled_plan_destination,omitempty"`
}

// User is the subset of the current user record used for connectivity checks.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

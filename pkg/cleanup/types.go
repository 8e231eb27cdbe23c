package cleanup

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ContentType is the kind of Looker content a row refers to.
type ContentType string

const (
	ContentDashboard ContentType = "dashboard"
	ContentLook      ContentType = "look"
)

// Label returns the human form used in log and notification messages.
func (c ContentType) Label() string {
	if c == ContentLook {
		return "Look"
	}
	return string(c)
}

// DeleteKind distinguishes the two passes.
type DeleteKind string

const (
	Soft DeleteKind = "soft"
	Hard DeleteKind = "hard"
)

// Title returns the capitalized kind, e.g. "Soft".
func (k DeleteKind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Action is a mutation performed on a piece of content.
type Action string

const (
	ActionSoftDelete Action = "soft_delete"
	ActionHardDelete Action = "hard_delete"
	ActionNotify     Action = "notify"
)

// Row keys as returned by the System Activity queries.
const (
	FieldDashboardID           = "dashboard.id"
	FieldLookID                = "look.id"
	FieldContentTitle          = "content_usage.content_title"
	FieldContentType           = "content_usage.content_type"
	FieldLastAccessedDate      = "content_usage.last_accessed_date"
	FieldDaysSinceLastAccessed = "content_usage.days_since_last_accessed"
	FieldDashboardDeletedDate  = "dashboard.deleted_date"
	FieldLookDeletedDate       = "look.deleted_date"
	FieldDaysSinceMovedToTrash = "days_since_moved_to_trash"
)

// ContentRow is one result row of either cleanup query.
type ContentRow struct {
	DashboardID           *string     `json:"dashboard.id"`
	LookID                *string     `json:"look.id"`
	ContentType           ContentType `json:"content_usage.content_type"`
	Title                 string      `json:"content_usage.content_title,omitempty"`
	LastAccessedDate      string      `json:"content_usage.last_accessed_date,omitempty"`
	DashboardDeletedDate  *string     `json:"dashboard.deleted_date,omitempty"`
	LookDeletedDate       *string     `json:"look.deleted_date,omitempty"`
	DaysSinceMovedToTrash *int        `json:"days_since_moved_to_trash,omitempty"`
}

// UnmarshalJSON decodes a row. Ids arrive as strings or numbers depending on
// the Looker version; both are normalized to strings.
func (r *ContentRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	if r.DashboardID, err = optionalString(raw[FieldDashboardID]); err != nil {
		return fmt.Errorf("%s: %w", FieldDashboardID, err)
	}
	if r.LookID, err = optionalString(raw[FieldLookID]); err != nil {
		return fmt.Errorf("%s: %w", FieldLookID, err)
	}
	if r.DashboardDeletedDate, err = optionalString(raw[FieldDashboardDeletedDate]); err != nil {
		return fmt.Errorf("%s: %w", FieldDashboardDeletedDate, err)
	}
	if r.LookDeletedDate, err = optionalString(raw[FieldLookDeletedDate]); err != nil {
		return fmt.Errorf("%s: %w", FieldLookDeletedDate, err)
	}

	ct, err := optionalString(raw[FieldContentType])
	if err != nil {
		return fmt.Errorf("%s: %w", FieldContentType, err)
	}
	if ct != nil {
		r.ContentType = ContentType(*ct)
	}
	if title, err := optionalString(raw[FieldContentTitle]); err != nil {
		return fmt.Errorf("%s: %w", FieldContentTitle, err)
	} else if title != nil {
		r.Title = *title
	}
	if last, err := optionalString(raw[FieldLastAccessedDate]); err != nil {
		return fmt.Errorf("%s: %w", FieldLastAccessedDate, err)
	} else if last != nil {
		r.LastAccessedDate = *last
	}

	days, err := optionalString(raw[FieldDaysSinceMovedToTrash])
	if err != nil {
		return fmt.Errorf("%s: %w", FieldDaysSinceMovedToTrash, err)
	}
	if days != nil {
		n, err := strconv.ParseFloat(*days, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", FieldDaysSinceMovedToTrash, err)
		}
		v := int(n)
		r.DaysSinceMovedToTrash = &v
	}
	return nil
}

// optionalString decodes a JSON string, number or null.
func optionalString(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("expected string or number, got %s", string(raw))
	}
	s = n.String()
	return &s, nil
}

// Outcome is the result of a single mutation or notification.
type Outcome struct {
	Action      Action      `json:"action"`
	ContentType ContentType `json:"content_type,omitempty"`
	ID          string      `json:"id,omitempty"`
	Success     bool        `json:"success"`
	DryRun      bool        `json:"dry_run"`
	Message     string      `json:"message"`
	Err         error       `json:"-"`
}

// PassReport summarizes one pass.
type PassReport struct {
	Kind         DeleteKind    `json:"kind"`
	QueryID      string        `json:"query_id,omitempty"`
	Rows         int           `json:"rows"`
	Dashboards   []string      `json:"dashboards"`
	Looks        []string      `json:"looks"`
	Outcomes     []Outcome     `json:"outcomes"`
	Notification *Outcome      `json:"notification,omitempty"`
	Duration     time.Duration `json:"duration"`
	Err          error         `json:"-"`
}

// Completed reports whether the pass got past the query stages.
func (p *PassReport) Completed() bool {
	return p.Err == nil
}

// Failures counts failed mutations.
func (p *PassReport) Failures() int {
	n := 0
	for _, o := range p.Outcomes {
		if !o.Success {
			n++
		}
	}
	return n
}

// MarshalJSON adds the error text, which error values cannot carry through
// encoding/json on their own.
func (p PassReport) MarshalJSON() ([]byte, error) {
	type alias PassReport
	out := struct {
		alias
		Error string `json:"error,omitempty"`
	}{alias: alias(p)}
	if p.Err != nil {
		out.Error = p.Err.Error()
	}
	return json.Marshal(out)
}

// StatusSuccess is reported when both passes completed.
const StatusSuccess = "Successfully ran soft delete and hard delete content automation."

// Report aggregates a full run.
type Report struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	DryRun     bool          `json:"dry_run"`
	Passes     []*PassReport `json:"passes"`
}

// Pass returns the report of the given pass, or nil.
func (r *Report) Pass(kind DeleteKind) *PassReport {
	for _, p := range r.Passes {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

// Completed reports whether every pass completed.
func (r *Report) Completed() bool {
	for _, p := range r.Passes {
		if !p.Completed() {
			return false
		}
	}
	return len(r.Passes) > 0
}

// Status returns the run summary line.
func (r *Report) Status() string {
	if r.Completed() {
		return StatusSuccess
	}
	var failed []string
	for _, p := range r.Passes {
		if p.Err != nil {
			failed = append(failed, fmt.Sprintf("%s delete pass failed: %v", p.Kind, p.Err))
		}
	}
	if len(failed) == 0 {
		return "No cleanup passes were run."
	}
	return "Content automation finished with errors: " + strings.Join(failed, "; ")
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

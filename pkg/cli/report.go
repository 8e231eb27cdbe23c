package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"janitor-hq/janitor/pkg/audit"
	"janitor-hq/janitor/pkg/cleanup"
)

// ReportView presents a run report: the status line plus one row per
// mutation and notification.
type ReportView struct {
	Report *cleanup.Report
}

var reportHeader = []string{"pass", "action", "content_type", "id", "success", "dry_run", "message"}

// String returns the summary printed above the table.
func (v ReportView) String() string {
	r := v.Report
	var b strings.Builder
	b.WriteString(r.Status())
	for _, p := range r.Passes {
		fmt.Fprintf(&b, "\n  %s: %d rows, %d dashboards, %d looks, %d failed",
			p.Kind, p.Rows, len(p.Dashboards), len(p.Looks), p.Failures())
		if p.Err != nil {
			fmt.Fprintf(&b, " (%v)", p.Err)
		}
	}
	if r.DryRun {
		b.WriteString("\n  dry run: no content was deleted")
	}
	return b.String()
}

// Header implements Table.
func (v ReportView) Header() []string {
	return reportHeader
}

// Rows implements Table.
func (v ReportView) Rows() [][]string {
	var rows [][]string
	for _, p := range v.Report.Passes {
		for _, o := range p.Outcomes {
			rows = append(rows, outcomeRow(p.Kind, o))
		}
		if p.Notification != nil {
			rows = append(rows, outcomeRow(p.Kind, *p.Notification))
		}
	}
	return rows
}

// MarshalJSON emits the report itself.
func (v ReportView) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Report)
}

func outcomeRow(kind cleanup.DeleteKind, o cleanup.Outcome) []string {
	return []string{
		string(kind),
		string(o.Action),
		string(o.ContentType),
		o.ID,
		strconv.FormatBool(o.Success),
		strconv.FormatBool(o.DryRun),
		o.Message,
	}
}

// RecordsView presents audit records.
type RecordsView []*audit.Record

// Header implements Table.
func (v RecordsView) Header() []string {
	return []string{"timestamp", "run_id", "pass", "action", "content_type", "content_id", "success", "dry_run", "message"}
}

// Rows implements Table.
func (v RecordsView) Rows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, r := range v {
		rows = append(rows, []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.RunID,
			r.Pass,
			r.Action,
			r.ContentType,
			r.ContentID,
			strconv.FormatBool(r.Success),
			strconv.FormatBool(r.DryRun),
			r.Message,
		})
	}
	return rows
}

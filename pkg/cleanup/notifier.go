package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"janitor-hq/janitor/pkg/looker"
)

// DateLayout formats the run date in plan names and messages.
const DateLayout = "2006-01-02"

// NotificationPlan builds the one-off email plan for a pass.
func NotificationPlan(queryID string, kind DeleteKind, address string, date time.Time) *looker.WriteScheduledPlan {
	day := date.Format(DateLayout)
	return &looker.WriteScheduledPlan{
		Name:    fmt.Sprintf("[Looker Automation] %s deleted content (%s).", kind.Title(), day),
		QueryID: queryID,
		ScheduledPlanDestination: []looker.ScheduledPlanDestination{{
			Format:  "csv",
			Type:    "email",
			Address: address,
			Message: fmt.Sprintf("List of dashboards and Looks that were %s deleted on %s. "+
				"Note, LookML dashboards are unaffected by this automation, "+
				"the dashboard lkml file has to be deleted from its LookML project.", kind, day),
			ApplyFormatting: false,
			ApplyVis:        false,
		}},
	}
}

// Notifier schedules the summary emails.
type Notifier struct {
	api    looker.API
	now    func() time.Time
	logger *slog.Logger
}

// NewNotifier creates a notifier using the wall clock.
func NewNotifier(api looker.API) *Notifier {
	return &Notifier{
		api:    api,
		now:    time.Now,
		logger: slog.Default().With("component", "cleanup.notifier"),
	}
}

// Send emails the results of queryID to address. Failures are returned as a
// failed Outcome.
func (n *Notifier) Send(ctx context.Context, queryID string, kind DeleteKind, address string) Outcome {
	date := n.now()
	o := Outcome{Action: ActionNotify, ID: queryID}

	_, err := n.api.ScheduledPlanRunOnce(ctx, NotificationPlan(queryID, kind, address, date))
	if err != nil {
		o.Err = err
		o.Message = fmt.Sprintf("Error sending %s delete email notification (%s): %v", kind, date.Format(DateLayout), err)
		n.logger.Error(o.Message, "pass", kind, "query_id", queryID, "error", err)
		return o
	}

	o.Success = true
	o.Message = fmt.Sprintf("Sent %s delete email notification (%s)", kind, date.Format(DateLayout))
	n.logger.Info(o.Message, "pass", kind, "query_id", queryID, "address", address)
	return o
}

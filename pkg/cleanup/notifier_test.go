package cleanup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var runDate = time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC)

func TestNotificationPlan(t *testing.T) {
	plan := NotificationPlan("q1", Soft, "bi@example.com", runDate)

	if plan.Name != "[Looker Automation] Soft deleted content (2026-10-19)." {
		t.Errorf("unexpected plan name: %q", plan.Name)
	}
	if plan.QueryID != "q1" {
		t.Errorf("expected query id q1, got %q", plan.QueryID)
	}
	if len(plan.ScheduledPlanDestination) != 1 {
		t.Fatalf("expected one destination, got %d", len(plan.ScheduledPlanDestination))
	}
	dest := plan.ScheduledPlanDestination[0]
	if dest.Format != "csv" || dest.Type != "email" || dest.Address != "bi@example.com" {
		t.Errorf("unexpected destination: %+v", dest)
	}
	if dest.ApplyFormatting || dest.ApplyVis {
		t.Error("expected formatting and visualization off")
	}
	if !strings.Contains(dest.Message, "soft deleted on 2026-10-19") || !strings.Contains(dest.Message, "LookML dashboards are unaffected") {
		t.Errorf("unexpected message: %q", dest.Message)
	}
}

func TestNotifier_Send(t *testing.T) {
	api := newFakeAPI()
	n := NewNotifier(api)
	n.now = func() time.Time { return runDate }

	o := n.Send(context.Background(), "trashed-q", Hard, "bi@example.com")

	if !o.Success || o.Action != ActionNotify || o.ID != "trashed-q" {
		t.Errorf("unexpected outcome: %+v", o)
	}
	if o.Message != "Sent hard delete email notification (2026-10-19)" {
		t.Errorf("unexpected message: %q", o.Message)
	}
	if len(api.plans) != 1 || !strings.HasPrefix(api.plans[0].Name, "[Looker Automation] Hard deleted content") {
		t.Errorf("unexpected plans: %+v", api.plans)
	}
}

func TestNotifier_SendFailure(t *testing.T) {
	api := newFakeAPI()
	api.planErr = errors.New("smtp unavailable")
	n := NewNotifier(api)
	n.now = func() time.Time { return runDate }

	o := n.Send(context.Background(), "unused-q", Soft, "bi@example.com")

	if o.Success || o.Err == nil {
		t.Fatalf("expected failed outcome, got %+v", o)
	}
	if !strings.HasPrefix(o.Message, "Error sending soft delete email notification (2026-10-19)") {
		t.Errorf("unexpected message: %q", o.Message)
	}
}

package cleanup

import (
	"context"
	"fmt"
	"log/slog"

	"janitor-hq/janitor/pkg/looker"
)

// Mutator applies soft and permanent deletes. Every call returns an Outcome;
// remote failures never escape as errors.
type Mutator struct {
	api               looker.API
	dryRun            bool
	allowIrreversible bool
	logger            *slog.Logger
}

// NewMutator creates a mutator. Permanent deletes reach Looker only when
// allowIrreversible is set and dryRun is not.
func NewMutator(api looker.API, dryRun, allowIrreversible bool) *Mutator {
	return &Mutator{
		api:               api,
		dryRun:            dryRun,
		allowIrreversible: allowIrreversible,
		logger:            slog.Default().With("component", "cleanup.mutator"),
	}
}

// SoftDeleteDashboard moves a dashboard to the trash. In dry run it sends
// deleted=false instead.
func (m *Mutator) SoftDeleteDashboard(ctx context.Context, id string) Outcome {
	err := m.api.UpdateDashboard(ctx, id, &looker.WriteDashboard{Deleted: looker.Bool(!m.dryRun)})
	return m.outcome(ActionSoftDelete, ContentDashboard, id, err)
}

// SoftDeleteLook moves a Look to the trash. In dry run it sends
// deleted=false instead.
func (m *Mutator) SoftDeleteLook(ctx context.Context, id string) Outcome {
	err := m.api.UpdateLook(ctx, id, &looker.WriteLookWithQuery{Deleted: looker.Bool(!m.dryRun)})
	return m.outcome(ActionSoftDelete, ContentLook, id, err)
}

// HardDeleteDashboard permanently deletes a trashed dashboard.
func (m *Mutator) HardDeleteDashboard(ctx context.Context, id string) Outcome {
	var err error
	if m.irreversibleEnabled() {
		err = m.api.DeleteDashboard(ctx, id)
	}
	return m.outcome(ActionHardDelete, ContentDashboard, id, err)
}

// HardDeleteLook permanently deletes a trashed Look.
func (m *Mutator) HardDeleteLook(ctx context.Context, id string) Outcome {
	var err error
	if m.irreversibleEnabled() {
		err = m.api.DeleteLook(ctx, id)
	}
	return m.outcome(ActionHardDelete, ContentLook, id, err)
}

// Apply runs the kind's mutation over dashboards then Looks and returns one
// outcome per id in call order. Cancellation stops the batch between calls;
// every id not attempted gets a failed outcome carrying the context error.
func (m *Mutator) Apply(ctx context.Context, kind DeleteKind, dashboards, looks []string) []Outcome {
	action := ActionSoftDelete
	dashFn, lookFn := m.SoftDeleteDashboard, m.SoftDeleteLook
	if kind == Hard {
		action = ActionHardDelete
		dashFn, lookFn = m.HardDeleteDashboard, m.HardDeleteLook
	}

	outcomes := make([]Outcome, 0, len(dashboards)+len(looks))
	batch := func(ct ContentType, ids []string, fn func(context.Context, string) Outcome) {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				outcomes = append(outcomes, m.outcome(action, ct, id, fmt.Errorf("skipped: %w", err)))
				continue
			}
			outcomes = append(outcomes, fn(ctx, id))
		}
	}
	batch(ContentDashboard, dashboards, dashFn)
	batch(ContentLook, looks, lookFn)
	return outcomes
}

func (m *Mutator) irreversibleEnabled() bool {
	return m.allowIrreversible && !m.dryRun
}

func (m *Mutator) outcome(action Action, ct ContentType, id string, err error) Outcome {
	o := Outcome{
		Action:      action,
		ContentType: ct,
		ID:          id,
		DryRun:      m.dryRun,
	}
	if action == ActionHardDelete && !m.irreversibleEnabled() {
		o.DryRun = true
	}

	if err != nil {
		o.Err = err
		o.Message = fmt.Sprintf("error performing %s on %s %s: %v", action, ct, id, err)
		m.logger.Error(o.Message, "action", action, "content_type", ct, "id", id, "error", err)
		return o
	}

	o.Success = true
	verb := "soft deleted"
	if action == ActionHardDelete {
		verb = "permanently deleted"
	}
	o.Message = fmt.Sprintf("Successfully %s %s: %s", verb, ct.Label(), id)
	m.logger.Info(o.Message, "action", action, "content_type", ct, "id", id, "dry_run", o.DryRun)
	return o
}

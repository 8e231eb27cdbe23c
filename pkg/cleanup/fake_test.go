package cleanup

import (
	"context"
	"fmt"
	"sync"

	"janitor-hq/janitor/pkg/looker"
)

type call struct {
	Method  string
	ID      string
	Deleted *bool
}

// fakeAPI records calls and serves canned query results. The unused and
// trashed queries are told apart by their dynamic fields.
type fakeAPI struct {
	mu sync.Mutex

	unusedRows  string
	trashedRows string

	createErr map[DeleteKind]error
	runErr    map[string]error
	failIDs   map[string]error
	planErr   error

	queries []*looker.WriteQuery
	plans   []*looker.WriteScheduledPlan
	calls   []call

	// afterCall, when set, runs after each mutation call is recorded.
	afterCall func(call)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		unusedRows:  "[]",
		trashedRows: "[]",
		createErr:   map[DeleteKind]error{},
		runErr:      map[string]error{},
		failIDs:     map[string]error{},
	}
}

func (f *fakeAPI) record(c call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	after := f.afterCall
	f.mu.Unlock()
	if after != nil {
		after(c)
	}
}

func (f *fakeAPI) CreateQuery(ctx context.Context, q *looker.WriteQuery) (*looker.Query, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kind, id := Soft, "unused-q"
	if q.DynamicFields != "" {
		kind, id = Hard, "trashed-q"
	}
	if err := f.createErr[kind]; err != nil {
		return nil, err
	}
	f.queries = append(f.queries, q)
	return &looker.Query{ID: id}, nil
}

func (f *fakeAPI) RunQuery(ctx context.Context, queryID, resultFormat string, cache bool) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.runErr[queryID]; err != nil {
		return nil, err
	}
	if resultFormat != "json" || !cache {
		return nil, fmt.Errorf("unexpected run options %q cache=%v", resultFormat, cache)
	}
	if queryID == "trashed-q" {
		return []byte(f.trashedRows), nil
	}
	return []byte(f.unusedRows), nil
}

func (f *fakeAPI) UpdateDashboard(ctx context.Context, id string, body *looker.WriteDashboard) error {
	f.record(call{Method: "UpdateDashboard", ID: id, Deleted: body.Deleted})
	return f.failIDs["dashboard:"+id]
}

func (f *fakeAPI) UpdateLook(ctx context.Context, id string, body *looker.WriteLookWithQuery) error {
	f.record(call{Method: "UpdateLook", ID: id, Deleted: body.Deleted})
	return f.failIDs["look:"+id]
}

func (f *fakeAPI) DeleteDashboard(ctx context.Context, id string) error {
	f.record(call{Method: "DeleteDashboard", ID: id})
	return f.failIDs["dashboard:"+id]
}

func (f *fakeAPI) DeleteLook(ctx context.Context, id string) error {
	f.record(call{Method: "DeleteLook", ID: id})
	return f.failIDs["look:"+id]
}

func (f *fakeAPI) ScheduledPlanRunOnce(ctx context.Context, plan *looker.WriteScheduledPlan) (*looker.ScheduledPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans = append(f.plans, plan)
	if f.planErr != nil {
		return nil, f.planErr
	}
	return &looker.ScheduledPlan{ID: "plan-1", Name: plan.Name}, nil
}

func (f *fakeAPI) methodCalls(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

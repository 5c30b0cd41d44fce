package service

import (
	"context"
	"sync"
	"time"

	"beesync/internal/core/aggregate"
	"beesync/internal/core/datapoint"
	"beesync/internal/core/goal"
	perr "beesync/internal/platform/errors"
	dpdomain "beesync/internal/services/datapoints/domain"
)

type query struct {
	kind       string
	start, end time.Time
}

type fakeSource struct {
	mu      sync.Mutex
	samples []aggregate.Sample
	errs    map[string]error
	queries []query
}

func (f *fakeSource) QuerySamples(_ context.Context, kind string, start, end time.Time) ([]aggregate.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query{kind, start, end})
	if err := f.errs[kind]; err != nil {
		return nil, err
	}
	var out []aggregate.Sample
	for _, s := range f.samples {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeReconciler struct {
	mu       sync.Mutex
	got      map[string][]datapoint.Candidate
	failures map[string][]dpdomain.Failure
	err      error
}

func (f *fakeReconciler) Reconcile(_ context.Context, g goal.State, cands []datapoint.Candidate) (dpdomain.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.got == nil {
		f.got = map[string][]datapoint.Candidate{}
	}
	f.got[g.Slug] = cands
	res := dpdomain.Result{Goal: g.Slug, Created: len(cands), Failures: f.failures[g.Slug]}
	return res, f.err
}

func (f *fakeReconciler) cands(slug string) ([]datapoint.Candidate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.got[slug]
	return c, ok
}

// fakeGoals serves cached goals plus goals only the ledger knows about
type fakeGoals struct {
	mu        sync.Mutex
	cached    map[string]goal.State
	remote    map[string]goal.State
	listErr   error
	refreshed []string
}

func (f *fakeGoals) List(context.Context) ([]goal.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]goal.State, 0, len(f.cached))
	for _, g := range f.cached {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeGoals) Get(_ context.Context, slug string) (goal.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.cached[slug]
	if !ok {
		return goal.State{}, perr.NotFoundf("goal %s not found", slug)
	}
	return g, nil
}

func (f *fakeGoals) RefreshGoal(_ context.Context, slug string) (goal.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, slug)
	if g, ok := f.cached[slug]; ok {
		return g, nil
	}
	g, ok := f.remote[slug]
	if !ok {
		return goal.State{}, perr.NotFoundf("goal %s not found", slug)
	}
	f.cached[slug] = g
	return g, nil
}

// fakeWatcher reports n changes back to back then returns
type fakeWatcher struct{ n int }

func (w fakeWatcher) Watch(_ context.Context, changed func()) error {
	for range w.n {
		changed()
	}
	return nil
}

// blockingWatcher reports nothing and waits for cancellation
type blockingWatcher struct{}

func (blockingWatcher) Watch(ctx context.Context, _ func()) error {
	<-ctx.Done()
	return nil
}

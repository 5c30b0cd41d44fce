package service

import (
	"context"
	"testing"
	"time"

	"beesync/internal/core/aggregate"
	"beesync/internal/core/daystamp"
	"beesync/internal/core/goal"
	perr "beesync/internal/platform/errors"
	"beesync/internal/services/autodata/domain"
	dpdomain "beesync/internal/services/datapoints/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2023, 7, 11, 12, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time { return time.Date(2023, 7, day, hour, 0, 0, 0, time.UTC) }

func steps(day, hour int, v float64) aggregate.Sample {
	t := at(day, hour)
	return aggregate.Sample{Kind: aggregate.KindSteps, Start: t, End: t, Value: v, Unit: "count"}
}

func weight(day, hour int, v float64) aggregate.Sample {
	t := at(day, hour)
	return aggregate.Sample{Kind: aggregate.KindBodyMass, Start: t, End: t, Value: v, Unit: "lb"}
}

type fixture struct {
	src   *fakeSource
	rec   *fakeReconciler
	goals *fakeGoals
	svc   *Service
}

func newFixture(t *testing.T, d Deps, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		src: &fakeSource{samples: []aggregate.Sample{
			steps(10, 8, 100), steps(10, 9, 50), steps(11, 10, 0),
			weight(10, 7, 180.2), weight(11, 7, 179.8),
		}},
		rec: &fakeReconciler{},
		goals: &fakeGoals{cached: map[string]goal.State{
			"walk":   {Slug: "walk", Metric: "steps"},
			"weigh":  {Slug: "weigh", Metric: "weight"},
			"manual": {Slug: "manual"},
		}},
	}
	d.Source, d.Reconciler, d.Goals = f.src, f.rec, f.goals
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	f.svc = New(d, cfg, nil)
	f.svc.now = func() time.Time { return now }
	return f
}

func TestSyncGoal_AggregatesDropsZerosAndRefreshes(t *testing.T) {
	f := newFixture(t, Deps{}, Config{})

	rep, err := f.svc.SyncGoal(context.Background(), "walk", 2)
	require.NoError(t, err)

	require.Len(t, f.src.queries, 1)
	q := f.src.queries[0]
	assert.Equal(t, aggregate.KindSteps, q.kind)
	assert.True(t, q.start.Equal(at(9, 0)), "start %s", q.start)
	assert.True(t, q.end.Equal(at(12, 0)), "end %s", q.end)

	cands, ok := f.rec.cands("walk")
	require.True(t, ok)
	require.Len(t, cands, 1)
	assert.Equal(t, daystamp.Of(2023, 7, 10), cands[0].Daystamp)
	assert.Equal(t, 150.0, cands[0].Value)

	assert.Equal(t, "steps", rep.Metric)
	assert.Equal(t, daystamp.Of(2023, 7, 9), rep.From)
	assert.Equal(t, daystamp.Of(2023, 7, 11), rep.To)
	assert.Equal(t, 3, rep.Samples)
	assert.Equal(t, 1, rep.Points)
	assert.Equal(t, 1, rep.Zeros)
	assert.Equal(t, []string{"walk"}, f.goals.refreshed)
}

func TestSyncGoal_DefaultDays(t *testing.T) {
	f := newFixture(t, Deps{}, Config{})
	rep, err := f.svc.SyncGoal(context.Background(), "walk", 0)
	require.NoError(t, err)
	assert.Equal(t, daystamp.Of(2023, 7, 4), rep.From)
}

func TestSyncGoal_NotConnected(t *testing.T) {
	f := newFixture(t, Deps{}, Config{})
	rep, err := f.svc.SyncGoal(context.Background(), "manual", 7)
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
	assert.Equal(t, err, rep.Err)
	assert.Empty(t, f.src.queries)
}

func TestSyncGoal_LoadsUncachedGoal(t *testing.T) {
	d := Deps{Connections: []domain.Connection{{Goal: "fresh", Metric: "weight"}}}
	f := newFixture(t, d, Config{})
	f.goals.remote = map[string]goal.State{"fresh": {Slug: "fresh"}}

	_, err := f.svc.SyncGoal(context.Background(), "fresh", 2)
	require.NoError(t, err)

	cands, ok := f.rec.cands("fresh")
	require.True(t, ok)
	require.Len(t, cands, 2)
	assert.Equal(t, 180.2, cands[0].Value)
	// once to load it, once after reconciling
	assert.Equal(t, []string{"fresh", "fresh"}, f.goals.refreshed)
}

func TestSyncGoal_UnknownGoal(t *testing.T) {
	f := newFixture(t, Deps{}, Config{})
	_, err := f.svc.SyncGoal(context.Background(), "nope", 2)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))
}

func TestSyncGoal_PartialWritesAreNotFatal(t *testing.T) {
	f := newFixture(t, Deps{}, Config{})
	f.rec.failures = map[string][]dpdomain.Failure{"walk": {{Err: perr.New(perr.ErrorCodeUnavailable, "down")}}}

	rep, err := f.svc.SyncGoal(context.Background(), "walk", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Errors())
}

func TestSyncAll_SourceErrorAbandonsOnlyThatGoal(t *testing.T) {
	f := newFixture(t, Deps{}, Config{Concurrency: 2})
	f.src.errs = map[string]error{aggregate.KindBodyMass: perr.Sourcef(nil, "export unreadable")}

	rep, err := f.svc.SyncAll(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, rep.Goals, 2)
	assert.Equal(t, "walk", rep.Goals[0].Goal)
	assert.Equal(t, "weigh", rep.Goals[1].Goal)
	assert.NoError(t, rep.Goals[0].Err)
	assert.True(t, perr.IsCode(rep.Goals[1].Err, perr.ErrorCodeSource))
	assert.Equal(t, 1, rep.Errors)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 2, rep.Days)

	require.Error(t, rep.Err())
	assert.Contains(t, rep.Err().Error(), "sync completed with 1 errors")

	_, ok := f.rec.cands("walk")
	assert.True(t, ok)
	_, ok = f.rec.cands("weigh")
	assert.False(t, ok)
}

func TestSyncAll_ConnectionsFileWins(t *testing.T) {
	d := Deps{Connections: []domain.Connection{
		{Goal: "walk", Metric: "weight", Config: goal.Autodata{Unit: "lb"}},
	}}
	f := newFixture(t, d, Config{})
	f.goals.cached = map[string]goal.State{"walk": {Slug: "walk", Metric: "steps"}}

	rep, err := f.svc.SyncAll(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, rep.Goals, 1)
	assert.Equal(t, "weight", rep.Goals[0].Metric)
	require.Len(t, f.src.queries, 1)
	assert.Equal(t, aggregate.KindBodyMass, f.src.queries[0].kind)
}

func TestSyncAll_ListError(t *testing.T) {
	f := newFixture(t, Deps{}, Config{})
	f.goals.listErr = perr.New(perr.ErrorCodeDB, "closed")
	_, err := f.svc.SyncAll(context.Background(), 2)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeDB))
}

func TestWatch_DropsChangesWithinMinInterval(t *testing.T) {
	f := newFixture(t, Deps{Watcher: fakeWatcher{n: 3}}, Config{WatchMinInterval: time.Hour})
	require.NoError(t, f.svc.Watch(context.Background()))
	// one run queries walk and weigh once each
	assert.Equal(t, 2, f.src.calls())
}

func TestWatch_UsesConfiguredDays(t *testing.T) {
	f := newFixture(t, Deps{Watcher: fakeWatcher{n: 1}}, Config{Days: 3})
	require.NoError(t, f.svc.Watch(context.Background()))
	require.Len(t, f.src.queries, 2)
	for _, q := range f.src.queries {
		assert.Equal(t, time.Date(2023, 7, 8, 0, 0, 0, 0, time.UTC), q.start, q.kind)
	}
}

func TestWatch_NeedsWatcher(t *testing.T) {
	f := newFixture(t, Deps{}, Config{})
	err := f.svc.Watch(context.Background())
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
}

func TestRun_SyncsOnScheduleUntilCanceled(t *testing.T) {
	f := newFixture(t, Deps{Watcher: blockingWatcher{}}, Config{Interval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.svc.Run(ctx) }()

	require.Eventually(t, func() bool { return f.src.calls() >= 4 }, 2*time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_NoInterval(t *testing.T) {
	f := newFixture(t, Deps{}, Config{})
	require.NoError(t, f.svc.Run(context.Background()))
	assert.Equal(t, 2, f.src.calls())
}

// Package domain holds the autodata service contracts
package domain

import (
	"context"
	"time"

	"beesync/internal/core/aggregate"
	"beesync/internal/core/datapoint"
	"beesync/internal/core/goal"
	dpdomain "beesync/internal/services/datapoints/domain"
)

// SampleSource returns samples of one kind overlapping [start, end)
type SampleSource interface {
	QuerySamples(ctx context.Context, kind string, start, end time.Time) ([]aggregate.Sample, error)
}

// Reconciler writes candidate points to the ledger
type Reconciler interface {
	Reconcile(ctx context.Context, g goal.State, cands []datapoint.Candidate) (dpdomain.Result, error)
}

// Goals is the goal cache the sync reads connections from
type Goals interface {
	List(ctx context.Context) ([]goal.State, error)
	Get(ctx context.Context, slug string) (goal.State, error)
	RefreshGoal(ctx context.Context, slug string) (goal.State, error)
}

// Watcher reports changes to the sample export
type Watcher interface {
	Watch(ctx context.Context, changed func()) error
}

// SyncPort runs metric to goal syncs
type SyncPort interface {
	SyncGoal(ctx context.Context, slug string, days int) (GoalReport, error)
	SyncAll(ctx context.Context, days int) (Report, error)
}

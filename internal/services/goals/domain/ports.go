// Package domain holds the goals service contracts
package domain

import (
	"context"

	"beesync/internal/core/goal"
)

// Ledger is the part of the ledger client the goal cache reads
type Ledger interface {
	FetchGoals(ctx context.Context) ([]goal.State, error)
	FetchGoal(ctx context.Context, slug string) (goal.State, error)
}

// GoalsPort is the goal cache surface other services use
type GoalsPort interface {
	RefreshAll(ctx context.Context) ([]goal.State, error)
	RefreshGoal(ctx context.Context, slug string) (goal.State, error)
	List(ctx context.Context) ([]goal.State, error)
	Get(ctx context.Context, slug string) (goal.State, error)
}

// PollerPort drives the queued goal poller
type PollerPort interface {
	// Kick starts a background polling loop unless one is running; it reports whether it started one
	Kick(ctx context.Context) bool

	// Poll runs a polling loop in the caller's goroutine
	Poll(ctx context.Context) error

	Status() PollerStatus
}

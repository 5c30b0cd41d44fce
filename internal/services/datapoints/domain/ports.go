package domain

import (
	"context"

	"beesync/internal/core/datapoint"
	"beesync/internal/core/goal"
)

// Ledger is the part of the ledger client reconciliation writes through
type Ledger interface {
	FetchEntries(ctx context.Context, slug, sort string, per, page int) ([]datapoint.Entry, error)
	CreateEntry(ctx context.Context, slug string, c datapoint.Candidate) error
	UpdateEntry(ctx context.Context, slug, id string, value float64, comment string) error
	DeleteEntry(ctx context.Context, slug, id string) error
}

// ReconcilerPort brings a goal's ledger entries in line with candidate points
type ReconcilerPort interface {
	Reconcile(ctx context.Context, g goal.State, cands []datapoint.Candidate) (Result, error)
}

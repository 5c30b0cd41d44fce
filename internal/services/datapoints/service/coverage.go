package service

import (
	"context"

	"beesync/internal/core/datapoint"
	"beesync/internal/core/daystamp"
	"beesync/internal/services/datapoints/domain"
)

const (
	// sortByDay asks the ledger for entries newest day first
	sortByDay = "daystamp"

	// coverageSlack covers the inclusive bound, a day of lookback and extra points per day
	coverageSlack = 5

	// maxCoveragePages stops a ledger that never returns an empty page
	maxCoveragePages = 32
)

// Coverage is the outcome of a coverage fetch
type Coverage struct {
	Entries  []datapoint.Entry
	Requests int
}

// FetchCoverage loads every entry of slug dated on or after d0
//
// The ledger only pages newest first, so the first page is sized from the
// distance to today. While the oldest entry seen is still inside the window it
// fetches page 2 at the current size and doubles the size: page 2 at size n
// holds entries n+1..2n, so successive pages stay contiguous while the request
// count grows with the log of the backlog. Any fetch error aborts.
func FetchCoverage(ctx context.Context, l domain.Ledger, slug string, d0, today daystamp.Daystamp) (Coverage, error) {
	pageSize := today.Sub(d0) + coverageSlack
	if pageSize < coverageSlack {
		pageSize = coverageSlack
	}

	var cov Coverage
	first, err := l.FetchEntries(ctx, slug, sortByDay, pageSize, 1)
	cov.Requests++
	if err != nil {
		return cov, err
	}
	if len(first) == 0 {
		return cov, nil
	}

	all := first
	for cov.Requests < maxCoveragePages {
		if err := ctx.Err(); err != nil {
			return cov, err
		}
		oldest, _ := datapoint.MinDaystamp(all)
		if oldest.Before(d0) {
			break
		}
		page, err := l.FetchEntries(ctx, slug, sortByDay, pageSize, 2)
		cov.Requests++
		if err != nil {
			return cov, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		pageSize *= 2
	}

	cov.Entries = datapoint.Since(all, d0)
	return cov, nil
}

// Package domain holds the datapoints service contracts
package domain

import (
	"fmt"
	"strings"

	"beesync/internal/core/datapoint"
	perr "beesync/internal/platform/errors"
)

// Result summarizes one reconciliation pass
type Result struct {
	Goal      string `json:"goal"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Deleted   int    `json:"deleted"`
	Skipped   int    `json:"skipped"`
	Unchanged int    `json:"unchanged"`

	// Fetched is the number of real entries on or after the first candidate day
	Fetched  int       `json:"fetched"`
	Failures []Failure `json:"failures,omitempty"`
}

// Failure is one ledger write that did not go through
type Failure struct {
	Candidate datapoint.Candidate `json:"candidate"`
	Op        datapoint.OpKind    `json:"-"`
	EntryID   string              `json:"entry_id,omitempty"`
	Err       error               `json:"-"`
}

// String describes the failed write
func (f Failure) String() string {
	return fmt.Sprintf("%s %s on %s: %v", f.Op, f.EntryID, f.Candidate.Daystamp, f.Err)
}

// Err folds the failures into one error, nil when every write succeeded
func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		msgs = append(msgs, f.String())
	}
	return perr.Wrapf(r.Failures[0].Err, perr.CodeOf(r.Failures[0].Err),
		"%s: %d ledger writes failed: %s", r.Goal, len(r.Failures), strings.Join(msgs, "; "))
}

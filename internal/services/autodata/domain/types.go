package domain

import (
	"time"

	"beesync/internal/core/daystamp"
	perr "beesync/internal/platform/errors"
	dpdomain "beesync/internal/services/datapoints/domain"
)

// DefaultDays is the look back used when a sync names no window
const DefaultDays = 7

// GoalReport is the outcome of syncing one goal
type GoalReport struct {
	Goal   string            `json:"goal"`
	Metric string            `json:"metric,omitempty"`
	From   daystamp.Daystamp `json:"from"`
	To     daystamp.Daystamp `json:"to"`

	Samples   int `json:"samples"`
	Points    int `json:"points"`
	Zeros     int `json:"zeros"`
	Malformed int `json:"malformed"`

	Result dpdomain.Result `json:"result"`

	// Err is set when the goal was abandoned before or during reconciliation
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
}

// Fail records the error that abandoned this goal
func (g *GoalReport) Fail(err error) {
	if err != nil {
		g.Err = err
		g.Error = err.Error()
	}
}

// Errors counts the abandoned goal plus every failed ledger write
func (g GoalReport) Errors() int {
	n := len(g.Result.Failures)
	if g.Err != nil {
		n++
	}
	return n
}

// Report aggregates one sync run over several goals
type Report struct {
	RunID   string       `json:"run_id"`
	Days    int          `json:"days"`
	Started time.Time    `json:"started"`
	Goals   []GoalReport `json:"goals"`
	Errors  int          `json:"errors"`
}

// Add appends a goal outcome and tallies its errors
func (r *Report) Add(g GoalReport) {
	r.Goals = append(r.Goals, g)
	r.Errors += g.Errors()
}

// Err is nil for a clean run and otherwise carries the first goal's error code
func (r Report) Err() error {
	if r.Errors == 0 {
		return nil
	}
	for _, g := range r.Goals {
		if g.Err != nil {
			return perr.Wrapf(g.Err, perr.CodeOf(g.Err), "sync completed with %d errors", r.Errors)
		}
		if err := g.Result.Err(); err != nil {
			return perr.Wrapf(err, perr.CodeOf(err), "sync completed with %d errors", r.Errors)
		}
	}
	return perr.Newf(perr.ErrorCodeUnknown, "sync completed with %d errors", r.Errors)
}

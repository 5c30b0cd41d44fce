package datapoint

import (
	"slices"

	"beesync/internal/core/daystamp"
)

// OpKind names a ledger mutation
type OpKind uint8

const (
	OpCreate OpKind = iota + 1
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Op is one ledger mutation
// EntryID is set for updates and deletes, Urtext and RequestID for creates
type Op struct {
	Kind      OpKind
	Daystamp  daystamp.Daystamp
	EntryID   string
	Value     float64
	Comment   string
	Urtext    string
	RequestID string
}

// Step is the ordered work for one candidate
// Deletes always precede the final create or update so duplicates cannot outlive the survivor
type Step struct {
	Candidate Candidate
	Ops       []Op
}

// Plan is the full diff for one reconciliation pass
type Plan struct {
	Steps []Step

	// Skipped lists candidates dropped for predating the goal
	Skipped []Candidate

	// Unchanged lists candidates whose survivor already holds the value
	Unchanged []Candidate
}

// Ops returns the number of mutations in the plan
func (p Plan) Ops() int {
	n := 0
	for _, s := range p.Steps {
		n += len(s.Ops)
	}
	return n
}

// Count returns the number of mutations of kind k
func (p Plan) Count(k OpKind) int {
	n := 0
	for _, s := range p.Steps {
		for _, op := range s.Ops {
			if op.Kind == k {
				n++
			}
		}
	}
	return n
}

// Diff computes the mutations that leave exactly one entry per candidate day
// holding the candidate's value. Entries must already exclude meta points.
// initDay is the goal's creation day; days before it are never backfilled.
// Several candidates on one day only occur in individual mode: on an empty day
// each becomes its own create, otherwise later ones see only the survivor.
func Diff(cands []Candidate, entries []Entry, initDay daystamp.Daystamp) Plan {
	byDay := make(map[daystamp.Daystamp][]Entry, len(entries))
	for _, e := range entries {
		byDay[e.Daystamp] = append(byDay[e.Daystamp], e)
	}

	var plan Plan
	for _, c := range cands {
		matches := byDay[c.Daystamp]
		if len(matches) == 0 {
			if !initDay.IsZero() && c.Daystamp.Before(initDay) {
				plan.Skipped = append(plan.Skipped, c)
				continue
			}
			plan.Steps = append(plan.Steps, Step{Candidate: c, Ops: []Op{{
				Kind:      OpCreate,
				Daystamp:  c.Daystamp,
				Value:     c.Value,
				Comment:   c.Comment,
				Urtext:    c.Urtext(),
				RequestID: c.RequestID,
			}}})
			continue
		}

		survivor := matches[0]
		var ops []Op
		for _, dup := range matches[1:] {
			ops = append(ops, Op{Kind: OpDelete, Daystamp: c.Daystamp, EntryID: dup.ID})
		}
		if !ApproxEqual(survivor.Value, c.Value) {
			ops = append(ops, Op{
				Kind:     OpUpdate,
				Daystamp: c.Daystamp,
				EntryID:  survivor.ID,
				Value:    c.Value,
				Comment:  UpdateComment,
			})
			survivor.Value = c.Value
		}
		byDay[c.Daystamp] = []Entry{survivor}

		if len(ops) == 0 {
			plan.Unchanged = append(plan.Unchanged, c)
			continue
		}
		plan.Steps = append(plan.Steps, Step{Candidate: c, Ops: ops})
	}
	return plan
}

// Days returns the distinct daystamps touched by the plan, ascending
func (p Plan) Days() []daystamp.Daystamp {
	seen := make(map[daystamp.Daystamp]struct{}, len(p.Steps))
	var out []daystamp.Daystamp
	for _, s := range p.Steps {
		if _, ok := seen[s.Candidate.Daystamp]; ok {
			continue
		}
		seen[s.Candidate.Daystamp] = struct{}{}
		out = append(out, s.Candidate.Daystamp)
	}
	slices.SortFunc(out, func(a, b daystamp.Daystamp) int { return a.Compare(b) })
	return out
}

// ByDay groups steps by daystamp, preserving their order within a day
func (p Plan) ByDay() map[daystamp.Daystamp][]Step {
	out := make(map[daystamp.Daystamp][]Step, len(p.Steps))
	for _, s := range p.Steps {
		out[s.Candidate.Daystamp] = append(out[s.Candidate.Daystamp], s)
	}
	return out
}

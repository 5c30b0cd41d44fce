// Package datapoint holds the candidate and remote entry types and the pure
// reconciliation diff between them
package datapoint

import (
	"fmt"
	"math"
	"strconv"

	"beesync/internal/core/daystamp"
)

// Epsilon is the relative tolerance under which two values are treated as equal
const Epsilon = 1e-8

// UpdateComment replaces the comment of an entry whose value is rewritten
const UpdateComment = "Auto-updated via Apple Health"

// Candidate is a locally computed value waiting to be written to the ledger
type Candidate struct {
	Daystamp  daystamp.Daystamp `json:"daystamp"`
	Value     float64           `json:"value"`
	Comment   string            `json:"comment"`
	RequestID string            `json:"requestid"`
}

// Urtext renders the ledger's free text form for creating c
func (c Candidate) Urtext() string {
	return fmt.Sprintf("%04d %02d %02d %s %q", c.Daystamp.Year, c.Daystamp.Month, c.Daystamp.Day, FormatValue(c.Value), c.Comment)
}

// Entry is a datapoint already recorded by the ledger
type Entry struct {
	ID       string            `json:"id"`
	Daystamp daystamp.Daystamp `json:"daystamp"`
	Value    float64           `json:"value"`
	Comment  string            `json:"comment"`

	// Meta entries are created by the ledger itself (initial or dummy points)
	// and never take part in reconciliation
	Meta bool `json:"meta,omitempty"`
}

// FormatValue prints v with the shortest exact representation
func FormatValue(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// ApproxEqual compares two values with a relative tolerance
// Zero only equals zero; a relative difference against zero has no meaning
func ApproxEqual(a, b float64) bool {
	if a == 0 && b == 0 {
		return true
	}
	if a == 0 || b == 0 {
		return false
	}
	allowed := math.Abs(a/2+b/2) * Epsilon
	return math.Abs(a-b) < allowed
}

// Real drops meta entries
func Real(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Meta {
			out = append(out, e)
		}
	}
	return out
}

// Since keeps entries on or after d, preserving order
func Since(entries []Entry, d daystamp.Daystamp) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Daystamp.Before(d) {
			out = append(out, e)
		}
	}
	return out
}

// MinDaystamp returns the earliest daystamp among entries
func MinDaystamp(entries []Entry) (daystamp.Daystamp, bool) {
	if len(entries) == 0 {
		return daystamp.Daystamp{}, false
	}
	m := entries[0].Daystamp
	for _, e := range entries[1:] {
		if e.Daystamp.Before(m) {
			m = e.Daystamp
		}
	}
	return m, true
}

// FirstDaystamp returns the earliest daystamp among candidates
func FirstDaystamp(cands []Candidate) (daystamp.Daystamp, bool) {
	ds := make([]daystamp.Daystamp, len(cands))
	for i, c := range cands {
		ds[i] = c.Daystamp
	}
	return daystamp.Min(ds...)
}

// Package goal holds the goal state beesync reads from the ledger
package goal

import (
	"time"
	_ "time/tzdata" // the ledger's init day is anchored in US Eastern time

	"beesync/internal/core/aggregate"
	"beesync/internal/core/daystamp"
)

// State is the minimal view of a goal needed to sync and poll it
type State struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title,omitempty"`

	// Deadline is seconds from midnight where the goal's day ends
	Deadline int `json:"deadline"`

	// InitDay is the day the goal was created; points before it are never created
	InitDay daystamp.Daystamp `json:"initday"`

	// Queued is set while the ledger recomputes the goal asynchronously
	Queued bool `json:"queued"`

	// Metric names the aggregate.Metric feeding this goal, empty when not connected
	Metric   string   `json:"metric,omitempty"`
	Autodata string   `json:"autodata,omitempty"`
	Config   Autodata `json:"autodata_config"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Connected reports whether the goal is fed by a known metric
func (s State) Connected() bool {
	_, ok := aggregate.Lookup(s.Metric)
	return ok
}

// Today is the goal's current day in loc
func (s State) Today(now time.Time, loc *time.Location) daystamp.Daystamp {
	if loc != nil {
		now = now.In(loc)
	}
	return daystamp.FromTime(now, s.Deadline)
}

// Autodata is the per goal metric configuration stored by the ledger
type Autodata struct {
	// DailyAggregate defaults to true; false asks for one point per sample
	DailyAggregate *bool    `json:"daily_aggregate,omitempty" yaml:"daily_aggregate,omitempty"`
	WorkoutTypes   []string `json:"workout_types,omitempty" yaml:"workout_types,omitempty"`
	Unit           string   `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Options converts the config into aggregation options
func (a Autodata) Options() aggregate.Options {
	return aggregate.Options{
		Individual:   a.DailyAggregate != nil && !*a.DailyAggregate,
		WorkoutTypes: a.WorkoutTypes,
		Unit:         a.Unit,
	}
}

var eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// InitDaystamp converts the ledger's initday timestamp into a daystamp
// The ledger constructs it so that its US Eastern calendar date is the goal's first day
func InitDaystamp(unix int64) daystamp.Daystamp {
	if unix <= 0 {
		return daystamp.Daystamp{}
	}
	y, m, d := time.Unix(unix, 0).In(eastern).Date()
	return daystamp.Of(y, int(m), d)
}

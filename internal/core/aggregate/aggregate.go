// Package aggregate reduces raw health samples to one value per logical day
//
// Every metric is one of a closed set of reductions (Sum, Min, Count,
// Duration, Coverage) and Aggregate is the single place they are dispatched.
// Aggregation is total: samples whose day cannot be resolved are skipped and
// counted, never fatal.
package aggregate

import (
	"math"
	"slices"
	"time"

	"beesync/internal/core/datapoint"
	"beesync/internal/core/daystamp"
)

// Window is the inclusive range of days to produce and the goal's day boundary
type Window struct {
	From     daystamp.Daystamp
	To       daystamp.Daystamp
	Deadline int
	Location *time.Location
}

// LastDays returns the window of the n days before today plus today
func LastDays(n, deadline int, loc *time.Location, now time.Time) Window {
	if loc == nil {
		loc = time.Local
	}
	today := daystamp.FromTime(now.In(loc), deadline)
	return Window{From: today.Add(-n), To: today, Deadline: deadline, Location: loc}
}

func (w Window) loc() *time.Location {
	if w.Location == nil {
		return time.Local
	}
	return w.Location
}

// Start is the first instant of the window
func (w Window) Start() time.Time { return w.From.Start(w.Deadline, w.loc()) }

// End is the instant after the window
func (w Window) End() time.Time { return w.To.End(w.Deadline, w.loc()) }

// Options are per goal aggregation settings
type Options struct {
	// Individual emits one point per sample for metrics that support it
	Individual bool

	// WorkoutTypes restricts workouts to these activity identifiers; empty accepts all
	WorkoutTypes []string

	// Unit overrides the reported unit; samples in another unit are ignored
	Unit string
}

// Result is the outcome of one aggregation
type Result struct {
	Points []datapoint.Candidate

	// Malformed counts samples skipped because their day could not be resolved
	Malformed int
}

// Aggregate reduces samples to candidate points for every day in w
func Aggregate(m Metric, samples []Sample, w Window, opts Options) Result {
	var res Result
	clean := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if !s.wellFormed() {
			res.Malformed++
			continue
		}
		if m.SampleKind != "" && s.Kind != "" && s.Kind != m.SampleKind {
			continue
		}
		clean = append(clean, s)
	}
	slices.SortStableFunc(clean, func(a, b Sample) int { return a.Start.Compare(b.Start) })

	a := aggregator{m: m, w: w, opts: opts, loc: w.loc()}
	switch r := m.Reduce.(type) {
	case Sum:
		res.Points = a.sum(clean, r)
	case Min:
		if opts.Individual && m.Individual {
			res.Points = a.individualQuantities(clean)
		} else {
			res.Points = a.min(clean)
		}
	case Count:
		res.Points = a.count(clean, r)
	case Duration:
		if opts.Individual && m.Individual {
			res.Points = a.individualWorkouts(clean)
		} else {
			res.Points = a.duration(clean)
		}
	case Coverage:
		res.Points = a.coverage(clean, r)
	}
	return res
}

type aggregator struct {
	m    Metric
	w    Window
	opts Options
	loc  *time.Location
}

func (a aggregator) bounds(d daystamp.Daystamp) (time.Time, time.Time) {
	return d.Start(a.w.Deadline, a.loc), d.End(a.w.Deadline, a.loc)
}

func (a aggregator) dayOf(t time.Time) daystamp.Daystamp {
	return daystamp.FromTime(t.In(a.loc), a.w.Deadline)
}

func (a aggregator) inWindow(d daystamp.Daystamp) bool {
	return !d.Before(a.w.From) && !d.After(a.w.To)
}

func (a aggregator) unit() string {
	if a.opts.Unit != "" {
		return a.opts.Unit
	}
	return a.m.Unit
}

// unitOK drops quantity samples reported in a unit other than the one asked for
func (a aggregator) unitOK(s Sample) bool {
	return a.opts.Unit == "" || s.Unit == "" || s.Unit == a.opts.Unit
}

func (a aggregator) daily(d daystamp.Daystamp, v float64) datapoint.Candidate {
	return datapoint.Candidate{
		Daystamp:  d,
		Value:     a.m.Precision.Round(v, a.unit()),
		Comment:   a.m.Comment(),
		RequestID: a.m.RequestPrefix + d.String(),
	}
}

func (a aggregator) sum(samples []Sample, r Sum) []datapoint.Candidate {
	totals := map[daystamp.Daystamp]float64{}
	for _, s := range samples {
		if !a.unitOK(s) {
			continue
		}
		if !r.Clip || !s.End.After(s.Start) {
			if d := a.dayOf(s.Start); a.inWindow(d) {
				totals[d] += s.Value
			}
			continue
		}
		whole := s.End.Sub(s.Start).Seconds()
		for d := range daystamp.Range(a.dayOf(s.Start), a.dayOf(s.End)) {
			if !a.inWindow(d) {
				continue
			}
			from, to := a.bounds(d)
			overlap := earlier(s.End, to).Sub(later(s.Start, from)).Seconds()
			if overlap > 0 {
				totals[d] += s.Value * overlap / whole
			}
		}
	}
	return a.emit(totals)
}

func (a aggregator) min(samples []Sample) []datapoint.Candidate {
	mins := map[daystamp.Daystamp]float64{}
	for _, s := range samples {
		if !a.unitOK(s) {
			continue
		}
		d := a.dayOf(s.Start)
		if !a.inWindow(d) {
			continue
		}
		if cur, ok := mins[d]; !ok || s.Value < cur {
			mins[d] = s.Value
		}
	}
	return a.emit(mins)
}

// emit turns per day values into points, ascending by day; days without samples produce nothing
func (a aggregator) emit(values map[daystamp.Daystamp]float64) []datapoint.Candidate {
	var out []datapoint.Candidate
	for d := range daystamp.Range(a.w.From, a.w.To) {
		if v, ok := values[d]; ok {
			out = append(out, a.daily(d, v))
		}
	}
	return out
}

func (a aggregator) count(samples []Sample, r Count) []datapoint.Candidate {
	var out []datapoint.Candidate
	for d := range daystamp.Range(a.w.From, a.w.To) {
		from, to := a.bounds(d)
		n := 0
		for _, s := range samples {
			if s.startsIn(from, to) && contains(r.Values, s.Category) {
				n++
			}
		}
		out = append(out, a.daily(d, float64(n)))
	}
	return out
}

func (a aggregator) workoutAllowed(s Sample) bool {
	return contains(a.opts.WorkoutTypes, s.Activity)
}

func (a aggregator) duration(samples []Sample) []datapoint.Candidate {
	var out []datapoint.Candidate
	for d := range daystamp.Range(a.w.From, a.w.To) {
		from, to := a.bounds(d)
		var minutes float64
		for _, s := range samples {
			if s.startsIn(from, to) && a.workoutAllowed(s) {
				minutes += s.Duration().Minutes()
			}
		}
		out = append(out, a.daily(d, minutes))
	}
	return out
}

func (a aggregator) coverage(samples []Sample, r Coverage) []datapoint.Candidate {
	divisor := r.Divisor
	if divisor == 0 {
		divisor = 1
	}
	var out []datapoint.Candidate
	for d := range daystamp.Range(a.w.From, a.w.To) {
		from, to := a.bounds(d)
		var day []Sample
		for _, s := range samples {
			if s.overlaps(from, to) {
				day = append(day, s)
			}
		}

		var v float64
		switch r.Policy {
		case CoverageSleep:
			v = float64(SleepMinutes(day)) / divisor
		case CoverageRoundedSpans:
			v = roundedSpanSeconds(day, func(s Sample) bool { return contains(r.Values, s.Category) }) / divisor
		case CoverageClippedSpans:
			v = math.Round(clippedSpanSeconds(day, from) / 60)
		}
		out = append(out, a.daily(d, v))
	}
	return out
}

package aggregate

import (
	"fmt"

	"beesync/internal/core/datapoint"
)

const clockLayout = "3:04 PM"

// individualQuantities emits one point per sample, dated by the day it starts in
func (a aggregator) individualQuantities(samples []Sample) []datapoint.Candidate {
	var out []datapoint.Candidate
	for _, s := range samples {
		if !a.unitOK(s) {
			continue
		}
		d := a.dayOf(s.Start)
		if !a.inWindow(d) {
			continue
		}
		unit := s.Unit
		if unit == "" {
			unit = a.unit()
		}
		source := s.Source
		if source == "" {
			source = "Apple Health"
		}
		out = append(out, datapoint.Candidate{
			Daystamp:  d,
			Value:     a.m.Precision.Round(s.Value, unit),
			Comment:   fmt.Sprintf("%s via %s at %s", a.m.Text, source, s.Start.In(a.loc).Format(clockLayout)),
			RequestID: fmt.Sprintf("%s%s-%s", requestPrefix, a.m.Name, s.UUID),
		})
	}
	return out
}

// individualWorkouts emits one point per workout, dated by the day it starts in
func (a aggregator) individualWorkouts(samples []Sample) []datapoint.Candidate {
	var out []datapoint.Candidate
	for _, s := range samples {
		if !a.workoutAllowed(s) {
			continue
		}
		d := a.dayOf(s.Start)
		if !a.inWindow(d) {
			continue
		}
		out = append(out, datapoint.Candidate{
			Daystamp:  d,
			Value:     a.m.Precision.Round(s.Duration().Minutes(), a.unit()),
			Comment:   fmt.Sprintf("%s at %s", ActivityName(s.Activity), s.Start.In(a.loc).Format(clockLayout)),
			RequestID: requestPrefix + "workout-" + s.UUID,
		})
	}
	return out
}

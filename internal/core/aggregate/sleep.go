package aggregate

import (
	"slices"
	"time"
)

type sleepResolution uint8

const (
	resolvedAwake sleepResolution = iota
	resolvedAsleep
	resolvedAmbiguous
)

// minuteOf returns the unix second at which t's minute starts
func minuteOf(t time.Time) int64 {
	u := t.Unix()
	return u - u%60
}

func isExactMinute(t time.Time) bool {
	return t.Nanosecond() == 0 && t.Unix()%60 == 0
}

// resolveMinute weighs asleep against awake seconds inside [minute, minute+60)
func resolveMinute(minute int64, active []*Sample) sleepResolution {
	end := minute + 60
	var asleep, awake int64
	for _, s := range active {
		from := max(s.Start.Unix(), minute)
		to := min(s.End.Unix(), end)
		if isAsleep(s.Category) {
			asleep += to - from
		} else {
			awake += to - from
		}
	}
	switch {
	case asleep > awake:
		return resolvedAsleep
	case asleep == awake:
		return resolvedAmbiguous
	}
	return resolvedAwake
}

// firstMinuteAsleep resolves the minute the earliest active sample starts in,
// using only the samples that start in that same minute
func firstMinuteAsleep(active []*Sample) bool {
	first := minuteOf(active[0].Start)
	for _, s := range active[1:] {
		first = min(first, minuteOf(s.Start))
	}
	var seed []*Sample
	for _, s := range active {
		if minuteOf(s.Start) == first {
			seed = append(seed, s)
		}
	}
	return resolveMinute(first, seed) != resolvedAwake
}

// SleepMinutes counts the minutes during which the user was asleep
//
// Time is cut into whole minutes. Each minute covered by a sample is asleep or
// awake by comparing the seconds contributed by asleep and awake samples; a tie
// is settled by how the first minute of the overlapping group resolves. Runs of
// minutes with no sample starting or ending inside them take the majority vote
// of the samples spanning them. Overlapping sources are counted once.
func SleepMinutes(samples []Sample) int {
	starts := map[int64][]*Sample{}
	ends := map[int64][]*Sample{}
	var minutes []int64

	for i := range samples {
		s := &samples[i]
		if !isSleepRelevant(s.Category) || s.OpenEnded || !s.wellFormed() || !s.End.After(s.Start) {
			continue
		}
		startMinute := minuteOf(s.Start)
		endMinute := minuteOf(s.End)
		// half open: ending on a minute boundary leaves that minute untouched
		if isExactMinute(s.End) {
			endMinute -= 60
		}
		starts[startMinute] = append(starts[startMinute], s)
		ends[endMinute] = append(ends[endMinute], s)
		minutes = append(minutes, startMinute, endMinute)
	}
	slices.Sort(minutes)
	minutes = slices.Compact(minutes)

	total := 0
	var active []*Sample
	var last int64
	for _, m := range minutes {
		if len(active) > 0 {
			asleep := 0
			for _, s := range active {
				if isAsleep(s.Category) {
					asleep++
				}
			}
			awake := len(active) - asleep
			if asleep > awake || (asleep == awake && firstMinuteAsleep(active)) {
				total += int((m-last)/60) - 1
			}
		}

		active = append(active, starts[m]...)

		r := resolveMinute(m, active)
		if r == resolvedAsleep || (r == resolvedAmbiguous && firstMinuteAsleep(active)) {
			total++
		}

		for _, s := range ends[m] {
			active = slices.DeleteFunc(active, func(a *Sample) bool { return a == s })
		}
		last = m
	}
	return total
}

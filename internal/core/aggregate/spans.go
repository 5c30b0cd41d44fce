package aggregate

import (
	"math"
	"slices"
	"time"
)

func roundToMinute(t time.Time) float64 {
	u := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return math.RoundToEven(u/60) * 60
}

// roundedSpanSeconds merges samples after rounding both ends to the nearest
// minute. A span that starts after everything seen so far adds one extra minute
// for its starting minute; a span extending the current run adds only the new
// part. Samples rejected by include still extend the run.
func roundedSpanSeconds(samples []Sample, include func(Sample) bool) float64 {
	sorted := slices.Clone(samples)
	slices.SortStableFunc(sorted, func(a, b Sample) int { return a.Start.Compare(b.Start) })

	var total float64
	var reached float64
	started := false
	for _, s := range sorted {
		start, end := roundToMinute(s.Start), roundToMinute(s.End)
		switch {
		case !started || reached < start:
			if include(s) {
				total += end - start + 60
			}
			reached = end
			started = true
		case reached < end:
			if include(s) {
				total += end - reached
			}
			reached = end
		}
	}
	return total
}

// clippedSpanSeconds clips samples to [from, from+24h), merges overlaps and
// returns the covered seconds. Open ended samples are ignored.
func clippedSpanSeconds(samples []Sample, from time.Time) float64 {
	to := from.Add(24 * time.Hour)
	sorted := slices.Clone(samples)
	slices.SortStableFunc(sorted, func(a, b Sample) int { return a.Start.Compare(b.Start) })

	var total time.Duration
	var spanStart, spanEnd time.Time
	open := false
	for _, s := range sorted {
		if s.OpenEnded {
			continue
		}
		start := later(s.Start, from)
		end := earlier(s.End, to)
		if !open {
			spanStart, spanEnd, open = start, end, true
			continue
		}
		if !start.After(spanEnd) {
			spanEnd = later(spanEnd, end)
			continue
		}
		total += spanEnd.Sub(spanStart)
		spanStart, spanEnd = start, end
	}
	if open {
		total += spanEnd.Sub(spanStart)
	}
	return total.Seconds()
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

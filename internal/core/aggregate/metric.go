package aggregate

import "math"

// Category groups metrics for display
type Category string

const (
	CategoryActivity         Category = "Activity"
	CategoryBodyMeasurements Category = "Body Measurements"
	CategoryMindfulness      Category = "Mindfulness"
	CategoryNutrition        Category = "Nutrition"
	CategorySelfCare         Category = "Self Care"
	CategorySleep            Category = "Sleep"
	CategoryOther            Category = "Other"
)

// Reduction is the closed set of ways a metric turns samples into day values
// Implementations: Sum, Min, Count, Duration, Coverage
type Reduction interface {
	reduction()
}

// Sum adds quantity samples; with Clip a sample spanning several days is
// shared between them in proportion to the overlap, otherwise it counts
// entirely toward the day it starts in
type Sum struct {
	Clip bool
}

// Min takes the smallest quantity sample starting in the day
type Min struct{}

// Count counts category samples starting in the day
// An empty Values accepts every category value
type Count struct {
	Values []string
}

// Duration adds the minutes of workouts starting in the day
type Duration struct{}

// Coverage measures how much of the day is covered by intervals
type Coverage struct {
	Policy CoveragePolicy

	// Values restricts which category values are counted; empty accepts all
	Values []string

	// Divisor converts the covered amount to the reported unit; the amount is
	// minutes under CoverageSleep and seconds under CoverageRoundedSpans
	Divisor float64
}

func (Sum) reduction()      {}
func (Min) reduction()      {}
func (Count) reduction()    {}
func (Duration) reduction() {}
func (Coverage) reduction() {}

// CoveragePolicy picks the interval merge used by a Coverage metric
type CoveragePolicy uint8

const (
	// CoverageSleep runs the minute by minute asleep/awake vote
	CoverageSleep CoveragePolicy = iota + 1

	// CoverageRoundedSpans merges spans rounded to whole minutes
	CoverageRoundedSpans

	// CoverageClippedSpans clips spans to the day, merges them and rounds to whole minutes
	CoverageClippedSpans
)

// Precision maps a unit to the number of decimals kept
type Precision map[string]int

// Round applies the precision for unit; units without an entry are left as is
func (p Precision) Round(v float64, unit string) float64 {
	places, ok := p[unit]
	if !ok {
		return v
	}
	f := math.Pow(10, float64(places))
	return math.Round(v*f) / f
}

const (
	requestPrefix       = "apple-health-"
	legacyRequestPrefix = "apple-heath-"
	autoComment         = "Auto-entered via Apple Health"
)

// Metric describes one syncable health metric
type Metric struct {
	// Name is the identifier stored on the goal
	Name     string
	Text     string
	Category Category

	// SampleKind is the sample kind queried from the source
	SampleKind string
	Reduce     Reduction

	// Unit is the unit reported when samples carry none
	Unit      string
	Precision Precision

	// RequestPrefix prefixes the daystamp in daily request ids
	RequestPrefix string

	// CommentSuffix is appended to the default comment when set
	CommentSuffix string

	// Individual reports support for one point per sample
	Individual bool
}

// Comment returns the comment attached to daily points
func (m Metric) Comment() string {
	if m.CommentSuffix == "" {
		return autoComment
	}
	return autoComment + " (" + m.CommentSuffix + ")"
}

func contains(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

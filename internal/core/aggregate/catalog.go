package aggregate

import (
	"slices"
	"strings"
)

const (
	toothbrushingSessions = "toothbrushing|sessions-per-day"
	toothbrushingMinutes  = "toothbrushing|minutes-per-day"
)

func quantity(name, text string, cat Category, kind, unit string, clip bool, prec Precision) Metric {
	return Metric{
		Name:          name,
		Text:          text,
		Category:      cat,
		SampleKind:    kind,
		Reduce:        Sum{Clip: clip},
		Unit:          unit,
		Precision:     prec,
		RequestPrefix: requestPrefix,
	}
}

func nutrition(name, text, kind, unit string) Metric {
	return quantity(name, text, CategoryNutrition, kind, unit, false, nil)
}

var catalog = []Metric{
	quantity("activeEnergy", "Active energy", CategoryActivity, KindActiveEnergy, "kcal", true, Precision{"kcal": 0}),
	quantity("cyclingDistance", "Cycling distance", CategoryActivity, KindCyclingDistance, "mi", true, nil),
	quantity("exerciseTime", "Exercise time", CategoryActivity, KindExerciseTime, "min", true, nil),
	quantity("nikeFuel", "Nike Fuel", CategoryActivity, KindNikeFuel, "count", true, nil),
	quantity("basalEnergy", "Resting energy", CategoryActivity, KindBasalEnergy, "kcal", true, Precision{"kcal": 0}),
	{
		Name:          "standHour",
		Text:          "Stand hours",
		Category:      CategoryActivity,
		SampleKind:    KindStandHour,
		Reduce:        Count{Values: []string{StandStood}},
		Unit:          "count",
		RequestPrefix: legacyRequestPrefix,
	},
	quantity("steps", "Steps", CategoryActivity, KindSteps, "count", true, Precision{"count": 0}),
	quantity("swimDistance", "Swimming distance", CategoryActivity, KindSwimDistance, "yd", true, nil),
	quantity("swimStrokes", "Swimming strokes", CategoryActivity, KindSwimStrokes, "count", true, nil),
	quantity("walkRunDistance", "Walking/running distance", CategoryActivity, KindWalkRunDistance, "mi", true, nil),
	{
		Name:          "workoutMinutes",
		Text:          "Workout minutes",
		Category:      CategoryActivity,
		SampleKind:    KindWorkout,
		Reduce:        Duration{},
		Unit:          "min",
		Precision:     Precision{"min": 1},
		RequestPrefix: requestPrefix,
		Individual:    true,
	},
	{
		Name:          "weight",
		Text:          "Weight",
		Category:      CategoryBodyMeasurements,
		SampleKind:    KindBodyMass,
		Reduce:        Min{},
		Unit:          "lb",
		Precision:     Precision{"lb": 1, "kg": 2},
		RequestPrefix: requestPrefix,
		Individual:    true,
	},
	{
		Name:          "mindfulMinutes",
		Text:          "Mindful minutes",
		Category:      CategoryMindfulness,
		SampleKind:    KindMindfulSession,
		Reduce:        Coverage{Policy: CoverageClippedSpans},
		Unit:          "min",
		RequestPrefix: legacyRequestPrefix,
	},
	nutrition("caffeine", "Dietary Caffeine", KindCaffeine, "mg"),
	nutrition("dietaryCarbs", "Dietary carbs", KindCarbs, "g"),
	nutrition("dietaryEnergy", "Dietary energy", KindDietaryEnergy, "kcal"),
	nutrition("dietaryFat", "Dietary fat", KindFat, "g"),
	nutrition("dietaryProtein", "Dietary protein", KindProtein, "g"),
	nutrition("dietarySaturatedFat", "Dietary saturated fat", KindSaturatedFat, "g"),
	nutrition("dietarySodium", "Dietary sodium", KindSodium, "mg"),
	nutrition("dietarySugar", "Dietary sugar", KindSugar, "g"),
	nutrition("dietaryVitaminA", "Vitamin A", KindVitaminA, "mcg"),
	nutrition("dietaryVitaminB6", "Vitamin B6", KindVitaminB6, "mg"),
	nutrition("dietaryVitaminB12", "Vitamin B12", KindVitaminB12, "mcg"),
	nutrition("dietaryVitaminC", "Vitamin C", KindVitaminC, "mg"),
	nutrition("dietaryVitaminD", "Vitamin D", KindVitaminD, "mcg"),
	nutrition("dietaryVitaminE", "Vitamin E", KindVitaminE, "mg"),
	nutrition("dietaryVitaminK", "Vitamin K", KindVitaminK, "mcg"),
	nutrition("water", "Water", KindWater, "fl_oz"),
	{
		Name:          toothbrushingMinutes,
		Text:          "Teethbrushing (in minutes per day)",
		Category:      CategorySelfCare,
		SampleKind:    KindToothbrushing,
		Reduce:        Coverage{Policy: CoverageRoundedSpans, Divisor: 60},
		Unit:          "min",
		RequestPrefix: legacyRequestPrefix,
		CommentSuffix: toothbrushingMinutes,
	},
	{
		Name:          toothbrushingSessions,
		Text:          "Teethbrushing (in sessions per day)",
		Category:      CategorySelfCare,
		SampleKind:    KindToothbrushing,
		Reduce:        Count{},
		Unit:          "count",
		RequestPrefix: legacyRequestPrefix,
		CommentSuffix: toothbrushingSessions,
	},
	{
		Name:          "timeInBed",
		Text:          "Time in bed",
		Category:      CategorySleep,
		SampleKind:    KindSleepAnalysis,
		Reduce:        Coverage{Policy: CoverageRoundedSpans, Values: []string{SleepInBed}, Divisor: 3600},
		Unit:          "hr",
		RequestPrefix: legacyRequestPrefix,
	},
	{
		Name:          "timeAsleep",
		Text:          "Time asleep",
		Category:      CategorySleep,
		SampleKind:    KindSleepAnalysis,
		Reduce:        Coverage{Policy: CoverageSleep, Divisor: 60},
		Unit:          "hr",
		RequestPrefix: legacyRequestPrefix,
	},
	quantity("timeInDaylight", "Time in Daylight", CategoryOther, KindTimeInDaylight, "min", true, nil),
}

// Lookup finds a metric by its stored name
func Lookup(name string) (Metric, bool) {
	i := slices.IndexFunc(catalog, func(m Metric) bool { return m.Name == name })
	if i < 0 {
		return Metric{}, false
	}
	return catalog[i], true
}

// Metrics returns the catalog ordered by category, then display text
func Metrics() []Metric {
	out := slices.Clone(catalog)
	slices.SortStableFunc(out, func(a, b Metric) int {
		if c := strings.Compare(string(a.Category), string(b.Category)); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Text), strings.ToLower(b.Text))
	})
	return out
}

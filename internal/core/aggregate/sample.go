package aggregate

import "time"

// Sample is one raw record from the sample source
// Quantity samples carry Value and Unit, category samples carry Category,
// workouts carry Activity. Open ended samples have no trustworthy End.
type Sample struct {
	UUID      string    `json:"uuid"`
	Kind      string    `json:"kind"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Value     float64   `json:"value,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Category  string    `json:"category,omitempty"`
	Source    string    `json:"source,omitempty"`
	Activity  string    `json:"activity,omitempty"`
	OpenEnded bool      `json:"open_ended,omitempty"`
}

// Duration returns End-Start
func (s Sample) Duration() time.Duration { return s.End.Sub(s.Start) }

// wellFormed rejects samples whose day cannot be resolved
func (s Sample) wellFormed() bool {
	return !s.Start.IsZero() && !s.End.IsZero() && !s.End.Before(s.Start)
}

// overlaps reports whether s intersects [from, to)
// Zero length samples overlap when they sit inside the range
func (s Sample) overlaps(from, to time.Time) bool {
	if s.Start.Equal(s.End) {
		return !s.Start.Before(from) && s.Start.Before(to)
	}
	return s.Start.Before(to) && s.End.After(from)
}

// startsIn reports whether s starts inside [from, to)
func (s Sample) startsIn(from, to time.Time) bool {
	return !s.Start.Before(from) && s.Start.Before(to)
}

// Sample kinds as exported by the health store
const (
	KindActiveEnergy    = "activeEnergyBurned"
	KindBasalEnergy     = "basalEnergyBurned"
	KindCyclingDistance = "distanceCycling"
	KindExerciseTime    = "appleExerciseTime"
	KindNikeFuel        = "nikeFuel"
	KindSteps           = "stepCount"
	KindSwimDistance    = "distanceSwimming"
	KindSwimStrokes     = "swimmingStrokeCount"
	KindWalkRunDistance = "distanceWalkingRunning"
	KindBodyMass        = "bodyMass"
	KindCaffeine        = "dietaryCaffeine"
	KindCarbs           = "dietaryCarbohydrates"
	KindDietaryEnergy   = "dietaryEnergyConsumed"
	KindFat             = "dietaryFatTotal"
	KindProtein         = "dietaryProtein"
	KindSaturatedFat    = "dietaryFatSaturated"
	KindSodium          = "dietarySodium"
	KindSugar           = "dietarySugar"
	KindVitaminA        = "dietaryVitaminA"
	KindVitaminB6       = "dietaryVitaminB6"
	KindVitaminB12      = "dietaryVitaminB12"
	KindVitaminC        = "dietaryVitaminC"
	KindVitaminD        = "dietaryVitaminD"
	KindVitaminE        = "dietaryVitaminE"
	KindVitaminK        = "dietaryVitaminK"
	KindWater           = "dietaryWater"
	KindTimeInDaylight  = "timeInDaylight"
	KindStandHour       = "appleStandHour"
	KindSleepAnalysis   = "sleepAnalysis"
	KindMindfulSession  = "mindfulSession"
	KindToothbrushing   = "toothbrushingEvent"
	KindWorkout         = "workout"
)

// Category values used by category samples
const (
	SleepInBed       = "inBed"
	SleepAwake       = "awake"
	SleepAsleep      = "asleep"
	SleepUnspecified = "asleepUnspecified"
	SleepCore        = "asleepCore"
	SleepDeep        = "asleepDeep"
	SleepREM         = "asleepREM"
	StandStood       = "stood"
	StandIdle        = "idle"
)

func isAsleep(category string) bool {
	switch category {
	case SleepAsleep, SleepUnspecified, SleepCore, SleepDeep, SleepREM:
		return true
	}
	return false
}

// isSleepRelevant keeps asleep and awake samples; time in bed is a separate signal
func isSleepRelevant(category string) bool {
	return category == SleepAwake || isAsleep(category)
}

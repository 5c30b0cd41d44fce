package aggregate

import (
	"strings"
	"testing"
	"time"

	"beesync/internal/core/daystamp"
)

var (
	d0  = daystamp.Of(2023, 7, 10)
	win = Window{From: d0, To: d0.Add(2), Deadline: 0, Location: time.UTC}
)

func hour(day, h, m int) time.Time {
	return time.Date(2023, 7, day, h, m, 0, 0, time.UTC)
}

func mustMetric(t *testing.T, name string) Metric {
	t.Helper()
	m, ok := Lookup(name)
	if !ok {
		t.Fatalf("metric %q missing from catalog", name)
	}
	return m
}

func TestCatalog(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Metrics() {
		if seen[m.Name] {
			t.Fatalf("duplicate metric %q", m.Name)
		}
		seen[m.Name] = true
		if m.Reduce == nil || m.SampleKind == "" || m.RequestPrefix == "" {
			t.Fatalf("metric %q incomplete: %+v", m.Name, m)
		}
	}
	for _, name := range []string{"steps", "weight", "timeAsleep", "timeInBed", "mindfulMinutes", "standHour", "workoutMinutes", "toothbrushing|minutes-per-day", "toothbrushing|sessions-per-day"} {
		if !seen[name] {
			t.Errorf("missing %q", name)
		}
	}
	if _, ok := Lookup("nope"); ok {
		t.Fatal("Lookup(nope) should fail")
	}
}

func TestPrecision_Round(t *testing.T) {
	p := Precision{"lb": 1, "kg": 2, "count": 0}
	tests := []struct {
		v    float64
		unit string
		want float64
	}{
		{180.26, "lb", 180.3},
		{81.777, "kg", 81.78},
		{1234.5, "count", 1235},
		{1.23456, "mi", 1.23456},
	}
	for _, tt := range tests {
		if got := p.Round(tt.v, tt.unit); got != tt.want {
			t.Errorf("Round(%v, %s) = %v, want %v", tt.v, tt.unit, got, tt.want)
		}
	}
	var none Precision
	if got := none.Round(1.55, "lb"); got != 1.55 {
		t.Fatalf("nil precision rounded: %v", got)
	}
}

func TestAggregate_SumAssignsByStartAndRounds(t *testing.T) {
	m := mustMetric(t, "steps")
	samples := []Sample{
		{Kind: KindSteps, Start: hour(10, 9, 0), End: hour(10, 9, 10), Value: 1000.4, Unit: "count"},
		{Kind: KindSteps, Start: hour(10, 12, 0), End: hour(10, 12, 30), Value: 2000.4, Unit: "count"},
		{Kind: KindSteps, Start: hour(12, 8, 0), End: hour(12, 8, 5), Value: 50, Unit: "count"},
		{Kind: KindSteps, Start: hour(20, 8, 0), End: hour(20, 8, 5), Value: 9999, Unit: "count"},
	}
	res := Aggregate(m, samples, win, Options{})
	if len(res.Points) != 2 {
		t.Fatalf("points = %+v, want 2 days", res.Points)
	}
	if res.Points[0].Daystamp != d0 || res.Points[0].Value != 3001 {
		t.Fatalf("first point = %+v", res.Points[0])
	}
	if res.Points[0].RequestID != "apple-health-20230710" || res.Points[0].Comment != "Auto-entered via Apple Health" {
		t.Fatalf("first point identity = %+v", res.Points[0])
	}
	if res.Points[1].Daystamp != d0.Add(2) || res.Points[1].Value != 50 {
		t.Fatalf("second point = %+v", res.Points[1])
	}
}

func TestAggregate_SumClipsAcrossMidnight(t *testing.T) {
	m := mustMetric(t, "activeEnergy")
	samples := []Sample{
		{Kind: KindActiveEnergy, Start: hour(10, 23, 0), End: hour(11, 1, 0), Value: 200, Unit: "kcal"},
	}
	res := Aggregate(m, samples, win, Options{})
	if len(res.Points) != 2 || res.Points[0].Value != 100 || res.Points[1].Value != 100 {
		t.Fatalf("points = %+v, want 100/100", res.Points)
	}
}

func TestAggregate_SumRespectsDeadline(t *testing.T) {
	m := mustMetric(t, "water")
	w := win
	w.Deadline = 3 * 3600
	samples := []Sample{{Kind: KindWater, Start: hour(11, 2, 0), End: hour(11, 2, 0), Value: 8}}
	res := Aggregate(m, samples, w, Options{})
	if len(res.Points) != 1 || res.Points[0].Daystamp != d0 {
		t.Fatalf("2am with a 3am deadline should land on the previous day: %+v", res.Points)
	}
}

func TestAggregate_MinWeight(t *testing.T) {
	m := mustMetric(t, "weight")
	samples := []Sample{
		{UUID: "u1", Kind: KindBodyMass, Start: hour(10, 7, 0), End: hour(10, 7, 0), Value: 180.26, Unit: "lb", Source: "Scale"},
		{UUID: "u2", Kind: KindBodyMass, Start: hour(10, 21, 5), End: hour(10, 21, 5), Value: 181.0, Unit: "lb", Source: "Scale"},
	}
	res := Aggregate(m, samples, win, Options{})
	if len(res.Points) != 1 || res.Points[0].Value != 180.3 {
		t.Fatalf("daily = %+v", res.Points)
	}

	res = Aggregate(m, samples, win, Options{Individual: true})
	if len(res.Points) != 2 {
		t.Fatalf("individual = %+v", res.Points)
	}
	p := res.Points[1]
	if p.RequestID != "apple-health-weight-u2" || p.Comment != "Weight via Scale at 9:05 PM" || p.Value != 181 {
		t.Fatalf("individual point = %+v", p)
	}
}

func TestAggregate_UnitFilter(t *testing.T) {
	m := mustMetric(t, "weight")
	samples := []Sample{
		{Kind: KindBodyMass, Start: hour(10, 7, 0), End: hour(10, 7, 0), Value: 81.777, Unit: "kg"},
		{Kind: KindBodyMass, Start: hour(10, 8, 0), End: hour(10, 8, 0), Value: 150, Unit: "lb"},
	}
	res := Aggregate(m, samples, win, Options{Unit: "kg"})
	if len(res.Points) != 1 || res.Points[0].Value != 81.78 {
		t.Fatalf("points = %+v", res.Points)
	}
}

func TestAggregate_StandHours(t *testing.T) {
	m := mustMetric(t, "standHour")
	samples := []Sample{
		{Kind: KindStandHour, Category: StandStood, Start: hour(10, 9, 0), End: hour(10, 10, 0)},
		{Kind: KindStandHour, Category: StandIdle, Start: hour(10, 10, 0), End: hour(10, 11, 0)},
		{Kind: KindStandHour, Category: StandStood, Start: hour(10, 23, 0), End: hour(11, 0, 0)},
		{Kind: KindStandHour, Category: StandStood, Start: hour(11, 0, 0), End: hour(11, 1, 0)},
	}
	res := Aggregate(m, samples, win, Options{})
	if len(res.Points) != 3 {
		t.Fatalf("count metrics emit every day, got %d", len(res.Points))
	}
	want := []float64{2, 1, 0}
	for i, p := range res.Points {
		if p.Value != want[i] {
			t.Errorf("day %s = %v, want %v", p.Daystamp, p.Value, want[i])
		}
		if !strings.HasPrefix(p.RequestID, "apple-heath-") {
			t.Errorf("request id %q should keep the legacy prefix", p.RequestID)
		}
	}
}

func TestAggregate_ToothbrushingSessions(t *testing.T) {
	m := mustMetric(t, "toothbrushing|sessions-per-day")
	samples := []Sample{
		{Kind: KindToothbrushing, Start: hour(10, 7, 0), End: hour(10, 7, 2)},
		{Kind: KindToothbrushing, Start: hour(10, 22, 0), End: hour(10, 22, 2)},
	}
	res := Aggregate(m, samples, win, Options{})
	if res.Points[0].Value != 2 {
		t.Fatalf("sessions = %v, want 2", res.Points[0].Value)
	}
	if res.Points[0].Comment != "Auto-entered via Apple Health (toothbrushing|sessions-per-day)" {
		t.Fatalf("comment = %q", res.Points[0].Comment)
	}
}

func TestAggregate_ToothbrushingMinutes(t *testing.T) {
	m := mustMetric(t, "toothbrushing|minutes-per-day")
	samples := []Sample{
		{Kind: KindToothbrushing, Start: hour(10, 7, 0), End: hour(10, 7, 2)},
	}
	res := Aggregate(m, samples, win, Options{})
	// two rounded minutes plus the starting minute
	if res.Points[0].Value != 3 {
		t.Fatalf("minutes = %v, want 3", res.Points[0].Value)
	}
}

func TestAggregate_TimeInBed(t *testing.T) {
	m := mustMetric(t, "timeInBed")
	samples := []Sample{
		{Kind: KindSleepAnalysis, Category: SleepInBed, Start: hour(10, 1, 0), End: hour(10, 2, 59)},
		{Kind: KindSleepAnalysis, Category: SleepInBed, Start: hour(10, 2, 0), End: hour(10, 3, 59)},
		// asleep samples extend the run without counting
		{Kind: KindSleepAnalysis, Category: SleepCore, Start: hour(10, 3, 0), End: hour(10, 5, 0)},
		{Kind: KindSleepAnalysis, Category: SleepInBed, Start: hour(10, 4, 30), End: hour(10, 5, 29)},
	}
	res := Aggregate(m, samples, win, Options{})
	// 01:00-02:59 (+1 fencepost) = 120 min, extension to 03:59 = 60 min, 04:30 is inside the run
	// extended by the asleep sample to 05:00, adding 29 minutes
	want := (120.0 + 60 + 29) / 60
	if res.Points[0].Value != want {
		t.Fatalf("time in bed = %v, want %v", res.Points[0].Value, want)
	}
}

func TestAggregate_TimeAsleep(t *testing.T) {
	m := mustMetric(t, "timeAsleep")
	samples := []Sample{
		{Kind: KindSleepAnalysis, Category: SleepDeep, Start: hour(10, 1, 0), End: hour(10, 4, 0)},
		{Kind: KindSleepAnalysis, Category: SleepInBed, Start: hour(10, 0, 0), End: hour(10, 8, 0)},
	}
	res := Aggregate(m, samples, win, Options{})
	if res.Points[0].Value != 3 {
		t.Fatalf("time asleep = %v hours, want 3", res.Points[0].Value)
	}
}

func TestAggregate_MindfulClipsAndMerges(t *testing.T) {
	m := mustMetric(t, "mindfulMinutes")
	samples := []Sample{
		{Kind: KindMindfulSession, Start: hour(9, 23, 50), End: hour(10, 0, 10)},
		{Kind: KindMindfulSession, Start: hour(10, 8, 0), End: hour(10, 8, 10)},
		{Kind: KindMindfulSession, Start: hour(10, 8, 5), End: hour(10, 8, 20)},
		{Kind: KindMindfulSession, Start: hour(10, 9, 0), End: hour(10, 9, 0), OpenEnded: true},
	}
	res := Aggregate(m, samples, win, Options{})
	if res.Points[0].Value != 30 {
		t.Fatalf("mindful = %v, want 30", res.Points[0].Value)
	}
}

func TestAggregate_WorkoutMinutes(t *testing.T) {
	m := mustMetric(t, "workoutMinutes")
	samples := []Sample{
		{UUID: "w1", Kind: KindWorkout, Activity: "running", Start: hour(10, 6, 0), End: hour(10, 6, 30)},
		{UUID: "w2", Kind: KindWorkout, Activity: "yoga", Start: hour(10, 18, 0), End: hour(10, 18, 45)},
		{UUID: "w3", Kind: KindWorkout, Activity: "running", Start: hour(9, 23, 30), End: hour(10, 0, 30)},
	}

	res := Aggregate(m, samples, win, Options{})
	if res.Points[0].Value != 75 {
		t.Fatalf("all workouts = %v, want 75", res.Points[0].Value)
	}

	res = Aggregate(m, samples, win, Options{WorkoutTypes: []string{"running"}})
	if res.Points[0].Value != 30 {
		t.Fatalf("running only = %v, want 30", res.Points[0].Value)
	}

	res = Aggregate(m, samples, win, Options{Individual: true})
	if len(res.Points) != 2 {
		t.Fatalf("individual = %+v", res.Points)
	}
	if res.Points[0].RequestID != "apple-health-workout-w1" || res.Points[0].Comment != "Running at 6:00 AM" {
		t.Fatalf("individual point = %+v", res.Points[0])
	}
	if res.Points[1].Comment != "Yoga at 6:00 PM" {
		t.Fatalf("comment = %q", res.Points[1].Comment)
	}
}

func TestAggregate_SkipsMalformed(t *testing.T) {
	m := mustMetric(t, "steps")
	samples := []Sample{
		{Kind: KindSteps, Start: hour(10, 9, 0), End: hour(10, 8, 0), Value: 1},
		{Kind: KindSteps, End: hour(10, 8, 0), Value: 1},
		{Kind: KindSteps, Start: hour(10, 9, 0), End: hour(10, 9, 1), Value: 7},
	}
	res := Aggregate(m, samples, win, Options{})
	if res.Malformed != 2 {
		t.Fatalf("Malformed = %d, want 2", res.Malformed)
	}
	if len(res.Points) != 1 || res.Points[0].Value != 7 {
		t.Fatalf("points = %+v", res.Points)
	}
}

func TestActivityName(t *testing.T) {
	tests := map[string]string{
		"highIntensityIntervalTraining": "HIIT",
		"cooldown":                      "Cool Down",
		"downhillSkiing":                "Downhill Skiing",
		"":                              "Workout",
	}
	for in, want := range tests {
		if got := ActivityName(in); got != want {
			t.Errorf("ActivityName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLastDays(t *testing.T) {
	now := time.Date(2023, 7, 11, 12, 0, 0, 0, time.UTC)
	w := LastDays(7, 0, time.UTC, now)
	if w.To != daystamp.Of(2023, 7, 11) || w.From != daystamp.Of(2023, 7, 4) {
		t.Fatalf("window = %s..%s", w.From, w.To)
	}
	if !w.Start().Equal(time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC)) || !w.End().Equal(time.Date(2023, 7, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("bounds = %s..%s", w.Start(), w.End())
	}
}

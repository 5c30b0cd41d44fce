package goal

import (
	"encoding/json"
	"testing"
	"time"

	"beesync/internal/core/daystamp"
)

func TestInitDaystamp_EasternDate(t *testing.T) {
	cases := []struct {
		unix int64
		want daystamp.Daystamp
	}{
		// 2024-03-10 04:59:59 UTC is still 2024-03-09 in New York
		{time.Date(2024, 3, 10, 4, 59, 59, 0, time.UTC).Unix(), daystamp.Of(2024, 3, 9)},
		{time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC).Unix(), daystamp.Of(2024, 3, 10)},
		{0, daystamp.Daystamp{}},
	}
	for _, c := range cases {
		if got := InitDaystamp(c.unix); got != c.want {
			t.Fatalf("InitDaystamp(%d) = %v, want %v", c.unix, got, c.want)
		}
	}
}

func TestAutodata_Options(t *testing.T) {
	no := false
	yes := true
	cases := []struct {
		name string
		in   Autodata
		ind  bool
	}{
		{"default aggregates", Autodata{}, false},
		{"explicit aggregate", Autodata{DailyAggregate: &yes}, false},
		{"individual", Autodata{DailyAggregate: &no}, true},
	}
	for _, c := range cases {
		if got := c.in.Options().Individual; got != c.ind {
			t.Fatalf("%s: Individual = %v, want %v", c.name, got, c.ind)
		}
	}

	opts := Autodata{WorkoutTypes: []string{"running"}, Unit: "kg"}.Options()
	if len(opts.WorkoutTypes) != 1 || opts.Unit != "kg" {
		t.Fatalf("opts = %+v", opts)
	}
}

func TestState_TodayAndConnected(t *testing.T) {
	s := State{Slug: "steps", Deadline: 3600, Metric: "steps"}
	now := time.Date(2024, 6, 1, 0, 30, 0, 0, time.UTC)
	if got := s.Today(now, time.UTC); got != daystamp.Of(2024, 5, 31) {
		t.Fatalf("Today = %v", got)
	}
	if !s.Connected() {
		t.Fatal("steps should be a known metric")
	}
	if (State{Metric: "bogus"}).Connected() {
		t.Fatal("bogus should not be connected")
	}
}

func TestState_JSONRoundTrip(t *testing.T) {
	no := false
	in := State{ID: "g1", Slug: "weight", InitDay: daystamp.Of(2023, 1, 2), Config: Autodata{DailyAggregate: &no}}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.InitDay != in.InitDay || out.Config.DailyAggregate == nil || *out.Config.DailyAggregate {
		t.Fatalf("round trip = %+v", out)
	}
}

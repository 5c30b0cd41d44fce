// Package daystamp models a goal's logical calendar day
//
// A goal's day does not have to end at midnight. The deadline offset is a signed
// number of seconds from local midnight: a positive offset moves the boundary
// into the next morning (03:00 still belongs to yesterday), a negative offset
// moves it into the previous evening (23:30 already belongs to tomorrow).
// Arithmetic on daystamps is done on the proleptic Gregorian calendar in UTC so
// DST transitions in the caller's zone never produce 23 or 25 hour days.
package daystamp

import (
	"fmt"
	"iter"
	"time"

	perr "beesync/internal/platform/errors"
)

const secondsPerDay = 24 * 60 * 60

// Daystamp is a calendar day; the zero value is not a valid day
type Daystamp struct {
	Year  int
	Month int
	Day   int
}

// Of builds a Daystamp, normalizing out of range values the way time.Date does
func Of(year, month, day int) Daystamp {
	return fromDate(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
}

// Parse reads the YYYYMMDD form; anything else is a format error
func Parse(s string) (Daystamp, error) {
	if len(s) != 8 {
		return Daystamp{}, perr.Formatf("daystamp %q: want YYYYMMDD", s)
	}
	var n [8]int
	for i := 0; i < 8; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Daystamp{}, perr.Formatf("daystamp %q: want YYYYMMDD", s)
		}
		n[i] = int(c - '0')
	}
	d := Daystamp{
		Year:  n[0]*1000 + n[1]*100 + n[2]*10 + n[3],
		Month: n[4]*10 + n[5],
		Day:   n[6]*10 + n[7],
	}
	if !d.Valid() {
		return Daystamp{}, perr.Formatf("daystamp %q: not a calendar date", s)
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid
func MustParse(s string) Daystamp {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the logical day containing t for a goal with the given deadline
// The wall clock of t in its own location decides; a moment exactly on the
// boundary belongs to the day the boundary starts
func FromTime(t time.Time, deadline int) Daystamp {
	y, m, d := t.Date()
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()

	offset := 0
	if deadline < 0 {
		if secs >= secondsPerDay+deadline {
			offset = 1
		}
	} else if secs < deadline {
		offset = -1
	}
	return Of(y, int(m), d+offset)
}

// Now returns the current logical day in loc
func Now(deadline int, loc *time.Location) Daystamp {
	return FromTime(time.Now().In(loc), deadline)
}

func fromDate(t time.Time) Daystamp {
	y, m, d := t.Date()
	return Daystamp{Year: y, Month: int(m), Day: d}
}

func (d Daystamp) utc() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Valid reports whether d names a real calendar day
func (d Daystamp) Valid() bool {
	if d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	return Of(d.Year, d.Month, d.Day) == d
}

// IsZero reports whether d is the zero value
func (d Daystamp) IsZero() bool { return d == Daystamp{} }

// Start returns the first instant of the day in loc, inclusive
func (d Daystamp) Start(deadline int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, deadline, 0, loc)
}

// End returns the first instant of the next day in loc, exclusive
func (d Daystamp) End(deadline int, loc *time.Location) time.Time {
	return d.Add(1).Start(deadline, loc)
}

// Add moves d by n whole days; n may be negative
func (d Daystamp) Add(n int) Daystamp { return Of(d.Year, d.Month, d.Day+n) }

// Sub returns the number of days from o to d
func (d Daystamp) Sub(o Daystamp) int {
	return int((d.utc().Unix() - o.utc().Unix()) / secondsPerDay)
}

// Compare returns -1, 0 or +1 ordering by year, month, day
func (d Daystamp) Compare(o Daystamp) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(d.Month - o.Month)
	default:
		return sign(d.Day - o.Day)
	}
}

// Before reports whether d is strictly earlier than o
func (d Daystamp) Before(o Daystamp) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly later than o
func (d Daystamp) After(o Daystamp) bool { return d.Compare(o) > 0 }

// String formats d as YYYYMMDD
func (d Daystamp) String() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// MarshalText implements encoding.TextMarshaler; the zero value encodes as ""
func (d Daystamp) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Daystamp) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Daystamp{}
		return nil
	}
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Range yields every day from a through b inclusive, ascending
// An empty sequence results when b is before a
func Range(a, b Daystamp) iter.Seq[Daystamp] {
	return func(yield func(Daystamp) bool) {
		for d := a; !d.After(b); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Min returns the earliest of ds; ok is false for an empty slice
func Min(ds ...Daystamp) (Daystamp, bool) {
	if len(ds) == 0 {
		return Daystamp{}, false
	}
	m := ds[0]
	for _, d := range ds[1:] {
		if d.Before(m) {
			m = d
		}
	}
	return m, true
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

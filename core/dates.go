package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DateLayout      = "2006-01-02"
	dateParamLayout = "2006-1-2"
	TimeOfDayLayout = "15:04:05"
)

var (
	ErrInvalidDate      = errors.New("Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	ErrInvalidTimeOfDay = errors.New("Time has wrong format. Use one of these formats instead: hh:mm[:ss[.uuuuuu]].")
)

// Date is a calendar day without time or timezone.
type Date struct {
	t time.Time // always midnight UTC
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) Date {
	return DateOf(now.In(loc))
}

// ParseDate parses a YYYY-MM-DD string.
// Longer timestamp-like strings are accepted as long as they start with a valid date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && (s[len(DateLayout)] == 'T' || s[len(DateLayout)] == ' ') {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{t: t}, nil
}

// ParseDateParam strictly parses a YYYY-MM-DD query parameter.
// Month and day may omit their leading zero; any trailing text is rejected.
func ParseDateParam(s string) (Date, error) {
	t, err := time.Parse(dateParamLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Time() time.Time    { return d.t }
func (d Date) String() string     { return d.t.Format(DateLayout) }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	pd, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = pd
	return nil
}

// TimeOfDay is a wall clock time, second precision.
type TimeOfDay struct {
	sec int // seconds since midnight
}

func NewTimeOfDay(hour, min, sec int) TimeOfDay {
	return TimeOfDay{sec: hour*3600 + min*60 + sec}
}

// ClockOf returns the wall clock of t in t's location.
func ClockOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return NewTimeOfDay(h, m, s)
}

// ParseTimeOfDay accepts hh:mm, hh:mm:ss and hh:mm:ss.ffffff (fraction dropped),
// as well as full timestamps, from which only the clock is kept.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 && strings.Count(s[:i], "-") == 2 {
		s = s[i+1:]
	}
	if i := strings.IndexAny(s, "Z+-"); i > 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	for _, layout := range []string{TimeOfDayLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return TimeOfDay{}, ErrInvalidTimeOfDay
}

func (tod TimeOfDay) Hour() int   { return tod.sec / 3600 }
func (tod TimeOfDay) Minute() int { return tod.sec % 3600 / 60 }
func (tod TimeOfDay) Second() int { return tod.sec % 60 }

func (tod TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", tod.Hour(), tod.Minute(), tod.Second())
}

func (tod TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(tod.String())
}

func (tod *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidTimeOfDay
	}
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*tod = t
	return nil
}

package types

import (
	"fmt"
	"time"
)

// MinIntervalDuration is the shortest allowed suspension interval, in minutes.
const MinIntervalDuration = 30

const minutesPerDay = 24 * 60

// Time is a wall clock time of day with minute resolution.
type Time struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTime parses "HH:MM" in 24 hour notation.
func ParseTime(s string) (Time, error) {
	ts, err := time.Parse("15:04", s)
	if err != nil {
		return Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return TimeOf(ts), nil
}

// TimeOf returns the time of day of ts.
func TimeOf(ts time.Time) Time {
	return Time{Hour: ts.Hour(), Minute: ts.Minute()}
}

// Validate checks the hour and minute ranges.
func (t Time) Validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return ErrInvalidTime
	}
	return nil
}

// Minutes returns the minutes since midnight.
func (t Time) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Interval is a daily suspension window during which scheduled tasks do not
// probe. End before Start means the window spans midnight. Start is
// inclusive, End exclusive.
type Interval struct {
	ID    int64 `json:"id"`
	Start Time  `json:"start"`
	End   Time  `json:"end"`
}

// Duration returns the interval length in minutes.
func (i *Interval) Duration() int {
	return ((i.End.Minutes()-i.Start.Minutes())%minutesPerDay + minutesPerDay) % minutesPerDay
}

// SpansMidnight reports whether the interval wraps into the next day.
func (i *Interval) SpansMidnight() bool {
	return i.End.Minutes() < i.Start.Minutes()
}

// Validate checks both times and the minimum duration.
func (i *Interval) Validate() error {
	if err := i.Start.Validate(); err != nil {
		return fmt.Errorf("%w: start %w", ErrInvalidInterval, err)
	}
	if err := i.End.Validate(); err != nil {
		return fmt.Errorf("%w: end %w", ErrInvalidInterval, err)
	}
	if i.Start == i.End {
		return fmt.Errorf("%w: start equals end", ErrInvalidInterval)
	}
	if i.Duration() < MinIntervalDuration {
		return fmt.Errorf("%w: shorter than %d minutes", ErrInvalidInterval, MinIntervalDuration)
	}
	return nil
}

func (i *Interval) containsMinute(m int) bool {
	s, e := i.Start.Minutes(), i.End.Minutes()
	if s < e {
		return m >= s && m < e
	}
	return m >= s || m < e
}

// Contains reports whether the time of day of ts lies within the interval.
func (i *Interval) Contains(ts time.Time) bool {
	return i.containsMinute(TimeOf(ts).Minutes())
}

// Overlaps reports whether the two intervals share at least one minute.
// Intervals that only touch do not overlap.
func (i *Interval) Overlaps(other *Interval) bool {
	return i.containsMinute(other.Start.Minutes()) || other.containsMinute(i.Start.Minutes())
}

// NextEnd returns the first end of the interval strictly after ts.
func (i *Interval) NextEnd(ts time.Time) time.Time {
	end := time.Date(ts.Year(), ts.Month(), ts.Day(), i.End.Hour, i.End.Minute, 0, 0, ts.Location())
	if !end.After(ts) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

func (i *Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// CheckOverlap returns ErrIntervalOverlap when candidate overlaps any of the
// existing intervals. An existing interval with the candidate's ID is
// skipped so updates can be checked against the stored set.
func CheckOverlap(existing []*Interval, candidate *Interval) error {
	for _, e := range existing {
		if candidate.ID != 0 && e.ID == candidate.ID {
			continue
		}
		if e.Overlaps(candidate) {
			return fmt.Errorf("%w: %s", ErrIntervalOverlap, e)
		}
	}
	return nil
}

// ActiveInterval returns the interval containing ts, or nil.
func ActiveInterval(intervals []*Interval, ts time.Time) *Interval {
	for _, i := range intervals {
		if i.Contains(ts) {
			return i
		}
	}
	return nil
}

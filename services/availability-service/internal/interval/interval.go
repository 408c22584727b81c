package interval

import (
	"errors"
	"time"
)

// ErrInvalidInterval indicates a half-open interval whose start is not strictly
// before its end. It is a programmer error, not recoverable input.
var ErrInvalidInterval = errors.New("interval start must be before end")

// Interval is a half-open span of absolute time [Start, End).
// Both endpoints carry their own location; comparisons use the instant, never
// the wall clock, so intervals from different zones compare correctly.
type Interval struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether the two half-open intervals share any instant.
// Adjacent intervals (a.End == b.Start) do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether b lies entirely within a.
func (a Interval) Contains(b Interval) bool {
	return !b.Start.Before(a.Start) && !b.End.After(a.End)
}

// Clamp intersects a with bound. ok is false when the two are disjoint;
// adjacency counts as disjoint since the intersection would be empty.
func (a Interval) Clamp(bound Interval) (Interval, bool) {
	start := a.Start
	if bound.Start.After(start) {
		start = bound.Start
	}
	end := a.End
	if bound.End.Before(end) {
		end = bound.End
	}
	if !start.Before(end) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

func (a Interval) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

func (a Interval) DurationMinutes() int {
	return int(a.End.Sub(a.Start) / time.Minute)
}

// UTC returns the interval with both endpoints normalized to UTC.
// The instant values are unchanged.
func (a Interval) UTC() Interval {
	return Interval{Start: a.Start.UTC(), End: a.End.UTC()}
}

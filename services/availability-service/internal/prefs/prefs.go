package prefs

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a named daily band, matched against a slot's start hour in the
// presentation zone.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

// Bands are half-open start-hour ranges: morning [9,12), afternoon [12,18),
// evening [18,22).
var timeBands = map[TimeOfDay][2]int{
	Morning:   {9, 12},
	Afternoon: {12, 18},
	Evening:   {18, 22},
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t := TimeOfDay(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := timeBands[t]; !ok {
		return "", fmt.Errorf("unknown time of day %q", s)
	}
	return t, nil
}

// Constraint is a negative scheduling rule extracted from conversation.
//
//	not_early      drop slots starting before 9
//	not_late       drop slots starting after 16
//	not_on:<day>   drop slots on the named weekday
type Constraint string

const (
	NotEarly Constraint = "not_early"
	NotLate  Constraint = "not_late"
)

const notOnPrefix = "not_on:"

func NotOn(day time.Weekday) Constraint {
	return Constraint(notOnPrefix + strings.ToLower(day.String()))
}

func ParseConstraint(s string) (Constraint, error) {
	c := Constraint(strings.ToLower(strings.TrimSpace(s)))
	switch {
	case c == NotEarly || c == NotLate:
		return c, nil
	case strings.HasPrefix(string(c), notOnPrefix):
		if _, err := parseWeekday(strings.TrimPrefix(string(c), notOnPrefix)); err != nil {
			return "", err
		}
		return c, nil
	}
	return "", fmt.Errorf("unknown constraint %q", s)
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(s, d.String()) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// ParseWeekday maps a day name ("Tuesday", case-insensitive) to time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	return parseWeekday(strings.TrimSpace(s))
}

// Record is the structured preference output of natural-language extraction.
// The filter treats it as read only; callers may reuse one record across
// repeated filter calls.
type Record struct {
	Days        []time.Weekday
	Times       []TimeOfDay
	Constraints []Constraint
	// TargetDate pins the search to one calendar date (in the display zone)
	// and overrides Days entirely: an explicit date is the most specific
	// intent and must not be narrowed by a stale day-of-week preference.
	TargetDate *time.Time
}

func (r Record) HasDay(d time.Weekday) bool {
	for _, day := range r.Days {
		if day == d {
			return true
		}
	}
	return false
}

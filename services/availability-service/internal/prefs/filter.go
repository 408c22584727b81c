package prefs

import (
	"strings"
	"time"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/slots"
)

// Filter applies the preference record to candidates in a fixed order, with
// each slot dropped at the first failing check:
//
//  1. target date (only when set)
//  2. day of week (only when no target date and Days non-empty)
//  3. time of day (any listed band may match)
//  4. constraints (any firing rule drops)
//
// All calendar checks use the slot's wall clock in display, the zone the slots
// are presented in. Order is preserved and the input is never mutated; the
// function is idempotent for a fixed record.
func Filter(candidates []slots.Candidate, rec Record, display *time.Location) []slots.Candidate {
	if display == nil {
		display = time.UTC
	}

	kept := make([]slots.Candidate, 0, len(candidates))
	for _, c := range candidates {
		local := c.Start.In(display)

		if rec.TargetDate != nil {
			ty, tm, td := rec.TargetDate.Date()
			y, m, d := local.Date()
			if y != ty || m != tm || d != td {
				continue
			}
		} else if len(rec.Days) > 0 && !rec.HasDay(local.Weekday()) {
			continue
		}

		if len(rec.Times) > 0 && !matchesAnyBand(local.Hour(), rec.Times) {
			continue
		}

		if violates(local, rec.Constraints) {
			continue
		}

		kept = append(kept, c)
	}
	return kept
}

func matchesAnyBand(hour int, times []TimeOfDay) bool {
	for _, t := range times {
		band, ok := timeBands[t]
		if !ok {
			continue
		}
		if hour >= band[0] && hour < band[1] {
			return true
		}
	}
	return false
}

func violates(local time.Time, constraints []Constraint) bool {
	for _, c := range constraints {
		switch {
		case c == NotEarly:
			if local.Hour() < 9 {
				return true
			}
		case c == NotLate:
			if local.Hour() > 16 {
				return true
			}
		case strings.HasPrefix(string(c), notOnPrefix):
			day, err := parseWeekday(strings.TrimPrefix(string(c), notOnPrefix))
			if err == nil && local.Weekday() == day {
				return true
			}
		}
	}
	return false
}

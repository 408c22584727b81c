package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extracted is what one user utterance contributes to the meeting context.
// Zero fields mean the utterance said nothing about them.
type Extracted struct {
	DurationMinutes int
	Days            []string
	Times           []string
	Constraints     []string
	TargetDate      *time.Time
	Intent          Intent
}

type Intent string

const (
	IntentSchedule     Intent = "schedule"
	IntentSelectSlot   Intent = "select_slot"
	IntentAlternatives Intent = "alternatives"
	IntentUnknown      Intent = "unknown"
)

var (
	hourPattern    = regexp.MustCompile(`(\d+)\s*(?:hours?|hrs?|h\b)`)
	minutePattern  = regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?|m\b)`)
	halfPattern    = regexp.MustCompile(`half\s+(?:an\s+)?hour`)
	quarterPattern = regexp.MustCompile(`quarter\s+(?:of\s+an\s+)?hour`)
	dayPattern     = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	timePattern    = regexp.MustCompile(`\b(morning|afternoon|evening)\b`)
	notOnPattern   = regexp.MustCompile(`\bnot\s+on\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)s?\b`)
	notEarly       = regexp.MustCompile(`\bnot\s+(?:too\s+)?early\b`)
	notLate        = regexp.MustCompile(`\bnot\s+(?:too\s+)?late\b`)
	nextDayPattern = regexp.MustCompile(`\b(?:next|this)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	daysFromNow    = regexp.MustCompile(`\b(\d+)\s+days?\s+(?:from\s+now|later)\b`)
)

var wordNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// ParseDuration extracts a meeting length in minutes. Hour and minute parts
// are summed, so "1 hour 30 minutes" gives 90.
func ParseDuration(text string) (int, bool) {
	lower := strings.ToLower(text)

	total := 0
	if m := hourPattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n * 60
	} else {
		for word, n := range wordNumbers {
			if strings.Contains(lower, word+" hour") {
				total += n * 60
				break
			}
		}
	}
	if m := minutePattern.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n
	}
	if total > 0 {
		return total, true
	}

	if halfPattern.MatchString(lower) || strings.Contains(lower, "half hour") {
		return 30, true
	}
	if quarterPattern.MatchString(lower) {
		return 15, true
	}
	if strings.Contains(lower, "an hour") {
		return 60, true
	}
	return 0, false
}

// Parse runs every rule-based extractor over one utterance. now anchors the
// relative-date rules and must carry the scheduling timezone.
func Parse(text string, now time.Time) Extracted {
	lower := strings.ToLower(text)
	out := Extracted{Intent: detectIntent(lower)}

	if d, ok := ParseDuration(lower); ok {
		out.DurationMinutes = d
	}

	// not_on days must not double as preferred days.
	excluded := map[string]bool{}
	for _, m := range notOnPattern.FindAllStringSubmatch(lower, -1) {
		out.Constraints = append(out.Constraints, "not_on:"+m[1])
		excluded[m[1]] = true
	}
	for _, m := range dayPattern.FindAllStringSubmatch(lower, -1) {
		if !excluded[m[1]] && !contains(out.Days, m[1]) {
			out.Days = append(out.Days, m[1])
		}
	}
	for _, m := range timePattern.FindAllStringSubmatch(lower, -1) {
		if !contains(out.Times, m[1]) {
			out.Times = append(out.Times, m[1])
		}
	}
	if notEarly.MatchString(lower) {
		out.Constraints = append(out.Constraints, "not_early")
	}
	if notLate.MatchString(lower) {
		out.Constraints = append(out.Constraints, "not_late")
	}

	if target, ok := parseRelativeDate(lower, now); ok {
		out.TargetDate = &target
	}

	return out
}

// ParseSelection maps "2", "two" or "the second one" onto a 1-based option
// index, bounded by the number of options presented.
func ParseSelection(text string, options int) (int, bool) {
	lower := strings.ToLower(text)

	ordinals := []string{"first", "second", "third", "fourth", "fifth"}
	for i, word := range ordinals {
		if i >= options {
			break
		}
		if strings.Contains(lower, word) {
			return i + 1, true
		}
	}
	for _, token := range strings.FieldsFunc(lower, func(r rune) bool {
		return r < '0' || (r > '9' && r < 'a') || r > 'z'
	}) {
		if n, ok := wordNumbers[token]; ok && n <= options {
			return n, true
		}
		if n, err := strconv.Atoi(token); err == nil && n >= 1 && n <= options {
			return n, true
		}
	}
	return 0, false
}

func detectIntent(lower string) Intent {
	switch {
	case strings.Contains(lower, "different") || strings.Contains(lower, "other option") ||
		strings.Contains(lower, "alternative") || strings.Contains(lower, "something else"):
		return IntentAlternatives
	case strings.Contains(lower, "schedule") || strings.Contains(lower, "meeting") ||
		strings.Contains(lower, "book") || strings.Contains(lower, "appointment"):
		return IntentSchedule
	default:
		return IntentUnknown
	}
}

func parseRelativeDate(lower string, now time.Time) (time.Time, bool) {
	midnight := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}

	if strings.Contains(lower, "last weekday of this month") || strings.Contains(lower, "last weekday of the month") {
		// Jump past day 28 to land in the next month, then step back.
		anchor := midnight(now)
		firstOfNext := time.Date(anchor.Year(), anchor.Month(), 28, 0, 0, 0, 0, anchor.Location()).AddDate(0, 0, 4)
		last := firstOfNext.AddDate(0, 0, -firstOfNext.Day())
		for last.Weekday() == time.Saturday || last.Weekday() == time.Sunday {
			last = last.AddDate(0, 0, -1)
		}
		return last, true
	}
	if strings.Contains(lower, "tomorrow") {
		return midnight(now).AddDate(0, 0, 1), true
	}
	if strings.Contains(lower, "today") {
		return midnight(now), true
	}
	if m := nextDayPattern.FindStringSubmatch(lower); m != nil {
		target := weekdays[m[1]]
		ahead := (int(target) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return midnight(now).AddDate(0, 0, ahead), true
	}
	if m := daysFromNow.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		return midnight(now).AddDate(0, 0, n), true
	}
	return time.Time{}, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

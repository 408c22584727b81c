package nlp

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		text string
		want int
		ok   bool
	}{
		{"I need a 1 hour meeting", 60, true},
		{"30 minutes please", 30, true},
		{"let's do 45 mins", 45, true},
		{"2 hrs", 120, true},
		{"1 hour and 30 minutes", 90, true},
		{"half an hour", 30, true},
		{"a quarter of an hour", 15, true},
		{"two hours", 120, true},
		{"an hour should do", 60, true},
		{"90m", 90, true},
		{"sometime next week", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseDuration(c.text)
		if ok != c.ok || got != c.want {
			t.Fatalf("ParseDuration(%q) = %d,%v, want %d,%v", c.text, got, ok, c.want, c.ok)
		}
	}
}

func TestParsePreferences(t *testing.T) {
	now := time.Date(2026, 6, 22, 10, 0, 0, 0, time.UTC) // a Monday

	out := Parse("Tuesday afternoon works, but not too early and not on friday", now)
	if len(out.Days) != 1 || out.Days[0] != "tuesday" {
		t.Fatalf("days = %v, want [tuesday]", out.Days)
	}
	if len(out.Times) != 1 || out.Times[0] != "afternoon" {
		t.Fatalf("times = %v, want [afternoon]", out.Times)
	}
	wantConstraints := map[string]bool{"not_on:friday": true, "not_early": true}
	if len(out.Constraints) != 2 {
		t.Fatalf("constraints = %v", out.Constraints)
	}
	for _, c := range out.Constraints {
		if !wantConstraints[c] {
			t.Fatalf("unexpected constraint %q", c)
		}
	}
}

func TestNotOnDayIsNotPreferred(t *testing.T) {
	now := time.Date(2026, 6, 22, 10, 0, 0, 0, time.UTC)
	out := Parse("any day but not on monday", now)
	if len(out.Days) != 0 {
		t.Fatalf("days = %v, excluded day leaked into preferences", out.Days)
	}
}

func TestParseRelativeDates(t *testing.T) {
	now := time.Date(2026, 6, 22, 15, 30, 0, 0, time.UTC) // Monday June 22

	cases := []struct {
		text string
		want string
	}{
		{"how about tomorrow", "2026-06-23"},
		{"today if possible", "2026-06-22"},
		{"next thursday", "2026-06-25"},
		{"next monday", "2026-06-29"}, // same weekday rolls a full week
		{"3 days from now", "2026-06-25"},
		{"the last weekday of this month", "2026-06-30"},
	}
	for _, c := range cases {
		out := Parse(c.text, now)
		if out.TargetDate == nil {
			t.Fatalf("Parse(%q): no target date", c.text)
		}
		if got := out.TargetDate.Format("2006-01-02"); got != c.want {
			t.Fatalf("Parse(%q) target = %s, want %s", c.text, got, c.want)
		}
	}

	if out := Parse("tuesday morning", now); out.TargetDate != nil {
		t.Fatalf("plain weekday should not set a target date, got %v", out.TargetDate)
	}
}

func TestLastWeekdayAvoidsWeekend(t *testing.T) {
	// January 2027 ends on a Sunday; the last weekday is Friday the 29th.
	now := time.Date(2027, 1, 10, 9, 0, 0, 0, time.UTC)
	out := Parse("last weekday of this month", now)
	if out.TargetDate == nil {
		t.Fatal("no target date")
	}
	if got := out.TargetDate.Format("2006-01-02"); got != "2027-01-29" {
		t.Fatalf("target = %s, want 2027-01-29", got)
	}
}

func TestParseSelection(t *testing.T) {
	cases := []struct {
		text string
		want int
		ok   bool
	}{
		{"the first one", 1, true},
		{"second", 2, true},
		{"option 3", 3, true},
		{"two", 2, true},
		{"let's go with 5", 5, true},
		{"none of these", 0, false},
		{"9", 0, false}, // out of range
	}
	for _, c := range cases {
		got, ok := ParseSelection(c.text, 5)
		if got != c.want || ok != c.ok {
			t.Fatalf("ParseSelection(%q) = %d,%v, want %d,%v", c.text, got, ok, c.want, c.ok)
		}
	}
}

func TestDetectIntent(t *testing.T) {
	now := time.Now()
	if out := Parse("I want to schedule a meeting", now); out.Intent != IntentSchedule {
		t.Fatalf("intent = %s, want schedule", out.Intent)
	}
	if out := Parse("show me different times", now); out.Intent != IntentAlternatives {
		t.Fatalf("intent = %s, want alternatives", out.Intent)
	}
	if out := Parse("hmm let me think", now); out.Intent != IntentUnknown {
		t.Fatalf("intent = %s, want unknown", out.Intent)
	}
}

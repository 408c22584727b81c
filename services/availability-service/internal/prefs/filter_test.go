package prefs

import (
	"reflect"
	"testing"
	"time"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/slots"
)

func slotAt(day time.Time, hour int) slots.Candidate {
	start := day.Add(time.Duration(hour) * time.Hour)
	return slots.Candidate{Start: start, End: start.Add(time.Hour)}
}

func TestFilter_TargetDateOverridesDayPreference(t *testing.T) {
	// 2026-06-25 is a Thursday; the stale day preference says Monday.
	tuesday := time.Date(2026, 6, 23, 0, 0, 0, 0, time.UTC)
	thursday := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	target := thursday

	candidates := []slots.Candidate{
		slotAt(tuesday, 10),
		slotAt(thursday, 10),
		slotAt(thursday, 14),
	}
	rec := Record{
		Days:       []time.Weekday{time.Monday},
		TargetDate: &target,
	}

	got := Filter(candidates, rec, time.UTC)
	if len(got) != 2 {
		t.Fatalf("expected the two target-date slots, got %d", len(got))
	}
	for _, c := range got {
		if c.Start.Day() != 25 {
			t.Fatalf("slot off the target date survived: %s", c.Start)
		}
	}
}

func TestFilter_DayOfWeek(t *testing.T) {
	monday := time.Date(2026, 6, 22, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	candidates := []slots.Candidate{slotAt(monday, 10), slotAt(tuesday, 10)}

	got := Filter(candidates, Record{Days: []time.Weekday{time.Tuesday}}, time.UTC)
	if len(got) != 1 || got[0].Start.Weekday() != time.Tuesday {
		t.Fatalf("expected only the Tuesday slot, got %+v", got)
	}
}

func TestFilter_TimeOfDayBands(t *testing.T) {
	day := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	candidates := []slots.Candidate{slotAt(day, 11), slotAt(day, 12), slotAt(day, 17), slotAt(day, 18)}

	got := Filter(candidates, Record{Times: []TimeOfDay{Afternoon}}, time.UTC)
	want := []int{12, 17}
	var hours []int
	for _, c := range got {
		hours = append(hours, c.Start.Hour())
	}
	if !reflect.DeepEqual(hours, want) {
		t.Fatalf("afternoon is [12,18): want starts %v, got %v", want, hours)
	}
}

func TestFilter_MultipleBandsAnyMatch(t *testing.T) {
	day := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	candidates := []slots.Candidate{slotAt(day, 10), slotAt(day, 14), slotAt(day, 19)}

	got := Filter(candidates, Record{Times: []TimeOfDay{Morning, Evening}}, time.UTC)
	if len(got) != 2 || got[0].Start.Hour() != 10 || got[1].Start.Hour() != 19 {
		t.Fatalf("expected morning and evening slots, got %+v", got)
	}
}

func TestFilter_Constraints(t *testing.T) {
	day := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC) // Thursday

	early := Filter([]slots.Candidate{slotAt(day, 8), slotAt(day, 9)}, Record{Constraints: []Constraint{NotEarly}}, time.UTC)
	if len(early) != 1 || early[0].Start.Hour() != 9 {
		t.Fatalf("not_early boundary is inclusive at 9: got %+v", early)
	}

	late := Filter([]slots.Candidate{slotAt(day, 16), slotAt(day, 17)}, Record{Constraints: []Constraint{NotLate}}, time.UTC)
	if len(late) != 1 || late[0].Start.Hour() != 16 {
		t.Fatalf("not_late keeps 16, drops 17: got %+v", late)
	}

	notOn := Filter([]slots.Candidate{slotAt(day, 10)}, Record{Constraints: []Constraint{NotOn(time.Thursday)}}, time.UTC)
	if len(notOn) != 0 {
		t.Fatalf("not_on:thursday must drop Thursday slots, got %+v", notOn)
	}
}

func TestFilter_DisplayZoneDecidesHour(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 06:30 UTC is 12:00 IST: afternoon in the display zone, morning in UTC.
	start := time.Date(2026, 6, 25, 6, 30, 0, 0, time.UTC)
	candidates := []slots.Candidate{{Start: start, End: start.Add(time.Hour)}}

	if got := Filter(candidates, Record{Times: []TimeOfDay{Afternoon}}, kolkata); len(got) != 1 {
		t.Fatal("band must be judged in the display zone, not UTC")
	}
	if got := Filter(candidates, Record{Times: []TimeOfDay{Afternoon}}, time.UTC); len(got) != 0 {
		t.Fatal("same instant in UTC is not afternoon")
	}
}

func TestFilter_IdempotentAndOrderPreserving(t *testing.T) {
	day := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	candidates := []slots.Candidate{slotAt(day, 9), slotAt(day, 13), slotAt(day, 15)}
	rec := Record{Times: []TimeOfDay{Morning, Afternoon}, Constraints: []Constraint{NotEarly}}

	once := Filter(candidates, rec, time.UTC)
	twice := Filter(once, rec, time.UTC)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter must be idempotent: %+v vs %+v", once, twice)
	}
	for i := 1; i < len(once); i++ {
		if once[i].Start.Before(once[i-1].Start) {
			t.Fatal("filter must preserve input order")
		}
	}
}

func TestFilter_EmptyRecordKeepsEverything(t *testing.T) {
	day := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	candidates := []slots.Candidate{slotAt(day, 8), slotAt(day, 20)}

	got := Filter(candidates, Record{}, time.UTC)
	if !reflect.DeepEqual(got, candidates) {
		t.Fatalf("no preferences means nothing drops: %+v", got)
	}
}

func TestParseConstraint(t *testing.T) {
	if _, err := ParseConstraint("not_on:funday"); err == nil {
		t.Fatal("expected error for bogus weekday")
	}
	c, err := ParseConstraint("not_on:Friday")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c != Constraint("not_on:friday") {
		t.Fatalf("constraint not normalized: %q", c)
	}
	if _, err := ParseConstraint("never"); err == nil {
		t.Fatal("expected error for unknown constraint")
	}
}

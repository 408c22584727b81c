package slots

import (
	"reflect"
	"testing"
	"time"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/busy"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/interval"
)

func dayWindow(t *testing.T, startHour, endHour int) interval.Interval {
	t.Helper()
	day := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	win, err := interval.New(day.Add(time.Duration(startHour)*time.Hour), day.Add(time.Duration(endHour)*time.Hour))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	return win
}

func block(t *testing.T, startHour, startMin, endHour, endMin int) busy.Block {
	t.Helper()
	day := time.Date(2026, 6, 25, 0, 0, 0, 0, time.UTC)
	iv, err := interval.New(
		day.Add(time.Duration(startHour)*time.Hour+time.Duration(startMin)*time.Minute),
		day.Add(time.Duration(endHour)*time.Hour+time.Duration(endMin)*time.Minute),
	)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	return busy.Block{Interval: iv, Label: "busy"}
}

func startHoursAndMinutes(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Start.UTC().Format("15:04"))
	}
	return out
}

func TestGenerate_EmptyDayHourlySlots(t *testing.T) {
	win := dayWindow(t, 9, 17)
	got := Generate(win, nil, 60*time.Minute, DefaultStride, time.UTC)

	want := []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}
	if !reflect.DeepEqual(startHoursAndMinutes(got), want) {
		t.Fatalf("want starts %v, got %v", want, startHoursAndMinutes(got))
	}
	// The 16:00 slot ends exactly at the 17:00 boundary; nothing may start later.
	last := got[len(got)-1]
	if !last.End.Equal(win.End) {
		t.Fatalf("last slot must end at the window boundary, got %s", last.End)
	}
}

func TestGenerate_GapStartNotRoundedToHour(t *testing.T) {
	win := dayWindow(t, 9, 17)
	blocks := []busy.Block{block(t, 11, 0, 11, 30)}

	got := Generate(win, blocks, 60*time.Minute, DefaultStride, time.UTC)
	want := []string{"09:00", "10:00", "11:30", "12:30", "13:30", "14:30", "15:30"}
	if !reflect.DeepEqual(startHoursAndMinutes(got), want) {
		t.Fatalf("want starts %v, got %v", want, startHoursAndMinutes(got))
	}
}

func TestGenerate_SlotsNeverTouchBusySpans(t *testing.T) {
	win := dayWindow(t, 9, 17)
	blocks := []busy.Block{
		block(t, 10, 0, 10, 45),
		block(t, 10, 30, 12, 0), // overlaps the previous block; must merge
		block(t, 15, 15, 15, 45),
	}

	got := Generate(win, blocks, 30*time.Minute, DefaultStride, time.UTC)
	if len(got) == 0 {
		t.Fatal("expected slots")
	}
	for _, c := range got {
		slot := interval.Interval{Start: c.Start, End: c.End}
		for _, b := range blocks {
			if slot.Overlaps(b.Interval) {
				t.Fatalf("slot %s..%s overlaps busy %s..%s", c.Start, c.End, b.Start, b.End)
			}
		}
		if c.Start.Before(win.Start) || c.End.After(win.End) {
			t.Fatalf("slot %s..%s outside window", c.Start, c.End)
		}
	}
}

func TestGenerate_ExactDurationAndNoOverlap(t *testing.T) {
	win := dayWindow(t, 9, 17)
	blocks := []busy.Block{block(t, 12, 10, 13, 0)}

	got := Generate(win, blocks, 45*time.Minute, DefaultStride, time.UTC)
	for i, c := range got {
		if c.End.Sub(c.Start) != 45*time.Minute {
			t.Fatalf("slot %d duration %s, want 45m", i, c.End.Sub(c.Start))
		}
		for j := i + 1; j < len(got); j++ {
			a := interval.Interval{Start: c.Start, End: c.End}
			b := interval.Interval{Start: got[j].Start, End: got[j].End}
			if a.Overlaps(b) {
				t.Fatalf("slots %d and %d overlap", i, j)
			}
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	win := dayWindow(t, 9, 17)
	blocks := []busy.Block{block(t, 10, 0, 10, 30), block(t, 14, 0, 15, 0)}

	first := Generate(win, blocks, 60*time.Minute, DefaultStride, time.UTC)
	second := Generate(win, blocks, 60*time.Minute, DefaultStride, time.UTC)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs must produce identical output")
	}
}

func TestGenerate_BusyDayYieldsEmptyNotError(t *testing.T) {
	win := dayWindow(t, 9, 17)
	blocks := []busy.Block{block(t, 9, 0, 17, 0)}

	got := Generate(win, blocks, 30*time.Minute, DefaultStride, time.UTC)
	if len(got) != 0 {
		t.Fatalf("fully busy day must yield no slots, got %d", len(got))
	}
}

func TestGenerate_GapShorterThanDurationSkipped(t *testing.T) {
	win := dayWindow(t, 9, 12)
	blocks := []busy.Block{block(t, 9, 30, 11, 30)}

	got := Generate(win, blocks, 60*time.Minute, DefaultStride, time.UTC)
	if len(got) != 0 {
		t.Fatalf("30-minute gaps cannot host 60-minute slots, got %v", startHoursAndMinutes(got))
	}
}

func TestFormatRange_DisplayZone(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	start := time.Date(2026, 6, 25, 3, 30, 0, 0, time.UTC) // Thursday, 9:00 IST
	end := start.Add(time.Hour)

	got := FormatRange(start, end, kolkata)
	want := "Thursday, June 25 from 9:00 AM to 10:00 AM IST"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

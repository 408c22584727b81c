package busy

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/interval"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func queryRange(t *testing.T) interval.Interval {
	t.Helper()
	rng, err := interval.New(
		time.Date(2026, 6, 22, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 29, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return rng
}

func TestNormalize_SortsAndFilters(t *testing.T) {
	events := []RawEvent{
		{Label: "later", StartTime: "2026-06-25T14:00:00Z", EndTime: "2026-06-25T15:00:00Z"},
		{Label: "earlier", StartTime: "2026-06-23T09:00:00Z", EndTime: "2026-06-23T09:30:00Z"},
		{Label: "outside range", StartTime: "2026-07-10T09:00:00Z", EndTime: "2026-07-10T10:00:00Z"},
	}

	blocks := Normalize(testLogger(), events, queryRange(t), Policy{})
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Label != "earlier" || blocks[1].Label != "later" {
		t.Fatalf("blocks not sorted by start: %q, %q", blocks[0].Label, blocks[1].Label)
	}
}

func TestNormalize_ConvertsToUTC(t *testing.T) {
	// 14:30+05:30 is 09:00 UTC.
	events := []RawEvent{
		{Label: "ist event", StartTime: "2026-06-25T14:30:00+05:30", EndTime: "2026-06-25T15:30:00+05:30"},
	}
	blocks := Normalize(testLogger(), events, queryRange(t), Policy{})
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	want := time.Date(2026, 6, 25, 9, 0, 0, 0, time.UTC)
	if !blocks[0].Start.Equal(want) || blocks[0].Start.Location() != time.UTC {
		t.Fatalf("expected UTC start %s, got %s", want, blocks[0].Start)
	}
}

func TestNormalize_AllDayExcludedByDefault(t *testing.T) {
	events := []RawEvent{
		{Label: "conference", StartDate: "2026-06-24"},
		{Label: "standup", StartTime: "2026-06-24T10:00:00Z", EndTime: "2026-06-24T10:15:00Z"},
	}

	blocks := Normalize(testLogger(), events, queryRange(t), Policy{})
	if len(blocks) != 1 || blocks[0].Label != "standup" {
		t.Fatalf("all-day event leaked into carving list: %+v", blocks)
	}

	blocking := Normalize(testLogger(), events, queryRange(t), Policy{AllDayBlocks: true})
	if len(blocking) != 2 {
		t.Fatalf("expected all-day block under AllDayBlocks policy, got %d blocks", len(blocking))
	}
	if !blocking[0].AllDay {
		t.Fatal("whole-day event must be flagged AllDay")
	}
}

func TestNormalize_FlagsLongTimedEventAllDay(t *testing.T) {
	events := []RawEvent{
		{Label: "offsite", StartTime: "2026-06-24T00:00:00Z", EndTime: "2026-06-25T06:00:00Z"},
	}
	blocks := Normalize(testLogger(), events, queryRange(t), Policy{AllDayBlocks: true})
	if len(blocks) != 1 || !blocks[0].AllDay {
		t.Fatalf("30-hour event must be flagged all-day: %+v", blocks)
	}
}

func TestNormalize_SkipsMalformed(t *testing.T) {
	events := []RawEvent{
		{Label: "no times at all"},
		{Label: "garbage instants", StartTime: "not-a-time", EndTime: "2026-06-24T10:00:00Z"},
		{Label: "reversed", StartTime: "2026-06-24T11:00:00Z", EndTime: "2026-06-24T10:00:00Z"},
		{Label: "good", StartTime: "2026-06-24T10:00:00Z", EndTime: "2026-06-24T11:00:00Z"},
	}
	blocks := Normalize(testLogger(), events, queryRange(t), Policy{})
	if len(blocks) != 1 || blocks[0].Label != "good" {
		t.Fatalf("malformed events must be skipped, not abort the batch: %+v", blocks)
	}
}

func TestAllDay(t *testing.T) {
	events := []RawEvent{
		{Label: "conference", StartDate: "2026-06-24", EndDate: "2026-06-26"},
		{Label: "standup", StartTime: "2026-06-24T10:00:00Z", EndTime: "2026-06-24T10:15:00Z"},
	}
	blocks := AllDay(testLogger(), events, queryRange(t))
	if len(blocks) != 1 || blocks[0].Label != "conference" {
		t.Fatalf("expected only the all-day block: %+v", blocks)
	}
	if got := blocks[0].Duration(); got != 48*time.Hour {
		t.Fatalf("expected 48h span, got %s", got)
	}
}

package busy

import (
	"log/slog"
	"sort"
	"time"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/interval"
)

// RawEvent is the calendar provider's wire shape. Timed events carry RFC3339
// instants in StartTime/EndTime; whole-day events carry YYYY-MM-DD dates in
// StartDate/EndDate instead. Third-party calendar data is not always well
// formed, so every field is optional at this layer.
type RawEvent struct {
	Label     string `json:"label"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Block is a normalized busy span in UTC.
type Block struct {
	interval.Interval
	Label  string
	AllDay bool
}

// Policy controls how whole-day spans participate in slot carving.
// The source system treats all-day events as non-blocking; that stays the
// default but is a policy choice, not a rule.
type Policy struct {
	AllDayBlocks bool
}

// Normalize converts raw provider events into busy blocks restricted to rng,
// sorted by start. Events at or over 24 hours are flagged all-day and, unless
// the policy says otherwise, excluded from the returned carving list.
// Malformed events are skipped with a warning; one bad record must not sink
// the batch. Merging overlapping blocks is the slot generator's job.
func Normalize(logger *slog.Logger, events []RawEvent, rng interval.Interval, pol Policy) []Block {
	blocks := make([]Block, 0, len(events))
	for _, ev := range events {
		iv, ok := parseEventTimes(ev)
		if !ok {
			logger.Warn("skipping malformed calendar event", "label", ev.Label)
			continue
		}
		iv = iv.UTC()
		if !iv.Overlaps(rng) {
			continue
		}
		allDay := iv.Duration() >= 24*time.Hour
		if allDay && !pol.AllDayBlocks {
			continue
		}
		blocks = append(blocks, Block{Interval: iv, Label: ev.Label, AllDay: allDay})
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Start.Before(blocks[j].Start)
	})
	return blocks
}

// AllDay returns the all-day blocks intersecting rng regardless of policy,
// for consumers that need full-day semantics separately.
func AllDay(logger *slog.Logger, events []RawEvent, rng interval.Interval) []Block {
	blocks := make([]Block, 0)
	for _, ev := range events {
		iv, ok := parseEventTimes(ev)
		if !ok {
			logger.Warn("skipping malformed calendar event", "label", ev.Label)
			continue
		}
		iv = iv.UTC()
		if !iv.Overlaps(rng) || iv.Duration() < 24*time.Hour {
			continue
		}
		blocks = append(blocks, Block{Interval: iv, Label: ev.Label, AllDay: true})
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Start.Before(blocks[j].Start)
	})
	return blocks
}

func parseEventTimes(ev RawEvent) (interval.Interval, bool) {
	if ev.StartTime != "" && ev.EndTime != "" {
		start, err := time.Parse(time.RFC3339, ev.StartTime)
		if err != nil {
			return interval.Interval{}, false
		}
		end, err := time.Parse(time.RFC3339, ev.EndTime)
		if err != nil {
			return interval.Interval{}, false
		}
		iv, err := interval.New(start, end)
		if err != nil {
			return interval.Interval{}, false
		}
		return iv, true
	}

	if ev.StartDate != "" {
		start, err := time.ParseInLocation("2006-01-02", ev.StartDate, time.UTC)
		if err != nil {
			return interval.Interval{}, false
		}
		end := start.AddDate(0, 0, 1)
		if ev.EndDate != "" {
			end, err = time.ParseInLocation("2006-01-02", ev.EndDate, time.UTC)
			if err != nil {
				return interval.Interval{}, false
			}
		}
		iv, err := interval.New(start, end)
		if err != nil {
			return interval.Interval{}, false
		}
		return iv, true
	}

	return interval.Interval{}, false
}

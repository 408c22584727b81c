package slots

import (
	"fmt"
	"time"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/busy"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/interval"
)

// DefaultStride is the generation stride: candidate starts are spaced an hour
// apart inside a free gap, matching natural meeting start times, rather than
// packed back to back.
const DefaultStride = 60 * time.Minute

// Candidate is a bookable slot of exactly the requested duration. Immutable
// once emitted.
type Candidate struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DisplayText string    `json:"display_text"`
}

// Generate walks one day window minus its busy blocks and emits candidate
// slots of length duration at the given stride. The first slot of each free
// gap starts exactly at the gap start, even off the hour, so time freed right
// after a meeting stays offerable. DisplayText is rendered in display.
//
// Output is fully determined by the inputs; an empty gap set yields an empty
// (non-nil-safe to range) slice, never an error.
func Generate(win interval.Interval, blocks []busy.Block, duration, stride time.Duration, display *time.Location) []Candidate {
	if duration <= 0 {
		return nil
	}
	if stride <= 0 {
		stride = DefaultStride
	}
	if display == nil {
		display = time.UTC
	}

	spans := mergedSpans(win, blocks)

	var out []Candidate
	cursor := win.Start
	for _, span := range spans {
		if cursor.Before(span.Start) {
			out = appendGapSlots(out, cursor, span.Start, duration, stride, display)
		}
		if span.End.After(cursor) {
			cursor = span.End
		}
	}
	if cursor.Before(win.End) {
		out = appendGapSlots(out, cursor, win.End, duration, stride, display)
	}
	return out
}

// mergedSpans clips each block to the window and merges overlapping or
// adjacent spans into maximal busy runs, ordered by start. Blocks arrive
// sorted from the normalizer; merging happens here because only the generator
// cares about maximal runs.
func mergedSpans(win interval.Interval, blocks []busy.Block) []interval.Interval {
	var spans []interval.Interval
	for _, b := range blocks {
		clipped, ok := b.Clamp(win)
		if !ok {
			continue
		}
		if n := len(spans); n > 0 && !clipped.Start.After(spans[n-1].End) {
			if clipped.End.After(spans[n-1].End) {
				spans[n-1].End = clipped.End
			}
			continue
		}
		spans = append(spans, clipped)
	}
	return spans
}

func appendGapSlots(out []Candidate, gapStart, gapEnd time.Time, duration, stride time.Duration, display *time.Location) []Candidate {
	for start := gapStart; !start.Add(duration).After(gapEnd); start = start.Add(stride) {
		end := start.Add(duration)
		out = append(out, Candidate{
			Start:       start,
			End:         end,
			DisplayText: FormatRange(start, end, display),
		})
	}
	return out
}

// FormatRange renders "<Weekday>, <Month> <Day> from <start> to <end> <Zone>".
func FormatRange(start, end time.Time, display *time.Location) string {
	s := start.In(display)
	e := end.In(display)
	return fmt.Sprintf("%s from %s to %s %s",
		s.Format("Monday, January 2"),
		clockText(s),
		clockText(e),
		s.Format("MST"),
	)
}

func clockText(t time.Time) string {
	// time.Format zero-pads the hour; presentation wants "9:00 AM".
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute(), t.Format("PM"))
}

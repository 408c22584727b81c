package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/busy"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/interval"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/slots"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/window"
)

// ErrCalendarUnavailable wraps any failure or timeout reaching the busy-event
// source. It must surface to the caller: "no slots" and "couldn't check" are
// different answers.
var ErrCalendarUnavailable = errors.New("calendar unavailable")

// Source supplies raw busy events for a range. Implementations own transport
// and auth; the engine only sees the event list or an error.
type Source interface {
	BusyEvents(ctx context.Context, calendarID string, rng interval.Interval) ([]busy.RawEvent, error)
}

// Request describes one availability search. Dates are calendar dates in the
// home zone; StartDate..EndDate is inclusive.
type Request struct {
	CalendarID      string
	DurationMinutes int
	StartDate       time.Time
	EndDate         time.Time
	Profile         window.Profile
	// StartHour/EndHour, when EndHour is set, replace the profile band with an
	// explicit wall-clock window.
	StartHour       int
	EndHour         int
	IncludeWeekends bool
	// TargetDate, when set, collapses the search to exactly that date,
	// overriding StartDate/EndDate.
	TargetDate *time.Time
}

// Engine runs availability searches against one busy-event source. It holds no
// state between calls, so a single Engine is safe for concurrent searches.
type Engine struct {
	source  Source
	logger  *slog.Logger
	home    *time.Location
	display *time.Location
	stride  time.Duration
	timeout time.Duration
	policy  busy.Policy
}

type Config struct {
	Home    *time.Location
	Display *time.Location
	Stride  time.Duration
	// Timeout bounds the single busy-event fetch. The engine never retries;
	// retry policy belongs to the calendar client.
	Timeout time.Duration
	Policy  busy.Policy
}

func NewEngine(source Source, logger *slog.Logger, cfg Config) *Engine {
	if cfg.Home == nil {
		cfg.Home = time.UTC
	}
	if cfg.Display == nil {
		cfg.Display = cfg.Home
	}
	if cfg.Stride <= 0 {
		cfg.Stride = slots.DefaultStride
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Engine{
		source:  source,
		logger:  logger,
		home:    cfg.Home,
		display: cfg.Display,
		stride:  cfg.Stride,
		timeout: cfg.Timeout,
		policy:  cfg.Policy,
	}
}

// Search produces the date-ordered candidate list for req. One fetch covers
// the whole range; busy blocks are partitioned per day window afterwards.
func (e *Engine) Search(ctx context.Context, req Request) ([]slots.Candidate, error) {
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d", req.DurationMinutes)
	}

	startDate, endDate := req.StartDate, req.EndDate
	if req.TargetDate != nil {
		startDate, endDate = *req.TargetDate, *req.TargetDate
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("end date %s before start date %s",
			endDate.Format("2006-01-02"), startDate.Format("2006-01-02"))
	}

	startWin, err := e.windowFor(startDate, req)
	if err != nil {
		return nil, err
	}
	endWin, err := e.windowFor(endDate, req)
	if err != nil {
		return nil, err
	}
	rng, err := interval.New(startWin.Start, endWin.End)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	events, err := e.source.BusyEvents(fetchCtx, req.CalendarID, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}

	blocks := busy.Normalize(e.logger, events, rng, e.policy)
	if !e.policy.AllDayBlocks {
		if allDay := busy.AllDay(e.logger, events, rng); len(allDay) > 0 {
			e.logger.Debug("ignoring all-day events in range",
				"calendar_id", req.CalendarID, "count", len(allDay))
		}
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute

	var out []slots.Candidate
	for date := startDate; !date.After(endDate); date = date.AddDate(0, 0, 1) {
		// An explicit target date is the most specific intent; the weekend
		// skip only applies when iterating a plain range.
		if req.TargetDate == nil && !req.IncludeWeekends && isWeekend(date) {
			continue
		}
		win, err := e.windowFor(date, req)
		if err != nil {
			return nil, err
		}
		out = append(out, slots.Generate(win, blocksFor(blocks, win), duration, e.stride, e.display)...)
	}
	return out, nil
}

func (e *Engine) windowFor(date time.Time, req Request) (interval.Interval, error) {
	if req.EndHour > 0 {
		return window.ForClock(date, req.StartHour, req.EndHour, e.home)
	}
	return window.ForDate(date, req.Profile, e.home), nil
}

// blocksFor keeps the blocks intersecting one day window. Input order is
// preserved, so the per-day list stays sorted by start.
func blocksFor(blocks []busy.Block, win interval.Interval) []busy.Block {
	var day []busy.Block
	for _, b := range blocks {
		if b.Overlaps(win) {
			day = append(day, b)
		}
	}
	return day
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

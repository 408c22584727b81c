package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/clients"
	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/llm"
	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/nlp"
	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/session"
)

const maxPresented = 5

type Availability interface {
	Search(ctx context.Context, p clients.SearchParams) ([]clients.Slot, error)
	Filter(ctx context.Context, p clients.FilterParams) ([]clients.Slot, error)
}

type Calendar interface {
	CreateEvent(ctx context.Context, calendarID, title, description, startTime, endTime, idempotencyKey string) (string, error)
}

type Config struct {
	CalendarID string
	DaysAhead  int
	Timezone   *time.Location
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// Engine drives one conversation turn: extract, merge, act by phase, reply.
type Engine struct {
	availability Availability
	calendar     Calendar
	extractor    llm.Extractor
	replier      llm.ReplyGenerator
	logger       *slog.Logger
	cfg          Config
}

func NewEngine(availability Availability, calendar Calendar, extractor llm.Extractor, replier llm.ReplyGenerator, logger *slog.Logger, cfg Config) *Engine {
	if cfg.DaysAhead <= 0 {
		cfg.DaysAhead = 14
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		availability: availability,
		calendar:     calendar,
		extractor:    extractor,
		replier:      replier,
		logger:       logger,
		cfg:          cfg,
	}
}

// HandleTurn processes one user utterance and returns the updated state with
// the assistant's reply.
func (e *Engine) HandleTurn(ctx context.Context, s session.State, utterance string) (session.State, string) {
	now := e.cfg.Now().In(e.cfg.Timezone)

	extracted := e.extractor.Extract(ctx, utterance, ContextSummary(s), now)
	s = session.Merge(s, extracted)

	switch s.Phase {
	case session.PhaseCollectDuration:
		return e.collectDuration(ctx, s, utterance)
	case session.PhaseCollectPreferences:
		return e.searchAndPresent(ctx, s, false)
	case session.PhasePresentSlots:
		return e.presentPhase(ctx, s, utterance, extracted)
	case session.PhaseDone:
		return s, "Your meeting is already booked. Start a new session to schedule another one."
	default:
		return s, fmt.Sprintf("I lost track of the conversation (%s). Could you start over?", s.Phase)
	}
}

func (e *Engine) collectDuration(ctx context.Context, s session.State, utterance string) (session.State, string) {
	if s.DurationMinutes <= 0 {
		reply := e.replier.Reply(ctx, ContextSummary(s), utterance)
		return s, reply
	}

	// A single utterance like "1 hour tomorrow afternoon" skips the
	// preference question entirely.
	if len(s.Days) > 0 || len(s.Times) > 0 || s.TargetDate != nil {
		s.Phase = session.PhaseCollectPreferences
		return e.searchAndPresent(ctx, s, false)
	}

	s.Phase = session.PhaseCollectPreferences
	return s, fmt.Sprintf("Perfect! I'll look for a %s slot. Do you have any preferred days or times? For example, 'Tuesday afternoon' or 'weekday mornings'.",
		durationText(s.DurationMinutes))
}

func (e *Engine) presentPhase(ctx context.Context, s session.State, utterance string, extracted nlp.Extracted) (session.State, string) {
	if idx, ok := nlp.ParseSelection(utterance, len(s.Presented)); ok {
		return e.book(ctx, s, idx)
	}
	if extracted.Intent == nlp.IntentAlternatives {
		return e.searchAndPresent(ctx, s, true)
	}
	// Anything else is treated as refined preferences.
	return e.searchAndPresent(ctx, s, false)
}

func (e *Engine) searchAndPresent(ctx context.Context, s session.State, alternatives bool) (session.State, string) {
	if s.DurationMinutes <= 0 {
		s.Phase = session.PhaseCollectDuration
		return s, "I need to know the meeting duration first. How long should the meeting be?"
	}

	now := e.cfg.Now().In(e.cfg.Timezone)
	params := clients.SearchParams{
		CalendarID:      e.cfg.CalendarID,
		DurationMinutes: s.DurationMinutes,
		StartDate:       now.Format("2006-01-02"),
		EndDate:         now.AddDate(0, 0, e.cfg.DaysAhead).Format("2006-01-02"),
		Profile:         "full_day",
		IncludeWeekends: wantsWeekend(s.Days),
	}
	if s.TargetDate != nil {
		params.TargetDate = s.TargetDate.Format("2006-01-02")
	}

	all, err := e.availability.Search(ctx, params)
	if err != nil {
		e.logger.Error("availability search failed", "err", err)
		return s, "I'm having trouble accessing the calendar right now. Could you please try again in a moment?"
	}
	if len(all) == 0 {
		return s, "I'm sorry, I couldn't find any available slots in that time range. Would you like me to check a different period?"
	}
	s.All = toSessionSlots(all)

	if alternatives {
		// The user rejected the filtered list; show the widest view instead.
		s.Presented = toSessionSlots(limitOptions(all))
		s.Phase = session.PhasePresentSlots
		return s, format(s.Presented, "Here are some other options:")
	}

	filtered, err := e.availability.Filter(ctx, clients.FilterParams{
		Slots:       all,
		Days:        s.Days,
		Times:       s.Times,
		Constraints: s.Constraints,
		TargetDate:  params.TargetDate,
	})
	if err != nil {
		e.logger.Error("availability filter failed", "err", err)
		filtered = nil
	}

	if len(filtered) == 0 {
		s.Presented = toSessionSlots(limitOptions(all))
		s.Phase = session.PhasePresentSlots
		return s, format(s.Presented, "I couldn't find slots matching your exact preferences, but here are some alternatives:")
	}

	s.Presented = toSessionSlots(limitOptions(filtered))
	s.Phase = session.PhasePresentSlots
	return s, format(s.Presented, "Great! I found these available times:")
}

func (e *Engine) book(ctx context.Context, s session.State, idx int) (session.State, string) {
	slot := s.Presented[idx-1]

	title := fmt.Sprintf("Meeting (%d min)", s.DurationMinutes)
	idempotencyKey := s.ID + "#" + slot.StartTime
	eventID, err := e.calendar.CreateEvent(ctx, e.cfg.CalendarID, title,
		"Scheduled via assistant", slot.StartTime, slot.EndTime, idempotencyKey)
	if err != nil {
		e.logger.Error("event creation failed", "err", err)
		return s, "I had trouble creating the calendar event. Would you like to try a different time slot?"
	}

	s.ConfirmedEvent = eventID
	s.Phase = session.PhaseDone
	return s, fmt.Sprintf("Perfect! I've scheduled your meeting for %s. It has been added to your calendar.", slot.DisplayText)
}

// ContextSummary renders the state for LLM prompts.
func ContextSummary(s session.State) string {
	var parts []string
	if s.DurationMinutes > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %d minutes", s.DurationMinutes))
	}
	if len(s.Days) > 0 {
		parts = append(parts, "Preferred days: "+strings.Join(s.Days, ", "))
	}
	if len(s.Times) > 0 {
		parts = append(parts, "Preferred times: "+strings.Join(s.Times, ", "))
	}
	if len(s.Constraints) > 0 {
		parts = append(parts, "Constraints: "+strings.Join(s.Constraints, ", "))
	}
	if s.TargetDate != nil {
		parts = append(parts, "Target date: "+s.TargetDate.Format("2006-01-02"))
	}
	if len(s.Presented) > 0 {
		parts = append(parts, fmt.Sprintf("Available slots shown: %d", len(s.Presented)))
	}
	if len(parts) == 0 {
		return "No specific preferences set"
	}
	return strings.Join(parts, " | ")
}

func limitOptions(slots []clients.Slot) []clients.Slot {
	if len(slots) > maxPresented {
		return slots[:maxPresented]
	}
	return slots
}

func toSessionSlots(slots []clients.Slot) []session.Slot {
	out := make([]session.Slot, len(slots))
	for i, s := range slots {
		out[i] = session.Slot(s)
	}
	return out
}

func format(slots []session.Slot, intro string) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n")
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, slot.DisplayText)
	}
	b.WriteString("\nWhich option works best for you? You can say the number or something like 'the first one'.")
	return b.String()
}

func durationText(minutes int) string {
	switch {
	case minutes == 60:
		return "1 hour"
	case minutes < 60:
		return fmt.Sprintf("%d minute", minutes)
	case minutes%60 == 0:
		return fmt.Sprintf("%d hour", minutes/60)
	default:
		return fmt.Sprintf("%d hour %d minute", minutes/60, minutes%60)
	}
}

func wantsWeekend(days []string) bool {
	for _, d := range days {
		if d == "saturday" || d == "sunday" {
			return true
		}
	}
	return false
}

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/prefs"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/search"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/slots"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/window"
)

type AvailabilityHandler struct {
	engine  *search.Engine
	logger  *slog.Logger
	home    *time.Location
	display *time.Location
}

func NewAvailabilityHandler(engine *search.Engine, logger *slog.Logger, home, display *time.Location) *AvailabilityHandler {
	return &AvailabilityHandler{engine: engine, logger: logger, home: home, display: display}
}

type searchRequest struct {
	CalendarID      string `json:"calendar_id"`
	DurationMinutes int    `json:"duration_minutes"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Profile         string `json:"profile"`
	StartHour       int    `json:"start_hour,omitempty"`
	EndHour         int    `json:"end_hour,omitempty"`
	IncludeWeekends bool   `json:"include_weekends"`
	TargetDate      string `json:"target_date,omitempty"`
}

type slotItem struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DisplayText string `json:"display_text"`
}

// Search runs one availability search and returns the full date-ordered
// candidate list. Preference filtering is a separate call so the conversation
// layer can re-filter the same candidates without re-fetching the calendar.
func (h *AvailabilityHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.CalendarID = strings.TrimSpace(req.CalendarID)
	if req.CalendarID == "" {
		http.Error(w, "calendar_id required", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes <= 0 || req.DurationMinutes > 8*60 {
		http.Error(w, "duration_minutes must be in 1..480", http.StatusBadRequest)
		return
	}
	profile, err := window.ParseProfile(strings.TrimSpace(req.Profile))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	startDate, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.StartDate), h.home)
	if err != nil {
		http.Error(w, "invalid start_date", http.StatusBadRequest)
		return
	}
	endDate, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.EndDate), h.home)
	if err != nil {
		http.Error(w, "invalid end_date", http.StatusBadRequest)
		return
	}

	engineReq := search.Request{
		CalendarID:      req.CalendarID,
		DurationMinutes: req.DurationMinutes,
		StartDate:       startDate,
		EndDate:         endDate,
		Profile:         profile,
		StartHour:       req.StartHour,
		EndHour:         req.EndHour,
		IncludeWeekends: req.IncludeWeekends,
	}
	if req.EndHour > 0 && (req.StartHour < 0 || req.StartHour >= req.EndHour || req.EndHour > 24) {
		http.Error(w, "start_hour/end_hour must satisfy 0 <= start < end <= 24", http.StatusBadRequest)
		return
	}
	if raw := strings.TrimSpace(req.TargetDate); raw != "" {
		target, err := time.ParseInLocation("2006-01-02", raw, h.home)
		if err != nil {
			http.Error(w, "invalid target_date", http.StatusBadRequest)
			return
		}
		engineReq.TargetDate = &target
	}

	candidates, err := h.engine.Search(r.Context(), engineReq)
	if err != nil {
		if errors.Is(err, search.ErrCalendarUnavailable) {
			h.logger.Error("calendar fetch failed", "err", err)
			http.Error(w, "calendar unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, toSlotItems(candidates))
}

type filterRequest struct {
	Slots       []slotItem `json:"slots"`
	Days        []string   `json:"days,omitempty"`
	Times       []string   `json:"times,omitempty"`
	Constraints []string   `json:"constraints,omitempty"`
	TargetDate  string     `json:"target_date,omitempty"`
}

// Filter applies a preference record to a previously returned candidate list.
func (h *AvailabilityHandler) Filter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	rec, err := h.recordFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	candidates := make([]slots.Candidate, 0, len(req.Slots))
	for _, s := range req.Slots {
		start, err := time.Parse(time.RFC3339, s.StartTime)
		if err != nil {
			http.Error(w, "invalid slot start_time", http.StatusBadRequest)
			return
		}
		end, err := time.Parse(time.RFC3339, s.EndTime)
		if err != nil {
			http.Error(w, "invalid slot end_time", http.StatusBadRequest)
			return
		}
		candidates = append(candidates, slots.Candidate{Start: start, End: end, DisplayText: s.DisplayText})
	}

	writeJSON(w, http.StatusOK, toSlotItems(prefs.Filter(candidates, rec, h.display)))
}

func (h *AvailabilityHandler) recordFromRequest(req filterRequest) (prefs.Record, error) {
	var rec prefs.Record
	for _, d := range req.Days {
		day, err := prefs.ParseWeekday(d)
		if err != nil {
			return prefs.Record{}, err
		}
		rec.Days = append(rec.Days, day)
	}
	for _, t := range req.Times {
		tod, err := prefs.ParseTimeOfDay(t)
		if err != nil {
			return prefs.Record{}, err
		}
		rec.Times = append(rec.Times, tod)
	}
	for _, c := range req.Constraints {
		constraint, err := prefs.ParseConstraint(c)
		if err != nil {
			return prefs.Record{}, err
		}
		rec.Constraints = append(rec.Constraints, constraint)
	}
	if raw := strings.TrimSpace(req.TargetDate); raw != "" {
		target, err := time.ParseInLocation("2006-01-02", raw, h.display)
		if err != nil {
			return prefs.Record{}, errors.New("invalid target_date")
		}
		rec.TargetDate = &target
	}
	return rec, nil
}

func toSlotItems(candidates []slots.Candidate) []slotItem {
	items := make([]slotItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, slotItem{
			StartTime:   c.Start.UTC().Format(time.RFC3339),
			EndTime:     c.End.UTC().Format(time.RFC3339),
			DisplayText: c.DisplayText,
		})
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

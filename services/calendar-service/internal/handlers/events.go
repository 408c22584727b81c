package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/meetwise-labs/meetwise/services/calendar-service/internal/model"
	"github.com/meetwise-labs/meetwise/services/calendar-service/internal/outbox"
	"github.com/meetwise-labs/meetwise/services/calendar-service/internal/storage"
)

type EventHandler struct {
	repo       *storage.EventRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewEventHandler(repo *storage.EventRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *EventHandler {
	return &EventHandler{repo: repo, outboxRepo: outboxRepo, logger: logger}
}

type createEventRequest struct {
	CalendarID  string `json:"calendar_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type createEventResponse struct {
	EventID string `json:"event_id"`
}

type cancelEventRequest struct {
	CalendarID string `json:"calendar_id"`
	EventID    string `json:"event_id"`
}

type cancelEventResponse struct {
	EventID     string `json:"event_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
}

// eventItem mirrors the wire shape the availability engine consumes: timed
// events carry instants, all-day events carry date-only values.
type eventItem struct {
	Label     string `json:"label"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// List returns confirmed events overlapping [from, to) for one calendar.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	calendarID := strings.TrimSpace(r.URL.Query().Get("calendar_id"))
	if calendarID == "" {
		http.Error(w, "calendar_id required", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	events, err := h.repo.ListBetween(r.Context(), calendarID, from, to)
	if err != nil {
		h.logger.Error("list events failed", "err", err)
		http.Error(w, "failed to list events", http.StatusInternalServerError)
		return
	}

	items := make([]eventItem, 0, len(events))
	for _, evt := range events {
		items = append(items, toEventItem(evt))
	}
	writeJSON(w, http.StatusOK, items)
}

// Create books one event. Overlap with an existing confirmed timed event maps
// to 409; an Idempotency-Key header makes retries return the first outcome.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.CalendarID = strings.TrimSpace(req.CalendarID)
	req.Title = strings.TrimSpace(req.Title)
	if req.CalendarID == "" || req.Title == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	evt, err := eventFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.repo.LockIdempotencyKey(ctx, tx, evt.CalendarID, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.EventID != "" && rec.StatusCode > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			if len(rec.ResponsePayload) > 0 {
				_, _ = w.Write(rec.ResponsePayload)
				return
			}
			_ = json.NewEncoder(w).Encode(createEventResponse{EventID: rec.EventID})
			return
		}
	}

	id, err := h.repo.Create(ctx, tx, evt)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		h.logger.Error("create event failed", "err", err)
		http.Error(w, "failed to create event", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"event_id":    id,
		"calendar_id": evt.CalendarID,
		"title":       evt.Title,
		"start_time":  evt.StartTime.Format(time.RFC3339),
		"end_time":    evt.EndTime.Format(time.RFC3339),
		"all_day":     evt.AllDay,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "calendar_event",
		AggregateID:   id,
		EventType:     "calendar.event.created.v1",
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	respBody, err := json.Marshal(createEventResponse{EventID: id})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.repo.FinalizeIdempotency(ctx, tx, evt.CalendarID, idempotencyKey, id, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

// Cancel marks an event cancelled and emits the cancellation event. Cancelling
// an already-cancelled event returns the prior state.
func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CalendarID = strings.TrimSpace(req.CalendarID)
	req.EventID = strings.TrimSpace(req.EventID)
	if req.CalendarID == "" || req.EventID == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	evt, err := h.repo.GetEventForUpdate(ctx, tx, req.CalendarID, req.EventID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if evt.Status == model.StatusCancelled {
		cancelledAt := ""
		if evt.CancelledAt != nil {
			cancelledAt = evt.CancelledAt.UTC().Format(time.RFC3339)
		}
		writeJSON(w, http.StatusOK, cancelEventResponse{EventID: evt.ID, Status: evt.Status, CancelledAt: cancelledAt})
		return
	}

	cancelledAt, err := h.repo.CancelEvent(ctx, tx, req.CalendarID, req.EventID)
	if err != nil {
		http.Error(w, "failed to cancel event", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"event_id":    evt.ID,
		"calendar_id": evt.CalendarID,
		"start_time":  evt.StartTime.Format(time.RFC3339),
		"end_time":    evt.EndTime.Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "calendar_event",
		AggregateID:   evt.ID,
		EventType:     "calendar.event.cancelled.v1",
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, cancelEventResponse{
		EventID:     evt.ID,
		Status:      model.StatusCancelled,
		CancelledAt: cancelledAt.UTC().Format(time.RFC3339),
	})
}

func eventFromRequest(req createEventRequest) (*model.Event, error) {
	evt := &model.Event{
		CalendarID:  req.CalendarID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Status:      model.StatusConfirmed,
	}

	if req.StartDate != "" || req.EndDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, errInvalid("invalid start_date")
		}
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, errInvalid("invalid end_date")
		}
		if !end.After(start) {
			return nil, errInvalid("end_date must be after start_date")
		}
		evt.StartTime = start
		evt.EndTime = end
		evt.AllDay = true
		return evt, nil
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, errInvalid("invalid start_time")
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return nil, errInvalid("invalid end_time")
	}
	if !end.After(start) {
		return nil, errInvalid("end_time must be after start_time")
	}
	evt.StartTime = start.UTC()
	evt.EndTime = end.UTC()
	return evt, nil
}

func toEventItem(evt model.Event) eventItem {
	item := eventItem{Label: evt.Title}
	if evt.AllDay {
		item.StartDate = evt.StartTime.UTC().Format("2006-01-02")
		item.EndDate = evt.EndTime.UTC().Format("2006-01-02")
		return item
	}
	item.StartTime = evt.StartTime.UTC().Format(time.RFC3339)
	item.EndTime = evt.EndTime.UTC().Format(time.RFC3339)
	return item
}

type errInvalid string

func (e errInvalid) Error() string { return string(e) }

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

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meetwise-labs/meetwise/services/assistant-service/internal/session"
)

// Turner is the conversation engine seam.
type Turner interface {
	HandleTurn(ctx context.Context, s session.State, utterance string) (session.State, string)
}

type SessionHandler struct {
	store  *session.Store
	engine Turner
	logger *slog.Logger
}

func NewSessionHandler(store *session.Store, engine Turner, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{store: store, engine: engine, logger: logger}
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Reply string        `json:"reply"`
	State stateSnapshot `json:"state"`
}

type stateSnapshot struct {
	Phase           string         `json:"phase"`
	Version         int            `json:"version"`
	DurationMinutes int            `json:"duration_minutes,omitempty"`
	Days            []string       `json:"days,omitempty"`
	Times           []string       `json:"times,omitempty"`
	Constraints     []string       `json:"constraints,omitempty"`
	TargetDate      string         `json:"target_date,omitempty"`
	Presented       []session.Slot `json:"presented,omitempty"`
	ConfirmedEvent  string         `json:"confirmed_event,omitempty"`
}

// Create opens a new conversation and returns its id with the greeting.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s := h.store.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: s.ID,
		Greeting:  "Hello! I can help you find and schedule a meeting. What would you like to schedule?",
	})
}

// Message routes one user utterance through the conversation engine.
// The path is /api/v1/sessions/{id}/messages.
func (h *SessionHandler) Message(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := sessionIDFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		http.Error(w, "text required", http.StatusBadRequest)
		return
	}

	s, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "session lookup failed", http.StatusInternalServerError)
		return
	}

	s, reply := h.engine.HandleTurn(r.Context(), s, req.Text)
	h.store.Put(s)

	writeJSON(w, http.StatusOK, messageResponse{Reply: reply, State: snapshot(s)})
}

func sessionIDFromPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/api/v1/sessions/")
	if !ok {
		return "", false
	}
	id, tail, ok := strings.Cut(rest, "/")
	if !ok || tail != "messages" || id == "" {
		return "", false
	}
	return id, true
}

func snapshot(s session.State) stateSnapshot {
	snap := stateSnapshot{
		Phase:           string(s.Phase),
		Version:         s.Version,
		DurationMinutes: s.DurationMinutes,
		Days:            s.Days,
		Times:           s.Times,
		Constraints:     s.Constraints,
		Presented:       s.Presented,
		ConfirmedEvent:  s.ConfirmedEvent,
	}
	if s.TargetDate != nil {
		snap.TargetDate = s.TargetDate.Format("2006-01-02")
	}
	return snap
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

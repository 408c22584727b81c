package calendarclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/busy"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/interval"
)

func TestBusyEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("calendar_id") != "primary" {
			t.Errorf("missing calendar_id, got %q", r.URL.Query().Get("calendar_id"))
		}
		if _, err := time.Parse(time.RFC3339, r.URL.Query().Get("from")); err != nil {
			t.Errorf("from is not RFC3339: %v", err)
		}
		_ = json.NewEncoder(w).Encode([]busy.RawEvent{
			{Label: "standup", StartTime: "2026-06-22T09:00:00Z", EndTime: "2026-06-22T09:15:00Z"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	rng, _ := interval.New(
		time.Date(2026, 6, 22, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 23, 0, 0, 0, 0, time.UTC),
	)
	events, err := c.BusyEvents(context.Background(), "primary", rng)
	if err != nil {
		t.Fatalf("BusyEvents: %v", err)
	}
	if len(events) != 1 || events[0].Label != "standup" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestBusyEvents_Non200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	rng, _ := interval.New(
		time.Date(2026, 6, 22, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 23, 0, 0, 0, 0, time.UTC),
	)
	if _, err := c.BusyEvents(context.Background(), "primary", rng); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestCreateEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Title != "Meeting (60 min)" {
			t.Errorf("unexpected title %q", req.Title)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createEventResponse{EventID: "evt-1"})
	}))
	defer srv.Close()

	c := New(srv.URL, 2*time.Second)
	start := time.Date(2026, 6, 22, 10, 0, 0, 0, time.UTC)
	id, err := c.CreateEvent(context.Background(), "primary", "Meeting (60 min)", "booked via assistant", start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if id != "evt-1" {
		t.Fatalf("unexpected event id %q", id)
	}
}

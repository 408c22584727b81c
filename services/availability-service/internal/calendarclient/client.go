package calendarclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meetwise-labs/meetwise/libs/httpx"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/busy"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/interval"
)

// Client talks to calendar-service over HTTP. It is the single boundary with
// the calendar provider; the search engine sees only busy events or an error.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BusyEvents fetches the raw events intersecting rng for one calendar.
func (c *Client) BusyEvents(ctx context.Context, calendarID string, rng interval.Interval) ([]busy.RawEvent, error) {
	q := url.Values{}
	q.Set("calendar_id", calendarID)
	q.Set("from", rng.Start.UTC().Format(time.RFC3339))
	q.Set("to", rng.End.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/events?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if id := httpx.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(httpx.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar-service returned %d", resp.StatusCode)
	}

	var events []busy.RawEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, err
	}
	return events, nil
}

type createEventRequest struct {
	CalendarID  string `json:"calendar_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

type createEventResponse struct {
	EventID string `json:"event_id"`
}

// CreateEvent books a confirmed slot into the calendar and returns the new
// event id.
func (c *Client) CreateEvent(ctx context.Context, calendarID, title, description string, start, end time.Time) (string, error) {
	body, err := json.Marshal(createEventRequest{
		CalendarID:  calendarID,
		Title:       title,
		Description: description,
		StartTime:   start.UTC().Format(time.RFC3339),
		EndTime:     end.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/events", strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if id := httpx.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(httpx.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("calendar-service returned %d", resp.StatusCode)
	}

	var out createEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.EventID, nil
}

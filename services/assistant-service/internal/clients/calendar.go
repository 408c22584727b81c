package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/meetwise-labs/meetwise/libs/httpx"
)

type CalendarClient struct {
	baseURL string
	http    *http.Client
}

func NewCalendarClient(baseURL string, timeout time.Duration) *CalendarClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CalendarClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// CreateEvent books the confirmed slot. idempotencyKey makes a retried
// confirmation turn book the event exactly once.
func (c *CalendarClient) CreateEvent(ctx context.Context, calendarID, title, description, startTime, endTime, idempotencyKey string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"calendar_id": calendarID,
		"title":       title,
		"description": description,
		"start_time":  startTime,
		"end_time":    endTime,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/events", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
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

	var out struct {
		EventID string `json:"event_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.EventID, nil
}

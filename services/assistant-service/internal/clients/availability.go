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

// Slot mirrors the availability-service wire shape.
type Slot struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DisplayText string `json:"display_text"`
}

// SearchParams selects the availability query for one conversation turn.
type SearchParams struct {
	CalendarID      string
	DurationMinutes int
	StartDate       string
	EndDate         string
	Profile         string
	IncludeWeekends bool
	TargetDate      string
}

// FilterParams narrows a slot list by the user's stated preferences.
type FilterParams struct {
	Slots       []Slot
	Days        []string
	Times       []string
	Constraints []string
	TargetDate  string
}

type AvailabilityClient struct {
	baseURL string
	http    *http.Client
}

func NewAvailabilityClient(baseURL string, timeout time.Duration) *AvailabilityClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AvailabilityClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *AvailabilityClient) Search(ctx context.Context, p SearchParams) ([]Slot, error) {
	body := map[string]any{
		"calendar_id":      p.CalendarID,
		"duration_minutes": p.DurationMinutes,
		"start_date":       p.StartDate,
		"end_date":         p.EndDate,
		"profile":          p.Profile,
		"include_weekends": p.IncludeWeekends,
	}
	if p.TargetDate != "" {
		body["target_date"] = p.TargetDate
	}
	var slots []Slot
	if err := c.post(ctx, "/api/v1/availability/search", body, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (c *AvailabilityClient) Filter(ctx context.Context, p FilterParams) ([]Slot, error) {
	body := map[string]any{
		"slots":       p.Slots,
		"days":        p.Days,
		"times":       p.Times,
		"constraints": p.Constraints,
	}
	if p.TargetDate != "" {
		body["target_date"] = p.TargetDate
	}
	var slots []Slot
	if err := c.post(ctx, "/api/v1/availability/filter", body, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (c *AvailabilityClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if id := httpx.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(httpx.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("availability-service returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

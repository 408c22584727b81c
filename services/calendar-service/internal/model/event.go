package model

import "time"

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Event is one calendar entry. All-day events carry midnight-to-midnight
// timestamps and the AllDay flag so the events API can render them as
// date-only values.
type Event struct {
	ID          string
	CalendarID  string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	AllDay      bool
	Status      string
	CancelledAt *time.Time
	CreatedAt   time.Time
}

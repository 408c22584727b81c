package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meetwise-labs/meetwise/libs/db"
	"github.com/meetwise-labs/meetwise/services/calendar-service/internal/model"
)

type EventRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	CalendarID      string
	IdempotencyKey  string
	EventID         string
	StatusCode      int
	ResponsePayload []byte
}

func NewEventRepository(pool *db.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *EventRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, calendarID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, calendarID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO event_idempotency_keys (calendar_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (calendar_id, idempotency_key) DO NOTHING
	`, calendarID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, calendarID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *EventRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, calendarID, key, eventID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE event_idempotency_keys
		SET event_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE calendar_id = $1 AND idempotency_key = $2
	`, calendarID, key, eventID, statusCode, response)
	return err
}

func (r *EventRepository) Create(ctx context.Context, tx pgx.Tx, evt *model.Event) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO calendar_events
			(calendar_id, title, description, start_time, end_time, all_day, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, evt.CalendarID, evt.Title, evt.Description, evt.StartTime, evt.EndTime, evt.AllDay, evt.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *EventRepository) GetEventForUpdate(ctx context.Context, tx pgx.Tx, calendarID, eventID string) (model.Event, error) {
	var evt model.Event
	var cancelledAt *time.Time
	err := tx.QueryRow(ctx, `
		SELECT id, calendar_id, title, COALESCE(description, ''),
			start_time, end_time, all_day, status, cancelled_at, created_at
		FROM calendar_events
		WHERE id = $1 AND calendar_id = $2
		FOR UPDATE
	`, eventID, calendarID).Scan(
		&evt.ID,
		&evt.CalendarID,
		&evt.Title,
		&evt.Description,
		&evt.StartTime,
		&evt.EndTime,
		&evt.AllDay,
		&evt.Status,
		&cancelledAt,
		&evt.CreatedAt,
	)
	if err != nil {
		return model.Event{}, err
	}
	evt.CancelledAt = cancelledAt
	return evt, nil
}

func (r *EventRepository) CancelEvent(ctx context.Context, tx pgx.Tx, calendarID, eventID string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE calendar_events
		SET status = 'cancelled',
			cancelled_at = now()
		WHERE id = $1 AND calendar_id = $2
		RETURNING cancelled_at
	`, eventID, calendarID).Scan(&cancelledAt)
	return cancelledAt, err
}

// ListBetween returns confirmed events overlapping [from, to), earliest first.
func (r *EventRepository) ListBetween(ctx context.Context, calendarID string, from, to time.Time) ([]model.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, calendar_id, title, COALESCE(description, ''),
			start_time, end_time, all_day, status, cancelled_at, created_at
		FROM calendar_events
		WHERE calendar_id = $1
			AND status = 'confirmed'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, calendarID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var evt model.Event
		var cancelledAt *time.Time
		if err := rows.Scan(
			&evt.ID,
			&evt.CalendarID,
			&evt.Title,
			&evt.Description,
			&evt.StartTime,
			&evt.EndTime,
			&evt.AllDay,
			&evt.Status,
			&cancelledAt,
			&evt.CreatedAt,
		); err != nil {
			return nil, err
		}
		evt.CancelledAt = cancelledAt
		events = append(events, evt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

// IsConflict reports an exclusion-constraint violation, raised when a new
// timed event overlaps an existing confirmed one on the same calendar.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func (r *EventRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, calendarID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT calendar_id,
			idempotency_key,
			COALESCE(event_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM event_idempotency_keys
		WHERE calendar_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, calendarID, key).Scan(
		&rec.CalendarID,
		&rec.IdempotencyKey,
		&rec.EventID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}

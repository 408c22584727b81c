package consumer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type recordingInvalidator struct {
	calls []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, calendarID string, start, end time.Time) {
	r.calls = append(r.calls, calendarID+"|"+start.UTC().Format(time.RFC3339)+"|"+end.UTC().Format(time.RFC3339))
}

func testConsumer(inv Invalidator) *Consumer {
	return &Consumer{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:  inv,
	}
}

func TestHandle_InvalidatesOnWellFormedEvent(t *testing.T) {
	inv := &recordingInvalidator{}
	c := testConsumer(inv)

	c.handle(context.Background(), kafka.Message{
		Topic: "calendar.event.created.v1",
		Value: []byte(`{"calendar_id":"primary","start_time":"2026-06-22T10:00:00Z","end_time":"2026-06-22T11:00:00Z"}`),
	})

	if len(inv.calls) != 1 {
		t.Fatalf("expected one invalidation, got %d", len(inv.calls))
	}
	want := "primary|2026-06-22T10:00:00Z|2026-06-22T11:00:00Z"
	if inv.calls[0] != want {
		t.Fatalf("want %q, got %q", want, inv.calls[0])
	}
}

func TestHandle_SkipsMalformedPayloads(t *testing.T) {
	inv := &recordingInvalidator{}
	c := testConsumer(inv)

	for _, payload := range []string{
		`not json`,
		`{"start_time":"2026-06-22T10:00:00Z","end_time":"2026-06-22T11:00:00Z"}`,
		`{"calendar_id":"primary","start_time":"bogus","end_time":"2026-06-22T11:00:00Z"}`,
		`{"calendar_id":"primary","start_time":"2026-06-22T10:00:00Z","end_time":"bogus"}`,
	} {
		c.handle(context.Background(), kafka.Message{Topic: "calendar.event.created.v1", Value: []byte(payload)})
	}

	if len(inv.calls) != 0 {
		t.Fatalf("malformed payloads must not invalidate, got %v", inv.calls)
	}
}

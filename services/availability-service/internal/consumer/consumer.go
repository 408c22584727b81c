package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/meetwise-labs/meetwise/libs/kafkax"
)

// Invalidator is the cache side the consumer drives. Invalidation is
// idempotent, so duplicate deliveries are harmless and no inbox table is
// kept here.
type Invalidator interface {
	Invalidate(ctx context.Context, calendarID string, start, end time.Time)
}

// Consumer watches calendar event topics and drops the affected busy-cache
// days so the next search sees the change.
type Consumer struct {
	reader *kafka.Reader
	logger *slog.Logger
	cache  Invalidator
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
}

type eventPayload struct {
	CalendarID string `json:"calendar_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func New(logger *slog.Logger, cache Invalidator, cfg Config) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkax.SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, logger: logger, cache: cache}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
		ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", msg.Topic),
			),
		)

		c.handle(ctxSpan, msg)
		span.End()
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var payload eventPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		c.logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
		return
	}
	if payload.CalendarID == "" {
		c.logger.Error("event missing calendar_id", "topic", msg.Topic)
		return
	}
	start, err := time.Parse(time.RFC3339, payload.StartTime)
	if err != nil {
		c.logger.Error("event has bad start_time", "err", err, "topic", msg.Topic)
		return
	}
	end, err := time.Parse(time.RFC3339, payload.EndTime)
	if err != nil {
		c.logger.Error("event has bad end_time", "err", err, "topic", msg.Topic)
		return
	}

	meta := kafkax.ExtractEventMeta(msg)
	c.cache.Invalidate(ctx, payload.CalendarID, start, end)
	c.logger.Info("busy cache invalidated",
		"calendar_id", payload.CalendarID,
		"event_type", meta.EventType,
		"event_id", meta.EventID,
	)
}

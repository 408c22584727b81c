package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meetwise-labs/meetwise/services/availability-service/internal/busy"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/interval"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/search"
)

// BusySource is a read-through Redis cache in front of the calendar client.
// Entries are keyed per calendar and UTC day so a booked or cancelled event
// only invalidates the days it touches. Cache failures degrade to the
// underlying source: a cold cache must never look like an unavailable
// calendar.
type BusySource struct {
	inner  search.Source
	rdb    *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

func NewBusySource(inner search.Source, rdb *redis.Client, logger *slog.Logger, ttl time.Duration) *BusySource {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &BusySource{inner: inner, rdb: rdb, logger: logger, ttl: ttl}
}

func (s *BusySource) BusyEvents(ctx context.Context, calendarID string, rng interval.Interval) ([]busy.RawEvent, error) {
	key := rangeKey(calendarID, rng)

	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var events []busy.RawEvent
		if err := json.Unmarshal(raw, &events); err == nil {
			return events, nil
		}
		s.logger.Warn("discarding undecodable cache entry", "key", key)
	} else if err != redis.Nil {
		s.logger.Warn("busy cache read failed", "err", err)
	}

	events, err := s.inner.BusyEvents(ctx, calendarID, rng)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(events); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			s.logger.Warn("busy cache write failed", "err", err)
		}
		s.indexDays(ctx, calendarID, rng, key)
	}
	return events, nil
}

// Invalidate drops every cached range that covers any UTC day the event span
// touches.
func (s *BusySource) Invalidate(ctx context.Context, calendarID string, start, end time.Time) {
	for day := start.UTC().Truncate(24 * time.Hour); day.Before(end.UTC()); day = day.AddDate(0, 0, 1) {
		setKey := dayIndexKey(calendarID, day)
		keys, err := s.rdb.SMembers(ctx, setKey).Result()
		if err != nil {
			s.logger.Warn("busy cache day index read failed", "err", err)
			continue
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				s.logger.Warn("busy cache invalidation failed", "err", err)
			}
		}
		_ = s.rdb.Del(ctx, setKey).Err()
	}
}

// indexDays records which day buckets each cached range belongs to, so
// Invalidate can find it without scanning.
func (s *BusySource) indexDays(ctx context.Context, calendarID string, rng interval.Interval, key string) {
	for day := rng.Start.UTC().Truncate(24 * time.Hour); day.Before(rng.End.UTC()); day = day.AddDate(0, 0, 1) {
		setKey := dayIndexKey(calendarID, day)
		if err := s.rdb.SAdd(ctx, setKey, key).Err(); err != nil {
			s.logger.Warn("busy cache day index write failed", "err", err)
			return
		}
		_ = s.rdb.Expire(ctx, setKey, s.ttl+time.Minute).Err()
	}
}

func rangeKey(calendarID string, rng interval.Interval) string {
	return fmt.Sprintf("busy:%s:%d:%d", calendarID, rng.Start.UTC().Unix(), rng.End.UTC().Unix())
}

func dayIndexKey(calendarID string, day time.Time) string {
	return fmt.Sprintf("busydays:%s:%s", calendarID, day.Format("2006-01-02"))
}

//go:build protogen

package grpcsource

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/meetwise-labs/meetwise/libs/grpcx"
	calendarv1 "github.com/meetwise-labs/meetwise/protos/gen/calendar/v1"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/busy"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/interval"
	"github.com/meetwise-labs/meetwise/services/availability-service/internal/search"
)

type grpcSource struct {
	client calendarv1.CalendarServiceClient
}

// New dials calendar-service over gRPC. Empty addr disables the source.
func New(addr string) (search.Source, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcSource{client: calendarv1.NewCalendarServiceClient(conn)}, nil
}

func (s *grpcSource) BusyEvents(ctx context.Context, calendarID string, rng interval.Interval) ([]busy.RawEvent, error) {
	resp, err := s.client.ListEvents(ctx, &calendarv1.ListEventsRequest{
		CalendarId: calendarID,
		From:       timestamppb.New(rng.Start.UTC()),
		To:         timestamppb.New(rng.End.UTC()),
	})
	if err != nil {
		return nil, err
	}

	events := make([]busy.RawEvent, 0, len(resp.GetEvents()))
	for _, ev := range resp.GetEvents() {
		raw := busy.RawEvent{Label: ev.GetTitle()}
		if ev.GetStartTime() != nil && ev.GetEndTime() != nil {
			raw.StartTime = ev.GetStartTime().AsTime().Format(time.RFC3339)
			raw.EndTime = ev.GetEndTime().AsTime().Format(time.RFC3339)
		} else {
			raw.StartDate = ev.GetStartDate()
			raw.EndDate = ev.GetEndDate()
		}
		events = append(events, raw)
	}
	return events, nil
}

//go:build protogen

package grpcapi

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	calendarv1 "github.com/meetwise-labs/meetwise/protos/gen/calendar/v1"
	"github.com/meetwise-labs/meetwise/services/calendar-service/internal/model"
	"github.com/meetwise-labs/meetwise/services/calendar-service/internal/outbox"
	"github.com/meetwise-labs/meetwise/services/calendar-service/internal/storage"
)

type server struct {
	calendarv1.UnimplementedCalendarServiceServer
	repo       *storage.EventRepository
	outboxRepo *outbox.Repository
}

func Register(srv *grpc.Server, repo *storage.EventRepository, outboxRepo *outbox.Repository) {
	calendarv1.RegisterCalendarServiceServer(srv, &server{repo: repo, outboxRepo: outboxRepo})
}

func (s *server) ListEvents(ctx context.Context, req *calendarv1.ListEventsRequest) (*calendarv1.ListEventsResponse, error) {
	if req.GetCalendarId() == "" {
		return nil, status.Error(codes.InvalidArgument, "calendar_id required")
	}
	from := req.GetFrom().AsTime()
	to := req.GetTo().AsTime()
	if !to.After(from) {
		return nil, status.Error(codes.InvalidArgument, "to must be after from")
	}

	events, err := s.repo.ListBetween(ctx, req.GetCalendarId(), from, to)
	if err != nil {
		return nil, status.Error(codes.Internal, "list events failed")
	}

	resp := &calendarv1.ListEventsResponse{}
	for _, evt := range events {
		item := &calendarv1.Event{Id: evt.ID, Title: evt.Title}
		if evt.AllDay {
			item.StartDate = evt.StartTime.UTC().Format("2006-01-02")
			item.EndDate = evt.EndTime.UTC().Format("2006-01-02")
		} else {
			item.StartTime = timestamppb.New(evt.StartTime)
			item.EndTime = timestamppb.New(evt.EndTime)
		}
		resp.Events = append(resp.Events, item)
	}
	return resp, nil
}

func (s *server) CreateEvent(ctx context.Context, req *calendarv1.CreateEventRequest) (*calendarv1.CreateEventResponse, error) {
	if req.GetCalendarId() == "" || req.GetTitle() == "" {
		return nil, status.Error(codes.InvalidArgument, "calendar_id and title required")
	}
	start := req.GetStartTime().AsTime()
	end := req.GetEndTime().AsTime()
	if !end.After(start) {
		return nil, status.Error(codes.InvalidArgument, "end_time must be after start_time")
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, "db error")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	evt := &model.Event{
		CalendarID:  req.GetCalendarId(),
		Title:       req.GetTitle(),
		Description: req.GetDescription(),
		StartTime:   start,
		EndTime:     end,
		Status:      model.StatusConfirmed,
	}
	id, err := s.repo.Create(ctx, tx, evt)
	if err != nil {
		if storage.IsConflict(err) {
			return nil, status.Error(codes.AlreadyExists, "time slot already booked")
		}
		return nil, status.Error(codes.Internal, "failed to create event")
	}

	payload, err := json.Marshal(map[string]any{
		"event_id":    id,
		"calendar_id": evt.CalendarID,
		"title":       evt.Title,
		"start_time":  evt.StartTime.Format(time.RFC3339),
		"end_time":    evt.EndTime.Format(time.RFC3339),
		"all_day":     evt.AllDay,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to build event payload")
	}
	if err := s.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "calendar_event",
		AggregateID:   id,
		EventType:     "calendar.event.created.v1",
		Payload:       payload,
	}); err != nil {
		return nil, status.Error(codes.Internal, "failed to write outbox event")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, status.Error(codes.Internal, "db error")
	}
	return &calendarv1.CreateEventResponse{EventId: id}, nil
}

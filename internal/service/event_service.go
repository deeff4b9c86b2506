package service

import (
	"context"
	"log"
	"strings"
	"time"

	"taskit/internal/calendar"
	"taskit/internal/clock"
	"taskit/internal/model"
	"taskit/internal/repository"
)

// EventInput carries raw ISO-8601 values as received from a caller.
type EventInput struct {
	Title       string
	Description string
	Start       string
	End         string
	AllDay      bool
	TaskID      *uint
}

// EventPatch is a partial edit; nil fields keep their stored value.
type EventPatch struct {
	Title       *string
	Description *string
	Start       *string
	End         *string
	AllDay      *bool
}

// EventView is an event projected to local wall-clock ISO strings.
type EventView struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AllDay      bool   `json:"allDay"`
	Description string `json:"description"`
	TaskID      *uint  `json:"task_id,omitempty"`
}

// EventService stores calendar events normalized to the configured zone.
type EventService struct {
	eventRepo *repository.EventRepository
	taskRepo  *repository.TaskRepository
	clock     *clock.Clock
}

func NewEventService(eventRepo *repository.EventRepository, taskRepo *repository.TaskRepository, clk *clock.Clock) *EventService {
	return &EventService{eventRepo: eventRepo, taskRepo: taskRepo, clock: clk}
}

// Create normalizes and stores a new event. An end that is not after start
// becomes start+1h.
func (s *EventService) Create(ctx context.Context, userID uint, input EventInput) (EventView, error) {
	r, err := calendar.NormalizeForCreate(input.Title, input.Start, input.End, input.AllDay, s.clock.Location())
	if err != nil {
		return EventView{}, calendarErr(err)
	}
	if input.TaskID != nil {
		if _, err := s.taskRepo.FindByID(ctx, userID, *input.TaskID); err != nil {
			return EventView{}, lookupErr("task", *input.TaskID, err)
		}
	}

	event := model.Event{
		UserID:      userID,
		TaskID:      input.TaskID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		StartAt:     r.Start.UTC(),
		EndAt:       r.End.UTC(),
		AllDay:      input.AllDay,
	}
	if err := s.eventRepo.Create(ctx, &event); err != nil {
		return EventView{}, err
	}
	log.Printf("[event][create] id=%d user=%d all_day=%t", event.ID, userID, event.AllDay)
	return s.view(event), nil
}

func (s *EventService) Get(ctx context.Context, userID, eventID uint) (EventView, error) {
	event, err := s.eventRepo.FindByID(ctx, userID, eventID)
	if err != nil {
		return EventView{}, lookupErr("event", eventID, err)
	}
	return s.view(*event), nil
}

// Update applies a partial edit. Unlike Create, an end that is not after
// start is rejected.
func (s *EventService) Update(ctx context.Context, userID, eventID uint, patch EventPatch) (EventView, error) {
	event, err := s.eventRepo.FindByID(ctx, userID, eventID)
	if err != nil {
		return EventView{}, lookupErr("event", eventID, err)
	}
	loc := s.clock.Location()

	title := event.Title
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
	}
	if title == "" {
		return EventView{}, invalid("title is required")
	}
	r := calendar.Range{Start: event.StartAt, End: event.EndAt}
	if patch.Start != nil && strings.TrimSpace(*patch.Start) != "" {
		if r.Start, err = calendar.ParseTime(*patch.Start, loc); err != nil {
			return EventView{}, calendarErr(err)
		}
	}
	if patch.End != nil && strings.TrimSpace(*patch.End) != "" {
		if r.End, err = calendar.ParseTime(*patch.End, loc); err != nil {
			return EventView{}, calendarErr(err)
		}
	}
	allDay := event.AllDay
	if patch.AllDay != nil {
		allDay = *patch.AllDay
	}
	if r, err = calendar.CheckUpdate(r, allDay, loc); err != nil {
		return EventView{}, calendarErr(err)
	}

	event.Title = title
	if patch.Description != nil {
		event.Description = strings.TrimSpace(*patch.Description)
	}
	event.StartAt, event.EndAt = r.Start.UTC(), r.End.UTC()
	event.AllDay = allDay
	if err := s.eventRepo.Save(ctx, event); err != nil {
		return EventView{}, err
	}
	log.Printf("[event][update] id=%d user=%d", event.ID, userID)
	return s.view(*event), nil
}

func (s *EventService) Delete(ctx context.Context, userID, eventID uint) error {
	if err := s.eventRepo.Delete(ctx, userID, eventID); err != nil {
		return lookupErr("event", eventID, err)
	}
	log.Printf("[event][delete] id=%d user=%d", eventID, userID)
	return nil
}

// InRange lists events overlapping [startRaw, endRaw). Unless both bounds are
// given every event of the user is returned.
func (s *EventService) InRange(ctx context.Context, userID uint, startRaw, endRaw string) ([]EventView, error) {
	var (
		events []model.Event
		err    error
	)
	if strings.TrimSpace(startRaw) == "" || strings.TrimSpace(endRaw) == "" {
		events, err = s.eventRepo.ListAll(ctx, userID)
	} else {
		var start, end time.Time
		if start, err = calendar.ParseTime(startRaw, s.clock.Location()); err != nil {
			return nil, calendarErr(err)
		}
		if end, err = calendar.ParseTime(endRaw, s.clock.Location()); err != nil {
			return nil, calendarErr(err)
		}
		events, err = s.eventRepo.ListOverlapping(ctx, userID, start.UTC(), end.UTC())
	}
	if err != nil {
		return nil, err
	}

	views := make([]EventView, 0, len(events))
	for _, event := range events {
		views = append(views, s.view(event))
	}
	return views, nil
}

func (s *EventService) view(event model.Event) EventView {
	loc := s.clock.Location()
	return EventView{
		ID:          event.ID,
		Title:       event.Title,
		Start:       calendar.FormatLocal(event.StartAt, loc),
		End:         calendar.FormatLocal(event.EndAt, loc),
		AllDay:      event.AllDay,
		Description: event.Description,
		TaskID:      event.TaskID,
	}
}

package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskit/internal/model"
)

// EventRepository handles CRUD for calendar events.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, userID, eventID uint) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, eventID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) Save(ctx context.Context, event *model.Event) error {
	if err := r.db.WithContext(ctx).Save(event).Error; err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

// Delete removes an event of the user. It returns gorm.ErrRecordNotFound when
// nothing matched.
func (r *EventRepository) Delete(ctx context.Context, userID, eventID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, eventID).Delete(&model.Event{})
	if res.Error != nil {
		return fmt.Errorf("delete event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListOverlapping returns events intersecting the half-open window [start, end).
// Both bounds must be in UTC, the zone events are stored in.
func (r *EventRepository) ListOverlapping(ctx context.Context, userID uint, start, end time.Time) ([]model.Event, error) {
	var events []model.Event
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND start_at < ? AND end_at > ?", userID, end, start).
		Order("start_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListAll returns every event of the user.
func (r *EventRepository) ListAll(ctx context.Context, userID uint) ([]model.Event, error) {
	var events []model.Event
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("start_at ASC, id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

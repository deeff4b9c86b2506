package service

import (
	"context"
	"log"
	"time"

	"taskit/internal/clock"
	"taskit/internal/model"
	"taskit/internal/repository"
)

// LongTermItem is a long-term task as seen from a selected day.
type LongTermItem struct {
	ID                  uint    `json:"id"`
	Title               string  `json:"title"`
	CompletedOnThatDay  bool    `json:"completed_on_that_day"`
	CompletedOnOrBefore bool    `json:"completed_on_or_before_selected_day"`
	CompletedAt         *string `json:"completed_at"`
}

// IsOpenOn reports whether a long-term task is open on d: created on or
// before d and either never completed or completed on or after d.
func IsOpenOn(task model.Task, d clock.Date, clk *clock.Clock) bool {
	if clk.DateOf(task.CreatedAt).After(d) {
		return false
	}
	if task.CompletedAt == nil {
		return true
	}
	return !clk.DateOf(*task.CompletedAt).Before(d)
}

// StatusOn derives the reporting fields of a long-term task for day d from
// its single completion timestamp.
func StatusOn(task model.Task, d clock.Date, clk *clock.Clock) LongTermItem {
	item := LongTermItem{ID: task.ID, Title: task.Title}
	if task.CompletedAt == nil {
		return item
	}
	done := clk.DateOf(*task.CompletedAt)
	item.CompletedOnThatDay = done == d
	item.CompletedOnOrBefore = !done.After(d)
	at := task.CompletedAt.In(clk.Location()).Format(time.RFC3339)
	item.CompletedAt = &at
	return item
}

// LongTermService tracks one-off tasks whose history is a single open→closed step.
type LongTermService struct {
	taskRepo *repository.TaskRepository
	clock    *clock.Clock
}

func NewLongTermService(taskRepo *repository.TaskRepository, clk *clock.Clock) *LongTermService {
	return &LongTermService{taskRepo: taskRepo, clock: clk}
}

// Complete closes the task. With on == nil the current time is used,
// otherwise local midnight of on.
func (s *LongTermService) Complete(ctx context.Context, userID, taskID uint, on *clock.Date) (*model.Task, error) {
	task, err := requireKind(ctx, s.taskRepo, userID, taskID, model.KindLongTerm)
	if err != nil {
		return nil, err
	}
	at := s.clock.Now()
	if on != nil {
		at = s.clock.StartOf(*on)
	}
	if err := s.taskRepo.SetCompletedAt(ctx, task, &at); err != nil {
		return nil, err
	}
	log.Printf("[task][long-term] completed id=%d user=%d at=%s", taskID, userID, at.Format(time.RFC3339))
	return task, nil
}

// Uncomplete reopens the task.
func (s *LongTermService) Uncomplete(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	task, err := requireKind(ctx, s.taskRepo, userID, taskID, model.KindLongTerm)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.SetCompletedAt(ctx, task, nil); err != nil {
		return nil, err
	}
	log.Printf("[task][long-term] reopened id=%d user=%d", taskID, userID)
	return task, nil
}

// OpenOn lists the user's long-term tasks that are open on d.
func (s *LongTermService) OpenOn(ctx context.Context, userID uint, d clock.Date) ([]LongTermItem, error) {
	tasks, err := s.taskRepo.ListHistory(ctx, userID, model.KindLongTerm)
	if err != nil {
		return nil, err
	}
	items := make([]LongTermItem, 0, len(tasks))
	for _, task := range tasks {
		if removedBy(task, d, s.clock) || !IsOpenOn(task, d, s.clock) {
			continue
		}
		items = append(items, StatusOn(task, d, s.clock))
	}
	return items, nil
}

// removedBy reports whether the task was soft-deleted on or before d.
func removedBy(task model.Task, d clock.Date, clk *clock.Clock) bool {
	return task.RemovedAt != nil && !clk.DateOf(*task.RemovedAt).After(d)
}

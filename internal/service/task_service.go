package service

import (
	"context"
	"log"
	"strings"

	"taskit/internal/clock"
	"taskit/internal/model"
	"taskit/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	Kind        model.TaskKind
	Anchored    bool
}

// TaskUpdate carries the editable fields of a task; nil fields are kept.
type TaskUpdate struct {
	Title       *string
	Description *string
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo       *repository.TaskRepository
	completionRepo *repository.CompletionRepository
	clock          *clock.Clock
}

func NewTaskService(taskRepo *repository.TaskRepository, completionRepo *repository.CompletionRepository, clk *clock.Clock) *TaskService {
	return &TaskService{taskRepo: taskRepo, completionRepo: completionRepo, clock: clk}
}

// CreateTask stores a new task. A daily task starts being tracked today.
func (s *TaskService) CreateTask(ctx context.Context, userID uint, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if input.Kind == "" {
		input.Kind = model.KindLongTerm
	}
	if !input.Kind.Valid() {
		return nil, invalid("invalid task type %q: choose %q or %q", input.Kind, model.KindDaily, model.KindLongTerm)
	}
	if input.Anchored && input.Kind != model.KindDaily {
		return nil, invalid("only daily tasks can be anchored")
	}

	now := s.clock.Now().UTC()
	task := model.Task{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Kind:        input.Kind,
		IsActive:    true,
		IsAnchored:  input.Anchored,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	if task.IsDaily() {
		if err := s.completionRepo.Ensure(ctx, task.ID, s.clock.Today(), now); err != nil {
			return nil, err
		}
	}

	log.Printf("[info] task created id=%d user=%d kind=%s anchored=%t", task.ID, userID, task.Kind, task.IsAnchored)
	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, lookupErr("task", taskID, err)
	}
	return task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID uint, update TaskUpdate) (*model.Task, error) {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, invalid("title is required")
		}
		task.Title = title
	}
	if update.Description != nil {
		task.Description = strings.TrimSpace(*update.Description)
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask hides the task from every listing from today on. Its completion
// history is kept.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint) error {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if err := s.taskRepo.Remove(ctx, task, s.clock.Now()); err != nil {
		return err
	}
	log.Printf("[info] task removed id=%d user=%d", taskID, userID)
	return nil
}

// requireKind loads a task and checks its kind.
func requireKind(ctx context.Context, repo *repository.TaskRepository, userID, taskID uint, kind model.TaskKind) (*model.Task, error) {
	task, err := repo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, lookupErr("task", taskID, err)
	}
	if task.Kind != kind {
		return nil, invalid("task %d is not a %s task", taskID, strings.ReplaceAll(string(kind), "_", "-"))
	}
	return task, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskit/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByID returns a task owned by userID that has not been removed.
func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ? AND removed_at IS NULL", userID, taskID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListActive returns the tasks shown in the "today" view.
func (r *TaskRepository) ListActive(ctx context.Context, userID uint, kind model.TaskKind) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND is_active = ? AND is_completed = ? AND removed_at IS NULL", userID, kind, true, false).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListHistory returns every task of a kind, removed ones included, so that
// past dates can be reconstructed.
func (r *TaskRepository) ListHistory(ctx context.Context, userID uint, kind model.TaskKind) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) ListAnchored(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND is_anchored = ? AND removed_at IS NULL", userID, model.KindDaily, true).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// SetActive updates the cached visibility flag of several tasks at once.
func (r *TaskRepository) SetActive(ctx context.Context, taskIDs []uint, active bool) error {
	if len(taskIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id IN ?", taskIDs).
		Update("is_active", active).Error; err != nil {
		return fmt.Errorf("set task active=%t: %w", active, err)
	}
	return nil
}

func (r *TaskRepository) SetAnchored(ctx context.Context, task *model.Task, anchored bool) error {
	task.IsAnchored = anchored
	if err := r.db.WithContext(ctx).Model(task).Update("is_anchored", anchored).Error; err != nil {
		return fmt.Errorf("anchor task: %w", err)
	}
	return nil
}

// SetCompletedAt stores the single completion timestamp of a long-term task;
// nil clears it.
func (r *TaskRepository) SetCompletedAt(ctx context.Context, task *model.Task, completedAt *time.Time) error {
	task.CompletedAt = completedAt
	task.IsCompleted = completedAt != nil
	updates := map[string]interface{}{
		"completed_at": completedAt,
		"is_completed": task.IsCompleted,
	}
	if err := r.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// Remove soft-deletes a task: it disappears from listings and stops recurring,
// but its history stays.
func (r *TaskRepository) Remove(ctx context.Context, task *model.Task, at time.Time) error {
	task.IsActive = false
	task.IsAnchored = false
	task.RemovedAt = &at
	updates := map[string]interface{}{
		"is_active":   false,
		"is_anchored": false,
		"removed_at":  at,
	}
	if err := r.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

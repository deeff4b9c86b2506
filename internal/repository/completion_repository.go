package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskit/internal/clock"
	"taskit/internal/model"
)

var completionKey = []clause.Column{{Name: "task_id"}, {Name: "date"}}

// TitledCompletion is a ledger row joined with its task title.
type TitledCompletion struct {
	TaskID    uint
	Title     string
	Date      clock.Date
	Completed bool
}

// CompletionRepository manages the per-day completion ledger of daily tasks.
// Rows are unique per (task, date) and are never deleted.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// Ensure creates an uncompleted row for (task, date) unless one exists.
// Existing rows are left untouched.
func (r *CompletionRepository) Ensure(ctx context.Context, taskID uint, date clock.Date, at time.Time) error {
	row := model.Completion{TaskID: taskID, Date: date, CreatedAt: at, UpdatedAt: at}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: completionKey, DoNothing: true}).
		Create(&row).Error; err != nil {
		return fmt.Errorf("ensure completion: %w", err)
	}
	return nil
}

// SetCompleted upserts the completed flag of (task, date).
func (r *CompletionRepository) SetCompleted(ctx context.Context, taskID uint, date clock.Date, completed bool, at time.Time) error {
	row := model.Completion{TaskID: taskID, Date: date, Completed: completed, CreatedAt: at, UpdatedAt: at}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   completionKey,
			DoUpdates: clause.Assignments(map[string]interface{}{"completed": completed, "updated_at": at}),
		}).
		Create(&row).Error; err != nil {
		return fmt.Errorf("upsert completion: %w", err)
	}
	return nil
}

// Clear flips an existing row to not completed. It reports whether a row existed.
func (r *CompletionRepository) Clear(ctx context.Context, taskID uint, date clock.Date) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Completion{}).
		Where("task_id = ? AND date = ?", taskID, date).
		Update("completed", false)
	if res.Error != nil {
		return false, fmt.Errorf("clear completion: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *CompletionRepository) Find(ctx context.Context, taskID uint, date clock.Date) (*model.Completion, error) {
	var row model.Completion
	if err := r.db.WithContext(ctx).Where("task_id = ? AND date = ?", taskID, date).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListOnDate returns the rows of the given tasks dated exactly date.
func (r *CompletionRepository) ListOnDate(ctx context.Context, taskIDs []uint, date clock.Date) ([]model.Completion, error) {
	var rows []model.Completion
	if len(taskIDs) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).
		Where("task_id IN ? AND date = ?", taskIDs, date).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list completions on %s: %w", date, err)
	}
	return rows, nil
}

// TaskIDsMissedBefore returns the tasks that have an uncompleted row dated
// strictly before date.
func (r *CompletionRepository) TaskIDsMissedBefore(ctx context.Context, taskIDs []uint, date clock.Date) ([]uint, error) {
	var ids []uint
	if len(taskIDs) == 0 {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).Model(&model.Completion{}).
		Where("task_id IN ? AND date < ? AND completed = ?", taskIDs, date, false).
		Distinct().
		Pluck("task_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list missed completions: %w", err)
	}
	return ids, nil
}

// ListForUser returns the user's ledger rows dated in [from, to), oldest first.
func (r *CompletionRepository) ListForUser(ctx context.Context, userID uint, from, to clock.Date) ([]model.Completion, error) {
	var rows []model.Completion
	if err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = completions.task_id").
		Where("tasks.user_id = ? AND completions.date >= ? AND completions.date < ?", userID, from, to).
		Order("completions.date ASC, completions.id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return rows, nil
}

// ListTitled returns every ledger row of the user with its task title, in
// insertion order. When onlyCompleted is set, uncompleted rows are skipped.
func (r *CompletionRepository) ListTitled(ctx context.Context, userID uint, onlyCompleted bool) ([]TitledCompletion, error) {
	var rows []TitledCompletion
	q := r.db.WithContext(ctx).Model(&model.Completion{}).
		Select("completions.task_id, tasks.title, completions.date, completions.completed").
		Joins("JOIN tasks ON tasks.id = completions.task_id").
		Where("tasks.user_id = ?", userID)
	if onlyCompleted {
		q = q.Where("completions.completed = ?", true)
	}
	if err := q.Order("completions.id ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list titled completions: %w", err)
	}
	return rows, nil
}

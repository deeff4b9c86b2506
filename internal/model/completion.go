package model

import (
	"time"

	"taskit/internal/clock"
)

// Completion is the per-day ledger row of a daily task. A row with
// Completed=false means the task was tracked that day but not done.
type Completion struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	TaskID    uint       `gorm:"not null;uniqueIndex:idx_completion_task_date" json:"task_id"`
	Task      *Task      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Date      clock.Date `gorm:"type:text;not null;uniqueIndex:idx_completion_task_date;index" json:"date"`
	Completed bool       `gorm:"default:false" json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

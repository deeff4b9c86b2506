package model

import "time"

// TaskKind separates recurring daily tasks from one-off long-term tasks.
type TaskKind string

const (
	KindDaily    TaskKind = "daily"
	KindLongTerm TaskKind = "long_term"
)

func (k TaskKind) Valid() bool {
	return k == KindDaily || k == KindLongTerm
}

// Task represents a single item in the planner.
//
// IsActive is a cached "visible today" flag; historical state of daily tasks
// lives in Completion rows. IsCompleted/CompletedAt are used by long-term
// tasks only.
type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index" json:"user_id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `json:"description"`
	Kind        TaskKind   `gorm:"size:10;index;default:long_term" json:"kind"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	IsCompleted bool       `gorm:"default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	IsAnchored  bool       `gorm:"default:false" json:"is_anchored"`
	RemovedAt   *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t Task) IsDaily() bool {
	return t.Kind == KindDaily
}

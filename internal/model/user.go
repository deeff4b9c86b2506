package model

import "time"

// User owns tasks and events. TelegramID is set for users who reached the
// planner through the chat bot.
type User struct {
	ID         uint   `gorm:"primaryKey"`
	TelegramID *int64 `gorm:"uniqueIndex"`
	Name       string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

package model

import "time"

// Event is a calendar entry. For all-day events EndAt is exclusive.
type Event struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index"`
	TaskID      *uint  `gorm:"index"`
	Title       string `gorm:"size:200;not null"`
	Description string
	StartAt     time.Time `gorm:"index"`
	EndAt       time.Time `gorm:"index"`
	AllDay      bool      `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

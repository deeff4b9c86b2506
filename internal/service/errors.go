package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"taskit/internal/calendar"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned when an entity does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")
)

// ValidationError describes malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// lookupErr converts a repository lookup failure into the service taxonomy.
func lookupErr(entity string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return fmt.Errorf("find %s %d: %w", entity, id, err)
}

// calendarErr turns normalizer failures into validation errors.
func calendarErr(err error) error {
	if errors.Is(err, calendar.ErrInvalid) {
		msg := strings.TrimPrefix(err.Error(), calendar.ErrInvalid.Error()+": ")
		return &ValidationError{Msg: msg}
	}
	return err
}

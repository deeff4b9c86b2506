package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"taskit/internal/clock"
	"taskit/internal/model"
	"taskit/internal/repository"
)

// testEnv wires every service against one in-memory database.
type testEnv struct {
	db             *gorm.DB
	clock          *clock.Clock
	userRepo       *repository.UserRepository
	taskRepo       *repository.TaskRepository
	completionRepo *repository.CompletionRepository
	eventRepo      *repository.EventRepository
	tasks          *TaskService
	longTerm       *LongTermService
	due            *DueService
	events         *EventService
	stats          *StatsService
	reminders      *ReminderService
}

func jerusalem(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

// newTestEnv opens a fresh database with the clock frozen at noon of today.
func newTestEnv(t *testing.T, today clock.Date) *testEnv {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return wireEnv(t, db, today)
}

// at returns an env sharing the database but with the clock moved to another day.
func (e *testEnv) at(t *testing.T, today clock.Date) *testEnv {
	t.Helper()
	return wireEnv(t, e.db, today)
}

func wireEnv(t *testing.T, db *gorm.DB, today clock.Date) *testEnv {
	t.Helper()
	loc := jerusalem(t)
	clk := clock.NewFixed(loc, time.Date(today.Year, today.Month, today.Day, 12, 0, 0, 0, loc))

	e := &testEnv{
		db:             db,
		clock:          clk,
		userRepo:       repository.NewUserRepository(db),
		taskRepo:       repository.NewTaskRepository(db),
		completionRepo: repository.NewCompletionRepository(db),
		eventRepo:      repository.NewEventRepository(db),
	}
	e.tasks = NewTaskService(e.taskRepo, e.completionRepo, clk)
	e.longTerm = NewLongTermService(e.taskRepo, clk)
	e.due = NewDueService(e.taskRepo, e.completionRepo, e.longTerm, clk)
	e.events = NewEventService(e.eventRepo, e.taskRepo, clk)
	e.stats = NewStatsService(e.completionRepo, clk)
	e.reminders = NewReminderService(e.due, e.events, clk)
	return e
}

func (e *testEnv) newUser(t *testing.T, name string) model.User {
	t.Helper()
	user := model.User{Name: name}
	if err := e.userRepo.Create(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// seedTask inserts a task created at 09:00 local on the given date.
func (e *testEnv) seedTask(t *testing.T, userID uint, title string, kind model.TaskKind, created clock.Date, anchored bool) model.Task {
	t.Helper()
	at := e.clock.StartOf(created).Add(9 * time.Hour).UTC()
	task := model.Task{
		UserID:     userID,
		Title:      title,
		Kind:       kind,
		IsActive:   true,
		IsAnchored: anchored,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	if err := e.taskRepo.Create(context.Background(), &task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func (e *testEnv) seedRow(t *testing.T, taskID uint, d clock.Date, completed bool) {
	t.Helper()
	if err := e.completionRepo.SetCompleted(context.Background(), taskID, d, completed, e.clock.StartOf(d)); err != nil {
		t.Fatalf("seed completion: %v", err)
	}
}

func (e *testEnv) countRows(t *testing.T, taskID uint) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&model.Completion{}).Where("task_id = ?", taskID).Count(&n).Error; err != nil {
		t.Fatalf("count completions: %v", err)
	}
	return n
}

func (e *testEnv) reload(t *testing.T, taskID uint) model.Task {
	t.Helper()
	var task model.Task
	if err := e.db.First(&task, taskID).Error; err != nil {
		t.Fatalf("reload task %d: %v", taskID, err)
	}
	return task
}

func day(y int, m time.Month, d int) clock.Date {
	return clock.NewDate(y, m, d)
}

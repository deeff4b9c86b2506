package main

import (
	"fmt"

	"gorm.io/gorm"

	"taskit/internal/clock"
	"taskit/internal/config"
	"taskit/internal/repository"
	"taskit/internal/service"
)

// app holds the wired services shared by the subcommands.
type app struct {
	cfg       config.Config
	db        *gorm.DB
	clock     *clock.Clock
	users     *repository.UserRepository
	tasks     *service.TaskService
	due       *service.DueService
	longTerm  *service.LongTermService
	events    *service.EventService
	stats     *service.StatsService
	reminders *service.ReminderService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	clk, err := clock.Load(cfg.TimeZone)
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	eventRepo := repository.NewEventRepository(db)

	longTerm := service.NewLongTermService(taskRepo, clk)
	due := service.NewDueService(taskRepo, completionRepo, longTerm, clk)
	events := service.NewEventService(eventRepo, taskRepo, clk)

	return &app{
		cfg:       cfg,
		db:        db,
		clock:     clk,
		users:     userRepo,
		tasks:     service.NewTaskService(taskRepo, completionRepo, clk),
		due:       due,
		longTerm:  longTerm,
		events:    events,
		stats:     service.NewStatsService(completionRepo, clk),
		reminders: service.NewReminderService(due, events, clk),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

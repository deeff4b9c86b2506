package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"taskit/internal/clock"
	"taskit/internal/repository"
)

// SchedulerService wraps cron-based jobs. Jobs fire in the planner's zone so
// that "midnight" means local midnight.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(clk *clock.Clock) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(clk.Location()), cron.WithSeconds()),
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), job)
}

// Next returns the next activation time of a registered job.
func (s *SchedulerService) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RefreshAllUsers runs the anchored-task refresh for every known user. A
// failure for one user does not stop the others.
func RefreshAllUsers(ctx context.Context, users *repository.UserRepository, due *DueService) error {
	list, err := users.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	var errs []error
	for _, user := range list {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := due.RefreshAnchored(ctx, user.ID); err != nil {
			log.Printf("[refresh] user=%d: %v", user.ID, err)
			errs = append(errs, fmt.Errorf("user %d: %w", user.ID, err))
		}
	}
	log.Printf("[refresh] anchored tasks refreshed for %d users", len(list)-len(errs))
	return errors.Join(errs...)
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

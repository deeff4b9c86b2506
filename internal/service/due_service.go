package service

import (
	"context"
	"log"

	"taskit/internal/clock"
	"taskit/internal/model"
	"taskit/internal/repository"
)

// DailyItem is a daily task as seen from a selected day.
type DailyItem struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// DueListing is the answer to "what was due on this date".
type DueListing struct {
	Date     clock.Date     `json:"date"`
	Daily    []DailyItem    `json:"daily"`
	LongTerm []LongTermItem `json:"long_term"`
}

// TodayView is the flag-based listing of the live "today" page.
type TodayView struct {
	Daily    []model.Task `json:"daily"`
	LongTerm []model.Task `json:"long_term"`
}

// DueService decides which daily tasks are due on a date. Past dates are
// rebuilt from the completion ledger; the cached IsActive flag is only
// trusted for today.
type DueService struct {
	taskRepo       *repository.TaskRepository
	completionRepo *repository.CompletionRepository
	longTerm       *LongTermService
	clock          *clock.Clock
}

func NewDueService(taskRepo *repository.TaskRepository, completionRepo *repository.CompletionRepository, longTerm *LongTermService, clk *clock.Clock) *DueService {
	return &DueService{taskRepo: taskRepo, completionRepo: completionRepo, longTerm: longTerm, clock: clk}
}

// DueOn lists the tasks due on d. It never writes. Dates after today yield an
// empty listing.
//
// A daily task is due on d when it has an uncompleted row before d, a row
// on d, or it is anchored and existed on d.
func (s *DueService) DueOn(ctx context.Context, userID uint, d clock.Date) (DueListing, error) {
	listing := DueListing{Date: d, Daily: []DailyItem{}, LongTerm: []LongTermItem{}}
	if d.After(s.clock.Today()) {
		return listing, nil
	}

	tasks, err := s.taskRepo.ListHistory(ctx, userID, model.KindDaily)
	if err != nil {
		return listing, err
	}
	candidates := make([]model.Task, 0, len(tasks))
	ids := make([]uint, 0, len(tasks))
	for _, task := range tasks {
		if removedBy(task, d, s.clock) {
			continue
		}
		candidates = append(candidates, task)
		ids = append(ids, task.ID)
	}

	rows, err := s.completionRepo.ListOnDate(ctx, ids, d)
	if err != nil {
		return listing, err
	}
	onDate := make(map[uint]bool, len(rows))
	for _, row := range rows {
		onDate[row.TaskID] = row.Completed
	}

	missedIDs, err := s.completionRepo.TaskIDsMissedBefore(ctx, ids, d)
	if err != nil {
		return listing, err
	}
	missed := make(map[uint]struct{}, len(missedIDs))
	for _, id := range missedIDs {
		missed[id] = struct{}{}
	}

	for _, task := range candidates {
		completed, hasRow := onDate[task.ID]
		_, carried := missed[task.ID]
		anchored := task.IsAnchored && !s.clock.DateOf(task.CreatedAt).After(d)
		if !carried && !hasRow && !anchored {
			continue
		}
		listing.Daily = append(listing.Daily, DailyItem{ID: task.ID, Title: task.Title, Completed: completed})
	}

	listing.LongTerm, err = s.longTerm.OpenOn(ctx, userID, d)
	if err != nil {
		return listing, err
	}
	return listing, nil
}

// GetDue serves the due listing for callers: when d is today the anchored
// state is refreshed first, past dates stay read-only.
func (s *DueService) GetDue(ctx context.Context, userID uint, d clock.Date) (DueListing, error) {
	if d == s.clock.Today() {
		if err := s.RefreshAnchored(ctx, userID); err != nil {
			return DueListing{}, err
		}
	}
	return s.DueOn(ctx, userID, d)
}

// RefreshAnchored makes sure every anchored task has a row for today and
// syncs IsActive with today's completion. Repeated calls converge.
func (s *DueService) RefreshAnchored(ctx context.Context, userID uint) error {
	anchored, err := s.taskRepo.ListAnchored(ctx, userID)
	if err != nil {
		return err
	}
	if len(anchored) == 0 {
		return nil
	}

	today, now := s.clock.Today(), s.clock.Now()
	ids := make([]uint, 0, len(anchored))
	for _, task := range anchored {
		if err := s.completionRepo.Ensure(ctx, task.ID, today, now); err != nil {
			return err
		}
		ids = append(ids, task.ID)
	}

	rows, err := s.completionRepo.ListOnDate(ctx, ids, today)
	if err != nil {
		return err
	}
	doneToday := make(map[uint]bool, len(rows))
	for _, row := range rows {
		doneToday[row.TaskID] = row.Completed
	}

	var activate, deactivate []uint
	for _, id := range ids {
		if doneToday[id] {
			deactivate = append(deactivate, id)
		} else {
			activate = append(activate, id)
		}
	}
	if err := s.taskRepo.SetActive(ctx, activate, true); err != nil {
		return err
	}
	return s.taskRepo.SetActive(ctx, deactivate, false)
}

// ListToday refreshes anchored tasks and returns the active, open tasks.
func (s *DueService) ListToday(ctx context.Context, userID uint) (TodayView, error) {
	if err := s.RefreshAnchored(ctx, userID); err != nil {
		return TodayView{}, err
	}
	daily, err := s.taskRepo.ListActive(ctx, userID, model.KindDaily)
	if err != nil {
		return TodayView{}, err
	}
	longTerm, err := s.taskRepo.ListActive(ctx, userID, model.KindLongTerm)
	if err != nil {
		return TodayView{}, err
	}
	return TodayView{Daily: daily, LongTerm: longTerm}, nil
}

// SetDailyCompletion marks (task, d) done or not done. Marking done upserts the
// row; unmarking only flips an existing row and leaves IsActive alone.
func (s *DueService) SetDailyCompletion(ctx context.Context, userID, taskID uint, d clock.Date, completed bool) (bool, error) {
	task, err := requireKind(ctx, s.taskRepo, userID, taskID, model.KindDaily)
	if err != nil {
		return false, err
	}
	today := s.clock.Today()
	if d.After(today) {
		return false, invalid("cannot change completion of a future date %s", d)
	}

	if !completed {
		if _, err := s.completionRepo.Clear(ctx, task.ID, d); err != nil {
			return false, err
		}
		log.Printf("[task][daily] unset id=%d user=%d date=%s", taskID, userID, d)
		return false, nil
	}

	if err := s.completionRepo.SetCompleted(ctx, task.ID, d, true, s.clock.Now()); err != nil {
		return false, err
	}
	if d == today {
		if err := s.taskRepo.SetActive(ctx, []uint{task.ID}, false); err != nil {
			return false, err
		}
	}
	log.Printf("[task][daily] set id=%d user=%d date=%s", taskID, userID, d)
	return true, nil
}

// ToggleAnchor flips the anchored flag of a daily task. Anchoring starts
// tracking today right away.
func (s *DueService) ToggleAnchor(ctx context.Context, userID, taskID uint) (bool, error) {
	task, err := requireKind(ctx, s.taskRepo, userID, taskID, model.KindDaily)
	if err != nil {
		return false, err
	}
	anchored := !task.IsAnchored
	if err := s.taskRepo.SetAnchored(ctx, task, anchored); err != nil {
		return false, err
	}
	if anchored {
		if err := s.completionRepo.Ensure(ctx, task.ID, s.clock.Today(), s.clock.Now()); err != nil {
			return false, err
		}
	}
	log.Printf("[task][anchor] id=%d user=%d anchored=%t", taskID, userID, anchored)
	return anchored, nil
}

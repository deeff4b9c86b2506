package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"taskit/internal/model"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"08:00", "0 0 8 * * *", false},
		{"23:59", "0 59 23 * * *", false},
		{"7:5", "0 5 7 * * *", false},
		{"24:00", "", true},
		{"08:60", "", true},
		{"0800", "", true},
		{"aa:bb", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := buildDailySpec(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("spec = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScheduleDailyUsesLocalZone(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	s := NewSchedulerService(env.clock)
	id, err := s.ScheduleDaily("00:00", func() {})
	if err != nil {
		t.Fatalf("ScheduleDaily: %v", err)
	}
	s.Start()
	defer s.Stop()

	next := s.Next(id)
	if next.IsZero() {
		t.Fatal("next activation not computed")
	}
	local := next.In(env.clock.Location())
	if local.Hour() != 0 || local.Minute() != 0 {
		t.Fatalf("next = %v, want local midnight", local)
	}
}

func TestScheduleIntervalRejectsNonPositive(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	s := NewSchedulerService(env.clock)
	if _, err := s.ScheduleInterval(0, func() {}); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if _, err := s.ScheduleInterval(2*time.Hour, func() {}); err != nil {
		t.Fatalf("ScheduleInterval: %v", err)
	}
}

func TestRefreshAllUsers(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	ann := env.newUser(t, "ann")
	bob := env.newUser(t, "bob")
	walk := env.seedTask(t, ann.ID, "Walk", model.KindDaily, day(2025, 9, 1), true)
	read := env.seedTask(t, bob.ID, "Read", model.KindDaily, day(2025, 9, 1), true)
	env.seedRow(t, read.ID, day(2025, 9, 29), true)

	if err := RefreshAllUsers(context.Background(), env.userRepo, env.due); err != nil {
		t.Fatalf("RefreshAllUsers: %v", err)
	}
	if n := env.countRows(t, walk.ID); n != 1 {
		t.Fatalf("walk rows = %d, want 1", n)
	}
	if got := env.reload(t, walk.ID); !got.IsActive {
		t.Fatal("walk should be active")
	}
	if got := env.reload(t, read.ID); got.IsActive {
		t.Fatal("read is done today and should be inactive")
	}
}

func TestDailySummary(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	user := env.newUser(t, "ann")
	env.seedTask(t, user.ID, "Walk <fast>", model.KindDaily, day(2025, 9, 1), true)
	env.seedTask(t, user.ID, "Thesis", model.KindLongTerm, day(2025, 9, 1), false)
	if _, err := env.events.Create(context.Background(), user.ID, EventInput{Title: "Lunch", Start: "2025-09-29T12:00", End: "2025-09-29T13:00"}); err != nil {
		t.Fatalf("Create event: %v", err)
	}

	text, err := env.reminders.DailySummary(context.Background(), user)
	if err != nil {
		t.Fatalf("DailySummary: %v", err)
	}
	for _, want := range []string{"Daily report", "Walk &lt;fast&gt;", "Thesis", "12:00–13:00 Lunch"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}

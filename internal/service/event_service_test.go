package service

import (
	"context"
	"errors"
	"testing"

	"taskit/internal/model"
)

func TestCreateAllDayEventRoundTrip(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	user := env.newUser(t, "ann")

	view, err := env.events.Create(context.Background(), user.ID, EventInput{
		Title:  "Holiday",
		Start:  "2025-09-29",
		End:    "2025-09-29",
		AllDay: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.Start != "2025-09-29T00:00:00+03:00" || view.End != "2025-09-30T00:00:00+03:00" {
		t.Fatalf("range = %s .. %s", view.Start, view.End)
	}
	if !view.AllDay {
		t.Fatal("expected all-day event")
	}

	got, err := env.events.Get(context.Background(), user.ID, view.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Start != view.Start || got.End != view.End {
		t.Fatalf("stored range = %s .. %s", got.Start, got.End)
	}
}

func TestCreateEventFixesInvertedRange(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	user := env.newUser(t, "ann")

	view, err := env.events.Create(context.Background(), user.ID, EventInput{
		Title: "Dentist",
		Start: "2025-09-29T14:00",
		End:   "2025-09-29T13:00",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.End != "2025-09-29T15:00:00+03:00" {
		t.Fatalf("end = %s, want start+1h", view.End)
	}
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	user := env.newUser(t, "ann")
	other := env.newUser(t, "bob")
	foreign := env.seedTask(t, other.ID, "Theirs", model.KindLongTerm, day(2025, 9, 1), false)

	if _, err := env.events.Create(context.Background(), user.ID, EventInput{Start: "2025-09-29", End: "2025-09-30"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing title err = %v, want validation", err)
	}
	if _, err := env.events.Create(context.Background(), user.ID, EventInput{Title: "x", Start: "soon", End: "2025-09-30"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad start err = %v, want validation", err)
	}
	_, err := env.events.Create(context.Background(), user.ID, EventInput{Title: "x", Start: "2025-09-29", End: "2025-09-30", TaskID: &foreign.ID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign task err = %v, want not found", err)
	}
}

func TestUpdateEventRejectsInvertedRange(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	user := env.newUser(t, "ann")
	view, err := env.events.Create(context.Background(), user.ID, EventInput{
		Title: "Dentist",
		Start: "2025-09-29T14:00",
		End:   "2025-09-29T15:00",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	end := "2025-09-29T13:00"
	_, err = env.events.Update(context.Background(), user.ID, view.ID, EventPatch{End: &end})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if verr.Msg != "end must be after start" {
		t.Fatalf("message = %q", verr.Msg)
	}

	got, err := env.events.Get(context.Background(), user.ID, view.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.End != view.End {
		t.Fatalf("rejected update changed end to %s", got.End)
	}
}

func TestUpdateEventPartialPatch(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	user := env.newUser(t, "ann")
	view, err := env.events.Create(context.Background(), user.ID, EventInput{
		Title: "Standup",
		Start: "2025-09-29T09:00",
		End:   "2025-09-29T09:15",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Retro"
	allDay := true
	updated, err := env.events.Update(context.Background(), user.ID, view.ID, EventPatch{Title: &title, AllDay: &allDay})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Retro" || updated.Start != view.Start {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.End != "2025-09-30T00:00:00+03:00" {
		t.Fatalf("all-day end = %s, want next midnight", updated.End)
	}
}

func TestEventsInRange(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	user := env.newUser(t, "ann")
	other := env.newUser(t, "bob")
	ctx := context.Background()

	create := func(userID uint, title, start, end string, allDay bool) {
		t.Helper()
		if _, err := env.events.Create(ctx, userID, EventInput{Title: title, Start: start, End: end, AllDay: allDay}); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
	}
	create(user.ID, "Yesterday", "2025-09-28", "2025-09-28", true)
	create(user.ID, "Late", "2025-09-28T23:00", "2025-09-29T01:00", false)
	create(user.ID, "Lunch", "2025-09-29T12:00", "2025-09-29T13:00", false)
	create(user.ID, "Tomorrow", "2025-09-30T00:00", "2025-09-30T01:00", false)
	create(other.ID, "Foreign", "2025-09-29T12:00", "2025-09-29T13:00", false)

	views, err := env.events.InRange(ctx, user.ID, "2025-09-29", "2025-09-30")
	if err != nil {
		t.Fatalf("InRange: %v", err)
	}
	var titles []string
	for _, v := range views {
		titles = append(titles, v.Title)
	}
	if len(titles) != 2 || titles[0] != "Late" || titles[1] != "Lunch" {
		t.Fatalf("titles = %v, want [Late Lunch]", titles)
	}

	all, err := env.events.InRange(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("InRange(all): %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len(all) = %d, want 4", len(all))
	}

	for _, bounds := range [][2]string{{"2025-09-29", ""}, {"", "2025-09-30"}} {
		got, err := env.events.InRange(ctx, user.ID, bounds[0], bounds[1])
		if err != nil {
			t.Fatalf("InRange(%q, %q): %v", bounds[0], bounds[1], err)
		}
		if len(got) != 4 {
			t.Fatalf("InRange(%q, %q) returned %d events, want 4", bounds[0], bounds[1], len(got))
		}
	}

	if _, err := env.events.InRange(ctx, user.ID, "2025-09-29", "later"); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	env := newTestEnv(t, day(2025, 9, 29))
	user := env.newUser(t, "ann")
	other := env.newUser(t, "bob")
	view, err := env.events.Create(context.Background(), user.ID, EventInput{Title: "x", Start: "2025-09-29", End: "2025-09-30"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := env.events.Delete(context.Background(), other.ID, view.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete err = %v, want not found", err)
	}
	if err := env.events.Delete(context.Background(), user.ID, view.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := env.events.Get(context.Background(), user.ID, view.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v, want not found", err)
	}
}

package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"taskit/internal/clock"
	"taskit/internal/model"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	dueSvc   *DueService
	eventSvc *EventService
	clock    *clock.Clock
}

func NewReminderService(dueSvc *DueService, eventSvc *EventService, clk *clock.Clock) *ReminderService {
	return &ReminderService{dueSvc: dueSvc, eventSvc: eventSvc, clock: clk}
}

// DailySummary renders today's due tasks and events as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User) (string, error) {
	today := s.clock.Today()
	listing, err := s.dueSvc.GetDue(ctx, user.ID, today)
	if err != nil {
		return "", err
	}
	events, err := s.eventSvc.InRange(ctx, user.ID, today.String(), today.AddDays(1).String())
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", today.Format("Mon 02.01.2006")))

	builder.WriteString("♻️ <b>Daily tasks</b>\n")
	if len(listing.Daily) == 0 {
		builder.WriteString("— nothing due today\n")
	} else {
		for _, item := range listing.Daily {
			builder.WriteString(formatDaily(item))
		}
	}

	builder.WriteString("\n🔥 <b>Long-term tasks</b>\n")
	if len(listing.LongTerm) == 0 {
		builder.WriteString("— no open tasks\n")
	} else {
		for _, item := range listing.LongTerm {
			builder.WriteString(formatLongTerm(item))
		}
	}

	builder.WriteString("\n📆 <b>Events</b>\n")
	if len(events) == 0 {
		builder.WriteString("— no events today\n")
	} else {
		for _, ev := range events {
			builder.WriteString(formatEvent(ev, s.clock.Location()))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatDaily(item DailyItem) string {
	icon := "⬜️"
	if item.Completed {
		icon = "✅"
	}
	return fmt.Sprintf("%s %s <code>#%d</code>\n", icon, html.EscapeString(strings.TrimSpace(item.Title)), item.ID)
}

func formatLongTerm(item LongTermItem) string {
	icon := "🟢"
	if item.CompletedOnThatDay {
		icon = "✅"
	}
	return fmt.Sprintf("%s %s <code>#%d</code>\n", icon, html.EscapeString(strings.TrimSpace(item.Title)), item.ID)
}

func formatEvent(ev EventView, loc *time.Location) string {
	title := html.EscapeString(strings.TrimSpace(ev.Title))
	if ev.AllDay {
		return fmt.Sprintf("• %s <i>(all day)</i>\n", title)
	}
	start, err := time.Parse(time.RFC3339, ev.Start)
	if err != nil {
		return fmt.Sprintf("• %s\n", title)
	}
	end, err := time.Parse(time.RFC3339, ev.End)
	if err != nil {
		return fmt.Sprintf("• %s %s\n", start.In(loc).Format("15:04"), title)
	}
	return fmt.Sprintf("• %s–%s %s\n", start.In(loc).Format("15:04"), end.In(loc).Format("15:04"), title)
}

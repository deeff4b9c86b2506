package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskit/internal/clock"
	"taskit/internal/model"
	"taskit/internal/service"
)

const topLimit = 5

// sendToday lists the open tasks of today with a "done" button for each.
func (b *Bot) sendToday(ctx context.Context, chatID int64, user *model.User) error {
	view, err := b.svc.Due.ListToday(ctx, user.ID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(view.Daily) == 0 && len(view.LongTerm) == 0 {
		return b.sendText(chatID, "Nothing open for today. Add a task with “add daily task …”.")
	}

	var builder strings.Builder
	var buttons [][]tgbotapi.InlineKeyboardButton
	builder.WriteString(fmt.Sprintf("📋 <b>Today, %s</b>\n", b.clock.Today().Format("Mon 02.01.2006")))

	section := func(title string, tasks []model.Task) {
		if len(tasks) == 0 {
			return
		}
		builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n", title))
		for _, task := range tasks {
			icon := "⬜️"
			if task.IsAnchored {
				icon = "📌"
			}
			builder.WriteString(fmt.Sprintf("%s %s <code>#%d</code>\n", icon, escape(normalizeTitle(task.Title)), task.ID))
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 24)), fmt.Sprintf("%s%d", cbDonePrefix, task.ID)),
			))
		}
	}
	section("♻️ Daily", view.Daily)
	section("🔥 Long-term", view.LongTerm)

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err = b.api.Send(msg)
	return err
}

// sendDue shows what was due on a date, today when raw is empty.
func (b *Bot) sendDue(ctx context.Context, chatID int64, user *model.User, raw string) error {
	d := b.clock.Today()
	if raw = strings.TrimSpace(raw); raw != "" {
		parsed, err := clock.ParseDate(raw)
		if err != nil {
			return b.sendText(chatID, escape(err.Error()))
		}
		d = parsed
	}
	listing, err := b.svc.Due.GetDue(ctx, user.ID, d)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.sendText(chatID, formatDue(listing))
}

func formatDue(listing service.DueListing) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🗓 <b>Due on %s</b>\n", listing.Date.Format("Mon 2006-01-02")))
	if len(listing.Daily) == 0 && len(listing.LongTerm) == 0 {
		builder.WriteString("Nothing was due.")
		return builder.String()
	}
	if len(listing.Daily) > 0 {
		builder.WriteString("\n<b>♻️ Daily</b>\n")
		for _, item := range listing.Daily {
			icon := "⬜️"
			if item.Completed {
				icon = "✅"
			}
			builder.WriteString(fmt.Sprintf("%s %s <code>#%d</code>\n", icon, escape(normalizeTitle(item.Title)), item.ID))
		}
	}
	if len(listing.LongTerm) > 0 {
		builder.WriteString("\n<b>🔥 Long-term</b>\n")
		for _, item := range listing.LongTerm {
			icon := "🟢"
			if item.CompletedOnThatDay {
				icon = "✅"
			}
			builder.WriteString(fmt.Sprintf("%s %s <code>#%d</code>\n", icon, escape(normalizeTitle(item.Title)), item.ID))
		}
	}
	return strings.TrimSpace(builder.String())
}

func (b *Bot) sendEvents(ctx context.Context, chatID int64, user *model.User, raw string) error {
	d := b.clock.Today()
	if raw = strings.TrimSpace(raw); raw != "" {
		parsed, err := clock.ParseDate(raw)
		if err != nil {
			return b.sendText(chatID, escape(err.Error()))
		}
		d = parsed
	}
	events, err := b.svc.Events.InRange(ctx, user.ID, d.String(), d.AddDays(1).String())
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(events) == 0 {
		return b.sendText(chatID, fmt.Sprintf("No events on %s.", d))
	}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📆 <b>Events on %s</b>\n", d))
	for _, ev := range events {
		if ev.AllDay {
			builder.WriteString(fmt.Sprintf("• %s <i>(all day)</i>\n", escape(ev.Title)))
			continue
		}
		builder.WriteString(fmt.Sprintf("• %s – %s %s\n", ev.Start, ev.End, escape(ev.Title)))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

// sendStats answers with the latest completion rate for the granularity
// picked from query and the most completed tasks.
func (b *Bot) sendStats(ctx context.Context, chatID int64, user *model.User, query string) error {
	g := service.DetectGranularity(query)
	buckets, err := b.svc.Stats.CompletionRate(ctx, user.ID, g)
	if err != nil {
		return b.replyError(chatID, err)
	}
	top, err := b.svc.Stats.MostCompleted(ctx, user.ID, topLimit)
	if err != nil {
		return b.replyError(chatID, err)
	}

	var builder strings.Builder
	last := buckets[len(buckets)-1]
	builder.WriteString(fmt.Sprintf("📊 Your latest %s completion rate is <b>%g%%</b>.\n\n", g, last.CompletionRate))
	for _, bucket := range buckets {
		builder.WriteString(fmt.Sprintf("%s: %d/%d (%g%%)\n", bucket.Label, bucket.Completed, bucket.Created, bucket.CompletionRate))
	}
	builder.WriteString("\n" + formatTop(top))
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) sendTop(ctx context.Context, chatID int64, user *model.User) error {
	top, err := b.svc.Stats.MostCompleted(ctx, user.ID, 0)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.sendText(chatID, formatTop(top))
}

func formatTop(top []service.TaskCount) string {
	if len(top) == 0 {
		return "🏆 No completed daily tasks yet."
	}
	parts := make([]string, 0, len(top))
	for _, tc := range top {
		parts = append(parts, fmt.Sprintf("%s (%d)", escape(tc.Task), tc.Count))
	}
	return "🏆 Most completed: " + strings.Join(parts, ", ")
}

func (b *Bot) sendMisses(ctx context.Context, chatID int64, user *model.User) error {
	rates, err := b.svc.Stats.PerTaskRates(ctx, user.ID, service.RateModeCount)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if len(rates) == 0 {
		return b.sendText(chatID, "No tracked daily tasks yet.")
	}
	var builder strings.Builder
	builder.WriteString("📉 <b>Misses per task</b>\n")
	for _, r := range rates {
		builder.WriteString(fmt.Sprintf("• %s — %g\n", escape(r.Task), r.Rate))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskit/internal/clock"
	"taskit/internal/model"
	"taskit/internal/repository"
	"taskit/internal/service"
)

const (
	cbDonePrefix = "done:"
	cbUndoPrefix = "undo:"
)

const (
	menuLabelToday = "📋 Today"
	menuLabelDue   = "🗓 Due"
	menuLabelStats = "📊 Stats"
	menuLabelHelp  = "ℹ️ Help"
)

// sender is the part of the Telegram client the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services bundles what the bot calls into.
type Services struct {
	Users     *repository.UserRepository
	Tasks     *service.TaskService
	Due       *service.DueService
	LongTerm  *service.LongTermService
	Events    *service.EventService
	Stats     *service.StatsService
	Reminders *service.ReminderService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	client *tgbotapi.BotAPI
	api    sender
	svc    Services
	clock  *clock.Clock
}

func New(token string, svc Services, clk *clock.Clock) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := newBot(api, svc, clk)
	b.client = api
	return b, nil
}

func newBot(api sender, svc Services, clk *clock.Clock) *Bot {
	return &Bot{api: api, svc: svc, clock: clk}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot has no telegram client")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.client.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, user, msg)
	}

	switch strings.TrimSpace(msg.Text) {
	case menuLabelToday:
		return b.sendToday(ctx, msg.Chat.ID, user)
	case menuLabelDue:
		return b.sendDue(ctx, msg.Chat.ID, user, "")
	case menuLabelStats:
		return b.sendStats(ctx, msg.Chat.ID, user, "")
	case menuLabelHelp:
		return b.sendText(msg.Chat.ID, helpText)
	}

	return b.handleIntent(ctx, msg.Chat.ID, user, ParseIntent(msg.Text))
}

func (b *Bot) handleCommand(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		name := strings.TrimSpace(msg.From.FirstName)
		if name == "" {
			name = "there"
		}
		return b.sendText(chatID, fmt.Sprintf("👋 Hi, %s!\n<b>I keep track of your daily and long-term tasks.</b>\n\n%s", escape(name), helpText))
	case "help":
		return b.sendText(chatID, helpText)
	case "today":
		return b.sendToday(ctx, chatID, user)
	case "due":
		return b.sendDue(ctx, chatID, user, args)
	case "done":
		return b.handleToggle(ctx, chatID, user, args, true)
	case "undo":
		return b.handleToggle(ctx, chatID, user, args, false)
	case "anchor":
		return b.handleAnchor(ctx, chatID, user, args)
	case "remove":
		return b.handleRemove(ctx, chatID, user, args)
	case "events":
		return b.sendEvents(ctx, chatID, user, args)
	case "stats":
		return b.sendStats(ctx, chatID, user, args)
	case "top":
		return b.sendTop(ctx, chatID, user)
	case "misses":
		return b.sendMisses(ctx, chatID, user)
	case "report":
		text, err := b.svc.Reminders.DailySummary(ctx, *user)
		if err != nil {
			return b.replyError(chatID, err)
		}
		return b.sendText(chatID, text)
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleIntent(ctx context.Context, chatID int64, user *model.User, intent Intent) error {
	switch intent.Kind {
	case IntentAddTask:
		task, err := b.svc.Tasks.CreateTask(ctx, user.ID, service.TaskInput{
			Title:    intent.Title,
			Kind:     intent.TaskKind,
			Anchored: intent.Anchored,
		})
		if err != nil {
			return b.replyError(chatID, err)
		}
		label := "Long-term"
		if task.IsDaily() {
			label = "Daily"
		}
		if task.IsAnchored {
			label = "Anchored daily"
		}
		return b.sendText(chatID, fmt.Sprintf("✅ %s task «%s» created <code>#%d</code>.", label, escape(task.Title), task.ID))
	case IntentAddEvent:
		view, err := b.svc.Events.Create(ctx, user.ID, service.EventInput{
			Title:  intent.Title,
			Start:  intent.Start,
			End:    intent.End,
			AllDay: intent.AllDay,
		})
		if err != nil {
			return b.replyError(chatID, err)
		}
		return b.sendText(chatID, fmt.Sprintf("📆 Event added: «%s» from %s to %s", escape(view.Title), view.Start, view.End))
	case IntentDue:
		return b.sendDue(ctx, chatID, user, intent.Date)
	case IntentStats:
		return b.sendStats(ctx, chatID, user, string(intent.Granularity))
	default:
		return b.sendText(chatID, "I did not get that. Try “add daily task Walk”, “add event Dentist from 2025-09-29T14:00 to 2025-09-29T15:00” or /help.")
	}
}

// handleToggle marks a task done or not done. Daily tasks take an optional
// date, long-term tasks an optional completion date.
func (b *Bot) handleToggle(ctx context.Context, chatID int64, user *model.User, args string, done bool) error {
	taskID, date, err := parseTaskArgs(args)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	text, err := b.toggle(ctx, user, taskID, date, done)
	if err != nil {
		return b.replyError(chatID, err)
	}
	return b.sendText(chatID, text)
}

func (b *Bot) toggle(ctx context.Context, user *model.User, taskID uint, date *clock.Date, done bool) (string, error) {
	task, err := b.svc.Tasks.GetTask(ctx, user.ID, taskID)
	if err != nil {
		return "", err
	}
	title := escape(normalizeTitle(task.Title))

	if !task.IsDaily() {
		if done {
			if _, err := b.svc.LongTerm.Complete(ctx, user.ID, taskID, date); err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ Task «%s» completed.", title), nil
		}
		if _, err := b.svc.LongTerm.Uncomplete(ctx, user.ID, taskID); err != nil {
			return "", err
		}
		return fmt.Sprintf("↩️ Task «%s» reopened.", title), nil
	}

	d := b.clock.Today()
	if date != nil {
		d = *date
	}
	completed, err := b.svc.Due.SetDailyCompletion(ctx, user.ID, taskID, d, done)
	if err != nil {
		return "", err
	}
	if completed {
		return fmt.Sprintf("✅ «%s» done for %s.", title, d), nil
	}
	return fmt.Sprintf("↩️ «%s» marked not done for %s.", title, d), nil
}

func (b *Bot) handleAnchor(ctx context.Context, chatID int64, user *model.User, args string) error {
	taskID, _, err := parseTaskArgs(args)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	anchored, err := b.svc.Due.ToggleAnchor(ctx, user.ID, taskID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if anchored {
		return b.sendText(chatID, fmt.Sprintf("📌 Task #%d is anchored and will show up every day.", taskID))
	}
	return b.sendText(chatID, fmt.Sprintf("Task #%d is no longer anchored.", taskID))
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, user *model.User, args string) error {
	taskID, _, err := parseTaskArgs(args)
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	task, err := b.svc.Tasks.GetTask(ctx, user.ID, taskID)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if err := b.svc.Tasks.DeleteTask(ctx, user.ID, taskID); err != nil {
		return b.replyError(chatID, err)
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Task «%s» removed. Its history is kept in the statistics.", escape(normalizeTitle(task.Title))))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	var done bool
	var raw string
	switch {
	case strings.HasPrefix(cb.Data, cbDonePrefix):
		done, raw = true, strings.TrimPrefix(cb.Data, cbDonePrefix)
	case strings.HasPrefix(cb.Data, cbUndoPrefix):
		done, raw = false, strings.TrimPrefix(cb.Data, cbUndoPrefix)
	default:
		return nil
	}
	log.Printf("[info] callback user=%d data=%s", cb.From.ID, cb.Data)

	taskID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}
	chatID := cb.Message.Chat.ID
	text, err := b.toggle(ctx, user, uint(taskID), nil, done)
	if err != nil {
		return b.replyError(chatID, err)
	}
	if err := b.sendText(chatID, text); err != nil {
		return err
	}
	return b.sendToday(ctx, chatID, user)
}

// SendDailyReports sends a summary to every user known to the bot.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.svc.Users.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if user.TelegramID == nil {
			continue
		}
		text, err := b.svc.Reminders.DailySummary(ctx, user)
		if err != nil {
			log.Printf("build summary for user %d: %v", user.ID, err)
			continue
		}
		if err := b.sendText(*user.TelegramID, text); err != nil {
			log.Printf("send summary to %d: %v", *user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	return b.svc.Users.UpsertFromTelegram(ctx, from.ID, name, from.UserName)
}

// replyError turns service errors into a chat answer. Unexpected errors are
// returned to the caller after a generic reply.
func (b *Bot) replyError(chatID int64, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return b.sendText(chatID, "⚠️ "+escape(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		return b.sendText(chatID, "Task not found.")
	default:
		if sendErr := b.sendText(chatID, "Something went wrong, please try again later."); sendErr != nil {
			log.Printf("send error reply: %v", sendErr)
		}
		return err
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

// parseTaskArgs reads "<id> [YYYY-MM-DD]".
func parseTaskArgs(args string) (uint, *clock.Date, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, nil, errors.New("give a task id, for example: /done 12")
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "#"), 10, 64)
	if err != nil || id == 0 {
		return 0, nil, errors.New("task id must be a number")
	}
	if len(fields) < 2 {
		return uint(id), nil, nil
	}
	d, err := clock.ParseDate(fields[1])
	if err != nil {
		return 0, nil, err
	}
	return uint(id), &d, nil
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelDue),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(normalizeTitle(title))
	if len(runes) <= maxLen {
		return string(runes)
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /today — open tasks for today\n" +
	"• /due [YYYY-MM-DD] — what was due on a day\n" +
	"• /done &lt;id&gt; [YYYY-MM-DD] — mark a task done\n" +
	"• /undo &lt;id&gt; [YYYY-MM-DD] — mark a task not done\n" +
	"• /anchor &lt;id&gt; — make a daily task show up every day\n" +
	"• /remove &lt;id&gt; — stop tracking a task\n" +
	"• /events [YYYY-MM-DD] — events of a day\n" +
	"• /stats [question] — completion rate\n" +
	"• /top — most completed tasks\n" +
	"• /misses — most missed tasks\n" +
	"• /report — today's summary\n\n" +
	"You can also write: <i>add daily task Walk</i>, <i>add task Write thesis</i>, " +
	"<i>add event Dentist from 2025-09-29T14:00 to 2025-09-29T15:00</i>, <i>how did I do this month?</i>"

package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskit/internal/clock"
	"taskit/internal/model"
	"taskit/internal/repository"
	"taskit/internal/service"
)

// fakeAPI records outgoing messages instead of talking to Telegram.
type fakeAPI struct {
	sent     []tgbotapi.MessageConfig
	requests int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) last(t *testing.T) string {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no message sent")
	}
	return f.sent[len(f.sent)-1].Text
}

type botEnv struct {
	bot *Bot
	api *fakeAPI
	svc Services
}

const chatID = 4242

func newBotEnv(t *testing.T) *botEnv {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	clk := clock.NewFixed(loc, time.Date(2025, 9, 29, 12, 0, 0, 0, loc))

	db, err := repository.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	taskRepo := repository.NewTaskRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	eventRepo := repository.NewEventRepository(db)
	longTerm := service.NewLongTermService(taskRepo, clk)
	due := service.NewDueService(taskRepo, completionRepo, longTerm, clk)
	events := service.NewEventService(eventRepo, taskRepo, clk)
	svc := Services{
		Users:     repository.NewUserRepository(db),
		Tasks:     service.NewTaskService(taskRepo, completionRepo, clk),
		Due:       due,
		LongTerm:  longTerm,
		Events:    events,
		Stats:     service.NewStatsService(completionRepo, clk),
		Reminders: service.NewReminderService(due, events, clk),
	}
	api := &fakeAPI{}
	return &botEnv{bot: newBot(api, svc, clk), api: api, svc: svc}
}

func message(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		From: &tgbotapi.User{ID: chatID, FirstName: "Ann"},
	}
	if strings.HasPrefix(text, "/") {
		length := len(text)
		if i := strings.IndexByte(text, ' '); i >= 0 {
			length = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return msg
}

func (e *botEnv) say(t *testing.T, text string) string {
	t.Helper()
	if err := e.bot.handleMessage(context.Background(), message(text)); err != nil {
		t.Fatalf("handleMessage(%q): %v", text, err)
	}
	return e.api.last(t)
}

func (e *botEnv) user(t *testing.T) model.User {
	t.Helper()
	users, err := e.svc.Users.ListAll(context.Background())
	if err != nil || len(users) != 1 {
		t.Fatalf("users = %v, %v", users, err)
	}
	return users[0]
}

func TestStartRegistersUser(t *testing.T) {
	env := newBotEnv(t)
	reply := env.say(t, "/start")
	if !strings.Contains(reply, "Hi, Ann!") {
		t.Fatalf("reply = %q", reply)
	}
	user := env.user(t)
	if user.TelegramID == nil || *user.TelegramID != chatID {
		t.Fatalf("user = %+v", user)
	}
}

func TestAddDailyTaskAndComplete(t *testing.T) {
	env := newBotEnv(t)

	reply := env.say(t, "add daily task Walk <the dog>")
	if !strings.Contains(reply, "Daily task «Walk &lt;the dog&gt;» created") {
		t.Fatalf("reply = %q", reply)
	}

	reply = env.say(t, "/today")
	if !strings.Contains(reply, "Walk &lt;the dog&gt;") {
		t.Fatalf("today = %q", reply)
	}

	reply = env.say(t, "/done 1")
	if !strings.Contains(reply, "done for 2025-09-29") {
		t.Fatalf("done reply = %q", reply)
	}

	reply = env.say(t, "/due 2025-09-29")
	if !strings.Contains(reply, "✅ Walk") {
		t.Fatalf("due = %q", reply)
	}

	reply = env.say(t, "/undo 1")
	if !strings.Contains(reply, "marked not done") {
		t.Fatalf("undo reply = %q", reply)
	}
}

func TestLongTermDoneAndUndo(t *testing.T) {
	env := newBotEnv(t)
	env.say(t, "add task Write thesis")

	if reply := env.say(t, "/done 1 2025-09-29"); !strings.Contains(reply, "completed") {
		t.Fatalf("done reply = %q", reply)
	}
	if reply := env.say(t, "/undo 1"); !strings.Contains(reply, "reopened") {
		t.Fatalf("undo reply = %q", reply)
	}
}

func TestCommandErrors(t *testing.T) {
	env := newBotEnv(t)
	env.say(t, "add task Write thesis")

	tests := []struct {
		text string
		want string
	}{
		{"/done", "give a task id"},
		{"/done abc", "task id must be a number"},
		{"/done 99", "Task not found."},
		{"/done 1 2025-13-01", "invalid date"},
		{"/anchor 1", "is not a daily task"},
		{"/due yesterday", "invalid date"},
		{"/frobnicate", "Unknown command"},
		{"hello", "I did not get that"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if reply := env.say(t, tt.text); !strings.Contains(reply, tt.want) {
				t.Fatalf("reply = %q, want it to contain %q", reply, tt.want)
			}
		})
	}
}

func TestAnchorAndRemove(t *testing.T) {
	env := newBotEnv(t)
	env.say(t, "add daily task Meditate")

	if reply := env.say(t, "/anchor 1"); !strings.Contains(reply, "anchored") {
		t.Fatalf("anchor reply = %q", reply)
	}
	if reply := env.say(t, "/remove 1"); !strings.Contains(reply, "removed") {
		t.Fatalf("remove reply = %q", reply)
	}
	if reply := env.say(t, "/today"); !strings.Contains(reply, "Nothing open") {
		t.Fatalf("today after remove = %q", reply)
	}
}

func TestAddEventIntent(t *testing.T) {
	env := newBotEnv(t)

	reply := env.say(t, "add event Dentist from 2025-09-29T14:00 to 2025-09-29T13:00")
	if !strings.Contains(reply, "2025-09-29T14:00:00+03:00 to 2025-09-29T15:00:00+03:00") {
		t.Fatalf("reply = %q", reply)
	}
	reply = env.say(t, "/events")
	if !strings.Contains(reply, "Dentist") {
		t.Fatalf("events = %q", reply)
	}
	if reply := env.say(t, "/events 2025-09-30"); !strings.Contains(reply, "No events") {
		t.Fatalf("events next day = %q", reply)
	}
}

func TestStatsReplies(t *testing.T) {
	env := newBotEnv(t)
	env.say(t, "add daily task Walk")
	env.say(t, "/done 1")

	reply := env.say(t, "how did I do this month?")
	if !strings.Contains(reply, "latest month completion rate is <b>100%</b>") {
		t.Fatalf("stats = %q", reply)
	}
	if !strings.Contains(reply, "walk (1)") {
		t.Fatalf("stats missing top tasks: %q", reply)
	}
	if reply := env.say(t, "/top"); !strings.Contains(reply, "walk (1)") {
		t.Fatalf("top = %q", reply)
	}
	if reply := env.say(t, "/misses"); !strings.Contains(reply, "walk — 0") {
		t.Fatalf("misses = %q", reply)
	}
}

func TestCallbackMarksDone(t *testing.T) {
	env := newBotEnv(t)
	env.say(t, "add daily task Walk")

	cb := &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: chatID, FirstName: "Ann"},
		Message: message("📋 Today"),
		Data:    cbDonePrefix + "1",
	}
	if err := env.bot.handleCallback(context.Background(), cb); err != nil {
		t.Fatalf("handleCallback: %v", err)
	}
	if env.api.requests != 1 {
		t.Fatalf("callback not acknowledged")
	}
	if reply := env.api.last(t); !strings.Contains(reply, "Nothing open") {
		t.Fatalf("today after callback = %q", reply)
	}
}

func TestSendDailyReports(t *testing.T) {
	env := newBotEnv(t)
	env.say(t, "add daily task Walk")
	// API-only users have no chat to report to.
	if err := env.svc.Users.EnsureID(context.Background(), 77); err != nil {
		t.Fatalf("EnsureID: %v", err)
	}
	before := len(env.api.sent)

	if err := env.bot.SendDailyReports(context.Background()); err != nil {
		t.Fatalf("SendDailyReports: %v", err)
	}
	if got := len(env.api.sent) - before; got != 1 {
		t.Fatalf("sent %d reports, want 1", got)
	}
	last := env.api.sent[len(env.api.sent)-1]
	if last.ChatID != chatID || !strings.Contains(last.Text, "Daily report") {
		t.Fatalf("report = %+v", last)
	}
}

package bot

import (
	"regexp"
	"strings"

	"taskit/internal/model"
	"taskit/internal/service"
)

// IntentKind names what a free-text message asks for.
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentAddTask
	IntentAddEvent
	IntentDue
	IntentStats
)

// Intent is a parsed free-text request.
type Intent struct {
	Kind        IntentKind
	Title       string
	TaskKind    model.TaskKind
	Anchored    bool
	Start       string
	End         string
	AllDay      bool
	Date        string
	Granularity service.Granularity
}

var (
	addTaskRe     = regexp.MustCompile(`(?i)^add\s+(?:a\s+)?(daily|anchored|long[-_ ]term)?\s*task\s*:?\s+(.+)$`)
	addEventRe    = regexp.MustCompile(`(?i)^add\s+(?:an\s+)?event\s*:?\s+(.+?)\s+from\s+(\S+(?:[ T]\d{1,2}:\d{2}(?::\d{2})?)?)\s+to\s+(\S+(?:[ T]\d{1,2}:\d{2}(?::\d{2})?)?)(\s+all[- ]day)?$`)
	addEventDayRe = regexp.MustCompile(`(?i)^add\s+(?:an\s+)?event\s*:?\s+(.+?)\s+on\s+(\d{4}-\d{2}-\d{2})$`)
	dueRe         = regexp.MustCompile(`(?i)^(?:what\s+(?:was|is)\s+)?due(?:\s+on)?(?:\s+(\d{4}-\d{2}-\d{2}))?\??$`)
	statsRe       = regexp.MustCompile(`(?i)^(?:stats|statistics|how\b)`)
)

// ParseIntent maps a chat message onto one of the supported requests.
// Titles keep the user's casing.
func ParseIntent(text string) Intent {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return Intent{Kind: IntentUnknown}
	}

	if m := addEventRe.FindStringSubmatch(text); m != nil {
		return Intent{
			Kind:   IntentAddEvent,
			Title:  strings.TrimSpace(m[1]),
			Start:  m[2],
			End:    m[3],
			AllDay: m[4] != "",
		}
	}
	if m := addEventDayRe.FindStringSubmatch(text); m != nil {
		return Intent{
			Kind:   IntentAddEvent,
			Title:  strings.TrimSpace(m[1]),
			Start:  m[2],
			End:    m[2],
			AllDay: true,
		}
	}
	if m := addTaskRe.FindStringSubmatch(text); m != nil {
		intent := Intent{Kind: IntentAddTask, Title: strings.TrimSpace(m[2]), TaskKind: model.KindLongTerm}
		switch strings.ToLower(m[1]) {
		case "daily":
			intent.TaskKind = model.KindDaily
		case "anchored":
			intent.TaskKind = model.KindDaily
			intent.Anchored = true
		}
		return intent
	}
	if m := dueRe.FindStringSubmatch(text); m != nil {
		return Intent{Kind: IntentDue, Date: m[1]}
	}
	if statsRe.MatchString(text) {
		return Intent{Kind: IntentStats, Granularity: service.DetectGranularity(text)}
	}
	return Intent{Kind: IntentUnknown}
}

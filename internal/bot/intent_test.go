package bot

import (
	"testing"

	"taskit/internal/model"
	"taskit/internal/service"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"add daily task Walk the dog", Intent{Kind: IntentAddTask, Title: "Walk the dog", TaskKind: model.KindDaily}},
		{"Add anchored task Meditate", Intent{Kind: IntentAddTask, Title: "Meditate", TaskKind: model.KindDaily, Anchored: true}},
		{"add task Write thesis", Intent{Kind: IntentAddTask, Title: "Write thesis", TaskKind: model.KindLongTerm}},
		{"add long-term task: Move flat", Intent{Kind: IntentAddTask, Title: "Move flat", TaskKind: model.KindLongTerm}},
		{
			"add event Dentist from 2025-09-29T14:00 to 2025-09-29T15:00",
			Intent{Kind: IntentAddEvent, Title: "Dentist", Start: "2025-09-29T14:00", End: "2025-09-29T15:00"},
		},
		{
			"add event Team sync from 2025-09-29 10:00 to 2025-09-29 11:30",
			Intent{Kind: IntentAddEvent, Title: "Team sync", Start: "2025-09-29 10:00", End: "2025-09-29 11:30"},
		},
		{
			"add event Trip from 2025-09-29 to 2025-10-02 all day",
			Intent{Kind: IntentAddEvent, Title: "Trip", Start: "2025-09-29", End: "2025-10-02", AllDay: true},
		},
		{
			"add event Holiday on 2025-09-29",
			Intent{Kind: IntentAddEvent, Title: "Holiday", Start: "2025-09-29", End: "2025-09-29", AllDay: true},
		},
		{"due", Intent{Kind: IntentDue}},
		{"what was due on 2025-09-28?", Intent{Kind: IntentDue, Date: "2025-09-28"}},
		{"stats", Intent{Kind: IntentStats, Granularity: service.GranularityWeek}},
		{"how did I do this month?", Intent{Kind: IntentStats, Granularity: service.GranularityMonth}},
		{"stats for today", Intent{Kind: IntentStats, Granularity: service.GranularityDay}},
		{"hello there", Intent{Kind: IntentUnknown}},
		{"   ", Intent{Kind: IntentUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := ParseIntent(tt.text); got != tt.want {
				t.Fatalf("ParseIntent(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

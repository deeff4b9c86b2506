package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"taskit/internal/clock"
	"taskit/internal/repository"
)

// Granularity is the width of a statistics bucket.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// BucketCount is the number of buckets in every completion-rate series.
const BucketCount = 12

const defaultTopLimit = 10

// RateMode selects how PerTaskRates scores a task.
type RateMode string

const (
	RateModeCount      RateMode = "count"
	RateModePercentage RateMode = "percentage"
)

// ParseGranularity accepts day, week or month (case-insensitive).
func ParseGranularity(raw string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(raw))); g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	default:
		return "", invalid("invalid granularity %q: choose day, week or month", raw)
	}
}

// DetectGranularity guesses a granularity from a free-text question,
// defaulting to week.
func DetectGranularity(query string) Granularity {
	q := strings.ToLower(query)
	switch {
	case q == "":
		return GranularityWeek
	case strings.Contains(q, "day") || strings.Contains(q, "yesterday") || strings.Contains(q, "today"):
		return GranularityDay
	case strings.Contains(q, "month"):
		return GranularityMonth
	default:
		return GranularityWeek
	}
}

// ParseRateMode accepts count (default) or percentage.
func ParseRateMode(raw string) (RateMode, error) {
	switch m := RateMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return RateModeCount, nil
	case RateModeCount, RateModePercentage:
		return m, nil
	default:
		return "", invalid("invalid mode %q: choose count or percentage", raw)
	}
}

// Bucket is one fixed window [Start, End) of a completion-rate series.
type Bucket struct {
	Start          clock.Date `json:"date"`
	End            clock.Date `json:"-"`
	Label          string     `json:"label"`
	Created        int        `json:"created"`
	Completed      int        `json:"completed"`
	CompletionRate float64    `json:"completion_rate"`
}

// Buckets returns the 12 aligned windows ending with the one that contains
// today, oldest first. Weeks start on Sunday.
func Buckets(today clock.Date, g Granularity) []Bucket {
	buckets := make([]Bucket, 0, BucketCount)
	for i := BucketCount - 1; i >= 0; i-- {
		var b Bucket
		switch g {
		case GranularityMonth:
			b.Start = today.StartOfMonth().AddMonths(-i)
			b.End = b.Start.AddMonths(1)
			b.Label = b.Start.Format("2006-01")
		case GranularityWeek:
			b.Start = today.StartOfWeek().AddDays(-7 * i)
			b.End = b.Start.AddDays(7)
			b.Label = b.Start.Format("Jan 02") + " – " + b.Start.AddDays(6).Format("Jan 02")
		default:
			b.Start = today.AddDays(-i)
			b.End = b.Start.AddDays(1)
			b.Label = b.Start.Format("Mon 2006-01-02")
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// TaskCount pairs a lowercased task title with a number of completions.
type TaskCount struct {
	Task  string `json:"task"`
	Count int    `json:"count"`
}

// TaskRate pairs a lowercased task title with its score.
type TaskRate struct {
	Task string  `json:"task"`
	Rate float64 `json:"rate"`
}

// StatsService aggregates the completion ledger.
type StatsService struct {
	completionRepo *repository.CompletionRepository
	clock          *clock.Clock
}

func NewStatsService(completionRepo *repository.CompletionRepository, clk *clock.Clock) *StatsService {
	return &StatsService{completionRepo: completionRepo, clock: clk}
}

// CompletionRate counts tracked and completed rows per bucket.
func (s *StatsService) CompletionRate(ctx context.Context, userID uint, g Granularity) ([]Bucket, error) {
	buckets := Buckets(s.clock.Today(), g)
	rows, err := s.completionRepo.ListForUser(ctx, userID, buckets[0].Start, buckets[len(buckets)-1].End)
	if err != nil {
		return nil, err
	}

	i := 0
	for _, row := range rows {
		for i < len(buckets) && !row.Date.Before(buckets[i].End) {
			i++
		}
		if i == len(buckets) {
			break
		}
		buckets[i].Created++
		if row.Completed {
			buckets[i].Completed++
		}
	}
	for j := range buckets {
		buckets[j].CompletionRate = percentage(buckets[j].Completed, buckets[j].Created)
	}
	return buckets, nil
}

// MostCompleted counts completed rows per lowercased title. Ties keep the
// order in which titles were first seen.
func (s *StatsService) MostCompleted(ctx context.Context, userID uint, limit int) ([]TaskCount, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	rows, err := s.completionRepo.ListTitled(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	counts := make([]TaskCount, 0)
	index := make(map[string]int)
	for _, row := range rows {
		title := strings.ToLower(row.Title)
		pos, ok := index[title]
		if !ok {
			pos = len(counts)
			index[title] = pos
			counts = append(counts, TaskCount{Task: title})
		}
		counts[pos].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// PerTaskRates scores every tracked title. In count mode the score is the
// number of misses, highest first; in percentage mode it is the completion
// percentage rounded half to even, lowest first.
func (s *StatsService) PerTaskRates(ctx context.Context, userID uint, mode RateMode) ([]TaskRate, error) {
	rows, err := s.completionRepo.ListTitled(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	type tally struct {
		title              string
		created, completed int
	}
	tallies := make([]*tally, 0)
	index := make(map[string]*tally)
	for _, row := range rows {
		title := strings.ToLower(row.Title)
		t, ok := index[title]
		if !ok {
			t = &tally{title: title}
			index[title] = t
			tallies = append(tallies, t)
		}
		t.created++
		if row.Completed {
			t.completed++
		}
	}

	rates := make([]TaskRate, 0, len(tallies))
	for _, t := range tallies {
		var rate float64
		if mode == RateModePercentage {
			rate = math.RoundToEven(float64(t.completed) / float64(t.created) * 100)
		} else {
			rate = float64(t.created - t.completed)
		}
		rates = append(rates, TaskRate{Task: t.title, Rate: rate})
	}

	sort.SliceStable(rates, func(i, j int) bool {
		if mode == RateModePercentage {
			return rates[i].Rate < rates[j].Rate
		}
		return rates[i].Rate > rates[j].Rate
	})
	return rates, nil
}

// percentage returns completed/created*100 rounded to two decimals, or 0
// when nothing was tracked.
func percentage(completed, created int) float64 {
	if created == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(created)*100*100) / 100
}

// Package calendar validates and normalizes event time ranges.
//
// All-day events use an exclusive end: an event covering only 29 Sep is
// stored as [29 Sep 00:00, 30 Sep 00:00) in the configured zone.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid marks input that cannot be normalized.
var ErrInvalid = errors.New("invalid event input")

const dateOnly = "2006-01-02"

var awareLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

// Range is a normalized [Start, End) pair in the configured zone.
type Range struct {
	Start time.Time
	End   time.Time
}

// ParseTime accepts a date or a datetime. Naive values are read as wall-clock
// time in loc; values carrying an offset are converted into loc. A bare date
// becomes local midnight.
func ParseTime(raw string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrInvalid)
	}
	if len(s) == len(dateOnly) {
		if t, err := time.ParseInLocation(dateOnly, s, loc); err == nil {
			return t, nil
		}
	}
	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse timestamp %q", ErrInvalid, raw)
}

// NormalizeForCreate is used by every creation path: an end that is not after
// start is replaced by start+1h.
func NormalizeForCreate(title, startRaw, endRaw string, allDay bool, loc *time.Location) (Range, error) {
	r, err := parseRange(title, startRaw, endRaw, loc)
	if err != nil {
		return Range{}, err
	}
	if !r.End.After(r.Start) {
		r.End = r.Start.Add(time.Hour)
	}
	return exclusiveEnd(r, allDay, loc), nil
}

// NormalizeForUpdate is used by edit paths: an end that is not after start is rejected.
func NormalizeForUpdate(title, startRaw, endRaw string, allDay bool, loc *time.Location) (Range, error) {
	r, err := parseRange(title, startRaw, endRaw, loc)
	if err != nil {
		return Range{}, err
	}
	return CheckUpdate(r, allDay, loc)
}

// CheckUpdate applies the edit-path rules to an already parsed range.
func CheckUpdate(r Range, allDay bool, loc *time.Location) (Range, error) {
	r.Start, r.End = r.Start.In(loc), r.End.In(loc)
	if !r.End.After(r.Start) {
		return Range{}, fmt.Errorf("%w: end must be after start", ErrInvalid)
	}
	return exclusiveEnd(r, allDay, loc), nil
}

func parseRange(title, startRaw, endRaw string, loc *time.Location) (Range, error) {
	if strings.TrimSpace(title) == "" {
		return Range{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	start, err := ParseTime(startRaw, loc)
	if err != nil {
		return Range{}, err
	}
	end, err := ParseTime(endRaw, loc)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// exclusiveEnd bumps an all-day event that starts and ends on the same local
// date to midnight of the following day.
func exclusiveEnd(r Range, allDay bool, loc *time.Location) Range {
	if !allDay {
		return r
	}
	sy, sm, sd := r.Start.Date()
	ey, em, ed := r.End.Date()
	if sy == ey && sm == em && sd == ed {
		r.End = time.Date(ey, em, ed+1, 0, 0, 0, 0, loc)
	}
	return r
}

// Overlaps reports whether [start, end) intersects the half-open window.
func Overlaps(start, end, windowStart, windowEnd time.Time) bool {
	return start.Before(windowEnd) && end.After(windowStart)
}

// FormatLocal projects t back to a local wall-clock ISO string.
func FormatLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.RFC3339)
}

package clock

import (
	"fmt"
	"time"
)

// Clock supplies "now" and "today" in a single civil timezone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a wall clock bound to loc.
func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// NewFixed returns a clock frozen at the given instant. Used by tests.
func NewFixed(loc *time.Location, at time.Time) *Clock {
	c := New(loc)
	c.now = func() time.Time { return at }
	return c
}

// Load resolves an IANA zone name and returns a clock bound to it.
func Load(name string) (*Clock, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return New(loc), nil
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *Clock) Today() Date {
	return DateOf(c.Now())
}

// DateOf returns the civil date of t as seen in the clock's zone.
func (c *Clock) DateOf(t time.Time) Date {
	return DateOf(t.In(c.loc))
}

// StartOf returns local midnight of d.
func (c *Clock) StartOf(d Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, c.loc)
}

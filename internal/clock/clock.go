// Package clock abstracts "now" so that occurrence classification can be
// pinned to a fixed day in tests.
package clock

import (
	"sync"
	"time"

	"fjacquet/recurring-ledger/internal/dateutils"
)

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time { return time.Now() }

// Fixed is a settable clock for tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a clock stopped at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

// NewFixedDate returns a clock stopped at UTC noon of the given YYYY-MM-DD day.
func NewFixedDate(day string) *Fixed {
	return NewFixed(dateutils.MustParse(day).Time())
}

// Now returns the stored instant.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Today returns the UTC calendar day of c.Now().
func Today(c Clock) dateutils.Date {
	return dateutils.FromTime(c.Now())
}

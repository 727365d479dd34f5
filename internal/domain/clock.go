package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock supplies "today" for derivation and the ProcessedAt stamp on reports.
var clock = clockwork.NewRealClock()

// SetClock swaps the package time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Today returns the current calendar date in UTC at midnight.
func Today() time.Time {
	return startOfDay(clock.Now())
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package domain

import "github.com/jonboulle/clockwork"

// clock stamps RunSummary start and finish times. Sample timestamps never read
// it; they are derived from the Window alone.
var clock = clockwork.NewRealClock()

// SetClock replaces the clock used for run summaries, e.g. with a fake clock
// in tests. nil restores the wall clock.
func SetClock(c clockwork.Clock) {
	if c != nil {
		clock = c
		return
	}
	clock = clockwork.NewRealClock()
}

package game

import "time"

// TickClock applies elapsed wall time to a remaining time budget and reports
// the new remaining time plus whether the budget is exhausted. The result is
// floored at zero, never negative.
//
// This is a pure helper: the session owns the budgets and the timestamps, the
// clock only does the arithmetic.
func TickClock(remaining, elapsed time.Duration) (time.Duration, bool) {
	if elapsed < 0 {
		elapsed = 0
	}

	left := remaining - elapsed
	if left <= 0 {
		return 0, true
	}

	return left, false
}

package core

import "time"

// RateWindow is a fixed-window counter: at most Limit hits per Window,
// the count resets when a hit lands after the window has elapsed.
// Not safe for concurrent use; the owning Session guards it.
type RateWindow struct {
	Limit  int
	Window time.Duration

	count int
	start time.Time
}

func NewRateWindow(limit int, window time.Duration) RateWindow {
	return RateWindow{Limit: limit, Window: window}
}

// Allow records a hit at now and reports whether it fits in the window.
// Rejected hits are not counted.
func (w *RateWindow) Allow(now time.Time) bool {
	if w.Limit <= 0 {
		return true
	}
	if w.start.IsZero() || now.Sub(w.start) >= w.Window {
		w.start = now
		w.count = 0
	}
	if w.count >= w.Limit {
		return false
	}
	w.count++
	return true
}

// Remaining is the number of hits left in the current window.
func (w *RateWindow) Remaining(now time.Time) int {
	if w.Limit <= 0 {
		return -1
	}
	if w.start.IsZero() || now.Sub(w.start) >= w.Window {
		return w.Limit
	}
	return w.Limit - w.count
}

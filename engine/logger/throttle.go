package logger

import (
	"sync"
	"time"
)

// Throttle rate-limits a recurring warning. The first call to Allow passes, later calls
// pass once per interval and report how many were suppressed in between.
type Throttle struct {
	mu         sync.Mutex
	interval   time.Duration
	last       time.Time
	suppressed int
	now        func() time.Time
}

// NewThrottle creates a Throttle admitting one event per interval.
//
// Parameters:
//   - interval: minimum time between admitted events
//
// Returns:
//   - *Throttle: the throttle
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval, now: time.Now}
}

// Allow reports whether an event may be logged now.
//
// Returns:
//   - bool: true when the event should be logged
//   - int: number of events suppressed since the last admitted one
func (t *Throttle) Allow() (bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		t.suppressed++
		return false, 0
	}
	n := t.suppressed
	t.suppressed = 0
	t.last = now
	return true, n
}

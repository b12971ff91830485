// Package clock derives elapsed workout time from a fixed start instant.
// Nothing here counts ticks, so a process that was suspended or backgrounded
// reports the correct elapsed time on its next observation.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Manual is a settable clock for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock set to t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Elapsed returns whole seconds between start and now, never negative.
func Elapsed(start, now time.Time) int {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// StartFromElapsed reconstructs a start instant so that Elapsed(start, now) == elapsed.
func StartFromElapsed(now time.Time, elapsedSeconds int) time.Time {
	return now.Add(-time.Duration(elapsedSeconds) * time.Second)
}

// Observe calls fn with the elapsed seconds since start every interval until
// ctx is done. Each observation is recomputed from start, so a missed tick
// only delays the display.
func Observe(ctx context.Context, c Clock, start time.Time, interval time.Duration, fn func(elapsed int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	fn(Elapsed(start, c.Now()))
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(Elapsed(start, c.Now()))
		}
	}
}

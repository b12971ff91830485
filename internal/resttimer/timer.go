// Package resttimer implements the rest countdown shown between sets.
package resttimer

import (
	"context"
	"sync"
	"time"

	"github.com/meltforce/liftlog/internal/models"
)

// Timer is a countdown in whole seconds. It is safe for concurrent use and
// never blocks session operations.
type Timer struct {
	mu        sync.Mutex
	remaining int
	running   bool
}

// New returns an idle timer.
func New() *Timer {
	return &Timer{}
}

// Start begins a countdown of seconds, replacing any countdown in progress.
func (t *Timer) Start(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seconds <= 0 {
		t.remaining, t.running = 0, false
		return
	}
	t.remaining, t.running = seconds, true
}

// Tick advances the countdown by one second.
func (t *Timer) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.remaining--
	if t.remaining <= 0 {
		t.remaining, t.running = 0, false
	}
}

// Skip stops the countdown immediately.
func (t *Timer) Skip() {
	t.mu.Lock()
	t.remaining, t.running = 0, false
	t.mu.Unlock()
}

// State returns the current countdown state.
func (t *Timer) State() models.RestTimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return models.RestTimerState{Remaining: t.remaining, Running: t.running}
}

// Run ticks the timer every interval until ctx is cancelled.
func (t *Timer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

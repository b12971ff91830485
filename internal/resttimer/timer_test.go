package resttimer

import (
	"context"
	"testing"
	"time"
)

// TestCountdownReachesZero verifies 90 ticks on a 90-second rest stop the timer at zero.
func TestCountdownReachesZero(t *testing.T) {
	tm := New()
	tm.Start(90)
	for range 89 {
		tm.Tick()
	}
	if s := tm.State(); s.Remaining != 1 || !s.Running {
		t.Fatalf("after 89 ticks: %+v, want remaining=1 running", s)
	}
	tm.Tick()
	if s := tm.State(); s.Remaining != 0 || s.Running {
		t.Errorf("after 90 ticks: %+v, want remaining=0 stopped", s)
	}
	tm.Tick()
	if s := tm.State(); s.Remaining != 0 {
		t.Errorf("tick past zero: remaining = %d, want 0", s.Remaining)
	}
}

// TestSkip verifies skipping mid-countdown stops and zeroes the timer.
func TestSkip(t *testing.T) {
	tm := New()
	tm.Start(90)
	for range 45 {
		tm.Tick()
	}
	tm.Skip()
	if s := tm.State(); s.Running || s.Remaining != 0 {
		t.Errorf("after skip: %+v, want stopped at 0", s)
	}
}

// TestStartSupersedes verifies a new Start replaces a running countdown.
func TestStartSupersedes(t *testing.T) {
	tm := New()
	tm.Start(90)
	tm.Tick()
	tm.Start(60)
	if s := tm.State(); s.Remaining != 60 || !s.Running {
		t.Errorf("after restart: %+v, want 60 running", s)
	}
}

// TestRunTicks verifies the background runner drives the countdown.
func TestRunTicks(t *testing.T) {
	tm := New()
	tm.Start(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tm.Run(ctx, 5*time.Millisecond)

	deadline := time.After(2 * time.Second)
	for tm.State().Running {
		select {
		case <-deadline:
			t.Fatal("timer still running after 2s")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if s := tm.State(); s.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", s.Remaining)
	}
}

package terminal

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// stepClock returns a clock that advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func runUntilCanceled(t *testing.T, run func(context.Context)) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after cancel")
	}
}

func TestSpinner_NonTTYIsSilent(t *testing.T) {
	var out bytes.Buffer
	s := &Spinner{out: &out, completed: &atomic.Int32{}, total: 3, now: time.Now}

	runUntilCanceled(t, s.Run)

	if out.Len() != 0 {
		t.Errorf("expected no output without a terminal, got %q", out.String())
	}
}

func TestSpinner_FinalLineReportsSettledAgents(t *testing.T) {
	var out bytes.Buffer
	s := &Spinner{out: &out, isTTY: true, completed: &atomic.Int32{}, total: 3, now: stepClock(250 * time.Millisecond)}
	s.Completed().Add(2)

	WithColorsDisabled(func() {
		runUntilCanceled(t, s.Run)
	})

	got := out.String()
	if !strings.Contains(got, "[aca] ✓ Agents settled (2/3) in 250ms") {
		t.Errorf("unexpected final line %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("final line should end with a newline")
	}
}

func TestSpinner_ProgressNeverExceedsTotal(t *testing.T) {
	s := &Spinner{completed: &atomic.Int32{}, total: 2}
	s.Completed().Add(5)

	if got := s.progress(); got != "2/2" {
		t.Errorf("progress = %q, want 2/2", got)
	}
}

func TestNewSpinner(t *testing.T) {
	s := NewSpinner(4)
	if s.total != 4 || s.completed == nil || s.out == nil || s.now == nil {
		t.Errorf("spinner not fully initialised: %+v", s)
	}
	if s.Completed().Load() != 0 {
		t.Error("new spinner should start at zero")
	}
}

func TestPhaseSpinner_FinalLineIncludesDuration(t *testing.T) {
	var out bytes.Buffer
	s := &PhaseSpinner{out: &out, isTTY: true, label: "Checking out main", now: stepClock(1500 * time.Millisecond)}

	WithColorsDisabled(func() {
		runUntilCanceled(t, s.Run)
	})

	if got := out.String(); !strings.Contains(got, "[aca] ✓ Checking out main (1.5s)") {
		t.Errorf("unexpected final line %q", got)
	}
}

func TestPhaseSpinner_NonTTYIsSilent(t *testing.T) {
	var out bytes.Buffer
	s := &PhaseSpinner{out: &out, label: "Cleaning up worktree", now: time.Now}

	runUntilCanceled(t, s.Run)

	if out.Len() != 0 {
		t.Errorf("expected no output without a terminal, got %q", out.String())
	}
}

package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

const spinnerInterval = 200 * time.Millisecond

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// Spinner shows how many agents have settled while a coordination pass runs.
// The coordinator advances the counter returned by Completed.
type Spinner struct {
	out       io.Writer
	isTTY     bool
	completed *atomic.Int32
	total     int
	now       func() time.Time
}

// NewSpinner creates a spinner on stderr for total agents.
func NewSpinner(total int) *Spinner {
	return &Spinner{
		out:       os.Stderr,
		isTTY:     IsStderrTTY(),
		completed: &atomic.Int32{},
		total:     total,
		now:       time.Now,
	}
}

// Completed returns the counter of settled agents.
func (s *Spinner) Completed() *atomic.Int32 {
	return s.completed
}

func (s *Spinner) progress() string {
	done := int(s.completed.Load())
	if done > s.total {
		done = s.total
	}
	return fmt.Sprintf("%d/%d", done, s.total)
}

// Run animates until ctx is done, then prints the final agent count and the
// elapsed time. Without a terminal it prints nothing.
func (s *Spinner) Run(ctx context.Context) {
	if !s.isTTY {
		<-ctx.Done()
		return
	}

	start := s.now()
	idx := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(s.out, "\r%s %s✓%s Agents settled %s(%s) in %s%s          \n",
				Tag(Green), Color(Green), Color(Reset), Color(Dim), s.progress(),
				FormatDuration(s.now().Sub(start)), Color(Reset))
			return

		case <-ticker.C:
			frame := string(spinnerFrames[idx%len(spinnerFrames)])
			fmt.Fprintf(s.out, "\r%s %s%s%s Running agents %s(%s)%s          ",
				Tag(Cyan), Color(Cyan), frame, Color(Reset), Color(Dim), s.progress(), Color(Reset))
			idx++
		}
	}
}

// PhaseSpinner shows a single labelled step, such as a worktree checkout.
type PhaseSpinner struct {
	out   io.Writer
	isTTY bool
	label string
	now   func() time.Time
}

// NewPhaseSpinner creates a phase spinner on stderr.
func NewPhaseSpinner(label string) *PhaseSpinner {
	return &PhaseSpinner{
		out:   os.Stderr,
		isTTY: IsStderrTTY(),
		label: label,
		now:   time.Now,
	}
}

// Run animates until ctx is done, then prints the label with its duration.
func (s *PhaseSpinner) Run(ctx context.Context) {
	if !s.isTTY {
		<-ctx.Done()
		return
	}

	start := s.now()
	idx := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(s.out, "\r%s %s✓%s %s %s(%s)%s          \n",
				Tag(Green), Color(Green), Color(Reset), s.label,
				Color(Dim), FormatDuration(s.now().Sub(start)), Color(Reset))
			return

		case <-ticker.C:
			frame := string(spinnerFrames[idx%len(spinnerFrames)])
			fmt.Fprintf(s.out, "\r%s %s%s%s %s          ",
				Tag(Cyan), Color(Cyan), frame, Color(Reset), s.label)
			idx++
		}
	}
}

// Package terminal provides terminal output formatting and TTY detection.
package terminal

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// ANSI color codes.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Cyan    = "\033[36m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Red     = "\033[31m"
	Magenta = "\033[35m"
	White   = "\033[97m"
	Blue    = "\033[34m"
)

// SeverityColor returns the color code used for a finding severity.
func SeverityColor(sev domain.Severity) string {
	switch sev {
	case domain.SeverityCritical:
		return Red + Bold
	case domain.SeverityHigh:
		return Red
	case domain.SeverityMedium:
		return Yellow
	case domain.SeverityLow:
		return Cyan
	default:
		return Dim
	}
}

var colorsEnabled atomic.Bool

func init() { colorsEnabled.Store(true) }

// ConfigureColors enables colors only when stdout is a terminal, NO_COLOR is
// unset and TERM is not "dumb". Reports piped to files stay free of escapes.
func ConfigureColors() {
	SetColorsEnabled(colorsWanted(IsStdoutTTY(), os.Getenv))
}

func colorsWanted(stdoutTTY bool, getenv func(string) string) bool {
	if !stdoutTTY {
		return false
	}
	if getenv("NO_COLOR") != "" || getenv("TERM") == "dumb" {
		return false
	}
	return true
}

// DisableColors turns off color output globally.
func DisableColors() { colorsEnabled.Store(false) }

// EnableColors turns on color output globally.
func EnableColors() { colorsEnabled.Store(true) }

// ColorsEnabled reports whether colors are currently enabled.
func ColorsEnabled() bool { return colorsEnabled.Load() }

// SetColorsEnabled sets the color output state.
func SetColorsEnabled(enabled bool) { colorsEnabled.Store(enabled) }

// WithColorsDisabled runs fn with colors disabled, then restores the previous
// state.
func WithColorsDisabled(fn func()) {
	prev := colorsEnabled.Swap(false)
	defer colorsEnabled.Store(prev)
	fn()
}

// Color returns c when colors are enabled and "" otherwise.
func Color(c string) string {
	if colorsEnabled.Load() {
		return c
	}
	return ""
}

// IsTTY returns true if the given file descriptor is a TTY.
func IsTTY(fd int) bool {
	return term.IsTerminal(fd)
}

// IsStdoutTTY returns true if stdout is a TTY.
func IsStdoutTTY() bool {
	return IsTTY(int(os.Stdout.Fd()))
}

// IsStdinTTY returns true if stdin is a TTY.
func IsStdinTTY() bool {
	return IsTTY(int(os.Stdin.Fd()))
}

// IsStderrTTY returns true if stderr is a TTY.
func IsStderrTTY() bool {
	return IsTTY(int(os.Stderr.Fd()))
}

// GetTerminalWidth returns the terminal width, or 80 if detection fails.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

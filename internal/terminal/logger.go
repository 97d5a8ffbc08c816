package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Style represents a log message style.
type Style string

const (
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleWarning Style = "warning"
	StyleError   Style = "error"
	StyleDim     Style = "dim"
	StylePhase   Style = "phase"
)

var styleColors = map[Style]string{
	StyleInfo:    Cyan,
	StyleSuccess: Green,
	StyleWarning: Yellow,
	StyleError:   Red,
	StyleDim:     Dim,
	StylePhase:   Magenta + Bold,
}

// ToolName is the tag printed in front of every log line.
const ToolName = "aca"

// clearWidth covers the widest spinner line.
const clearWidth = 100

// Logger writes styled, tagged progress lines. Findings never go through the
// logger; they are rendered by the report package to stdout.
type Logger struct {
	out   io.Writer
	isTTY bool
}

// NewLogger creates a logger writing to stderr.
func NewLogger() *Logger {
	return &Logger{
		out:   os.Stderr,
		isTTY: IsStderrTTY(),
	}
}

// NewLoggerTo creates a logger writing to w. It never clears lines.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{out: w}
}

// Tag returns the bracketed tool tag in the given color.
func Tag(c string) string {
	return fmt.Sprintf("%s[%s%s%s%s%s]%s",
		Color(Dim), Color(Reset), Color(c), ToolName, Color(Reset), Color(Dim), Color(Reset))
}

// Log prints a styled log message.
func (l *Logger) Log(msg string, style Style) {
	c, ok := styleColors[style]
	if !ok {
		c = Cyan
	}
	w := l.out
	if w == nil {
		w = os.Stderr
	}

	// A spinner may own the current line.
	if l.isTTY {
		fmt.Fprint(w, "\r"+strings.Repeat(" ", clearWidth)+"\r")
	}
	fmt.Fprintf(w, "%s %s\n", Tag(c), msg)
}

// Logf prints a formatted styled log message.
func (l *Logger) Logf(style Style, format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...), style)
}

// Log prints a styled log message to stderr.
func Log(msg string, style Style) {
	NewLogger().Log(msg, style)
}

// Logf prints a formatted styled log message to stderr.
func Logf(style Style, format string, args ...any) {
	Log(fmt.Sprintf(format, args...), style)
}

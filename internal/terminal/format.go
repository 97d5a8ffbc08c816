package terminal

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// Report width bounds. Narrow terminals still get a readable report.
const (
	MinReportWidth = 40
	MaxReportWidth = 100
)

// FormatDuration formats an agent or run duration. Static agents usually
// finish in milliseconds, so sub-second values keep millisecond precision.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d / time.Minute)
	rest := d - time.Duration(mins)*time.Minute
	return fmt.Sprintf("%dm %.1fs", mins, rest.Seconds())
}

// Ruler returns a light horizontal rule colored for sev.
// SeverityUnknown gives a dim rule.
func Ruler(width int, sev domain.Severity) string {
	return rule(width, "─", SeverityColor(sev))
}

// HeavyRuler returns the heavy rule that frames the findings block.
func HeavyRuler(width int) string {
	return rule(width, "━", Dim)
}

func rule(width int, char, c string) string {
	if width < 1 {
		width = 1
	}
	return Color(c) + strings.Repeat(char, width) + Color(Reset)
}

// WrapText wraps text to width display columns, prefixing every line with
// indent. Words wider than the available space are broken.
func WrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	avail := width - runewidth.StringWidth(indent)
	if avail < 1 {
		return indent + strings.Join(words, " ")
	}

	var lines []string
	var cur strings.Builder
	curWidth := 0
	flush := func() {
		lines = append(lines, indent+cur.String())
		cur.Reset()
		curWidth = 0
	}

	for _, word := range words {
		for runewidth.StringWidth(word) > avail {
			if curWidth > 0 {
				flush()
			}
			head := runewidth.Truncate(word, avail, "")
			if head == "" {
				// A single rune wider than the line.
				head = string([]rune(word)[:1])
			}
			cur.WriteString(head)
			curWidth = runewidth.StringWidth(head)
			flush()
			word = word[len(head):]
		}
		if word == "" {
			continue
		}
		w := runewidth.StringWidth(word)
		if curWidth > 0 && curWidth+1+w > avail {
			flush()
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(word)
		curWidth += w
	}
	if curWidth > 0 {
		flush()
	}
	return strings.Join(lines, "\n")
}

// Truncate shortens s to at most width display columns, ending with "..."
// when cut. It never splits a multi-byte rune.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "...")
}

// ReportWidth returns the console report width for the current terminal.
func ReportWidth() int {
	return clampWidth(GetTerminalWidth())
}

func clampWidth(w int) int {
	switch {
	case w < MinReportWidth:
		return MinReportWidth
	case w > MaxReportWidth:
		return MaxReportWidth
	}
	return w
}

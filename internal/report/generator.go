package report

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
	"github.com/richhaase/agentic-code-analyzer/internal/terminal"
)

// Generator renders report data in a given format.
type Generator interface {
	Generate(data ReportData, format Format) (string, error)
}

// DefaultGenerator renders every supported format.
type DefaultGenerator struct {
	// Width of console output. Zero uses terminal.ReportWidth.
	Width int
}

// Generate implements Generator.
func (g DefaultGenerator) Generate(data ReportData, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(data)
	case FormatMarkdown:
		return renderMarkdown(data), nil
	case FormatConsole, "":
		width := g.Width
		if width <= 0 {
			width = terminal.ReportWidth()
		}
		return renderConsole(data, width), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

// NopGenerator renders nothing. Use it when only the exit code matters.
type NopGenerator struct{}

// Generate implements Generator.
func (NopGenerator) Generate(ReportData, Format) (string, error) {
	return "", nil
}

func renderJSON(data ReportData) (string, error) {
	if data.Sections == nil {
		data.Sections = []Section{}
	}
	if data.Agents == nil {
		data.Agents = []AgentStatus{}
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(out) + "\n", nil
}

func renderConsole(data ReportData, width int) string {
	var lines []string

	// Warnings
	var warnings []string
	for _, a := range data.Agents {
		if a.TimedOut {
			warnings = append(warnings, fmt.Sprintf("Timed out agent: %s", a.Name))
		} else if a.Failure != "" {
			warnings = append(warnings, fmt.Sprintf("Failed agent: %s (%s)", a.Name, a.Failure))
		}
	}
	if len(warnings) > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%s⚠ Warnings%s", terminal.Color(terminal.Yellow), terminal.Color(terminal.Reset)))
		lines = append(lines, terminal.Ruler(width, domain.SeverityUnknown))
		for _, w := range warnings {
			lines = append(lines, fmt.Sprintf("  %s•%s %s", terminal.Color(terminal.Yellow), terminal.Color(terminal.Reset), w))
		}
		lines = append(lines, "")
	}

	succeeded := 0
	for _, a := range data.Agents {
		if a.Failure == "" {
			succeeded++
		}
	}

	if !data.HasFindings() {
		lines = append(lines, fmt.Sprintf("%s✓%s %s%sNo findings%s %s(%d/%d agents)%s",
			terminal.Color(terminal.Green), terminal.Color(terminal.Reset),
			terminal.Color(terminal.Green), terminal.Color(terminal.Bold), terminal.Color(terminal.Reset),
			terminal.Color(terminal.Dim), succeeded, len(data.Agents), terminal.Color(terminal.Reset)))
	} else {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%s%s📋 %d %s%s",
			terminal.Color(terminal.Cyan), terminal.Color(terminal.Bold), data.FindingCount, plural(data.FindingCount, "finding", "findings"), terminal.Color(terminal.Reset)))
		lines = append(lines, terminal.HeavyRuler(width))

		for _, section := range data.Sections {
			lines = append(lines, "")
			sev := section.Entries[0].Severity
			lines = append(lines, fmt.Sprintf("%s%s%s%s %s(%d)%s",
				terminal.Color(terminal.SeverityColor(sev)), terminal.Color(terminal.Bold), section.Title, terminal.Color(terminal.Reset),
				terminal.Color(terminal.Dim), len(section.Entries), terminal.Color(terminal.Reset)))
			lines = append(lines, terminal.Ruler(width, sev))

			for _, e := range section.Entries {
				rule := ""
				if e.RuleID != "" {
					rule = fmt.Sprintf(" %s[%s]%s", terminal.Color(terminal.Dim), e.RuleID, terminal.Color(terminal.Reset))
				}
				lines = append(lines, fmt.Sprintf("  %s%s%s%s", terminal.Color(terminal.Bold), e.Location, terminal.Color(terminal.Reset), rule))
				lines = append(lines, terminal.WrapText(e.Message, width-4, "    "))
				if len(e.Agents) > 1 {
					lines = append(lines, fmt.Sprintf("    %sreported by %s%s",
						terminal.Color(terminal.Dim), strings.Join(e.Agents, ", "), terminal.Color(terminal.Reset)))
				}
			}
		}

		lines = append(lines, "")
		lines = append(lines, terminal.HeavyRuler(width))
	}

	if data.FilteredCount > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%sℹ %d %s below the severity threshold%s",
			terminal.Color(terminal.Dim), data.FilteredCount, plural(data.FilteredCount, "finding", "findings"), terminal.Color(terminal.Reset)))
	}
	if data.IgnoredCount > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%sℹ %d %s skipped from .aca/ignore%s",
			terminal.Color(terminal.Dim), data.IgnoredCount, plural(data.IgnoredCount, "finding", "findings"), terminal.Color(terminal.Reset)))
	}

	if data.WallClock > 0 || len(data.Agents) > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%sTiming:%s", terminal.Color(terminal.Dim), terminal.Color(terminal.Reset)))

		if data.WallClock > 0 {
			lines = append(lines, fmt.Sprintf("  %sagents: %s%s",
				terminal.Color(terminal.Dim), terminal.FormatDuration(data.WallClock), terminal.Color(terminal.Reset)))
		}

		if len(data.Agents) > 0 {
			durations := make([]time.Duration, 0, len(data.Agents))
			var sum time.Duration
			for _, a := range data.Agents {
				durations = append(durations, a.ExecutionTime)
				sum += a.ExecutionTime
			}
			slices.Sort(durations)
			avg := sum / time.Duration(len(durations))

			lines = append(lines, fmt.Sprintf("  %s  min %s / avg %s / max %s%s",
				terminal.Color(terminal.Dim), terminal.FormatDuration(durations[0]), terminal.FormatDuration(avg),
				terminal.FormatDuration(durations[len(durations)-1]), terminal.Color(terminal.Reset)))
		}
	}

	return strings.Join(lines, "\n") + "\n"
}

func renderMarkdown(data ReportData) string {
	var lines []string
	lines = append(lines, "## "+data.Title)
	lines = append(lines, "")

	lines = append(lines, "| Metric | Value |")
	lines = append(lines, "| --- | --- |")
	for _, item := range data.Summary {
		lines = append(lines, fmt.Sprintf("| %s | %s |", item.Label, item.Value))
	}

	if !data.HasFindings() {
		lines = append(lines, "")
		lines = append(lines, "**No findings** :white_check_mark:")
	}

	idx := 0
	for _, section := range data.Sections {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("### %s (%d)", section.Title, len(section.Entries)))
		lines = append(lines, "")
		for _, e := range section.Entries {
			idx++
			rule := ""
			if e.RuleID != "" {
				rule = fmt.Sprintf(" `%s`", e.RuleID)
			}
			lines = append(lines, fmt.Sprintf("%d. **%s**%s (%s): %s", idx, e.Location, rule, e.Category, escapeMarkdown(e.Message)))
		}
	}

	var failed []AgentStatus
	for _, a := range data.Agents {
		if a.Failure != "" {
			failed = append(failed, a)
		}
	}
	if len(failed) > 0 {
		lines = append(lines, "")
		lines = append(lines, "### Agent failures")
		lines = append(lines, "")
		for _, a := range failed {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", a.Name, escapeMarkdown(a.Failure)))
		}
	}

	if len(data.Agents) > 0 {
		lines = append(lines, "")
		lines = append(lines, "<details>")
		lines = append(lines, "<summary>Agent timings</summary>")
		lines = append(lines, "")
		for _, a := range data.Agents {
			lines = append(lines, fmt.Sprintf("- %s: %d %s in %dms", a.Name, a.Findings, plural(a.Findings, "finding", "findings"), a.ExecutionMS))
		}
		lines = append(lines, "")
		lines = append(lines, "</details>")
	}

	return strings.Join(lines, "\n") + "\n"
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "<", "&lt;", ">", "&gt;")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

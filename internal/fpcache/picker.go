package fpcache

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
	"github.com/richhaase/agentic-code-analyzer/internal/terminal"
)

// ErrNotInteractive is returned by RunPicker when stdin is not a terminal.
var ErrNotInteractive = errors.New("ignore pick requires an interactive terminal")

const pickerMessageWidth = 80

var (
	pickerTitle  = lipgloss.NewStyle().Bold(true)
	pickerRow    = lipgloss.NewStyle().PaddingLeft(2)
	pickerCursor = lipgloss.NewStyle().PaddingLeft(2).Background(lipgloss.Color("236"))
	pickerDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pickerDetail = pickerDim.PaddingLeft(8)
	pickerMarked = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("[x]")
	pickerBlank  = pickerDim.Render("[ ]")

	// ANSI 256 palette, matching terminal.SeverityColor.
	severityBadges = map[domain.Severity]lipgloss.Style{
		domain.SeverityCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		domain.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		domain.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		domain.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
)

// PickerModel is the bubbletea model behind `aca ignore pick`. Rows that
// already match .aca/ignore start checked and are tagged as ignored.
type PickerModel struct {
	findings []LastRunFinding
	checked  []bool
	ignored  []bool
	cursor   int
	done     bool
	canceled bool
}

// NewPicker creates a picker over findings from the last run.
func NewPicker(findings []LastRunFinding, alreadyIgnored []string) PickerModel {
	m := PickerModel{
		findings: findings,
		checked:  make([]bool, len(findings)),
		ignored:  make([]bool, len(findings)),
	}
	for i, f := range findings {
		if f.matches(alreadyIgnored) {
			m.checked[i] = true
			m.ignored[i] = true
		}
	}
	return m
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, max(len(m.findings)-1, 0))
	case " ", "x":
		if len(m.checked) > 0 {
			m.checked[m.cursor] = !m.checked[m.cursor]
		}
	case "a":
		m.setAll(true)
	case "n":
		m.setAll(false)
	case "enter":
		m.done = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.canceled = true
		return m, tea.Quit
	}
	return m, nil
}

// setAll copies the slice so earlier model values keep their state.
func (m *PickerModel) setAll(v bool) {
	checked := make([]bool, len(m.checked))
	for i := range checked {
		checked[i] = v
	}
	m.checked = checked
}

// View implements tea.Model.
func (m PickerModel) View() string {
	if len(m.findings) == 0 {
		return "No findings to ignore.\n"
	}

	var b strings.Builder
	b.WriteString(pickerTitle.Render("Select findings to add to .aca/ignore"))
	b.WriteString("\n\n")

	for i, f := range m.findings {
		box := pickerBlank
		if m.checked[i] {
			box = pickerMarked
		}
		line := fmt.Sprintf("%s %s %s %s", box, severityBadge(f.Severity), f.Location,
			terminal.Truncate(f.Message, pickerMessageWidth))
		if i == m.cursor {
			b.WriteString(pickerCursor.Render(line))
		} else {
			b.WriteString(pickerRow.Render(line))
		}
		b.WriteString("\n")

		if detail := f.detail(m.ignored[i]); detail != "" {
			b.WriteString(pickerDetail.Render(detail))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(pickerDim.Render(fmt.Sprintf("%d of %d selected • ↑/↓ move • space toggle • a all • n none • enter save • q cancel",
		m.selectedCount(), len(m.findings))))
	b.WriteString("\n")
	return b.String()
}

func severityBadge(sev domain.Severity) string {
	label := fmt.Sprintf("%-8s", sev)
	if style, ok := severityBadges[sev]; ok {
		return style.Render(label)
	}
	return pickerDim.Render(label)
}

func (f LastRunFinding) detail(ignored bool) string {
	var parts []string
	if f.RuleID != "" {
		parts = append(parts, f.RuleID)
	}
	if len(f.Agents) > 0 {
		parts = append(parts, strings.Join(f.Agents, ", "))
	}
	if ignored {
		parts = append(parts, "already ignored")
	}
	return strings.Join(parts, " • ")
}

func (m PickerModel) selectedCount() int {
	n := 0
	for _, c := range m.checked {
		if c {
			n++
		}
	}
	return n
}

// SelectedKeys returns the keys of checked findings in list order.
func (m PickerModel) SelectedKeys() []string {
	keys := make([]string, 0, m.selectedCount())
	for i, c := range m.checked {
		if c {
			keys = append(keys, m.findings[i].Key)
		}
	}
	return keys
}

// Confirmed reports whether the user saved the selection.
func (m PickerModel) Confirmed() bool { return m.done }

// Quitted reports whether the user left without saving.
func (m PickerModel) Quitted() bool { return m.canceled }

// RunPicker runs the picker and returns the keys to ignore. A nil slice with
// a nil error means the user canceled.
func RunPicker(findings []LastRunFinding, alreadyIgnored []string) ([]string, error) {
	if !terminal.IsStdinTTY() {
		return nil, ErrNotInteractive
	}
	if len(findings) == 0 {
		return []string{}, nil
	}

	final, err := tea.NewProgram(NewPicker(findings, alreadyIgnored)).Run()
	if err != nil {
		return nil, fmt.Errorf("picker UI error: %w", err)
	}
	m, ok := final.(PickerModel)
	if !ok {
		return nil, fmt.Errorf("unexpected picker model %T", final)
	}
	if m.Quitted() {
		return nil, nil
	}
	return m.SelectedKeys(), nil
}

func (f LastRunFinding) matches(patterns []string) bool {
	return matchesAny(f.Key, f.RuleID, f.Message, patterns)
}

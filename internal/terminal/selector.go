package terminal

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// selectorState represents the current state of the selector UI.
type selectorState int

const (
	stateNormal selectorState = iota
	stateDone
)

// SelectorModel is the bubbletea model for the interactive finding selector.
type SelectorModel struct {
	findings  []domain.AggregatedFinding
	selected  map[int]bool // selection state (kept out of domain types)
	expanded  map[int]bool // which items show full details
	cursor    int
	state     selectorState
	confirmed bool
	quitted   bool
}

// NewSelector creates a new selector model with all findings selected by default.
func NewSelector(findings []domain.AggregatedFinding) SelectorModel {
	selected := make(map[int]bool, len(findings))
	for i := range findings {
		selected[i] = true
	}
	return SelectorModel{
		findings: findings,
		selected: selected,
		expanded: make(map[int]bool),
		cursor:   0,
		state:    stateNormal,
	}
}

// Init implements tea.Model.
func (m SelectorModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.state == stateDone {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.findings)-1 {
			m.cursor++
		}
	case " ":
		if len(m.findings) > 0 {
			m.selected[m.cursor] = !m.selected[m.cursor]
		}
	case "a":
		for i := range m.findings {
			m.selected[i] = true
		}
	case "n":
		for i := range m.findings {
			m.selected[i] = false
		}
	case "e":
		if len(m.findings) > 0 {
			m.expanded[m.cursor] = !m.expanded[m.cursor]
		}
	case "enter":
		m.confirmed = true
		m.state = stateDone
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.quitted = true
		m.state = stateDone
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m SelectorModel) View() string {
	if len(m.findings) == 0 {
		return "No findings to select.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%sSelect findings to ignore%s\n\n", Color(Bold), Color(Reset))

	for i, f := range m.findings {
		cursor := " "
		if i == m.cursor {
			cursor = Color(Cyan) + ">" + Color(Reset)
		}
		check := "[ ]"
		if m.selected[i] {
			check = Color(Green) + "[x]" + Color(Reset)
		}
		agents := "agents"
		if len(f.Agents) == 1 {
			agents = "agent"
		}
		fmt.Fprintf(&b, "%s %s %s%s%s %s %s(%d %s)%s\n",
			cursor, check,
			Color(Bold), f.Location.String(), Color(Reset),
			f.Message,
			Color(Dim), len(f.Agents), agents, Color(Reset))

		if m.expanded[i] {
			fmt.Fprintf(&b, "      %sseverity:%s %s\n", Color(Dim), Color(Reset), f.Severity)
			fmt.Fprintf(&b, "      %scategory:%s %s\n", Color(Dim), Color(Reset), f.Category)
			if f.RuleID != "" {
				fmt.Fprintf(&b, "      %srule:%s %s\n", Color(Dim), Color(Reset), f.RuleID)
			}
			if len(f.Agents) > 0 {
				fmt.Fprintf(&b, "      %sreported by:%s %s\n", Color(Dim), Color(Reset), strings.Join(f.Agents, ", "))
			}
		}
	}

	fmt.Fprintf(&b, "\n%s↑/↓ j/k navigate • space toggle • a all • n none • e expand • enter confirm • q quit%s\n",
		Color(Dim), Color(Reset))
	return b.String()
}

// SelectedIndices returns the indices of selected findings in sorted order.
func (m SelectorModel) SelectedIndices() []int {
	indices := make([]int, 0, len(m.selected))
	for i, sel := range m.selected {
		if sel {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	return indices
}

// Confirmed returns true if the user confirmed the selection.
func (m SelectorModel) Confirmed() bool {
	return m.confirmed
}

// Quitted returns true if the user quit without confirming.
func (m SelectorModel) Quitted() bool {
	return m.quitted
}

// RunSelector runs the selector on the terminal and returns the chosen
// findings. ok is false if the user quit without confirming.
func RunSelector(findings []domain.AggregatedFinding) (chosen []domain.AggregatedFinding, ok bool, err error) {
	final, err := tea.NewProgram(NewSelector(findings)).Run()
	if err != nil {
		return nil, false, fmt.Errorf("selector failed: %w", err)
	}
	m, isModel := final.(SelectorModel)
	if !isModel || !m.Confirmed() {
		return nil, false, nil
	}
	for _, i := range m.SelectedIndices() {
		chosen = append(chosen, findings[i])
	}
	return chosen, true, nil
}

package fpcache

import (
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

func pickerFindings() []LastRunFinding {
	return []LastRunFinding{
		{Key: "a.go:1|quality.todo|TODO", RuleID: "quality.todo", Severity: domain.SeverityInfo, Location: "a.go:1", Message: "TODO"},
		{Key: "b.go:2|sec.eval|Use of eval", RuleID: "sec.eval", Severity: domain.SeverityHigh, Location: "b.go:2", Message: "Use of eval"},
	}
}

func TestNewPicker_PreselectsIgnored(t *testing.T) {
	m := NewPicker(pickerFindings(), []string{"sec.eval"})

	if m.checked[0] {
		t.Error("expected first finding unselected")
	}
	if !m.checked[1] {
		t.Error("expected already-ignored finding to be preselected")
	}
}

func TestPicker_ToggleAndConfirm(t *testing.T) {
	m := NewPicker(pickerFindings(), nil)

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m = newModel.(PickerModel)
	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m = newModel.(PickerModel)
	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = newModel.(PickerModel)

	if !m.Confirmed() || cmd == nil {
		t.Fatal("expected confirm with quit command")
	}
	keys := m.SelectedKeys()
	if len(keys) != 1 || keys[0] != "a.go:1|quality.todo|TODO" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestPicker_Quit(t *testing.T) {
	m := NewPicker(pickerFindings(), nil)

	newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = newModel.(PickerModel)

	if !m.Quitted() || cmd == nil {
		t.Error("expected quit with quit command")
	}
}

func TestPicker_View(t *testing.T) {
	if got := NewPicker(nil, nil).View(); got != "No findings to ignore.\n" {
		t.Errorf("unexpected empty view %q", got)
	}

	view := NewPicker(pickerFindings(), nil).View()
	for _, want := range []string{"b.go:2", "Use of eval", "sec.eval", "high", "0 of 2 selected"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPicker_SelectAllAndNone(t *testing.T) {
	m := NewPicker(pickerFindings(), []string{"sec.eval"})

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	all := newModel.(PickerModel)
	if got := all.SelectedKeys(); len(got) != 2 {
		t.Errorf("after select all: %v", got)
	}
	if !strings.Contains(all.View(), "2 of 2 selected") {
		t.Errorf("view does not show count:\n%s", all.View())
	}

	newModel, _ = all.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	none := newModel.(PickerModel)
	if got := none.SelectedKeys(); len(got) != 0 {
		t.Errorf("after select none: %v", got)
	}
	if got := all.SelectedKeys(); len(got) != 2 {
		t.Errorf("clearing mutated the earlier model: %v", got)
	}
}

func TestPicker_MarksAlreadyIgnored(t *testing.T) {
	view := NewPicker(pickerFindings(), []string{"quality.todo"}).View()

	lines := strings.Split(view, "\n")
	var todoDetail, evalDetail string
	for i, l := range lines {
		if strings.Contains(l, "a.go:1") && i+1 < len(lines) {
			todoDetail = lines[i+1]
		}
		if strings.Contains(l, "b.go:2") && i+1 < len(lines) {
			evalDetail = lines[i+1]
		}
	}
	if !strings.Contains(todoDetail, "already ignored") {
		t.Errorf("expected ignored marker for TODO finding, got %q", todoDetail)
	}
	if strings.Contains(evalDetail, "already ignored") {
		t.Errorf("unexpected ignored marker for eval finding: %q", evalDetail)
	}
}

func TestPicker_CursorStaysInBounds(t *testing.T) {
	m := NewPicker(pickerFindings(), nil)
	for _, r := range "kkjjjj" {
		newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = newModel.(PickerModel)
	}
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}

	empty := NewPicker(nil, nil)
	newModel, _ := empty.Update(tea.KeyMsg{Type: tea.KeySpace})
	if got := newModel.(PickerModel).SelectedKeys(); len(got) != 0 {
		t.Errorf("toggle on empty picker selected %v", got)
	}
}

func TestPicker_ViewKeepsMultiByteMessagesIntact(t *testing.T) {
	findings := []LastRunFinding{{
		Key:      "c.go:9|quality.todo|x",
		Severity: domain.SeverityInfo,
		Location: "c.go:9",
		Message:  strings.Repeat("é", 79) + "日本語のメッセージ",
	}}

	view := NewPicker(findings, nil).View()
	if !utf8.ValidString(view) {
		t.Fatalf("view contains a split rune:\n%q", view)
	}
	if !strings.Contains(view, "...") {
		t.Errorf("expected long message to be truncated:\n%s", view)
	}
}

func TestPicker_PreselectionAgreesWithIgnoreFilter(t *testing.T) {
	finding := domain.Finding{
		Category: domain.CategorySecurity,
		Severity: domain.SeverityHigh,
		Message:  "Use of eval",
		RuleID:   "sec.eval",
		Location: domain.Location{Path: "b.go", Line: 2},
	}
	cached := LastRunFinding{
		Key:      finding.Key(),
		RuleID:   finding.RuleID,
		Severity: finding.Severity,
		Location: finding.Location.String(),
		Message:  finding.Message,
	}

	for _, pattern := range []string{finding.Key(), "sec.eval", "eval", "unrelated", "b.go:2"} {
		t.Run(pattern, func(t *testing.T) {
			picked := NewPicker([]LastRunFinding{cached}, []string{pattern}).checked[0]
			if filtered := MatchesIgnore(finding, []string{pattern}); picked != filtered {
				t.Errorf("picker preselect=%v, ignore filter=%v", picked, filtered)
			}
		})
	}
}

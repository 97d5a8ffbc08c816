package fpcache

import (
	"strings"
	"testing"
	"time"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

func TestSaveLoadLastRun(t *testing.T) {
	dir := t.TempDir()
	path := LastRunPath(dir)

	shared := testFinding("sec.eval", "Use of eval")
	reports := []domain.AnalysisReport{
		domain.NewAnalysisReport("static", []domain.Finding{shared}, time.Millisecond),
		domain.NewAnalysisReport("errors", []domain.Finding{shared, testFinding("quality.todo", "TODO")}, time.Millisecond),
	}
	result := &domain.CoordinationResult{RunID: "abc", Reports: reports}

	if err := SaveLastRun(path, result); err != nil {
		t.Fatalf("SaveLastRun: %v", err)
	}

	got, err := LoadLastRun(path)
	if err != nil {
		t.Fatalf("LoadLastRun: %v", err)
	}
	if got.RunID != "abc" {
		t.Errorf("expected run id abc, got %q", got.RunID)
	}
	if len(got.Findings) != 2 {
		t.Fatalf("expected 2 merged findings, got %d", len(got.Findings))
	}
	first := got.Findings[0]
	if first.Key != shared.Key() || first.Severity != domain.SeverityLow || first.Location != "main.go:4" {
		t.Errorf("unexpected first finding: %+v", first)
	}
	if len(first.Agents) != 2 {
		t.Errorf("expected 2 agents, got %v", first.Agents)
	}
}

func TestSaveLastRun_NilResult(t *testing.T) {
	path := LastRunPath(t.TempDir())

	if err := SaveLastRun(path, nil); err != nil {
		t.Fatalf("SaveLastRun: %v", err)
	}
	got, err := LoadLastRun(path)
	if err != nil {
		t.Fatalf("LoadLastRun: %v", err)
	}
	if len(got.Findings) != 0 {
		t.Errorf("expected no findings, got %d", len(got.Findings))
	}
}

func TestLoadLastRun_Missing(t *testing.T) {
	_, err := LoadLastRun(LastRunPath(t.TempDir()))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestLoadLastRun_InvalidJSON(t *testing.T) {
	path := LastRunPath(t.TempDir())
	if err := SaveIgnoreFile(path, []string{"{not json"}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := LoadLastRun(path); err == nil {
		t.Error("expected parse error")
	}
}

package fpcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

func TestLoadIgnoreFile_MissingFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := IgnorePath(tmpDir)

	patterns, err := LoadIgnoreFile(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("expected empty patterns, got %d", len(patterns))
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("loading must not create the ignore file")
	}
}

func TestLoadIgnoreFile_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "ignore")

	if err := os.WriteFile(path, []byte{}, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	patterns, err := LoadIgnoreFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("expected empty patterns for empty file, got %d", len(patterns))
	}
}

func TestLoadIgnoreFile_SkipsBlankAndComments(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "ignore")

	content := "# generated code\nstyle.long-line\n\n  quality.todo  \n#another\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	patterns, err := LoadIgnoreFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 2 || patterns[0] != "style.long-line" || patterns[1] != "quality.todo" {
		t.Errorf("unexpected patterns: %v", patterns)
	}
}

func TestSaveIgnoreFile_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	path := IgnorePath(tmpDir)

	if err := SaveIgnoreFile(path, []string{"a", "b"}); err != nil {
		t.Fatalf("SaveIgnoreFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read ignore file: %v", err)
	}
	if string(data) != "a\nb\n" {
		t.Errorf("unexpected content %q", string(data))
	}
}

func TestAddIgnorePatterns_Dedupes(t *testing.T) {
	path := IgnorePath(t.TempDir())

	added, err := AddIgnorePatterns(path, []string{"style.long-line", " ", "quality.todo"})
	if err != nil {
		t.Fatalf("AddIgnorePatterns: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 added, got %d", added)
	}

	added, err = AddIgnorePatterns(path, []string{"quality.todo", "sec.eval"})
	if err != nil {
		t.Fatalf("AddIgnorePatterns: %v", err)
	}
	if added != 1 {
		t.Errorf("expected 1 added, got %d", added)
	}

	patterns, err := LoadIgnoreFile(path)
	if err != nil {
		t.Fatalf("LoadIgnoreFile: %v", err)
	}
	if len(patterns) != 3 {
		t.Errorf("expected 3 patterns, got %v", patterns)
	}
}

func testFinding(rule, message string) domain.Finding {
	return domain.Finding{
		Category: domain.CategoryQuality,
		Severity: domain.SeverityLow,
		Location: domain.Location{Path: "main.go", Line: 4},
		Message:  message,
		RuleID:   rule,
	}
}

func TestMatchesIgnore(t *testing.T) {
	f := testFinding("quality.todo", "TODO comment left in code")

	tests := []struct {
		name     string
		patterns []string
		want     bool
	}{
		{"no patterns", nil, false},
		{"rule id", []string{"quality.todo"}, true},
		{"key", []string{f.Key()}, true},
		{"message substring", []string{"left in"}, true},
		{"case sensitive", []string{"todo comment"}, false},
		{"rule prefix is not a match", []string{"quality"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesIgnore(f, tt.patterns); got != tt.want {
				t.Errorf("MatchesIgnore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyIgnoreFilter(t *testing.T) {
	reports := []domain.AnalysisReport{
		domain.NewAnalysisReport("static", []domain.Finding{
			testFinding("quality.todo", "TODO comment left in code"),
			testFinding("sec.eval", "Use of eval"),
		}, time.Millisecond),
	}
	result := &domain.CoordinationResult{Reports: reports, Summary: domain.BuildSummary(reports, time.Second)}

	got, ignored := ApplyIgnoreFilter(result, []string{"quality.todo"})

	if ignored != 1 {
		t.Errorf("expected 1 ignored, got %d", ignored)
	}
	if got.Summary.TotalFindings != 1 || got.Reports[0].Findings[0].RuleID != "sec.eval" {
		t.Errorf("unexpected filtered result: %+v", got.Reports)
	}

	same, ignored := ApplyIgnoreFilter(result, nil)
	if same != result || ignored != 0 {
		t.Error("no patterns should return the input unchanged")
	}
}

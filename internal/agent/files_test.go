package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// writeTree creates files under a fresh temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func sourcePaths(files []SourceFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func TestLoadSources_WalkSkipsVendoredAndBinary(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.go":                "package b\n",
		"a/a.ts":              "export const a = 1;\n",
		"node_modules/x/x.js": "module.exports = 1;\n",
		".git/config":         "[core]\n",
		"vendor/lib/lib.go":   "package lib\n",
		"blob.dat":            "abc\x00def",
		"logo.png":            "not really a png",
		"docs/README.md":      "# readme\n",
	})

	files, problems, err := LoadSources(context.Background(), domain.NewAnalysisContext(root, nil, domain.DepthDeep))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}

	got := sourcePaths(files)
	want := []string{"a/a.ts", "b.go", "docs/README.md"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
	if files[0].Language != LangTypeScript || files[1].Language != LangGo {
		t.Errorf("unexpected languages: %s, %s", files[0].Language, files[1].Language)
	}
}

func TestLoadSources_ExplicitMissingFileIsFinding(t *testing.T) {
	root := writeTree(t, map[string]string{"ok.py": "x = 1\n"})

	files, problems, err := LoadSources(context.Background(),
		domain.NewAnalysisContext(root, []string{"ok.py", "gone.py"}, domain.DepthDeep))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0].Path != "ok.py" {
		t.Fatalf("expected only ok.py, got %v", sourcePaths(files))
	}
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem, got %d", len(problems))
	}
	p := problems[0]
	if p.RuleID != RuleReadError || p.Category != domain.CategoryCorrectness || p.Location.Path != "gone.py" {
		t.Errorf("unexpected problem finding: %+v", p)
	}
}

func TestLoadSources_ExplicitPathsStayInsideProject(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "proj")
	if err := os.MkdirAll(filepath.Join(root, "pkg"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range map[string]string{
		"outside.go":        "package outside // TODO: should never be read\n",
		"proj/pkg/inner.go": "package pkg\n",
	} {
		if err := os.WriteFile(filepath.Join(parent, filepath.FromSlash(name)), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	absOutside := filepath.Join(parent, "outside.go")
	absInside := filepath.Join(root, "pkg", "inner.go")

	files, problems, err := LoadSources(context.Background(), domain.NewAnalysisContext(root,
		[]string{"../outside.go", absOutside, absInside}, domain.DepthDeep))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := sourcePaths(files); fmt.Sprint(got) != "[pkg/inner.go]" {
		t.Errorf("paths = %v, want [pkg/inner.go]", got)
	}
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %+v", problems)
	}
	for _, p := range problems {
		if p.RuleID != RuleOutsideProject || p.Category != domain.CategoryCorrectness {
			t.Errorf("unexpected problem finding: %+v", p)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("problem finding is invalid: %v", err)
		}
	}
}

func TestExplicitPaths(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "proj")

	inside, outside := explicitPaths(root, []string{
		"b.go",
		"./a/../a.go",
		filepath.Join(root, "c", "c.go"),
		"b.go",
		"../x.go",
		"..",
		filepath.Join(string(filepath.Separator), "etc", "hostname"),
		"..hidden/d.go",
	})

	if want := "[..hidden/d.go a.go b.go c/c.go]"; fmt.Sprint(inside) != want {
		t.Errorf("inside = %v, want %v", inside, want)
	}
	if len(outside) != 3 {
		t.Errorf("outside = %v, want 3 entries", outside)
	}
}

func TestLoadSources_MissingProjectIsContextError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	_, _, err := LoadSources(context.Background(), domain.NewAnalysisContext(missing, nil, domain.DepthDeep))

	var ctxErr *domain.ContextError
	if !errors.As(err, &ctxErr) {
		t.Fatalf("expected ContextError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}

func TestLoadSources_FileAsProjectIsContextError(t *testing.T) {
	root := writeTree(t, map[string]string{"f.go": "package f\n"})

	_, _, err := LoadSources(context.Background(),
		domain.NewAnalysisContext(filepath.Join(root, "f.go"), nil, domain.DepthDeep))

	var ctxErr *domain.ContextError
	if !errors.As(err, &ctxErr) {
		t.Fatalf("expected ContextError, got %v", err)
	}
}

func TestLoadSources_ShallowDepthCapsFiles(t *testing.T) {
	tree := make(map[string]string)
	for i := 0; i < 210; i++ {
		tree[fmt.Sprintf("f%03d.go", i)] = "package f\n"
	}
	root := writeTree(t, tree)

	shallow, _, err := LoadSources(context.Background(), domain.NewAnalysisContext(root, nil, domain.DepthShallow))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shallow) != 200 {
		t.Errorf("shallow loaded %d files, want 200", len(shallow))
	}

	deep, _, err := LoadSources(context.Background(), domain.NewAnalysisContext(root, nil, domain.DepthDeep))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deep) != 210 {
		t.Errorf("deep loaded %d files, want 210", len(deep))
	}
}

func TestLoadSources_CanceledContext(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "package a\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := LoadSources(ctx, domain.NewAnalysisContext(root, nil, domain.DepthDeep))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIsTestFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"pkg/foo_test.go", true},
		{"pkg/foo.go", false},
		{"src/a.test.ts", true},
		{"src/a.spec.js", true},
		{"src/a.ts", false},
		{"tests/test_a.py", true},
		{"a_test.py", true},
		{"a.py", false},
		{"README.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isTestFile(tt.path); got != tt.want {
				t.Errorf("isTestFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestLineAndColumnAt(t *testing.T) {
	content := "first\nsecond line\nthird"
	off := len("first\nsecond ")
	if got := lineAt(content, off); got != 2 {
		t.Errorf("lineAt = %d, want 2", got)
	}
	if got := columnAt(content, off); got != 8 {
		t.Errorf("columnAt = %d, want 8", got)
	}
}

package git

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestValidateRef(t *testing.T) {
	tests := []struct {
		ref     string
		wantErr string
	}{
		{"", "cannot be empty"},
		{"-invalidref", "must not start with -"},
		{"main", ""},
		{"HEAD~3", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			err := ValidateRef(tt.ref)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateRef(%q) = %v, want error containing %q", tt.ref, err, tt.wantErr)
			}
		})
	}
}

func TestGetRoot_InGitRepo(t *testing.T) {
	repoDir := setupTestRepo(t)
	sub := filepath.Join(repoDir, "nested")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	root, err := GetRoot(context.Background(), sub)
	if err != nil {
		t.Fatalf("GetRoot failed: %v", err)
	}

	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedRoot, err := filepath.EvalSymlinks(repoDir)
	if err != nil {
		t.Fatalf("failed to resolve symlinks: %v", err)
	}
	actualRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatalf("failed to resolve symlinks: %v", err)
	}
	if actualRoot != expectedRoot {
		t.Errorf("expected root %s, got %s", expectedRoot, actualRoot)
	}
}

func TestGetRoot_NotInGitRepo(t *testing.T) {
	if _, err := GetRoot(context.Background(), t.TempDir()); err == nil {
		t.Error("expected error when not in git repo")
	}
}

func TestChangedFiles(t *testing.T) {
	repoDir := setupTestRepo(t)

	if err := os.WriteFile(filepath.Join(repoDir, "test.txt"), []byte("modified"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(repoDir, "pkg"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repoDir, "pkg", "new.go"), []byte("package pkg\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	files, err := ChangedFiles(context.Background(), "HEAD", repoDir)
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	want := []string{"pkg/new.go", "test.txt"}
	if !slices.Equal(files, want) {
		t.Errorf("ChangedFiles = %v, want %v", files, want)
	}
}

func TestChangedFiles_RelativeToSubdir(t *testing.T) {
	repoDir := setupTestRepo(t)
	sub := filepath.Join(repoDir, "pkg")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a.go"), []byte("package pkg\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	gitCmd(t, repoDir, "add", ".")
	gitCmd(t, repoDir, "commit", "-m", "add pkg")
	if err := os.WriteFile(filepath.Join(sub, "a.go"), []byte("package pkg\n\nvar X = 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repoDir, "test.txt"), []byte("changed"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	files, err := ChangedFiles(context.Background(), "HEAD", sub)
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	if !slices.Equal(files, []string{"a.go"}) {
		t.Errorf("expected only a.go, got %v", files)
	}
}

func TestChangedFiles_BadRef(t *testing.T) {
	if _, err := ChangedFiles(context.Background(), "-c", "."); err == nil {
		t.Error("expected error for option-like ref")
	}
}

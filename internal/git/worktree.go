package git

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// worktreePrefix marks worktrees created by aca so pruning never touches
// anything else under .worktrees/.
const worktreePrefix = "aca-"

// Worktree represents a git worktree with a path.
type Worktree struct {
	Path     string
	repoRoot string
}

// Remove cleans up the worktree.
func (w *Worktree) Remove() error {
	if w.Path == "" {
		return nil
	}
	cmd := exec.Command("git", "worktree", "remove", "--force", w.Path) //nolint:gosec // w.Path is controlled internally
	cmd.Dir = w.repoRoot
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to remove worktree %s: %w", w.Path, err)
	}
	return nil
}

// ensureWorktreesExcluded adds .worktrees/ to .git/info/exclude if not already present.
func ensureWorktreesExcluded(commonDir string) error {
	infoDir := filepath.Join(commonDir, "info")
	excludePath := filepath.Join(infoDir, "exclude")

	if err := os.MkdirAll(infoDir, 0755); err != nil {
		return fmt.Errorf("failed to create info directory: %w", err)
	}

	content, err := os.ReadFile(excludePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read exclude file: %w", err)
	}

	for _, line := range strings.Split(string(content), "\n") {
		if line == ".worktrees/" {
			return nil
		}
	}

	f, err := os.OpenFile(excludePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open exclude file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(".worktrees/\n"); err != nil {
		return fmt.Errorf("failed to write to exclude file: %w", err)
	}

	return nil
}

// CreateWorktree checks out ref into a new worktree under
// <repo>/.worktrees/. The caller is responsible for calling Remove() on the
// returned Worktree.
func CreateWorktree(ctx context.Context, dir, ref string) (*Worktree, error) {
	if err := ValidateRef(ref); err != nil {
		return nil, err
	}

	commonDir, err := GetCommonDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	repoRoot := filepath.Dir(commonDir)

	if err := ensureWorktreesExcluded(commonDir); err != nil {
		return nil, err
	}

	idBytes := make([]byte, 4)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, fmt.Errorf("failed to generate worktree ID: %w", err)
	}
	worktreeID := hex.EncodeToString(idBytes)

	safeRef := strings.NewReplacer("/", "-", "~", "-", "^", "-").Replace(ref)
	worktreeName := fmt.Sprintf("%s%s-%s", worktreePrefix, safeRef, worktreeID)
	worktreesDir := filepath.Join(repoRoot, ".worktrees")
	worktreePath := filepath.Join(worktreesDir, worktreeName)

	if err := os.MkdirAll(worktreesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create worktrees directory: %w", err)
	}

	if _, err := run(ctx, repoRoot, "worktree", "add", "--detach", worktreePath, ref); err != nil {
		return nil, fmt.Errorf("failed to create worktree for '%s': %w", ref, err)
	}

	return &Worktree{
		Path:     worktreePath,
		repoRoot: repoRoot,
	}, nil
}

// PruneStaleWorktrees removes aca worktree directories under
// <repoRoot>/.worktrees/ older than maxAge, then lets git forget them.
// Returns the number of directories removed.
func PruneStaleWorktrees(ctx context.Context, repoRoot string, maxAge time.Duration) (int, error) {
	worktreesDir := filepath.Join(repoRoot, ".worktrees")
	entries, err := os.ReadDir(worktreesDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read worktrees directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), worktreePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(worktreesDir, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove stale worktree %s: %w", e.Name(), err)
		}
		removed++
	}

	if removed > 0 {
		if _, err := run(ctx, repoRoot, "worktree", "prune"); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

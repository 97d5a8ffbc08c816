// Package git provides the git operations aca needs: locating the repository
// root, listing changed files and checking out a ref into a worktree.
package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// run executes git in dir and returns trimmed stdout. On failure the error
// carries git's stderr when there is any.
func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if stderr := strings.TrimSpace(string(exitErr.Stderr)); stderr != "" {
				return "", fmt.Errorf("git %s: %s", args[0], stderr)
			}
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRoot returns the root directory of the git repository containing dir.
// An empty dir means the current working directory.
func GetRoot(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return out, nil
}

// GetCommonDir returns the git common directory (shared across worktrees).
func GetCommonDir(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "--git-common-dir")
	if err != nil {
		return "", fmt.Errorf("failed to get git common dir: %w", err)
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(dir, out)
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", fmt.Errorf("failed to resolve common dir path: %w", err)
	}
	return abs, nil
}

// ValidateRef rejects refs that git would parse as options.
func ValidateRef(ref string) error {
	if ref == "" {
		return errors.New("base ref cannot be empty")
	}
	if strings.HasPrefix(ref, "-") {
		return fmt.Errorf("invalid ref %q: must not start with -", ref)
	}
	return nil
}

// ChangedFiles returns files under dir that differ from baseRef, including
// untracked files. Deleted files are omitted. Paths are relative to dir,
// slash-separated and sorted.
func ChangedFiles(ctx context.Context, baseRef, dir string) ([]string, error) {
	if err := ValidateRef(baseRef); err != nil {
		return nil, err
	}

	diff, err := run(ctx, dir, "diff", "--name-only", "--relative", "--diff-filter=ACMR", baseRef, "--")
	if err != nil {
		return nil, fmt.Errorf("failed to diff against %s: %w", baseRef, err)
	}
	untracked, err := run(ctx, dir, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, fmt.Errorf("failed to list untracked files: %w", err)
	}

	seen := make(map[string]bool)
	var files []string
	for _, line := range strings.Split(diff+"\n"+untracked, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		files = append(files, filepath.ToSlash(line))
	}
	slices.Sort(files)
	return files, nil
}

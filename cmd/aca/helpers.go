package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
	"github.com/richhaase/agentic-code-analyzer/internal/git"
)

// exitCodeError is a wrapper type for returning exit codes via error interface.
type exitCodeError struct {
	code domain.ExitCode
}

func (e exitCodeError) Error() string {
	switch e.code {
	case domain.ExitFindings:
		return "findings were reported"
	case domain.ExitError:
		return "analysis failed with error"
	case domain.ExitInterrupted:
		return "analysis was interrupted"
	default:
		return fmt.Sprintf("exit code %d", e.code)
	}
}

func exitCode(code domain.ExitCode) error {
	if code == domain.ExitNoFindings {
		return nil
	}
	return exitCodeError{code: code}
}

// findingsExitCode returns ExitFindings when any finding in result is at
// least threshold. SeverityUnknown (fail_on: never) never fails.
func findingsExitCode(result *domain.CoordinationResult, threshold domain.Severity) domain.ExitCode {
	if result == nil || !threshold.Valid() {
		return domain.ExitNoFindings
	}
	for _, f := range result.AllFindings() {
		if f.Severity.AtLeast(threshold) {
			return domain.ExitFindings
		}
	}
	return domain.ExitNoFindings
}

// keepSelected returns a predicate matching the chosen findings by key.
func keepSelected(chosen []domain.AggregatedFinding) func(domain.Finding) bool {
	keys := make(map[string]bool, len(chosen))
	for _, af := range chosen {
		keys[af.Key()] = true
	}
	return func(f domain.Finding) bool {
		return keys[f.Key()]
	}
}

// resolveTarget turns command-line paths into a project path and file list.
// No paths analyzes base; a single directory becomes the project; otherwise
// the paths are files analyzed relative to base.
func resolveTarget(base string, paths []string) (string, []string, error) {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	if len(paths) == 0 {
		return base, nil, nil
	}
	if len(paths) == 1 {
		if info, err := os.Stat(abs(paths[0])); err == nil && info.IsDir() {
			return abs(paths[0]), nil, nil
		}
	}

	files := make([]string, 0, len(paths))
	for _, p := range paths {
		full := abs(p)
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			return "", nil, fmt.Errorf("%s is a directory; pass a single directory or a list of files", p)
		}
		rel, err := filepath.Rel(base, full)
		if err != nil {
			return "", nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		files = append(files, filepath.ToSlash(rel))
	}
	return base, files, nil
}

// stateRoot returns the directory holding .aca/: the git root of dir, or
// dir itself outside a repository.
func stateRoot(ctx context.Context, dir string) string {
	if root, err := git.GetRoot(ctx, dir); err == nil {
		return root
	}
	return dir
}

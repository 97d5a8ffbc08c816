// Package fpcache manages the .aca/ignore file of suppressed findings and
// the last-run cache used to pick new entries for it.
package fpcache

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
	"github.com/richhaase/agentic-code-analyzer/internal/filter"
)

// Dir is the per-project state directory.
const Dir = ".aca"

// IgnorePath returns the ignore file location for a project root.
func IgnorePath(root string) string {
	return filepath.Join(root, Dir, "ignore")
}

// LastRunPath returns the last-run cache location for a project root.
func LastRunPath(root string) string {
	return filepath.Join(root, Dir, "last-run.json")
}

// LoadIgnoreFile loads ignore patterns from the specified file.
// Returns an empty slice if the file doesn't exist (not an error).
// Blank lines and lines starting with '#' are skipped.
func LoadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer f.Close()

	patterns := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore file: %w", err)
	}

	return patterns, nil
}

// SaveIgnoreFile writes patterns to the specified file, one per line.
func SaveIgnoreFile(path string, patterns []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	var content strings.Builder
	for _, pattern := range patterns {
		content.WriteString(pattern)
		content.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(content.String()), 0644); err != nil {
		return fmt.Errorf("failed to write ignore file: %w", err)
	}

	return nil
}

// AddIgnorePatterns appends patterns not already present and returns how
// many were added.
func AddIgnorePatterns(path string, patterns []string) (int, error) {
	existing, err := LoadIgnoreFile(path)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(existing, p) {
			continue
		}
		existing = append(existing, p)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, SaveIgnoreFile(path, existing)
}

// MatchesIgnore returns true if the finding matches any ignore pattern.
// A pattern matches when it equals the finding key or rule id, or is a
// case-sensitive substring of the message.
func MatchesIgnore(f domain.Finding, patterns []string) bool {
	return matchesAny(f.Key(), f.RuleID, f.Message, patterns)
}

// matchesAny holds the matching rules shared by the report filter and the
// picker's pre-selection.
func matchesAny(key, ruleID, message string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == key || (ruleID != "" && pattern == ruleID) {
			return true
		}
		if strings.Contains(message, pattern) {
			return true
		}
	}
	return false
}

// ApplyIgnoreFilter removes findings matching the ignore patterns.
// Returns a new result and the count of removed findings.
func ApplyIgnoreFilter(result *domain.CoordinationResult, patterns []string) (*domain.CoordinationResult, int) {
	if len(patterns) == 0 {
		return result, 0
	}
	return filter.Result(result, func(f domain.Finding) bool {
		return !MatchesIgnore(f, patterns)
	})
}

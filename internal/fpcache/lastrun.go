package fpcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// LastRunFinding is a finding as cached from the last analysis run.
type LastRunFinding struct {
	Key      string          `json:"key"`
	RuleID   string          `json:"rule_id,omitempty"`
	Severity domain.Severity `json:"severity"`
	Location string          `json:"location"`
	Message  string          `json:"message"`
	Agents   []string        `json:"agents"`
}

// LastRun represents the findings from the last analysis run.
type LastRun struct {
	RunID    string           `json:"run_id"`
	Findings []LastRunFinding `json:"findings"`
}

// SaveLastRun saves the merged findings of result to a JSON file at path.
// Creates the directory if it doesn't exist.
func SaveLastRun(path string, result *domain.CoordinationResult) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	lastRun := LastRun{Findings: []LastRunFinding{}}
	if result != nil {
		lastRun.RunID = result.RunID
		for _, f := range domain.AggregateFindings(result.Reports) {
			lastRun.Findings = append(lastRun.Findings, LastRunFinding{
				Key:      f.Key(),
				RuleID:   f.RuleID,
				Severity: f.Severity,
				Location: f.Location.String(),
				Message:  f.Message,
				Agents:   f.Agents,
			})
		}
	}

	data, err := json.MarshalIndent(lastRun, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write last-run file: %w", err)
	}

	return nil
}

// LoadLastRun loads the findings from the specified JSON file.
func LoadLastRun(path string) (LastRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LastRun{}, fmt.Errorf("last-run file not found: %s (run aca first)", path)
		}
		return LastRun{}, fmt.Errorf("failed to read last-run file: %w", err)
	}

	var lastRun LastRun
	if err := json.Unmarshal(data, &lastRun); err != nil {
		return LastRun{}, fmt.Errorf("failed to parse last-run file: %w", err)
	}

	return lastRun, nil
}

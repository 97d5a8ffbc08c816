package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// ErrorKind classifies why an agent produced a degraded report.
type ErrorKind string

const (
	ErrorKindAgent    ErrorKind = "agent_error" // Agent returned an error
	ErrorKindTimeout  ErrorKind = "timeout"     // Still running when the run deadline expired
	ErrorKindPanic    ErrorKind = "panic"       // Agent panicked
	ErrorKindCanceled ErrorKind = "canceled"    // Run was canceled by the caller
)

// AgentFailure describes why an agent did not produce findings.
type AgentFailure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// AnalysisReport is one agent's output for one context. Build it with
// NewAnalysisReport or NewFailedReport and do not modify it afterwards.
type AnalysisReport struct {
	AgentName     string
	Findings      []Finding
	ExecutionTime time.Duration
	Error         *AgentFailure
}

// NewAnalysisReport creates a successful report. Findings are copied and sorted.
func NewAnalysisReport(agentName string, findings []Finding, elapsed time.Duration) AnalysisReport {
	sorted := slices.Clone(findings)
	SortFindings(sorted)
	return AnalysisReport{
		AgentName:     agentName,
		Findings:      sorted,
		ExecutionTime: elapsed,
	}
}

// NewFailedReport creates a degraded report carrying no findings.
func NewFailedReport(agentName string, kind ErrorKind, message string, elapsed time.Duration) AnalysisReport {
	return AnalysisReport{
		AgentName:     agentName,
		ExecutionTime: elapsed,
		Error:         &AgentFailure{Kind: kind, Message: message},
	}
}

// Failed returns true if this is a degraded report.
func (r AnalysisReport) Failed() bool {
	return r.Error != nil
}

// TimedOut returns true if the agent was cut off by the run deadline.
func (r AnalysisReport) TimedOut() bool {
	return r.Error != nil && r.Error.Kind == ErrorKindTimeout
}

type reportJSON struct {
	AgentName       string        `json:"agent"`
	Findings        []Finding     `json:"findings"`
	ExecutionTimeMs int64         `json:"execution_time_ms"`
	Error           *AgentFailure `json:"error,omitempty"`
}

// MarshalJSON encodes the execution time in milliseconds.
func (r AnalysisReport) MarshalJSON() ([]byte, error) {
	findings := r.Findings
	if findings == nil {
		findings = []Finding{}
	}
	return json.Marshal(reportJSON{
		AgentName:       r.AgentName,
		Findings:        findings,
		ExecutionTimeMs: r.ExecutionTime.Milliseconds(),
		Error:           r.Error,
	})
}

// UnmarshalJSON decodes a report produced by MarshalJSON.
func (r *AnalysisReport) UnmarshalJSON(data []byte) error {
	var raw reportJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = AnalysisReport{
		AgentName:     raw.AgentName,
		Findings:      raw.Findings,
		ExecutionTime: time.Duration(raw.ExecutionTimeMs) * time.Millisecond,
		Error:         raw.Error,
	}
	return nil
}

// Summary holds aggregate statistics for a coordination run.
type Summary struct {
	TotalFindings int `json:"total_findings"`
	AgentsRun     int `json:"agents_run"`
	AgentsFailed  int `json:"agents_failed"`
	// TotalExecutionTime is the wall-clock time of the whole run, not the sum
	// of per-agent times (those overlap under parallel execution).
	TotalExecutionTime time.Duration `json:"-"`
}

// MarshalJSON encodes the execution time in milliseconds.
func (s Summary) MarshalJSON() ([]byte, error) {
	type alias Summary
	return json.Marshal(struct {
		alias
		TotalExecutionTimeMs int64 `json:"total_execution_time_ms"`
	}{alias(s), s.TotalExecutionTime.Milliseconds()})
}

// BuildSummary computes the summary from per-agent reports and the run's wall-clock time.
func BuildSummary(reports []AnalysisReport, wallClock time.Duration) Summary {
	s := Summary{
		AgentsRun:          len(reports),
		TotalExecutionTime: wallClock,
	}
	for _, r := range reports {
		if r.Failed() {
			s.AgentsFailed++
			continue
		}
		s.TotalFindings += len(r.Findings)
	}
	return s
}

// CoordinationResult is the aggregate output of one coordination run.
// It is owned by the caller and never modified after the run completes.
type CoordinationResult struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Context   AnalysisContext  `json:"context"`
	Parallel  bool             `json:"parallel"`
	Reports   []AnalysisReport `json:"reports"`
	Summary   Summary          `json:"summary"`
}

// Report returns the report for the named agent.
func (r *CoordinationResult) Report(agentName string) (AnalysisReport, bool) {
	for _, rep := range r.Reports {
		if rep.AgentName == agentName {
			return rep, true
		}
	}
	return AnalysisReport{}, false
}

// AllFindings returns every finding from successful reports, sorted.
func (r *CoordinationResult) AllFindings() []Finding {
	var all []Finding
	for _, rep := range r.Reports {
		if !rep.Failed() {
			all = append(all, rep.Findings...)
		}
	}
	SortFindings(all)
	return all
}

// FailedReports returns the degraded reports in run order.
func (r *CoordinationResult) FailedReports() []AnalysisReport {
	var failed []AnalysisReport
	for _, rep := range r.Reports {
		if rep.Failed() {
			failed = append(failed, rep)
		}
	}
	return failed
}

// SeverityCounts counts findings from successful reports by severity.
func (r *CoordinationResult) SeverityCounts() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range r.AllFindings() {
		counts[f.Severity]++
	}
	return counts
}

// CategoryCounts counts findings from successful reports by category.
func (r *CoordinationResult) CategoryCounts() map[Category]int {
	counts := make(map[Category]int)
	for _, f := range r.AllFindings() {
		counts[f.Category]++
	}
	return counts
}

// AllFailed returns true if at least one agent ran and every agent failed.
func (r *CoordinationResult) AllFailed() bool {
	return r.Summary.AgentsRun > 0 && r.Summary.AgentsFailed == r.Summary.AgentsRun
}

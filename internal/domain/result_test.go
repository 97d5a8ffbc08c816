package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewAnalysisReport_SortsCopy(t *testing.T) {
	input := []Finding{
		{Location: Location{Path: "z.go"}, Severity: SeverityLow, Category: CategoryStyle},
		{Location: Location{Path: "a.go"}, Severity: SeverityLow, Category: CategoryStyle},
	}

	report := NewAnalysisReport("static", input, 5*time.Millisecond)

	if report.Findings[0].Location.Path != "a.go" {
		t.Errorf("expected findings sorted, got %v", report.Findings)
	}
	if input[0].Location.Path != "z.go" {
		t.Error("input slice must not be reordered")
	}
	if report.Failed() {
		t.Error("successful report should not be failed")
	}
}

func TestNewFailedReport(t *testing.T) {
	report := NewFailedReport("slow", ErrorKindTimeout, "deadline exceeded", 10*time.Millisecond)

	if !report.Failed() || !report.TimedOut() {
		t.Error("expected failed, timed-out report")
	}
	if len(report.Findings) != 0 {
		t.Errorf("degraded report must have no findings, got %d", len(report.Findings))
	}
}

func TestBuildSummary(t *testing.T) {
	reports := []AnalysisReport{
		NewAnalysisReport("a", []Finding{{}, {}, {}}, 100*time.Millisecond),
		NewAnalysisReport("b", nil, 200*time.Millisecond),
		NewFailedReport("c", ErrorKindAgent, "boom", 50*time.Millisecond),
	}

	s := BuildSummary(reports, 210*time.Millisecond)

	if s.TotalFindings != 3 {
		t.Errorf("expected 3 findings, got %d", s.TotalFindings)
	}
	if s.AgentsRun != 3 {
		t.Errorf("expected 3 agents run, got %d", s.AgentsRun)
	}
	if s.AgentsFailed != 1 {
		t.Errorf("expected 1 failed, got %d", s.AgentsFailed)
	}
	if s.TotalExecutionTime != 210*time.Millisecond {
		t.Errorf("expected wall clock 210ms, got %v", s.TotalExecutionTime)
	}
}

func TestBuildSummary_Empty(t *testing.T) {
	s := BuildSummary(nil, 0)
	if s.AgentsRun != 0 || s.TotalFindings != 0 || s.AgentsFailed != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestAnalysisReport_JSONRoundTripsMilliseconds(t *testing.T) {
	report := NewFailedReport("x", ErrorKindPanic, "nil map", 1500*time.Millisecond)

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"execution_time_ms":1500`) {
		t.Errorf("expected execution_time_ms in %s", data)
	}
	if !strings.Contains(string(data), `"findings":[]`) {
		t.Errorf("expected empty findings array in %s", data)
	}

	var decoded AnalysisReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.ExecutionTime != 1500*time.Millisecond || decoded.Error.Kind != ErrorKindPanic {
		t.Errorf("unexpected decoded report: %+v", decoded)
	}
}

func TestCoordinationResult_Helpers(t *testing.T) {
	result := &CoordinationResult{
		Reports: []AnalysisReport{
			NewAnalysisReport("a", []Finding{
				{Category: CategorySecurity, Severity: SeverityHigh, Location: Location{Path: "a.go"}},
				{Category: CategoryStyle, Severity: SeverityLow, Location: Location{Path: "b.go"}},
			}, 0),
			NewFailedReport("b", ErrorKindAgent, "boom", 0),
		},
	}
	result.Summary = BuildSummary(result.Reports, 0)

	if got := result.SeverityCounts()[SeverityHigh]; got != 1 {
		t.Errorf("expected 1 high finding, got %d", got)
	}
	if got := result.CategoryCounts()[CategoryStyle]; got != 1 {
		t.Errorf("expected 1 style finding, got %d", got)
	}
	if len(result.FailedReports()) != 1 {
		t.Errorf("expected 1 failed report")
	}
	if result.AllFailed() {
		t.Error("AllFailed should be false with one success")
	}
	if _, ok := result.Report("b"); !ok {
		t.Error("expected to find report b")
	}
}

func TestAnalysisContext_ValidateAndClone(t *testing.T) {
	ctx := NewAnalysisContext("/repo", []string{"a.ts"}, "")
	if ctx.Depth != DefaultDepth {
		t.Errorf("expected default depth, got %q", ctx.Depth)
	}

	clone := ctx.Clone()
	clone.Files[0] = "changed.ts"
	if ctx.Files[0] != "a.ts" {
		t.Error("clone must not share the files slice")
	}

	err := AnalysisContext{}.Validate()
	if !errors.Is(err, ErrInvalidContext) {
		t.Errorf("expected ErrInvalidContext, got %v", err)
	}
	err = AnalysisContext{ProjectPath: "/repo", Depth: "bottomless"}.Validate()
	if !errors.Is(err, ErrInvalidContext) {
		t.Errorf("expected ErrInvalidContext for bad depth, got %v", err)
	}
}

func TestContextError_Unwraps(t *testing.T) {
	inner := errors.New("no such file")
	err := error(&ContextError{Path: "/missing", Err: inner})

	if !errors.Is(err, inner) {
		t.Error("ContextError should unwrap to its cause")
	}
	var ce *ContextError
	if !errors.As(err, &ce) || ce.Path != "/missing" {
		t.Error("expected errors.As to find ContextError")
	}
}

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

func TestExitCodeError_Error(t *testing.T) {
	tests := []struct {
		code     domain.ExitCode
		contains string
	}{
		{domain.ExitFindings, "findings were reported"},
		{domain.ExitError, "analysis failed with error"},
		{domain.ExitInterrupted, "analysis was interrupted"},
		{domain.ExitCode(99), "exit code 99"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			err := exitCodeError{code: tt.code}
			if err.Error() != tt.contains {
				t.Errorf("expected %q, got %q", tt.contains, err.Error())
			}
		})
	}
}

func TestExitCode_ReturnsNilForNoFindings(t *testing.T) {
	err := exitCode(domain.ExitNoFindings)
	if err != nil {
		t.Errorf("expected nil for ExitNoFindings, got %v", err)
	}
}

func TestExitCode_ReturnsErrorForOtherCodes(t *testing.T) {
	codes := []domain.ExitCode{
		domain.ExitFindings,
		domain.ExitError,
		domain.ExitInterrupted,
	}

	for _, code := range codes {
		err := exitCode(code)
		if err == nil {
			t.Errorf("expected error for code %d, got nil", code)
		}
		exitErr, ok := err.(exitCodeError)
		if !ok {
			t.Errorf("expected exitCodeError type, got %T", err)
		}
		if exitErr.code != code {
			t.Errorf("expected code %d, got %d", code, exitErr.code)
		}
	}
}

func resultWith(findings ...domain.Finding) *domain.CoordinationResult {
	reports := []domain.AnalysisReport{domain.NewAnalysisReport("static", findings, time.Millisecond)}
	return &domain.CoordinationResult{
		Reports: reports,
		Summary: domain.BuildSummary(reports, time.Millisecond),
	}
}

func finding(sev domain.Severity, rule string) domain.Finding {
	return domain.Finding{
		Category: domain.CategoryStyle,
		Severity: sev,
		Location: domain.Location{Path: "a.go", Line: 1},
		Message:  "message for " + rule,
		RuleID:   rule,
	}
}

func TestFindingsExitCode(t *testing.T) {
	result := resultWith(finding(domain.SeverityLow, "r1"), finding(domain.SeverityMedium, "r2"))

	tests := []struct {
		name      string
		threshold domain.Severity
		want      domain.ExitCode
	}{
		{"below threshold", domain.SeverityHigh, domain.ExitNoFindings},
		{"at threshold", domain.SeverityMedium, domain.ExitFindings},
		{"above threshold", domain.SeverityInfo, domain.ExitFindings},
		{"never", domain.SeverityUnknown, domain.ExitNoFindings},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findingsExitCode(result, tt.threshold))
		})
	}

	assert.Equal(t, domain.ExitNoFindings, findingsExitCode(nil, domain.SeverityInfo))
	assert.Equal(t, domain.ExitNoFindings, findingsExitCode(resultWith(), domain.SeverityInfo))
}

func TestKeepSelected(t *testing.T) {
	a := finding(domain.SeverityLow, "r1")
	b := finding(domain.SeverityHigh, "r2")

	keep := keepSelected([]domain.AggregatedFinding{{Finding: b, Agents: []string{"static"}}})
	assert.False(t, keep(a))
	assert.True(t, keep(b))

	none := keepSelected(nil)
	assert.False(t, none(b))
}

func TestResolveTarget(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "pkg", "a.go"), []byte("package pkg\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "b.go"), []byte("package main\n"), 0o644))

	t.Run("no paths", func(t *testing.T) {
		project, files, err := resolveTarget(base, nil)
		require.NoError(t, err)
		assert.Equal(t, base, project)
		assert.Nil(t, files)
	})

	t.Run("single directory becomes project", func(t *testing.T) {
		project, files, err := resolveTarget(base, []string{"pkg"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "pkg"), project)
		assert.Nil(t, files)
	})

	t.Run("files are relative to base", func(t *testing.T) {
		project, files, err := resolveTarget(base, []string{"pkg/a.go", filepath.Join(base, "b.go")})
		require.NoError(t, err)
		assert.Equal(t, base, project)
		assert.Equal(t, []string{"pkg/a.go", "b.go"}, files)
	})

	t.Run("missing file is kept for the agents to report", func(t *testing.T) {
		_, files, err := resolveTarget(base, []string{"gone.go"})
		require.NoError(t, err)
		assert.Equal(t, []string{"gone.go"}, files)
	})

	t.Run("directory among several paths", func(t *testing.T) {
		_, _, err := resolveTarget(base, []string{"pkg", "b.go"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is a directory")
	})
}

func TestStateRoot_OutsideRepository(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, stateRoot(t.Context(), dir))
}

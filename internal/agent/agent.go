package agent

import (
	"context"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// Capability tags what kind of analysis an agent performs.
type Capability string

const (
	CapabilityStaticAnalysis Capability = "static-analysis"
	CapabilityErrorDetection Capability = "error-detection"
	CapabilityTestGeneration Capability = "test-generation"
	CapabilitySecurity       Capability = "security"
	CapabilityComplexity     Capability = "complexity"
	CapabilityExternalTool   Capability = "external-tool"
)

// Agent is a pluggable analyzer. Implementations include StaticAnalysisAgent,
// ErrorDetectionAgent, TestGenerationAgent and CommandAgent.
type Agent interface {
	// Name returns the agent's identifier, unique within a Registry.
	Name() string

	// Capabilities returns the capability tags used for lookup.
	Capabilities() []Capability

	// Analyze inspects the files described by actx and returns a report.
	//
	// Per-file problems (unreadable file, listed file missing) must not fail
	// the call; they are reported as correctness findings or skipped.
	// An error is returned only when the context itself is unusable
	// (a *domain.ContextError) or ctx is done.
	//
	// Analyze must not modify actx or write to the filesystem, and must
	// return the same findings for an unchanged file set.
	Analyze(ctx context.Context, actx domain.AnalysisContext) (domain.AnalysisReport, error)
}

// HasCapability reports whether a declares the given capability.
func HasCapability(a Agent, c Capability) bool {
	for _, have := range a.Capabilities() {
		if have == c {
			return true
		}
	}
	return false
}

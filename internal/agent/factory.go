package agent

import "fmt"

// BuiltinAgents lists the names of the agents NewDefaultRegistry always registers.
var BuiltinAgents = []string{StaticAgentName, ErrorDetectionAgentName, TestGenerationAgentName}

// DefaultOptions configures NewDefaultRegistry.
type DefaultOptions struct {
	Static   StaticOptions
	Commands []CommandSpec
}

// NewBuiltinAgent creates a built-in agent by name.
func NewBuiltinAgent(name string, static StaticOptions) (Agent, error) {
	switch name {
	case StaticAgentName:
		return NewStaticAnalysisAgent(static), nil
	case ErrorDetectionAgentName:
		return NewErrorDetectionAgent(), nil
	case TestGenerationAgentName:
		return NewTestGenerationAgent(), nil
	default:
		return nil, fmt.Errorf("unknown agent %q, built-in: static, errors, tests", name)
	}
}

// NewDefaultRegistry registers the built-in agents followed by the
// configured command agents. A command agent whose name collides with
// another agent is a *domain.DuplicateAgentError.
func NewDefaultRegistry(opts DefaultOptions) (*Registry, error) {
	reg := NewRegistry()
	for _, name := range BuiltinAgents {
		a, err := NewBuiltinAgent(name, opts.Static)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(a); err != nil {
			return nil, err
		}
	}

	for _, spec := range opts.Commands {
		a, err := NewCommandAgent(spec)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(a); err != nil {
			return nil, fmt.Errorf("command agent: %w", err)
		}
	}
	return reg, nil
}

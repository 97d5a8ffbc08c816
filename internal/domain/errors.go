package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidContext is returned for malformed analysis requests.
var ErrInvalidContext = errors.New("invalid analysis context")

// AgentNotFoundError reports a request for an agent that is not registered.
type AgentNotFoundError struct {
	Name string
}

func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("agent %q not found", e.Name)
}

// DuplicateAgentError reports a registration that conflicts with an existing agent.
type DuplicateAgentError struct {
	Name string
}

func (e *DuplicateAgentError) Error() string {
	return fmt.Sprintf("agent %q already registered", e.Name)
}

// ContextError is raised by an agent when the analysis target itself is
// unusable (for example the project path does not exist). Per-file problems
// are reported as findings instead.
type ContextError struct {
	Path string
	Err  error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("analysis context %s: %v", e.Path, e.Err)
}

func (e *ContextError) Unwrap() error {
	return e.Err
}

package agent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// Registry holds the known agents in registration order.
//
// Registration happens once at startup, before any coordination run; the
// registry is read-only afterwards and therefore does no locking.
type Registry struct {
	agents []Agent
	byName map[string]Agent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Agent)}
}

// Register adds an agent. Returns *domain.DuplicateAgentError if the name is taken.
func (r *Registry) Register(a Agent) error {
	if a == nil {
		return errors.New("cannot register nil agent")
	}
	name := a.Name()
	if strings.TrimSpace(name) == "" {
		return errors.New("cannot register agent with empty name")
	}
	if _, exists := r.byName[name]; exists {
		return &domain.DuplicateAgentError{Name: name}
	}
	r.byName[name] = a
	r.agents = append(r.agents, a)
	return nil
}

// MustRegister is like Register but panics on error. Intended for startup wiring.
func (r *Registry) MustRegister(agents ...Agent) {
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
}

// Get returns the named agent or *domain.AgentNotFoundError.
func (r *Registry) Get(name string) (Agent, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, &domain.AgentNotFoundError{Name: name}
	}
	return a, nil
}

// List returns all agents in insertion order.
func (r *Registry) List() []Agent {
	out := make([]Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// Names returns agent names in insertion order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.agents))
	for i, a := range r.agents {
		names[i] = a.Name()
	}
	return names
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	return len(r.agents)
}

// FindByCapability returns agents declaring c, in insertion order.
func (r *Registry) FindByCapability(c Capability) []Agent {
	var out []Agent
	for _, a := range r.agents {
		if HasCapability(a, c) {
			out = append(out, a)
		}
	}
	return out
}

// Resolve looks up every name and returns the agents in registry order,
// ignoring duplicates. If any name is unknown nothing is returned and the
// error is the *domain.AgentNotFoundError for the first unknown name.
func (r *Registry) Resolve(names []string) ([]Agent, error) {
	wanted := make(map[string]bool, len(names))
	var unknown []string
	for _, name := range names {
		if _, ok := r.byName[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		wanted[name] = true
	}

	if len(unknown) > 0 {
		err := &domain.AgentNotFoundError{Name: unknown[0]}
		if len(unknown) == 1 {
			return nil, err
		}
		return nil, fmt.Errorf("unknown agents %s (registered: %s): %w",
			strings.Join(unknown, ", "), strings.Join(r.Names(), ", "), err)
	}

	out := make([]Agent, 0, len(wanted))
	for _, a := range r.agents {
		if wanted[a.Name()] {
			out = append(out, a)
		}
	}
	return out, nil
}

// ParseAgentNames splits a comma-separated agent list, trimming whitespace.
// Returns nil for empty input, which means "all registered agents".
func ParseAgentNames(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			result = append(result, name)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Depth hints how much work an agent should do. The coordinator never
// interprets it; agents use it to bound their own effort.
type Depth string

const (
	DepthShallow       Depth = "shallow"
	DepthDeep          Depth = "deep"
	DepthComprehensive Depth = "comprehensive"
)

// DefaultDepth is used when a context does not specify one.
const DefaultDepth = DepthDeep

// Valid returns true if d is a known depth.
func (d Depth) Valid() bool {
	switch d {
	case DepthShallow, DepthDeep, DepthComprehensive:
		return true
	default:
		return false
	}
}

// ParseDepth parses a depth name (case-insensitive). Empty input yields DefaultDepth.
func ParseDepth(name string) (Depth, error) {
	if strings.TrimSpace(name) == "" {
		return DefaultDepth, nil
	}
	d := Depth(strings.ToLower(strings.TrimSpace(name)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown depth %q (valid: shallow, deep, comprehensive)", name)
	}
	return d, nil
}

// AnalysisContext describes what to analyze. It is treated as immutable:
// callers build one per request and agents receive a copy.
type AnalysisContext struct {
	ProjectPath string   `json:"project_path"`
	Files       []string `json:"files,omitempty"` // Empty means discover via ProjectPath
	Depth       Depth    `json:"depth"`
}

// NewAnalysisContext builds a context, defaulting depth when empty.
func NewAnalysisContext(projectPath string, files []string, depth Depth) AnalysisContext {
	if depth == "" {
		depth = DefaultDepth
	}
	return AnalysisContext{
		ProjectPath: projectPath,
		Files:       slices.Clone(files),
		Depth:       depth,
	}
}

// Clone returns a copy that shares no mutable state with c.
func (c AnalysisContext) Clone() AnalysisContext {
	c.Files = slices.Clone(c.Files)
	return c
}

// Validate checks the request-shape properties of the context.
// It does not touch the filesystem; missing paths are reported by agents.
func (c AnalysisContext) Validate() error {
	if strings.TrimSpace(c.ProjectPath) == "" {
		return fmt.Errorf("%w: project path is empty", ErrInvalidContext)
	}
	if c.Depth != "" && !c.Depth.Valid() {
		return fmt.Errorf("%w: unknown depth %q", ErrInvalidContext, c.Depth)
	}
	return nil
}

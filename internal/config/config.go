// Package config provides configuration file support for aca.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richhaase/agentic-code-analyzer/internal/agent"
	"github.com/richhaase/agentic-code-analyzer/internal/domain"
	"github.com/richhaase/agentic-code-analyzer/internal/git"
	"github.com/richhaase/agentic-code-analyzer/internal/report"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = ".aca.yaml"

// Duration is a custom type that handles YAML duration parsing.
// Supports both Go duration format ("5m", "300s") and numeric seconds.
type Duration time.Duration

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	default:
		return fmt.Errorf("invalid duration type: %T", v)
	}
	return nil
}

// AsDuration returns the underlying time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Config represents the aca configuration file.
type Config struct {
	Agents        []string             `yaml:"agents"`
	Sequential    *bool                `yaml:"sequential"`
	Deadline      *Duration            `yaml:"deadline"`
	Concurrency   *int                 `yaml:"concurrency"`
	Depth         *string              `yaml:"depth"`
	Format        *string              `yaml:"format"`
	FailOn        *string              `yaml:"fail_on"`
	Filters       FilterConfig         `yaml:"filters"`
	Static        StaticConfig         `yaml:"static"`
	CommandAgents []CommandAgentConfig `yaml:"command_agents"`
}

// FilterConfig holds filter-related configuration.
type FilterConfig struct {
	ExcludePatterns []string `yaml:"exclude_patterns"`
	MinSeverity     *string  `yaml:"min_severity"`
}

// StaticConfig tunes the built-in static analysis agent.
type StaticConfig struct {
	DisabledRules []string `yaml:"disabled_rules"`
	MaxLineLength *int     `yaml:"max_line_length"`
	MaxFileLines  *int     `yaml:"max_file_lines"`
}

// CommandAgentConfig declares an external analyzer run as an agent.
type CommandAgentConfig struct {
	Name         string   `yaml:"name"`
	Command      string   `yaml:"command"`
	Args         []string `yaml:"args"`
	Parser       string   `yaml:"parser"`
	Capabilities []string `yaml:"capabilities"`
	Env          []string `yaml:"env"`
}

// Spec converts the entry to an agent.CommandSpec.
func (c CommandAgentConfig) Spec() agent.CommandSpec {
	caps := make([]agent.Capability, 0, len(c.Capabilities))
	for _, name := range c.Capabilities {
		caps = append(caps, agent.Capability(name))
	}
	return agent.CommandSpec{
		Name:         c.Name,
		Command:      c.Command,
		Args:         slices.Clone(c.Args),
		Parser:       c.Parser,
		Capabilities: caps,
		Env:          slices.Clone(c.Env),
	}
}

// LoadResult contains the loaded config and any warnings encountered.
type LoadResult struct {
	Config    *Config
	ConfigDir string
	Warnings  []string
}

// LoadWithWarnings reads .aca.yaml from the root of the git repository
// containing dir, or from dir itself when it is not inside a repository.
// Returns an empty config (not error) if the file doesn't exist.
func LoadWithWarnings(ctx context.Context, dir string) (*LoadResult, error) {
	root, err := git.GetRoot(ctx, dir)
	if err != nil {
		root = dir
	}
	return LoadFromDirWithWarnings(root)
}

// LoadFromDirWithWarnings reads .aca.yaml from the specified directory and returns warnings.
// Returns an empty config (not error) if the file doesn't exist.
func LoadFromDirWithWarnings(dir string) (*LoadResult, error) {
	result, err := LoadFromPathWithWarnings(filepath.Join(dir, ConfigFileName))
	if result != nil {
		result.ConfigDir = dir
	}
	return result, err
}

// LoadFromPathWithWarnings reads a config file and returns warnings for unknown keys.
// Returns an empty config (not error) if the file doesn't exist.
// Returns an error if the file exists but is invalid YAML or fails validation.
func LoadFromPathWithWarnings(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LoadResult{Config: &Config{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	warnings := checkUnknownKeys(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}

	if err := cfg.validatePatterns(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigFileName, err)
	}

	return &LoadResult{Config: &cfg, Warnings: warnings}, nil
}

// validatePatterns checks that all exclude patterns are valid regex.
func (c *Config) validatePatterns() error {
	for _, pattern := range c.Filters.ExcludePatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid regex pattern %q in %s: %w", pattern, ConfigFileName, err)
		}
	}
	return nil
}

// Known keys per section, used for unknown-key warnings.
var (
	knownTopLevelKeys    = []string{"agents", "sequential", "deadline", "concurrency", "depth", "format", "fail_on", "filters", "static", "command_agents"}
	knownFilterKeys      = []string{"exclude_patterns", "min_severity"}
	knownStaticKeys      = []string{"disabled_rules", "max_line_length", "max_file_lines"}
	knownCommandAgentKey = []string{"name", "command", "args", "parser", "capabilities", "env"}
)

// checkUnknownKeys checks for unknown keys in the YAML data and returns warnings.
func checkUnknownKeys(data []byte) []string {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// If we can't parse, let the main parser handle the error
		return nil
	}

	warnings := unknownKeys(raw, knownTopLevelKeys, "")
	if filters, ok := raw["filters"].(map[string]any); ok {
		warnings = append(warnings, unknownKeys(filters, knownFilterKeys, "filters section of ")...)
	}
	if static, ok := raw["static"].(map[string]any); ok {
		warnings = append(warnings, unknownKeys(static, knownStaticKeys, "static section of ")...)
	}
	if cmds, ok := raw["command_agents"].([]any); ok {
		for i, entry := range cmds {
			if m, ok := entry.(map[string]any); ok {
				where := fmt.Sprintf("command_agents[%d] of ", i)
				warnings = append(warnings, unknownKeys(m, knownCommandAgentKey, where)...)
			}
		}
	}
	return warnings
}

func unknownKeys(section map[string]any, known []string, where string) []string {
	keys := make([]string, 0, len(section))
	for key := range section {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var warnings []string
	for _, key := range keys {
		if slices.Contains(known, key) {
			continue
		}
		warning := fmt.Sprintf("unknown key %q in %s%s", key, where, ConfigFileName)
		if suggestion := findSimilar(key, known); suggestion != "" {
			warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
		}
		warnings = append(warnings, warning)
	}
	return warnings
}

// findSimilar finds the most similar string from candidates using Levenshtein distance.
// Returns empty string if no candidate is similar enough (threshold: 3 edits).
func findSimilar(input string, candidates []string) string {
	const maxDistance = 3
	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		dist := levenshtein(input, candidate)
		if dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Merge combines config file patterns with CLI patterns.
// CLI patterns are appended after config patterns (both are applied).
func Merge(cfg *Config, cliPatterns []string) []string {
	if cfg == nil {
		return cliPatterns
	}
	return append(slices.Clone(cfg.Filters.ExcludePatterns), cliPatterns...)
}

// Validate checks that all config file values are valid.
func (c *Config) Validate() error {
	if c.Concurrency != nil && *c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0, got %d", *c.Concurrency)
	}
	if c.Deadline != nil && *c.Deadline < 0 {
		return fmt.Errorf("deadline must be >= 0, got %s", c.Deadline.AsDuration())
	}
	if c.Depth != nil {
		if _, err := domain.ParseDepth(*c.Depth); err != nil {
			return fmt.Errorf("depth: %w", err)
		}
	}
	if c.Format != nil {
		if _, err := report.ParseFormat(*c.Format); err != nil {
			return fmt.Errorf("format: %w", err)
		}
	}
	if c.FailOn != nil {
		if _, err := ParseFailOn(*c.FailOn); err != nil {
			return fmt.Errorf("fail_on: %w", err)
		}
	}
	if c.Filters.MinSeverity != nil {
		if _, err := domain.ParseSeverity(*c.Filters.MinSeverity); err != nil {
			return fmt.Errorf("filters.min_severity: %w", err)
		}
	}
	if c.Static.MaxLineLength != nil && *c.Static.MaxLineLength < 1 {
		return fmt.Errorf("static.max_line_length must be >= 1, got %d", *c.Static.MaxLineLength)
	}
	if c.Static.MaxFileLines != nil && *c.Static.MaxFileLines < 1 {
		return fmt.Errorf("static.max_file_lines must be >= 1, got %d", *c.Static.MaxFileLines)
	}
	seen := make(map[string]bool)
	for _, ca := range c.CommandAgents {
		if err := ca.Spec().Validate(); err != nil {
			return err
		}
		if seen[ca.Name] {
			return fmt.Errorf("command agent %q declared twice", ca.Name)
		}
		seen[ca.Name] = true
	}
	return nil
}

// FailOnNever disables the findings exit code.
const FailOnNever = "never"

// ParseFailOn parses a fail_on value: a severity name or "never".
// "never" yields SeverityUnknown.
func ParseFailOn(value string) (domain.Severity, error) {
	if strings.EqualFold(strings.TrimSpace(value), FailOnNever) {
		return domain.SeverityUnknown, nil
	}
	return domain.ParseSeverity(value)
}

// Defaults holds the built-in default values.
var Defaults = ResolvedConfig{
	Sequential:  false,
	Deadline:    0, // no deadline
	Concurrency: 0, // unlimited
	Depth:       string(domain.DefaultDepth),
	Format:      string(report.FormatConsole),
	FailOn:      "low",
}

// ResolvedConfig holds the final resolved configuration values.
type ResolvedConfig struct {
	Agents      []string
	Sequential  bool
	Deadline    time.Duration
	Concurrency int
	Depth       string
	Format      string
	FailOn      string
	MinSeverity string
}

// ValidateAll returns every semantic problem with the resolved values.
func (r ResolvedConfig) ValidateAll() []string {
	var errs []string
	if r.Concurrency < 0 {
		errs = append(errs, fmt.Sprintf("concurrency must be >= 0, got %d", r.Concurrency))
	}
	if r.Deadline < 0 {
		errs = append(errs, fmt.Sprintf("deadline must be >= 0, got %s", r.Deadline))
	}
	if _, err := domain.ParseDepth(r.Depth); err != nil {
		errs = append(errs, fmt.Sprintf("depth: %v", err))
	}
	if _, err := report.ParseFormat(r.Format); err != nil {
		errs = append(errs, fmt.Sprintf("format: %v", err))
	}
	if _, err := ParseFailOn(r.FailOn); err != nil {
		errs = append(errs, fmt.Sprintf("fail_on: %v", err))
	}
	if r.MinSeverity != "" {
		if _, err := domain.ParseSeverity(r.MinSeverity); err != nil {
			errs = append(errs, fmt.Sprintf("min_severity: %v", err))
		}
	}
	return errs
}

// FlagState tracks whether a flag was explicitly set.
type FlagState struct {
	AgentsSet      bool
	SequentialSet  bool
	DeadlineSet    bool
	ConcurrencySet bool
	DepthSet       bool
	FormatSet      bool
	FailOnSet      bool
	MinSeveritySet bool
}

// EnvState captures env var values and whether they were set.
type EnvState struct {
	Agents         []string
	AgentsSet      bool
	Sequential     bool
	SequentialSet  bool
	Deadline       time.Duration
	DeadlineSet    bool
	Concurrency    int
	ConcurrencySet bool
	Depth          string
	DepthSet       bool
	Format         string
	FormatSet      bool
	FailOn         string
	FailOnSet      bool
}

// LoadEnvState reads ACA_* environment variables. Values that fail to parse
// are ignored and reported as warnings.
func LoadEnvState() (EnvState, []string) {
	var state EnvState
	var warnings []string

	if v := os.Getenv("ACA_AGENTS"); v != "" {
		state.Agents = agent.ParseAgentNames(v)
		state.AgentsSet = len(state.Agents) > 0
	}
	if v := os.Getenv("ACA_SEQUENTIAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			state.Sequential = b
			state.SequentialSet = true
		} else {
			warnings = append(warnings, fmt.Sprintf("ACA_SEQUENTIAL=%q is not a boolean; ignoring", v))
		}
	}
	if v := os.Getenv("ACA_DEADLINE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			state.Deadline = d
			state.DeadlineSet = true
		} else if secs, err := strconv.Atoi(v); err == nil {
			state.Deadline = time.Duration(secs) * time.Second
			state.DeadlineSet = true
		} else {
			warnings = append(warnings, fmt.Sprintf("ACA_DEADLINE=%q is not a duration; ignoring", v))
		}
	}
	if v := os.Getenv("ACA_CONCURRENCY"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			state.Concurrency = i
			state.ConcurrencySet = true
		} else {
			warnings = append(warnings, fmt.Sprintf("ACA_CONCURRENCY=%q is not an integer; ignoring", v))
		}
	}
	if v := os.Getenv("ACA_DEPTH"); v != "" {
		state.Depth = v
		state.DepthSet = true
	}
	if v := os.Getenv("ACA_FORMAT"); v != "" {
		state.Format = v
		state.FormatSet = true
	}
	if v := os.Getenv("ACA_FAIL_ON"); v != "" {
		state.FailOn = v
		state.FailOnSet = true
	}

	return state, warnings
}

// Resolve merges config file values with env vars and flags.
// Precedence: flags > env vars > config file > defaults
func Resolve(cfg *Config, envState EnvState, flagState FlagState, flagValues ResolvedConfig) ResolvedConfig {
	result := Defaults

	if cfg != nil {
		if len(cfg.Agents) > 0 {
			result.Agents = slices.Clone(cfg.Agents)
		}
		if cfg.Sequential != nil {
			result.Sequential = *cfg.Sequential
		}
		if cfg.Deadline != nil {
			result.Deadline = cfg.Deadline.AsDuration()
		}
		if cfg.Concurrency != nil {
			result.Concurrency = *cfg.Concurrency
		}
		if cfg.Depth != nil {
			result.Depth = *cfg.Depth
		}
		if cfg.Format != nil {
			result.Format = *cfg.Format
		}
		if cfg.FailOn != nil {
			result.FailOn = *cfg.FailOn
		}
		if cfg.Filters.MinSeverity != nil {
			result.MinSeverity = *cfg.Filters.MinSeverity
		}
	}

	if envState.AgentsSet {
		result.Agents = slices.Clone(envState.Agents)
	}
	if envState.SequentialSet {
		result.Sequential = envState.Sequential
	}
	if envState.DeadlineSet {
		result.Deadline = envState.Deadline
	}
	if envState.ConcurrencySet {
		result.Concurrency = envState.Concurrency
	}
	if envState.DepthSet {
		result.Depth = envState.Depth
	}
	if envState.FormatSet {
		result.Format = envState.Format
	}
	if envState.FailOnSet {
		result.FailOn = envState.FailOn
	}

	if flagState.AgentsSet {
		result.Agents = slices.Clone(flagValues.Agents)
	}
	if flagState.SequentialSet {
		result.Sequential = flagValues.Sequential
	}
	if flagState.DeadlineSet {
		result.Deadline = flagValues.Deadline
	}
	if flagState.ConcurrencySet {
		result.Concurrency = flagValues.Concurrency
	}
	if flagState.DepthSet {
		result.Depth = flagValues.Depth
	}
	if flagState.FormatSet {
		result.Format = flagValues.Format
	}
	if flagState.FailOnSet {
		result.FailOn = flagValues.FailOn
	}
	if flagState.MinSeveritySet {
		result.MinSeverity = flagValues.MinSeverity
	}

	return result
}

// StaticOptions returns the static agent options configured in cfg.
func StaticOptions(cfg *Config) agent.StaticOptions {
	var opts agent.StaticOptions
	if cfg == nil {
		return opts
	}
	opts.DisabledRules = slices.Clone(cfg.Static.DisabledRules)
	if cfg.Static.MaxLineLength != nil {
		opts.MaxLineLength = *cfg.Static.MaxLineLength
	}
	if cfg.Static.MaxFileLines != nil {
		opts.MaxFileLines = *cfg.Static.MaxFileLines
	}
	return opts
}

// CommandSpecs returns the command agents declared in cfg.
func CommandSpecs(cfg *Config) []agent.CommandSpec {
	if cfg == nil {
		return nil
	}
	specs := make([]agent.CommandSpec, 0, len(cfg.CommandAgents))
	for _, ca := range cfg.CommandAgents {
		specs = append(specs, ca.Spec())
	}
	return specs
}

// Starter is the commented template written by `aca config init`.
const Starter = `# aca configuration file

# Agents to run, in registry order (default: all registered agents)
# agents:
#   - static
#   - errors
#   - tests

# Run agents one after another instead of concurrently (default: false)
# sequential: false

# Overall deadline for a run, Go duration format (default: none)
# deadline: 2m

# Maximum agents running at once in parallel mode (default: 0, unlimited)
# concurrency: 0

# Analysis depth: shallow, deep, comprehensive (default: deep)
# depth: deep

# Output format: console, json, markdown (default: console)
# format: console

# Exit with code 1 when a finding at or above this severity is reported.
# One of critical, high, medium, low, info, never (default: low)
# fail_on: low

# Filtering configuration
# filters:
#   exclude_patterns:
#     - "generated"
#   min_severity: info

# Built-in static analysis agent
# static:
#   disabled_rules:
#     - style.trailing-whitespace
#   max_line_length: 120
#   max_file_lines: 500

# External analyzers run as agents. Parsers: eslint, golangci, gnu.
# "{files}" in args expands to the analyzed files.
# command_agents:
#   - name: golangci
#     command: golangci-lint
#     args: ["run", "--output.json.path=stdout", "./..."]
#     parser: golangci
#     capabilities: [static-analysis]
`

// Package health tracks per-agent outcomes across coordination runs and
// classifies each agent as healthy, degraded or failing.
//
// The monitor is purely observational; coordination never consults it.
package health

import (
	"sort"
	"sync"
	"time"

	"github.com/richhaase/agentic-code-analyzer/internal/domain"
)

// DefaultWindow is the number of recent runs kept per agent.
const DefaultWindow = 20

// minTrendSamples is the fewest samples needed to compute a trend.
const minTrendSamples = 4

// trendTolerance is the relative change in mean execution time treated as noise.
const trendTolerance = 0.20

// Trend describes how an agent's execution time is moving.
type Trend string

const (
	TrendUnknown   Trend = "unknown"
	TrendStable    Trend = "stable"
	TrendImproving Trend = "improving"
	TrendDegrading Trend = "degrading"
)

// Status is the overall health classification.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusFailing  Status = "failing"
)

// Thresholds controls status classification.
type Thresholds struct {
	FailureRateDegraded float64
	FailureRateFailing  float64
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FailureRateDegraded: 0.2,
		FailureRateFailing:  0.5,
	}
}

// AgentHealth is a point-in-time view of one agent.
type AgentHealth struct {
	Name              string        `json:"name"`
	Samples           int           `json:"samples"`
	Failures          int           `json:"failures"`
	Timeouts          int           `json:"timeouts"`
	FailureRate       float64       `json:"failure_rate"`
	MeanExecutionTime time.Duration `json:"mean_execution_time"`
	Trend             Trend         `json:"trend"`
	Status            Status        `json:"status"`
}

type sample struct {
	elapsed  time.Duration
	failed   bool
	timedOut bool
}

// ring keeps the most recent samples in arrival order.
type ring struct {
	buf   []sample
	next  int
	count int
}

func (r *ring) add(s sample) {
	r.buf[r.next] = s
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// ordered returns samples oldest first.
func (r *ring) ordered() []sample {
	out := make([]sample, 0, r.count)
	start := (r.next - r.count + len(r.buf)) % len(r.buf)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// Monitor records agent reports. Safe for concurrent use.
type Monitor struct {
	mu         sync.RWMutex
	window     int
	thresholds Thresholds
	agents     map[string]*ring
}

// NewMonitor creates a monitor keeping window samples per agent.
// A non-positive window uses DefaultWindow; zero thresholds use the defaults.
func NewMonitor(window int, thresholds Thresholds) *Monitor {
	if window <= 0 {
		window = DefaultWindow
	}
	def := DefaultThresholds()
	if thresholds.FailureRateDegraded <= 0 {
		thresholds.FailureRateDegraded = def.FailureRateDegraded
	}
	if thresholds.FailureRateFailing <= 0 {
		thresholds.FailureRateFailing = def.FailureRateFailing
	}
	return &Monitor{
		window:     window,
		thresholds: thresholds,
		agents:     make(map[string]*ring),
	}
}

// Record adds every report in result.
func (m *Monitor) Record(result *domain.CoordinationResult) {
	if result == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range result.Reports {
		m.recordLocked(r)
	}
}

// RecordReport adds a single report.
func (m *Monitor) RecordReport(r domain.AnalysisReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordLocked(r)
}

func (m *Monitor) recordLocked(r domain.AnalysisReport) {
	rg, ok := m.agents[r.AgentName]
	if !ok {
		rg = &ring{buf: make([]sample, m.window)}
		m.agents[r.AgentName] = rg
	}
	rg.add(sample{elapsed: r.ExecutionTime, failed: r.Failed(), timedOut: r.TimedOut()})
}

// Health returns the health of one agent. ok is false if nothing was recorded.
func (m *Monitor) Health(name string) (AgentHealth, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rg, ok := m.agents[name]
	if !ok {
		return AgentHealth{}, false
	}
	return m.evaluate(name, rg.ordered()), true
}

// Snapshot returns the health of every recorded agent, sorted by name.
func (m *Monitor) Snapshot() []AgentHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AgentHealth, 0, len(m.agents))
	for name, rg := range m.agents {
		out = append(out, m.evaluate(name, rg.ordered()))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Monitor) evaluate(name string, samples []sample) AgentHealth {
	h := AgentHealth{Name: name, Samples: len(samples), Trend: TrendUnknown, Status: StatusHealthy}
	if len(samples) == 0 {
		return h
	}

	var total time.Duration
	for _, s := range samples {
		total += s.elapsed
		if s.failed {
			h.Failures++
		}
		if s.timedOut {
			h.Timeouts++
		}
	}
	h.FailureRate = float64(h.Failures) / float64(len(samples))
	h.MeanExecutionTime = total / time.Duration(len(samples))
	h.Trend = trend(samples)

	switch {
	case h.FailureRate >= m.thresholds.FailureRateFailing:
		h.Status = StatusFailing
	case h.FailureRate >= m.thresholds.FailureRateDegraded || h.Trend == TrendDegrading:
		h.Status = StatusDegraded
	}
	return h
}

// trend compares mean execution time of the older half of the window with
// the newer half. With an odd count the middle sample is left out.
func trend(samples []sample) Trend {
	if len(samples) < minTrendSamples {
		return TrendUnknown
	}
	half := len(samples) / 2
	older := mean(samples[:half])
	newer := mean(samples[len(samples)-half:])

	switch {
	case older == 0 && newer == 0:
		return TrendStable
	case older == 0:
		return TrendDegrading
	}
	change := float64(newer-older) / float64(older)
	switch {
	case change > trendTolerance:
		return TrendDegrading
	case change < -trendTolerance:
		return TrendImproving
	default:
		return TrendStable
	}
}

func mean(samples []sample) time.Duration {
	var total time.Duration
	for _, s := range samples {
		total += s.elapsed
	}
	return total / time.Duration(len(samples))
}

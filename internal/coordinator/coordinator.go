// Package coordinator runs registered agents against an analysis context and
// merges their reports into a single CoordinationResult.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/richhaase/agentic-code-analyzer/internal/agent"
	"github.com/richhaase/agentic-code-analyzer/internal/domain"
	"github.com/richhaase/agentic-code-analyzer/internal/logging"
)

// Request describes one coordination run.
type Request struct {
	Context domain.AnalysisContext
	// AgentNames selects a subset of the registry. Empty runs every agent.
	AgentNames []string
	// Sequential runs agents one at a time in registry order. The default
	// runs them concurrently.
	Sequential bool
	// Deadline bounds the whole run. Zero means no deadline.
	Deadline time.Duration
}

// Coordinator schedules agents and aggregates their reports. A single
// Coordinator may serve concurrent Coordinate calls; it keeps no per-run state.
type Coordinator struct {
	registry    *agent.Registry
	logger      logging.Logger
	concurrency int
	now         func() time.Time
	settled     *atomic.Int32
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the structured logger. Defaults to logging.NoOpLogger.
func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConcurrency limits how many agents run at once in parallel mode.
// Zero or negative means unlimited.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		c.concurrency = n
	}
}

// WithClock replaces time.Now for timing measurements.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithProgress sets a counter incremented each time an agent settles,
// e.g. terminal.Spinner.Completed().
func WithProgress(counter *atomic.Int32) Option {
	return func(c *Coordinator) {
		c.settled = counter
	}
}

// New creates a coordinator over registry.
func New(registry *agent.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry: registry,
		logger:   logging.NoOpLogger{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// outcome is one settled agent.
type outcome struct {
	index  int
	report domain.AnalysisReport
}

// Coordinate runs the requested agents and returns the merged result.
//
// Only request-shape problems are returned as errors: an invalid context
// (wrapping domain.ErrInvalidContext) or an unknown agent name
// (*domain.AgentNotFoundError), both detected before any agent runs. Agent
// errors, panics, timeouts and cancellation become degraded reports.
func (c *Coordinator) Coordinate(ctx context.Context, req Request) (*domain.CoordinationResult, error) {
	if err := req.Context.Validate(); err != nil {
		return nil, err
	}
	if req.Deadline < 0 {
		return nil, fmt.Errorf("%w: negative deadline %s", domain.ErrInvalidContext, req.Deadline)
	}

	agents := c.registry.List()
	if len(req.AgentNames) > 0 {
		resolved, err := c.registry.Resolve(req.AgentNames)
		if err != nil {
			return nil, err
		}
		agents = resolved
	}

	actx := req.Context.Clone()
	if actx.Depth == "" {
		actx.Depth = domain.DefaultDepth
	}

	result := &domain.CoordinationResult{
		RunID:     uuid.NewString(),
		StartedAt: c.now(),
		Context:   actx.Clone(),
		Parallel:  !req.Sequential,
	}
	log := logging.With(c.logger, "run_id", result.RunID)
	log.Info("coordination started", "agents", len(agents), "parallel", result.Parallel, "deadline", req.Deadline)

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if req.Deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, req.Deadline)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var reports []domain.AnalysisReport
	if req.Sequential {
		reports = c.runSequential(ctx, runCtx, agents, actx, log)
	} else {
		reports = c.runParallel(ctx, runCtx, agents, actx, result.StartedAt, log)
	}

	result.Reports = reports
	result.Summary = domain.BuildSummary(reports, c.now().Sub(result.StartedAt))

	log.Info("coordination finished",
		"findings", result.Summary.TotalFindings,
		"agents_run", result.Summary.AgentsRun,
		"agents_failed", result.Summary.AgentsFailed,
		"elapsed", result.Summary.TotalExecutionTime)
	return result, nil
}

// runParallel launches every agent and collects outcomes until all have
// settled or runCtx is done. Agents still in flight at that point get
// degraded reports and are left to finish on their own.
func (c *Coordinator) runParallel(parent, runCtx context.Context, agents []agent.Agent, actx domain.AnalysisContext, started time.Time, log logging.Logger) []domain.AnalysisReport {
	reports := make([]domain.AnalysisReport, len(agents))
	settled := make([]bool, len(agents))
	outcomes := make(chan outcome, len(agents))

	go func() {
		var g errgroup.Group
		if c.concurrency > 0 {
			g.SetLimit(c.concurrency)
		}
		for i, a := range agents {
			g.Go(func() error {
				outcomes <- outcome{index: i, report: c.runAgent(runCtx, a, actx.Clone(), log)}
				return nil
			})
		}
		_ = g.Wait()
	}()

	remaining := len(agents)
	for remaining > 0 {
		select {
		case o := <-outcomes:
			reports[o.index] = o.report
			settled[o.index] = true
			remaining--
		case <-runCtx.Done():
			// Take whatever already settled before giving up on the rest.
			for drained := false; !drained; {
				select {
				case o := <-outcomes:
					reports[o.index] = o.report
					settled[o.index] = true
				default:
					drained = true
				}
			}
			kind, msg := abortReason(parent)
			for i, a := range agents {
				if !settled[i] {
					reports[i] = c.abandon(a, kind, msg, started, log)
				}
			}
			return reports
		}
	}
	return reports
}

// runSequential runs agents one at a time. A failing agent does not stop
// the run; an expired deadline does, and agents not yet started are
// reported without being invoked.
func (c *Coordinator) runSequential(parent, runCtx context.Context, agents []agent.Agent, actx domain.AnalysisContext, log logging.Logger) []domain.AnalysisReport {
	reports := make([]domain.AnalysisReport, len(agents))

	for i, a := range agents {
		if runCtx.Err() != nil {
			kind, msg := abortReason(parent)
			for j := i; j < len(agents); j++ {
				log.Warn("agent skipped", "agent", agents[j].Name(), "kind", kind)
				reports[j] = domain.NewFailedReport(agents[j].Name(), kind, msg+" before agent started", 0)
			}
			return reports
		}

		agentStart := c.now()
		done := make(chan domain.AnalysisReport, 1)
		go func() {
			done <- c.runAgent(runCtx, a, actx.Clone(), log)
		}()

		select {
		case r := <-done:
			reports[i] = r
		case <-runCtx.Done():
			select {
			case r := <-done:
				reports[i] = r
			default:
				kind, msg := abortReason(parent)
				reports[i] = c.abandon(a, kind, msg, agentStart, log)
			}
		}
	}
	return reports
}

// runAgent invokes one agent, converting errors and panics into degraded
// reports.
func (c *Coordinator) runAgent(ctx context.Context, a agent.Agent, actx domain.AnalysisContext, log logging.Logger) (report domain.AnalysisReport) {
	name := a.Name()
	start := c.now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("agent panicked", "agent", name, "panic", r, "stack", string(debug.Stack()))
			report = domain.NewFailedReport(name, domain.ErrorKindPanic, fmt.Sprintf("panic: %v", r), c.now().Sub(start))
		}
		c.markSettled()
	}()

	if err := ctx.Err(); err != nil {
		return domain.NewFailedReport(name, kindForContextErr(err), "not started: "+err.Error(), 0)
	}

	log.Debug("agent started", "agent", name)
	got, err := a.Analyze(ctx, actx)
	elapsed := c.now().Sub(start)

	if err != nil {
		kind := domain.ErrorKindAgent
		if ctx.Err() != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			kind = kindForContextErr(ctx.Err())
		}
		log.Warn("agent failed", "agent", name, "kind", kind, "error", err, "elapsed", elapsed)
		return domain.NewFailedReport(name, kind, err.Error(), elapsed)
	}
	if got.Failed() {
		log.Warn("agent reported failure", "agent", name, "kind", got.Error.Kind, "error", got.Error.Message)
		return domain.NewFailedReport(name, got.Error.Kind, got.Error.Message, elapsed)
	}

	findings := make([]domain.Finding, 0, len(got.Findings))
	for _, f := range got.Findings {
		if err := f.Validate(); err != nil {
			log.Warn("dropping invalid finding", "agent", name, "error", err)
			continue
		}
		findings = append(findings, f)
	}

	log.Debug("agent finished", "agent", name, "findings", len(findings), "elapsed", elapsed)
	return domain.NewAnalysisReport(name, findings, elapsed)
}

// abandon builds the report for an agent that had not settled when the run stopped.
func (c *Coordinator) abandon(a agent.Agent, kind domain.ErrorKind, msg string, since time.Time, log logging.Logger) domain.AnalysisReport {
	elapsed := c.now().Sub(since)
	if elapsed < 0 {
		elapsed = 0
	}
	log.Warn("agent abandoned", "agent", a.Name(), "kind", kind)
	return domain.NewFailedReport(a.Name(), kind, msg, elapsed)
}

func (c *Coordinator) markSettled() {
	if c.settled != nil {
		c.settled.Add(1)
	}
}

// abortReason distinguishes caller cancellation from the run deadline.
func abortReason(parent context.Context) (domain.ErrorKind, string) {
	if parent.Err() != nil {
		return domain.ErrorKindCanceled, "run canceled"
	}
	return domain.ErrorKindTimeout, "deadline exceeded"
}

func kindForContextErr(err error) domain.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorKindTimeout
	}
	return domain.ErrorKindCanceled
}

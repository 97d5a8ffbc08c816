// Package agent provides the analysis agent contract, the registry that holds
// agents, and the built-in agents.
//
// # Agent Interface
//
// Agents are responsible for:
//   - Declaring a stable name and capability tags
//   - Reading (never writing) the files described by an AnalysisContext
//   - Returning sorted, reproducible findings in an AnalysisReport
//
// Example usage:
//
//	reg := agent.NewRegistry()
//	reg.MustRegister(agent.NewStaticAnalysisAgent(agent.StaticOptions{}))
//	reg.MustRegister(agent.NewErrorDetectionAgent())
//
//	a, err := reg.Get("static")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := a.Analyze(ctx, domain.NewAnalysisContext(".", nil, domain.DepthDeep))
//
// # Built-in Agents
//
// StaticAnalysisAgent: pattern rules, complexity scoring and size checks
// ErrorDetectionAgent: error-handling mistakes (empty catch, discarded errors)
// TestGenerationAgent: suggests tests for source files that have none
// CommandAgent: runs an external analyzer CLI and parses its output
package agent

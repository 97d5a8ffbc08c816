// Package domain provides the core types shared by agents, the coordinator
// and the reporting layer.
package domain

// ExitCode represents the exit status of the analyzer.
type ExitCode int

const (
	// ExitNoFindings indicates a successful run with no findings at or above the fail threshold.
	ExitNoFindings ExitCode = 0
	// ExitFindings indicates a successful run with findings at or above the fail threshold.
	ExitFindings ExitCode = 1
	// ExitError indicates the run failed due to an error.
	ExitError ExitCode = 2
	// ExitInterrupted indicates the run was interrupted by a signal.
	ExitInterrupted ExitCode = 130
)

// Int returns the exit code as an int for use with os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}

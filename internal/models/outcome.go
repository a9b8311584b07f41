package models

// CycleOutcome holds the result of one external borg invocation, or of a
// composite backup+prune cycle.
type CycleOutcome struct {
	Success  bool
	ExitCode int
}

package command

import (
	"context"
	"strings"
)

// Batch is an ordered list of shell command lines executed as one logical
// unit. Each command runs only if the previous one succeeded.
type Batch struct {
	Commands []string // Shell command lines
	Dir      string   // Working directory for the child process
	Env      []string // KEY=VALUE entries added to the inherited environment
}

// Line returns the single shell line the batch is executed as
func (b Batch) Line() string {
	return strings.Join(b.Commands, " && ")
}

// ExecutionResult represents the outcome of running one batch
type ExecutionResult struct {
	ExitCode  int
	Succeeded bool
}

// LineSink receives child process output one line at a time, as it arrives
type LineSink func(line string)

// Runner executes command batches
type Runner interface {
	Run(ctx context.Context, batch Batch, sink LineSink) (*ExecutionResult, error)
}

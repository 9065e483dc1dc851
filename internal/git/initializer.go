package git

import (
	"context"

	"github.com/satococoa/jigsaw-installer/internal/command"
)

// Initializer creates a repository with a single commit for a freshly
// scaffolded site
type Initializer struct {
	runner        command.Runner
	commitMessage string
	branch        string
}

// NewInitializer creates an Initializer that commits with commitMessage and
// renames the default branch to branch
func NewInitializer(runner command.Runner, commitMessage, branch string) *Initializer {
	return &Initializer{
		runner:        runner,
		commitMessage: commitMessage,
		branch:        branch,
	}
}

// InitRepository runs init, add, commit and branch rename in dir as one
// batch. A failing step skips the rest; the caller decides what a failure means.
func (i *Initializer) InitRepository(ctx context.Context, dir string, sink command.LineSink) (*command.ExecutionResult, error) {
	return i.runner.Run(ctx, command.Batch{
		Commands: command.GitBootstrap(i.commitMessage, i.branch),
		Dir:      dir,
	}, sink)
}

// Package installer scaffolds a new Jigsaw site: it fetches the package with
// Composer, runs jigsaw init and the configured hooks, and optionally commits
// the result to git.
package installer

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/satococoa/jigsaw-installer/internal/command"
	"github.com/satococoa/jigsaw-installer/internal/config"
	"github.com/satococoa/jigsaw-installer/internal/errors"
	"github.com/satococoa/jigsaw-installer/internal/git"
	"github.com/satococoa/jigsaw-installer/internal/hooks"
	"github.com/satococoa/jigsaw-installer/internal/output"
)

const directoryPermissions = 0o755

// Variable to allow mocking in tests
var osGetwd = os.Getwd

// Installer runs the install stages for a site.
//
// Install success is defined as package-fetch success: the Composer stage
// alone decides the returned result. jigsaw init, the post-install hooks and
// git run after it as best-effort stages whose failures are reported but
// never change that result.
type Installer struct {
	runner   command.Runner
	git      *git.Initializer
	config   *config.Config
	reporter *output.Reporter
	sink     command.LineSink
}

// New creates an Installer. Child process output is delivered to sink.
func New(runner command.Runner, cfg *config.Config, reporter *output.Reporter, sink command.LineSink) *Installer {
	return &Installer{
		runner:   runner,
		git:      git.NewInitializer(runner, cfg.Git.CommitMessage, cfg.Git.Branch),
		config:   cfg,
		reporter: reporter,
		sink:     sink,
	}
}

// stage is one external step of an install. Only critical stages may fail
// the install; the others are best-effort.
type stage struct {
	name     string
	line     string
	critical bool
	run      func(ctx context.Context) (*command.ExecutionResult, error)
}

// Install scaffolds the site described by req. The process working directory
// is never changed: every stage runs with the target as its own directory.
//
// Precondition failures return a UsageError, DirectoryExistsError or
// filesystem error before any process is spawned. A failing Composer stage
// returns its result together with an ExecutionFailure.
func (i *Installer) Install(ctx context.Context, req Request) (*command.ExecutionResult, error) {
	cwd, err := osGetwd()
	if err != nil {
		return nil, errors.DirectoryAccessFailed("access current", ".", err)
	}

	target := ResolveTarget(cwd, req.Name)
	inPlace := req.InPlace() || target == cwd
	qualifier := req.VersionQualifier()
	starter := req.StarterOr(i.config.Defaults.Starter)

	if req.Force && inPlace {
		return nil, errors.ForceWithCurrentDirectory()
	}

	if err := prepareTarget(target, inPlace, req.Force); err != nil {
		return nil, err
	}

	result, err := i.execute(ctx, i.composerStage(target, qualifier))
	if err != nil {
		return result, err
	}

	i.reporter.Comment("\nJigsaw Installed. Initializing now...\n")

	if _, err := i.execute(ctx, i.initStage(target, starter)); err != nil {
		return result, nil
	}

	if i.config.HasHooks() {
		_, _ = i.execute(ctx, i.hooksStage(cwd, target))
	}

	if !req.NoGit {
		_, _ = i.execute(ctx, i.gitStage(target))
	}

	i.reporter.Info("\nJigsaw site '%s' is ready.\n", req.Name)
	return result, nil
}

// prepareTarget enforces the directory preconditions. Without force a
// missing target is created (non-recursively) and any existing entry, file
// or directory, is refused; with force the target must already be there.
func prepareTarget(target string, inPlace, force bool) error {
	if inPlace {
		return nil
	}

	if force {
		if _, err := os.Stat(target); err != nil {
			return errors.DirectoryAccessFailed("access", target, err)
		}
		return nil
	}

	if _, err := os.Stat(target); err == nil {
		return &errors.DirectoryExistsError{Path: target}
	}

	if err := os.Mkdir(target, directoryPermissions); err != nil {
		return errors.DirectoryAccessFailed("create", target, err)
	}
	return nil
}

func (i *Installer) composerStage(target, qualifier string) stage {
	composer := command.ComposerExecutable(target, i.config.Composer, i.config.PHP)
	return i.batchStage("composer require", true, command.Batch{
		Commands: []string{command.ComposerRequire(composer, i.config.Package, qualifier)},
		Dir:      target,
	})
}

func (i *Installer) initStage(target, starter string) stage {
	return i.batchStage("jigsaw init", false, command.Batch{
		Commands: []string{command.JigsawInit(starter)},
		Dir:      target,
	})
}

func (i *Installer) hooksStage(baseDir, target string) stage {
	executor := hooks.NewExecutor(i.runner, i.config.Hooks.PostInstall, baseDir)
	return stage{
		name:     "post-install hooks",
		critical: false,
		run: func(ctx context.Context) (*command.ExecutionResult, error) {
			if err := executor.ExecutePostInstallHooks(ctx, target, i.sink); err != nil {
				return nil, err
			}
			return &command.ExecutionResult{Succeeded: true}, nil
		},
	}
}

func (i *Installer) gitStage(target string) stage {
	bootstrap := command.Batch{Commands: command.GitBootstrap(i.config.Git.CommitMessage, i.config.Git.Branch)}
	return stage{
		name:     "git init",
		line:     bootstrap.Line(),
		critical: false,
		run: func(ctx context.Context) (*command.ExecutionResult, error) {
			return i.git.InitRepository(ctx, target, i.sink)
		},
	}
}

func (i *Installer) batchStage(name string, critical bool, batch command.Batch) stage {
	return stage{
		name:     name,
		line:     batch.Line(),
		critical: critical,
		run: func(ctx context.Context) (*command.ExecutionResult, error) {
			return i.runner.Run(ctx, batch, i.sink)
		},
	}
}

// execute runs s and turns a non-zero exit into an ExecutionFailure. Failures
// of best-effort stages are reported here; the caller only learns whether to
// go on.
func (i *Installer) execute(ctx context.Context, s stage) (*command.ExecutionResult, error) {
	result, err := s.run(ctx)
	if err == nil && !result.Succeeded {
		err = &errors.ExecutionFailure{Stage: s.name, Command: s.line, ExitCode: result.ExitCode}
	}

	if err != nil && !s.critical {
		i.warnSkipped(s.name, err)
	}
	return result, err
}

func (i *Installer) warnSkipped(name string, err error) {
	var failure *errors.ExecutionFailure
	if stderrors.As(err, &failure) {
		i.reporter.Warn("Warning: %s exited with code %d\n", name, failure.ExitCode)
		return
	}
	i.reporter.Warn("Warning: %s could not run: %v\n", name, err)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/satococoa/jigsaw-installer/internal/command"
	"github.com/satococoa/jigsaw-installer/internal/errors"
	"github.com/satococoa/jigsaw-installer/internal/installer"
	lineio "github.com/satococoa/jigsaw-installer/internal/io"
	"github.com/satococoa/jigsaw-installer/internal/output"
)

const (
	composerEnvVar = "JIGSAW_COMPOSER"
	outputPrefix   = "    "
)

// NewNewCommand creates the new command definition
func NewNewCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a new Jigsaw site",
		UsageText: "jigsaw new [options] <name>",
		ArgsUsage: "<name>",
		Description: "Creates <name> in the current directory and installs Jigsaw into it. " +
			"Use '.' to install into the current directory itself.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "starter",
				Usage: "starter `TEMPLATE` to initialize with (e.g. blog, docs)",
			},
			&cli.BoolFlag{
				Name:    "dev",
				Aliases: []string{"d"},
				Usage:   "install the latest development release",
			},
			&cli.StringFlag{
				Name:  "v",
				Usage: "install the given Jigsaw `VERSION`",
			},
			&cli.BoolFlag{
				Name:  "no-git",
				Usage: "do not initialize a git repository",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "install even if the directory already exists",
			},
			&cli.StringFlag{
				Name:    "composer",
				Usage:   "composer `BINARY` to run instead of the configured one",
				Sources: cli.EnvVars(composerEnvVar),
			},
		},
		Action: newCommand,
	}
}

func newCommand(ctx context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}

	reporter := output.New(w)
	runner := command.NewShellRunner(true, func(err error) {
		reporter.Warn("Warning: %v\n", err)
	})
	return newCommandWithRunner(ctx, cmd, w, runner)
}

func newCommandWithRunner(ctx context.Context, cmd *cli.Command, w io.Writer, runner command.Runner) error {
	req, err := parseNewInput(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if composer := cmd.String("composer"); composer != "" {
		cfg.Composer = composer
	}

	reporter := output.New(w)
	lines := lineio.NewLineWriter(w, outputPrefix)
	inst := installer.New(runner, cfg, reporter, lines.Sink())

	_, err = inst.Install(ctx, req)
	_ = lines.Flush()
	return err
}

func parseNewInput(cmd *cli.Command) (installer.Request, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return installer.Request{}, errors.SiteNameRequired()
	}
	if len(args) > 1 {
		return installer.Request{}, &errors.UsageError{
			Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(args[1:], " ")),
			Hint:    "Usage: jigsaw new [options] <name>",
		}
	}

	return installer.Request{
		Name:    strings.TrimSpace(args[0]),
		Starter: cmd.String("starter"),
		Version: cmd.String("v"),
		Dev:     cmd.Bool("dev"),
		NoGit:   cmd.Bool("no-git"),
		Force:   cmd.Bool("force"),
	}, nil
}

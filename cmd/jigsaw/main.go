package main

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/satococoa/jigsaw-installer/internal/errors"
	"github.com/satococoa/jigsaw-installer/internal/output"
)

const defaultVersion = "dev"

// Version information (set by GoReleaser)
var (
	version = defaultVersion
	_       = "none"    // commit - set by GoReleaser but not used
	_       = "unknown" // date - set by GoReleaser but not used
)

func init() {
	// -v selects the Jigsaw version on `new`, so the version flag keeps only
	// its long form and stays on the root command.
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
		Local: true,
	}
}

func main() {
	initVersion()

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

// reportError prints a fatal error and returns the exit status for it.
func reportError(w io.Writer, err error) int {
	output.New(w).Error("%v\n", err)
	return errors.ExitCode(err)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/satococoa/jigsaw-installer/internal/config"
	"github.com/satococoa/jigsaw-installer/internal/errors"
)

// NewConfigCommand creates the config command definition
func NewConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Write the default configuration file",
		Description: "Creates the installer configuration file with the default package, " +
			"Composer and git settings so they can be edited.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "overwrite an existing configuration file",
			},
		},
		Action: configCommand,
	}
}

func configCommand(_ context.Context, cmd *cli.Command) error {
	path, _, err := configPath(cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return errors.ConfigAlreadyExists(path)
	}

	if err := config.SaveConfig(path, config.Default()); err != nil {
		return fmt.Errorf("failed to write configuration file %s: %w", path, err)
	}

	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}

	fmt.Fprintf(w, "Configuration file created: %s\n", path)
	fmt.Fprintln(w, "Edit this file to customize new sites.")
	return nil
}

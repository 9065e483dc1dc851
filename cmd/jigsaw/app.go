package main

import (
	"github.com/urfave/cli/v3"

	"github.com/satococoa/jigsaw-installer/internal/config"
	"github.com/satococoa/jigsaw-installer/internal/errors"
)

const configEnvVar = "JIGSAW_INSTALLER_CONFIG"

// Variable to allow mocking in tests
var defaultConfigPath = config.DefaultPath

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "jigsaw",
		Usage: "Jigsaw site installer",
		Description: "Creates new Jigsaw static sites: installs tightenco/jigsaw with Composer, " +
			"runs jigsaw init with an optional starter template and commits the result to git.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the installer configuration `FILE` (default: ~/.config/jigsaw/config.yml)",
				Sources: cli.EnvVars(configEnvVar),
			},
		},
		Commands: []*cli.Command{
			NewNewCommand(),
			NewConfigCommand(),
		},
	}
}

// configPath returns the --config value, or the per-user default location.
// The bool reports whether the path was chosen explicitly.
func configPath(cmd *cli.Command) (string, bool, error) {
	if path := cmd.String("config"); path != "" {
		return path, true, nil
	}
	path, err := defaultConfigPath()
	if err != nil {
		return "", false, err
	}
	return path, false, nil
}

// loadConfig reads the configuration for cmd. An explicitly chosen file must
// exist; the default one is optional.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path, explicit, err := configPath(cmd)
	if err != nil {
		return config.Default(), nil
	}

	cfg, err := config.LoadConfig(path, explicit)
	if err != nil {
		return nil, errors.ConfigLoadFailed(path, err)
	}
	return cfg, nil
}

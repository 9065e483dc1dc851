package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Config represents the installer configuration
type Config struct {
	Package  string   `yaml:"package,omitempty"`
	Composer string   `yaml:"composer,omitempty"`
	PHP      string   `yaml:"php,omitempty"`
	Git      Git      `yaml:"git,omitempty"`
	Defaults Defaults `yaml:"defaults,omitempty"`
	Hooks    Hooks    `yaml:"hooks,omitempty"`
}

// Git represents the repository bootstrap settings
type Git struct {
	CommitMessage string `yaml:"commit_message,omitempty"`
	Branch        string `yaml:"branch,omitempty"`
}

// Defaults represents values used when the matching flag is not given
type Defaults struct {
	Starter string `yaml:"starter,omitempty"`
}

// Hooks represents the steps run inside a new site after jigsaw init
type Hooks struct {
	PostInstall []Hook `yaml:"post_install,omitempty"`
}

// Hook represents a single hook configuration
type Hook struct {
	Type    string            `yaml:"type"` // "copy" or "command"
	From    string            `yaml:"from,omitempty"`
	To      string            `yaml:"to,omitempty"`
	Command string            `yaml:"command,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	WorkDir string            `yaml:"work_dir,omitempty"`
}

const (
	ConfigDirName         = "jigsaw"
	ConfigFileName        = "config.yml"
	DefaultPackage        = "tightenco/jigsaw"
	DefaultComposer       = "composer"
	DefaultPHP            = "php"
	DefaultCommitMessage  = "Install Jigsaw"
	DefaultBranch         = "main"
	HookTypeCopy          = "copy"
	HookTypeCommand       = "command"
	configFilePermissions = 0o600
)

// Variable to allow mocking in tests
var userConfigDir = os.UserConfigDir

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Validate()
	return cfg
}

// DefaultPath returns the per-user configuration file location,
// e.g. ~/.config/jigsaw/config.yml
func DefaultPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, ConfigDirName, ConfigFileName), nil
}

// LoadConfig loads configuration from path. A missing file yields the
// defaults unless required is set.
func LoadConfig(path string, required bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SaveConfig writes configuration to path, creating its directory
func SaveConfig(path string, config *Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, configFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate fills in defaults and rejects values that cannot form a valid
// command line
func (c *Config) Validate() error {
	if c.Package == "" {
		c.Package = DefaultPackage
	}
	if c.Composer == "" {
		c.Composer = DefaultComposer
	}
	if c.PHP == "" {
		c.PHP = DefaultPHP
	}
	if c.Git.CommitMessage == "" {
		c.Git.CommitMessage = DefaultCommitMessage
	}
	if c.Git.Branch == "" {
		c.Git.Branch = DefaultBranch
	}

	if strings.ContainsAny(c.Package, " \t\n") || !strings.Contains(c.Package, "/") {
		return fmt.Errorf("package must be a composer package name like 'vendor/name', got '%s'", c.Package)
	}
	if strings.ContainsAny(c.Git.Branch, " \t\n") || strings.Contains(c.Git.Branch, "..") {
		return fmt.Errorf("invalid git branch name '%s'", c.Git.Branch)
	}
	if strings.ContainsAny(c.Defaults.Starter, "\n") {
		return fmt.Errorf("default starter must be a single line")
	}

	for i, hook := range c.Hooks.PostInstall {
		if err := hook.Validate(); err != nil {
			return fmt.Errorf("invalid hook %d: %w", i+1, err)
		}
	}

	return nil
}

// Validate validates a single hook configuration
func (h *Hook) Validate() error {
	switch h.Type {
	case HookTypeCopy:
		if h.From == "" || h.To == "" {
			return fmt.Errorf("copy hook requires both 'from' and 'to' fields")
		}
		if h.Command != "" {
			return fmt.Errorf("copy hook should not have 'command' field")
		}
	case HookTypeCommand:
		if h.Command == "" {
			return fmt.Errorf("command hook requires 'command' field")
		}
		if h.From != "" || h.To != "" {
			return fmt.Errorf("command hook should not have 'from' or 'to' fields")
		}
	default:
		return fmt.Errorf("invalid hook type '%s', must be 'copy' or 'command'", h.Type)
	}

	return nil
}

// HasHooks returns true if any post-install hooks are configured
func (c *Config) HasHooks() bool {
	return len(c.Hooks.PostInstall) > 0
}

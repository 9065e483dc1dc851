package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common error messages with helpful context and suggestions

// UsageError reports an invalid combination of options. It is raised before
// any process is spawned.
type UsageError struct {
	Message string
	Hint    string
}

func (e *UsageError) Error() string {
	if e.Hint == "" {
		return e.Message
	}
	return e.Message + "\n\n" + e.Hint
}

// DirectoryExistsError reports that the target directory is already present
// and --force was not given.
type DirectoryExistsError struct {
	Path string
}

func (e *DirectoryExistsError) Error() string {
	return fmt.Sprintf(`directory already exists: %s

Solutions:
  • Choose a different name for the new site
  • Remove the existing directory
  • Use '--force' to install into the existing directory`, e.Path)
}

// ExecutionFailure reports a spawned process that exited non-zero. Its output
// has already been streamed by the time the error is returned.
type ExecutionFailure struct {
	Stage    string
	Command  string
	ExitCode int
}

func (e *ExecutionFailure) Error() string {
	msg := fmt.Sprintf("%s failed with exit code %d", e.Stage, e.ExitCode)
	if e.Command != "" {
		msg += fmt.Sprintf("\n\nCommand: %s", e.Command)
	}
	msg += "\n\nTip: Check the output above for details, or run the command manually"
	return msg
}

// AttachmentWarning reports that the child process could not be attached to
// the controlling terminal. It is never fatal.
type AttachmentWarning struct {
	Device string
	Err    error
}

func (e *AttachmentWarning) Error() string {
	return fmt.Sprintf("could not attach to terminal %s, continuing without interactive input: %v", e.Device, e.Err)
}

func (e *AttachmentWarning) Unwrap() error {
	return e.Err
}

// Validation Errors
func SiteNameRequired() error {
	return &UsageError{
		Message: "site name is required",
		Hint: `Usage: jigsaw new <name>

Examples:
  • jigsaw new my-site
  • jigsaw new my-blog --starter=blog
  • jigsaw new . (install into the current directory)`,
	}
}

func ForceWithCurrentDirectory() error {
	return &UsageError{
		Message: "cannot use --force option when using current directory for installation",
		Hint: `Solutions:
  • Drop '--force' to install into the current directory
  • Pass a directory name instead of '.'`,
	}
}

// ExitCode returns the process exit status err should map to. Execution
// failures mirror the failing child; everything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var failure *ExecutionFailure
	if errors.As(err, &failure) && failure.ExitCode > 0 {
		return failure.ExitCode
	}
	return 1
}

func ConfigAlreadyExists(configPath string) error {
	msg := fmt.Sprintf(`configuration file already exists: %s

Options:
  • Edit the existing file manually
  • Delete it and run 'jigsaw config' again
  • Use 'jigsaw config --force' to overwrite it`, configPath)
	return errors.New(msg)
}

// File System Errors
func DirectoryAccessFailed(operation, path string, originalError error) error {
	msg := fmt.Sprintf("failed to %s directory: %s", operation, path)

	errorStr := originalError.Error()
	if strings.Contains(errorStr, "permission denied") {
		msg += `

Cause: Permission denied
Solutions:
  • Check directory permissions
  • Ensure you have write access to the parent directory`
	} else if strings.Contains(errorStr, "no such file or directory") {
		msg += `

Cause: Parent directory does not exist
Solutions:
  • Create the parent directory first
  • Check the path spelling`
	}

	return fmt.Errorf("%s\n\nOriginal error: %w", msg, originalError)
}

// Configuration Errors
func ConfigLoadFailed(configPath string, parseError error) error {
	msg := fmt.Sprintf("failed to load configuration from '%s'", configPath)

	parseErrorStr := parseError.Error()
	if strings.Contains(parseErrorStr, "yaml") || strings.Contains(parseErrorStr, "unmarshal") {
		msg += `

Cause: YAML syntax error in configuration file
Solutions:
  • Check YAML syntax and indentation
  • Remove the file to fall back to the defaults`
	} else if strings.Contains(parseErrorStr, "no such file") {
		msg += `

Cause: Configuration file does not exist
Solution: Check the path passed to '--config'`
	} else if strings.Contains(parseErrorStr, "invalid configuration") {
		msg += `

Cause: Configuration value is not allowed
Solution: Fix the value named below`
	}

	return fmt.Errorf("%s\n\nOriginal error: %w", msg, parseError)
}

// Package hooks runs the user's post-install steps inside a new site.
package hooks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/satococoa/jigsaw-installer/internal/command"
	"github.com/satococoa/jigsaw-installer/internal/config"
	"github.com/satococoa/jigsaw-installer/internal/errors"
)

const (
	directoryPermissions = 0o755
	// SitePathEnv and BaseDirEnv are exported to command hooks
	SitePathEnv = "JIGSAW_SITE_PATH"
	BaseDirEnv  = "JIGSAW_BASE_DIR"
)

// Executor handles hook execution
type Executor struct {
	runner  command.Runner
	hooks   []config.Hook
	baseDir string
}

// NewExecutor creates a hook executor. Relative copy sources are resolved
// against baseDir, the directory the installer was started from.
func NewExecutor(runner command.Runner, hooks []config.Hook, baseDir string) *Executor {
	return &Executor{
		runner:  runner,
		hooks:   hooks,
		baseDir: baseDir,
	}
}

// ExecutePostInstallHooks runs every hook in order inside sitePath and stops
// at the first failure. Progress and command output go to sink.
func (e *Executor) ExecutePostInstallHooks(ctx context.Context, sitePath string, sink command.LineSink) error {
	for i := range e.hooks {
		if err := e.executeHook(ctx, &e.hooks[i], sitePath, sink); err != nil {
			return fmt.Errorf("failed to execute hook %d: %w", i+1, err)
		}
	}
	return nil
}

func (e *Executor) executeHook(ctx context.Context, hook *config.Hook, sitePath string, sink command.LineSink) error {
	switch hook.Type {
	case config.HookTypeCopy:
		return e.executeCopyHook(hook, sitePath, sink)
	case config.HookTypeCommand:
		return e.executeCommandHook(ctx, hook, sitePath, sink)
	default:
		return fmt.Errorf("unknown hook type: %s", hook.Type)
	}
}

func (e *Executor) executeCopyHook(hook *config.Hook, sitePath string, sink command.LineSink) error {
	srcPath := hook.From
	if !filepath.IsAbs(srcPath) {
		srcPath = filepath.Join(e.baseDir, srcPath)
	}

	dstPath := hook.To
	if !filepath.IsAbs(dstPath) {
		dstPath = filepath.Join(sitePath, dstPath)
	}

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("source path does not exist: %s", srcPath)
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), directoryPermissions); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	relDst, relErr := filepath.Rel(sitePath, dstPath)
	if relErr != nil {
		relDst = dstPath
	}
	emit(sink, fmt.Sprintf("Copying: %s → %s", hook.From, relDst))

	if srcInfo.IsDir() {
		return copyDir(srcPath, dstPath)
	}
	return copyFile(srcPath, dstPath)
}

func (e *Executor) executeCommandHook(ctx context.Context, hook *config.Hook, sitePath string, sink command.LineSink) error {
	workDir := hook.WorkDir
	if workDir == "" {
		workDir = sitePath
	} else if !filepath.IsAbs(workDir) {
		workDir = filepath.Join(sitePath, workDir)
	}

	env := make([]string, 0, len(hook.Env)+2)
	for key, value := range hook.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	env = append(env,
		fmt.Sprintf("%s=%s", SitePathEnv, sitePath),
		fmt.Sprintf("%s=%s", BaseDirEnv, e.baseDir))

	emit(sink, "Running: "+hook.Command)

	result, err := e.runner.Run(ctx, command.Batch{
		Commands: []string{hook.Command},
		Dir:      workDir,
		Env:      env,
	}, sink)
	if err != nil {
		return err
	}
	if !result.Succeeded {
		return &errors.ExecutionFailure{Stage: "hook", Command: hook.Command, ExitCode: result.ExitCode}
	}
	return nil
}

func emit(sink command.LineSink, line string) {
	if sink != nil {
		sink(line)
	}
}

// copyFile copies a single file
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	if _, copyErr := io.Copy(destFile, sourceFile); copyErr != nil {
		return fmt.Errorf("failed to copy file: %w", copyErr)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to get source file info: %w", err)
	}

	if err := os.Chmod(dst, srcInfo.Mode()); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	return nil
}

// copyDir recursively copies a directory
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source directory: %w", err)
	}

	if mkdirErr := os.MkdirAll(dst, srcInfo.Mode()); mkdirErr != nil {
		return fmt.Errorf("failed to create destination directory: %w", mkdirErr)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

package installer

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alessio/shellescape"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satococoa/jigsaw-installer/internal/command"
	"github.com/satococoa/jigsaw-installer/internal/config"
	"github.com/satococoa/jigsaw-installer/internal/errors"
	"github.com/satococoa/jigsaw-installer/internal/output"
)

// fakeRunner records every batch instead of spawning a process. Results and
// errors are scripted per call; unscripted calls succeed.
type fakeRunner struct {
	batches []command.Batch
	results []*command.ExecutionResult
	errs    []error
}

func (f *fakeRunner) Run(_ context.Context, batch command.Batch, sink command.LineSink) (*command.ExecutionResult, error) {
	call := len(f.batches)
	f.batches = append(f.batches, batch)
	if sink != nil {
		sink("ran: " + batch.Line())
	}
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	if call < len(f.results) && f.results[call] != nil {
		return f.results[call], nil
	}
	return &command.ExecutionResult{Succeeded: true}, nil
}

type testSetup struct {
	installer *Installer
	runner    *fakeRunner
	out       *bytes.Buffer
	lines     []string
	cwd       string
}

func newTestSetup(t *testing.T, runner *fakeRunner, cfg *config.Config) *testSetup {
	t.Helper()

	prevColor := color.NoColor
	color.NoColor = true
	prevGetwd := osGetwd
	t.Cleanup(func() {
		color.NoColor = prevColor
		osGetwd = prevGetwd
	})

	cwd := t.TempDir()
	osGetwd = func() (string, error) { return cwd, nil }

	if cfg == nil {
		cfg = config.Default()
	}

	setup := &testSetup{runner: runner, out: &bytes.Buffer{}, cwd: cwd}
	setup.installer = New(runner, cfg, output.New(setup.out), func(line string) {
		setup.lines = append(setup.lines, line)
	})
	return setup
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		name string
		cwd  string
		site string
		want string
	}{
		{name: "named site", cwd: "/work", site: "my-site", want: "/work" + string(os.PathSeparator) + "my-site"},
		{name: "nested name", cwd: "/work", site: "sites/blog", want: "/work" + string(os.PathSeparator) + "sites/blog"},
		{name: "current directory", cwd: "/work", site: ".", want: "/work"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTarget(tt.cwd, tt.site))
		})
	}
}

func TestRequest_VersionQualifier(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{name: "latest", req: Request{}, want: ""},
		{name: "dev", req: Request{Dev: true}, want: ":dev-main"},
		{name: "explicit version", req: Request{Version: "1.2.3"}, want: ":1.2.3"},
		{name: "dev wins over version", req: Request{Dev: true, Version: "1.2.3"}, want: ":dev-main"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.VersionQualifier())
		})
	}
}

func TestRequest_StarterOr(t *testing.T) {
	assert.Equal(t, "blog", Request{Starter: "blog"}.StarterOr("docs"))
	assert.Equal(t, "docs", Request{}.StarterOr("docs"))
	assert.Equal(t, "", Request{}.StarterOr(""))
}

func TestRequest_InPlace(t *testing.T) {
	assert.True(t, Request{Name: "."}.InPlace())
	assert.False(t, Request{Name: "my-site"}.InPlace())
}

func TestInstall_FullRun(t *testing.T) {
	setup := newTestSetup(t, &fakeRunner{}, nil)

	result, err := setup.installer.Install(context.Background(), Request{Name: "my-site"})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.Succeeded)

	target := filepath.Join(setup.cwd, "my-site")
	info, statErr := os.Stat(target)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())

	batches := setup.runner.batches
	require.Len(t, batches, 3)

	assert.Equal(t, []string{"composer require tightenco/jigsaw --no-interaction"}, batches[0].Commands)
	assert.Equal(t, []string{"./vendor/bin/jigsaw init "}, batches[1].Commands)
	assert.Equal(t, []string{
		"git init -q",
		"git add .",
		"git commit -q -m 'Install Jigsaw'",
		"git branch -M main",
	}, batches[2].Commands)

	for _, batch := range batches {
		assert.Equal(t, ResolveTarget(setup.cwd, "my-site"), batch.Dir)
	}

	assert.Contains(t, setup.out.String(), "Jigsaw Installed. Initializing now...")
	assert.Contains(t, setup.out.String(), "Jigsaw site 'my-site' is ready.")
	assert.Len(t, setup.lines, 3, "every stage streams through the sink")
}

func TestInstall_VersionSelection(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{name: "dev", req: Request{Name: "site", Dev: true}, want: "composer require tightenco/jigsaw:dev-main --no-interaction"},
		{name: "version", req: Request{Name: "site", Version: "1.2.3"}, want: "composer require tightenco/jigsaw:1.2.3 --no-interaction"},
		{name: "dev and version", req: Request{Name: "site", Dev: true, Version: "1.2.3"}, want: "composer require tightenco/jigsaw:dev-main --no-interaction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup := newTestSetup(t, &fakeRunner{}, nil)

			_, err := setup.installer.Install(context.Background(), tt.req)

			require.NoError(t, err)
			require.NotEmpty(t, setup.runner.batches)
			assert.Equal(t, []string{tt.want}, setup.runner.batches[0].Commands)
		})
	}
}

func TestInstall_Starter(t *testing.T) {
	t.Run("passes the starter as trailing argument", func(t *testing.T) {
		setup := newTestSetup(t, &fakeRunner{}, nil)

		_, err := setup.installer.Install(context.Background(), Request{Name: "site", Starter: "blog", NoGit: true})

		require.NoError(t, err)
		require.Len(t, setup.runner.batches, 2)
		assert.Equal(t, []string{"./vendor/bin/jigsaw init blog"}, setup.runner.batches[1].Commands)
	})

	t.Run("falls back to the configured default starter", func(t *testing.T) {
		cfg := config.Default()
		cfg.Defaults.Starter = "docs"
		setup := newTestSetup(t, &fakeRunner{}, cfg)

		_, err := setup.installer.Install(context.Background(), Request{Name: "site", NoGit: true})

		require.NoError(t, err)
		require.Len(t, setup.runner.batches, 2)
		assert.Equal(t, []string{"./vendor/bin/jigsaw init docs"}, setup.runner.batches[1].Commands)
	})
}

func TestInstall_NoGit(t *testing.T) {
	setup := newTestSetup(t, &fakeRunner{}, nil)

	result, err := setup.installer.Install(context.Background(), Request{Name: "site", NoGit: true})

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	require.Len(t, setup.runner.batches, 2)
	for _, batch := range setup.runner.batches {
		assert.NotContains(t, batch.Line(), "git ")
	}
}

func TestInstall_CustomConfig(t *testing.T) {
	cfg := &config.Config{
		Package:  "acme/jigsaw-fork",
		Composer: "/opt/composer",
		Git:      config.Git{CommitMessage: "Scaffold", Branch: "trunk"},
	}
	require.NoError(t, cfg.Validate())
	setup := newTestSetup(t, &fakeRunner{}, cfg)

	_, err := setup.installer.Install(context.Background(), Request{Name: "site"})

	require.NoError(t, err)
	require.Len(t, setup.runner.batches, 3)
	assert.Equal(t, "/opt/composer require acme/jigsaw-fork --no-interaction", setup.runner.batches[0].Line())
	assert.Contains(t, setup.runner.batches[2].Commands, "git commit -q -m Scaffold")
	assert.Contains(t, setup.runner.batches[2].Commands, "git branch -M trunk")
}

func TestInstall_DirectoryExists(t *testing.T) {
	setup := newTestSetup(t, &fakeRunner{}, nil)
	existing := filepath.Join(setup.cwd, "my-site")
	require.NoError(t, os.Mkdir(existing, 0o755))

	result, err := setup.installer.Install(context.Background(), Request{Name: "my-site"})

	assert.Nil(t, result)
	var existsErr *errors.DirectoryExistsError
	require.True(t, stderrors.As(err, &existsErr))
	assert.Equal(t, ResolveTarget(setup.cwd, "my-site"), existsErr.Path)
	assert.Empty(t, setup.runner.batches, "no process may be spawned")
}

func TestInstall_FileAtTarget(t *testing.T) {
	setup := newTestSetup(t, &fakeRunner{}, nil)
	require.NoError(t, os.WriteFile(filepath.Join(setup.cwd, "my-site"), []byte("not a site"), 0o644))

	result, err := setup.installer.Install(context.Background(), Request{Name: "my-site"})

	assert.Nil(t, result)
	var existsErr *errors.DirectoryExistsError
	require.True(t, stderrors.As(err, &existsErr), "got %v", err)
	assert.Equal(t, ResolveTarget(setup.cwd, "my-site"), existsErr.Path)
	assert.Empty(t, setup.runner.batches, "no process may be spawned")
	assert.FileExists(t, filepath.Join(setup.cwd, "my-site"))
}

func TestInstall_ForceInCurrentDirectory(t *testing.T) {
	requests := []Request{
		{Name: ".", Force: true},
		{Name: ".", Force: true, Dev: true, Starter: "blog"},
		{Name: ".", Force: true, NoGit: true, Version: "1.2.3"},
	}

	for _, req := range requests {
		setup := newTestSetup(t, &fakeRunner{}, nil)

		result, err := setup.installer.Install(context.Background(), req)

		assert.Nil(t, result)
		var usageErr *errors.UsageError
		require.True(t, stderrors.As(err, &usageErr), "got %v", err)
		assert.Contains(t, err.Error(), "--force")
		assert.Empty(t, setup.runner.batches, "no process may be spawned")

		entries, readErr := os.ReadDir(setup.cwd)
		require.NoError(t, readErr)
		assert.Empty(t, entries, "nothing may be created")
	}
}

func TestInstall_ForceIntoExistingDirectory(t *testing.T) {
	setup := newTestSetup(t, &fakeRunner{}, nil)
	existing := filepath.Join(setup.cwd, "my-site")
	require.NoError(t, os.Mkdir(existing, 0o755))
	keep := filepath.Join(existing, "keep.txt")
	require.NoError(t, os.WriteFile(keep, []byte("keep me"), 0o644))

	result, err := setup.installer.Install(context.Background(), Request{Name: "my-site", Force: true})

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	require.Len(t, setup.runner.batches, 3)
	assert.Equal(t, ResolveTarget(setup.cwd, "my-site"), setup.runner.batches[0].Dir)

	content, readErr := os.ReadFile(keep)
	require.NoError(t, readErr)
	assert.Equal(t, "keep me", string(content), "existing files must survive")
}

func TestInstall_ForceIntoMissingDirectory(t *testing.T) {
	setup := newTestSetup(t, &fakeRunner{}, nil)

	result, err := setup.installer.Install(context.Background(), Request{Name: "missing", Force: true})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, setup.runner.batches)
}

func TestInstall_MissingParentDirectory(t *testing.T) {
	setup := newTestSetup(t, &fakeRunner{}, nil)

	result, err := setup.installer.Install(context.Background(), Request{Name: "no/such/parent"})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create directory")
	assert.Empty(t, setup.runner.batches)
}

func TestInstall_CurrentDirectory(t *testing.T) {
	setup := newTestSetup(t, &fakeRunner{}, nil)

	result, err := setup.installer.Install(context.Background(), Request{Name: "."})

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	require.Len(t, setup.runner.batches, 3)
	for _, batch := range setup.runner.batches {
		assert.Equal(t, setup.cwd, batch.Dir)
	}

	entries, readErr := os.ReadDir(setup.cwd)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "in-place install must not create a subdirectory")
}

func TestInstall_LocalComposerPhar(t *testing.T) {
	setup := newTestSetup(t, &fakeRunner{}, nil)
	require.NoError(t, os.WriteFile(filepath.Join(setup.cwd, command.ComposerPhar), []byte("<?php"), 0o644))

	_, err := setup.installer.Install(context.Background(), Request{Name: ".", NoGit: true})

	require.NoError(t, err)
	require.NotEmpty(t, setup.runner.batches)
	phar := shellescape.Quote(filepath.Join(setup.cwd, command.ComposerPhar))
	assert.Equal(t, "php "+phar+" require tightenco/jigsaw --no-interaction", setup.runner.batches[0].Line())
}

func TestInstall_ComposerFailureStopsEverything(t *testing.T) {
	runner := &fakeRunner{results: []*command.ExecutionResult{{ExitCode: 2}}}
	setup := newTestSetup(t, runner, nil)

	result, err := setup.installer.Install(context.Background(), Request{Name: "site"})

	require.NotNil(t, result)
	assert.Equal(t, 2, result.ExitCode)
	assert.False(t, result.Succeeded)

	var failure *errors.ExecutionFailure
	require.True(t, stderrors.As(err, &failure))
	assert.Equal(t, "composer require", failure.Stage)
	assert.Equal(t, 2, failure.ExitCode)
	assert.Equal(t, "composer require tightenco/jigsaw --no-interaction", failure.Command)

	assert.Len(t, runner.batches, 1, "init and git must not run")
	assert.NotContains(t, setup.out.String(), "Jigsaw Installed")
	assert.NotContains(t, setup.out.String(), "is ready")
}

func TestInstall_ComposerCannotStart(t *testing.T) {
	runner := &fakeRunner{errs: []error{stderrors.New("sh: not found")}}
	setup := newTestSetup(t, runner, nil)

	result, err := setup.installer.Install(context.Background(), Request{Name: "site"})

	assert.Nil(t, result)
	assert.EqualError(t, err, "sh: not found")
	assert.Len(t, runner.batches, 1)
}

func TestInstall_InitFailureIsBestEffort(t *testing.T) {
	runner := &fakeRunner{results: []*command.ExecutionResult{nil, {ExitCode: 1}}}
	setup := newTestSetup(t, runner, nil)

	result, err := setup.installer.Install(context.Background(), Request{Name: "site"})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode, "result comes from the composer stage")
	assert.Len(t, runner.batches, 2, "git must not run after a failed init")
	assert.Contains(t, setup.out.String(), "Warning: jigsaw init exited with code 1")
	assert.NotContains(t, setup.out.String(), "is ready", "an uninitialized site is not ready")
}

func TestInstall_GitFailureIsBestEffort(t *testing.T) {
	runner := &fakeRunner{results: []*command.ExecutionResult{nil, nil, {ExitCode: 128}}}
	setup := newTestSetup(t, runner, nil)

	result, err := setup.installer.Install(context.Background(), Request{Name: "site"})

	require.NoError(t, err)
	assert.Equal(t, &command.ExecutionResult{ExitCode: 0, Succeeded: true}, result)
	assert.Len(t, runner.batches, 3)
	assert.Contains(t, setup.out.String(), "Warning: git init exited with code 128")
}

func TestInstall_GitCannotStart(t *testing.T) {
	runner := &fakeRunner{errs: []error{nil, nil, stderrors.New("exec: git not found")}}
	setup := newTestSetup(t, runner, nil)

	result, err := setup.installer.Install(context.Background(), Request{Name: "site"})

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Contains(t, setup.out.String(), "Warning: git init could not run: exec: git not found")
}

func TestInstall_GetwdFailure(t *testing.T) {
	setup := newTestSetup(t, &fakeRunner{}, nil)
	osGetwd = func() (string, error) { return "", os.ErrPermission }

	result, err := setup.installer.Install(context.Background(), Request{Name: "site"})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Empty(t, setup.runner.batches)
}

func TestInstall_LeavesProcessDirectoryAlone(t *testing.T) {
	before, err := os.Getwd()
	require.NoError(t, err)

	failing := &fakeRunner{results: []*command.ExecutionResult{{ExitCode: 1}}}
	for _, runner := range []*fakeRunner{{}, failing} {
		setup := newTestSetup(t, runner, nil)
		_, _ = setup.installer.Install(context.Background(), Request{Name: "site"})

		after, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, before, after)
	}
}

func TestInstall_PostInstallHooks(t *testing.T) {
	cfg := config.Default()
	cfg.Hooks.PostInstall = []config.Hook{
		{Type: config.HookTypeCommand, Command: "npm install"},
	}

	t.Run("run between init and git", func(t *testing.T) {
		setup := newTestSetup(t, &fakeRunner{}, cfg)

		result, err := setup.installer.Install(context.Background(), Request{Name: "site"})

		require.NoError(t, err)
		assert.True(t, result.Succeeded)
		require.Len(t, setup.runner.batches, 4)
		assert.Equal(t, "npm install", setup.runner.batches[2].Line())
		assert.Equal(t, ResolveTarget(setup.cwd, "site"), setup.runner.batches[2].Dir)
		assert.Contains(t, setup.runner.batches[3].Line(), "git init -q")
	})

	t.Run("failure is best-effort", func(t *testing.T) {
		runner := &fakeRunner{results: []*command.ExecutionResult{nil, nil, {ExitCode: 7}}}
		setup := newTestSetup(t, runner, cfg)

		result, err := setup.installer.Install(context.Background(), Request{Name: "site"})

		require.NoError(t, err)
		assert.True(t, result.Succeeded)
		assert.Len(t, runner.batches, 4, "git still runs after a failed hook")
		assert.Contains(t, setup.out.String(), "Warning: post-install hooks exited with code 7")
	})

	t.Run("skipped when init fails", func(t *testing.T) {
		runner := &fakeRunner{results: []*command.ExecutionResult{nil, {ExitCode: 1}}}
		setup := newTestSetup(t, runner, cfg)

		_, err := setup.installer.Install(context.Background(), Request{Name: "site"})

		require.NoError(t, err)
		assert.Len(t, runner.batches, 2)
	})
}

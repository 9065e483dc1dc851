package framework

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/satococoa/jigsaw-installer/internal/git"
	"github.com/satococoa/jigsaw-installer/internal/testutil"
)

const (
	dirPerm  = 0755
	filePerm = 0600
	execPerm = 0755
)

// fakeComposer stands in for composer on PATH. It logs its arguments and
// installs a stub jigsaw binary the way `composer require` would.
const fakeComposer = `#!/bin/sh
echo "$*" >> "$FAKE_COMPOSER_LOG"
if [ -n "$FAKE_COMPOSER_EXIT" ]; then
  echo "Could not find package" >&2
  exit "$FAKE_COMPOSER_EXIT"
fi
echo "Installing tightenco/jigsaw"
mkdir -p vendor/bin
cat > vendor/bin/jigsaw <<'STUB'
#!/bin/sh
mkdir -p source
echo "<h1>Hello</h1>" > source/index.blade.php
if [ -n "$2" ]; then
  echo "$2" > source/starter.txt
fi
if [ -n "$FAKE_JIGSAW_EXIT" ]; then
  echo "init failed" >&2
  exit "$FAKE_JIGSAW_EXIT"
fi
echo "Site initialized"
STUB
chmod +x vendor/bin/jigsaw
`

type TestEnvironment struct {
	t            *testing.T
	tmpDir       string
	workDir      string
	binDir       string
	composerLog  string
	jigsawBinary string
}

func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	testutil.RequirePOSIXShell(t)
	testutil.RequireGit(t)
	testutil.IsolateGit(t)

	tmpDir := t.TempDir()
	env := &TestEnvironment{
		t:           t,
		tmpDir:      tmpDir,
		workDir:     filepath.Join(tmpDir, "work"),
		binDir:      filepath.Join(tmpDir, "bin"),
		composerLog: filepath.Join(tmpDir, "composer.log"),
	}

	env.mkdir(env.workDir)
	env.mkdir(env.binDir)
	env.buildJigsaw()
	env.installFakeComposer()

	return env
}

func (e *TestEnvironment) buildJigsaw() {
	e.t.Helper()

	jigsawBinary := filepath.Join(e.binDir, "jigsaw")
	if prebuilt := os.Getenv("JIGSAW_E2E_BINARY"); prebuilt != "" {
		jigsawBinary = prebuilt
		if _, err := os.Stat(jigsawBinary); err != nil {
			e.t.Fatalf("Specified jigsaw binary not found: %s", jigsawBinary)
		}
	} else {
		projectRoot := e.findProjectRoot()
		cmd := exec.Command("go", "build", "-o", jigsawBinary, "./cmd/jigsaw")
		cmd.Dir = projectRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			e.t.Fatalf("Failed to build jigsaw binary: %v\nOutput: %s", err, output)
		}
	}

	jigsawBinary = filepath.Clean(jigsawBinary)
	if !filepath.IsAbs(jigsawBinary) {
		absPath, err := filepath.Abs(jigsawBinary)
		if err != nil {
			e.t.Fatalf("Failed to get absolute path for binary: %v", err)
		}
		jigsawBinary = absPath
	}

	e.jigsawBinary = jigsawBinary
}

func (e *TestEnvironment) installFakeComposer() {
	e.t.Helper()

	path := filepath.Join(e.binDir, "composer")
	if err := os.WriteFile(path, []byte(fakeComposer), execPerm); err != nil {
		e.t.Fatalf("Failed to write fake composer: %v", err)
	}
}

func (e *TestEnvironment) findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		e.t.Fatalf("Failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			e.t.Fatal("Could not find project root (go.mod)")
		}
		dir = parent
	}
}

func (e *TestEnvironment) mkdir(dir string) {
	e.t.Helper()

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		e.t.Fatalf("Failed to create directory %s: %v", dir, err)
	}
}

// environ is the child environment: fake composer first on PATH, and HOME
// and the config directory confined to the test.
func (e *TestEnvironment) environ(extra []string) []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "JIGSAW_") || strings.HasPrefix(kv, "FAKE_") {
			continue
		}
		env = append(env, kv)
	}

	env = append(env,
		"PATH="+e.binDir+string(os.PathListSeparator)+os.Getenv("PATH"),
		"HOME="+e.tmpDir,
		"XDG_CONFIG_HOME="+filepath.Join(e.tmpDir, "config"),
		"FAKE_COMPOSER_LOG="+e.composerLog,
	)
	return append(env, extra...)
}

// RunJigsaw runs the binary in the work directory.
func (e *TestEnvironment) RunJigsaw(args ...string) (string, error) {
	return e.RunJigsawInDir(e.workDir, nil, args...)
}

// RunJigsawWithEnv runs the binary in the work directory with extra
// KEY=VALUE environment entries.
func (e *TestEnvironment) RunJigsawWithEnv(extraEnv []string, args ...string) (string, error) {
	return e.RunJigsawInDir(e.workDir, extraEnv, args...)
}

func (e *TestEnvironment) RunJigsawInDir(dir string, extraEnv []string, args ...string) (string, error) {
	for _, arg := range args {
		if err := validateArg(arg); err != nil {
			return "", fmt.Errorf("invalid argument: %w", err)
		}
	}

	cmd := createSafeCommand(e.jigsawBinary, args...)
	cmd.Dir = dir
	cmd.Env = e.environ(extraEnv)

	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (e *TestEnvironment) WorkDir() string {
	return e.workDir
}

func (e *TestEnvironment) TmpDir() string {
	return e.tmpDir
}

// ComposerCalls returns the argument lists the fake composer received.
func (e *TestEnvironment) ComposerCalls() []string {
	content, err := os.ReadFile(e.composerLog)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		e.t.Fatalf("Failed to read composer log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func (e *TestEnvironment) WriteFile(path, content string) {
	e.t.Helper()

	e.mkdir(filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		e.t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func (e *TestEnvironment) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Site returns the site directory name would be installed into.
func (e *TestEnvironment) Site(name string) *TestSite {
	return &TestSite{env: e, path: filepath.Join(e.workDir, name)}
}

// CreateDir creates a directory below the work directory.
func (e *TestEnvironment) CreateDir(name string) *TestSite {
	site := e.Site(name)
	e.mkdir(site.path)
	return site
}

type TestSite struct {
	env  *TestEnvironment
	path string
}

func (s *TestSite) Path() string {
	return s.path
}

func (s *TestSite) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.IsDir()
}

func (s *TestSite) HasFile(path string) bool {
	_, err := os.Stat(filepath.Join(s.path, path))
	return err == nil
}

func (s *TestSite) WriteFile(path, content string) {
	s.env.WriteFile(filepath.Join(s.path, path), content)
}

func (s *TestSite) ReadFile(path string) string {
	content, err := os.ReadFile(filepath.Join(s.path, path))
	if err != nil {
		s.env.t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func (s *TestSite) IsRepository() bool {
	return git.IsRepository(s.path)
}

// Repository opens the site's git repository, failing the test if there is none.
func (s *TestSite) Repository() *git.Repository {
	s.env.t.Helper()

	repo, err := git.NewRepository(s.path)
	if err != nil {
		s.env.t.Fatalf("Expected a git repository in %s: %v", s.path, err)
	}
	return repo
}

// ExitCode extracts the process exit status from a RunJigsaw error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// validateArg checks if an argument is safe to pass to exec.Command
func validateArg(arg string) error {
	if arg == "" {
		return nil
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\n", "\r"}
	for _, char := range dangerousChars {
		if strings.Contains(arg, char) {
			return fmt.Errorf("argument contains potentially dangerous character: %s", char)
		}
	}

	return nil
}

// createSafeCommand creates an exec.Cmd with a validated binary path
func createSafeCommand(binary string, args ...string) *exec.Cmd {
	return exec.Command(binary, args...)
}

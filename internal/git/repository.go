package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Repository gives read access to a repository created by the installer
type Repository struct {
	path string
}

func NewRepository(path string) (*Repository, error) {
	if !IsRepository(path) {
		return nil, fmt.Errorf("not a git repository: %s", path)
	}
	return &Repository{path: path}, nil
}

// CurrentBranch returns the branch HEAD points at
func (r *Repository) CurrentBranch() (string, error) {
	output, err := r.output("symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return output, nil
}

// CommitCount returns the number of commits reachable from HEAD
func (r *Repository) CommitCount() (int, error) {
	output, err := r.output("rev-list", "--count", "HEAD")
	if err != nil {
		return 0, fmt.Errorf("failed to count commits: %w", err)
	}
	count, err := strconv.Atoi(output)
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output %q: %w", output, err)
	}
	return count, nil
}

// HeadMessage returns the subject of the HEAD commit
func (r *Repository) HeadMessage() (string, error) {
	output, err := r.output("log", "-1", "--format=%s")
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD commit: %w", err)
	}
	return output, nil
}

func (r *Repository) output(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.path
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// IsRepository reports whether path holds its own .git directory
func IsRepository(path string) bool {
	gitDir := filepath.Join(path, ".git")
	if stat, err := os.Stat(gitDir); err == nil {
		return stat.IsDir()
	}
	return false
}

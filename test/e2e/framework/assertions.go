package framework

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertSiteInstalled checks the files the fake composer and jigsaw stubs
// leave behind.
func AssertSiteInstalled(t *testing.T, site *TestSite) {
	t.Helper()
	assert.True(t, site.HasFile("vendor/bin/jigsaw"), "Expected jigsaw to be installed in %s", site.Path())
	assert.True(t, site.HasFile("source/index.blade.php"), "Expected jigsaw init to run in %s", site.Path())
}

// AssertInitialCommit checks for a repository with exactly one commit on branch.
func AssertInitialCommit(t *testing.T, site *TestSite, branch, message string) {
	t.Helper()

	repo := site.Repository()

	count, err := repo.CommitCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Expected exactly one commit")

	current, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, branch, current)

	subject, err := repo.HeadMessage()
	require.NoError(t, err)
	assert.Equal(t, message, subject)
}

func AssertOutputContains(t *testing.T, output, expected string) {
	t.Helper()
	assert.Contains(t, output, expected, "Expected output containing '%s', got: %s", expected, output)
}

func AssertOutputNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	assert.NotContains(t, output, unexpected, "Expected output without '%s', got: %s", unexpected, output)
}

func AssertHelpfulError(t *testing.T, output string) {
	t.Helper()

	helpfulElements := []string{
		"Solutions:",
		"Solution:",
		"Cause:",
		"Tip:",
		"•",
		"Examples:",
		"Usage:",
	}

	found := false
	for _, element := range helpfulElements {
		if strings.Contains(output, element) {
			found = true
			break
		}
	}

	if !found {
		t.Errorf("Error message does not appear to be helpful. Got: %s", output)
	}
}

func AssertMultipleStringsInOutput(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, exp := range expected {
		assert.Contains(t, output, exp, "Expected output to contain '%s', got: %s", exp, output)
	}
}

func AssertExitCode(t *testing.T, err error, expected int) {
	t.Helper()
	assert.Equal(t, expected, ExitCode(err), "Unexpected exit status (error: %v)", err)
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	assert.NoError(t, err)
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	assert.Error(t, err)
}

package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/felixgeelhaar/okd4prov/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertFileContains asserts that a local file contains the expected substring.
func AssertFileContains(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	assert.Contains(t, string(content), expected, msgAndArgs...)
}

// AssertRan asserts that the shell ran every command, in order, possibly
// interleaved with other commands.
func AssertRan(t testing.TB, sh *mocks.Shell, commands ...string) {
	t.Helper()

	ran := sh.Commands()
	next := 0
	for _, c := range ran {
		if next < len(commands) && c == commands[next] {
			next++
		}
	}
	if next < len(commands) {
		assert.Fail(t, "command not run",
			"expected %q (in order) but ran:\n  %s", commands[next], strings.Join(ran, "\n  "))
	}
}

// AssertNotRan asserts that the shell never ran command.
func AssertNotRan(t testing.TB, sh *mocks.Shell, command string) {
	t.Helper()

	assert.False(t, sh.Called(command), "unexpected command %q", command)
}

// AssertNoChanges asserts that every command the shell ran is a read-only
// query: nothing prefixed with sudo and no upload.
func AssertNoChanges(t testing.TB, sh *mocks.Shell) {
	t.Helper()

	for _, c := range sh.Calls() {
		assert.False(t, strings.HasPrefix(c.Command, "sudo "), "unexpected privileged command %q", c.Command)
		assert.Empty(t, c.Stdin, "unexpected upload by %q", c.Command)
	}
}

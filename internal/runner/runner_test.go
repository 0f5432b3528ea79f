package runner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestRun_StreamsBothStreams(t *testing.T) {
	skipOnWindows(t)
	var lines []string
	out, err := Run(context.Background(), t.TempDir(), "echo one; echo two 1>&2", func(l string) {
		lines = append(lines, l)
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, lines)
	assert.Contains(t, string(out), "one\n")
	assert.Contains(t, string(out), "two\n")
}

func TestRun_UsesRootAsWorkingDir(t *testing.T) {
	skipOnWindows(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "marker.txt"), []byte("here"), 0644))

	out, err := Run(context.Background(), root, "cat marker.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "here\n", string(out))
}

func TestRun_FailureKeepsOutput(t *testing.T) {
	skipOnWindows(t)
	out, err := Run(context.Background(), t.TempDir(), "echo broken; exit 3", nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(string(out), "broken"))
}

func TestRun_EmptyCommand(t *testing.T) {
	_, err := Run(context.Background(), t.TempDir(), "", nil)
	assert.ErrorIs(t, err, ErrNoCommand)
}

package helpers

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSCommandRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX utilities")
	}

	runner := NewOSCommandRunner()

	t.Run("CommandExists", func(t *testing.T) {
		assert.True(t, runner.CommandExists("echo"))
		assert.False(t, runner.CommandExists("nonexistentcommand123"))
	})

	t.Run("LookPath caches result", func(t *testing.T) {
		first, err := runner.LookPath("echo")
		require.NoError(t, err)
		second, err := runner.LookPath("echo")
		require.NoError(t, err)
		assert.Equal(t, first, second)

		_, err = runner.LookPath("nonexistentcommand123")
		assert.Error(t, err)
	})

	t.Run("RunCommandWithOutput", func(t *testing.T) {
		ctx := context.Background()
		stdout, stderr, err := runner.RunCommandWithOutput(ctx, "echo", "hello")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "hello")
		assert.Empty(t, stderr)
	})

	t.Run("RunCommandWithOutput captures stderr", func(t *testing.T) {
		ctx := context.Background()
		_, stderr, err := runner.RunCommandWithOutput(ctx, "sh", "-c", "echo 'openjdk version \"17.0.2\"' 1>&2")
		assert.NoError(t, err)
		assert.Contains(t, stderr, "17.0.2")
	})

	t.Run("timeout exceeded", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, _, err := runner.RunCommandWithOutput(ctx, "sleep", "5")
		assert.Error(t, err)
	})

	t.Run("GetExitCode", func(t *testing.T) {
		ctx := context.Background()
		_, _, err := runner.RunCommandWithOutput(ctx, "false")
		assert.Error(t, err)
		assert.NotEqual(t, 0, runner.GetExitCode(err))
		assert.Equal(t, 0, runner.GetExitCode(nil))
		assert.Equal(t, -1, runner.GetExitCode(errors.New("plain")))
	})
}

func TestCommandRunnerInterface(_ *testing.T) {
	var _ CommandRunner = &OSCommandRunner{}
	var _ CommandRunner = &MockCommandRunner{}
}

func TestMockCommandRunnerDefaults(t *testing.T) {
	mock := &MockCommandRunner{}

	assert.False(t, mock.CommandExists("java"))
	_, err := mock.LookPath("java")
	assert.Error(t, err)

	stdout, stderr, err := mock.RunCommandWithOutput(context.Background(), "java", "-version")
	assert.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
	assert.Equal(t, 0, mock.GetExitCode(errors.New("x")))
}

func TestMockCommandRunnerFuncs(t *testing.T) {
	var gotArgs []string
	mock := &MockCommandRunner{
		LookPathFunc: func(name string) (string, error) { return "/usr/bin/" + name, nil },
		RunCommandWithOutputFunc: func(_ context.Context, name string, args ...string) (string, string, error) {
			gotArgs = append([]string{name}, args...)
			return "", "openjdk version \"11.0.2\"", nil
		},
	}

	path, err := mock.LookPath("java")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/java", path)

	_, stderr, err := mock.RunCommandWithOutput(context.Background(), "/opt/jdk/bin/java", "-version")
	require.NoError(t, err)
	assert.Contains(t, stderr, "11.0.2")
	assert.Equal(t, []string{"/opt/jdk/bin/java", "-version"}, gotArgs)
}

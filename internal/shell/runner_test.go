package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
)

// requireSh skips the test when no POSIX shell is available (e.g., Windows CI).
func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommand_String(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected string
	}{
		{"plain", Command{Name: "python3", Args: []string{"-m", "venv", ".venv"}}, "python3 -m venv .venv"},
		{"spaces quoted", Command{Name: "/opt/my python/bin/python", Args: []string{"-V"}}, "'/opt/my python/bin/python' -V"},
		{"script quoted", Command{Name: "python3", Args: []string{"-c", "print('hi')"}}, `python3 -c 'print('\''hi'\'')'`},
		{"empty arg", Command{Name: "echo", Args: []string{""}}, "echo ''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cmd.String())
		})
	}
}

func TestExecRunner_CapturesStdout(t *testing.T) {
	requireSh(t)
	r := NewExecRunner(nil, nil, nil)

	out, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo 3.11"}})
	require.NoError(t, err)
	assert.Equal(t, "3.11\n", out)
}

func TestExecRunner_StreamsOutput(t *testing.T) {
	requireSh(t)
	var stdout, stderr bytes.Buffer
	r := NewExecRunner(&stdout, &stderr, nil)

	out, err := r.Run(context.Background(), Command{
		Name:   "sh",
		Args:   []string{"-c", "echo installing; echo warn 1>&2"},
		Stream: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "installing\n", out, "streamed stdout is still returned")
	assert.Equal(t, "installing\n", stdout.String())
	assert.Equal(t, "warn\n", stderr.String())
}

func TestExecRunner_EnvAndDir(t *testing.T) {
	requireSh(t)
	dir := t.TempDir()
	r := NewExecRunner(nil, nil, nil)

	out, err := r.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo $VIRTUAL_ENV; pwd"},
		Dir:  dir,
		Env:  []string{"VIRTUAL_ENV=/tmp/venv"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "/tmp/venv\n")
}

// TestExecRunner_FailureIncludesStderr verifies that a non-zero exit becomes
// a command-failed CLIError carrying the command's stderr.
func TestExecRunner_FailureIncludesStderr(t *testing.T) {
	requireSh(t)
	r := NewExecRunner(nil, nil, nil)

	_, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo boom 1>&2; exit 3"}})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.KindCommandFailed, cliErr.Kind)
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "boom")
}

func TestExecRunner_MissingExecutable(t *testing.T) {
	r := NewExecRunner(nil, nil, nil)

	_, err := r.Run(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "executable not found")
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "", lastLines("", 3))
	assert.Equal(t, "a\nb", lastLines("a\nb", 3))
	assert.Equal(t, "c\nd", lastLines("a\nb\nc\nd", 2))
}

// stubRunner counts calls so Recorder behavior can be checked without
// starting processes.
type stubRunner struct {
	ran []string
}

func (s *stubRunner) Run(_ context.Context, c Command) (string, error) {
	s.ran = append(s.ran, c.String())
	return "ok", nil
}

func (s *stubRunner) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

func TestRecorder_DryRunSkipsMutatingCommands(t *testing.T) {
	inner := &stubRunner{}
	rec := NewRecorder(inner, true)
	ctx := context.Background()

	out, err := rec.Run(ctx, Command{Name: "python3", Args: []string{"-V"}, ReadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "ok", out, "read-only commands run even in dry-run mode")

	out, err = rec.Run(ctx, Command{Name: "python3", Args: []string{"-m", "venv", ".venv"}})
	require.NoError(t, err)
	assert.Empty(t, out)

	assert.Equal(t, []string{"python3 -V"}, inner.ran)
	require.Len(t, rec.Commands(), 1)
	assert.Equal(t, "python3 -m venv .venv", rec.Commands()[0].String())
	assert.True(t, rec.DryRun())
}

func TestRecorder_RecordsExecutedCommands(t *testing.T) {
	inner := &stubRunner{}
	rec := NewRecorder(inner, false)

	_, err := rec.Run(context.Background(), Command{Name: "pip", Args: []string{"install", "rich"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"pip install rich"}, inner.ran)
	assert.Len(t, rec.Commands(), 1)

	path, err := rec.LookPath("uv")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/uv", path)
}

package interpreter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
	"github.com/shinji-kodama/venv-bootstrap/internal/shell"
	"github.com/shinji-kodama/venv-bootstrap/internal/shell/shelltest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// versionCmd is the command line the gate runs for an interpreter path.
func versionCmd(path string) string {
	return shell.Command{Name: path, Args: []string{"-c", versionScript}}.String()
}

func TestResolve_FirstCandidateWins(t *testing.T) {
	fake := shelltest.New().
		OnPath("python3", "/usr/bin/python3").
		OnPath("python", "/usr/bin/python")

	interp, err := NewResolver(fake, []string{"python3", "python"}, discardLogger()).Resolve()
	require.NoError(t, err)
	assert.Equal(t, model.Interpreter{Name: "python3", Path: "/usr/bin/python3"}, interp)
	assert.Equal(t, []string{"python3"}, fake.Lookups(), "lookup stops at the first match")
}

func TestResolve_FallsBackToAlias(t *testing.T) {
	fake := shelltest.New().OnPath("python", "/usr/local/bin/python")

	interp, err := NewResolver(fake, []string{"python3", "python"}, discardLogger()).Resolve()
	require.NoError(t, err)
	assert.Equal(t, "python", interp.Name)
	assert.Equal(t, []string{"python3", "python"}, fake.Lookups())
}

func TestResolve_NoneFound(t *testing.T) {
	fake := shelltest.New()

	_, err := NewResolver(fake, []string{"python3", "python"}, discardLogger()).Resolve()
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.KindInterpreterNotFound, cliErr.Kind)
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "python3, python")
	assert.Empty(t, fake.Calls(), "nothing is executed when no interpreter exists")
}

// TestGate covers the version threshold, including the two-digit minor
// versions that plain string ordering gets wrong.
func TestGate(t *testing.T) {
	interp := model.Interpreter{Name: "python3", Path: "/usr/bin/python3"}
	min := model.MustParseVersion("3.10")

	tests := []struct {
		reported string
		wantErr  bool
	}{
		{"3.9\n", true},
		{"3.8\n", true},
		{"2.7\n", true},
		{"3.10\n", false},
		{"3.11\n", false},
		{"3.13\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.reported, func(t *testing.T) {
			fake := shelltest.New().Respond(versionCmd(interp.Path), tt.reported)

			v, err := Gate(context.Background(), fake, interp, min)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, model.MustParseVersion(tt.reported), v)
				return
			}

			require.Error(t, err)
			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr))
			assert.Equal(t, model.KindVersionTooLow, cliErr.Kind)
			// Both the required and the detected version are shown.
			assert.Contains(t, cliErr.Message, "3.10")
			assert.Contains(t, cliErr.Message, v.String())
		})
	}
}

func TestQueryVersion_IsReadOnly(t *testing.T) {
	interp := model.Interpreter{Name: "python3", Path: "/usr/bin/python3"}
	fake := shelltest.New().Respond(versionCmd(interp.Path), "3.12\n")

	_, err := QueryVersion(context.Background(), fake, interp)
	require.NoError(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].ReadOnly, "version queries must still run in dry-run mode")
}

func TestQueryVersion_Unparsable(t *testing.T) {
	interp := model.Interpreter{Name: "python", Path: "/usr/bin/python"}
	fake := shelltest.New().Respond(versionCmd(interp.Path), "garbage")

	_, err := QueryVersion(context.Background(), fake, interp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not determine version")
}

func TestQueryVersion_CommandFails(t *testing.T) {
	interp := model.Interpreter{Name: "python", Path: "/usr/bin/python"}
	fake := shelltest.New().Fail(versionCmd(interp.Path), "segfault")

	_, err := QueryVersion(context.Background(), fake, interp)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.KindCommandFailed, cliErr.Kind)
}

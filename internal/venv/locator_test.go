package venv

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
	"github.com/shinji-kodama/venv-bootstrap/internal/shell/shelltest"
)

var testInterp = model.Interpreter{Name: "python3", Path: "/usr/bin/python3"}

func newTestLocator(fake *shelltest.Fake) *Locator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLocator(fake, []string{".venv", "venv"}, ".venv", logger)
}

func TestLocate_PriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		expected string
		found    bool
	}{
		{"none", nil, "", false},
		{"dot venv only", []string{".venv"}, ".venv", true},
		{"plain venv only", []string{"venv"}, "venv", true},
		{"both prefer dot venv", []string{"venv", ".venv"}, ".venv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := t.TempDir()
			for _, d := range tt.existing {
				require.NoError(t, os.Mkdir(filepath.Join(project, d), 0755))
			}

			name, found, err := newTestLocator(shelltest.New()).Locate(project)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, name)
		})
	}
}

// TestLocate_SkipsRegularFile ensures a file that happens to be named like an
// environment is not mistaken for one.
func TestLocate_SkipsRegularFile(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ".venv"), []byte("not a dir"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(project, "venv"), 0755))

	name, found, err := newTestLocator(shelltest.New()).Locate(project)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "venv", name)
}

func TestEnsure_ReusesExisting(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(project, "venv"), 0755))
	fake := shelltest.New()

	env, err := newTestLocator(fake).Ensure(context.Background(), project, testInterp)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(project, "venv"), env.Dir)
	assert.Equal(t, "venv", env.Name)
	assert.False(t, env.Created)
	assert.Empty(t, fake.Calls(), "no environment is created when one already exists")
}

func TestEnsure_CreatesDefault(t *testing.T) {
	project := t.TempDir()
	fake := shelltest.New()

	env, err := newTestLocator(fake).Ensure(context.Background(), project, testInterp)
	require.NoError(t, err)

	target := filepath.Join(project, ".venv")
	assert.Equal(t, target, env.Dir)
	assert.Equal(t, ".venv", env.Name)
	assert.True(t, env.Created)

	calls := fake.Calls()
	require.Len(t, calls, 1, "exactly one environment is created")
	assert.Equal(t, "/usr/bin/python3", calls[0].Name)
	assert.Equal(t, []string{"-m", "venv", target}, calls[0].Args)
	assert.Equal(t, project, calls[0].Dir)
	assert.False(t, calls[0].ReadOnly)
}

func TestEnsure_CreationFailure(t *testing.T) {
	project := t.TempDir()
	target := filepath.Join(project, ".venv")
	fake := shelltest.New().Fail("/usr/bin/python3 -m venv "+target, "ensurepip is not available")

	_, err := newTestLocator(fake).Ensure(context.Background(), project, testInterp)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.KindCommandFailed, cliErr.Kind)
	assert.Contains(t, err.Error(), "ensurepip is not available")
}

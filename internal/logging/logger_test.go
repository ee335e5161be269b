package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleLevels(t *testing.T) {
	var quiet, loud bytes.Buffer

	l, closeFn, err := New(Options{Console: &quiet})
	require.NoError(t, err)
	l.Debug("hidden detail")
	l.Info("visible step")
	require.NoError(t, closeFn())

	assert.NotContains(t, quiet.String(), "hidden detail")
	assert.Contains(t, quiet.String(), "visible step")
	assert.NotContains(t, quiet.String(), "time=", "console lines carry no timestamp")

	l, closeFn, err = New(Options{Console: &loud, Verbose: true})
	require.NoError(t, err)
	l.Debug("hidden detail")
	require.NoError(t, closeFn())
	assert.Contains(t, loud.String(), "hidden detail")
}

// TestNew_FileReceivesDebug verifies the file handler logs at debug level
// regardless of --verbose and that the file is truncated per run.
func TestNew_FileReceivesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bootstrap.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	var console bytes.Buffer
	l, closeFn, err := New(Options{Console: &console, File: path})
	require.NoError(t, err)
	l.Debug("resolved interpreter", "path", "/usr/bin/python3")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "resolved interpreter")
	assert.Contains(t, string(data), "time=")
	assert.NotContains(t, string(data), "previous run")
	assert.Empty(t, console.String())
}

func TestNew_CreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "app.log")

	l, closeFn, err := New(Options{File: path})
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, closeFn())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}

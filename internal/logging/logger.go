// Package logging builds the slog logger used across venv-bootstrap.
//
// Output fans out to two handlers via samber/slog-multi:
//   - a text handler on the console (stderr), at info level, or debug
//     with --verbose,
//   - an optional text handler on a log file that always records debug
//     output. The file is truncated at the start of every run.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// Options configures New.
type Options struct {
	// Console receives human-facing log lines. Nil means io.Discard.
	Console io.Writer

	// Verbose lowers the console level to debug.
	Verbose bool

	// File, when non-empty, is created (or truncated) and receives every
	// record at debug level.
	File string
}

// New returns the logger and a close function that flushes and closes the
// log file, if one was opened. The close function is never nil.
func New(opts Options) (*slog.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = io.Discard
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: dropTime,
		}),
	}

	closeFn := func() error { return nil }
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
		closeFn = f.Close
	}

	return slog.New(slogmulti.Fanout(handlers...)), closeFn, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dropTime removes the timestamp from console lines; the file keeps it.
func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

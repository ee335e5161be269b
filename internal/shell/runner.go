package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
)

// Command describes one subprocess invocation.
type Command struct {
	// Name is the executable, either a bare name resolved via PATH or an
	// absolute path (e.g., the environment's own python).
	Name string

	// Args are passed to the executable verbatim; no shell is involved.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=VALUE pairs appended to the parent environment.
	// Later entries win, so these override inherited values.
	Env []string

	// Stream sends the command's output to the runner's writers while it
	// runs. Long-running installers use this so progress is visible.
	Stream bool

	// ReadOnly marks commands that only inspect state (e.g., a version
	// query). Dry runs still execute read-only commands.
	ReadOnly bool
}

// String renders the command the way a user would type it.
// Arguments containing whitespace or quotes are single-quoted.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"$`\\;&|<>()*?") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Runner executes commands and looks up executables.
// The pipeline depends on this interface, never on os/exec directly.
type Runner interface {
	// Run executes cmd and returns its captured stdout. A non-zero exit
	// is returned as a *model.CLIError of kind KindCommandFailed.
	Run(ctx context.Context, cmd Command) (string, error)

	// LookPath resolves an executable name against PATH.
	LookPath(name string) (string, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	// Stdout and Stderr receive output of streamed commands.
	Stdout io.Writer
	Stderr io.Writer

	logger *slog.Logger
}

// NewExecRunner creates an ExecRunner. Nil writers discard streamed output;
// a nil logger disables command tracing.
func NewExecRunner(stdout, stderr io.Writer, logger *slog.Logger) *ExecRunner {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ExecRunner{Stdout: stdout, Stderr: stderr, logger: logger}
}

// LookPath implements Runner using exec.LookPath.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run implements Runner.
//
// Stdout is always captured and returned. Stderr is always captured so it
// can be attached to the error; for streamed commands both streams are
// also copied to the runner's writers as they arrive.
func (r *ExecRunner) Run(ctx context.Context, c Command) (string, error) {
	r.logger.Debug("running command", "cmd", c.String(), "dir", c.Dir)

	// #nosec G204 -- commands are assembled internally from config values
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	if c.Stream {
		cmd.Stdout = io.MultiWriter(&stdout, r.Stdout)
		cmd.Stderr = io.MultiWriter(&stderr, r.Stderr)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		return "", commandError(c, stderr.String(), err)
	}
	return stdout.String(), nil
}

// commandError builds the CLIError for a failed command, including the
// tail of its stderr for diagnostics.
func commandError(c Command, stderr string, err error) error {
	message := fmt.Sprintf("%s failed", c.String())
	if tail := lastLines(strings.TrimSpace(stderr), 5); tail != "" {
		message = fmt.Sprintf("%s: %s", message, tail)
	}
	var notFound *exec.Error
	if errors.As(err, &notFound) {
		message = fmt.Sprintf("%s: executable not found", c.String())
	}
	return model.WrapCLIError(model.KindCommandFailed, message, err)
}

func lastLines(s string, n int) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Recorder wraps a Runner and keeps the list of mutating commands.
//
// In dry-run mode mutating commands are recorded but not executed and
// return empty output; read-only commands still run so the pipeline can
// make the same decisions it would make for real.
type Recorder struct {
	inner  Runner
	dryRun bool

	mu       sync.Mutex
	commands []Command
}

// NewRecorder wraps inner.
func NewRecorder(inner Runner, dryRun bool) *Recorder {
	return &Recorder{inner: inner, dryRun: dryRun}
}

// LookPath delegates to the wrapped runner.
func (r *Recorder) LookPath(name string) (string, error) {
	return r.inner.LookPath(name)
}

// Run implements Runner.
func (r *Recorder) Run(ctx context.Context, c Command) (string, error) {
	if c.ReadOnly {
		return r.inner.Run(ctx, c)
	}

	r.mu.Lock()
	r.commands = append(r.commands, c)
	r.mu.Unlock()

	if r.dryRun {
		return "", nil
	}
	return r.inner.Run(ctx, c)
}

// DryRun reports whether mutating commands are suppressed.
func (r *Recorder) DryRun() bool {
	return r.dryRun
}

// Commands returns the recorded mutating commands in execution order.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

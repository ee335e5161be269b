// Package shelltest provides an in-memory shell.Runner for tests.
package shelltest

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
	"github.com/shinji-kodama/venv-bootstrap/internal/shell"
)

// Response is the scripted outcome of a command.
type Response struct {
	Stdout string
	Err    error
}

// Fake records every command it is asked to run and answers from scripted
// responses. Unscripted commands succeed with empty output.
type Fake struct {
	mu sync.Mutex

	// Paths maps executable names to the path LookPath returns.
	// Names absent from the map are reported as not found.
	Paths map[string]string

	// Responses is keyed by Command.String().
	Responses map[string]Response

	// Hook, when set, is called after recording and before Responses is
	// consulted. Returning nil falls through to Responses.
	Hook func(cmd shell.Command) *Response

	calls   []shell.Command
	lookups []string
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		Paths:     map[string]string{},
		Responses: map[string]Response{},
	}
}

// OnPath registers an executable on the fake PATH.
func (f *Fake) OnPath(name, path string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Paths[name] = path
	return f
}

// Respond scripts the output of a command line.
func (f *Fake) Respond(cmdline, stdout string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[cmdline] = Response{Stdout: stdout}
	return f
}

// Fail scripts a command line to exit non-zero with the given stderr.
func (f *Fake) Fail(cmdline, stderr string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[cmdline] = Response{
		Err: model.WrapCLIError(model.KindCommandFailed,
			fmt.Sprintf("%s failed: %s", cmdline, stderr), fmt.Errorf("exit status 1")),
	}
	return f
}

// LookPath implements shell.Runner.
func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, name)
	if p, ok := f.Paths[name]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Run implements shell.Runner.
func (f *Fake) Run(_ context.Context, cmd shell.Command) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	hook := f.Hook
	f.mu.Unlock()

	if hook != nil {
		if resp := hook(cmd); resp != nil {
			return resp.Stdout, resp.Err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if resp, ok := f.Responses[cmd.String()]; ok {
		return resp.Stdout, resp.Err
	}
	return "", nil
}

// Calls returns every command run so far.
func (f *Fake) Calls() []shell.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]shell.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// CommandLines returns Calls rendered with Command.String.
func (f *Fake) CommandLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// Ran reports whether any recorded command line contains substr.
func (f *Fake) Ran(substr string) bool {
	for _, line := range f.CommandLines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// Lookups returns the names passed to LookPath, in order.
func (f *Fake) Lookups() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lookups))
	copy(out, f.lookups)
	return out
}

// Package interpreter finds a Python interpreter on PATH and checks its
// version against the configured minimum.
//
// Both steps are fatal gates: when no candidate is found, or the version is
// too old, the pipeline stops before touching the filesystem.
package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
	"github.com/shinji-kodama/venv-bootstrap/internal/shell"
)

// versionScript prints "major.minor" on every CPython 2.x/3.x release,
// so even an interpreter that is far too old reports a parsable version.
const versionScript = "import sys; print('%d.%d' % sys.version_info[:2])"

// Resolver locates an interpreter among an ordered candidate list.
type Resolver struct {
	runner     shell.Runner
	candidates []string
	logger     *slog.Logger
}

// NewResolver creates a Resolver trying candidates in order.
func NewResolver(runner shell.Runner, candidates []string, logger *slog.Logger) *Resolver {
	return &Resolver{runner: runner, candidates: candidates, logger: logger}
}

// Resolve returns the first candidate found on PATH.
// If none is found it returns a CLIError of kind KindInterpreterNotFound.
func (r *Resolver) Resolve() (model.Interpreter, error) {
	for _, name := range r.candidates {
		path, err := r.runner.LookPath(name)
		if err != nil {
			r.logger.Debug("interpreter candidate not found", "name", name)
			continue
		}
		r.logger.Debug("interpreter resolved", "name", name, "path", path)
		return model.Interpreter{Name: name, Path: path}, nil
	}

	return model.Interpreter{}, model.NewCLIError(
		model.KindInterpreterNotFound,
		fmt.Sprintf("no Python interpreter found on PATH (tried: %s); install Python and try again",
			strings.Join(r.candidates, ", ")),
	)
}

// QueryVersion asks the interpreter for its own major.minor version.
func QueryVersion(ctx context.Context, runner shell.Runner, interp model.Interpreter) (model.Version, error) {
	out, err := runner.Run(ctx, shell.Command{
		Name:     interp.Path,
		Args:     []string{"-c", versionScript},
		ReadOnly: true,
	})
	if err != nil {
		return model.Version{}, err
	}

	v, err := model.ParseVersion(out)
	if err != nil {
		return model.Version{}, model.WrapCLIError(
			model.KindCommandFailed,
			fmt.Sprintf("could not determine version of %s", interp.Path),
			err,
		)
	}
	return v, nil
}

// Gate queries the interpreter's version and rejects it when it sorts
// below minimum. The comparison is version-aware, so 3.9 < 3.10.
func Gate(ctx context.Context, runner shell.Runner, interp model.Interpreter, minimum model.Version) (model.Version, error) {
	v, err := QueryVersion(ctx, runner, interp)
	if err != nil {
		return model.Version{}, err
	}

	if !v.AtLeast(minimum) {
		return v, model.NewCLIError(
			model.KindVersionTooLow,
			fmt.Sprintf("Python %s or newer is required, but %s reports %s", minimum, interp.Name, v),
		)
	}
	return v, nil
}

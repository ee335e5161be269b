package venv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
	"github.com/shinji-kodama/venv-bootstrap/internal/shell"
)

// Locator finds or creates the environment directory for a project.
type Locator struct {
	runner     shell.Runner
	candidates []string
	defaultDir string
	logger     *slog.Logger
}

// NewLocator creates a Locator that checks candidates in order and
// creates defaultDir when none exists.
func NewLocator(runner shell.Runner, candidates []string, defaultDir string, logger *slog.Logger) *Locator {
	return &Locator{
		runner:     runner,
		candidates: candidates,
		defaultDir: defaultDir,
		logger:     logger,
	}
}

// Locate returns the name of the first candidate that exists as a
// directory under projectDir. The boolean is false when none exists.
//
// A candidate that exists but is not a directory is skipped with a warning;
// python -m venv would fail on it anyway.
func (l *Locator) Locate(projectDir string) (string, bool, error) {
	for _, name := range l.candidates {
		path := filepath.Join(projectDir, name)

		// Stat follows symlinks, so a symlinked .venv counts.
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", false, model.WrapCLIError(model.KindFilesystem,
				fmt.Sprintf("failed to inspect %s", path), err)
		}
		if !info.IsDir() {
			l.logger.Warn("environment candidate is not a directory, skipping", "path", path)
			continue
		}
		return name, true, nil
	}
	return "", false, nil
}

// Ensure reuses an existing environment or creates the default one with
// `<interpreter> -m venv <dir>`. The returned Environment has only Dir,
// Name and Created set; Activation fills in the layout-specific paths.
func (l *Locator) Ensure(ctx context.Context, projectDir string, interp model.Interpreter) (model.Environment, error) {
	name, found, err := l.Locate(projectDir)
	if err != nil {
		return model.Environment{}, err
	}

	if found {
		dir := filepath.Join(projectDir, name)
		l.logger.Info("reusing existing virtual environment", "dir", dir)
		return model.Environment{Dir: dir, Name: name}, nil
	}

	dir := filepath.Join(projectDir, l.defaultDir)
	l.logger.Info("creating virtual environment", "dir", dir, "interpreter", interp.Path)

	_, err = l.runner.Run(ctx, shell.Command{
		Name:   interp.Path,
		Args:   []string{"-m", "venv", dir},
		Dir:    projectDir,
		Stream: true,
	})
	if err != nil {
		return model.Environment{}, model.WrapCLIError(model.KindCommandFailed,
			fmt.Sprintf("failed to create virtual environment at %s", dir), err)
	}

	return model.Environment{Dir: dir, Name: l.defaultDir, Created: true}, nil
}

// Package deps decides how a project's dependencies get installed and runs
// the installer inside the virtual environment.
//
// The decision only looks at which manifests exist:
//  1. primary manifest (requirements.txt) → pip install -r
//  2. secondary manifest (pyproject.toml) → ensure uv, then uv sync
//  3. neither → warn and install the fallback package set
//
// Every tool is invoked through the environment's own interpreter, or with
// VIRTUAL_ENV pointing at it, so no shell activation is needed.
package deps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
	"github.com/shinji-kodama/venv-bootstrap/internal/shell"
	"github.com/shinji-kodama/venv-bootstrap/internal/venv"
)

// uvProjectEnv tells uv which environment `uv sync` should populate.
const uvProjectEnv = "UV_PROJECT_ENVIRONMENT"

// Options configures an Installer.
type Options struct {
	PrimaryManifest   string
	SecondaryManifest string
	SyncTool          string
	FallbackPackages  []string
	UpgradePip        bool

	// PythonVersion is the gated interpreter version. When set, a
	// pyproject requires-python bound above it produces a warning.
	PythonVersion model.Version
}

// Installer plans and executes the dependency install.
type Installer struct {
	runner shell.Runner
	opts   Options
	logger *slog.Logger

	// pathEnv is the PATH that child processes extend. Tests override it.
	pathEnv string
}

// NewInstaller creates an Installer.
func NewInstaller(runner shell.Runner, opts Options, logger *slog.Logger) *Installer {
	return &Installer{
		runner:  runner,
		opts:    opts,
		logger:  logger,
		pathEnv: os.Getenv("PATH"),
	}
}

// Plan picks the install strategy for projectDir.
//
// When the primary manifest exists the secondary one is not consulted at
// all. When only the secondary manifest exists it is parsed up front so a
// broken file fails the run before the sync tool is installed or invoked.
func (i *Installer) Plan(projectDir string) (model.InstallPlan, error) {
	plan := model.InstallPlan{UpgradePip: i.opts.UpgradePip}

	primary := filepath.Join(projectDir, i.opts.PrimaryManifest)
	ok, err := isFile(primary)
	if err != nil {
		return model.InstallPlan{}, err
	}
	if ok {
		plan.Strategy = model.StrategyPrimary
		plan.Manifest = primary
		return plan, nil
	}

	secondary := filepath.Join(projectDir, i.opts.SecondaryManifest)
	ok, err = isFile(secondary)
	if err != nil {
		return model.InstallPlan{}, err
	}
	if ok {
		project, err := LoadPyProject(secondary)
		if err != nil {
			return model.InstallPlan{}, model.WrapCLIError(model.KindConfigInvalid,
				fmt.Sprintf("cannot sync from %s", i.opts.SecondaryManifest), err)
		}
		i.logger.Info("found project manifest",
			"name", project.Project.Name,
			"dependencies", project.DependencyCount(),
		)
		if minimum, ok := project.MinimumPython(); ok && !i.opts.PythonVersion.IsZero() && i.opts.PythonVersion.Less(minimum) {
			i.logger.Warn("interpreter is older than the project's requires-python",
				"requires", project.Project.RequiresPython,
				"detected", i.opts.PythonVersion.String(),
			)
		}

		plan.Strategy = model.StrategySecondary
		plan.Manifest = secondary
		plan.SyncTool = i.opts.SyncTool
		return plan, nil
	}

	plan.Strategy = model.StrategyFallback
	plan.Packages = append([]string{}, i.opts.FallbackPackages...)
	return plan, nil
}

// Install executes plan inside env. Any installer failure is returned as a
// KindCommandFailed error; nothing is retried.
func (i *Installer) Install(ctx context.Context, projectDir string, plan model.InstallPlan, env model.Environment) error {
	if plan.UpgradePip {
		i.logger.Info("upgrading pip")
		if err := i.pip(ctx, projectDir, env, "install", "--upgrade", "pip"); err != nil {
			return model.WrapCLIError(model.KindCommandFailed, "failed to upgrade pip", err)
		}
	}

	switch plan.Strategy {
	case model.StrategyPrimary:
		i.logger.Info("installing dependencies", "manifest", plan.Manifest)
		if err := i.pip(ctx, projectDir, env, "install", "-r", plan.Manifest); err != nil {
			return model.WrapCLIError(model.KindCommandFailed,
				fmt.Sprintf("failed to install dependencies from %s", filepath.Base(plan.Manifest)), err)
		}

	case model.StrategySecondary:
		tool, err := i.ensureSyncTool(ctx, projectDir, env, plan.SyncTool)
		if err != nil {
			return err
		}
		i.logger.Info("syncing dependencies", "tool", plan.SyncTool, "manifest", plan.Manifest)
		_, err = i.runner.Run(ctx, shell.Command{
			Name:   tool,
			Args:   []string{"sync"},
			Dir:    projectDir,
			Env:    append(venv.ChildEnv(env, i.pathEnv), uvProjectEnv+"="+env.Dir),
			Stream: true,
		})
		if err != nil {
			return model.WrapCLIError(model.KindCommandFailed,
				fmt.Sprintf("%s sync failed", plan.SyncTool), err)
		}

	case model.StrategyFallback:
		if len(plan.Packages) == 0 {
			i.logger.Warn("no dependency manifest found; nothing to install",
				"primary", i.opts.PrimaryManifest, "secondary", i.opts.SecondaryManifest)
			return nil
		}
		i.logger.Warn("no dependency manifest found; installing fallback packages",
			"packages", plan.Packages)
		args := append([]string{"install"}, plan.Packages...)
		if err := i.pip(ctx, projectDir, env, args...); err != nil {
			return model.WrapCLIError(model.KindCommandFailed, "failed to install fallback packages", err)
		}

	default:
		return model.NewCLIError(model.KindGeneral, fmt.Sprintf("unknown install strategy %q", plan.Strategy))
	}

	return nil
}

// ensureSyncTool returns the path of the sync tool, installing it into env
// with pip when it is neither in the environment nor on PATH.
func (i *Installer) ensureSyncTool(ctx context.Context, projectDir string, env model.Environment, tool string) (string, error) {
	inEnv := venv.Executable(env, tool)
	if ok, _ := isFile(inEnv); ok {
		i.logger.Debug("sync tool found in environment", "path", inEnv)
		return inEnv, nil
	}

	if path, err := i.runner.LookPath(tool); err == nil {
		i.logger.Debug("sync tool found on PATH", "path", path)
		return path, nil
	}

	i.logger.Info("sync tool not found; installing it", "tool", tool)
	if err := i.pip(ctx, projectDir, env, "install", tool); err != nil {
		return "", model.WrapCLIError(model.KindCommandFailed,
			fmt.Sprintf("failed to install %s", tool), err)
	}
	return inEnv, nil
}

// pip runs `<env python> -m pip <args>` in projectDir.
func (i *Installer) pip(ctx context.Context, projectDir string, env model.Environment, args ...string) error {
	_, err := i.runner.Run(ctx, shell.Command{
		Name:   env.Python,
		Args:   append([]string{"-m", "pip"}, args...),
		Dir:    projectDir,
		Env:    venv.ChildEnv(env, i.pathEnv),
		Stream: true,
	})
	return err
}

// isFile reports whether path exists and is a regular file.
func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, model.WrapCLIError(model.KindFilesystem,
			fmt.Sprintf("failed to inspect %s", path), err)
	}
	return info.Mode().IsRegular(), nil
}

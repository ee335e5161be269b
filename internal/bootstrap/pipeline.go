// Package bootstrap runs the environment setup pipeline.
//
// Steps, in order:
//  1. Resolve an interpreter on PATH
//  2. Gate its version against the configured minimum
//  3. Reuse or create the virtual environment directory
//  4. Compute the environment's activation paths for the host OS family
//  5. Plan and run the dependency install
//  6. Return a Result for the completion reporter
//
// The first failing step ends the run; its error is returned as-is so the
// CLI layer can map it to an exit code. No later step runs after a failure.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/shinji-kodama/venv-bootstrap/internal/config"
	"github.com/shinji-kodama/venv-bootstrap/internal/deps"
	"github.com/shinji-kodama/venv-bootstrap/internal/interpreter"
	"github.com/shinji-kodama/venv-bootstrap/internal/model"
	"github.com/shinji-kodama/venv-bootstrap/internal/shell"
	"github.com/shinji-kodama/venv-bootstrap/internal/venv"
)

// Options configures a single run.
type Options struct {
	// ProjectDir is the directory to bootstrap. Relative paths are
	// resolved against the working directory.
	ProjectDir string

	// Config is the effective configuration (defaults + file + flags).
	Config config.Config

	// DryRun resolves, gates and plans without creating or installing.
	DryRun bool

	// OSFamily overrides host detection. Empty means venv.HostOSFamily().
	OSFamily model.OSFamily
}

// Run executes the pipeline.
func Run(ctx context.Context, runner shell.Runner, opts Options, logger *slog.Logger) (*model.Result, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	minVersion, err := cfg.MinVersion()
	if err != nil {
		return nil, model.WrapCLIError(model.KindConfigInvalid, "invalid min_python", err)
	}

	projectDir, err := filepath.Abs(opts.ProjectDir)
	if err != nil {
		return nil, model.WrapCLIError(model.KindFilesystem, "failed to resolve project directory", err)
	}
	logger.Debug("project directory", "dir", projectDir, "dryRun", opts.DryRun)

	rec := shell.NewRecorder(runner, opts.DryRun)

	// Step 1: interpreter.
	interp, err := interpreter.NewResolver(rec, cfg.Interpreters, logger).Resolve()
	if err != nil {
		return nil, err
	}
	logger.Info("using interpreter", "name", interp.Name, "path", interp.Path)

	// Step 2: version gate.
	version, err := interpreter.Gate(ctx, rec, interp, minVersion)
	if err != nil {
		return nil, err
	}
	logger.Info("interpreter version accepted", "version", version.String(), "minimum", minVersion.String())

	// Step 3: environment directory.
	locator := venv.NewLocator(rec, cfg.EnvDirs, cfg.DefaultEnv, logger)
	env, err := locator.Ensure(ctx, projectDir, interp)
	if err != nil {
		return nil, err
	}

	// Step 4: activation paths.
	family := opts.OSFamily
	if family == "" {
		family = venv.HostOSFamily()
	}
	if !family.IsValid() {
		return nil, model.NewCLIError(model.KindConfigInvalid, fmt.Sprintf("unknown OS family %q", family))
	}
	env = venv.Activate(env, family)
	logger.Debug("environment layout", "python", env.Python, "activate", env.ActivateScript)

	// Step 5: dependencies.
	installer := deps.NewInstaller(rec, deps.Options{
		PrimaryManifest:   cfg.PrimaryManifest,
		SecondaryManifest: cfg.SecondaryManifest,
		SyncTool:          cfg.SyncTool,
		FallbackPackages:  cfg.FallbackPackages,
		UpgradePip:        cfg.UpgradePip,
		PythonVersion:     version,
	}, logger)

	plan, err := installer.Plan(projectDir)
	if err != nil {
		return nil, err
	}
	logger.Info("install strategy selected", "strategy", plan.Strategy.String())

	if err := installer.Install(ctx, projectDir, plan, env); err != nil {
		return nil, err
	}

	// Step 6: summary.
	result := &model.Result{
		Interpreter:       interp,
		Version:           version,
		Environment:       env,
		Plan:              plan,
		ActivationCommand: venv.ActivationCommand(env),
		DryRun:            opts.DryRun,
	}
	for _, c := range rec.Commands() {
		result.Commands = append(result.Commands, c.String())
	}
	return result, nil
}

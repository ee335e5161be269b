package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/venv-bootstrap/internal/bootstrap"
	"github.com/shinji-kodama/venv-bootstrap/internal/config"
	"github.com/shinji-kodama/venv-bootstrap/internal/logging"
	"github.com/shinji-kodama/venv-bootstrap/internal/model"
	"github.com/shinji-kodama/venv-bootstrap/internal/shell"
)

// newRunner builds the subprocess runner. Tests replace it with a fake.
var newRunner = func(stdout, stderr io.Writer, logger *slog.Logger) shell.Runner {
	return shell.NewExecRunner(stdout, stderr, logger)
}

// bootstrapFlags holds the flag values of the root command.
type bootstrapFlags struct {
	dir        string // --dir: project directory
	configPath string // --config: explicit config file
	logFile    string // --log-file: debug log destination
	minPython  string // --min-python: minimum interpreter version
	envDir     string // --env-dir: environment directory name
	upgradePip bool   // --upgrade-pip: upgrade pip before installing
	dryRun     bool   // --dry-run: plan without changing anything
}

func (f *bootstrapFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", ".", "Project directory to bootstrap")
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (default: venv-bootstrap.yaml in the project directory, if present)")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Also write debug logs to this file")
	cmd.Flags().StringVar(&f.minPython, "min-python", "", "Minimum Python version, major.minor (default: 3.10)")
	cmd.Flags().StringVar(&f.envDir, "env-dir", "", "Use only this environment directory (default: .venv, then venv)")
	cmd.Flags().BoolVar(&f.upgradePip, "upgrade-pip", false, "Upgrade pip inside the environment before installing")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show what would be done without creating or installing anything")
}

// apply overlays explicitly set flags onto cfg.
func (f *bootstrapFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.minPython != "" {
		cfg.MinPython = f.minPython
	}
	if f.envDir != "" {
		cfg.EnvDirs = []string{f.envDir}
		cfg.DefaultEnv = f.envDir
	}
	if cmd.Flags().Changed("upgrade-pip") {
		cfg.UpgradePip = f.upgradePip
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}
}

// runBootstrap is the orchestration entry for the root command.
func runBootstrap(cmd *cobra.Command, flags *bootstrapFlags) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	projectDir, err := filepath.Abs(flags.dir)
	if err != nil {
		return model.WrapCLIError(model.KindFilesystem, "failed to resolve project directory", err)
	}
	info, err := os.Stat(projectDir)
	if err != nil || !info.IsDir() {
		return model.WrapCLIError(model.KindFilesystem,
			fmt.Sprintf("project directory %s does not exist", projectDir), err)
	}

	cfg, cfgPath, err := config.Load(projectDir, flags.configPath)
	if err != nil {
		return err
	}
	flags.apply(cmd, &cfg)

	logFile := cfg.LogFile
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = filepath.Join(projectDir, logFile)
	}
	logger, closeLog, err := logging.New(logging.Options{
		Console: stderr,
		Verbose: verbose,
		File:    logFile,
	})
	if err != nil {
		return model.WrapCLIError(model.KindFilesystem, "failed to set up logging", err)
	}
	defer func() { _ = closeLog() }()

	if cfgPath != "" {
		logger.Debug("loaded config file", "path", cfgPath)
	}

	// Installer output is streamed to stderr so stdout stays parseable
	// in --json mode.
	runner := newRunner(stderr, stderr, logger)

	result, err := bootstrap.Run(cmd.Context(), runner, bootstrap.Options{
		ProjectDir: projectDir,
		Config:     cfg,
		DryRun:     flags.dryRun,
	}, logger)
	if err != nil {
		logger.Debug("bootstrap failed", "error", err)
		return err
	}

	printResult(stdout, result)
	return nil
}

// printResult is the completion reporter: text or JSON.
func printResult(w io.Writer, result *model.Result) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		_, _ = fmt.Fprintln(w, string(data))
		return
	}
	printResultText(w, result)
}

// printResultText outputs the run summary and the reactivation command.
func printResultText(w io.Writer, result *model.Result) {
	env := result.Environment

	if result.DryRun {
		_, _ = fmt.Fprintln(w, "Dry run: no changes were made.")
		if len(result.Commands) > 0 {
			_, _ = fmt.Fprintln(w, "  Would run:")
			for _, c := range result.Commands {
				_, _ = fmt.Fprintf(w, "    %s\n", c)
			}
		}
		return
	}

	state := "reused"
	if env.Created {
		state = "created"
	}

	_, _ = fmt.Fprintf(w, "Virtual environment ready: %s (%s)\n", env.Dir, state)
	_, _ = fmt.Fprintf(w, "  Python:       %s %s\n", result.Interpreter.Name, result.Version)
	_, _ = fmt.Fprintf(w, "  Dependencies: %s\n", describePlan(result.Plan))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "To activate the environment, run:")
	_, _ = fmt.Fprintf(w, "  %s\n", result.ActivationCommand)
}

// describePlan renders the install strategy for humans.
func describePlan(plan model.InstallPlan) string {
	switch plan.Strategy {
	case model.StrategyPrimary:
		return fmt.Sprintf("installed from %s", filepath.Base(plan.Manifest))
	case model.StrategySecondary:
		return fmt.Sprintf("synced from %s with %s", filepath.Base(plan.Manifest), plan.SyncTool)
	case model.StrategyFallback:
		if len(plan.Packages) == 0 {
			return "no manifest found, nothing installed"
		}
		return fmt.Sprintf("no manifest found, installed %v", plan.Packages)
	default:
		return plan.Strategy.String()
	}
}

// Package cli implements the cobra-based command line for venv-bootstrap.
//
// The root command runs the whole bootstrap pipeline; it takes no
// positional arguments. This file defines the root command, global flags,
// and the error-to-exit-code translation.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/venv-bootstrap/internal/model"
)

// Global flag variables shared across the command tree.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose lowers the console log level to debug.
	verbose bool
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	flags := &bootstrapFlags{}

	rootCmd := &cobra.Command{
		Use:   "venv-bootstrap",
		Short: "Prepare a Python virtual environment for a project",
		Long: `venv-bootstrap prepares a Python project for development:

  - finds a Python interpreter on PATH (python3, then python)
  - checks it is new enough (3.10 by default)
  - reuses .venv or venv, or creates .venv
  - installs requirements.txt with pip, or syncs pyproject.toml with uv,
    or installs a small fallback package set
  - prints the command to activate the environment

Examples:
  venv-bootstrap
  venv-bootstrap --dir ~/src/radhe
  venv-bootstrap --dry-run --json`,

		Args: cobra.NoArgs,

		// We format errors ourselves (text or JSON based on --json flag).
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBootstrap(cmd, flags)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	flags.register(rootCmd)

	return rootCmd
}

// Execute runs the root command and exits the process with the code
// carried by a *model.CLIError, or 1 for any other error.
// This is the main entry point called from main.go.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(int(reportError(os.Stderr, err)))
	}
}

// reportError prints err and returns the exit code for it.
func reportError(w io.Writer, err error) model.ExitCode {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(w, cliErr.Message, cliErr.Kind, cliErr.Err)
		return cliErr.Code
	}

	// Errors from cobra itself (unknown flag, unexpected argument).
	printError(w, err.Error(), model.KindGeneral, nil)
	return model.ExitGeneralError
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, kind model.ErrorKind, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"kind":    kind.String(),
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// stdout is reserved for successful output, so JSON errors go to w
		// (stderr) as well.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		_, _ = fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		_, _ = fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}

package model

import (
	"fmt"
	"strings"
)

// Interpreter is the Python executable chosen for this run.
// It is resolved once by the interpreter package and never changed afterwards.
type Interpreter struct {
	// Name is the candidate name that matched on PATH (e.g., "python3").
	Name string `json:"name"`

	// Path is the absolute path returned by the PATH lookup.
	Path string `json:"path"`
}

// String returns the interpreter name with its resolved path.
func (i Interpreter) String() string {
	return fmt.Sprintf("%s (%s)", i.Name, i.Path)
}

// OSFamily selects which layout a virtual environment uses on disk.
// POSIX environments keep executables in bin/, Windows ones in Scripts/.
type OSFamily string

const (
	// FamilyPOSIX covers Linux, macOS and the BSDs.
	FamilyPOSIX OSFamily = "posix"

	// FamilyWindows covers native Windows and the msys/cygwin shells.
	FamilyWindows OSFamily = "windows"
)

// String returns the string representation of OSFamily.
func (f OSFamily) String() string {
	return string(f)
}

// IsValid checks whether the OSFamily value is one of the predefined families.
func (f OSFamily) IsValid() bool {
	switch f {
	case FamilyPOSIX, FamilyWindows:
		return true
	default:
		return false
	}
}

// Environment describes a virtual environment directory after it has been
// located or created.
type Environment struct {
	// Dir is the absolute path to the environment directory.
	Dir string `json:"dir"`

	// Name is the directory name relative to the project (e.g., ".venv").
	Name string `json:"name"`

	// Created is true when this run created the directory.
	Created bool `json:"created"`

	// OSFamily is the layout used to compute the paths below.
	OSFamily OSFamily `json:"osFamily"`

	// BinDir is the absolute path of the environment's executable directory.
	BinDir string `json:"binDir"`

	// Python is the absolute path of the environment's own interpreter.
	// All installer steps invoke this path directly instead of relying on
	// shell activation.
	Python string `json:"python"`

	// ActivateScript is the activation fragment, relative to the project
	// directory, that a user sources by hand.
	ActivateScript string `json:"activateScript"`
}

// InstallStrategy names the branch the dependency installer took.
type InstallStrategy string

const (
	// StrategyPrimary installs from the primary manifest (requirements.txt) via pip.
	StrategyPrimary InstallStrategy = "primary"

	// StrategySecondary syncs from the secondary manifest (pyproject.toml) via uv.
	StrategySecondary InstallStrategy = "secondary"

	// StrategyFallback installs the fixed fallback package set.
	StrategyFallback InstallStrategy = "fallback"
)

// String returns the string representation of InstallStrategy.
func (s InstallStrategy) String() string {
	return string(s)
}

// IsValid checks whether the InstallStrategy value is one of the
// predefined strategies.
func (s InstallStrategy) IsValid() bool {
	switch s {
	case StrategyPrimary, StrategySecondary, StrategyFallback:
		return true
	default:
		return false
	}
}

// ParseInstallStrategy converts a string to an InstallStrategy.
func ParseInstallStrategy(s string) (InstallStrategy, error) {
	strategy := InstallStrategy(strings.ToLower(s))
	if !strategy.IsValid() {
		return "", fmt.Errorf("invalid install strategy: %q (valid: primary, secondary, fallback)", s)
	}
	return strategy, nil
}

// InstallPlan is the installer's decision, computed from manifest presence
// flags before anything is executed.
type InstallPlan struct {
	// Strategy is the chosen branch.
	Strategy InstallStrategy `json:"strategy"`

	// Manifest is the absolute path of the manifest driving the install.
	// Empty for StrategyFallback.
	Manifest string `json:"manifest,omitempty"`

	// SyncTool is the tool used for StrategySecondary (e.g., "uv").
	SyncTool string `json:"syncTool,omitempty"`

	// Packages lists the packages installed by StrategyFallback.
	// An empty list means the fallback only warns.
	Packages []string `json:"packages,omitempty"`

	// UpgradePip requests a pip self-upgrade before the strategy runs.
	UpgradePip bool `json:"upgradePip,omitempty"`
}

// Result summarizes a completed run for the completion reporter.
type Result struct {
	Interpreter Interpreter `json:"interpreter"`
	Version     Version     `json:"version"`
	Environment Environment `json:"environment"`
	Plan        InstallPlan `json:"plan"`

	// ActivationCommand is the command a user runs to reactivate the
	// environment in an interactive shell.
	ActivationCommand string `json:"activationCommand"`

	// DryRun is true when no directory was created and nothing was installed.
	DryRun bool `json:"dryRun,omitempty"`

	// Commands lists the commands that were run, or would have been run
	// in dry-run mode.
	Commands []string `json:"commands,omitempty"`
}

// ExitCode defines the process exit codes of the CLI.
// Every failure exits with ExitGeneralError; the ErrorKind on CLIError
// distinguishes failures for messages and JSON output.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates the run was aborted.
	ExitGeneralError ExitCode = 1
)

// ErrorKind classifies why a run was aborted.
type ErrorKind string

const (
	// KindInterpreterNotFound means no candidate interpreter was on PATH.
	KindInterpreterNotFound ErrorKind = "interpreter-not-found"

	// KindVersionTooLow means the interpreter is older than the minimum.
	KindVersionTooLow ErrorKind = "version-too-low"

	// KindCommandFailed means an invoked subcommand exited non-zero.
	KindCommandFailed ErrorKind = "command-failed"

	// KindConfigInvalid means configuration or a manifest could not be used.
	KindConfigInvalid ErrorKind = "config-invalid"

	// KindFilesystem means a filesystem inspection failed.
	KindFilesystem ErrorKind = "filesystem"

	// KindGeneral is used when no more specific kind applies.
	KindGeneral ErrorKind = "general"
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// CLIError is a custom error type that carries an exit code and an error kind.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Kind classifies the failure.
	Kind ErrorKind

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError of the given kind. The exit code is
// always ExitGeneralError.
func NewCLIError(kind ErrorKind, message string) *CLIError {
	return &CLIError{Code: ExitGeneralError, Kind: kind, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(kind ErrorKind, message string, err error) *CLIError {
	return &CLIError{Code: ExitGeneralError, Kind: kind, Message: message, Err: err}
}

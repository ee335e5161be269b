// Package model defines the domain types and value objects for the
// venv-bootstrap CLI.
//
// This package contains pure data structures. Nothing here outlives a
// single run: the interpreter, its version, the environment directory and
// the install plan are recomputed every time the tool is invoked.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries an exit code and an error kind so the CLI layer
// can translate failures into process exit statuses.
package model

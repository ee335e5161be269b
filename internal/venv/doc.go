// Package venv locates, creates and "activates" Python virtual environments.
//
// Activation in a shell means sourcing a fragment that rewrites PATH and
// sets VIRTUAL_ENV. A Go process cannot do that to its parent shell, so this
// package instead:
//   - computes the environment's own interpreter path so every later step
//     can call it directly,
//   - builds the VIRTUAL_ENV/PATH overrides for child processes,
//   - renders the activation command for the user to run afterwards.
//
// Environment creation is delegated to the interpreter's built-in venv
// module; the directory is never removed by this tool.
package venv

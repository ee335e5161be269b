// Package shell runs external commands for the bootstrap pipeline.
//
// Every subprocess the tool starts (the interpreter, python -m venv,
// pip, uv) goes through the Runner interface so the pipeline can be
// exercised in tests with a recording fake instead of a real Python.
//
// Design decisions:
//   - We shell out to the interpreter and package tools rather than
//     reimplementing any of their behavior; environment creation and
//     dependency resolution stay with the tools that own them.
//   - Failures are wrapped in model.CLIError with KindCommandFailed and
//     carry the command's trimmed stderr so the user sees why it failed.
package shell

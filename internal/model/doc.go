// Package model defines the domain types and value objects for the mkgo
// build front end.
//
// This package contains pure data structures with no external dependencies:
// build modes and their compiler flag presets, the settings keys persisted
// between invocations, exit codes (ExitCode), and the CLIError type that
// carries an exit code for proper OS process exit handling.
package model

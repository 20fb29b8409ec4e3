package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Settings keys persisted in the project-local settings file.
const (
	// KeyMode stores the last explicitly chosen build mode.
	KeyMode = "mode"

	// KeyLastTarget stores the last explicitly chosen target name.
	KeyLastTarget = "last_target"
)

// BuildMode is a named compiler flag preset.
type BuildMode string

const (
	// ModeDebug builds with debug symbols and warnings.
	ModeDebug BuildMode = "debug"

	// ModeRelease builds optimized code with assertions disabled.
	ModeRelease BuildMode = "release"

	// ModeProfileRelease builds optimized code instrumented for gprof.
	ModeProfileRelease BuildMode = "profile_release"
)

// modeFlags maps every BuildMode to exactly one compiler flag string.
var modeFlags = map[BuildMode]string{
	ModeDebug:          "-g -Wall",
	ModeRelease:        "-O3 -DNDEBUG -Wall",
	ModeProfileRelease: "-O3 -pg -Wall",
}

// String returns the string representation of BuildMode.
func (m BuildMode) String() string {
	return string(m)
}

// IsValid checks whether the BuildMode is one of the predefined modes.
func (m BuildMode) IsValid() bool {
	_, ok := modeFlags[m]
	return ok
}

// Flags returns the compiler flag string for the mode.
// It returns an empty string for invalid modes; callers should obtain
// modes through ParseBuildMode.
func (m BuildMode) Flags() string {
	return modeFlags[m]
}

// BuildModes returns all valid build mode names in sorted order.
func BuildModes() []string {
	names := make([]string, 0, len(modeFlags))
	for m := range modeFlags {
		names = append(names, string(m))
	}
	sort.Strings(names)
	return names
}

// ParseBuildMode converts a string to a BuildMode. Matching is case
// sensitive because the value is persisted verbatim and must round-trip.
func ParseBuildMode(s string) (BuildMode, error) {
	mode := BuildMode(s)
	if !mode.IsValid() {
		return "", fmt.Errorf("%w: build mode %q (valid: %s)",
			ErrInvalidOption, s, strings.Join(BuildModes(), ", "))
	}
	return mode, nil
}

// Sentinel errors for the framework's error taxonomy. CLIError values built
// by the constructors below unwrap to one of these, so callers can match
// with errors.Is regardless of the message.
var (
	// ErrInvalidOption reports an option value outside its declared set.
	ErrInvalidOption = errors.New("invalid option")

	// ErrUnknownTarget reports a target name that is not registered.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrStoreUnavailable reports an unreadable or corrupt settings file.
	// It is never fatal.
	ErrStoreUnavailable = errors.New("settings store unavailable")

	// ErrDirectoryCreation reports an output directory that cannot be created.
	ErrDirectoryCreation = errors.New("directory creation failed")

	// ErrExternalProcess reports a compiler that exited with non-zero status.
	ErrExternalProcess = errors.New("external process failed")
)

// ExitCode defines the CLI exit codes. Codes for framework errors are taken
// from the sysexits range so they are distinguishable from the small
// statuses compilers usually return.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInvalidOption indicates an option value outside its legal set.
	ExitInvalidOption ExitCode = 64

	// ExitUnknownTarget indicates the requested target is not registered.
	ExitUnknownTarget ExitCode = 65

	// ExitDirectoryCreationFailed indicates the output directory is unusable.
	ExitDirectoryCreationFailed ExitCode = 73
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

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

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// InvalidOptionError reports that flag was given a value outside legal.
func InvalidOptionError(flag, value string, legal []string) *CLIError {
	return WrapCLIError(ExitInvalidOption,
		fmt.Sprintf("invalid value %q for %s (valid: %s)", value, flag, strings.Join(legal, ", ")),
		ErrInvalidOption)
}

// UnknownTargetError reports that name is not among the registered targets.
func UnknownTargetError(name string, registered []string) *CLIError {
	return WrapCLIError(ExitUnknownTarget,
		fmt.Sprintf("target %q is not registered (available: %s)", name, strings.Join(registered, ", ")),
		ErrUnknownTarget)
}

// ExternalProcessError reports a build command that exited with status.
// The status becomes the process exit code.
func ExternalProcessError(target string, status int) *CLIError {
	return WrapCLIError(ExitCode(status),
		fmt.Sprintf("build of %q failed with exit status %d", target, status),
		ErrExternalProcess)
}

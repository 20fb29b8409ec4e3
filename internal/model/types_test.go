package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildMode_Flags verifies that every mode resolves to exactly one
// compiler flag string.
func TestBuildMode_Flags(t *testing.T) {
	tests := []struct {
		mode     BuildMode
		expected string
	}{
		{ModeDebug, "-g -Wall"},
		{ModeRelease, "-O3 -DNDEBUG -Wall"},
		{ModeProfileRelease, "-O3 -pg -Wall"},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.True(t, tt.mode.IsValid())
			assert.Equal(t, tt.expected, tt.mode.Flags())
		})
	}
}

// TestBuildMode_IsValid checks that only defined modes pass validation.
func TestBuildMode_IsValid(t *testing.T) {
	assert.False(t, BuildMode("turbo").IsValid())
	assert.False(t, BuildMode("").IsValid())
	assert.False(t, BuildMode("Debug").IsValid())
	assert.Empty(t, BuildMode("turbo").Flags())
}

// TestBuildModes verifies the sorted list used for help text and completion.
func TestBuildModes(t *testing.T) {
	assert.Equal(t, []string{"debug", "profile_release", "release"}, BuildModes())
}

// TestParseBuildMode verifies string-to-mode conversion, including the
// explicit failure for names outside the enum.
func TestParseBuildMode(t *testing.T) {
	tests := []struct {
		input    string
		expected BuildMode
		hasError bool
	}{
		{"debug", ModeDebug, false},
		{"release", ModeRelease, false},
		{"profile_release", ModeProfileRelease, false},
		{"RELEASE", "", true}, // persisted verbatim, so no case folding
		{"turbo", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseBuildMode(tt.input)
			if tt.hasError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidOption)
				assert.Contains(t, err.Error(), "profile_release")
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitGeneralError, "something broke")
		assert.Equal(t, ExitGeneralError, err.Code)
		assert.Equal(t, "something broke", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("permission denied")
		err := WrapCLIError(ExitDirectoryCreationFailed, "cannot create bin", inner)
		assert.Equal(t, ExitDirectoryCreationFailed, err.Code)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, inner, err.Unwrap())
		assert.True(t, errors.Is(err, inner))
	})
}

// TestTaxonomyConstructors checks that each constructor carries the right
// exit code and unwraps to its sentinel.
func TestTaxonomyConstructors(t *testing.T) {
	t.Run("invalid option", func(t *testing.T) {
		err := InvalidOptionError("--mode", "turbo", BuildModes())
		assert.Equal(t, ExitInvalidOption, err.Code)
		assert.ErrorIs(t, err, ErrInvalidOption)
		assert.Contains(t, err.Error(), "--mode")
		assert.Contains(t, err.Error(), "debug, profile_release, release")
	})

	t.Run("unknown target", func(t *testing.T) {
		err := UnknownTargetError("nope", []string{"closet_maker"})
		assert.Equal(t, ExitUnknownTarget, err.Code)
		assert.ErrorIs(t, err, ErrUnknownTarget)
		assert.Contains(t, err.Error(), "closet_maker")
	})

	t.Run("external process keeps compiler status", func(t *testing.T) {
		err := ExternalProcessError("closet_maker", 2)
		assert.Equal(t, ExitCode(2), err.Code)
		assert.ErrorIs(t, err, ErrExternalProcess)
	})
}

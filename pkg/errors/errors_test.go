package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *MountError
		expected string
	}{
		{
			name:     "not found includes path",
			err:      NotFound("rom/boot.lua"),
			expected: "FILE_NOT_FOUND: /rom/boot.lua: no such file",
		},
		{
			name:     "not a directory includes path",
			err:      NotADirectory("rom/boot.lua"),
			expected: "NOT_DIRECTORY: /rom/boot.lua: not a directory",
		},
		{
			name:     "mount unavailable has no path",
			err:      MountUnavailable("archive does not contain path", nil),
			expected: "MOUNT_UNAVAILABLE: archive does not contain path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		category ErrorCategory
	}{
		{ErrCodeFileNotFound, CategoryFilesystem},
		{ErrCodeNotDirectory, CategoryFilesystem},
		{ErrCodeMountUnavailable, CategoryMount},
		{ErrCodeInvalidConfig, CategoryConfiguration},
		{ErrCodeSeekUnsupported, CategoryOperation},
	}

	for _, tt := range tests {
		if got := GetCategory(tt.code); got != tt.category {
			t.Errorf("GetCategory(%s) = %s, expected %s", tt.code, got, tt.category)
		}
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(NotFound("a.txt")) {
		t.Error("IsNotFound should match a FILE_NOT_FOUND error")
	}
	if IsNotFound(NotADirectory("a.txt")) {
		t.Error("IsNotFound should not match NOT_DIRECTORY")
	}
	if !IsNotADirectory(NotADirectory("a.txt")) {
		t.Error("IsNotADirectory should match a NOT_DIRECTORY error")
	}
	if !IsMountUnavailable(MountUnavailable("boom", nil)) {
		t.Error("IsMountUnavailable should match a MOUNT_UNAVAILABLE error")
	}
	if IsNotFound(stderrors.New("plain error")) {
		t.Error("IsNotFound should not match a plain error")
	}
}

func TestPredicatesUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("open failed: %w", NotFound("b.txt"))
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through fmt.Errorf wrapping")
	}
}

func TestErrorsIs(t *testing.T) {
	err := NotFound("x")
	if !stderrors.Is(err, NewError(ErrCodeFileNotFound, "")) {
		t.Error("errors.Is should match on error code")
	}
	if stderrors.Is(err, NewError(ErrCodeNotDirectory, "")) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestUnwrapCause(t *testing.T) {
	cause := stderrors.New("zip: not a valid zip file")
	err := MountUnavailable("error loading archive", cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

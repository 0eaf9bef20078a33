// Package errors provides the structured error system for archivefs with
// error codes, categories, and per-path context.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a structured error code for mount operations.
type ErrorCode string

const (
	// Filesystem errors surfaced on individual mount calls.
	ErrCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrCodeNotDirectory ErrorCode = "NOT_DIRECTORY"

	// Construction-time errors. A mount that fails this way is never
	// returned to the caller.
	ErrCodeMountUnavailable ErrorCode = "MOUNT_UNAVAILABLE"

	// Configuration errors.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// Operation errors.
	ErrCodeSeekUnsupported ErrorCode = "SEEK_UNSUPPORTED"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryFilesystem    ErrorCategory = "filesystem"
	CategoryMount         ErrorCategory = "mount"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryOperation     ErrorCategory = "operation"
)

// MountError represents a structured error with context and metadata.
type MountError struct {
	Code      ErrorCode     `json:"code"`
	Category  ErrorCategory `json:"category"`
	Message   string        `json:"message"`
	Path      string        `json:"path,omitempty"`
	Cause     error         `json:"-"` // not serialized to avoid circular refs
	Timestamp time.Time     `json:"timestamp"`
}

// Error implements the error interface.
func (e *MountError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: /%s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *MountError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error (for errors.Is compatibility).
func (e *MountError) Is(target error) bool {
	if mountErr, ok := target.(*MountError); ok {
		return e.Code == mountErr.Code
	}
	return false
}

// WithCause sets the underlying cause.
func (e *MountError) WithCause(cause error) *MountError {
	e.Cause = cause
	return e
}

// NewError creates a new mount error with the given code and message.
func NewError(code ErrorCode, message string) *MountError {
	return &MountError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NotFound creates a FILE_NOT_FOUND error for the given virtual path.
func NotFound(path string) *MountError {
	err := NewError(ErrCodeFileNotFound, "no such file")
	err.Path = path
	return err
}

// NotADirectory creates a NOT_DIRECTORY error for the given virtual path.
func NotADirectory(path string) *MountError {
	err := NewError(ErrCodeNotDirectory, "not a directory")
	err.Path = path
	return err
}

// MountUnavailable creates a MOUNT_UNAVAILABLE error for a failed construction.
func MountUnavailable(message string, cause error) *MountError {
	return NewError(ErrCodeMountUnavailable, message).WithCause(cause)
}

// SeekUnsupported creates a SEEK_UNSUPPORTED error for forward-only sources.
func SeekUnsupported() *MountError {
	return NewError(ErrCodeSeekUnsupported, "byte source is forward-only")
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "FILE_") || strings.HasPrefix(codeStr, "NOT_"):
		return CategoryFilesystem
	case strings.HasPrefix(codeStr, "MOUNT_"):
		return CategoryMount
	case strings.HasPrefix(codeStr, "INVALID_CONFIG"):
		return CategoryConfiguration
	default:
		return CategoryOperation
	}
}

// IsNotFound reports whether err carries the FILE_NOT_FOUND code.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeFileNotFound)
}

// IsNotADirectory reports whether err carries the NOT_DIRECTORY code.
func IsNotADirectory(err error) bool {
	return hasCode(err, ErrCodeNotDirectory)
}

// IsMountUnavailable reports whether err carries the MOUNT_UNAVAILABLE code.
func IsMountUnavailable(err error) bool {
	return hasCode(err, ErrCodeMountUnavailable)
}

func hasCode(err error, code ErrorCode) bool {
	for err != nil {
		if mountErr, ok := err.(*MountError); ok {
			return mountErr.Code == code
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

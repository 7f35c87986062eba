// Package errors provides error types and error codes for the vfs package.
// This is a leaf package with no internal dependencies, designed to be imported
// by filesystem implementations, the task layer, and the syscall adapter
// without causing circular imports.
//
// Import graph: errors <- vfs <- filesystem implementations <- adapter
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the type of error that occurred.
type ErrorCode int

const (
	// ErrNotFound indicates the requested path or object does not exist.
	ErrNotFound ErrorCode = iota + 1

	// ErrAccessDenied indicates permission bit violations (POSIX EACCES).
	ErrAccessDenied

	// ErrPermissionDenied indicates operation not permitted (POSIX EPERM).
	// Used when the operation requires ownership or elevated privileges.
	ErrPermissionDenied

	// ErrAlreadyExists indicates the path already exists.
	ErrAlreadyExists

	// ErrNotEmpty indicates a directory is not empty.
	ErrNotEmpty

	// ErrIsDirectory indicates a file operation was attempted on a directory.
	// The open-and-classify probe keys on this code: it is the only error
	// that triggers a directory reopen.
	ErrIsDirectory

	// ErrNotDirectory indicates a directory operation was attempted on a
	// non-directory.
	ErrNotDirectory

	// ErrInvalidArgument indicates an invalid argument was provided.
	ErrInvalidArgument

	// ErrIOError indicates an I/O error in the backing store.
	ErrIOError

	// ErrNoSpace indicates the filesystem has no space left.
	ErrNoSpace

	// ErrReadOnly indicates a mutation was attempted on a read-only
	// filesystem.
	ErrReadOnly

	// ErrNotSupported indicates the operation is not supported by the
	// implementation.
	ErrNotSupported

	// ErrBadDescriptor indicates a descriptor number that is not present in
	// the task's descriptor table.
	ErrBadDescriptor

	// ErrNameTooLong indicates a name or path exceeds its maximum length.
	ErrNameTooLong

	// ErrInterrupted indicates the operation was cancelled mid-flight.
	ErrInterrupted
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrNotFound:
		return "NotFound"
	case ErrAccessDenied:
		return "AccessDenied"
	case ErrPermissionDenied:
		return "PermissionDenied"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrNotEmpty:
		return "NotEmpty"
	case ErrIsDirectory:
		return "IsDirectory"
	case ErrNotDirectory:
		return "NotDirectory"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrIOError:
		return "IOError"
	case ErrNoSpace:
		return "NoSpace"
	case ErrReadOnly:
		return "ReadOnly"
	case ErrNotSupported:
		return "NotSupported"
	case ErrBadDescriptor:
		return "BadDescriptor"
	case ErrNameTooLong:
		return "NameTooLong"
	case ErrInterrupted:
		return "Interrupted"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// FSError represents a filesystem error with an error code.
type FSError struct {
	Code    ErrorCode
	Message string
	Path    string
}

// Error implements the error interface.
func (e *FSError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ============================================================================
// Factory Functions
// ============================================================================

// NewNotFoundError creates a NotFound error.
func NewNotFoundError(path string) *FSError {
	return &FSError{
		Code:    ErrNotFound,
		Message: "no such file or directory",
		Path:    path,
	}
}

// NewAccessDeniedError creates an AccessDenied error.
func NewAccessDeniedError(path string) *FSError {
	return &FSError{
		Code:    ErrAccessDenied,
		Message: "access denied",
		Path:    path,
	}
}

// NewPermissionDeniedError creates a PermissionDenied error.
func NewPermissionDeniedError(path string) *FSError {
	return &FSError{
		Code:    ErrPermissionDenied,
		Message: "operation not permitted",
		Path:    path,
	}
}

// NewAlreadyExistsError creates an AlreadyExists error.
func NewAlreadyExistsError(path string) *FSError {
	return &FSError{
		Code:    ErrAlreadyExists,
		Message: "already exists",
		Path:    path,
	}
}

// NewNotEmptyError creates a NotEmpty error.
func NewNotEmptyError(path string) *FSError {
	return &FSError{
		Code:    ErrNotEmpty,
		Message: "directory not empty",
		Path:    path,
	}
}

// NewIsDirectoryError creates an IsDirectory error.
func NewIsDirectoryError(path string) *FSError {
	return &FSError{
		Code:    ErrIsDirectory,
		Message: "is a directory",
		Path:    path,
	}
}

// NewNotDirectoryError creates a NotDirectory error.
func NewNotDirectoryError(path string) *FSError {
	return &FSError{
		Code:    ErrNotDirectory,
		Message: "not a directory",
		Path:    path,
	}
}

// NewInvalidArgumentError creates an InvalidArgument error.
func NewInvalidArgumentError(message string) *FSError {
	return &FSError{
		Code:    ErrInvalidArgument,
		Message: message,
	}
}

// NewIOError creates an IOError wrapping a backend failure description.
func NewIOError(path, message string) *FSError {
	return &FSError{
		Code:    ErrIOError,
		Message: message,
		Path:    path,
	}
}

// NewNoSpaceError creates a NoSpace error.
func NewNoSpaceError(path string) *FSError {
	return &FSError{
		Code:    ErrNoSpace,
		Message: "no space left on device",
		Path:    path,
	}
}

// NewReadOnlyError creates a ReadOnly error.
func NewReadOnlyError(path string) *FSError {
	return &FSError{
		Code:    ErrReadOnly,
		Message: "read-only file system",
		Path:    path,
	}
}

// NewNotSupportedError creates a NotSupported error.
func NewNotSupportedError(operation string) *FSError {
	return &FSError{
		Code:    ErrNotSupported,
		Message: fmt.Sprintf("operation not supported: %s", operation),
	}
}

// NewBadDescriptorError creates a BadDescriptor error.
func NewBadDescriptorError(fd int32) *FSError {
	return &FSError{
		Code:    ErrBadDescriptor,
		Message: fmt.Sprintf("bad file descriptor: %d", fd),
	}
}

// NewNameTooLongError creates a NameTooLong error.
func NewNameTooLongError(path string) *FSError {
	return &FSError{
		Code:    ErrNameTooLong,
		Message: "name too long",
		Path:    path,
	}
}

// ============================================================================
// Error Inspection Helpers
// ============================================================================

// CodeOf extracts the ErrorCode from err, unwrapping as needed.
// Returns 0 if err is nil or carries no FSError.
func CodeOf(err error) ErrorCode {
	var fsErr *FSError
	if stderrors.As(err, &fsErr) {
		return fsErr.Code
	}
	return 0
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsNotFound returns true if the error is a NotFound error.
func IsNotFound(err error) bool {
	return HasCode(err, ErrNotFound)
}

// IsIsDirectory returns true if the error is an IsDirectory error.
// This is the classification the open-and-classify probe branches on.
func IsIsDirectory(err error) bool {
	return HasCode(err, ErrIsDirectory)
}

// IsBadDescriptor returns true if the error is a BadDescriptor error.
func IsBadDescriptor(err error) bool {
	return HasCode(err, ErrBadDescriptor)
}

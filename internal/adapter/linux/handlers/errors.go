package handlers

import (
	"context"
	"errors"

	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/pkg/usermem"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// ============================================================================
// Error Mapping - Filesystem Errors → Errnos
// ============================================================================

// ToErrno maps an error from the filesystem, the descriptor table, or
// guest memory to the errno the syscall reports.
//
// Error mapping:
//   - ErrNotFound → abi.ENOENT (no such file or directory)
//   - ErrAccessDenied → abi.EACCES (permission denied)
//   - ErrPermissionDenied → abi.EPERM (operation not permitted)
//   - ErrAlreadyExists → abi.EEXIST (file exists)
//   - ErrNotEmpty → abi.ENOTEMPTY (directory not empty)
//   - ErrIsDirectory → abi.EISDIR (is a directory)
//   - ErrNotDirectory → abi.ENOTDIR (not a directory)
//   - ErrInvalidArgument → abi.EINVAL (invalid argument)
//   - ErrIOError → abi.EIO (I/O error)
//   - ErrNoSpace → abi.ENOSPC (no space left on device)
//   - ErrReadOnly → abi.EROFS (read-only file system)
//   - ErrNotSupported → abi.EOPNOTSUPP (operation not supported)
//   - ErrBadDescriptor → abi.EBADF (bad file descriptor)
//   - ErrNameTooLong → abi.ENAMETOOLONG (file name too long)
//   - ErrInterrupted → abi.EINTR (interrupted system call)
//   - context.Canceled / context.DeadlineExceeded → abi.EINTR
//   - usermem.ErrBadAddress → abi.EFAULT (bad address)
//   - usermem.ErrTooLong → abi.ENAMETOOLONG
//   - Other errors → abi.EIO (generic I/O error)
//
// The stat family never invents errnos of its own: whatever the opener,
// metadata producer, or descriptor table raised passes through this table
// unchanged. Only errors nothing recognizes collapse to EIO.
//
// This function also handles audit logging at appropriate levels:
//   - Caller errors (not found, bad descriptor): logged as warnings
//   - Backend errors (I/O, no space, unknown): logged as errors
//
// Parameters:
//   - err: error to map (nil = success)
//   - pid: calling task id for audit logging
//   - operation: syscall name for audit logging (e.g. "stat", "newfstatat")
//
// Returns:
//   - abi.Errno: errno value (zero on success, error number on failure)
func ToErrno(err error, pid uint32, operation string) abi.Errno {
	if err == nil {
		return 0
	}

	// Cancellation and guest-memory faults arrive as sentinel errors, not
	// typed filesystem errors. Check them first.
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Warn("Syscall interrupted", "syscall", operation, "pid", pid, "error", err)
		return abi.EINTR

	case errors.Is(err, usermem.ErrBadAddress):
		logger.Warn("Syscall failed: bad guest address", "syscall", operation, "pid", pid, "error", err)
		return abi.EFAULT

	case errors.Is(err, usermem.ErrTooLong):
		logger.Warn("Syscall failed: path exceeds PATH_MAX", "syscall", operation, "pid", pid)
		return abi.ENAMETOOLONG
	}

	// Check if it's a typed FSError
	var fsErr *vfserrors.FSError
	if !errors.As(err, &fsErr) {
		// Generic error: log and return I/O error
		logger.Error("Syscall failed", "syscall", operation, "pid", pid, "error", err)
		return abi.EIO
	}

	// Map FSError codes to errnos
	switch fsErr.Code {
	case vfserrors.ErrNotFound:
		// File or directory not found
		logger.Warn("Syscall failed", "syscall", operation, "message", fsErr.Message, "path", fsErr.Path, "pid", pid)
		return abi.ENOENT

	case vfserrors.ErrAccessDenied:
		// Permission bits forbid the access
		logger.Warn("Syscall failed: access denied", "syscall", operation, "path", fsErr.Path, "pid", pid)
		return abi.EACCES

	case vfserrors.ErrPermissionDenied:
		// Operation requires ownership or elevated privileges
		logger.Warn("Syscall failed: operation not permitted", "syscall", operation, "path", fsErr.Path, "pid", pid)
		return abi.EPERM

	case vfserrors.ErrAlreadyExists:
		// File or directory already exists
		logger.Warn("Syscall failed: already exists", "syscall", operation, "path", fsErr.Path, "pid", pid)
		return abi.EEXIST

	case vfserrors.ErrNotEmpty:
		// Directory not empty
		logger.Warn("Syscall failed: directory not empty", "syscall", operation, "path", fsErr.Path, "pid", pid)
		return abi.ENOTEMPTY

	case vfserrors.ErrIsDirectory:
		// File operation attempted on a directory. The probe intercepts
		// this during its first step; reaching the mapper means the
		// directory reopen failed the same way or a later step raised it.
		logger.Warn("Syscall failed: is a directory", "syscall", operation, "path", fsErr.Path, "pid", pid)
		return abi.EISDIR

	case vfserrors.ErrNotDirectory:
		// Directory operation attempted on a non-directory
		logger.Warn("Syscall failed: not a directory", "syscall", operation, "path", fsErr.Path, "pid", pid)
		return abi.ENOTDIR

	case vfserrors.ErrInvalidArgument:
		// Invalid argument
		logger.Warn("Syscall failed: invalid argument", "syscall", operation, "message", fsErr.Message, "pid", pid)
		return abi.EINVAL

	case vfserrors.ErrIOError:
		// Generic I/O error in the backing store
		logger.Error("Syscall failed: I/O error", "syscall", operation, "message", fsErr.Message, "path", fsErr.Path, "pid", pid)
		return abi.EIO

	case vfserrors.ErrNoSpace:
		// No space left on device
		logger.Error("Syscall failed: no space left", "syscall", operation, "pid", pid)
		return abi.ENOSPC

	case vfserrors.ErrReadOnly:
		// Read-only filesystem
		logger.Warn("Syscall failed: read-only filesystem", "syscall", operation, "path", fsErr.Path, "pid", pid)
		return abi.EROFS

	case vfserrors.ErrNotSupported:
		// Operation not supported by the backend
		logger.Warn("Syscall failed: not supported", "syscall", operation, "message", fsErr.Message, "pid", pid)
		return abi.EOPNOTSUPP

	case vfserrors.ErrBadDescriptor:
		// Descriptor not present in the task's table
		logger.Warn("Syscall failed: bad descriptor", "syscall", operation, "message", fsErr.Message, "pid", pid)
		return abi.EBADF

	case vfserrors.ErrNameTooLong:
		// Path or filename exceeds limits
		logger.Warn("Syscall failed: name too long", "syscall", operation, "path", fsErr.Path, "pid", pid)
		return abi.ENAMETOOLONG

	case vfserrors.ErrInterrupted:
		// Operation cancelled mid-flight
		logger.Warn("Syscall interrupted", "syscall", operation, "message", fsErr.Message, "pid", pid)
		return abi.EINTR

	default:
		// Unknown error code
		logger.Error("Syscall failed: unknown error code", "syscall", operation, "code", fsErr.Code, "message", fsErr.Message, "pid", pid)
		return abi.EIO
	}
}

package handlers

import (
	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/pkg/task"
)

// ============================================================================
// Request and Response Structures
// ============================================================================

// StatfsRequest represents a statfs(2) invocation.
type StatfsRequest struct {
	// PathAddr is the guest address of the NUL-terminated pathname.
	PathAddr uint64

	// BufAddr is the guest address of the output buffer. It must hold
	// abi.StatfsSize bytes.
	BufAddr uint64
}

// StatfsResponse represents the result of a statfs(2) invocation.
type StatfsResponse struct {
	SyscallResponseBase // Embeds Errno field and GetErrno() method
}

// FstatfsRequest represents an fstatfs(2) invocation.
type FstatfsRequest struct {
	// FD is the descriptor to query.
	FD int32

	// BufAddr is the guest address of the output buffer. It must hold
	// abi.StatfsSize bytes.
	BufAddr uint64
}

// FstatfsResponse represents the result of an fstatfs(2) invocation.
type FstatfsResponse struct {
	SyscallResponseBase // Embeds Errno field and GetErrno() method
}

// ============================================================================
// Handler Implementation
// ============================================================================

// Statfs handles statfs(2), syscall 137.
//
// Filesystem accounting is not implemented: the reply is a fixed synthetic
// geometry, identical for every filesystem and every pathname. The
// pathname is still read from guest memory, so faults surface as EFAULT,
// but it is never resolved: statfs on a nonexistent path succeeds. The
// contract callers can rely on is exactly "always succeeds with these
// constants", nothing more.
//
// Parameters:
//   - ctx: Context with cancellation and the calling task
//   - req: The statfs request with pathname and buffer addresses
//
// Returns:
//   - *StatfsResponse: the response carrying the errno
//   - error: non-nil only for context cancellation
func (h *Handler) Statfs(ctx *Context, req *StatfsRequest) (*StatfsResponse, error) {
	// Check for cancellation before starting any work
	if ctx.isContextCancelled() {
		logger.DebugCtx(ctx.Context, "statfs cancelled before processing", "pid", ctx.Task.PID(), "error", ctx.Context.Err())
		return &StatfsResponse{SyscallResponseBase: SyscallResponseBase{Errno: abi.EINTR}}, ctx.Context.Err()
	}

	// ========================================================================
	// Step 1: Read the pathname from guest memory
	// ========================================================================

	// Read for fault semantics only; the stub reports the same geometry
	// for every pathname.
	pathname, err := h.readPath(ctx.Task, req.PathAddr)
	if err != nil {
		return &StatfsResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "statfs")}}, nil
	}

	logger.DebugCtx(ctx.Context, "statfs", "path", pathname, "pid", ctx.Task.PID())

	// ========================================================================
	// Step 2: Store the constant geometry
	// ========================================================================

	if err := writeStatfs(ctx.Task, req.BufAddr); err != nil {
		return &StatfsResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "statfs")}}, nil
	}

	return &StatfsResponse{}, nil
}

// Fstatfs handles fstatfs(2), syscall 138.
//
// The descriptor-addressed sibling of Statfs. The descriptor is looked up
// purely to validate it (an unknown descriptor fails EBADF) and the reply
// is the same constant geometry regardless of which filesystem the
// descriptor lives on.
//
// Parameters:
//   - ctx: Context with cancellation and the calling task
//   - req: The fstatfs request with descriptor and buffer address
//
// Returns:
//   - *FstatfsResponse: the response carrying the errno
//   - error: non-nil only for context cancellation
func (h *Handler) Fstatfs(ctx *Context, req *FstatfsRequest) (*FstatfsResponse, error) {
	// Check for cancellation before starting any work
	if ctx.isContextCancelled() {
		logger.DebugCtx(ctx.Context, "fstatfs cancelled before processing", "fd", req.FD, "pid", ctx.Task.PID(), "error", ctx.Context.Err())
		return &FstatfsResponse{SyscallResponseBase: SyscallResponseBase{Errno: abi.EINTR}}, ctx.Context.Err()
	}

	logger.DebugCtx(ctx.Context, "fstatfs", "fd", req.FD, "pid", ctx.Task.PID())

	// ========================================================================
	// Step 1: Validate the descriptor
	// ========================================================================

	if _, err := ctx.Task.Descriptors().Get(req.FD); err != nil {
		return &FstatfsResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "fstatfs")}}, nil
	}

	// ========================================================================
	// Step 2: Store the constant geometry
	// ========================================================================

	if err := writeStatfs(ctx.Task, req.BufAddr); err != nil {
		return &FstatfsResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "fstatfs")}}, nil
	}

	return &FstatfsResponse{}, nil
}

// writeStatfs stores the synthetic filesystem geometry at bufAddr in a
// single write. Everything not listed stays zero, f_type included.
func writeStatfs(t *task.Task, bufAddr uint64) error {
	sf := abi.Statfs{
		Bsize:   4096,
		Blocks:  1024,
		Bfree:   512,
		Bavail:  256,
		Files:   1024,
		Ffree:   512,
		Namelen: 255,
	}
	buf, err := sf.Encode()
	if err != nil {
		return err
	}
	return t.Memory().WriteBytes(bufAddr, buf)
}

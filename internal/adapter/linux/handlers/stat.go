package handlers

import (
	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/pkg/vfs"
)

// ============================================================================
// Request and Response Structures
// ============================================================================

// StatRequest represents a stat(2) invocation.
//
// stat takes a pathname only: absolute pathnames stand alone, relative
// ones resolve against the working directory. It is newfstatat with
// dirfd == AT_FDCWD and no flags.
type StatRequest struct {
	// PathAddr is the guest address of the NUL-terminated pathname.
	PathAddr uint64

	// BufAddr is the guest address of the output buffer. It must hold
	// abi.StatSize bytes.
	BufAddr uint64
}

// StatResponse represents the result of a stat(2) invocation.
type StatResponse struct {
	SyscallResponseBase // Embeds Errno field and GetErrno() method

	// Attr is the metadata record the reply buffer was projected from.
	// Nil unless the call succeeded.
	Attr *vfs.FileAttr
}

// ============================================================================
// Handler Implementation
// ============================================================================

// Stat handles stat(2), syscall 4.
//
// The process follows these steps:
//  1. Check for context cancellation before starting
//  2. Read the pathname from guest memory
//  3. Resolve it against the working directory and run the
//     open-and-classify probe
//  4. Project the record into the stat layout and store it with a single
//     guest-memory write
//
// An empty pathname fails NotFound, the way the kernel's pathname walk
// reports it, because stat has no AT_EMPTY_PATH escape hatch.
//
// Parameters:
//   - ctx: Context with cancellation and the calling task
//   - req: The stat request with pathname and buffer addresses
//
// Returns:
//   - *StatResponse: the response carrying the errno (and the record on
//     success)
//   - error: non-nil only for context cancellation
func (h *Handler) Stat(ctx *Context, req *StatRequest) (*StatResponse, error) {
	// Check for cancellation before starting any work
	if ctx.isContextCancelled() {
		logger.DebugCtx(ctx.Context, "stat cancelled before processing", "pid", ctx.Task.PID(), "error", ctx.Context.Err())
		return &StatResponse{SyscallResponseBase: SyscallResponseBase{Errno: abi.EINTR}}, ctx.Context.Err()
	}

	// ========================================================================
	// Step 1: Read the pathname from guest memory
	// ========================================================================

	pathname, err := h.readPath(ctx.Task, req.PathAddr)
	if err != nil {
		return &StatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "stat")}}, nil
	}

	logger.DebugCtx(ctx.Context, "stat", "path", pathname, "pid", ctx.Task.PID())

	// ========================================================================
	// Step 2: Resolve and probe
	// ========================================================================

	attr, err := h.statAt(ctx, abi.AT_FDCWD, pathname, 0)
	if err != nil {
		return &StatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "stat")}}, nil
	}

	// ========================================================================
	// Step 3: Project and store the reply
	// ========================================================================

	if err := writeStat(ctx.Task, req.BufAddr, attr); err != nil {
		return &StatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "stat")}}, nil
	}

	logger.DebugCtx(ctx.Context, "stat successful", "path", pathname, "ino", attr.Ino, "size", attr.Size, "pid", ctx.Task.PID())

	return &StatResponse{Attr: &attr}, nil
}

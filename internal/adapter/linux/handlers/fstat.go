package handlers

import (
	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/pkg/vfs"
)

// ============================================================================
// Request and Response Structures
// ============================================================================

// FstatRequest represents an fstat(2) invocation.
//
// fstat is descriptor-only addressing: no pathname is read and no
// resolution happens. The descriptor's open handle produces the record
// directly, whatever kind of object it is.
type FstatRequest struct {
	// FD is the descriptor to query.
	FD int32

	// BufAddr is the guest address of the output buffer. It must hold
	// abi.StatSize bytes.
	BufAddr uint64
}

// FstatResponse represents the result of an fstat(2) invocation.
type FstatResponse struct {
	SyscallResponseBase // Embeds Errno field and GetErrno() method

	// Attr is the metadata record the reply buffer was projected from.
	// Nil unless the call succeeded.
	Attr *vfs.FileAttr
}

// ============================================================================
// Handler Implementation
// ============================================================================

// Fstat handles fstat(2), syscall 5.
//
// The process follows these steps:
//  1. Check for context cancellation before starting
//  2. Look up the descriptor in the task's table
//  3. Query the open handle's metadata record
//  4. Project the record into the stat layout and store it with a single
//     guest-memory write
//
// The handle is borrowed from the descriptor table, not owned by this
// call, so nothing is closed here.
//
// Parameters:
//   - ctx: Context with cancellation and the calling task
//   - req: The fstat request with descriptor and buffer address
//
// Returns:
//   - *FstatResponse: the response carrying the errno (and the record on
//     success)
//   - error: non-nil only for context cancellation
func (h *Handler) Fstat(ctx *Context, req *FstatRequest) (*FstatResponse, error) {
	// Check for cancellation before starting any work
	if ctx.isContextCancelled() {
		logger.DebugCtx(ctx.Context, "fstat cancelled before processing", "fd", req.FD, "pid", ctx.Task.PID(), "error", ctx.Context.Err())
		return &FstatResponse{SyscallResponseBase: SyscallResponseBase{Errno: abi.EINTR}}, ctx.Context.Err()
	}

	logger.DebugCtx(ctx.Context, "fstat", "fd", req.FD, "pid", ctx.Task.PID())

	// ========================================================================
	// Step 1: Look up the descriptor
	// ========================================================================

	d, err := ctx.Task.Descriptors().Get(req.FD)
	if err != nil {
		return &FstatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "fstat")}}, nil
	}

	// ========================================================================
	// Step 2: Query the handle's metadata record
	// ========================================================================

	attr, err := d.File.Stat(ctx.Context)
	if err != nil {
		return &FstatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "fstat")}}, nil
	}

	// ========================================================================
	// Step 3: Project and store the reply
	// ========================================================================

	if err := writeStat(ctx.Task, req.BufAddr, attr); err != nil {
		return &FstatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "fstat")}}, nil
	}

	logger.DebugCtx(ctx.Context, "fstat successful", "fd", req.FD, "path", d.Path, "ino", attr.Ino, "size", attr.Size, "pid", ctx.Task.PID())

	return &FstatResponse{Attr: &attr}, nil
}

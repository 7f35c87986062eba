package handlers

import (
	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/logger"
)

// ============================================================================
// Request and Response Structures
// ============================================================================

// LstatRequest represents an lstat(2) invocation.
type LstatRequest struct {
	// PathAddr is the guest address of the NUL-terminated pathname.
	PathAddr uint64

	// BufAddr is the guest address of the output buffer. It must hold
	// abi.StatSize bytes.
	BufAddr uint64
}

// LstatResponse represents the result of an lstat(2) invocation.
type LstatResponse struct {
	SyscallResponseBase // Embeds Errno field and GetErrno() method
}

// ============================================================================
// Handler Implementation
// ============================================================================

// Lstat handles lstat(2), syscall 6.
//
// The virtual filesystem does not model symbolic links, so lstat is a
// stub: it reads the pathname (guest-memory faults still surface), then
// writes an all-zero struct stat and reports success without consulting
// the filesystem. Nonexistent pathnames succeed too. Callers probing for
// symlinks see a zero record, never an error.
//
// TODO: produce real records here once the filesystem layer models
// symlinks; the stub's always-succeed behavior is load-bearing for
// callers until then.
//
// Parameters:
//   - ctx: Context with cancellation and the calling task
//   - req: The lstat request with pathname and buffer addresses
//
// Returns:
//   - *LstatResponse: the response carrying the errno
//   - error: non-nil only for context cancellation
func (h *Handler) Lstat(ctx *Context, req *LstatRequest) (*LstatResponse, error) {
	// Check for cancellation before starting any work
	if ctx.isContextCancelled() {
		logger.DebugCtx(ctx.Context, "lstat cancelled before processing", "pid", ctx.Task.PID(), "error", ctx.Context.Err())
		return &LstatResponse{SyscallResponseBase: SyscallResponseBase{Errno: abi.EINTR}}, ctx.Context.Err()
	}

	// ========================================================================
	// Step 1: Read the pathname from guest memory
	// ========================================================================

	// The pathname is read for its fault semantics only; the stub never
	// resolves it.
	pathname, err := h.readPath(ctx.Task, req.PathAddr)
	if err != nil {
		return &LstatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "lstat")}}, nil
	}

	logger.DebugCtx(ctx.Context, "lstat", "path", pathname, "pid", ctx.Task.PID())

	// ========================================================================
	// Step 2: Store the zero record
	// ========================================================================

	if err := ctx.Task.Memory().WriteBytes(req.BufAddr, make([]byte, abi.StatSize)); err != nil {
		return &LstatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "lstat")}}, nil
	}

	logger.DebugCtx(ctx.Context, "lstat successful", "path", pathname, "pid", ctx.Task.PID())

	return &LstatResponse{}, nil
}

package handlers

import (
	"fmt"

	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/pkg/task"
	"github.com/velin-dev/velin/pkg/vfs"
)

// ============================================================================
// Request and Response Structures
// ============================================================================

// StatxRequest represents a statx(2) invocation.
//
// statx resolves exactly like newfstatat; only the output layout differs
// (the 256-byte struct statx instead of struct stat).
type StatxRequest struct {
	// Dirfd anchors relative pathnames, as in FstatatRequest.
	Dirfd int32

	// PathAddr is the guest address of the NUL-terminated pathname.
	// A null pointer reads as the empty string.
	PathAddr uint64

	// Flags modifies resolution. Only AT_EMPTY_PATH is interpreted; the
	// AT_STATX_* sync hints are accepted and ignored.
	Flags int32

	// Mask is the caller's requested field set (STATX_*). It is accepted
	// and ignored: every basic field the record carries is populated, and
	// stx_mask in the reply stays zero because this layer does not
	// advertise field validity. The kernel permits returning more than
	// was asked for.
	Mask uint32

	// BufAddr is the guest address of the output buffer. It must hold
	// abi.StatxSize bytes.
	BufAddr uint64
}

// StatxResponse represents the result of a statx(2) invocation.
type StatxResponse struct {
	SyscallResponseBase // Embeds Errno field and GetErrno() method

	// Attr is the metadata record the reply buffer was projected from.
	// Nil unless the call succeeded.
	Attr *vfs.FileAttr
}

// ============================================================================
// Handler Implementation
// ============================================================================

// Statx handles statx(2), syscall 332.
//
// The process follows these steps:
//  1. Check for context cancellation before starting
//  2. Read the pathname from guest memory
//  3. Resolve the (dirfd, pathname, flags) triple into a metadata record,
//     through the same dispatcher newfstatat uses
//  4. Project the record into the 256-byte statx layout and store it with
//     a single guest-memory write
//
// The statx-only fields (stx_mask, stx_attributes, stx_attributes_mask,
// stx_btime) are zero-filled; see abi.StatxFromAttr.
//
// Parameters:
//   - ctx: Context with cancellation and the calling task
//   - req: The statx request with dirfd, pathname, flags, mask and buffer
//
// Returns:
//   - *StatxResponse: the response carrying the errno (and the record on
//     success)
//   - error: non-nil only for context cancellation
func (h *Handler) Statx(ctx *Context, req *StatxRequest) (*StatxResponse, error) {
	// Check for cancellation before starting any work
	if ctx.isContextCancelled() {
		logger.DebugCtx(ctx.Context, "statx cancelled before processing", "dirfd", req.Dirfd, "pid", ctx.Task.PID(), "error", ctx.Context.Err())
		return &StatxResponse{SyscallResponseBase: SyscallResponseBase{Errno: abi.EINTR}}, ctx.Context.Err()
	}

	// ========================================================================
	// Step 1: Read the pathname from guest memory
	// ========================================================================

	pathname, err := h.readPath(ctx.Task, req.PathAddr)
	if err != nil {
		return &StatxResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "statx")}}, nil
	}

	logger.DebugCtx(ctx.Context, "statx", "dirfd", req.Dirfd, "path", pathname, "flags", fmt.Sprintf("%#x", req.Flags), "mask", fmt.Sprintf("%#x", req.Mask), "pid", ctx.Task.PID())

	// ========================================================================
	// Step 2: Resolve the triple into a metadata record
	// ========================================================================

	attr, err := h.statAt(ctx, req.Dirfd, pathname, req.Flags)
	if err != nil {
		return &StatxResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "statx")}}, nil
	}

	// ========================================================================
	// Step 3: Project and store the reply
	// ========================================================================

	if err := writeStatx(ctx.Task, req.BufAddr, attr); err != nil {
		return &StatxResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "statx")}}, nil
	}

	logger.DebugCtx(ctx.Context, "statx successful", "path", pathname, "ino", attr.Ino, "size", attr.Size, "pid", ctx.Task.PID())

	return &StatxResponse{Attr: &attr}, nil
}

// writeStatx projects attr into the 256-byte statx layout and stores it at
// bufAddr in a single write.
func writeStatx(t *task.Task, bufAddr uint64, attr vfs.FileAttr) error {
	stx := abi.StatxFromAttr(attr)
	buf, err := stx.Encode()
	if err != nil {
		return err
	}
	return t.Memory().WriteBytes(bufAddr, buf)
}

package handlers

import (
	"fmt"

	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// ============================================================================
// Request and Response Structures
// ============================================================================

// FstatatRequest represents a newfstatat(2) invocation.
//
// newfstatat is the general form of the stat family: the (Dirfd, PathAddr,
// Flags) triple selects one of four addressing modes, and the result is
// written as a struct stat. stat and fstat are degenerate cases of it.
type FstatatRequest struct {
	// Dirfd anchors relative pathnames. AT_FDCWD selects the working
	// directory; any other value must name an open directory descriptor.
	// Absolute pathnames ignore it entirely.
	Dirfd int32

	// PathAddr is the guest address of the NUL-terminated pathname.
	// A null pointer reads as the empty string.
	PathAddr uint64

	// BufAddr is the guest address of the output buffer. It must hold
	// abi.StatSize bytes.
	BufAddr uint64

	// Flags modifies resolution. Only AT_EMPTY_PATH is interpreted: it
	// admits an empty pathname and directs the call at Dirfd itself.
	Flags int32
}

// FstatatResponse represents the result of a newfstatat(2) invocation.
type FstatatResponse struct {
	SyscallResponseBase // Embeds Errno field and GetErrno() method

	// Attr is the metadata record the reply buffer was projected from.
	// Nil unless the call succeeded.
	Attr *vfs.FileAttr
}

// ============================================================================
// Handler Implementation
// ============================================================================

// Fstatat handles newfstatat(2), syscall 262.
//
// The process follows these steps:
//  1. Check for context cancellation before starting
//  2. Read the pathname from guest memory
//  3. Resolve the (dirfd, pathname, flags) triple into a metadata record
//  4. Project the record into the 144-byte stat layout and store it with
//     a single guest-memory write
//
// Design principles:
//   - The four addressing modes live in statAt, shared with statx, so the
//     two entry points cannot drift apart
//   - All classification logic is delegated to the open-and-classify
//     probe; this layer never inspects the target's kind itself
//   - The output buffer is written once, after the whole record is
//     assembled; a failing call leaves guest memory untouched
//
// Parameters:
//   - ctx: Context with cancellation and the calling task
//   - req: The newfstatat request with dirfd, pathname, buffer and flags
//
// Returns:
//   - *FstatatResponse: the response carrying the errno (and the record on
//     success)
//   - error: non-nil only for context cancellation; every other failure is
//     reported through the response errno
func (h *Handler) Fstatat(ctx *Context, req *FstatatRequest) (*FstatatResponse, error) {
	// Check for cancellation before starting any work
	if ctx.isContextCancelled() {
		logger.DebugCtx(ctx.Context, "newfstatat cancelled before processing", "dirfd", req.Dirfd, "pid", ctx.Task.PID(), "error", ctx.Context.Err())
		return &FstatatResponse{SyscallResponseBase: SyscallResponseBase{Errno: abi.EINTR}}, ctx.Context.Err()
	}

	// ========================================================================
	// Step 1: Read the pathname from guest memory
	// ========================================================================

	pathname, err := h.readPath(ctx.Task, req.PathAddr)
	if err != nil {
		return &FstatatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "newfstatat")}}, nil
	}

	logger.DebugCtx(ctx.Context, "newfstatat", "dirfd", req.Dirfd, "path", pathname, "flags", fmt.Sprintf("%#x", req.Flags), "pid", ctx.Task.PID())

	// ========================================================================
	// Step 2: Resolve the triple into a metadata record
	// ========================================================================

	attr, err := h.statAt(ctx, req.Dirfd, pathname, req.Flags)
	if err != nil {
		return &FstatatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "newfstatat")}}, nil
	}

	// ========================================================================
	// Step 3: Project and store the reply
	// ========================================================================

	if err := writeStat(ctx.Task, req.BufAddr, attr); err != nil {
		return &FstatatResponse{SyscallResponseBase: SyscallResponseBase{Errno: ToErrno(err, ctx.Task.PID(), "newfstatat")}}, nil
	}

	logger.DebugCtx(ctx.Context, "newfstatat successful", "path", pathname, "ino", attr.Ino, "size", attr.Size, "pid", ctx.Task.PID())

	return &FstatatResponse{Attr: &attr}, nil
}

// ============================================================================
// Resolution Dispatcher
// ============================================================================

// statAt resolves a (dirfd, pathname, flags) triple into a metadata
// record. It implements the four addressing modes shared by newfstatat
// and statx; exactly one mode applies per call:
//
//  1. Absolute pathname: dirfd is ignored entirely, closed or bogus
//     values included.
//  2. Relative pathname with dirfd == AT_FDCWD: joined to the task's
//     working directory.
//  3. Relative pathname with a real dirfd: joined to the descriptor's
//     path. An unknown descriptor fails BadDescriptor, an open
//     non-directory fails NotDirectory.
//  4. Empty pathname: the descriptor itself is queried, exactly like
//     fstat on it.
//
// The empty-path mode is gated on AT_EMPTY_PATH, and the gate runs before
// descriptor validation: without the flag an empty pathname fails
// NotFound no matter what dirfd holds, and with the flag AT_FDCWD fails
// BadDescriptor because the sentinel is not a real descriptor.
//
// Path-addressed modes produce the record through the open-and-classify
// probe; its transient handle is released before this function returns.
// Every error from resolution, the descriptor table, or the probe passes
// through unchanged.
func (h *Handler) statAt(ctx *Context, dirfd int32, pathname string, flags int32) (vfs.FileAttr, error) {
	if pathname == "" {
		if flags&abi.AT_EMPTY_PATH == 0 {
			return vfs.FileAttr{}, vfserrors.NewNotFoundError(pathname)
		}

		d, err := ctx.Task.Descriptors().Get(dirfd)
		if err != nil {
			return vfs.FileAttr{}, err
		}
		return d.File.Stat(ctx.Context)
	}

	resolved, err := ctx.Task.ResolvePath(dirfd, pathname)
	if err != nil {
		return vfs.FileAttr{}, err
	}

	return vfs.StatPath(ctx.Context, ctx.Task.Filesystem(), resolved)
}

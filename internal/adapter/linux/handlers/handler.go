// Package handlers implements the stat family of Linux syscalls on top of
// the virtual filesystem.
//
// Each syscall lives in its own file (stat.go, fstat.go, fstatat.go, ...)
// holding its request and response structures and the handler method. The
// dispatcher in the parent package decodes raw registers into request
// structs and turns response errnos into syscall return values, so
// everything here works with typed arguments.
//
// Handlers communicate results the way the kernel does: through guest
// memory. A successful call writes the encoded reply buffer in a single
// store; a failed call reports an errno and leaves guest memory untouched.
package handlers

import (
	"context"

	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/pkg/task"
	"github.com/velin-dev/velin/pkg/usermem"
	"github.com/velin-dev/velin/pkg/vfs"
)

// ============================================================================
// Handler and Context
// ============================================================================

// Handler implements the stat-family syscalls. It is stateless: every call
// resolves paths and descriptors fresh through the context's task, so a
// single Handler is safe for concurrent use by any number of tasks.
type Handler struct{}

// Context is the unified per-invocation context used by all syscall
// handlers.
//
// All handlers use the same fields because they all need to:
//   - Check for cancellation (Context)
//   - Read syscall arguments from guest memory (Task.Memory)
//   - Resolve paths against the working directory or a descriptor (Task)
//   - Write the reply buffer back to guest memory (Task.Memory)
type Context struct {
	// Context carries cancellation signals and deadlines, plus the trace
	// span and log fields the dispatcher attached. Handlers check it
	// before starting work so a disconnected or killed task does not
	// trigger filesystem I/O.
	Context context.Context

	// Task is the calling task: its guest memory, descriptor table,
	// working directory, and filesystem view.
	Task *task.Task
}

// isContextCancelled checks if the context has been cancelled.
//
// Example usage in a handler:
//
//	if ctx.isContextCancelled() {
//	    return &StatResponse{SyscallResponseBase: SyscallResponseBase{Errno: abi.EINTR}}, ctx.Context.Err()
//	}
func (c *Context) isContextCancelled() bool {
	select {
	case <-c.Context.Done():
		return true
	default:
		return false
	}
}

// ============================================================================
// Response Base
// ============================================================================

// SyscallResponseBase carries the errno every response reports back to the
// dispatcher. A zero errno means success.
type SyscallResponseBase struct {
	// Errno is the error number of the failed call, or zero.
	Errno abi.Errno
}

// GetErrno returns the response errno.
func (b SyscallResponseBase) GetErrno() abi.Errno {
	return b.Errno
}

// ReturnValue returns the value the dispatcher stores in the syscall
// return register: 0 on success, the negated errno on failure.
func (b SyscallResponseBase) ReturnValue() int64 {
	return -int64(b.Errno)
}

// ============================================================================
// Shared Helpers
// ============================================================================

// readPath reads the NUL-terminated pathname at addr from the task's guest
// memory, bounded by PATH_MAX.
//
// A null pointer reads as the empty string rather than faulting. For the
// dirfd-relative calls this matches the kernel (statx accepts a NULL
// pathname with AT_EMPTY_PATH since 6.11); the path-only calls then fail
// their empty-path check instead of faulting, which is indistinguishable
// to callers of an emulated flat address space where no page is unmapped
// at zero.
func (h *Handler) readPath(t *task.Task, addr uint64) (string, error) {
	if addr == 0 {
		return "", nil
	}
	return usermem.ReadCString(t.Memory(), addr, abi.PathMax)
}

// writeStat projects attr into the 144-byte stat layout and stores it at
// bufAddr. The store is a single write issued only after the whole record
// is encoded, so guest memory is never left half-written.
func writeStat(t *task.Task, bufAddr uint64, attr vfs.FileAttr) error {
	st := abi.StatFromAttr(attr)
	buf, err := st.Encode()
	if err != nil {
		return err
	}
	return t.Memory().WriteBytes(bufAddr, buf)
}

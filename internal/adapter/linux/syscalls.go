package linux

import (
	"fmt"

	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/adapter/linux/handlers"
	"github.com/velin-dev/velin/internal/telemetry"
)

// ============================================================================
// Syscall Dispatch Table
// ============================================================================

// syscallResponse is the part of a handler response the dispatcher needs:
// the errno for observability and the value for the return register. Every
// response in the handlers package satisfies it through
// handlers.SyscallResponseBase.
type syscallResponse interface {
	GetErrno() abi.Errno
	ReturnValue() int64
}

// syscallHandler defines the signature for syscall procedure handlers.
//
// Each handler decodes the registers its syscall defines into a typed
// request and invokes the handler method. The response is never nil:
// failures are reported through the response errno, and the error return
// is non-nil only for context cancellation.
type syscallHandler func(
	ctx *handlers.Context,
	handler *handlers.Handler,
	args [6]uint64,
) (syscallResponse, error)

// syscallProcedure contains metadata about a syscall for dispatch.
type syscallProcedure struct {
	// Name is the syscall name for logging and metrics (e.g., "stat",
	// "newfstatat")
	Name string

	// Handler is the function that decodes registers and processes this
	// syscall
	Handler syscallHandler

	// ReplySize is the number of guest memory bytes a successful call
	// writes, for reply byte accounting
	ReplySize uint64
}

// SyscallTable maps syscall numbers to their procedures.
//
// The table is initialized once at package init time. Numbers absent from
// the table dispatch to -ENOSYS.
var SyscallTable map[uint64]*syscallProcedure

// init initializes the syscall dispatch table.
func init() {
	initSyscallTable()
}

func initSyscallTable() {
	SyscallTable = map[uint64]*syscallProcedure{
		abi.SysStat: {
			Name:      "stat",
			Handler:   handleStat,
			ReplySize: abi.StatSize,
		},
		abi.SysFstat: {
			Name:      "fstat",
			Handler:   handleFstat,
			ReplySize: abi.StatSize,
		},
		abi.SysLstat: {
			Name:      "lstat",
			Handler:   handleLstat,
			ReplySize: abi.StatSize,
		},
		abi.SysStatfs: {
			Name:      "statfs",
			Handler:   handleStatfs,
			ReplySize: abi.StatfsSize,
		},
		abi.SysFstatfs: {
			Name:      "fstatfs",
			Handler:   handleFstatfs,
			ReplySize: abi.StatfsSize,
		},
		abi.SysNewfstatat: {
			Name:      "newfstatat",
			Handler:   handleFstatat,
			ReplySize: abi.StatSize,
		},
		abi.SysStatx: {
			Name:      "statx",
			Handler:   handleStatx,
			ReplySize: abi.StatxSize,
		},
	}
}

// Name returns the syscall name for a number, or "syscall_N" for numbers
// outside the table.
func Name(nr uint64) string {
	if procedure, ok := SyscallTable[nr]; ok {
		return procedure.Name
	}
	return fmt.Sprintf("syscall_%d", nr)
}

// ============================================================================
// Syscall Procedure Handlers
// ============================================================================
//
// Each handler below decodes the argument registers for one syscall and
// forwards to the handlers package. Register decoding follows the kernel:
// descriptors and flags are the low 32 bits of their register, so the
// AT_FDCWD sentinel (-100) arrives as 0xffffffffffffff9c and truncates
// back to the negative value. Addresses use the full register.
//
// Decoded descriptor, flag, and mask registers are attached to the
// syscall span; address registers are not, to keep guest pointers out of
// trace storage.

func handleStat(
	ctx *handlers.Context,
	handler *handlers.Handler,
	args [6]uint64,
) (syscallResponse, error) {
	return handler.Stat(ctx, &handlers.StatRequest{
		PathAddr: args[0],
		BufAddr:  args[1],
	})
}

func handleFstat(
	ctx *handlers.Context,
	handler *handlers.Handler,
	args [6]uint64,
) (syscallResponse, error) {
	req := &handlers.FstatRequest{
		FD:      int32(args[0]),
		BufAddr: args[1],
	}
	telemetry.SetAttributes(ctx.Context, telemetry.SyscallFD(req.FD))
	return handler.Fstat(ctx, req)
}

func handleLstat(
	ctx *handlers.Context,
	handler *handlers.Handler,
	args [6]uint64,
) (syscallResponse, error) {
	return handler.Lstat(ctx, &handlers.LstatRequest{
		PathAddr: args[0],
		BufAddr:  args[1],
	})
}

func handleStatfs(
	ctx *handlers.Context,
	handler *handlers.Handler,
	args [6]uint64,
) (syscallResponse, error) {
	return handler.Statfs(ctx, &handlers.StatfsRequest{
		PathAddr: args[0],
		BufAddr:  args[1],
	})
}

func handleFstatfs(
	ctx *handlers.Context,
	handler *handlers.Handler,
	args [6]uint64,
) (syscallResponse, error) {
	req := &handlers.FstatfsRequest{
		FD:      int32(args[0]),
		BufAddr: args[1],
	}
	telemetry.SetAttributes(ctx.Context, telemetry.SyscallFD(req.FD))
	return handler.Fstatfs(ctx, req)
}

func handleFstatat(
	ctx *handlers.Context,
	handler *handlers.Handler,
	args [6]uint64,
) (syscallResponse, error) {
	req := &handlers.FstatatRequest{
		Dirfd:    int32(args[0]),
		PathAddr: args[1],
		BufAddr:  args[2],
		Flags:    int32(args[3]),
	}
	telemetry.SetAttributes(ctx.Context,
		telemetry.SyscallDirfd(req.Dirfd),
		telemetry.SyscallFlags(req.Flags))
	return handler.Fstatat(ctx, req)
}

func handleStatx(
	ctx *handlers.Context,
	handler *handlers.Handler,
	args [6]uint64,
) (syscallResponse, error) {
	req := &handlers.StatxRequest{
		Dirfd:    int32(args[0]),
		PathAddr: args[1],
		Flags:    int32(args[2]),
		Mask:     uint32(args[3]),
		BufAddr:  args[4],
	}
	telemetry.SetAttributes(ctx.Context,
		telemetry.SyscallDirfd(req.Dirfd),
		telemetry.SyscallFlags(req.Flags),
		telemetry.SyscallMask(req.Mask))
	return handler.Statx(ctx, req)
}

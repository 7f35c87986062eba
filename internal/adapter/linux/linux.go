// Package linux dispatches raw syscall invocations to the stat family
// handlers.
//
// The adapter owns the outermost per-call pipeline: table lookup by
// syscall number, register decoding, tracing, logging, and metrics. The
// handlers package underneath works with typed requests and never sees
// raw registers; this package never interprets filesystem semantics.
package linux

import (
	"context"
	"fmt"
	"time"

	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/adapter/linux/handlers"
	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/internal/telemetry"
	"github.com/velin-dev/velin/pkg/metrics"
	"github.com/velin-dev/velin/pkg/task"
)

// ============================================================================
// Invocation and Result Structures
// ============================================================================

// Invocation is a raw syscall as the guest issued it: the number from rax
// and the six argument registers (rdi, rsi, rdx, r10, r8, r9) in order.
// Unused registers carry garbage; each procedure decodes only the
// registers its syscall defines.
type Invocation struct {
	// Number is the syscall number (abi.SysStat, abi.SysFstat, ...).
	Number uint64

	// Args holds the six argument registers.
	Args [6]uint64
}

// Result is the outcome of a dispatched syscall.
type Result struct {
	// Value is the raw return register: 0 on success, the negated errno
	// on failure.
	Value int64

	// Name is the resolved syscall name, for logging and display.
	Name string

	// Errno is the error number of a failed call, or zero.
	// This is duplicated from Value for observability purposes.
	Errno abi.Errno
}

// ============================================================================
// Adapter
// ============================================================================

// Adapter routes syscall invocations to their handlers.
//
// A single Adapter serves any number of tasks concurrently: it holds no
// per-call state, and the handlers below it are stateless as well.
type Adapter struct {
	handler *handlers.Handler
	metrics metrics.SyscallMetrics
}

// New creates a syscall adapter.
//
// Pass nil metrics to disable collection:
//
//	adapter := linux.New(nil)
func New(m metrics.SyscallMetrics) *Adapter {
	return &Adapter{
		handler: &handlers.Handler{},
		metrics: m,
	}
}

// Dispatch executes one syscall invocation on behalf of a task.
//
// The returned Result always carries a usable return register value:
// unknown syscall numbers produce -ENOSYS, failed calls the negated
// errno, successful calls zero. The error return is non-nil only when
// the context was cancelled; protocol-level failures travel exclusively
// through Result.
//
// The pipeline wraps every known procedure the same way:
//  1. Start a trace span and inject trace/syscall fields into the
//     logger context
//  2. Check for cancellation before touching the handler
//  3. Record in-flight, duration, and outcome metrics
//  4. Decode registers and run the handler
func (a *Adapter) Dispatch(ctx context.Context, t *task.Task, call Invocation) (Result, error) {
	procedure, ok := SyscallTable[call.Number]
	if !ok {
		logger.Debug("Unknown syscall number",
			"syscall_nr", call.Number,
			"pid", t.PID())
		return Result{
			Value: -int64(abi.ENOSYS),
			Name:  fmt.Sprintf("syscall_%d", call.Number),
			Errno: abi.ENOSYS,
		}, nil
	}

	// Start a span for this syscall.
	// The span is passed through the context to all downstream operations.
	ctx, span := telemetry.StartSyscallSpan(ctx, procedure.Name, t.PID(),
		telemetry.SyscallNr(call.Number),
		telemetry.TaskCwd(t.Cwd()))
	defer span.End()

	// Inject trace context into the logger context for log-trace correlation
	lc := logger.NewLogContext(t.PID()).
		WithSyscall(procedure.Name).
		WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	logger.DebugCtx(ctx, "Syscall request",
		"syscall_nr", call.Number,
		"cwd", t.Cwd())

	// Check context before dispatching to the handler
	select {
	case <-ctx.Done():
		telemetry.RecordError(ctx, ctx.Err())
		logger.DebugCtx(ctx, "Syscall cancelled before handler")
		return Result{
			Value: -int64(abi.EINTR),
			Name:  procedure.Name,
			Errno: abi.EINTR,
		}, ctx.Err()
	default:
	}

	if a.metrics != nil {
		a.metrics.RecordSyscallStart(procedure.Name)
		defer a.metrics.RecordSyscallEnd(procedure.Name)
	}

	// Execute the handler and measure duration
	startTime := time.Now()
	resp, err := procedure.Handler(
		&handlers.Context{Context: ctx, Task: t},
		a.handler,
		call.Args,
	)
	duration := time.Since(startTime)

	errno := resp.GetErrno()

	// Record completion with the symbolic errno (e.g., "ENOENT").
	// Successful calls pass an empty string so they are not labelled as
	// errors; their fixed-size reply is counted instead.
	if a.metrics != nil {
		var status string
		if errno != 0 {
			status = errno.Name()
		} else {
			a.metrics.RecordReplyBytes(procedure.Name, procedure.ReplySize)
		}
		a.metrics.RecordSyscall(procedure.Name, duration, status)
	}

	if err != nil {
		telemetry.RecordError(ctx, err)
	} else if errno != 0 {
		telemetry.SetAttributes(ctx, telemetry.SyscallErrno(errno.Name()))
	}

	ret := resp.ReturnValue()
	telemetry.SetAttributes(ctx, telemetry.SyscallRet(ret))

	logger.DebugCtx(ctx, "Syscall complete",
		"ret", ret,
		"duration_ms", logger.Duration(startTime))

	return Result{Value: ret, Name: procedure.Name, Errno: errno}, err
}

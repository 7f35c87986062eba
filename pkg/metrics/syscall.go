package metrics

import (
	"time"
)

// SyscallMetrics provides observability for the syscall dispatch layer.
//
// Implementations can collect metrics about emulated syscalls, task
// lifecycle, and reply traffic into guest memory. This interface is
// optional - pass nil to disable metrics collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics := prometheus.NewSyscallMetrics()
//	adapter := linux.New(metrics)
//
//	// Without metrics (pass nil for zero overhead)
//	adapter := linux.New(nil)
type SyscallMetrics interface {
	// RecordSyscall records a completed syscall with its name, duration,
	// and outcome.
	//
	// Parameters:
	//   - name: syscall name (e.g., "stat", "newfstatat")
	//   - duration: time taken to process the call
	//   - errno: symbolic errno if the call failed (e.g., "ENOENT"),
	//     empty if successful
	RecordSyscall(name string, duration time.Duration, errno string)

	// RecordSyscallStart increments the in-flight syscall counter.
	// Should be called when starting to process a call.
	RecordSyscallStart(name string)

	// RecordSyscallEnd decrements the in-flight syscall counter.
	// Should be called when call processing completes.
	RecordSyscallEnd(name string)

	// RecordReplyBytes records bytes of reply data copied into guest
	// memory by a successful call.
	RecordReplyBytes(name string, bytes uint64)

	// SetActiveTasks updates the current task count.
	SetActiveTasks(count int32)

	// RecordTaskCreated increments the total created tasks counter.
	RecordTaskCreated()

	// RecordTaskReleased increments the total released tasks counter.
	RecordTaskReleased()
}

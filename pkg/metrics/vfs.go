package metrics

import (
	"time"
)

// VFSMetrics provides observability for filesystem backends.
//
// Implementations collect per-backend operation latencies and mount-level
// capacity gauges. This interface is optional - pass nil to disable
// collection with zero overhead.
type VFSMetrics interface {
	// ObserveOperation records a backend operation with its duration and
	// outcome.
	//
	// Parameters:
	//   - backend: backend type (e.g., "mem", "badger", "s3")
	//   - operation: operation name (e.g., "open_file", "mkdir")
	//   - duration: time taken to perform the operation
	//   - err: error if the operation failed, nil if successful
	ObserveOperation(backend string, operation string, duration time.Duration, err error)

	// SetMounts updates the number of active mounts in the namespace.
	SetMounts(count int)

	// SetBytesUsed updates the content bytes held under a mount point.
	// Only backends that can report usage cheaply publish this.
	SetBytesUsed(mount string, bytes uint64)
}

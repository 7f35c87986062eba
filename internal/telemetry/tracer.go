package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for emulator operations.
// These follow OpenTelemetry semantic conventions where applicable.
// Layer-agnostic keys use "fs." prefix, syscall-specific use "syscall.".
const (
	// ========================================================================
	// Task attributes
	// ========================================================================
	AttrPID     = "task.pid"
	AttrTaskCwd = "task.cwd"

	// ========================================================================
	// Syscall attributes
	// ========================================================================
	AttrSyscallName  = "syscall.name"
	AttrSyscallNr    = "syscall.nr"
	AttrSyscallFD    = "syscall.fd"
	AttrSyscallDirfd = "syscall.dirfd"
	AttrSyscallFlags = "syscall.flags"
	AttrSyscallMask  = "syscall.mask"
	AttrSyscallErrno = "syscall.errno"
	AttrSyscallRet   = "syscall.ret"

	// ========================================================================
	// Backend attributes
	// ========================================================================
	AttrOperation = "fs.operation" // Backend operation name
	AttrBackend   = "fs.backend"   // Backend type (mem, badger, s3)
	AttrSize      = "fs.size"      // Byte count of the operation
	AttrBucket    = "storage.bucket"
	AttrKey       = "storage.key"
)

// PID returns an attribute for the calling task's process ID
func PID(pid uint32) attribute.KeyValue {
	return attribute.Int64(AttrPID, int64(pid))
}

// TaskCwd returns an attribute for the task's working directory
func TaskCwd(cwd string) attribute.KeyValue {
	return attribute.String(AttrTaskCwd, cwd)
}

// SyscallName returns an attribute for a syscall name
func SyscallName(name string) attribute.KeyValue {
	return attribute.String(AttrSyscallName, name)
}

// SyscallNr returns an attribute for a syscall number
func SyscallNr(nr uint64) attribute.KeyValue {
	return attribute.Int64(AttrSyscallNr, int64(nr))
}

// SyscallFD returns an attribute for a file descriptor argument
func SyscallFD(fd int32) attribute.KeyValue {
	return attribute.Int(AttrSyscallFD, int(fd))
}

// SyscallDirfd returns an attribute for a directory descriptor argument
func SyscallDirfd(dirfd int32) attribute.KeyValue {
	return attribute.Int(AttrSyscallDirfd, int(dirfd))
}

// SyscallFlags returns an attribute for a flags argument
func SyscallFlags(flags int32) attribute.KeyValue {
	return attribute.Int(AttrSyscallFlags, int(flags))
}

// SyscallMask returns an attribute for a statx mask argument
func SyscallMask(mask uint32) attribute.KeyValue {
	return attribute.Int64(AttrSyscallMask, int64(mask))
}

// SyscallErrno returns an attribute for the errno a syscall failed with
func SyscallErrno(errno string) attribute.KeyValue {
	return attribute.String(AttrSyscallErrno, errno)
}

// SyscallRet returns an attribute for a syscall return value
func SyscallRet(ret int64) attribute.KeyValue {
	return attribute.Int64(AttrSyscallRet, ret)
}

// FSOperation returns an attribute for a backend operation name
func FSOperation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// FSBackend returns an attribute for the backend type serving a mount
func FSBackend(backend string) attribute.KeyValue {
	return attribute.String(AttrBackend, backend)
}

// FSSize returns an attribute for a byte count
func FSSize(size uint64) attribute.KeyValue {
	return attribute.Int64(AttrSize, int64(size))
}

// Bucket returns an attribute for S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for S3 object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// StartSyscallSpan starts a span for an emulated syscall.
// This is a convenience function that sets common attributes.
func StartSyscallSpan(ctx context.Context, name string, pid uint32, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		SyscallName(name),
		PID(pid),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "syscall."+name, trace.WithAttributes(allAttrs...))
}

// StartBackendSpan starts a span for a storage backend operation.
func StartBackendSpan(ctx context.Context, backend, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		FSBackend(backend),
		FSOperation(operation),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, backend+"."+operation, trace.WithAttributes(allAttrs...))
}

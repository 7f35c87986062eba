package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so logs stay
// greppable and aggregatable across packages.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Syscall Surface
	// ========================================================================
	KeySyscall   = "syscall"    // Syscall name: stat, fstat, newfstatat, etc.
	KeySyscallNr = "syscall_nr" // Raw syscall number from the guest
	KeyPID       = "pid"        // Calling task PID
	KeyFD        = "fd"         // File descriptor argument
	KeyDirfd     = "dirfd"      // Directory descriptor anchoring relative paths
	KeyFlags     = "flags"      // Syscall flags argument (hex)
	KeyMask      = "mask"       // statx field mask (hex)
	KeyErrno     = "errno"      // Symbolic errno of a failed call (ENOENT, EBADF, ...)
	KeyRet       = "ret"        // Raw syscall return value
	KeyAddr      = "addr"       // Guest memory address (hex)

	// ========================================================================
	// File System Operations
	// ========================================================================
	KeyPath       = "path"        // Full file/directory path
	KeyFilename   = "filename"    // File or directory name (basename)
	KeyParentPath = "parent_path" // Parent directory path
	KeyType       = "type"        // File type: file, directory, etc.
	KeySize       = "size"        // File size in bytes
	KeyMode       = "mode"        // File mode/permissions (Unix-style)
	KeyIno        = "ino"         // Inode number
	KeyNlink      = "nlink"       // Hard link count
	KeyMount      = "mount"       // Mount point: /data, /archive, etc.
	KeyBackend    = "backend"     // Filesystem backend: mem, badger, s3

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeyOperation  = "operation"   // Sub-operation type for complex operations
	KeyEntries    = "entries"     // Number of directory entries

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyStoreName  = "store_name"  // Named store identifier
	KeyStoreType  = "store_type"  // Store type: memory, badger, s3
	KeyBucket     = "bucket"      // Cloud bucket name (S3)
	KeyKey        = "key"         // Object key in cloud storage
	KeyRegion     = "region"      // Cloud region
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Syscall Surface
// ----------------------------------------------------------------------------

// Syscall returns a slog.Attr for the syscall name
func Syscall(name string) slog.Attr {
	return slog.String(KeySyscall, name)
}

// SyscallNr returns a slog.Attr for the raw syscall number
func SyscallNr(nr uint64) slog.Attr {
	return slog.Uint64(KeySyscallNr, nr)
}

// PID returns a slog.Attr for the calling task PID
func PID(pid uint32) slog.Attr {
	return slog.Any(KeyPID, pid)
}

// FD returns a slog.Attr for a file descriptor
func FD(fd int32) slog.Attr {
	return slog.Int(KeyFD, int(fd))
}

// Dirfd returns a slog.Attr for a directory descriptor
func Dirfd(fd int32) slog.Attr {
	return slog.Int(KeyDirfd, int(fd))
}

// Flags returns a slog.Attr for a flags argument, formatted as hex
func Flags(flags int32) slog.Attr {
	return slog.String(KeyFlags, fmt.Sprintf("%#x", flags))
}

// Mask returns a slog.Attr for a statx field mask, formatted as hex
func Mask(mask uint32) slog.Attr {
	return slog.String(KeyMask, fmt.Sprintf("%#x", mask))
}

// Errno returns a slog.Attr for a symbolic errno name
func Errno(name string) slog.Attr {
	return slog.String(KeyErrno, name)
}

// Ret returns a slog.Attr for a raw syscall return value
func Ret(v int64) slog.Attr {
	return slog.Int64(KeyRet, v)
}

// Addr returns a slog.Attr for a guest memory address, formatted as hex
func Addr(addr uint64) slog.Attr {
	return slog.String(KeyAddr, fmt.Sprintf("%#x", addr))
}

// ----------------------------------------------------------------------------
// File System Operations
// ----------------------------------------------------------------------------

// Path returns a slog.Attr for file/directory path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Filename returns a slog.Attr for filename (basename)
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// ParentPath returns a slog.Attr for parent directory path
func ParentPath(p string) slog.Attr {
	return slog.String(KeyParentPath, p)
}

// TypeStr returns a slog.Attr for file type as string
func TypeStr(t string) slog.Attr {
	return slog.String(KeyType, t)
}

// Size returns a slog.Attr for file size
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// Mode returns a slog.Attr for file mode/permissions, formatted as octal
func Mode(m uint32) slog.Attr {
	return slog.String(KeyMode, fmt.Sprintf("%#o", m))
}

// Ino returns a slog.Attr for an inode number
func Ino(ino uint64) slog.Attr {
	return slog.Uint64(KeyIno, ino)
}

// Nlink returns a slog.Attr for hard link count
func Nlink(n uint32) slog.Attr {
	return slog.Any(KeyNlink, n)
}

// Mount returns a slog.Attr for a mount point
func Mount(point string) slog.Attr {
	return slog.String(KeyMount, point)
}

// Backend returns a slog.Attr for a filesystem backend type
func Backend(b string) slog.Attr {
	return slog.String(KeyBackend, b)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Operation returns a slog.Attr for sub-operation type
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Entries returns a slog.Attr for number of directory entries
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

// ----------------------------------------------------------------------------
// Storage Backend
// ----------------------------------------------------------------------------

// StoreName returns a slog.Attr for named store identifier
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// StoreType returns a slog.Attr for store type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for cloud bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for object key in cloud storage
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Region returns a slog.Attr for cloud region
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

package abi

import "fmt"

// Errno is a Linux error number. The dispatcher negates it into the
// syscall return value, so Errno(0) is never a valid error.
type Errno uint32

// Error numbers used by the stat family (asm-generic/errno-base.h and
// asm-generic/errno.h).
const (
	EPERM        Errno = 1
	ENOENT       Errno = 2
	EINTR        Errno = 4
	EIO          Errno = 5
	EBADF        Errno = 9
	ENOMEM       Errno = 12
	EACCES       Errno = 13
	EFAULT       Errno = 14
	EEXIST       Errno = 17
	ENOTDIR      Errno = 20
	EISDIR       Errno = 21
	EINVAL       Errno = 22
	ENOSPC       Errno = 28
	EROFS        Errno = 30
	ENAMETOOLONG Errno = 36
	ENOSYS       Errno = 38
	ENOTEMPTY    Errno = 39
	EOVERFLOW    Errno = 75
	EOPNOTSUPP   Errno = 95
)

var errnoNames = map[Errno]string{
	EPERM:        "operation not permitted",
	ENOENT:       "no such file or directory",
	EINTR:        "interrupted system call",
	EIO:          "input/output error",
	EBADF:        "bad file descriptor",
	ENOMEM:       "cannot allocate memory",
	EACCES:       "permission denied",
	EFAULT:       "bad address",
	EEXIST:       "file exists",
	ENOTDIR:      "not a directory",
	EISDIR:       "is a directory",
	EINVAL:       "invalid argument",
	ENOSPC:       "no space left on device",
	EROFS:        "read-only file system",
	ENAMETOOLONG: "file name too long",
	ENOSYS:       "function not implemented",
	ENOTEMPTY:    "directory not empty",
	EOVERFLOW:    "value too large for defined data type",
	EOPNOTSUPP:   "operation not supported",
}

var errnoSymbols = map[Errno]string{
	EPERM:        "EPERM",
	ENOENT:       "ENOENT",
	EINTR:        "EINTR",
	EIO:          "EIO",
	EBADF:        "EBADF",
	ENOMEM:       "ENOMEM",
	EACCES:       "EACCES",
	EFAULT:       "EFAULT",
	EEXIST:       "EEXIST",
	ENOTDIR:      "ENOTDIR",
	EISDIR:       "EISDIR",
	EINVAL:       "EINVAL",
	ENOSPC:       "ENOSPC",
	EROFS:        "EROFS",
	ENAMETOOLONG: "ENAMETOOLONG",
	ENOSYS:       "ENOSYS",
	ENOTEMPTY:    "ENOTEMPTY",
	EOVERFLOW:    "EOVERFLOW",
	EOPNOTSUPP:   "EOPNOTSUPP",
}

// Error implements the error interface, so handlers can return an Errno
// directly.
func (e Errno) Error() string {
	if name, ok := errnoNames[e]; ok {
		return name
	}
	return fmt.Sprintf("errno %d", uint32(e))
}

// Name returns the symbolic constant (e.g., "ENOENT") for logs and metric
// labels. Unknown values format as their decimal number.
func (e Errno) Name() string {
	if sym, ok := errnoSymbols[e]; ok {
		return sym
	}
	return fmt.Sprintf("errno_%d", uint32(e))
}

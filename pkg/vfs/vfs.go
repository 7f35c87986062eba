// Package vfs defines the virtual filesystem contract the syscall layer is
// written against. Filesystem implementations live in subpackages (memfs,
// badgerfs, s3fs); the mount namespace composes them into a single tree.
//
// Paths passed to a Filesystem are absolute within that filesystem instance
// ("/", "/dir/file") and already cleaned by the caller.
package vfs

import (
	"context"
	"sync/atomic"
)

// OpenOptions controls how a file or directory is opened.
type OpenOptions struct {
	// Read requests read access.
	Read bool

	// Write requests write access. Read-only filesystems reject it.
	Write bool
}

// ReadOnly returns the options used for metadata probes.
func ReadOnly() OpenOptions {
	return OpenOptions{Read: true}
}

// FileLike is implemented by any open handle that can produce metadata.
// Both files and directories satisfy it; the descriptor table and the stat
// family operate on this interface so a descriptor's kind never matters
// for metadata queries.
type FileLike interface {
	// Stat returns a consistent snapshot of the object's metadata record.
	Stat(ctx context.Context) (FileAttr, error)

	// Close releases the handle. Implementations tolerate a single Close;
	// callers must not use the handle afterwards.
	Close(ctx context.Context) error
}

// File is an open regular file.
type File interface {
	FileLike

	// ReadAt reads len(p) bytes from the given offset. Short reads at end
	// of file return the count read with no error; reads entirely past the
	// end return 0.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
}

// Directory is an open directory.
type Directory interface {
	FileLike

	// ReadDir lists the directory's entries. "." and ".." are not included.
	ReadDir(ctx context.Context) ([]DirEntry, error)
}

// Filesystem is a mountable file tree.
//
// Error contract: OpenFile on a directory fails ErrIsDirectory; this exact
// classification drives the stat family's open-and-classify probe.
// OpenDirectory on a non-directory fails ErrNotDirectory. Lookup misses fail
// ErrNotFound. Mutations on read-only filesystems fail ErrReadOnly.
type Filesystem interface {
	// OpenFile opens the regular file at path.
	OpenFile(ctx context.Context, path string, opts OpenOptions) (File, error)

	// OpenDirectory opens the directory at path.
	OpenDirectory(ctx context.Context, path string, opts OpenOptions) (Directory, error)

	// Create creates a regular file. The parent directory must exist.
	Create(ctx context.Context, path string, mode uint32) (File, error)

	// Mkdir creates a directory. The parent directory must exist.
	Mkdir(ctx context.Context, path string, mode uint32) error

	// Remove deletes a file or an empty directory.
	Remove(ctx context.Context, path string) error
}

// nextDeviceID allocates one device id per filesystem instance, the way the
// kernel hands out anonymous block devices.
var nextDeviceID atomic.Uint64

// AllocateDeviceID returns a process-unique device id. Each Filesystem
// instance claims one at construction and stamps it into every FileAttr it
// returns.
func AllocateDeviceID() uint64 {
	return nextDeviceID.Add(1)
}

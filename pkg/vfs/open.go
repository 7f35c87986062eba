package vfs

import (
	"context"

	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// OpenAny opens path as a regular file and, when the filesystem classifies
// the target as a directory, reopens it as a directory. The probe is an
// explicit two-step: exactly one file open, then at most one directory
// open, and only the ErrIsDirectory classification triggers the second
// step. Every other file-open failure (not found, permission, I/O)
// propagates unmodified with no second attempt. A failure of the directory
// open itself also propagates unmodified.
//
// The returned bool reports whether the directory branch was taken.
func OpenAny(ctx context.Context, fs Filesystem, path string, opts OpenOptions) (FileLike, bool, error) {
	f, err := fs.OpenFile(ctx, path, opts)
	if err == nil {
		return f, false, nil
	}
	if !vfserrors.IsIsDirectory(err) {
		return nil, false, err
	}

	d, err := fs.OpenDirectory(ctx, path, opts)
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// StatPath resolves path to a metadata record through a transient handle:
// open-and-classify, stat, close. The handle is released on every exit
// path.
func StatPath(ctx context.Context, fs Filesystem, path string) (FileAttr, error) {
	fl, _, err := OpenAny(ctx, fs, path, ReadOnly())
	if err != nil {
		return FileAttr{}, err
	}
	defer fl.Close(ctx)

	return fl.Stat(ctx)
}

package metrics

import (
	"context"
	"time"

	"github.com/velin-dev/velin/pkg/vfs"
)

// instrumentedFS wraps a Filesystem, timing every operation into a
// VFSMetrics sink. The wrapper preserves the wrapped filesystem's error
// contract exactly; only observation is added.
type instrumentedFS struct {
	fs      vfs.Filesystem
	m       VFSMetrics
	backend string
}

// InstrumentFilesystem wraps fs so that every operation is recorded
// against the given backend label. Returns fs unchanged when m is nil.
func InstrumentFilesystem(fs vfs.Filesystem, m VFSMetrics, backend string) vfs.Filesystem {
	if m == nil {
		return fs
	}
	return &instrumentedFS{fs: fs, m: m, backend: backend}
}

func (i *instrumentedFS) OpenFile(ctx context.Context, path string, opts vfs.OpenOptions) (vfs.File, error) {
	start := time.Now()
	f, err := i.fs.OpenFile(ctx, path, opts)
	i.m.ObserveOperation(i.backend, "open_file", time.Since(start), err)
	return f, err
}

func (i *instrumentedFS) OpenDirectory(ctx context.Context, path string, opts vfs.OpenOptions) (vfs.Directory, error) {
	start := time.Now()
	d, err := i.fs.OpenDirectory(ctx, path, opts)
	i.m.ObserveOperation(i.backend, "open_directory", time.Since(start), err)
	return d, err
}

func (i *instrumentedFS) Create(ctx context.Context, path string, mode uint32) (vfs.File, error) {
	start := time.Now()
	f, err := i.fs.Create(ctx, path, mode)
	i.m.ObserveOperation(i.backend, "create", time.Since(start), err)
	return f, err
}

func (i *instrumentedFS) Mkdir(ctx context.Context, path string, mode uint32) error {
	start := time.Now()
	err := i.fs.Mkdir(ctx, path, mode)
	i.m.ObserveOperation(i.backend, "mkdir", time.Since(start), err)
	return err
}

func (i *instrumentedFS) Remove(ctx context.Context, path string) error {
	start := time.Now()
	err := i.fs.Remove(ctx, path)
	i.m.ObserveOperation(i.backend, "remove", time.Since(start), err)
	return err
}

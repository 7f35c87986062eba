// Package task models the emulated processes that issue syscalls.
//
// A task owns an address space, a working directory, and a descriptor
// table, all bound to one filesystem view (normally a mount.Namespace).
// Syscall handlers resolve paths and descriptors through the task; the
// task never interprets syscall flags itself.
package task

import (
	"context"
	"path"
	"sync"

	"github.com/velin-dev/velin/pkg/usermem"
	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// FDCWD is the pseudo descriptor meaning "resolve against the working
// directory". Matches the kernel's AT_FDCWD.
const FDCWD int32 = -100

// Task is one emulated process.
type Task struct {
	pid uint32
	mem usermem.Memory
	fs  vfs.Filesystem
	fds *FDTable

	mu  sync.RWMutex // guards cwd
	cwd string
}

// New creates a task rooted at "/" with an empty descriptor table.
func New(pid uint32, fs vfs.Filesystem, mem usermem.Memory) *Task {
	return &Task{
		pid: pid,
		mem: mem,
		fs:  fs,
		fds: NewFDTable(),
		cwd: "/",
	}
}

func (t *Task) PID() uint32                { return t.pid }
func (t *Task) Memory() usermem.Memory     { return t.mem }
func (t *Task) Filesystem() vfs.Filesystem { return t.fs }
func (t *Task) Descriptors() *FDTable      { return t.fds }

// Cwd returns the current working directory.
func (t *Task) Cwd() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cwd
}

// Chdir changes the working directory after verifying the target resolves
// to a directory.
func (t *Task) Chdir(ctx context.Context, p string) error {
	resolved, err := t.ResolvePath(FDCWD, p)
	if err != nil {
		return err
	}

	d, err := t.fs.OpenDirectory(ctx, resolved, vfs.ReadOnly())
	if err != nil {
		return err
	}
	d.Close(ctx)

	t.mu.Lock()
	t.cwd = resolved
	t.mu.Unlock()
	return nil
}

// ResolvePath turns a (dirfd, path) pair into an absolute path.
//
// An absolute path stands alone: dirfd is ignored entirely, even when it
// is closed or nonsense. A relative path joins the working directory when
// dirfd is FDCWD, or the path of the directory descriptor otherwise. A
// dirfd that is open but not a directory fails with ErrNotDirectory.
func (t *Task) ResolvePath(dirfd int32, p string) (string, error) {
	if err := vfs.ValidatePath(p); err != nil {
		return "", err
	}

	if path.IsAbs(p) {
		return path.Clean(p), nil
	}

	if dirfd == FDCWD {
		return path.Join(t.Cwd(), p), nil
	}

	d, err := t.fds.Get(dirfd)
	if err != nil {
		return "", err
	}
	if !d.Dir {
		return "", vfserrors.NewNotDirectoryError(d.Path)
	}
	return path.Join(d.Path, p), nil
}

// OpenAt opens (dirfd, path) through the classify probe and installs the
// handle, returning the new descriptor number.
func (t *Task) OpenAt(ctx context.Context, dirfd int32, p string, opts vfs.OpenOptions) (int32, error) {
	resolved, err := t.ResolvePath(dirfd, p)
	if err != nil {
		return 0, err
	}

	fl, isDir, err := vfs.OpenAny(ctx, t.fs, resolved, opts)
	if err != nil {
		return 0, err
	}
	return t.fds.Install(fl, resolved, isDir), nil
}

// Close releases one descriptor.
func (t *Task) Close(ctx context.Context, fd int32) error {
	return t.fds.Close(ctx, fd)
}

// Release closes every open descriptor. Called when the task exits.
func (t *Task) Release(ctx context.Context) error {
	return t.fds.CloseAll(ctx)
}

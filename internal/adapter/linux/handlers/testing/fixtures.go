// Package testing provides test fixtures for Linux syscall handler
// behavioral tests.
//
// This package uses a real in-memory filesystem, a real task, and a real
// flat guest address space (not mocks) so tests exercise the same
// resolution, probe, and copy-out paths the dispatcher does.
package testing

import (
	"context"
	"path"
	"testing"

	"github.com/velin-dev/velin/internal/adapter/linux/abi"
	"github.com/velin-dev/velin/internal/adapter/linux/handlers"
	"github.com/velin-dev/velin/pkg/task"
	"github.com/velin-dev/velin/pkg/usermem"
	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
	"github.com/velin-dev/velin/pkg/vfs/memfs"
)

// DefaultPID is the task id used in test fixtures.
const DefaultPID = uint32(100)

// MemorySize is the size of the fixture's guest address space.
const MemorySize = 1 << 20

// allocBase is where the bump allocator starts handing out guest
// addresses. Leaving the first page unused keeps address 0 free to stand
// in for a null pointer in tests.
const allocBase = 0x1000

// HandlerTestFixture provides a complete test environment for syscall
// handlers.
//
// It sets up:
//   - A real in-memory filesystem
//   - A task with a working directory, descriptor table, and guest memory
//   - A Handler instance ready for testing
//
// Use NewHandlerFixture to create a fixture for each test.
type HandlerTestFixture struct {
	t *testing.T

	// Handler is the syscall handler under test.
	Handler *handlers.Handler

	// FS is the in-memory filesystem used for seeding files.
	FS *memfs.FileSystem

	// Task is the emulated process issuing the syscalls.
	Task *task.Task

	// Memory is the task's flat guest address space.
	Memory *usermem.FlatMemory

	next uint64
}

// NewHandlerFixture creates a new test fixture with default configuration:
// an empty memfs rooted at "/", a task with pid DefaultPID and cwd "/",
// and MemorySize bytes of guest memory.
func NewHandlerFixture(t *testing.T) *HandlerTestFixture {
	t.Helper()

	fs := memfs.New()
	return newFixture(t, fs, fs)
}

// NewCountingFixture creates a fixture whose task sees the filesystem
// through a CountingFilesystem, so tests can assert exactly how many
// opener calls a syscall performed.
func NewCountingFixture(t *testing.T) (*HandlerTestFixture, *CountingFilesystem) {
	t.Helper()

	fs := memfs.New()
	counting := &CountingFilesystem{Filesystem: fs}
	return newFixture(t, fs, counting), counting
}

func newFixture(t *testing.T, seed *memfs.FileSystem, view vfs.Filesystem) *HandlerTestFixture {
	t.Helper()

	mem := usermem.NewFlatMemory(MemorySize)
	return &HandlerTestFixture{
		t:       t,
		Handler: &handlers.Handler{},
		FS:      seed,
		Task:    task.New(DefaultPID, view, mem),
		Memory:  mem,
		next:    allocBase,
	}
}

// Context returns a new handler Context bound to the fixture's task.
func (f *HandlerTestFixture) Context() *handlers.Context {
	return &handlers.Context{
		Context: context.Background(),
		Task:    f.Task,
	}
}

// ContextWithCancellation returns a context that is already cancelled.
func (f *HandlerTestFixture) ContextWithCancellation() *handlers.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	return &handlers.Context{
		Context: ctx,
		Task:    f.Task,
	}
}

// ============================================================================
// Filesystem Seeding
// ============================================================================

// CreateDirectory creates a directory at the given absolute path,
// creating parents as needed.
func (f *HandlerTestFixture) CreateDirectory(p string) {
	f.t.Helper()

	ctx := context.Background()
	clean := path.Clean(p)

	partial := "/"
	for _, name := range splitPath(clean) {
		partial = path.Join(partial, name)
		err := f.FS.Mkdir(ctx, partial, 0o755)
		if err != nil && vfserrors.CodeOf(err) != vfserrors.ErrAlreadyExists {
			f.t.Fatalf("Failed to create directory %q: %v", partial, err)
		}
	}
}

// CreateFile creates a file at the given absolute path with the specified
// content. Parent directories are created automatically.
func (f *HandlerTestFixture) CreateFile(p string, content []byte) {
	f.t.Helper()

	if dir := path.Dir(p); dir != "/" {
		f.CreateDirectory(dir)
	}
	if err := f.FS.WriteFile(context.Background(), p, content, 0o644); err != nil {
		f.t.Fatalf("Failed to create file %q: %v", p, err)
	}
}

// OpenDescriptor opens the given path through the task, classifying it as
// file or directory, and returns the new descriptor number.
func (f *HandlerTestFixture) OpenDescriptor(p string) int32 {
	f.t.Helper()

	fd, err := f.Task.OpenAt(context.Background(), task.FDCWD, p, vfs.ReadOnly())
	if err != nil {
		f.t.Fatalf("Failed to open descriptor for %q: %v", p, err)
	}
	return fd
}

// CloseDescriptor closes a descriptor opened with OpenDescriptor.
func (f *HandlerTestFixture) CloseDescriptor(fd int32) {
	f.t.Helper()

	if err := f.Task.Close(context.Background(), fd); err != nil {
		f.t.Fatalf("Failed to close descriptor %d: %v", fd, err)
	}
}

// StatDirect stats a path straight through the filesystem, bypassing the
// syscall layer. Tests compare syscall output against it.
func (f *HandlerTestFixture) StatDirect(p string) vfs.FileAttr {
	f.t.Helper()

	attr, err := vfs.StatPath(context.Background(), f.FS, p)
	if err != nil {
		f.t.Fatalf("Failed to stat %q: %v", p, err)
	}
	return attr
}

// ============================================================================
// Guest Memory Helpers
// ============================================================================

// Alloc reserves n bytes of guest memory and returns their address.
// Allocations are 8-byte aligned and never reused within a fixture.
func (f *HandlerTestFixture) Alloc(n int) uint64 {
	addr := f.next
	f.next += (uint64(n) + 7) &^ 7
	if f.next > MemorySize {
		f.t.Fatalf("Fixture guest memory exhausted allocating %d bytes", n)
	}
	return addr
}

// WritePath stores a NUL-terminated pathname in guest memory and returns
// its address.
func (f *HandlerTestFixture) WritePath(p string) uint64 {
	f.t.Helper()

	addr := f.Alloc(len(p) + 1)
	if err := f.Memory.WriteBytes(addr, append([]byte(p), 0)); err != nil {
		f.t.Fatalf("Failed to write pathname %q to guest memory: %v", p, err)
	}
	return addr
}

// StatBuf allocates a struct stat output buffer.
func (f *HandlerTestFixture) StatBuf() uint64 {
	return f.Alloc(abi.StatSize)
}

// StatxBuf allocates a struct statx output buffer.
func (f *HandlerTestFixture) StatxBuf() uint64 {
	return f.Alloc(abi.StatxSize)
}

// StatfsBuf allocates a struct statfs output buffer.
func (f *HandlerTestFixture) StatfsBuf() uint64 {
	return f.Alloc(abi.StatfsSize)
}

// ReadBytes reads n raw bytes of guest memory at addr.
func (f *HandlerTestFixture) ReadBytes(addr uint64, n int) []byte {
	f.t.Helper()

	buf := make([]byte, n)
	if err := f.Memory.ReadBytes(addr, buf); err != nil {
		f.t.Fatalf("Failed to read %d bytes at %#x: %v", n, addr, err)
	}
	return buf
}

// FillBytes writes a repeated marker byte over n bytes at addr. Tests use
// it to detect buffers a failed call should have left untouched.
func (f *HandlerTestFixture) FillBytes(addr uint64, n int, marker byte) {
	f.t.Helper()

	buf := make([]byte, n)
	for i := range buf {
		buf[i] = marker
	}
	if err := f.Memory.WriteBytes(addr, buf); err != nil {
		f.t.Fatalf("Failed to fill %d bytes at %#x: %v", n, addr, err)
	}
}

// ReadStat decodes the struct stat in guest memory at addr.
func (f *HandlerTestFixture) ReadStat(addr uint64) *abi.Stat {
	f.t.Helper()

	st, err := abi.DecodeStat(f.ReadBytes(addr, abi.StatSize))
	if err != nil {
		f.t.Fatalf("Failed to decode struct stat at %#x: %v", addr, err)
	}
	return st
}

// ReadStatx decodes the struct statx in guest memory at addr.
func (f *HandlerTestFixture) ReadStatx(addr uint64) *abi.Statx {
	f.t.Helper()

	stx, err := abi.DecodeStatx(f.ReadBytes(addr, abi.StatxSize))
	if err != nil {
		f.t.Fatalf("Failed to decode struct statx at %#x: %v", addr, err)
	}
	return stx
}

// ReadStatfs decodes the struct statfs in guest memory at addr.
func (f *HandlerTestFixture) ReadStatfs(addr uint64) *abi.Statfs {
	f.t.Helper()

	sf, err := abi.DecodeStatfs(f.ReadBytes(addr, abi.StatfsSize))
	if err != nil {
		f.t.Fatalf("Failed to decode struct statfs at %#x: %v", addr, err)
	}
	return sf
}

// ============================================================================
// Counting Filesystem
// ============================================================================

// CountingFilesystem wraps a Filesystem and counts opener calls, so tests
// can assert exactly how many probe attempts a syscall performed.
// Mutations delegate to the embedded Filesystem uncounted.
type CountingFilesystem struct {
	vfs.Filesystem

	// FileOpens counts OpenFile calls.
	FileOpens int

	// DirOpens counts OpenDirectory calls.
	DirOpens int
}

// Reset zeroes both counters.
func (c *CountingFilesystem) Reset() {
	c.FileOpens = 0
	c.DirOpens = 0
}

// OpenFile counts the call and delegates.
func (c *CountingFilesystem) OpenFile(ctx context.Context, p string, opts vfs.OpenOptions) (vfs.File, error) {
	c.FileOpens++
	return c.Filesystem.OpenFile(ctx, p, opts)
}

// OpenDirectory counts the call and delegates.
func (c *CountingFilesystem) OpenDirectory(ctx context.Context, p string, opts vfs.OpenOptions) (vfs.Directory, error) {
	c.DirOpens++
	return c.Filesystem.OpenDirectory(ctx, p, opts)
}

// splitPath splits an absolute path into components, handling the root.
func splitPath(p string) []string {
	if p == "" || p == "/" || p == "." {
		return nil
	}

	var components []string
	for p != "/" && p != "." {
		dir, name := path.Split(p)
		if name != "" {
			components = append([]string{name}, components...)
		}
		p = path.Clean(dir)
	}
	return components
}

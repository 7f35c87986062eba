package task

import (
	"context"
	"sort"
	"sync"

	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// Descriptor is one open file table entry. Path records where the handle
// was opened, so relative lookups through a directory descriptor know
// their base.
type Descriptor struct {
	FD   int32
	File vfs.FileLike
	Path string
	Dir  bool
}

// FDTable maps descriptor numbers to open handles for one task.
type FDTable struct {
	mu      sync.RWMutex
	entries map[int32]*Descriptor
}

// NewFDTable returns an empty table.
func NewFDTable() *FDTable {
	return &FDTable{entries: make(map[int32]*Descriptor)}
}

// Install registers a handle and returns its descriptor number. Numbers
// are allocated lowest-free-first, the way the kernel hands them out.
func (t *FDTable) Install(file vfs.FileLike, path string, dir bool) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	fd := int32(0)
	for {
		if _, taken := t.entries[fd]; !taken {
			break
		}
		fd++
	}

	t.entries[fd] = &Descriptor{FD: fd, File: file, Path: path, Dir: dir}
	return fd
}

// Get looks up a descriptor. Unknown numbers fail with ErrBadDescriptor.
func (t *FDTable) Get(fd int32) (*Descriptor, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	d, ok := t.entries[fd]
	if !ok {
		return nil, vfserrors.NewBadDescriptorError(fd)
	}
	return d, nil
}

// Close removes a descriptor and releases its handle.
func (t *FDTable) Close(ctx context.Context, fd int32) error {
	t.mu.Lock()
	d, ok := t.entries[fd]
	if ok {
		delete(t.entries, fd)
	}
	t.mu.Unlock()

	if !ok {
		return vfserrors.NewBadDescriptorError(fd)
	}
	return d.File.Close(ctx)
}

// CloseAll releases every handle. The first close error wins; the rest
// still run.
func (t *FDTable) CloseAll(ctx context.Context) error {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[int32]*Descriptor)
	t.mu.Unlock()

	var firstErr error
	for _, d := range entries {
		if err := d.File.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Dump returns a snapshot of the table sorted by descriptor number.
func (t *FDTable) Dump() []Descriptor {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Descriptor, 0, len(t.entries))
	for _, d := range t.entries {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FD < out[j].FD })
	return out
}

// Len reports how many descriptors are open.
func (t *FDTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

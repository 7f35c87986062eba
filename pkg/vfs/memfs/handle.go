package memfs

import (
	"context"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// handle is an open reference to a node. The same type backs both vfs.File
// and vfs.Directory; the opener decides which interface the caller gets.
type handle struct {
	fs     *FileSystem
	node   *node
	path   string
	closed atomic.Bool
}

func newHandle(fs *FileSystem, n *node, path string) *handle {
	return &handle{fs: fs, node: n, path: path}
}

func (h *handle) guard() error {
	if h.closed.Load() {
		return &vfserrors.FSError{
			Code:    vfserrors.ErrBadDescriptor,
			Message: "handle is closed",
			Path:    h.path,
		}
	}
	return nil
}

// Stat returns a snapshot of the node's metadata record.
func (h *handle) Stat(ctx context.Context) (vfs.FileAttr, error) {
	if err := ctx.Err(); err != nil {
		return vfs.FileAttr{}, err
	}
	if err := h.guard(); err != nil {
		return vfs.FileAttr{}, err
	}

	h.fs.mu.RLock()
	defer h.fs.mu.RUnlock()

	return h.node.attr, nil
}

// Close releases the handle. Later operations on it fail ErrBadDescriptor.
func (h *handle) Close(ctx context.Context) error {
	h.closed.Store(true)
	return nil
}

// ReadAt reads from the node's content at the given offset.
func (h *handle) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := h.guard(); err != nil {
		return 0, err
	}

	h.fs.mu.RLock()
	defer h.fs.mu.RUnlock()

	if h.node.attr.Type == vfs.FileTypeDirectory {
		return 0, vfserrors.NewIsDirectoryError(h.path)
	}
	if off < 0 {
		return 0, vfserrors.NewInvalidArgumentError("negative offset")
	}
	if off >= int64(len(h.node.content)) {
		return 0, nil
	}

	return copy(p, h.node.content[off:]), nil
}

// ReadDir lists the directory's entries sorted by name.
func (h *handle) ReadDir(ctx context.Context) ([]vfs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.guard(); err != nil {
		return nil, err
	}

	h.fs.mu.RLock()
	defer h.fs.mu.RUnlock()

	if h.node.attr.Type != vfs.FileTypeDirectory {
		return nil, vfserrors.NewNotDirectoryError(h.path)
	}

	entries := make([]vfs.DirEntry, 0, len(h.node.children))
	for name, child := range h.node.children {
		entries = append(entries, vfs.DirEntry{
			Ino:  child.attr.Ino,
			Name: name,
			Type: child.attr.Type,
		})
	}
	slices.SortFunc(entries, func(a, b vfs.DirEntry) int {
		return strings.Compare(a.Name, b.Name)
	})

	return entries, nil
}

package badgerfs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// handle backs both vfs.File and vfs.Directory for badgerfs. Every
// operation reads fresh state from the database, so a handle observes
// writes made after it was opened.
type handle struct {
	fs     *FileSystem
	id     uuid.UUID
	path   string
	closed atomic.Bool
}

func newHandle(fs *FileSystem, id uuid.UUID, path string) *handle {
	return &handle{fs: fs, id: id, path: path}
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

func (h *handle) Stat(ctx context.Context) (vfs.FileAttr, error) {
	if err := ctx.Err(); err != nil {
		return vfs.FileAttr{}, err
	}
	if err := h.guard(); err != nil {
		return vfs.FileAttr{}, err
	}

	var attr vfs.FileAttr
	err := h.fs.db.View(func(txn *badger.Txn) error {
		n, err := h.fs.getNode(txn, h.id, h.path)
		if err != nil {
			return err
		}
		attr = n.Attr
		return nil
	})
	return attr, err
}

func (h *handle) Close(ctx context.Context) error {
	h.closed.Store(true)
	return nil
}

func (h *handle) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := h.guard(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, vfserrors.NewInvalidArgumentError("negative read offset")
	}

	var n int
	err := h.fs.db.View(func(txn *badger.Txn) error {
		rec, err := h.fs.getNode(txn, h.id, h.path)
		if err != nil {
			return err
		}
		if rec.Attr.Type == vfs.FileTypeDirectory {
			return vfserrors.NewIsDirectoryError(h.path)
		}

		item, err := txn.Get(keyContent(h.id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // file created but never written
		}
		if err != nil {
			return fmt.Errorf("get content: %w", err)
		}

		return item.Value(func(val []byte) error {
			if off >= int64(len(val)) {
				return nil
			}
			n = copy(p, val[off:])
			return nil
		})
	})
	return n, err
}

func (h *handle) ReadDir(ctx context.Context) ([]vfs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.guard(); err != nil {
		return nil, err
	}

	var entries []vfs.DirEntry
	err := h.fs.db.View(func(txn *badger.Txn) error {
		rec, err := h.fs.getNode(txn, h.id, h.path)
		if err != nil {
			return err
		}
		if rec.Attr.Type != vfs.FileTypeDirectory {
			return vfserrors.NewNotDirectoryError(h.path)
		}

		prefix := keyChildPrefix(h.id)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		// Keys iterate in order, so entries come out sorted by name.
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := string(item.Key()[len(prefix):])

			var childID uuid.UUID
			if err := item.Value(func(val []byte) error {
				if len(val) != 16 {
					return fmt.Errorf("corrupt child entry %q: %d bytes", name, len(val))
				}
				copy(childID[:], val)
				return nil
			}); err != nil {
				return err
			}

			child, err := h.fs.getNode(txn, childID, h.path+"/"+name)
			if err != nil {
				return err
			}

			entries = append(entries, vfs.DirEntry{
				Ino:  child.Attr.Ino,
				Name: name,
				Type: child.Attr.Type,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

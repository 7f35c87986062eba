// Package badgerfs implements a persistent vfs.Filesystem on BadgerDB.
//
// Layout: node records are JSON under "f:<uuid>", directory entries are
// "c:<parent-uuid>:<name>" keys holding the 16-byte child uuid, file content
// lives under "d:<uuid>", and "root" points at the root directory's uuid.
// Key order gives lexically sorted directory listings for free.
package badgerfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/velin-dev/velin/internal/logger"
	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// Config controls a badgerfs instance.
type Config struct {
	// Path is the Badger database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the whole database in memory. Used by tests.
	InMemory bool

	// UID and GID own every object created through this filesystem.
	UID uint32
	GID uint32
}

// FileSystem is a file tree persisted in a Badger database.
//
// Thread safety: Badger transactions provide isolation; no additional
// locking is needed.
type FileSystem struct {
	db     *badger.DB
	dev    uint64
	rootID uuid.UUID
	config Config
}

// nodeRecord is the stored form of one object.
type nodeRecord struct {
	ID     uuid.UUID    `json:"id"`
	Attr   vfs.FileAttr `json:"attr"`
	Parent uuid.UUID    `json:"parent"`
}

const keyRootPtr = "root"

func keyNode(id uuid.UUID) []byte {
	return append([]byte("f:"), id[:]...)
}

func keyContent(id uuid.UUID) []byte {
	return append([]byte("d:"), id[:]...)
}

func keyChildPrefix(parent uuid.UUID) []byte {
	k := append([]byte("c:"), parent[:]...)
	return append(k, ':')
}

func keyChild(parent uuid.UUID, name string) []byte {
	return append(keyChildPrefix(parent), name...)
}

func encodeNode(n *nodeRecord) ([]byte, error) {
	return json.Marshal(n)
}

func decodeNode(val []byte) (*nodeRecord, error) {
	var n nodeRecord
	if err := json.Unmarshal(val, &n); err != nil {
		return nil, fmt.Errorf("decode node record: %w", err)
	}
	return &n, nil
}

// Open opens (or creates) the database and ensures a root directory exists.
// The root persists across runs; reopening an existing database reuses it.
func Open(cfg Config) (*FileSystem, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	fs := &FileSystem{
		db:     db,
		dev:    vfs.AllocateDeviceID(),
		config: cfg,
	}

	if err := fs.initRoot(); err != nil {
		db.Close()
		return nil, err
	}

	return fs, nil
}

// initRoot creates the root directory on first open, or loads the persisted
// one on later opens.
func (fs *FileSystem) initRoot() error {
	return fs.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyRootPtr))
		if err == nil {
			return item.Value(func(val []byte) error {
				if len(val) != 16 {
					return fmt.Errorf("corrupt root pointer: %d bytes", len(val))
				}
				copy(fs.rootID[:], val)
				logger.Debug("Reusing persisted root directory", "root_id", fs.rootID)
				return nil
			})
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("read root pointer: %w", err)
		}

		now := time.Now()
		root := &nodeRecord{
			ID: uuid.New(),
			Attr: vfs.FileAttr{
				Dev:       fs.dev,
				Type:      vfs.FileTypeDirectory,
				Mode:      0o755,
				Nlink:     2,
				UID:       fs.config.UID,
				GID:       fs.config.GID,
				BlockSize: vfs.DefaultBlockSize,
				Atime:     now,
				Mtime:     now,
				Ctime:     now,
			},
		}
		root.Attr.Ino = vfs.InodeForID(root.ID)

		val, err := encodeNode(root)
		if err != nil {
			return err
		}
		if err := txn.Set(keyNode(root.ID), val); err != nil {
			return fmt.Errorf("store root node: %w", err)
		}
		if err := txn.Set([]byte(keyRootPtr), root.ID[:]); err != nil {
			return fmt.Errorf("store root pointer: %w", err)
		}

		fs.rootID = root.ID
		logger.Debug("Created new root directory", "root_id", fs.rootID)
		return nil
	})
}

// Close closes the underlying database.
func (fs *FileSystem) Close() error {
	return fs.db.Close()
}

// getNode reads one node record inside a transaction. The stored device id
// belongs to the instance that wrote the record, so it is restamped with the
// current one.
func (fs *FileSystem) getNode(txn *badger.Txn, id uuid.UUID, p string) (*nodeRecord, error) {
	item, err := txn.Get(keyNode(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, vfserrors.NewNotFoundError(p)
	}
	if err != nil {
		return nil, fmt.Errorf("get node: %w", err)
	}

	var n *nodeRecord
	err = item.Value(func(val []byte) error {
		decoded, err := decodeNode(val)
		if err != nil {
			return err
		}
		n = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	n.Attr.Dev = fs.dev
	return n, nil
}

func putNode(txn *badger.Txn, n *nodeRecord) error {
	val, err := encodeNode(n)
	if err != nil {
		return err
	}
	return txn.Set(keyNode(n.ID), val)
}

// lookup walks an absolute, cleaned path to its node record.
func (fs *FileSystem) lookup(txn *badger.Txn, p string) (*nodeRecord, error) {
	if err := vfs.ValidatePath(p); err != nil {
		return nil, err
	}

	current, err := fs.getNode(txn, fs.rootID, "/")
	if err != nil {
		return nil, err
	}

	for _, name := range splitPath(p) {
		switch name {
		case ".":
			continue
		case "..":
			if current.Parent != uuid.Nil {
				current, err = fs.getNode(txn, current.Parent, p)
				if err != nil {
					return nil, err
				}
			}
			continue
		}

		if current.Attr.Type != vfs.FileTypeDirectory {
			return nil, vfserrors.NewNotDirectoryError(p)
		}

		item, err := txn.Get(keyChild(current.ID, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, vfserrors.NewNotFoundError(p)
		}
		if err != nil {
			return nil, fmt.Errorf("get child entry: %w", err)
		}

		var childID uuid.UUID
		err = item.Value(func(val []byte) error {
			if len(val) != 16 {
				return fmt.Errorf("corrupt child entry: %d bytes", len(val))
			}
			copy(childID[:], val)
			return nil
		})
		if err != nil {
			return nil, err
		}

		current, err = fs.getNode(txn, childID, p)
		if err != nil {
			return nil, err
		}
	}

	return current, nil
}

// lookupParent resolves the parent directory of p and the final component.
func (fs *FileSystem) lookupParent(txn *badger.Txn, p string) (*nodeRecord, string, error) {
	dir, name := path.Split(path.Clean(p))
	if err := vfs.ValidateName(name); err != nil {
		return nil, "", err
	}

	parent, err := fs.lookup(txn, dir)
	if err != nil {
		return nil, "", err
	}
	if parent.Attr.Type != vfs.FileTypeDirectory {
		return nil, "", vfserrors.NewNotDirectoryError(dir)
	}

	return parent, name, nil
}

func splitPath(p string) []string {
	clean := path.Clean(p)
	if clean == "/" || clean == "." {
		return nil
	}
	parts := make([]string, 0, 8)
	start := 0
	for i := 0; i <= len(clean); i++ {
		if i == len(clean) || clean[i] == '/' {
			if i > start {
				parts = append(parts, clean[start:i])
			}
			start = i + 1
		}
	}
	return parts
}

// OpenFile opens the regular file at p. Directories fail ErrIsDirectory.
func (fs *FileSystem) OpenFile(ctx context.Context, p string, opts vfs.OpenOptions) (vfs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var n *nodeRecord
	err := fs.db.View(func(txn *badger.Txn) error {
		found, err := fs.lookup(txn, p)
		if err != nil {
			return err
		}
		if found.Attr.Type == vfs.FileTypeDirectory {
			return vfserrors.NewIsDirectoryError(p)
		}
		n = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newHandle(fs, n.ID, p), nil
}

// OpenDirectory opens the directory at p. Non-directories fail
// ErrNotDirectory.
func (fs *FileSystem) OpenDirectory(ctx context.Context, p string, opts vfs.OpenOptions) (vfs.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var n *nodeRecord
	err := fs.db.View(func(txn *badger.Txn) error {
		found, err := fs.lookup(txn, p)
		if err != nil {
			return err
		}
		if found.Attr.Type != vfs.FileTypeDirectory {
			return vfserrors.NewNotDirectoryError(p)
		}
		n = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newHandle(fs, n.ID, p), nil
}

// Create creates a regular file under an existing parent directory.
func (fs *FileSystem) Create(ctx context.Context, p string, mode uint32) (vfs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var id uuid.UUID
	err := fs.db.Update(func(txn *badger.Txn) error {
		n, err := fs.createNode(txn, p, vfs.FileTypeRegular, mode)
		if err != nil {
			return err
		}
		id = n.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newHandle(fs, id, p), nil
}

// Mkdir creates a directory under an existing parent directory.
func (fs *FileSystem) Mkdir(ctx context.Context, p string, mode uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fs.db.Update(func(txn *badger.Txn) error {
		_, err := fs.createNode(txn, p, vfs.FileTypeDirectory, mode)
		return err
	})
}

// createNode inserts a new object and updates the parent, inside txn.
func (fs *FileSystem) createNode(txn *badger.Txn, p string, t vfs.FileType, mode uint32) (*nodeRecord, error) {
	parent, name, err := fs.lookupParent(txn, p)
	if err != nil {
		return nil, err
	}

	if _, err := txn.Get(keyChild(parent.ID, name)); err == nil {
		return nil, vfserrors.NewAlreadyExistsError(p)
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("check child entry: %w", err)
	}

	if mode == 0 {
		mode = vfs.DefaultMode(t)
	}

	now := time.Now()
	n := &nodeRecord{
		ID:     uuid.New(),
		Parent: parent.ID,
		Attr: vfs.FileAttr{
			Dev:       fs.dev,
			Type:      t,
			Mode:      mode & 0o7777,
			Nlink:     1,
			UID:       fs.config.UID,
			GID:       fs.config.GID,
			BlockSize: vfs.DefaultBlockSize,
			Atime:     now,
			Mtime:     now,
			Ctime:     now,
		},
	}
	n.Attr.Ino = vfs.InodeForID(n.ID)
	if t == vfs.FileTypeDirectory {
		n.Attr.Nlink = 2
		parent.Attr.Nlink++
	}

	if err := putNode(txn, n); err != nil {
		return nil, fmt.Errorf("store node: %w", err)
	}
	if err := txn.Set(keyChild(parent.ID, name), n.ID[:]); err != nil {
		return nil, fmt.Errorf("store child entry: %w", err)
	}

	parent.Attr.Mtime = now
	parent.Attr.Ctime = now
	if err := putNode(txn, parent); err != nil {
		return nil, fmt.Errorf("update parent: %w", err)
	}

	return n, nil
}

// Remove deletes a file or an empty directory.
func (fs *FileSystem) Remove(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fs.db.Update(func(txn *badger.Txn) error {
		parent, name, err := fs.lookupParent(txn, p)
		if err != nil {
			return err
		}

		item, err := txn.Get(keyChild(parent.ID, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return vfserrors.NewNotFoundError(p)
		}
		if err != nil {
			return fmt.Errorf("get child entry: %w", err)
		}

		var childID uuid.UUID
		if err := item.Value(func(val []byte) error {
			copy(childID[:], val)
			return nil
		}); err != nil {
			return err
		}

		child, err := fs.getNode(txn, childID, p)
		if err != nil {
			return err
		}

		if child.Attr.Type == vfs.FileTypeDirectory {
			if hasChildren(txn, child.ID) {
				return vfserrors.NewNotEmptyError(p)
			}
			parent.Attr.Nlink--
		}

		if err := txn.Delete(keyNode(childID)); err != nil {
			return fmt.Errorf("delete node: %w", err)
		}
		if err := txn.Delete(keyContent(childID)); err != nil {
			return fmt.Errorf("delete content: %w", err)
		}
		if err := txn.Delete(keyChild(parent.ID, name)); err != nil {
			return fmt.Errorf("delete child entry: %w", err)
		}

		now := time.Now()
		parent.Attr.Mtime = now
		parent.Attr.Ctime = now
		return putNode(txn, parent)
	})
}

func hasChildren(txn *badger.Txn, id uuid.UUID) bool {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = keyChildPrefix(id)

	it := txn.NewIterator(opts)
	defer it.Close()

	it.Rewind()
	return it.Valid()
}

// WriteFile creates p (or replaces its content) with data. The parent
// directory must exist.
func (fs *FileSystem) WriteFile(ctx context.Context, p string, data []byte, mode uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fs.db.Update(func(txn *badger.Txn) error {
		n, err := fs.lookup(txn, p)
		if err != nil {
			if !vfserrors.IsNotFound(err) {
				return err
			}
			n, err = fs.createNode(txn, p, vfs.FileTypeRegular, mode)
			if err != nil {
				return err
			}
		} else if n.Attr.Type == vfs.FileTypeDirectory {
			return vfserrors.NewIsDirectoryError(p)
		}

		if err := txn.Set(keyContent(n.ID), data); err != nil {
			return fmt.Errorf("store content: %w", err)
		}

		now := time.Now()
		n.Attr.Size = uint64(len(data))
		n.Attr.Mtime = now
		n.Attr.Ctime = now
		return putNode(txn, n)
	})
}

// Package memfs implements an in-memory vfs.Filesystem backed by a mutable
// node tree. It is the default mount for development and the fixture
// filesystem for the syscall handler tests.
package memfs

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/velin-dev/velin/internal/bytesize"
	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// Config controls a memfs instance.
type Config struct {
	// Capacity bounds the total content bytes the filesystem will hold.
	// Zero means unbounded.
	Capacity bytesize.ByteSize

	// UID and GID own every object created without an explicit owner.
	UID uint32
	GID uint32
}

// node is a single object in the tree. Directories carry children, regular
// files carry content. The node's attr is the authoritative metadata record.
type node struct {
	id       uuid.UUID
	attr     vfs.FileAttr
	children map[string]*node
	content  []byte
	parent   *node
}

// FileSystem is an in-memory file tree.
//
// Thread safety: one RWMutex guards the whole tree. Metadata reads take the
// read lock; structural changes and content writes take the write lock.
type FileSystem struct {
	mu     sync.RWMutex
	dev    uint64
	root   *node
	config Config
	used   uint64
}

// New creates an empty filesystem with default configuration.
func New() *FileSystem {
	return NewWithConfig(Config{})
}

// NewWithConfig creates an empty filesystem. The root directory exists
// immediately, owned by cfg.UID/cfg.GID with mode 0755.
func NewWithConfig(cfg Config) *FileSystem {
	fs := &FileSystem{
		dev:    vfs.AllocateDeviceID(),
		config: cfg,
	}

	now := time.Now()
	rootID := uuid.New()
	fs.root = &node{
		id: rootID,
		attr: vfs.FileAttr{
			Dev:       fs.dev,
			Ino:       vfs.InodeForID(rootID),
			Type:      vfs.FileTypeDirectory,
			Mode:      0o755,
			Nlink:     2,
			UID:       cfg.UID,
			GID:       cfg.GID,
			BlockSize: vfs.DefaultBlockSize,
			Atime:     now,
			Mtime:     now,
			Ctime:     now,
		},
		children: make(map[string]*node),
	}

	return fs
}

// lookup walks an absolute, cleaned path to its node.
// Caller must hold at least the read lock.
func (fs *FileSystem) lookup(p string) (*node, error) {
	if err := vfs.ValidatePath(p); err != nil {
		return nil, err
	}

	current := fs.root
	for _, name := range splitPath(p) {
		switch name {
		case ".":
			continue
		case "..":
			if current.parent != nil {
				current = current.parent
			}
			continue
		}

		if current.attr.Type != vfs.FileTypeDirectory {
			return nil, vfserrors.NewNotDirectoryError(p)
		}

		child, ok := current.children[name]
		if !ok {
			return nil, vfserrors.NewNotFoundError(p)
		}
		current = child
	}

	return current, nil
}

// lookupParent resolves the parent directory of p and returns it with the
// final path component. Caller must hold at least the read lock.
func (fs *FileSystem) lookupParent(p string) (*node, string, error) {
	dir, name := path.Split(path.Clean(p))
	if err := vfs.ValidateName(name); err != nil {
		return nil, "", err
	}

	parent, err := fs.lookup(dir)
	if err != nil {
		return nil, "", err
	}
	if parent.attr.Type != vfs.FileTypeDirectory {
		return nil, "", vfserrors.NewNotDirectoryError(dir)
	}

	return parent, name, nil
}

func splitPath(p string) []string {
	trimmed := strings.Trim(path.Clean(p), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// OpenFile opens the regular file at p. Opening a directory fails
// ErrIsDirectory; that classification is load-bearing for the stat probe.
func (fs *FileSystem) OpenFile(ctx context.Context, p string, opts vfs.OpenOptions) (vfs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, err := fs.lookup(p)
	if err != nil {
		return nil, err
	}
	if n.attr.Type == vfs.FileTypeDirectory {
		return nil, vfserrors.NewIsDirectoryError(p)
	}

	return newHandle(fs, n, p), nil
}

// OpenDirectory opens the directory at p. Opening a non-directory fails
// ErrNotDirectory.
func (fs *FileSystem) OpenDirectory(ctx context.Context, p string, opts vfs.OpenOptions) (vfs.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	n, err := fs.lookup(p)
	if err != nil {
		return nil, err
	}
	if n.attr.Type != vfs.FileTypeDirectory {
		return nil, vfserrors.NewNotDirectoryError(p)
	}

	return newHandle(fs, n, p), nil
}

// Create creates a regular file under an existing parent directory.
func (fs *FileSystem) Create(ctx context.Context, p string, mode uint32) (vfs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, name, err := fs.lookupParent(p)
	if err != nil {
		return nil, err
	}
	if _, exists := parent.children[name]; exists {
		return nil, vfserrors.NewAlreadyExistsError(p)
	}

	n := fs.newNode(vfs.FileTypeRegular, mode)
	n.parent = parent
	parent.children[name] = n
	touchDir(parent)

	return newHandle(fs, n, p), nil
}

// Mkdir creates a directory under an existing parent directory.
func (fs *FileSystem) Mkdir(ctx context.Context, p string, mode uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, name, err := fs.lookupParent(p)
	if err != nil {
		return err
	}
	if _, exists := parent.children[name]; exists {
		return vfserrors.NewAlreadyExistsError(p)
	}

	n := fs.newNode(vfs.FileTypeDirectory, mode)
	n.parent = parent
	n.children = make(map[string]*node)
	n.attr.Nlink = 2
	parent.children[name] = n
	parent.attr.Nlink++
	touchDir(parent)

	return nil
}

// Remove deletes a file or an empty directory.
func (fs *FileSystem) Remove(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, name, err := fs.lookupParent(p)
	if err != nil {
		return err
	}

	n, exists := parent.children[name]
	if !exists {
		return vfserrors.NewNotFoundError(p)
	}
	if n.attr.Type == vfs.FileTypeDirectory {
		if len(n.children) > 0 {
			return vfserrors.NewNotEmptyError(p)
		}
		parent.attr.Nlink--
	}

	fs.used -= uint64(len(n.content))
	delete(parent.children, name)
	touchDir(parent)

	return nil
}

// WriteFile creates p (or replaces its content) with data. The parent
// directory must exist. Used to seed trees at boot and in tests.
func (fs *FileSystem) WriteFile(ctx context.Context, p string, data []byte, mode uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	parent, name, err := fs.lookupParent(p)
	if err != nil {
		return err
	}

	n, exists := parent.children[name]
	if exists {
		if n.attr.Type == vfs.FileTypeDirectory {
			return vfserrors.NewIsDirectoryError(p)
		}
	} else {
		n = fs.newNode(vfs.FileTypeRegular, mode)
		n.parent = parent
	}

	next := fs.used - uint64(len(n.content)) + uint64(len(data))
	if limit := fs.config.Capacity.Uint64(); limit > 0 && next > limit {
		return vfserrors.NewNoSpaceError(p)
	}
	fs.used = next

	now := time.Now()
	n.content = data
	n.attr.Size = uint64(len(data))
	n.attr.Mtime = now
	n.attr.Ctime = now

	if !exists {
		parent.children[name] = n
		touchDir(parent)
	}

	return nil
}

// Used returns the content bytes currently held.
func (fs *FileSystem) Used() uint64 {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.used
}

func (fs *FileSystem) newNode(t vfs.FileType, mode uint32) *node {
	if mode == 0 {
		mode = vfs.DefaultMode(t)
	}

	now := time.Now()
	id := uuid.New()
	return &node{
		id: id,
		attr: vfs.FileAttr{
			Dev:       fs.dev,
			Ino:       vfs.InodeForID(id),
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
}

func touchDir(dir *node) {
	now := time.Now()
	dir.attr.Mtime = now
	dir.attr.Ctime = now
}

// Package mount composes filesystem backends into a single tree.
//
// A Namespace routes every path to the backend with the longest matching
// mount point, re-rooted so each backend sees absolute paths within
// itself. The namespace implements vfs.Filesystem, so callers address one
// tree and never see the seams.
//
// Routing is pure prefix matching: listing a directory does not splice in
// the roots of filesystems mounted below it.
package mount

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// Info describes one mount for listings.
type Info struct {
	// Point is the absolute path the backend is mounted on.
	Point string `json:"point"`

	// Backend names the backend type ("mem", "badger", "s3").
	Backend string `json:"backend"`
}

type mountEntry struct {
	point   string
	backend string
	fs      vfs.Filesystem
}

// Namespace is a mount table. The zero value is not usable; call New.
type Namespace struct {
	mu sync.RWMutex

	// entries stay sorted by descending point length, so the first
	// prefix match is the longest one.
	entries []mountEntry
}

// New returns an empty namespace.
func New() *Namespace {
	return &Namespace{}
}

// Mount attaches fs at point. The point must be absolute; mounting over
// an existing point fails with ErrAlreadyExists.
func (ns *Namespace) Mount(point, backend string, fs vfs.Filesystem) error {
	if !strings.HasPrefix(point, "/") {
		return vfserrors.NewInvalidArgumentError(fmt.Sprintf("mount point %q is not absolute", point))
	}
	point = path.Clean(point)

	ns.mu.Lock()
	defer ns.mu.Unlock()

	for _, e := range ns.entries {
		if e.point == point {
			return vfserrors.NewAlreadyExistsError(point)
		}
	}

	ns.entries = append(ns.entries, mountEntry{point: point, backend: backend, fs: fs})
	sort.SliceStable(ns.entries, func(i, j int) bool {
		return len(ns.entries[i].point) > len(ns.entries[j].point)
	})
	return nil
}

// Unmount detaches the backend mounted exactly at point.
func (ns *Namespace) Unmount(point string) error {
	point = path.Clean(point)

	ns.mu.Lock()
	defer ns.mu.Unlock()

	for i, e := range ns.entries {
		if e.point == point {
			ns.entries = slices.Delete(ns.entries, i, i+1)
			return nil
		}
	}
	return vfserrors.NewNotFoundError(point)
}

// Table returns the current mounts, longest point first.
func (ns *Namespace) Table() []Info {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	table := make([]Info, 0, len(ns.entries))
	for _, e := range ns.entries {
		table = append(table, Info{Point: e.point, Backend: e.backend})
	}
	return table
}

// Resolve routes p to its backend and the path within it. The returned
// path is absolute and cleaned. Paths covered by no mount fail with
// ErrNotFound.
func (ns *Namespace) Resolve(p string) (vfs.Filesystem, string, error) {
	if err := vfs.ValidatePath(p); err != nil {
		return nil, "", err
	}
	p = path.Clean(p)
	if !strings.HasPrefix(p, "/") {
		return nil, "", vfserrors.NewInvalidArgumentError(fmt.Sprintf("path %q is not absolute", p))
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	for _, e := range ns.entries {
		rel, ok := matchPoint(e.point, p)
		if ok {
			return e.fs, rel, nil
		}
	}
	return nil, "", vfserrors.NewNotFoundError(p)
}

// matchPoint reports whether p lives under point, and the re-rooted path
// when it does. "/data" covers "/data" and "/data/x" but not "/database".
func matchPoint(point, p string) (string, bool) {
	if point == "/" {
		return p, true
	}
	if p == point {
		return "/", true
	}
	if strings.HasPrefix(p, point) && p[len(point)] == '/' {
		return p[len(point):], true
	}
	return "", false
}

// OpenFile routes to the backend covering p.
func (ns *Namespace) OpenFile(ctx context.Context, p string, opts vfs.OpenOptions) (vfs.File, error) {
	fs, rel, err := ns.Resolve(p)
	if err != nil {
		return nil, err
	}
	return fs.OpenFile(ctx, rel, opts)
}

// OpenDirectory routes to the backend covering p.
func (ns *Namespace) OpenDirectory(ctx context.Context, p string, opts vfs.OpenOptions) (vfs.Directory, error) {
	fs, rel, err := ns.Resolve(p)
	if err != nil {
		return nil, err
	}
	return fs.OpenDirectory(ctx, rel, opts)
}

// Create routes to the backend covering p.
func (ns *Namespace) Create(ctx context.Context, p string, mode uint32) (vfs.File, error) {
	fs, rel, err := ns.Resolve(p)
	if err != nil {
		return nil, err
	}
	return fs.Create(ctx, rel, mode)
}

// Mkdir routes to the backend covering p.
func (ns *Namespace) Mkdir(ctx context.Context, p string, mode uint32) error {
	fs, rel, err := ns.Resolve(p)
	if err != nil {
		return err
	}
	return fs.Mkdir(ctx, rel, mode)
}

// Remove routes to the backend covering p.
func (ns *Namespace) Remove(ctx context.Context, p string) error {
	fs, rel, err := ns.Resolve(p)
	if err != nil {
		return err
	}
	return fs.Remove(ctx, rel)
}

var _ vfs.Filesystem = (*Namespace)(nil)

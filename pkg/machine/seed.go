package machine

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/velin-dev/velin/pkg/config"
	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// contentWriter is the optional backend extension seeding writes file
// content through. The in-memory and badger backends both provide it;
// read-only backends do not.
type contentWriter interface {
	WriteFile(ctx context.Context, p string, data []byte, mode uint32) error
}

// seedMount provisions a backend with the mount's seed entries before it
// joins the namespace. Entries that already exist are left alone, so a
// persistent backend reopened across runs seeds cleanly.
func seedMount(ctx context.Context, fs vfs.Filesystem, mc *config.MountConfig) error {
	for i := range mc.Seed {
		if err := applySeed(ctx, fs, &mc.Seed[i]); err != nil {
			return fmt.Errorf("seed %q: %w", mc.Seed[i].Path, err)
		}
	}
	return nil
}

func applySeed(ctx context.Context, fs vfs.Filesystem, entry *config.SeedEntry) error {
	// Seed paths are relative to the mount point; joining onto "/" also
	// clips any ".." so an entry cannot climb out of the backend.
	target := path.Join("/", entry.Path)
	if target == "/" {
		return nil
	}

	mode, err := seedMode(entry.Mode)
	if err != nil {
		return err
	}

	if entry.Type == "dir" {
		return mkdirAll(ctx, fs, target, mode)
	}

	if err := mkdirAll(ctx, fs, path.Dir(target), 0); err != nil {
		return err
	}

	w, ok := fs.(contentWriter)
	if !ok {
		return fmt.Errorf("backend does not support seeding file content")
	}
	return w.WriteFile(ctx, target, []byte(entry.Content), mode)
}

// seedMode parses the octal mode string from a seed entry. Empty means
// the backend default.
func seedMode(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	mode, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode %q: %w", s, err)
	}
	return uint32(mode), nil
}

// mkdirAll creates every missing directory on the way to p. The leaf gets
// mode; intermediate directories get the backend default. Directories
// that already exist are not an error.
func mkdirAll(ctx context.Context, fs vfs.Filesystem, p string, mode uint32) error {
	p = path.Clean(p)
	if p == "/" || p == "." {
		return nil
	}

	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	current := "/"
	for i, segment := range segments {
		current = path.Join(current, segment)

		segMode := uint32(0)
		if i == len(segments)-1 {
			segMode = mode
		}

		if err := fs.Mkdir(ctx, current, segMode); err != nil {
			if vfserrors.HasCode(err, vfserrors.ErrAlreadyExists) {
				continue
			}
			return err
		}
	}
	return nil
}

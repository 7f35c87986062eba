package memfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velin-dev/velin/internal/bytesize"
	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
	"github.com/velin-dev/velin/pkg/vfs/vfstest"
)

func TestConformance(t *testing.T) {
	vfstest.RunConformanceSuite(t, func(t *testing.T) vfs.Filesystem {
		return New()
	})
}

func seed(t *testing.T, fs *FileSystem) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, fs.Mkdir(ctx, "/docs", 0o755))
	require.NoError(t, fs.Mkdir(ctx, "/docs/archive", 0o755))
	require.NoError(t, fs.WriteFile(ctx, "/docs/readme.md", []byte("hello velin\n"), 0o644))
	require.NoError(t, fs.WriteFile(ctx, "/docs/archive/old.md", []byte("ancient"), 0o600))
}

func TestNestedLookup(t *testing.T) {
	fs := New()
	seed(t, fs)

	attr, err := vfs.StatPath(context.Background(), fs, "/docs/archive/old.md")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), attr.Size)
	assert.Equal(t, uint32(0o600), attr.Mode)
}

func TestLookupThroughFileFailsNotDirectory(t *testing.T) {
	fs := New()
	seed(t, fs)

	_, err := fs.OpenFile(context.Background(), "/docs/readme.md/inner", vfs.ReadOnly())
	require.Error(t, err)
	assert.Equal(t, vfserrors.ErrNotDirectory, vfserrors.CodeOf(err))
}

func TestDotDotStaysInsideRoot(t *testing.T) {
	fs := New()
	seed(t, fs)

	// ".." above the root resolves to the root itself.
	attr, err := vfs.StatPath(context.Background(), fs, "/../../docs/readme.md")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), attr.Size)
}

func TestWriteFileReadAt(t *testing.T) {
	fs := New()
	seed(t, fs)
	ctx := context.Background()

	f, err := fs.OpenFile(ctx, "/docs/readme.md", vfs.ReadOnly())
	require.NoError(t, err)
	defer f.Close(ctx)

	buf := make([]byte, 5)
	n, err := f.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "velin", string(buf))

	// Reads entirely past the end return 0 with no error.
	n, err = f.ReadAt(ctx, buf, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWriteFileReplacesContent(t *testing.T) {
	fs := New()
	ctx := context.Background()

	require.NoError(t, fs.WriteFile(ctx, "/data", []byte("first"), 0o644))
	require.NoError(t, fs.WriteFile(ctx, "/data", []byte("second, longer"), 0))

	attr, err := vfs.StatPath(ctx, fs, "/data")
	require.NoError(t, err)
	assert.Equal(t, uint64(14), attr.Size)
	assert.Equal(t, uint64(14), fs.Used())
}

func TestCapacityEnforced(t *testing.T) {
	fs := NewWithConfig(Config{Capacity: bytesize.ByteSize(16)})
	ctx := context.Background()

	require.NoError(t, fs.WriteFile(ctx, "/small", []byte("0123456789"), 0o644))

	err := fs.WriteFile(ctx, "/big", []byte("0123456789"), 0o644)
	require.Error(t, err)
	assert.Equal(t, vfserrors.ErrNoSpace, vfserrors.CodeOf(err))

	// Removing frees capacity.
	require.NoError(t, fs.Remove(ctx, "/small"))
	assert.Equal(t, uint64(0), fs.Used())
	require.NoError(t, fs.WriteFile(ctx, "/big", []byte("0123456789"), 0o644))
}

func TestOwnerConfig(t *testing.T) {
	fs := NewWithConfig(Config{UID: 1000, GID: 1000})
	ctx := context.Background()
	require.NoError(t, fs.Mkdir(ctx, "/home", 0o700))

	attr, err := vfs.StatPath(ctx, fs, "/home")
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), attr.UID)
	assert.Equal(t, uint32(1000), attr.GID)
}

func TestDefaultModeApplied(t *testing.T) {
	fs := New()
	ctx := context.Background()

	f, err := fs.Create(ctx, "/zero-mode", 0)
	require.NoError(t, err)
	attr, err := f.Stat(ctx)
	require.NoError(t, err)
	f.Close(ctx)

	assert.Equal(t, uint32(0o644), attr.Mode)
}

func TestCancelledContext(t *testing.T) {
	fs := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.OpenFile(ctx, "/anything", vfs.ReadOnly())
	assert.ErrorIs(t, err, context.Canceled)
}

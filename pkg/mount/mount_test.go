package mount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
	"github.com/velin-dev/velin/pkg/vfs/memfs"
)

func newNamespace(t *testing.T) (*Namespace, *memfs.FileSystem, *memfs.FileSystem) {
	t.Helper()

	root := memfs.New()
	data := memfs.New()

	ns := New()
	require.NoError(t, ns.Mount("/", "mem", root))
	require.NoError(t, ns.Mount("/data", "mem", data))
	return ns, root, data
}

func TestResolveLongestPrefix(t *testing.T) {
	ns, root, data := newNamespace(t)

	fs, rel, err := ns.Resolve("/data/file.txt")
	require.NoError(t, err)
	assert.Same(t, vfs.Filesystem(data), fs)
	assert.Equal(t, "/file.txt", rel)

	fs, rel, err = ns.Resolve("/etc/hosts")
	require.NoError(t, err)
	assert.Same(t, vfs.Filesystem(root), fs)
	assert.Equal(t, "/etc/hosts", rel)
}

func TestResolveMountPointItself(t *testing.T) {
	ns, _, data := newNamespace(t)

	fs, rel, err := ns.Resolve("/data")
	require.NoError(t, err)
	assert.Same(t, vfs.Filesystem(data), fs)
	assert.Equal(t, "/", rel)
}

func TestResolveSiblingWithSharedPrefix(t *testing.T) {
	ns, root, _ := newNamespace(t)

	// "/database" shares a string prefix with the "/data" mount but is
	// not under it.
	fs, rel, err := ns.Resolve("/database")
	require.NoError(t, err)
	assert.Same(t, vfs.Filesystem(root), fs)
	assert.Equal(t, "/database", rel)
}

func TestResolveDotDotNormalizedFirst(t *testing.T) {
	ns, _, data := newNamespace(t)

	fs, rel, err := ns.Resolve("/data/sub/../file.txt")
	require.NoError(t, err)
	assert.Same(t, vfs.Filesystem(data), fs)
	assert.Equal(t, "/file.txt", rel)
}

func TestResolveNoCoveringMount(t *testing.T) {
	ns := New()
	require.NoError(t, ns.Mount("/data", "mem", memfs.New()))

	_, _, err := ns.Resolve("/etc/hosts")
	assert.True(t, vfserrors.IsNotFound(err))
}

func TestMountValidation(t *testing.T) {
	ns := New()

	err := ns.Mount("relative", "mem", memfs.New())
	assert.True(t, vfserrors.HasCode(err, vfserrors.ErrInvalidArgument))

	require.NoError(t, ns.Mount("/data", "mem", memfs.New()))
	err = ns.Mount("/data", "mem", memfs.New())
	assert.True(t, vfserrors.HasCode(err, vfserrors.ErrAlreadyExists))
}

func TestUnmount(t *testing.T) {
	ns, root, _ := newNamespace(t)

	require.NoError(t, ns.Unmount("/data"))

	// Paths under the former mount now route to the root backend.
	fs, rel, err := ns.Resolve("/data/file.txt")
	require.NoError(t, err)
	assert.Same(t, vfs.Filesystem(root), fs)
	assert.Equal(t, "/data/file.txt", rel)

	err = ns.Unmount("/data")
	assert.True(t, vfserrors.IsNotFound(err))
}

func TestTableSortedLongestFirst(t *testing.T) {
	ns, _, _ := newNamespace(t)
	require.NoError(t, ns.Mount("/data/archive", "badger", memfs.New()))

	table := ns.Table()
	require.Len(t, table, 3)
	assert.Equal(t, "/data/archive", table[0].Point)
	assert.Equal(t, "badger", table[0].Backend)
	assert.Equal(t, "/data", table[1].Point)
	assert.Equal(t, "/", table[2].Point)
}

func TestNamespaceActsAsFilesystem(t *testing.T) {
	ns, root, data := newNamespace(t)
	ctx := t.Context()

	require.NoError(t, ns.Mkdir(ctx, "/data/logs", 0o755))
	require.NoError(t, data.WriteFile(ctx, "/logs/app.log", []byte("line\n"), 0o644))
	require.NoError(t, root.WriteFile(ctx, "/motd", []byte("welcome"), 0o644))

	attr, err := vfs.StatPath(ctx, ns, "/data/logs/app.log")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), attr.Size)

	attr, err = vfs.StatPath(ctx, ns, "/motd")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), attr.Size)

	// The two backends report distinct device ids.
	logAttr, err := vfs.StatPath(ctx, ns, "/data/logs/app.log")
	require.NoError(t, err)
	motdAttr, err := vfs.StatPath(ctx, ns, "/motd")
	require.NoError(t, err)
	assert.NotEqual(t, logAttr.Dev, motdAttr.Dev)
}

func TestCreateRoutesThroughMount(t *testing.T) {
	ns, _, data := newNamespace(t)
	ctx := t.Context()

	f, err := ns.Create(ctx, "/data/new.txt", 0o600)
	require.NoError(t, err)
	require.NoError(t, f.Close(ctx))

	attr, err := vfs.StatPath(ctx, data, "/new.txt")
	require.NoError(t, err)
	assert.Equal(t, uint32(0o600), attr.Mode)

	require.NoError(t, ns.Remove(ctx, "/data/new.txt"))
	_, err = vfs.StatPath(ctx, data, "/new.txt")
	assert.True(t, vfserrors.IsNotFound(err))
}

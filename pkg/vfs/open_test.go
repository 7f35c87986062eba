package vfs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// probeFS scripts the two openers and counts how often each is consulted.
type probeFS struct {
	fileOpens int
	dirOpens  int
	fileErr   error
	dirErr    error
	statErr   error
	closed    int
}

type probeHandle struct {
	fs   *probeFS
	attr FileAttr
}

func (h *probeHandle) Stat(ctx context.Context) (FileAttr, error) {
	if h.fs.statErr != nil {
		return FileAttr{}, h.fs.statErr
	}
	return h.attr, nil
}

func (h *probeHandle) Close(ctx context.Context) error {
	h.fs.closed++
	return nil
}

func (h *probeHandle) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	return 0, nil
}

func (h *probeHandle) ReadDir(ctx context.Context) ([]DirEntry, error) {
	return nil, nil
}

func (f *probeFS) OpenFile(ctx context.Context, path string, opts OpenOptions) (File, error) {
	f.fileOpens++
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	return &probeHandle{fs: f, attr: FileAttr{Ino: 1, Type: FileTypeRegular, Size: 42}}, nil
}

func (f *probeFS) OpenDirectory(ctx context.Context, path string, opts OpenOptions) (Directory, error) {
	f.dirOpens++
	if f.dirErr != nil {
		return nil, f.dirErr
	}
	return &probeHandle{fs: f, attr: FileAttr{Ino: 2, Type: FileTypeDirectory}}, nil
}

func (f *probeFS) Create(ctx context.Context, path string, mode uint32) (File, error) {
	return nil, vfserrors.NewNotSupportedError("create")
}

func (f *probeFS) Mkdir(ctx context.Context, path string, mode uint32) error {
	return vfserrors.NewNotSupportedError("mkdir")
}

func (f *probeFS) Remove(ctx context.Context, path string) error {
	return vfserrors.NewNotSupportedError("remove")
}

func TestOpenAnyRegularFile(t *testing.T) {
	fs := &probeFS{}

	fl, isDir, err := OpenAny(context.Background(), fs, "/file.txt", ReadOnly())
	require.NoError(t, err)
	require.NotNil(t, fl)
	assert.False(t, isDir)

	assert.Equal(t, 1, fs.fileOpens)
	assert.Equal(t, 0, fs.dirOpens, "no directory attempt when the file open succeeds")
}

func TestOpenAnyDirectoryFallback(t *testing.T) {
	fs := &probeFS{fileErr: vfserrors.NewIsDirectoryError("/srv")}

	fl, isDir, err := OpenAny(context.Background(), fs, "/srv", ReadOnly())
	require.NoError(t, err)
	assert.True(t, isDir)

	attr, err := fl.Stat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FileTypeDirectory, attr.Type)

	assert.Equal(t, 1, fs.fileOpens)
	assert.Equal(t, 1, fs.dirOpens, "exactly one reopen on the is-a-directory classification")
}

func TestOpenAnyNotFoundNoFallback(t *testing.T) {
	fs := &probeFS{fileErr: vfserrors.NewNotFoundError("/missing")}

	_, _, err := OpenAny(context.Background(), fs, "/missing", ReadOnly())
	require.Error(t, err)
	assert.True(t, vfserrors.IsNotFound(err))

	assert.Equal(t, 1, fs.fileOpens)
	assert.Equal(t, 0, fs.dirOpens, "not-found must not trigger a directory attempt")
}

func TestOpenAnyAccessDeniedNoFallback(t *testing.T) {
	fs := &probeFS{fileErr: vfserrors.NewAccessDeniedError("/locked")}

	_, _, err := OpenAny(context.Background(), fs, "/locked", ReadOnly())
	require.Error(t, err)
	assert.Equal(t, vfserrors.ErrAccessDenied, vfserrors.CodeOf(err))
	assert.Equal(t, 0, fs.dirOpens)
}

func TestOpenAnySecondErrorPropagates(t *testing.T) {
	fs := &probeFS{
		fileErr: vfserrors.NewIsDirectoryError("/gone"),
		dirErr:  vfserrors.NewNotFoundError("/gone"),
	}

	_, _, err := OpenAny(context.Background(), fs, "/gone", ReadOnly())
	require.Error(t, err)
	assert.True(t, vfserrors.IsNotFound(err), "the directory-open failure passes through as-is")
	assert.Equal(t, 1, fs.fileOpens)
	assert.Equal(t, 1, fs.dirOpens)
}

func TestStatPathReleasesHandle(t *testing.T) {
	fs := &probeFS{}

	attr, err := StatPath(context.Background(), fs, "/file.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), attr.Size)
	assert.Equal(t, 1, fs.closed)
}

func TestStatPathReleasesHandleOnStatError(t *testing.T) {
	fs := &probeFS{statErr: vfserrors.NewIOError("/file.txt", "backend read failed")}

	_, err := StatPath(context.Background(), fs, "/file.txt")
	require.Error(t, err)
	assert.Equal(t, 1, fs.closed, "handle released on the error path too")
}

func TestBlocksRounding(t *testing.T) {
	assert.Equal(t, uint64(0), FileAttr{Size: 0}.Blocks())
	assert.Equal(t, uint64(1), FileAttr{Size: 1}.Blocks())
	assert.Equal(t, uint64(1), FileAttr{Size: 512}.Blocks())
	assert.Equal(t, uint64(2), FileAttr{Size: 513}.Blocks())
}

func TestAllocateDeviceIDMonotonic(t *testing.T) {
	a := AllocateDeviceID()
	b := AllocateDeviceID()
	assert.Greater(t, b, a)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("report.pdf"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("."))
	assert.Error(t, ValidateName(".."))

	long := make([]byte, MaxNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	err := ValidateName(string(long))
	require.Error(t, err)
	assert.Equal(t, vfserrors.ErrNameTooLong, vfserrors.CodeOf(err))
}

func TestFileAttrTimesRoundTrip(t *testing.T) {
	now := time.Now()
	attr := FileAttr{Atime: now, Mtime: now, Ctime: now}
	assert.Equal(t, now, attr.Atime)
	assert.Equal(t, now, attr.Mtime)
}

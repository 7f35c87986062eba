package vfstest

import (
	"context"
	"testing"

	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// Factory builds a fresh, empty filesystem for one test.
type Factory func(t *testing.T) vfs.Filesystem

// RunConformanceSuite runs the full behavioral contract against a backend.
func RunConformanceSuite(t *testing.T, factory Factory) {
	t.Run("OpenFileOnDirectory", func(t *testing.T) { testOpenFileOnDirectory(t, factory) })
	t.Run("OpenDirectoryOnFile", func(t *testing.T) { testOpenDirectoryOnFile(t, factory) })
	t.Run("OpenMissing", func(t *testing.T) { testOpenMissing(t, factory) })
	t.Run("CreateAndStat", func(t *testing.T) { testCreateAndStat(t, factory) })
	t.Run("MkdirAndStat", func(t *testing.T) { testMkdirAndStat(t, factory) })
	t.Run("ReadDir", func(t *testing.T) { testReadDir(t, factory) })
	t.Run("RemoveFile", func(t *testing.T) { testRemoveFile(t, factory) })
	t.Run("RemoveNonEmptyDirectory", func(t *testing.T) { testRemoveNonEmptyDirectory(t, factory) })
	t.Run("CreateCollision", func(t *testing.T) { testCreateCollision(t, factory) })
	t.Run("CreateInMissingParent", func(t *testing.T) { testCreateInMissingParent(t, factory) })
	t.Run("OpenAnyAgreesWithOpeners", func(t *testing.T) { testOpenAnyAgreesWithOpeners(t, factory) })
	t.Run("Identity", func(t *testing.T) { testIdentity(t, factory) })
	t.Run("ClosedHandle", func(t *testing.T) { testClosedHandle(t, factory) })
}

func mustCreate(t *testing.T, fs vfs.Filesystem, path string, mode uint32) {
	t.Helper()
	f, err := fs.Create(t.Context(), path, mode)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", path, err)
	}
	if err := f.Close(t.Context()); err != nil {
		t.Fatalf("Close(%q) failed: %v", path, err)
	}
}

func mustMkdir(t *testing.T, fs vfs.Filesystem, path string) {
	t.Helper()
	if err := fs.Mkdir(t.Context(), path, 0o755); err != nil {
		t.Fatalf("Mkdir(%q) failed: %v", path, err)
	}
}

func mustStat(t *testing.T, fs vfs.Filesystem, path string) vfs.FileAttr {
	t.Helper()
	attr, err := vfs.StatPath(t.Context(), fs, path)
	if err != nil {
		t.Fatalf("StatPath(%q) failed: %v", path, err)
	}
	return attr
}

func testOpenFileOnDirectory(t *testing.T, factory Factory) {
	fs := factory(t)
	mustMkdir(t, fs, "/srv")

	_, err := fs.OpenFile(t.Context(), "/srv", vfs.ReadOnly())
	if !vfserrors.IsIsDirectory(err) {
		t.Fatalf("OpenFile on directory: got %v, want ErrIsDirectory", err)
	}

	// The root itself must classify the same way.
	_, err = fs.OpenFile(t.Context(), "/", vfs.ReadOnly())
	if !vfserrors.IsIsDirectory(err) {
		t.Fatalf("OpenFile on root: got %v, want ErrIsDirectory", err)
	}
}

func testOpenDirectoryOnFile(t *testing.T, factory Factory) {
	fs := factory(t)
	mustCreate(t, fs, "/note.txt", 0o644)

	_, err := fs.OpenDirectory(t.Context(), "/note.txt", vfs.ReadOnly())
	if vfserrors.CodeOf(err) != vfserrors.ErrNotDirectory {
		t.Fatalf("OpenDirectory on file: got %v, want ErrNotDirectory", err)
	}
}

func testOpenMissing(t *testing.T, factory Factory) {
	fs := factory(t)

	if _, err := fs.OpenFile(t.Context(), "/missing", vfs.ReadOnly()); !vfserrors.IsNotFound(err) {
		t.Fatalf("OpenFile on missing path: got %v, want ErrNotFound", err)
	}
	if _, err := fs.OpenDirectory(t.Context(), "/missing", vfs.ReadOnly()); !vfserrors.IsNotFound(err) {
		t.Fatalf("OpenDirectory on missing path: got %v, want ErrNotFound", err)
	}
}

func testCreateAndStat(t *testing.T, factory Factory) {
	fs := factory(t)
	mustCreate(t, fs, "/report.pdf", 0o640)

	attr := mustStat(t, fs, "/report.pdf")
	if attr.Type != vfs.FileTypeRegular {
		t.Errorf("Type = %v, want regular", attr.Type)
	}
	if attr.Mode != 0o640 {
		t.Errorf("Mode = %o, want 0640", attr.Mode)
	}
	if attr.Nlink != 1 {
		t.Errorf("Nlink = %d, want 1", attr.Nlink)
	}
	if attr.Size != 0 {
		t.Errorf("Size = %d, want 0", attr.Size)
	}
	if attr.BlockSize != vfs.DefaultBlockSize {
		t.Errorf("BlockSize = %d, want %d", attr.BlockSize, vfs.DefaultBlockSize)
	}
	if attr.Ino == 0 {
		t.Error("Ino must be non-zero")
	}
	if attr.Atime.IsZero() || attr.Mtime.IsZero() || attr.Ctime.IsZero() {
		t.Error("timestamps must be set on create")
	}
}

func testMkdirAndStat(t *testing.T, factory Factory) {
	fs := factory(t)
	mustMkdir(t, fs, "/data")

	attr := mustStat(t, fs, "/data")
	if attr.Type != vfs.FileTypeDirectory {
		t.Errorf("Type = %v, want directory", attr.Type)
	}
	if attr.Nlink != 2 {
		t.Errorf("Nlink = %d, want 2", attr.Nlink)
	}

	root := mustStat(t, fs, "/")
	if root.Nlink != 3 {
		t.Errorf("root Nlink = %d after one subdirectory, want 3", root.Nlink)
	}
}

func testReadDir(t *testing.T, factory Factory) {
	fs := factory(t)
	mustCreate(t, fs, "/beta.txt", 0o644)
	mustCreate(t, fs, "/alpha.txt", 0o644)
	mustMkdir(t, fs, "/gamma")

	dir, err := fs.OpenDirectory(t.Context(), "/", vfs.ReadOnly())
	if err != nil {
		t.Fatalf("OpenDirectory(/) failed: %v", err)
	}
	defer dir.Close(t.Context())

	entries, err := dir.ReadDir(t.Context())
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ReadDir() returned %d entries, want 3", len(entries))
	}

	wantNames := []string{"alpha.txt", "beta.txt", "gamma"}
	for i, want := range wantNames {
		if entries[i].Name != want {
			t.Errorf("entry %d = %q, want %q (sorted)", i, entries[i].Name, want)
		}
		if entries[i].Ino == 0 {
			t.Errorf("entry %q has zero inode", entries[i].Name)
		}
	}
	if entries[2].Type != vfs.FileTypeDirectory {
		t.Errorf("gamma type = %v, want directory", entries[2].Type)
	}
}

func testRemoveFile(t *testing.T, factory Factory) {
	fs := factory(t)
	mustCreate(t, fs, "/tmp.bin", 0o644)

	if err := fs.Remove(t.Context(), "/tmp.bin"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err := fs.OpenFile(t.Context(), "/tmp.bin", vfs.ReadOnly()); !vfserrors.IsNotFound(err) {
		t.Fatalf("OpenFile after Remove: got %v, want ErrNotFound", err)
	}
	if err := fs.Remove(t.Context(), "/tmp.bin"); !vfserrors.IsNotFound(err) {
		t.Fatalf("second Remove: got %v, want ErrNotFound", err)
	}
}

func testRemoveNonEmptyDirectory(t *testing.T, factory Factory) {
	fs := factory(t)
	mustMkdir(t, fs, "/logs")
	mustCreate(t, fs, "/logs/today", 0o644)

	err := fs.Remove(t.Context(), "/logs")
	if vfserrors.CodeOf(err) != vfserrors.ErrNotEmpty {
		t.Fatalf("Remove on populated directory: got %v, want ErrNotEmpty", err)
	}

	if err := fs.Remove(t.Context(), "/logs/today"); err != nil {
		t.Fatalf("Remove(child) failed: %v", err)
	}
	if err := fs.Remove(t.Context(), "/logs"); err != nil {
		t.Fatalf("Remove on emptied directory failed: %v", err)
	}
}

func testCreateCollision(t *testing.T, factory Factory) {
	fs := factory(t)
	mustCreate(t, fs, "/once", 0o644)

	_, err := fs.Create(t.Context(), "/once", 0o644)
	if vfserrors.CodeOf(err) != vfserrors.ErrAlreadyExists {
		t.Fatalf("Create collision: got %v, want ErrAlreadyExists", err)
	}
}

func testCreateInMissingParent(t *testing.T, factory Factory) {
	fs := factory(t)

	_, err := fs.Create(t.Context(), "/no/such/dir/file", 0o644)
	if !vfserrors.IsNotFound(err) {
		t.Fatalf("Create under missing parent: got %v, want ErrNotFound", err)
	}
}

// testOpenAnyAgreesWithOpeners verifies the probe resolves directories to the
// same record a direct directory open sees.
func testOpenAnyAgreesWithOpeners(t *testing.T, factory Factory) {
	fs := factory(t)
	mustMkdir(t, fs, "/shared")

	dir, err := fs.OpenDirectory(t.Context(), "/shared", vfs.ReadOnly())
	if err != nil {
		t.Fatalf("OpenDirectory failed: %v", err)
	}
	direct, err := dir.Stat(t.Context())
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	dir.Close(t.Context())

	probed, err := vfs.StatPath(t.Context(), fs, "/shared")
	if err != nil {
		t.Fatalf("StatPath failed: %v", err)
	}

	if probed.Ino != direct.Ino || probed.Dev != direct.Dev || probed.Type != direct.Type {
		t.Errorf("probe record %+v differs from direct record %+v", probed, direct)
	}

	fl, isDir, err := vfs.OpenAny(t.Context(), fs, "/shared", vfs.ReadOnly())
	if err != nil {
		t.Fatalf("OpenAny failed: %v", err)
	}
	fl.Close(t.Context())
	if !isDir {
		t.Error("OpenAny must report the directory branch for a directory")
	}

	mustCreate(t, fs, "/shared/file", 0o644)
	fl, isDir, err = vfs.OpenAny(t.Context(), fs, "/shared/file", vfs.ReadOnly())
	if err != nil {
		t.Fatalf("OpenAny failed: %v", err)
	}
	fl.Close(t.Context())
	if isDir {
		t.Error("OpenAny must not report the directory branch for a regular file")
	}
}

func testIdentity(t *testing.T, factory Factory) {
	fs := factory(t)
	mustCreate(t, fs, "/a", 0o644)
	mustCreate(t, fs, "/b", 0o644)

	a := mustStat(t, fs, "/a")
	b := mustStat(t, fs, "/b")
	root := mustStat(t, fs, "/")

	if a.Ino == b.Ino {
		t.Error("distinct files share an inode")
	}
	if a.Dev != b.Dev || a.Dev != root.Dev {
		t.Error("all objects of one instance must report the same device id")
	}
	if a.Dev == 0 {
		t.Error("device id must be non-zero")
	}

	// Stat is stable across repeated opens.
	again := mustStat(t, fs, "/a")
	if again.Ino != a.Ino {
		t.Errorf("inode changed between stats: %d then %d", a.Ino, again.Ino)
	}
}

func testClosedHandle(t *testing.T, factory Factory) {
	fs := factory(t)
	mustCreate(t, fs, "/f", 0o644)

	f, err := fs.OpenFile(t.Context(), "/f", vfs.ReadOnly())
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if err := f.Close(t.Context()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := f.Stat(context.Background()); vfserrors.CodeOf(err) != vfserrors.ErrBadDescriptor {
		t.Fatalf("Stat on closed handle: got %v, want ErrBadDescriptor", err)
	}
}

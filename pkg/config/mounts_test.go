package config

import (
	"context"
	"strings"
	"testing"

	"github.com/velin-dev/velin/internal/bytesize"
	"github.com/velin-dev/velin/pkg/vfs"
)

func TestCreateFilesystem_Mem(t *testing.T) {
	ctx := context.Background()

	fs, err := CreateFilesystem(ctx, MountConfig{
		Point: "/",
		Type:  "mem",
		Mem:   MemMountConfig{Capacity: bytesize.ByteSize(bytesize.MiB), UID: 1000, GID: 1000},
	})
	if err != nil {
		t.Fatalf("CreateFilesystem failed: %v", err)
	}

	// The root directory exists and carries the configured owner
	dir, err := fs.OpenDirectory(ctx, "/", vfs.ReadOnly())
	if err != nil {
		t.Fatalf("Failed to open root: %v", err)
	}
	defer func() { _ = dir.Close(ctx) }()

	attr, err := dir.Stat(ctx)
	if err != nil {
		t.Fatalf("Failed to stat root: %v", err)
	}
	if attr.UID != 1000 || attr.GID != 1000 {
		t.Errorf("Expected root owned by 1000:1000, got %d:%d", attr.UID, attr.GID)
	}
}

func TestCreateFilesystem_EmptyTypeDefaultsToMem(t *testing.T) {
	ctx := context.Background()

	fs, err := CreateFilesystem(ctx, MountConfig{Point: "/"})
	if err != nil {
		t.Fatalf("CreateFilesystem failed: %v", err)
	}
	if fs == nil {
		t.Fatal("Expected a filesystem for empty type")
	}
}

func TestCreateFilesystem_BadgerInMemory(t *testing.T) {
	ctx := context.Background()

	fs, err := CreateFilesystem(ctx, MountConfig{
		Point:  "/data",
		Type:   "badger",
		Badger: BadgerMountConfig{InMemory: true},
	})
	if err != nil {
		t.Fatalf("CreateFilesystem failed: %v", err)
	}

	// Writable: create a file and stat it back
	f, err := fs.Create(ctx, "/report.txt", 0o644)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	attr, err := f.Stat(ctx)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if attr.Mode&0o777 != 0o644 {
		t.Errorf("Expected mode 0644, got %o", attr.Mode&0o777)
	}
	_ = f.Close(ctx)
}

func TestCreateFilesystem_BadgerRequiresPath(t *testing.T) {
	ctx := context.Background()

	_, err := CreateFilesystem(ctx, MountConfig{
		Point: "/data",
		Type:  "badger",
	})
	if err == nil {
		t.Fatal("Expected error for badger mount without path")
	}
	if !strings.Contains(err.Error(), "path") {
		t.Errorf("Expected error about path, got: %v", err)
	}
}

func TestCreateFilesystem_S3RequiresBucket(t *testing.T) {
	ctx := context.Background()

	_, err := CreateFilesystem(ctx, MountConfig{
		Point: "/archive",
		Type:  "s3",
	})
	if err == nil {
		t.Fatal("Expected error for s3 mount without bucket")
	}
	if !strings.Contains(err.Error(), "bucket") {
		t.Errorf("Expected error about bucket, got: %v", err)
	}
}

func TestCreateFilesystem_UnknownType(t *testing.T) {
	ctx := context.Background()

	_, err := CreateFilesystem(ctx, MountConfig{
		Point: "/",
		Type:  "tmpfs",
	})
	if err == nil {
		t.Fatal("Expected error for unknown mount type")
	}
	if !strings.Contains(err.Error(), "unknown mount type") {
		t.Errorf("Expected 'unknown mount type' error, got: %v", err)
	}
}

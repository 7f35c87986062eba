package config

import (
	"context"
	"fmt"

	"github.com/velin-dev/velin/internal/bytesize"
	"github.com/velin-dev/velin/pkg/vfs"
	"github.com/velin-dev/velin/pkg/vfs/badgerfs"
	"github.com/velin-dev/velin/pkg/vfs/memfs"
	"github.com/velin-dev/velin/pkg/vfs/s3fs"
)

// MountConfig describes one entry of the mount table.
//
// Exactly one of the per-type blocks (Mem, Badger, S3) is consulted,
// selected by Type. The other blocks are ignored.
type MountConfig struct {
	// Point is the absolute path the backend is mounted on.
	// Example: "/", "/data", "/archive"
	Point string `mapstructure:"point" validate:"required" yaml:"point"`

	// Type selects the filesystem backend.
	// Valid values: mem, badger, s3
	// Default: mem
	Type string `mapstructure:"type" validate:"required,oneof=mem badger s3" yaml:"type"`

	// Mem configures an in-memory backend (Type: mem)
	Mem MemMountConfig `mapstructure:"mem" yaml:"mem,omitempty"`

	// Badger configures a BadgerDB-backed backend (Type: badger)
	Badger BadgerMountConfig `mapstructure:"badger" yaml:"badger,omitempty"`

	// S3 configures an S3-backed backend (Type: s3)
	S3 S3MountConfig `mapstructure:"s3" yaml:"s3,omitempty"`

	// Seed lists entries created under this mount at boot. Paths are
	// relative to the mount point. Seeding an entry that already exists
	// (a badger mount reopened across runs) is not an error.
	Seed []SeedEntry `mapstructure:"seed" validate:"dive" yaml:"seed,omitempty"`
}

// MemMountConfig configures an in-memory filesystem backend.
// Contents are lost on shutdown.
type MemMountConfig struct {
	// Capacity bounds the total content bytes the backend will hold.
	// Supports human-readable formats: "64Mi", "1Gi", "100MB"
	// Zero means unbounded.
	Capacity bytesize.ByteSize `mapstructure:"capacity" yaml:"capacity,omitempty"`

	// UID and GID own every object created through this backend.
	// Default: 0 (root)
	UID uint32 `mapstructure:"uid" yaml:"uid,omitempty"`
	GID uint32 `mapstructure:"gid" yaml:"gid,omitempty"`
}

// BadgerMountConfig configures a BadgerDB-backed filesystem backend.
// Contents persist across runs in the database directory.
type BadgerMountConfig struct {
	// Path is the Badger database directory (required unless InMemory).
	// Example: /var/lib/velin/data
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// InMemory keeps the whole database in memory. Used by tests.
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory,omitempty"`

	// UID and GID own every object created through this backend.
	UID uint32 `mapstructure:"uid" yaml:"uid,omitempty"`
	GID uint32 `mapstructure:"gid" yaml:"gid,omitempty"`
}

// S3MountConfig configures a read-only S3-backed filesystem backend.
// Objects under the key prefix appear as files; "/" in keys form directories.
type S3MountConfig struct {
	// Bucket is the S3 bucket name (required).
	Bucket string `mapstructure:"bucket" yaml:"bucket,omitempty"`

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string `mapstructure:"region" yaml:"region,omitempty"`

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible services
	// like MinIO or Localstack).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// AccessKeyID and SecretAccessKey are static credentials. When empty,
	// the SDK's default credential chain applies.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`

	// KeyPrefix scopes the backend to a subtree of the bucket.
	// Should end with "/" if non-empty.
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`

	// ForcePathStyle forces path-style addressing (required for
	// Localstack/MinIO).
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`

	// UID and GID are reported as the owner of every object.
	UID uint32 `mapstructure:"uid" yaml:"uid,omitempty"`
	GID uint32 `mapstructure:"gid" yaml:"gid,omitempty"`
}

// SeedEntry describes one file or directory created under a mount at boot.
type SeedEntry struct {
	// Path is the entry's path relative to the mount point.
	// Example: "etc/hostname", "var/log"
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// Type is the entry type.
	// Valid values: file, dir
	// Default: file
	Type string `mapstructure:"type" validate:"omitempty,oneof=file dir" yaml:"type,omitempty"`

	// Content is the file content (ignored for directories).
	Content string `mapstructure:"content" yaml:"content,omitempty"`

	// Mode is the permission bits in octal notation, e.g. "644" or "0755".
	// Empty uses the backend default (0644 for files, 0755 for directories).
	Mode string `mapstructure:"mode" yaml:"mode,omitempty"`
}

// CreateFilesystem creates a filesystem backend from one mount entry.
//
// S3 backends validate bucket access during creation, so the context
// should carry a deadline when boot time matters.
func CreateFilesystem(ctx context.Context, cfg MountConfig) (vfs.Filesystem, error) {
	switch cfg.Type {
	case "mem", "":
		return createMemFilesystem(cfg.Mem), nil
	case "badger":
		return createBadgerFilesystem(cfg.Badger)
	case "s3":
		return createS3Filesystem(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown mount type: %q", cfg.Type)
	}
}

// createMemFilesystem creates an in-memory backend.
func createMemFilesystem(cfg MemMountConfig) vfs.Filesystem {
	return memfs.NewWithConfig(memfs.Config{
		Capacity: cfg.Capacity,
		UID:      cfg.UID,
		GID:      cfg.GID,
	})
}

// createBadgerFilesystem creates a BadgerDB-backed backend.
func createBadgerFilesystem(cfg BadgerMountConfig) (vfs.Filesystem, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger mount requires path to be set")
	}

	fs, err := badgerfs.Open(badgerfs.Config{
		Path:     cfg.Path,
		InMemory: cfg.InMemory,
		UID:      cfg.UID,
		GID:      cfg.GID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return fs, nil
}

// createS3Filesystem creates an S3-backed backend. Bucket access is
// verified here, so a missing bucket fails at boot rather than on the
// first lookup.
func createS3Filesystem(ctx context.Context, cfg S3MountConfig) (vfs.Filesystem, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 mount requires bucket to be set")
	}

	s3Cfg := s3fs.Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		KeyPrefix:       cfg.KeyPrefix,
		ForcePathStyle:  cfg.ForcePathStyle,
		UID:             cfg.UID,
		GID:             cfg.GID,
	}

	return s3fs.NewFromConfig(ctx, s3Cfg)
}

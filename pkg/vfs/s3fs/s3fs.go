// Package s3fs exposes an S3 bucket (or a key prefix within one) as a
// read-only vfs.Filesystem.
//
// S3 has no directories, so they are synthesized: a path is a directory
// when at least one object key lives under it. Regular files map 1:1 to
// objects. All mutating operations fail with ErrReadOnly.
package s3fs

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/velin-dev/velin/internal/telemetry"
	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// Client is the subset of the S3 API the filesystem uses. *s3.Client
// satisfies it.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Config holds configuration for an S3-backed filesystem.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible services).
	Endpoint string

	// AccessKeyID and SecretAccessKey are static credentials. When empty,
	// the SDK's default credential chain applies.
	AccessKeyID     string
	SecretAccessKey string

	// KeyPrefix scopes the filesystem to a subtree of the bucket.
	// Should end with "/" if non-empty.
	KeyPrefix string

	// ForcePathStyle forces path-style addressing (required for
	// Localstack/MinIO).
	ForcePathStyle bool

	// UID and GID are reported as the owner of every object.
	UID uint32
	GID uint32
}

const (
	fileMode = 0o444
	dirMode  = 0o555
)

// FileSystem is a read-only view over one bucket prefix.
type FileSystem struct {
	client  Client
	bucket  string
	prefix  string
	dev     uint64
	uid     uint32
	gid     uint32
	mounted time.Time
}

// New wraps an existing client. The bucket is not validated; use
// NewFromConfig when the client should be built and checked here.
func New(client Client, cfg Config) *FileSystem {
	return &FileSystem{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.KeyPrefix,
		dev:     vfs.AllocateDeviceID(),
		uid:     cfg.UID,
		gid:     cfg.GID,
		mounted: time.Now(),
	}
}

// NewFromConfig builds an S3 client from cfg, verifies bucket access with
// HeadBucket, and returns the filesystem. The bucket must already exist.
func NewFromConfig(ctx context.Context, cfg Config) (*FileSystem, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return New(client, cfg), nil
}

// objectKey maps a cleaned absolute path to its object key under the
// configured prefix. The root maps to the prefix itself.
func (fs *FileSystem) objectKey(p string) string {
	rel := strings.TrimPrefix(path.Clean(p), "/")
	if rel == "." {
		rel = ""
	}
	return fs.prefix + rel
}

// inodeFor derives a stable inode from the object's full location, so the
// same object reports the same inode across instances and restarts.
func (fs *FileSystem) inodeFor(key string) uint64 {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("s3://"+fs.bucket+"/"+key))
	return vfs.InodeForID(id)
}

func (fs *FileSystem) fileAttr(key string, size int64, modified *time.Time) vfs.FileAttr {
	mtime := fs.mounted
	if modified != nil {
		mtime = *modified
	}
	return vfs.FileAttr{
		Dev:       fs.dev,
		Ino:       fs.inodeFor(key),
		Type:      vfs.FileTypeRegular,
		Mode:      fileMode,
		Nlink:     1,
		UID:       fs.uid,
		GID:       fs.gid,
		Size:      uint64(size),
		BlockSize: vfs.DefaultBlockSize,
		Atime:     mtime,
		Mtime:     mtime,
		Ctime:     mtime,
	}
}

func (fs *FileSystem) dirAttr(key string) vfs.FileAttr {
	return vfs.FileAttr{
		Dev:       fs.dev,
		Ino:       fs.inodeFor(key + "/"),
		Type:      vfs.FileTypeDirectory,
		Mode:      dirMode,
		Nlink:     2,
		UID:       fs.uid,
		GID:       fs.gid,
		BlockSize: vfs.DefaultBlockSize,
		Atime:     fs.mounted,
		Mtime:     fs.mounted,
		Ctime:     fs.mounted,
	}
}

// headObject stats one object, mapping missing keys to ErrNotFound.
func (fs *FileSystem) headObject(ctx context.Context, key, p string) (*s3.HeadObjectOutput, error) {
	ctx, span := telemetry.StartBackendSpan(ctx, "s3", "head_object",
		telemetry.Bucket(fs.bucket),
		telemetry.StorageKey(key))
	defer span.End()

	out, err := fs.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			// Misses are a routine stat-probe outcome, not span errors.
			return nil, vfserrors.NewNotFoundError(p)
		}
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("s3 head object: %w", err)
	}
	return out, nil
}

// isDirectory reports whether any object key lives under key+"/".
func (fs *FileSystem) isDirectory(ctx context.Context, key string) (bool, error) {
	ctx, span := telemetry.StartBackendSpan(ctx, "s3", "list_prefix",
		telemetry.Bucket(fs.bucket),
		telemetry.StorageKey(key+"/"))
	defer span.End()

	out, err := fs.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(fs.bucket),
		Prefix:    aws.String(key + "/"),
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int32(1),
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return false, fmt.Errorf("s3 list objects: %w", err)
	}
	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

// OpenFile opens the object at p. Synthesized directories fail
// ErrIsDirectory so the stat probe can reclassify and retry.
func (fs *FileSystem) OpenFile(ctx context.Context, p string, opts vfs.OpenOptions) (vfs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := vfs.ValidatePath(p); err != nil {
		return nil, err
	}
	if opts.Write {
		return nil, vfserrors.NewReadOnlyError(p)
	}

	key := fs.objectKey(p)
	if key == fs.prefix {
		return nil, vfserrors.NewIsDirectoryError(p)
	}

	head, err := fs.headObject(ctx, key, p)
	if err != nil {
		if !vfserrors.IsNotFound(err) {
			return nil, err
		}
		dir, derr := fs.isDirectory(ctx, key)
		if derr != nil {
			return nil, derr
		}
		if dir {
			return nil, vfserrors.NewIsDirectoryError(p)
		}
		return nil, err
	}

	return newHandle(fs, key, p, fs.fileAttr(key, aws.ToInt64(head.ContentLength), head.LastModified)), nil
}

// OpenDirectory opens the synthesized directory at p.
func (fs *FileSystem) OpenDirectory(ctx context.Context, p string, opts vfs.OpenOptions) (vfs.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := vfs.ValidatePath(p); err != nil {
		return nil, err
	}
	if opts.Write {
		return nil, vfserrors.NewReadOnlyError(p)
	}

	key := fs.objectKey(p)
	if key == fs.prefix {
		return newHandle(fs, key, p, fs.dirAttr(key)), nil
	}

	dir, err := fs.isDirectory(ctx, key)
	if err != nil {
		return nil, err
	}
	if dir {
		return newHandle(fs, key, p, fs.dirAttr(key)), nil
	}

	// Not a directory. Distinguish a plain object from nothing at all.
	if _, err := fs.headObject(ctx, key, p); err != nil {
		return nil, err
	}
	return nil, vfserrors.NewNotDirectoryError(p)
}

// Create always fails: the filesystem is read-only.
func (fs *FileSystem) Create(ctx context.Context, p string, mode uint32) (vfs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, vfserrors.NewReadOnlyError(p)
}

// Mkdir always fails: the filesystem is read-only.
func (fs *FileSystem) Mkdir(ctx context.Context, p string, mode uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return vfserrors.NewReadOnlyError(p)
}

// Remove always fails: the filesystem is read-only.
func (fs *FileSystem) Remove(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return vfserrors.NewReadOnlyError(p)
}

// isNotFoundError checks if an error is an S3 not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "404")
}

// isInvalidRangeError checks for HTTP 416 responses from ranged reads.
func isInvalidRangeError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "InvalidRange") ||
		strings.Contains(errStr, "416")
}

var _ vfs.Filesystem = (*FileSystem)(nil)

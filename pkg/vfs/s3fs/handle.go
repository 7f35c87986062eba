package s3fs

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/velin-dev/velin/internal/telemetry"
	"github.com/velin-dev/velin/pkg/vfs"
	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// handle backs both vfs.File and vfs.Directory for s3fs.
type handle struct {
	fs     *FileSystem
	key    string
	path   string
	attr   vfs.FileAttr
	closed atomic.Bool
}

func newHandle(fs *FileSystem, key, path string, attr vfs.FileAttr) *handle {
	return &handle{fs: fs, key: key, path: path, attr: attr}
}

func (h *handle) guard() error {
	if h.closed.Load() {
		return &vfserrors.FSError{
			Code:    vfserrors.ErrBadDescriptor,
			Message: "handle is closed",
			Path:    h.path,
		}
	}
	return nil
}

// Stat re-heads the object for files, so size changes made behind our back
// show up. Directory attributes are synthesized and never change.
func (h *handle) Stat(ctx context.Context) (vfs.FileAttr, error) {
	if err := ctx.Err(); err != nil {
		return vfs.FileAttr{}, err
	}
	if err := h.guard(); err != nil {
		return vfs.FileAttr{}, err
	}

	if h.attr.Type == vfs.FileTypeDirectory {
		return h.attr, nil
	}

	head, err := h.fs.headObject(ctx, h.key, h.path)
	if err != nil {
		return vfs.FileAttr{}, err
	}
	return h.fs.fileAttr(h.key, aws.ToInt64(head.ContentLength), head.LastModified), nil
}

func (h *handle) Close(ctx context.Context) error {
	h.closed.Store(true)
	return nil
}

// ReadAt fetches a byte range with one ranged GetObject. Reads entirely
// past the end come back as zero bytes without an error, matching the
// in-memory backends.
func (h *handle) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := h.guard(); err != nil {
		return 0, err
	}
	if h.attr.Type == vfs.FileTypeDirectory {
		return 0, vfserrors.NewIsDirectoryError(h.path)
	}
	if off < 0 {
		return 0, vfserrors.NewInvalidArgumentError("negative read offset")
	}
	if len(p) == 0 {
		return 0, nil
	}

	ctx, span := telemetry.StartBackendSpan(ctx, "s3", "get_object",
		telemetry.Bucket(h.fs.bucket),
		telemetry.StorageKey(h.key),
		telemetry.FSSize(uint64(len(p))))
	defer span.End()

	rangeHeader := fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1)
	resp, err := h.fs.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.fs.bucket),
		Key:    aws.String(h.key),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		if isInvalidRangeError(err) {
			return 0, nil
		}
		telemetry.RecordError(ctx, err)
		if isNotFoundError(err) {
			return 0, vfserrors.NewNotFoundError(h.path)
		}
		return 0, fmt.Errorf("s3 get object: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return 0, fmt.Errorf("read s3 object body: %w", err)
	}

	return copy(p, data), nil
}

// ReadDir lists the immediate children of the directory, one delimiter
// level deep. Pagination is handled internally.
func (h *handle) ReadDir(ctx context.Context) ([]vfs.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := h.guard(); err != nil {
		return nil, err
	}
	if h.attr.Type != vfs.FileTypeDirectory {
		return nil, vfserrors.NewNotDirectoryError(h.path)
	}

	prefix := h.key
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	ctx, span := telemetry.StartBackendSpan(ctx, "s3", "list_objects",
		telemetry.Bucket(h.fs.bucket),
		telemetry.StorageKey(prefix))
	defer span.End()

	var entries []vfs.DirEntry
	paginator := s3.NewListObjectsV2Paginator(h.fs.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(h.fs.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			telemetry.RecordError(ctx, err)
			return nil, fmt.Errorf("s3 list objects: %w", err)
		}

		for _, cp := range page.CommonPrefixes {
			full := aws.ToString(cp.Prefix)
			name := strings.TrimSuffix(strings.TrimPrefix(full, prefix), "/")
			if name == "" {
				continue
			}
			entries = append(entries, vfs.DirEntry{
				Ino:  h.fs.inodeFor(full),
				Name: name,
				Type: vfs.FileTypeDirectory,
			})
		}

		for _, obj := range page.Contents {
			full := aws.ToString(obj.Key)
			name := strings.TrimPrefix(full, prefix)
			if name == "" {
				continue // directory marker for the prefix itself
			}
			entries = append(entries, vfs.DirEntry{
				Ino:  h.fs.inodeFor(full),
				Name: name,
				Type: vfs.FileTypeRegular,
			})
		}
	}

	slices.SortFunc(entries, func(a, b vfs.DirEntry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

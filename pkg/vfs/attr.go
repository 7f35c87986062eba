package vfs

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"

	vfserrors "github.com/velin-dev/velin/pkg/vfs/errors"
)

// FileType represents the type of a filesystem object.
type FileType int

const (
	FileTypeRegular FileType = iota
	FileTypeDirectory
	FileTypeSymlink
	FileTypeBlockDevice
	FileTypeCharDevice
	FileTypeSocket
	FileTypeFIFO
)

// String returns a short lowercase name for the file type.
func (t FileType) String() string {
	switch t {
	case FileTypeRegular:
		return "file"
	case FileTypeDirectory:
		return "directory"
	case FileTypeSymlink:
		return "symlink"
	case FileTypeBlockDevice:
		return "block-device"
	case FileTypeCharDevice:
		return "char-device"
	case FileTypeSocket:
		return "socket"
	case FileTypeFIFO:
		return "fifo"
	default:
		return "unknown"
	}
}

// DefaultBlockSize is the preferred I/O block size reported for every
// filesystem object.
const DefaultBlockSize = 4096

// FileAttr is the complete metadata record for a file or directory.
// It is the single logical record every stat-family reply is projected from.
type FileAttr struct {
	// Dev is the device id of the filesystem instance owning the object.
	Dev uint64 `json:"dev"`

	// Ino is the inode number, stable for the lifetime of the object.
	Ino uint64 `json:"ino"`

	// Type is the file type (regular, directory, symlink, etc.)
	Type FileType `json:"type"`

	// Mode contains permission bits (0o7777 max). The type is carried
	// separately and combined with Mode only at the ABI boundary.
	Mode uint32 `json:"mode"`

	// Nlink is the number of hard links referencing this object.
	Nlink uint32 `json:"nlink"`

	// UID is the owner user ID.
	UID uint32 `json:"uid"`

	// GID is the owner group ID.
	GID uint32 `json:"gid"`

	// Rdev contains device major and minor numbers for device files.
	Rdev uint64 `json:"rdev,omitempty"`

	// Size is the object size in bytes.
	Size uint64 `json:"size"`

	// BlockSize is the preferred I/O block size.
	BlockSize uint32 `json:"block_size"`

	// Atime is the last access time.
	Atime time.Time `json:"atime"`

	// Mtime is the last modification time (content changes).
	Mtime time.Time `json:"mtime"`

	// Ctime is the last change time (metadata changes).
	Ctime time.Time `json:"ctime"`

	// CreationTime is the birth time, for backends that record it.
	// It is not projected into any stat-family reply today.
	CreationTime time.Time `json:"creation_time,omitempty"`
}

// Blocks returns the object's size in 512-byte units, rounded up.
func (a FileAttr) Blocks() uint64 {
	return (a.Size + 511) / 512
}

// DirEntry represents a single entry in a directory listing.
type DirEntry struct {
	// Ino is the inode number of the entry.
	Ino uint64

	// Name is the entry name without any path prefix.
	Name string

	// Type is the entry's file type.
	Type FileType
}

// Filesystem path limits (POSIX standard values).
const (
	// MaxNameLen is the maximum length of a single path component (NAME_MAX).
	MaxNameLen = 255

	// MaxPathLen is the maximum length of a full path (PATH_MAX).
	MaxPathLen = 4096
)

// ValidateName validates a single path component for create operations.
// Returns ErrInvalidArgument for empty, "." or ".." names and ErrNameTooLong
// for names over MaxNameLen bytes.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return vfserrors.NewInvalidArgumentError("invalid name: " + name)
	}
	if len(name) > MaxNameLen {
		return vfserrors.NewNameTooLongError(name)
	}
	return nil
}

// ValidatePath validates a full filesystem path.
// Returns ErrNameTooLong if the path exceeds MaxPathLen bytes.
func ValidatePath(path string) error {
	if len(path) > MaxPathLen {
		return vfserrors.NewNameTooLongError(path)
	}
	return nil
}

// DefaultMode returns the default permission bits for a file type:
// 0755 for directories, 0644 otherwise.
func DefaultMode(t FileType) uint32 {
	if t == FileTypeDirectory {
		return 0o755
	}
	return 0o644
}

// InodeForID derives a stable 64-bit inode number from an object UUID.
// Backends key objects by UUID; the ABI needs a numeric inode, so the first
// eight bytes of the UUID serve as one.
func InodeForID(id uuid.UUID) uint64 {
	return binary.BigEndian.Uint64(id[:8])
}

package abi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/velin-dev/velin/pkg/vfs"
)

// Stat is struct stat for x86-64 (asm/stat.h), 144 bytes on the wire.
// Blank fields are the kernel's explicit padding; encoding/binary writes
// them as zeros.
type Stat struct {
	Dev       uint64
	Ino       uint64
	Nlink     uint64
	Mode      uint32
	UID       uint32
	GID       uint32
	_         uint32 // __pad0
	Rdev      uint64
	Size      int64
	Blksize   int64
	Blocks    int64
	Atime     int64
	AtimeNsec int64
	Mtime     int64
	MtimeNsec int64
	Ctime     int64
	CtimeNsec int64
	_         [3]int64
}

// StatxTimestamp is struct statx_timestamp (linux/stat.h), 16 bytes.
type StatxTimestamp struct {
	Sec  int64
	Nsec uint32
	_    int32
}

// Statx is struct statx (linux/stat.h), 256 bytes on the wire.
type Statx struct {
	Mask           uint32
	Blksize        uint32
	Attributes     uint64
	Nlink          uint32
	UID            uint32
	GID            uint32
	Mode           uint16
	_              uint16
	Ino            uint64
	Size           uint64
	Blocks         uint64
	AttributesMask uint64
	Atime          StatxTimestamp
	Btime          StatxTimestamp
	Ctime          StatxTimestamp
	Mtime          StatxTimestamp
	RdevMajor      uint32
	RdevMinor      uint32
	DevMajor       uint32
	DevMinor       uint32
	MntID          uint64
	DioMemAlign    uint32
	DioOffsetAlign uint32
	_              [12]uint64
}

// Statfs is struct statfs for x86-64 (asm/statfs.h), 120 bytes on the
// wire.
type Statfs struct {
	Type    int64
	Bsize   int64
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Fsid    [2]int32
	Namelen int64
	Frsize  int64
	Flags   int64
	_       [4]int64
}

// Encode serializes the record exactly as the kernel would copy it out.
func (s *Stat) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(StatSize)
	if err := binary.Write(&buf, binary.LittleEndian, s); err != nil {
		return nil, fmt.Errorf("encode stat: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeStat parses a wire-format stat buffer. Used by tests and the
// shell to read back what a handler wrote into task memory.
func DecodeStat(data []byte) (*Stat, error) {
	if len(data) < StatSize {
		return nil, fmt.Errorf("stat buffer too short: %d bytes", len(data))
	}
	var s Stat
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &s); err != nil {
		return nil, fmt.Errorf("decode stat: %w", err)
	}
	return &s, nil
}

// Encode serializes the record exactly as the kernel would copy it out.
func (s *Statx) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(StatxSize)
	if err := binary.Write(&buf, binary.LittleEndian, s); err != nil {
		return nil, fmt.Errorf("encode statx: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeStatx parses a wire-format statx buffer.
func DecodeStatx(data []byte) (*Statx, error) {
	if len(data) < StatxSize {
		return nil, fmt.Errorf("statx buffer too short: %d bytes", len(data))
	}
	var s Statx
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &s); err != nil {
		return nil, fmt.Errorf("decode statx: %w", err)
	}
	return &s, nil
}

// Encode serializes the record exactly as the kernel would copy it out.
func (s *Statfs) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(StatfsSize)
	if err := binary.Write(&buf, binary.LittleEndian, s); err != nil {
		return nil, fmt.Errorf("encode statfs: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeStatfs parses a wire-format statfs buffer.
func DecodeStatfs(data []byte) (*Statfs, error) {
	if len(data) < StatfsSize {
		return nil, fmt.Errorf("statfs buffer too short: %d bytes", len(data))
	}
	var s Statfs
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &s); err != nil {
		return nil, fmt.Errorf("decode statfs: %w", err)
	}
	return &s, nil
}

// typeBits maps the filesystem's object type to S_IFMT bits.
func typeBits(t vfs.FileType) uint32 {
	switch t {
	case vfs.FileTypeDirectory:
		return S_IFDIR
	case vfs.FileTypeSymlink:
		return S_IFLNK
	case vfs.FileTypeBlockDevice:
		return S_IFBLK
	case vfs.FileTypeCharDevice:
		return S_IFCHR
	case vfs.FileTypeSocket:
		return S_IFSOCK
	case vfs.FileTypeFIFO:
		return S_IFIFO
	default:
		return S_IFREG
	}
}

// ModeBits combines type and permission bits into st_mode.
func ModeBits(t vfs.FileType, perm uint32) uint32 {
	return typeBits(t) | (perm & 0o7777)
}

// unixPair splits a timestamp into seconds and nanoseconds. The zero
// time encodes as the epoch rather than a garbage negative second count.
func unixPair(t time.Time) (int64, int64) {
	if t.IsZero() {
		return 0, 0
	}
	return t.Unix(), int64(t.Nanosecond())
}

// MajorDev extracts the major number from an encoded device id
// (linux/kdev_t.h, new encoding).
func MajorDev(dev uint64) uint32 {
	return uint32((dev>>8)&0xfff | (dev>>32)&^0xfff)
}

// MinorDev extracts the minor number from an encoded device id.
func MinorDev(dev uint64) uint32 {
	return uint32(dev&0xff | (dev>>12)&^0xff)
}

// StatFromAttr projects a filesystem record into the stat layout.
func StatFromAttr(attr vfs.FileAttr) Stat {
	atimeSec, atimeNsec := unixPair(attr.Atime)
	mtimeSec, mtimeNsec := unixPair(attr.Mtime)
	ctimeSec, ctimeNsec := unixPair(attr.Ctime)

	return Stat{
		Dev:       attr.Dev,
		Ino:       attr.Ino,
		Nlink:     uint64(attr.Nlink),
		Mode:      ModeBits(attr.Type, attr.Mode),
		UID:       attr.UID,
		GID:       attr.GID,
		Rdev:      attr.Rdev,
		Size:      int64(attr.Size),
		Blksize:   int64(attr.BlockSize),
		Blocks:    int64(attr.Blocks()),
		Atime:     atimeSec,
		AtimeNsec: atimeNsec,
		Mtime:     mtimeSec,
		MtimeNsec: mtimeNsec,
		Ctime:     ctimeSec,
		CtimeNsec: ctimeNsec,
	}
}

// StatxFromAttr projects a filesystem record into the statx layout.
//
// stx_mask, stx_attributes, stx_attributes_mask, and stx_btime stay zero:
// the emulator reports every basic field but does not advertise them, and
// birth time is not surfaced even when a backend records one.
func StatxFromAttr(attr vfs.FileAttr) Statx {
	toTS := func(t time.Time) StatxTimestamp {
		sec, nsec := unixPair(t)
		return StatxTimestamp{Sec: sec, Nsec: uint32(nsec)}
	}

	return Statx{
		Blksize:   attr.BlockSize,
		Nlink:     attr.Nlink,
		UID:       attr.UID,
		GID:       attr.GID,
		Mode:      uint16(ModeBits(attr.Type, attr.Mode)),
		Ino:       attr.Ino,
		Size:      attr.Size,
		Blocks:    attr.Blocks(),
		Atime:     toTS(attr.Atime),
		Ctime:     toTS(attr.Ctime),
		Mtime:     toTS(attr.Mtime),
		RdevMajor: MajorDev(attr.Rdev),
		RdevMinor: MinorDev(attr.Rdev),
		DevMajor:  MajorDev(attr.Dev),
		DevMinor:  MinorDev(attr.Dev),
	}
}

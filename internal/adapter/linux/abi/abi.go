// Package abi defines the x86-64 Linux ABI surface of the stat syscall
// family: syscall numbers, flag and mode constants, error numbers, and
// the exact user-visible buffer layouts.
//
// Layouts come from the kernel's UAPI headers (asm/stat.h,
// linux/stat.h, asm/statfs.h) for x86-64. This is the only architecture
// the emulator speaks.
package abi

// Syscall numbers (asm/unistd_64.h).
const (
	SysStat       = 4
	SysFstat      = 5
	SysLstat      = 6
	SysStatfs     = 137
	SysFstatfs    = 138
	SysNewfstatat = 262
	SysStatx      = 332
)

// AT_FDCWD directs relative paths at the caller's working directory
// (fcntl.h). It is a sentinel, never a real descriptor.
const AT_FDCWD int32 = -100

// fstatat / statx flags (fcntl.h, linux/fcntl.h).
const (
	AT_SYMLINK_NOFOLLOW = 0x100
	AT_REMOVEDIR        = 0x200
	AT_SYMLINK_FOLLOW   = 0x400
	AT_NO_AUTOMOUNT     = 0x800
	AT_EMPTY_PATH       = 0x1000

	AT_STATX_SYNC_TYPE    = 0x6000
	AT_STATX_SYNC_AS_STAT = 0x0000
	AT_STATX_FORCE_SYNC   = 0x2000
	AT_STATX_DONT_SYNC    = 0x4000
)

// File type bits of st_mode (stat.h).
const (
	S_IFMT   = 0xf000
	S_IFSOCK = 0xc000
	S_IFLNK  = 0xa000
	S_IFREG  = 0x8000
	S_IFBLK  = 0x6000
	S_IFDIR  = 0x4000
	S_IFCHR  = 0x2000
	S_IFIFO  = 0x1000
)

// statx result masks (linux/stat.h).
const (
	STATX_TYPE        = 0x0001
	STATX_MODE        = 0x0002
	STATX_NLINK       = 0x0004
	STATX_UID         = 0x0008
	STATX_GID         = 0x0010
	STATX_ATIME       = 0x0020
	STATX_MTIME       = 0x0040
	STATX_CTIME       = 0x0080
	STATX_INO         = 0x0100
	STATX_SIZE        = 0x0200
	STATX_BLOCKS      = 0x0400
	STATX_BASIC_STATS = 0x07ff
	STATX_BTIME       = 0x0800
	STATX_ALL         = 0x0fff
)

// Path limits (linux/limits.h).
const (
	PathMax = 4096
	NameMax = 255
)

// Wire sizes of the reply buffers.
const (
	StatSize   = 144
	StatxSize  = 256
	StatfsSize = 120
)

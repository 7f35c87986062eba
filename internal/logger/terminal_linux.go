//go:build linux

package logger

import (
	"syscall"
	"unsafe"
)

// tcgets asks the tty driver for the current termios block (asm/ioctls.h).
const tcgets = 0x5401

// isTerminal reports whether fd is attached to a terminal. The TCGETS
// ioctl succeeds only on ttys; any other file kind fails ENOTTY.
func isTerminal(fd uintptr) bool {
	var termios syscall.Termios
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, tcgets, uintptr(unsafe.Pointer(&termios)))
	return errno == 0
}

// Package usermem provides access to the memory of emulated tasks.
//
// Syscall handlers read path strings out of task memory and write reply
// buffers back into it through the Memory interface. Accesses either
// complete fully or fail; there are no partial reads or writes.
package usermem

import (
	"bytes"
	"errors"
)

// ErrBadAddress is returned when an access touches unmapped memory.
// Syscall handlers translate it to EFAULT.
var ErrBadAddress = errors.New("bad address")

// ErrTooLong is returned by ReadCString when no terminator shows up
// within the allowed length. Syscall handlers translate it to
// ENAMETOOLONG.
var ErrTooLong = errors.New("string exceeds maximum length")

// Memory is one task's address space.
type Memory interface {
	// ReadBytes fills p from memory starting at addr.
	ReadBytes(addr uint64, p []byte) error

	// WriteBytes copies p into memory starting at addr.
	WriteBytes(addr uint64, p []byte) error
}

// readChunk is how much ReadCString pulls per access while scanning for
// the terminator.
const readChunk = 64

// ReadCString reads a NUL-terminated string starting at addr, examining
// at most max bytes including the terminator.
//
// The scan is chunked so short strings near the end of mapped memory
// still read cleanly: when a chunk faults, the tail is retried byte by
// byte in case the terminator sits before the unmapped boundary.
func ReadCString(m Memory, addr uint64, max int) (string, error) {
	if max <= 0 {
		return "", ErrTooLong
	}

	var out []byte
	remaining := max
	cur := addr

	for remaining > 0 {
		n := readChunk
		if n > remaining {
			n = remaining
		}

		chunk := make([]byte, n)
		if err := m.ReadBytes(cur, chunk); err != nil {
			readable := 0
			for readable < n {
				if m.ReadBytes(cur+uint64(readable), chunk[readable:readable+1]) != nil {
					break
				}
				readable++
			}
			if readable == 0 {
				return "", err
			}
			if i := bytes.IndexByte(chunk[:readable], 0); i >= 0 {
				return string(append(out, chunk[:i]...)), nil
			}
			return "", err
		}

		if i := bytes.IndexByte(chunk, 0); i >= 0 {
			return string(append(out, chunk[:i]...)), nil
		}

		out = append(out, chunk...)
		cur += uint64(n)
		remaining -= n
	}

	return "", ErrTooLong
}

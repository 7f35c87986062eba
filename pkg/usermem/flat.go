package usermem

import (
	"fmt"
	"sync"
)

// FlatMemory is a contiguous address space starting at zero. It is the
// memory model behind emulated tasks; tests and the interactive shell
// allocate from it directly.
type FlatMemory struct {
	mu   sync.RWMutex
	data []byte
}

// NewFlatMemory allocates size bytes of zeroed memory.
func NewFlatMemory(size uint64) *FlatMemory {
	return &FlatMemory{data: make([]byte, size)}
}

// Size returns the extent of the address space.
func (m *FlatMemory) Size() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.data))
}

func (m *FlatMemory) checkRange(addr uint64, n int) error {
	size := uint64(len(m.data))
	if addr > size || uint64(n) > size-addr {
		return fmt.Errorf("%w: [%#x, %#x) outside [0, %#x)", ErrBadAddress, addr, addr+uint64(n), size)
	}
	return nil
}

func (m *FlatMemory) ReadBytes(addr uint64, p []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkRange(addr, len(p)); err != nil {
		return err
	}
	copy(p, m.data[addr:addr+uint64(len(p))])
	return nil
}

func (m *FlatMemory) WriteBytes(addr uint64, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkRange(addr, len(p)); err != nil {
		return err
	}
	copy(m.data[addr:], p)
	return nil
}

var _ Memory = (*FlatMemory)(nil)

package container

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mapped is a read-only view of an input file.
type Mapped struct {
	data   []byte
	mapped bool
}

// MapFile maps path into memory read-only. Empty files yield an empty view
// because zero-length mappings are rejected by the kernel.
func MapFile(path string) (*Mapped, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open input: %s is a directory", path)
	}
	size := info.Size()
	if size == 0 {
		return &Mapped{data: []byte{}}, nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("map input: %s is too large (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("map input: %w", err)
	}
	return &Mapped{data: data, mapped: true}, nil
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (m *Mapped) Bytes() []byte {
	if m == nil {
		return nil
	}
	return m.data
}

// Close releases the mapping. Calling Close more than once is a no-op.
func (m *Mapped) Close() error {
	if m == nil || !m.mapped {
		return nil
	}
	data := m.data
	m.data = nil
	m.mapped = false
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("unmap input: %w", err)
	}
	return nil
}

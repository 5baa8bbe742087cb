package disk

import (
	"fmt"

	"github.com/edsrzf/mmap-go"
)

// Buffer is page-aligned memory suitable for direct I/O. Go heap slices carry
// no alignment guarantee, and O_DIRECT / FILE_FLAG_NO_BUFFERING reject
// misaligned user buffers, so sector buffers come from an anonymous mapping.
type Buffer struct {
	m mmap.MMap
}

// NewBuffer maps size bytes of zeroed, page-aligned anonymous memory.
func NewBuffer(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", size)
	}
	m, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("map %d byte buffer: %w", size, err)
	}
	return &Buffer{m: m}, nil
}

// Bytes returns the mapped memory. It is invalid after Close.
func (b *Buffer) Bytes() []byte { return b.m }

// Close unmaps the buffer. Calling it again is a no-op.
func (b *Buffer) Close() error {
	if b.m == nil {
		return nil
	}
	err := b.m.Unmap()
	b.m = nil
	return err
}

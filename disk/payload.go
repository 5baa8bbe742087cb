package disk

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Payload is a file's full contents mapped read-only into memory. The mapping
// starts on a page boundary, so it can be handed straight to a direct write.
type Payload struct {
	name string
	m    mmap.MMap
}

// LoadPayload maps name into memory. The file must exist and be non-empty.
func LoadPayload(name string) (*Payload, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilePayload, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", ErrFilePayload, name, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrFilePayload, name)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrFilePayload, name)
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: map %s: %w", ErrFilePayload, name, err)
	}
	return &Payload{name: name, m: m}, nil
}

// Name returns the file the payload was loaded from.
func (p *Payload) Name() string { return p.name }

// Len returns the exact payload length in bytes.
func (p *Payload) Len() int { return len(p.m) }

// Bytes returns the mapped contents. It is invalid after Close.
func (p *Payload) Bytes() []byte { return p.m }

// Close unmaps the payload. Calling it again is a no-op.
func (p *Payload) Close() error {
	if p.m == nil {
		return nil
	}
	err := p.m.Unmap()
	p.m = nil
	return err
}

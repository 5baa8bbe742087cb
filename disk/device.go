// Package disk opens raw block devices with cache-bypassing, write-through
// semantics and resolves their geometry. The per-OS primitives live in
// device_<os>.go.
package disk

import (
	"fmt"
	"os"
	"runtime"
)

// Device owns one raw device handle for the lifetime of a command.
// Geometry is queried once and cached.
type Device struct {
	path string
	f    *os.File
	geom *Geometry
}

// Open opens path for combined read/write with direct, write-through I/O and
// shared read/write access. Aliases are resolved to the underlying device
// first.
func Open(path string) (*Device, error) {
	path = resolvePath(path)
	f, err := openRaw(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, path, err)
	}
	return &Device{path: path, f: f}, nil
}

// Geometry issues the device-control query on first use and returns the cached
// result afterwards.
func (d *Device) Geometry() (Geometry, error) {
	if d.geom != nil {
		return *d.geom, nil
	}
	if d.f == nil {
		return Geometry{}, fmt.Errorf("%w %s: %w", ErrGeometry, d.path, os.ErrClosed)
	}
	g, err := queryGeometry(d.f)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w %s: %w", ErrGeometry, d.path, err)
	}
	if err := g.validate(); err != nil {
		return Geometry{}, err
	}
	d.geom = &g
	return g, nil
}

func (d *Device) Seek(offset int64, whence int) (int64, error) {
	if d.f == nil {
		return 0, os.ErrClosed
	}
	return d.f.Seek(offset, whence)
}

func (d *Device) Write(p []byte) (int, error) {
	if d.f == nil {
		return 0, os.ErrClosed
	}
	return d.f.Write(p)
}

func (d *Device) Read(p []byte) (int, error) {
	if d.f == nil {
		return 0, os.ErrClosed
	}
	return d.f.Read(p)
}

// Close releases the handle. Calling it again is a no-op.
func (d *Device) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

// CandidatePath returns the platform path of the nth physical disk.
func CandidatePath(n int) string { return candidatePath(n) }

// BoostPriority raises the calling thread and process to the highest
// scheduling class the platform offers. The goroutine stays locked to its OS
// thread until release is called.
func BoostPriority() (release func(), err error) {
	runtime.LockOSThread()
	if err := boostPriority(); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("%w: %w", ErrPriority, err)
	}
	return runtime.UnlockOSThread, nil
}

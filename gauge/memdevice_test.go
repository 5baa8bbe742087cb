package gauge

import (
	"fmt"
	"io"
	"syscall"

	"diskgauge/disk"
)

// memDevice is an in-memory disk with a cursor. It records every seek and
// transfer offset and can fail or corrupt at chosen byte offsets.
type memDevice struct {
	geom    disk.Geometry
	geomErr error
	data    []byte
	pos     int64

	seeks  []int64
	writes []int64
	reads  []int64
	closed int

	failSeekAt  int64
	failWriteAt int64
	failReadAt  int64
	afterWrite  func(d *memDevice, off int64)
}

func newMemDevice(g disk.Geometry) *memDevice {
	return &memDevice{
		geom:        g,
		data:        make([]byte, g.TotalBytes()),
		failSeekAt:  -1,
		failWriteAt: -1,
		failReadAt:  -1,
	}
}

func (d *memDevice) Geometry() (disk.Geometry, error) {
	if d.geomErr != nil {
		return disk.Geometry{}, d.geomErr
	}
	return d.geom, nil
}

func (d *memDevice) Seek(off int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, fmt.Errorf("unsupported whence %d", whence)
	}
	if off == d.failSeekAt {
		return 0, syscall.EIO
	}
	d.seeks = append(d.seeks, off)
	d.pos = off
	return off, nil
}

func (d *memDevice) Write(p []byte) (int, error) {
	off := d.pos
	if off == d.failWriteAt {
		return 0, syscall.EIO
	}
	if off >= int64(len(d.data)) {
		return 0, syscall.ENOSPC
	}
	n := copy(d.data[off:], p)
	d.pos += int64(n)
	d.writes = append(d.writes, off)
	if d.afterWrite != nil {
		d.afterWrite(d, off)
	}
	if n < len(p) {
		return n, syscall.ENOSPC
	}
	return n, nil
}

func (d *memDevice) Read(p []byte) (int, error) {
	off := d.pos
	if off == d.failReadAt {
		return 0, syscall.EIO
	}
	if off >= int64(len(d.data)) {
		return 0, io.EOF
	}
	n := copy(p, d.data[off:])
	d.pos += int64(n)
	d.reads = append(d.reads, off)
	return n, nil
}

func (d *memDevice) Close() error {
	d.closed++
	return nil
}

// recorder captures every reporter call.
type recorder struct {
	listed    []Listing
	starts    []Mode
	progress  []Progress
	integrity []*SectorError
	fatal     []error
	finished  []*Result
}

func (r *recorder) Listed(path string, g disk.Geometry) {
	r.listed = append(r.listed, Listing{Path: path, Geometry: g})
}
func (r *recorder) Start(m Mode, _ string, _ disk.Geometry) { r.starts = append(r.starts, m) }
func (r *recorder) Progress(p Progress)                     { r.progress = append(r.progress, p) }
func (r *recorder) Integrity(err *SectorError)              { r.integrity = append(r.integrity, err) }
func (r *recorder) Fatal(err error)                         { r.fatal = append(r.fatal, err) }
func (r *recorder) Finish(res *Result)                      { r.finished = append(r.finished, res) }

// failingReader stands in for an unavailable random source.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("entropy pool unavailable") }

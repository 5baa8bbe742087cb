package gauge

import (
	"bytes"
	"fmt"
	"io"
	"time"
)

// Exerciser runs write→read→compare cycles against single sectors. It owns
// the two sector buffers for the duration of one command.
type Exerciser struct {
	dev    io.ReadWriteSeeker
	bps    int64
	wbuf   []byte
	rbuf   []byte
	random io.Reader
	stats  *Stats
}

// NewExerciser binds a device cursor, a pair of sector-sized buffers, a random
// source and the stats sink together.
func NewExerciser(dev io.ReadWriteSeeker, bytesPerSector uint32, wbuf, rbuf []byte, random io.Reader, stats *Stats) (*Exerciser, error) {
	if bytesPerSector == 0 {
		return nil, fmt.Errorf("bytes per sector must be positive")
	}
	if len(wbuf) != int(bytesPerSector) || len(rbuf) != int(bytesPerSector) {
		return nil, fmt.Errorf("sector buffers must be %d bytes, got %d/%d", bytesPerSector, len(wbuf), len(rbuf))
	}
	return &Exerciser{
		dev:    dev,
		bps:    int64(bytesPerSector),
		wbuf:   wbuf,
		rbuf:   rbuf,
		random: random,
		stats:  stats,
	}, nil
}

// WriteReadVerify writes fresh random bytes to sector, reads them back and
// compares. Timings of the phases that completed are recorded even when a
// later phase fails.
func (x *Exerciser) WriteReadVerify(sector int64) error {
	if _, err := io.ReadFull(x.random, x.wbuf); err != nil {
		return &SectorError{Kind: ErrRandomSource, Sector: sector, Err: err}
	}

	off := sector * x.bps
	if err := x.seek(off); err != nil {
		return &SectorError{Kind: ErrSeek, Sector: sector, Err: err}
	}

	start := time.Now()
	n, err := x.dev.Write(x.wbuf)
	elapsed := time.Since(start)
	if err == nil && n != len(x.wbuf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &SectorError{Kind: ErrWrite, Sector: sector, Err: err}
	}
	x.stats.Update(OpWrite, elapsed.Microseconds())

	// The cursor now sits past the sector just written.
	if err := x.seek(off); err != nil {
		return &SectorError{Kind: ErrSeek, Sector: sector, Err: err}
	}

	start = time.Now()
	_, err = io.ReadFull(x.dev, x.rbuf)
	elapsed = time.Since(start)
	if err != nil {
		return &SectorError{Kind: ErrRead, Sector: sector, Err: err}
	}
	x.stats.Update(OpRead, elapsed.Microseconds())

	if i := firstMismatch(x.wbuf, x.rbuf); i >= 0 {
		return &SectorError{Kind: ErrIntegrity, Sector: sector, Offset: i}
	}
	return nil
}

func (x *Exerciser) seek(off int64) error {
	pos, err := x.dev.Seek(off, io.SeekStart)
	if err != nil {
		return err
	}
	if pos != off {
		return fmt.Errorf("cursor at %d, want %d", pos, off)
	}
	return nil
}

// firstMismatch returns the index of the first differing byte, or -1.
func firstMismatch(a, b []byte) int {
	if bytes.Equal(a, b) {
		return -1
	}
	for i := range a {
		if i >= len(b) || a[i] != b[i] {
			return i
		}
	}
	return len(a)
}

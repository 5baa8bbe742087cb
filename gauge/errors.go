package gauge

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"diskgauge/disk"
)

var (
	ErrSeek         = errors.New("seek")
	ErrWrite        = errors.New("write")
	ErrRead         = errors.New("read")
	ErrIntegrity    = errors.New("integrity")
	ErrRandomSource = errors.New("random source")
	ErrSectorRange  = errors.New("sector out of range")
)

// SectorError is the outcome of a failed write/read/verify cycle.
type SectorError struct {
	Kind   error // one of ErrSeek, ErrWrite, ErrRead, ErrIntegrity, ErrRandomSource
	Sector int64
	Offset int // first diverging byte within the sector, integrity failures only
	Err    error
}

func (e *SectorError) Error() string {
	if e.Kind == ErrIntegrity {
		return fmt.Sprintf("binary integrity failed at sector #%d, byte %d", e.Sector, e.Offset)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s failed at sector #%d", e.Kind, e.Sector)
	}
	return fmt.Sprintf("%s failed at sector #%d: %v", e.Kind, e.Sector, e.Err)
}

func (e *SectorError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Phase names the step an error came from, for reports.
func Phase(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "interrupted"
	}
	for _, kind := range []error{
		disk.ErrOpen, disk.ErrGeometry, disk.ErrPriority, disk.ErrFilePayload,
		ErrRandomSource, ErrSeek, ErrWrite, ErrRead, ErrIntegrity, ErrSectorRange,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "unknown"
}

// SectorOf returns the sector a cycle error occurred at.
func SectorOf(err error) (int64, bool) {
	var se *SectorError
	if errors.As(err, &se) {
		return se.Sector, true
	}
	return 0, false
}

// Errno extracts the underlying OS error code, if there is one.
func Errno(err error) (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}

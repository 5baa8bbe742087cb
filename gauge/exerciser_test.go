package gauge

import (
	"crypto/rand"
	"errors"
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diskgauge/disk"
)

var smallDisk = disk.Geometry{Cylinders: 2, TracksPerCylinder: 2, SectorsPerTrack: 8, BytesPerSector: 512}

func newTestExerciser(t *testing.T, dev io.ReadWriteSeeker, random io.Reader) (*Exerciser, *Stats) {
	t.Helper()
	stats := NewStats()
	x, err := NewExerciser(dev, 512, make([]byte, 512), make([]byte, 512), random, stats)
	require.NoError(t, err)
	return x, stats
}

func TestNewExerciserRejectsBadBuffers(t *testing.T) {
	dev := newMemDevice(smallDisk)

	_, err := NewExerciser(dev, 0, nil, nil, rand.Reader, NewStats())
	assert.Error(t, err)

	_, err = NewExerciser(dev, 512, make([]byte, 512), make([]byte, 256), rand.Reader, NewStats())
	assert.Error(t, err)
}

func TestWriteReadVerifyRoundTrip(t *testing.T) {
	dev := newMemDevice(smallDisk)
	x, stats := newTestExerciser(t, dev, rand.Reader)

	for sector := int64(0); sector < smallDisk.TotalSectors(); sector++ {
		require.NoError(t, x.WriteReadVerify(sector))
	}

	n := smallDisk.TotalSectors()
	assert.Equal(t, n, stats.Record(OpWrite).Samples)
	assert.Equal(t, n, stats.Record(OpRead).Samples)
	require.Len(t, dev.seeks, int(2*n))
	for i, off := range dev.seeks {
		assert.Equal(t, int64(i/2)*512, off)
	}
}

func TestWriteReadVerifyDetectsCorruption(t *testing.T) {
	dev := newMemDevice(smallDisk)
	dev.afterWrite = func(d *memDevice, off int64) {
		if off == 5*512 {
			d.data[off+123] ^= 0xFF
		}
	}
	x, stats := newTestExerciser(t, dev, rand.Reader)

	require.NoError(t, x.WriteReadVerify(4))
	err := x.WriteReadVerify(5)
	require.Error(t, err)

	var se *SectorError
	require.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, ErrIntegrity)
	assert.Equal(t, int64(5), se.Sector)
	assert.Equal(t, 123, se.Offset)
	assert.Equal(t, "binary integrity failed at sector #5, byte 123", err.Error())

	// both transfers completed, so both were timed
	assert.Equal(t, int64(2), stats.Record(OpWrite).Samples)
	assert.Equal(t, int64(2), stats.Record(OpRead).Samples)
}

func TestWriteReadVerifyRandomSourceFailure(t *testing.T) {
	dev := newMemDevice(smallDisk)
	x, stats := newTestExerciser(t, dev, failingReader{})

	err := x.WriteReadVerify(3)
	assert.ErrorIs(t, err, ErrRandomSource)
	assert.Empty(t, dev.seeks)
	assert.Empty(t, dev.writes)
	assert.Equal(t, Snapshot{}, stats.Snapshot())
}

func TestWriteReadVerifySeekFailure(t *testing.T) {
	dev := newMemDevice(smallDisk)
	dev.failSeekAt = 2 * 512
	x, _ := newTestExerciser(t, dev, rand.Reader)

	err := x.WriteReadVerify(2)
	assert.ErrorIs(t, err, ErrSeek)
	assert.ErrorIs(t, err, syscall.EIO)
	assert.Empty(t, dev.writes)
}

func TestWriteReadVerifyWriteFailure(t *testing.T) {
	dev := newMemDevice(smallDisk)
	dev.failWriteAt = 9 * 512
	x, stats := newTestExerciser(t, dev, rand.Reader)

	err := x.WriteReadVerify(9)
	assert.ErrorIs(t, err, ErrWrite)
	errno, ok := Errno(err)
	require.True(t, ok)
	assert.Equal(t, syscall.EIO, errno)
	assert.Zero(t, stats.Record(OpWrite).Samples)
	assert.Empty(t, dev.reads)
}

func TestWriteReadVerifyReadFailureKeepsWriteTiming(t *testing.T) {
	dev := newMemDevice(smallDisk)
	dev.failReadAt = 6 * 512
	x, stats := newTestExerciser(t, dev, rand.Reader)

	err := x.WriteReadVerify(6)
	assert.ErrorIs(t, err, ErrRead)
	assert.Equal(t, int64(1), stats.Record(OpWrite).Samples)
	assert.Zero(t, stats.Record(OpRead).Samples)
}

type halfWriter struct{ *memDevice }

func (h halfWriter) Write(p []byte) (int, error) { return h.memDevice.Write(p[:len(p)/2]) }

func TestWriteReadVerifyShortWrite(t *testing.T) {
	dev := newMemDevice(smallDisk)
	x, _ := newTestExerciser(t, halfWriter{dev}, rand.Reader)

	err := x.WriteReadVerify(1)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestFirstMismatch(t *testing.T) {
	assert.Equal(t, -1, firstMismatch([]byte{1, 2, 3}, []byte{1, 2, 3}))
	assert.Equal(t, 0, firstMismatch([]byte{9, 2, 3}, []byte{1, 2, 3}))
	assert.Equal(t, 2, firstMismatch([]byte{1, 2, 3}, []byte{1, 2, 4}))
}

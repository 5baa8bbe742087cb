package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryTotals(t *testing.T) {
	g := Geometry{Cylinders: 10, TracksPerCylinder: 2, SectorsPerTrack: 63, BytesPerSector: 512}

	assert.Equal(t, int64(1260), g.TotalSectors())
	assert.Equal(t, int64(645120), g.TotalBytes())
	assert.Equal(t, int64(2560), g.Offset(5))
	assert.True(t, g.Contains(0))
	assert.True(t, g.Contains(1259))
	assert.False(t, g.Contains(1260))
	assert.False(t, g.Contains(-1))
}

func TestGeometryTotalsLarge(t *testing.T) {
	// 1 TB class disk in the 255/63 translation.
	g := Geometry{Cylinders: 121601, TracksPerCylinder: 255, SectorsPerTrack: 63, BytesPerSector: 512}

	want := int64(121601) * 255 * 63
	assert.Equal(t, want, g.TotalSectors())
	assert.Equal(t, want*512, g.TotalBytes())
	assert.InDelta(t, 931.5, g.GB(), 0.1)
}

func TestDeriveGeometry(t *testing.T) {
	tests := []struct {
		name       string
		size       int64
		bps        uint32
		heads, spt uint32
		want       Geometry
	}{
		{
			name:  "reported heads and sectors",
			size:  10 * 2 * 63 * 512,
			bps:   512,
			heads: 2, spt: 63,
			want: Geometry{Cylinders: 10, TracksPerCylinder: 2, SectorsPerTrack: 63, BytesPerSector: 512},
		},
		{
			name: "255/63 translation when heads unknown",
			size: 3 * 255 * 63 * 4096,
			bps:  4096,
			want: Geometry{Cylinders: 3, TracksPerCylinder: 255, SectorsPerTrack: 63, BytesPerSector: 4096},
		},
		{
			name:  "partial trailing cylinder is dropped",
			size:  (10*2*63 + 17) * 512,
			bps:   512,
			heads: 2, spt: 63,
			want: Geometry{Cylinders: 10, TracksPerCylinder: 2, SectorsPerTrack: 63, BytesPerSector: 512},
		},
		{
			name: "smaller than one cylinder becomes linear",
			size: 1 << 20,
			bps:  512,
			want: Geometry{Cylinders: 2048, TracksPerCylinder: 1, SectorsPerTrack: 1, BytesPerSector: 512},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := deriveGeometry(tt.size, tt.bps, tt.heads, tt.spt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g)
			assert.LessOrEqual(t, g.TotalBytes(), tt.size)
		})
	}
}

func TestDeriveGeometryRejects(t *testing.T) {
	_, err := deriveGeometry(1<<20, 0, 0, 0)
	assert.ErrorIs(t, err, ErrGeometry)

	_, err = deriveGeometry(100, 512, 0, 0)
	assert.ErrorIs(t, err, ErrGeometry)
}

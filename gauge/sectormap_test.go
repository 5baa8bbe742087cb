package gauge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectorMapResolution(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		cells   uint
		want    uint
		perCell int64
	}{
		{"one per sector", 1260, 4096, 1260, 1},
		{"even split", 10000, 16, 16, 625},
		{"ragged tail", 10, 3, 3, 4},
		{"degenerate", 0, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSectorMap(tt.total, tt.cells)
			assert.Equal(t, tt.want, m.Cells())
			assert.Equal(t, tt.perCell, m.SectorsPerCell())
		})
	}
}

func TestSectorMapMarks(t *testing.T) {
	m := NewSectorMap(10, 3) // cells of 4, 4, 2

	m.MarkVisited(0)
	m.MarkVisited(9)
	m.MarkCorrupt(5)

	assert.True(t, m.Visited(0))
	assert.False(t, m.Visited(1))
	assert.True(t, m.Visited(2))
	assert.True(t, m.Corrupt(1))
	assert.Equal(t, uint(2), m.VisitedCells())
	assert.Equal(t, uint(1), m.CorruptCells())
}

func TestSectorMapIgnoresOutOfRange(t *testing.T) {
	m := NewSectorMap(10, 10)

	m.MarkVisited(-1)
	m.MarkVisited(10)
	m.MarkCorrupt(1 << 40)

	assert.Zero(t, m.VisitedCells())
	assert.Zero(t, m.CorruptCells())
}

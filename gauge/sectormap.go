package gauge

import "github.com/bits-and-blooms/bitset"

// SectorMap tracks sweep coverage at a fixed resolution: each cell stands for
// a contiguous run of sectors, so the map stays small on any disk size.
type SectorMap struct {
	total   int64
	perCell int64
	cells   uint
	visited *bitset.BitSet
	corrupt *bitset.BitSet
}

// NewSectorMap divides totalSectors into at most cells cells.
func NewSectorMap(totalSectors int64, cells uint) *SectorMap {
	if totalSectors < 1 {
		totalSectors = 1
	}
	if cells == 0 {
		cells = 1
	}
	if int64(cells) > totalSectors {
		cells = uint(totalSectors)
	}
	perCell := (totalSectors + int64(cells) - 1) / int64(cells)
	cells = uint((totalSectors + perCell - 1) / perCell)
	return &SectorMap{
		total:   totalSectors,
		perCell: perCell,
		cells:   cells,
		visited: bitset.New(cells),
		corrupt: bitset.New(cells),
	}
}

func (m *SectorMap) cell(sector int64) (uint, bool) {
	if sector < 0 || sector >= m.total {
		return 0, false
	}
	return uint(sector / m.perCell), true
}

func (m *SectorMap) MarkVisited(sector int64) {
	if c, ok := m.cell(sector); ok {
		m.visited.Set(c)
	}
}

func (m *SectorMap) MarkCorrupt(sector int64) {
	if c, ok := m.cell(sector); ok {
		m.corrupt.Set(c)
	}
}

func (m *SectorMap) Cells() uint            { return m.cells }
func (m *SectorMap) SectorsPerCell() int64  { return m.perCell }
func (m *SectorMap) Visited(cell uint) bool { return m.visited.Test(cell) }
func (m *SectorMap) Corrupt(cell uint) bool { return m.corrupt.Test(cell) }
func (m *SectorMap) VisitedCells() uint     { return m.visited.Count() }
func (m *SectorMap) CorruptCells() uint     { return m.corrupt.Count() }

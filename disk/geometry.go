package disk

import "fmt"

// Legacy CHS translation used when the device only reports its capacity.
const (
	defaultHeads           = 255
	defaultSectorsPerTrack = 63
)

// Geometry is the cylinder/track/sector addressing scheme reported for a disk.
type Geometry struct {
	Cylinders         int64
	TracksPerCylinder uint32
	SectorsPerTrack   uint32
	BytesPerSector    uint32
}

// TotalSectors returns cylinders × tracks/cylinder × sectors/track.
func (g Geometry) TotalSectors() int64 {
	return g.Cylinders * int64(g.TracksPerCylinder) * int64(g.SectorsPerTrack)
}

// TotalBytes returns TotalSectors × bytes/sector.
func (g Geometry) TotalBytes() int64 {
	return g.TotalSectors() * int64(g.BytesPerSector)
}

// GB returns the capacity in binary gigabytes.
func (g Geometry) GB() float64 {
	return float64(g.TotalBytes()) / (1024 * 1024 * 1024)
}

// Offset returns the byte offset of a sector index.
func (g Geometry) Offset(sector int64) int64 {
	return sector * int64(g.BytesPerSector)
}

// Contains reports whether sector is addressable on this geometry.
func (g Geometry) Contains(sector int64) bool {
	return sector >= 0 && sector < g.TotalSectors()
}

func (g Geometry) String() string {
	return fmt.Sprintf("C=%d T=%d S=%d B=%d", g.Cylinders, g.TracksPerCylinder, g.SectorsPerTrack, g.BytesPerSector)
}

func (g Geometry) validate() error {
	if g.BytesPerSector == 0 || g.Cylinders <= 0 || g.TracksPerCylinder == 0 || g.SectorsPerTrack == 0 {
		return fmt.Errorf("%w: invalid geometry %s", ErrGeometry, g)
	}
	return nil
}

// deriveGeometry builds a geometry from a capacity and sector size the same way
// the Windows disk driver does: cylinders are whatever whole cylinders fit.
// heads/spt of zero select the 255/63 translation. Devices smaller than one
// cylinder fall back to a linear 1×1 layout.
func deriveGeometry(sizeBytes int64, bytesPerSector, heads, spt uint32) (Geometry, error) {
	if bytesPerSector == 0 {
		return Geometry{}, fmt.Errorf("%w: device reports zero sector size", ErrGeometry)
	}
	if heads == 0 || spt == 0 {
		heads, spt = defaultHeads, defaultSectorsPerTrack
	}
	sectors := sizeBytes / int64(bytesPerSector)
	if sectors <= 0 {
		return Geometry{}, fmt.Errorf("%w: device reports no sectors (size %d)", ErrGeometry, sizeBytes)
	}
	g := Geometry{
		Cylinders:         sectors / (int64(heads) * int64(spt)),
		TracksPerCylinder: heads,
		SectorsPerTrack:   spt,
		BytesPerSector:    bytesPerSector,
	}
	if g.Cylinders == 0 {
		g = Geometry{Cylinders: sectors, TracksPerCylinder: 1, SectorsPerTrack: 1, BytesPerSector: bytesPerSector}
	}
	return g, g.validate()
}

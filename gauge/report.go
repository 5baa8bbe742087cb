package gauge

import "diskgauge/disk"

// Mode selects one of the four command behaviors.
type Mode int

const (
	ModeList Mode = iota
	ModeGauge
	ModeBurn
	ModeRawWrite
)

func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeGauge:
		return "gauge"
	case ModeBurn:
		return "burn"
	case ModeRawWrite:
		return "rawwrite"
	default:
		return "unknown"
	}
}

// Progress is a periodic status report.
type Progress struct {
	Mode       Mode
	Sector     int64 // last sector exercised
	Cycles     int64 // completed cycles (burn) or sectors processed (gauge)
	KBVerified int64
	Stats      Snapshot
	Map        *SectorMap // nil outside gauge
}

// Result summarizes a finished (or aborted) command.
type Result struct {
	Mode           Mode
	Path           string
	Geometry       disk.Geometry
	Sector         int64 // target sector for burn and rawwrite
	Offset         int64 // byte offset for rawwrite
	Cycles         int64
	BytesWritten   int
	CorruptSectors []int64
	Stats          Snapshot
	Map            *SectorMap
	Err            error
}

// Listing is one disk found by ListDisks.
type Listing struct {
	Path     string
	Geometry disk.Geometry
}

// Reporter receives the content the engine produces. Formatting is up to the
// implementation. All calls happen on the engine's goroutine.
type Reporter interface {
	Listed(path string, g disk.Geometry)
	Start(mode Mode, path string, g disk.Geometry)
	Progress(p Progress)
	Integrity(err *SectorError)
	Fatal(err error)
	Finish(r *Result)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) Listed(string, disk.Geometry)      {}
func (NopReporter) Start(Mode, string, disk.Geometry) {}
func (NopReporter) Progress(Progress)                 {}
func (NopReporter) Integrity(*SectorError)            {}
func (NopReporter) Fatal(error)                       {}
func (NopReporter) Finish(*Result)                    {}

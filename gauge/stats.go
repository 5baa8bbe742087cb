package gauge

// OpClass separates write timings from read timings.
type OpClass int

const (
	OpWrite OpClass = iota
	OpRead
)

func (o OpClass) String() string {
	switch o {
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	default:
		return "unknown"
	}
}

// Record is the running latency aggregate of one operation class.
type Record struct {
	CumulativeMicros int64
	Samples          int64
	MaxMicros        int64
}

// AvgMicros is the arithmetic mean over every sample so far.
func (r Record) AvgMicros() int64 {
	if r.Samples == 0 {
		return 0
	}
	return r.CumulativeMicros / r.Samples
}

// Snapshot is a point-in-time copy of both records.
type Snapshot struct {
	MaxWrite     int64
	AvgWrite     int64
	MaxRead      int64
	AvgRead      int64
	WriteSamples int64
	ReadSamples  int64
}

// Stats aggregates per-sector latencies for a single command invocation.
// The zero value is ready to use.
type Stats struct {
	records [2]Record
}

func NewStats() *Stats { return &Stats{} }

// Update folds one elapsed time into op's record.
func (s *Stats) Update(op OpClass, elapsedMicros int64) {
	if elapsedMicros < 0 {
		elapsedMicros = 0
	}
	r := &s.records[op]
	r.Samples++
	r.CumulativeMicros += elapsedMicros
	r.MaxMicros = max(r.MaxMicros, elapsedMicros)
}

// Record returns a copy of op's record.
func (s *Stats) Record(op OpClass) Record {
	return s.records[op]
}

func (s *Stats) Snapshot() Snapshot {
	w, r := s.records[OpWrite], s.records[OpRead]
	return Snapshot{
		MaxWrite:     w.MaxMicros,
		AvgWrite:     w.AvgMicros(),
		MaxRead:      r.MaxMicros,
		AvgRead:      r.AvgMicros(),
		WriteSamples: w.Samples,
		ReadSamples:  r.Samples,
	}
}

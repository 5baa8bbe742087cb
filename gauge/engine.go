// Package gauge drives sector write/read/verify cycles over a raw device and
// aggregates their latencies. Engine implements the four command modes; the
// low-level primitive is Exerciser and the aggregate is Stats.
package gauge

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"

	"diskgauge/disk"
)

// Device is what the engine needs from an opened disk.
type Device interface {
	io.ReadWriteSeeker
	io.Closer
	Geometry() (disk.Geometry, error)
}

// Payload is a raw-write source held in memory.
type Payload interface {
	Bytes() []byte
	Close() error
}

// Config holds the iteration cadences and bounds of the command modes.
type Config struct {
	SnapshotEvery   int64 // gauge: sectors between progress snapshots
	BurnReportEvery int64 // burn: cycles between progress reports
	BurnMaxCycles   int64
	ProbeCount      int  // list: candidates 0..ProbeCount-1
	MapCells        uint // resolution of the gauge coverage map
}

func DefaultConfig() Config {
	return Config{
		SnapshotEvery:   512,
		BurnReportEvery: 1000,
		BurnMaxCycles:   math.MaxInt64,
		ProbeCount:      16,
		MapCells:        4096,
	}
}

// Engine runs one command at a time. It holds no per-command state; every
// invocation builds its own Stats, buffers and device handle.
type Engine struct {
	cfg    Config
	report Reporter
	log    *zap.Logger

	open        func(path string) (Device, error)
	boost       func() (func(), error)
	loadPayload func(name string) (Payload, error)
	probePath   func(n int) string
	random      io.Reader
}

type Option func(*Engine)

// WithOpener replaces disk.Open.
func WithOpener(open func(path string) (Device, error)) Option {
	return func(e *Engine) { e.open = open }
}

// WithBoost replaces disk.BoostPriority.
func WithBoost(boost func() (func(), error)) Option {
	return func(e *Engine) { e.boost = boost }
}

// WithPayloadLoader replaces disk.LoadPayload.
func WithPayloadLoader(load func(name string) (Payload, error)) Option {
	return func(e *Engine) { e.loadPayload = load }
}

// WithProbePath replaces disk.CandidatePath for ListDisks.
func WithProbePath(path func(n int) string) Option {
	return func(e *Engine) { e.probePath = path }
}

// WithRandom replaces crypto/rand as the payload source.
func WithRandom(r io.Reader) Option {
	return func(e *Engine) { e.random = r }
}

func NewEngine(cfg Config, report Reporter, log *zap.Logger, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = def.SnapshotEvery
	}
	if cfg.BurnReportEvery <= 0 {
		cfg.BurnReportEvery = def.BurnReportEvery
	}
	if cfg.BurnMaxCycles <= 0 {
		cfg.BurnMaxCycles = def.BurnMaxCycles
	}
	if cfg.ProbeCount <= 0 {
		cfg.ProbeCount = def.ProbeCount
	}
	if cfg.MapCells == 0 {
		cfg.MapCells = def.MapCells
	}
	if report == nil {
		report = NopReporter{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	e := &Engine{
		cfg:    cfg,
		report: report,
		log:    log,
		open: func(path string) (Device, error) {
			d, err := disk.Open(path)
			if err != nil {
				return nil, err
			}
			return d, nil
		},
		boost: disk.BoostPriority,
		loadPayload: func(name string) (Payload, error) {
			p, err := disk.LoadPayload(name)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		probePath: disk.CandidatePath,
		random:    rand.Reader,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

/* ===================== Session setup ===================== */

type session struct {
	dev     Device
	geom    disk.Geometry
	wbuf    *disk.Buffer
	rbuf    *disk.Buffer
	stats   *Stats
	x       *Exerciser
	release func()
}

func (s *session) Close() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
	if s.wbuf != nil {
		_ = s.wbuf.Close()
	}
	if s.rbuf != nil {
		_ = s.rbuf.Close()
	}
	if s.dev != nil {
		_ = s.dev.Close()
	}
}

// openSession opens the device and resolves its geometry.
func (e *Engine) openSession(mode Mode, path string) (*session, error) {
	dev, err := e.open(path)
	if err != nil {
		return nil, err
	}
	s := &session{dev: dev}
	if s.geom, err = dev.Geometry(); err != nil {
		s.Close()
		return nil, err
	}
	e.report.Start(mode, path, s.geom)
	return s, nil
}

// arm allocates the sector buffers and raises scheduling priority, the
// remaining setup before gauge or burn can touch a sector.
func (e *Engine) arm(s *session) error {
	bps := int(s.geom.BytesPerSector)

	var err error
	if s.wbuf, err = disk.NewBuffer(bps); err != nil {
		return err
	}
	if s.rbuf, err = disk.NewBuffer(bps); err != nil {
		return err
	}
	s.stats = NewStats()
	if s.x, err = NewExerciser(s.dev, s.geom.BytesPerSector, s.wbuf.Bytes(), s.rbuf.Bytes(), e.random, s.stats); err != nil {
		return err
	}

	e.log.Info("boosting process class and thread priority")
	if s.release, err = e.boost(); err != nil {
		return err
	}
	return nil
}

func (e *Engine) fail(res *Result, stats *Stats, err error) (*Result, error) {
	if stats != nil {
		res.Stats = stats.Snapshot()
	}
	res.Err = err
	e.report.Fatal(err)
	e.report.Finish(res)
	return res, err
}

/* ===================== Modes ===================== */

// ListDisks probes the fixed candidate set and reports every disk whose
// geometry resolves. Candidates that fail to open are skipped silently.
func (e *Engine) ListDisks(ctx context.Context) []Listing {
	var found []Listing
	for n := 0; n < e.cfg.ProbeCount; n++ {
		if ctx.Err() != nil {
			break
		}
		if l, ok := e.probe(e.probePath(n)); ok {
			found = append(found, l)
		}
	}
	return found
}

func (e *Engine) probe(path string) (Listing, bool) {
	dev, err := e.open(path)
	if err != nil {
		e.log.Debug("candidate not available", zap.String("path", path), zap.Error(err))
		return Listing{}, false
	}
	defer dev.Close()

	g, err := dev.Geometry()
	if err != nil {
		e.log.Warn("candidate geometry unavailable", zap.String("path", path), zap.Error(err))
		return Listing{}, false
	}
	e.report.Listed(path, g)
	return Listing{Path: path, Geometry: g}, true
}

// Gauge sweeps every sector once in ascending order. Integrity failures are
// reported and the sweep continues; any other failure ends it.
func (e *Engine) Gauge(ctx context.Context, path string) (*Result, error) {
	res := &Result{Mode: ModeGauge, Path: path}

	s, err := e.openSession(ModeGauge, path)
	if err != nil {
		return e.fail(res, nil, err)
	}
	defer s.Close()
	res.Geometry = s.geom

	if err := e.arm(s); err != nil {
		return e.fail(res, nil, err)
	}

	total := s.geom.TotalSectors()
	res.Map = NewSectorMap(total, e.cfg.MapCells)
	e.log.Info("gauging disk", zap.String("path", path), zap.Int64("sectors", total))

	for sector := int64(0); sector < total; sector++ {
		if err := stopReason(ctx); err != nil {
			return e.fail(res, s.stats, fmt.Errorf("gauge interrupted at sector #%d: %w", sector, err))
		}

		if err := s.x.WriteReadVerify(sector); err != nil {
			var se *SectorError
			if !errors.As(err, &se) || se.Kind != ErrIntegrity {
				return e.fail(res, s.stats, err)
			}
			res.CorruptSectors = append(res.CorruptSectors, sector)
			res.Map.MarkCorrupt(sector)
			e.report.Integrity(se)
		}
		res.Map.MarkVisited(sector)
		res.Cycles++

		if sector%e.cfg.SnapshotEvery == 0 {
			e.report.Progress(e.progress(ModeGauge, res, s, sector))
		}
	}

	res.Stats = s.stats.Snapshot()
	if (total-1)%e.cfg.SnapshotEvery != 0 {
		e.report.Progress(e.progress(ModeGauge, res, s, total-1))
	}
	e.report.Finish(res)
	return res, nil
}

// Burn repeats the write/read/verify cycle on one sector until the cycle
// budget runs out, ctx is cancelled, or anything fails.
func (e *Engine) Burn(ctx context.Context, path string, sector int64) (*Result, error) {
	res := &Result{Mode: ModeBurn, Path: path, Sector: sector}

	s, err := e.openSession(ModeBurn, path)
	if err != nil {
		return e.fail(res, nil, err)
	}
	defer s.Close()
	res.Geometry = s.geom

	if !s.geom.Contains(sector) {
		return e.fail(res, nil, fmt.Errorf("%w: sector #%d, disk has %d", ErrSectorRange, sector, s.geom.TotalSectors()))
	}
	res.Offset = s.geom.Offset(sector)

	if err := e.arm(s); err != nil {
		return e.fail(res, nil, err)
	}

	e.log.Info("burn start", zap.String("path", path), zap.Int64("sector", sector))

	for cycle := int64(0); cycle < e.cfg.BurnMaxCycles; cycle++ {
		if err := stopReason(ctx); err != nil {
			return e.fail(res, s.stats, fmt.Errorf("burn interrupted after %d cycle(s): %w", res.Cycles, err))
		}
		if err := s.x.WriteReadVerify(sector); err != nil {
			var se *SectorError
			if errors.As(err, &se) && se.Kind == ErrIntegrity {
				res.CorruptSectors = append(res.CorruptSectors, sector)
			}
			return e.fail(res, s.stats, err)
		}
		res.Cycles++

		if cycle%e.cfg.BurnReportEvery == 0 {
			e.report.Progress(e.progress(ModeBurn, res, s, sector))
		}
	}

	res.Stats = s.stats.Snapshot()
	e.report.Finish(res)
	return res, nil
}

// RawWrite writes the whole contents of file at sector's byte offset with a
// single write call. Nothing is read back. Payload length is not checked
// against the sector size; the driver decides what an unaligned write does.
func (e *Engine) RawWrite(ctx context.Context, path string, sector int64, file string) (*Result, error) {
	res := &Result{Mode: ModeRawWrite, Path: path, Sector: sector}

	s, err := e.openSession(ModeRawWrite, path)
	if err != nil {
		return e.fail(res, nil, err)
	}
	defer s.Close()
	res.Geometry = s.geom

	if !s.geom.Contains(sector) {
		return e.fail(res, nil, fmt.Errorf("%w: sector #%d, disk has %d", ErrSectorRange, sector, s.geom.TotalSectors()))
	}

	p, err := e.loadPayload(file)
	if err != nil {
		return e.fail(res, nil, err)
	}
	defer p.Close()

	if err := stopReason(ctx); err != nil {
		return e.fail(res, nil, err)
	}

	off := s.geom.Offset(sector)
	res.Offset = off
	if pos, err := s.dev.Seek(off, io.SeekStart); err != nil || pos != off {
		if err == nil {
			err = fmt.Errorf("cursor at %d, want %d", pos, off)
		}
		return e.fail(res, nil, &SectorError{Kind: ErrSeek, Sector: sector, Err: err})
	}

	buf := p.Bytes()
	n, err := s.dev.Write(buf)
	res.BytesWritten = n
	if err == nil && n != len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return e.fail(res, nil, &SectorError{Kind: ErrWrite, Sector: sector, Err: err})
	}

	e.report.Finish(res)
	return res, nil
}

// stopReason is ctx.Err() with the cancellation cause attached when the
// caller supplied one.
func stopReason(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, err) {
		return fmt.Errorf("%w: %w", cause, err)
	}
	return err
}

func (e *Engine) progress(mode Mode, res *Result, s *session, sector int64) Progress {
	return Progress{
		Mode:       mode,
		Sector:     sector,
		Cycles:     res.Cycles,
		KBVerified: res.Cycles * int64(s.geom.BytesPerSector) / 1024,
		Stats:      s.stats.Snapshot(),
		Map:        res.Map,
	}
}

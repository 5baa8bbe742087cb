package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"diskgauge/disk"
	"diskgauge/gauge"
)

var (
	colorTeal  = lipgloss.Color("#20B9B4")
	colorDeep  = lipgloss.Color("#16858E")
	colorMuted = lipgloss.Color("#2C4A54")
)

// logReporter writes engine events as structured log lines. Geometry blocks
// go to out instead so they can be piped or captured on their own.
type logReporter struct {
	out io.Writer
	log *zap.Logger

	title lipgloss.Style
	box   lipgloss.Style
	label lipgloss.Style
}

func newLogReporter(out io.Writer, log *zap.Logger) *logReporter {
	r := lipgloss.NewRenderer(out)
	return &logReporter{
		out:   out,
		log:   log,
		title: r.NewStyle().Bold(true).Foreground(colorTeal),
		box:   r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDeep).Padding(0, 1),
		label: r.NewStyle().Foreground(colorMuted),
	}
}

func geometryLines(g disk.Geometry) []string {
	return []string{
		fmt.Sprintf("Cylinders       = %d", g.Cylinders),
		fmt.Sprintf("Tracks/cylinder = %d", g.TracksPerCylinder),
		fmt.Sprintf("Sectors/track   = %d", g.SectorsPerTrack),
		fmt.Sprintf("Bytes/sector    = %d", g.BytesPerSector),
		fmt.Sprintf("Disk size       = %d (Bytes)", g.TotalBytes()),
		fmt.Sprintf("                = %.2f (GB)", g.GB()),
	}
}

func (r *logReporter) printGeometry(path string, g disk.Geometry) {
	body := r.title.Render(path) + "\n" + strings.Join(geometryLines(g), "\n")
	fmt.Fprintln(r.out, r.box.Render(body))
}

func (r *logReporter) Listed(path string, g disk.Geometry) {
	r.printGeometry(path, g)
}

func (r *logReporter) Start(mode gauge.Mode, path string, g disk.Geometry) {
	r.printGeometry(path, g)
	r.log.Info("device opened",
		zap.Stringer("mode", mode),
		zap.String("path", path),
		zap.Int64("sectors", g.TotalSectors()),
	)
}

func (r *logReporter) Progress(p gauge.Progress) {
	s := p.Stats
	r.log.Info(
		fmt.Sprintf("Verified %dKB. Write: Max=%dus, Avg=%dus. Read: Max=%dus, Avg=%dus",
			p.KBVerified, s.MaxWrite, s.AvgWrite, s.MaxRead, s.AvgRead),
		zap.Stringer("mode", p.Mode),
		zap.Int64("sector", p.Sector),
		zap.Int64("cycles", p.Cycles),
	)
}

func (r *logReporter) Integrity(err *gauge.SectorError) {
	r.log.Error("binary integrity failed",
		zap.Int64("sector", err.Sector),
		zap.Int("byte", err.Offset),
	)
}

func (r *logReporter) Fatal(err error) {
	if errors.Is(err, context.Canceled) {
		r.log.Warn("interrupted", zap.Error(err))
		return
	}
	fields := []zap.Field{zap.String("phase", gauge.Phase(err)), zap.Error(err)}
	if sector, ok := gauge.SectorOf(err); ok {
		fields = append(fields, zap.Int64("sector", sector))
	}
	if errno, ok := gauge.Errno(err); ok {
		fields = append(fields, zap.Int("errno", int(errno)))
	}
	r.log.Error("command failed", fields...)
}

func (r *logReporter) Finish(res *gauge.Result) {
	fields := []zap.Field{
		zap.Stringer("mode", res.Mode),
		zap.String("path", res.Path),
		zap.Bool("ok", res.Err == nil),
	}
	switch res.Mode {
	case gauge.ModeRawWrite:
		fields = append(fields,
			zap.Int64("sector", res.Sector),
			zap.Int64("offset", res.Offset),
			zap.Int("bytes_written", res.BytesWritten),
		)
	case gauge.ModeBurn:
		fields = append(fields, zap.Int64("sector", res.Sector))
		fallthrough
	default:
		fields = append(fields,
			zap.Int64("cycles", res.Cycles),
			zap.Int("corrupt_sectors", len(res.CorruptSectors)),
			zap.Int64("write_max_us", res.Stats.MaxWrite),
			zap.Int64("write_avg_us", res.Stats.AvgWrite),
			zap.Int64("read_max_us", res.Stats.MaxRead),
			zap.Int64("read_avg_us", res.Stats.AvgRead),
		)
	}
	if res.Map != nil {
		fields = append(fields, zap.String("coverage", fmt.Sprintf("%d/%d cells", res.Map.VisitedCells(), res.Map.Cells())))
	}
	r.log.Info("finished", fields...)
}

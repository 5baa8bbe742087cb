package main

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"diskgauge/disk"
	"diskgauge/gauge"
	"diskgauge/tui"
)

// maxReplayedIntegrity bounds the integrity events held for replay. The rest
// are counted; Result.CorruptSectors keeps the full list.
const maxReplayedIntegrity = 64

type screen interface {
	SetTitle(string)
	SetSummaryLines([]string)
	SetLegend([]string)
	SetStatusLines([]string)
	SetMap(tui.CellMap)
	LayoutAndDraw()
	Close()
}

// uiReporter draws progress on the fullscreen view. Anything meant to outlive
// the screen is queued and handed to next once Close restores the terminal.
type uiReporter struct {
	ui   screen
	next gauge.Reporter
	log  *zap.Logger

	started time.Time
	total   int64
	bps     uint32
	corrupt int
	dropped int
	last    *gauge.Progress

	deferred []func()
}

func newUIReporter(ui screen, next gauge.Reporter, log *zap.Logger) *uiReporter {
	return &uiReporter{ui: ui, next: next, log: log}
}

func (u *uiReporter) Listed(path string, g disk.Geometry) { u.next.Listed(path, g) }

func (u *uiReporter) Start(mode gauge.Mode, path string, g disk.Geometry) {
	u.started = time.Now()
	u.total = g.TotalSectors()
	u.bps = g.BytesPerSector

	u.ui.SetTitle(fmt.Sprintf(" DISKGAUGE %s  %s ", strings.ToUpper(mode.String()), path))
	u.ui.SetSummaryLines(tui.Summary(
		[2]string{"Cylinders", fmt.Sprint(g.Cylinders)},
		[2]string{"Tracks/Cylinder", fmt.Sprint(g.TracksPerCylinder)},
		[2]string{"Sectors/Track", fmt.Sprint(g.SectorsPerTrack)},
		[2]string{"Bytes/Sector", fmt.Sprint(g.BytesPerSector)},
		[2]string{"Size", fmt.Sprintf("%d bytes", g.TotalBytes())},
		[2]string{"GB", fmt.Sprintf("%.2f", g.GB())},
	))
	if mode == gauge.ModeGauge {
		u.ui.SetLegend([]string{tui.Legend})
	} else {
		u.ui.SetLegend([]string{"Q to quit"})
	}
	u.ui.SetStatusLines([]string{"Boosting priority"})
	u.ui.LayoutAndDraw()

	u.deferred = append(u.deferred, func() { u.next.Start(mode, path, g) })
}

func (u *uiReporter) statusLines(p gauge.Progress) []string {
	elapsed := time.Since(u.started).Truncate(time.Second)
	var rate float64
	if secs := time.Since(u.started).Seconds(); secs > 0 {
		rate = float64(p.KBVerified) / secs
	}
	s := p.Stats
	pos := fmt.Sprintf("Sector: %d", p.Sector)
	if p.Mode == gauge.ModeGauge {
		pos = fmt.Sprintf("Sector: %d / %d", p.Sector, u.total)
	}
	return []string{
		fmt.Sprintf("%s   Cycles: %d   Corrupt: %d", pos, p.Cycles, u.corrupt),
		fmt.Sprintf("Verified %dKB   Elapsed: %s   Rate: %.0f KB/s", p.KBVerified, elapsed, rate),
		fmt.Sprintf("Write: Max=%dus Avg=%dus   Read: Max=%dus Avg=%dus", s.MaxWrite, s.AvgWrite, s.MaxRead, s.AvgRead),
	}
}

func (u *uiReporter) Progress(p gauge.Progress) {
	u.last = &p
	if p.Map != nil {
		u.ui.SetMap(p.Map)
	}
	u.ui.SetStatusLines(u.statusLines(p))
	u.ui.LayoutAndDraw()
}

func (u *uiReporter) Integrity(err *gauge.SectorError) {
	u.corrupt++
	if u.corrupt > maxReplayedIntegrity {
		u.dropped++
		return
	}
	u.deferred = append(u.deferred, func() { u.next.Integrity(err) })
}

func (u *uiReporter) Fatal(err error) {
	u.deferred = append(u.deferred, func() { u.next.Fatal(err) })
}

func (u *uiReporter) Finish(res *gauge.Result) {
	if u.last != nil {
		last := *u.last
		u.deferred = append(u.deferred, func() { u.next.Progress(last) })
	}
	if n := u.dropped; n > 0 {
		u.deferred = append(u.deferred, func() {
			u.log.Warn("further integrity failures not listed", zap.Int("count", n))
		})
	}
	u.deferred = append(u.deferred, func() { u.next.Finish(res) })
}

// Close tears the screen down and replays the queued events in order.
func (u *uiReporter) Close() {
	u.ui.Close()
	for _, f := range u.deferred {
		f()
	}
	u.deferred = nil
}

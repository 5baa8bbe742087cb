// Package tui is the fullscreen terminal view for long-running sweeps: a
// title bar, a summary block, a coverage map and a status block. It knows
// nothing about disks; callers hand it lines and a CellMap to render.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// ErrInterrupted is the cancellation cause when the user quits the view.
var ErrInterrupted = errors.New("stopped from UI")

// UI owns the terminal screen while a command runs.
type UI struct {
	s        tcell.Screen
	stopChan chan struct{}
	once     sync.Once
	done     chan struct{}

	title        string
	summaryLines []string
	legendLines  []string
	statusLines  []string
	mapLines     []string
}

// NewUI takes over the terminal and starts listening for the quit keys.
func NewUI() (*UI, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return newUI(s)
}

func newUI(s tcell.Screen) (*UI, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.DisableMouse()
	u := &UI{
		s:        s,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go u.eventLoop(s)
	return u, nil
}

// Close restores the terminal.
func (u *UI) Close() {
	if u.s == nil {
		return
	}
	u.RequestStop()
	u.s.Fini()
	<-u.done
	u.s = nil
}

// RequestStop marks the view as stopped. Safe to call more than once.
func (u *UI) RequestStop() {
	u.once.Do(func() {
		close(u.stopChan)
		if u.s != nil {
			_ = u.s.PostEvent(tcell.NewEventInterrupt(nil))
		}
	})
}

// Stopped is closed once the user presses q, Esc or Ctrl-C.
func (u *UI) Stopped() <-chan struct{} { return u.stopChan }

// Size returns the current screen width and height.
func (u *UI) Size() (width, height int) {
	if u.s == nil {
		return 0, 0
	}
	return u.s.Size()
}

func putStr(s tcell.Screen, x, y int, str string, style tcell.Style) {
	w, _ := s.Size()
	for i, r := range []rune(str) {
		pos := x + i
		if pos >= w {
			break
		}
		s.SetContent(pos, y, r, nil, style)
	}
}

// mapStyle colors failed cells so they stand out from the sweep.
func mapStyle(r rune) tcell.Style {
	if r == GlyphCorrupt {
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	}
	return tcell.StyleDefault
}

// LayoutAndDraw redraws everything from the current state.
func (u *UI) LayoutAndDraw() {
	if u.s == nil {
		return
	}
	u.s.Clear()
	w, h := u.s.Size()
	y := 0

	if u.title != "" {
		putStr(u.s, 0, y, strings.Repeat("═", w), tcell.StyleDefault)
		putStr(u.s, max(0, (w-len([]rune(u.title)))/2), y, u.title, tcell.StyleDefault.Bold(true))
		y++
	}

	for _, block := range [][]string{u.summaryLines, u.legendLines} {
		for _, line := range block {
			if y >= h {
				break
			}
			putStr(u.s, 0, y, line, tcell.StyleDefault)
			y++
		}
	}

	// leave room for the status block
	rows := min(len(u.mapLines), max(1, h-y-len(u.statusLines)-1))
	for i := 0; i < rows && y < h; i++ {
		for x, r := range []rune(u.mapLines[i]) {
			if x >= w {
				break
			}
			u.s.SetContent(x, y, r, nil, mapStyle(r))
		}
		y++
	}

	if len(u.statusLines) > 0 && y < h {
		putStr(u.s, 0, y, strings.Repeat("─", w), tcell.StyleDefault)
		putStr(u.s, 2, y, " Status ", tcell.StyleDefault)
		y++
		for _, line := range u.statusLines {
			if y >= h {
				break
			}
			putStr(u.s, 0, y, line, tcell.StyleDefault)
			y++
		}
	}

	u.s.Show()
}

func (u *UI) SetTitle(t string) { u.title = t }

func (u *UI) SetSummaryLines(lines []string) { u.summaryLines = append([]string(nil), lines...) }

func (u *UI) SetLegend(lines []string) { u.legendLines = append([]string(nil), lines...) }

func (u *UI) SetStatusLines(lines []string) { u.statusLines = append([]string(nil), lines...) }

// SetMap renders m into as many rows as the current screen leaves free.
func (u *UI) SetMap(m CellMap) {
	w, h := u.Size()
	if w <= 0 || h <= 0 || m == nil {
		u.mapLines = nil
		return
	}
	used := len(u.summaryLines) + len(u.legendLines) + len(u.statusLines) + 2
	u.mapLines = MapLines(m, w, max(1, h-used))
}

func (u *UI) eventLoop(s tcell.Screen) {
	defer close(u.done)
	for {
		switch ev := s.PollEvent().(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyCtrlC, ev.Key() == tcell.KeyEscape:
				u.RequestStop()
			case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
				u.RequestStop()
			}
		case *tcell.EventResize:
			s.Sync()
		case nil:
			return
		}
	}
}

// Summary formats label/value pairs two to a line.
func Summary(pairs ...[2]string) []string {
	var lines []string
	for i := 0; i < len(pairs); i += 2 {
		line := fmt.Sprintf("%s: %-14s", pairs[i][0], pairs[i][1])
		if i+1 < len(pairs) {
			line += fmt.Sprintf("  %s: %s", pairs[i+1][0], pairs[i+1][1])
		}
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines
}

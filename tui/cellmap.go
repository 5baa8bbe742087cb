package tui

import "strings"

const (
	GlyphDone    = '█'
	GlyphPartial = '▒'
	GlyphPending = '░'
	GlyphCorrupt = '■'
)

// Legend explains the map glyphs.
const Legend = "Legend:  █ verified   ▒ in progress   ░ not yet verified   ■ integrity failure | Q to quit"

// CellMap is a fixed-size coverage map.
type CellMap interface {
	Cells() uint
	Visited(cell uint) bool
	Corrupt(cell uint) bool
}

// MapLines draws m into at most rows lines of width w. When m has more cells
// than fit, each glyph stands for a run of adjacent cells.
func MapLines(m CellMap, w, rows int) []string {
	n := int(m.Cells())
	if n == 0 || w <= 0 || rows <= 0 {
		return nil
	}
	per := 1
	if area := w * rows; n > area {
		per = (n + area - 1) / area
	}
	glyphs := (n + per - 1) / per

	var lines []string
	var b strings.Builder
	b.Grow(w * 3)
	for g := 0; g < glyphs; g++ {
		b.WriteRune(glyph(m, g*per, min((g+1)*per, n)))
		if (g+1)%w == 0 {
			lines = append(lines, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		lines = append(lines, b.String())
	}
	return lines
}

// glyph summarizes cells [from, to). A single corrupt cell wins.
func glyph(m CellMap, from, to int) rune {
	visited := 0
	for c := from; c < to; c++ {
		if m.Corrupt(uint(c)) {
			return GlyphCorrupt
		}
		if m.Visited(uint(c)) {
			visited++
		}
	}
	switch {
	case visited == to-from:
		return GlyphDone
	case visited > 0:
		return GlyphPartial
	default:
		return GlyphPending
	}
}

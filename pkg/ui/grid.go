package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
)

// Terminal cells are mapped to screen pixels at a fixed size, so a terminal
// behaves like a coarse screen for the engine.
const (
	CellWidth  = 10.0
	CellHeight = 20.0
)

type ink int

const (
	inkBlank ink = iota
	inkEdge
	inkCard
	inkSelected
	inkHeader
	inkPending
	inkAnnotation
	inkCount
)

type cell struct {
	r   rune
	ink ink
}

// grid is a character canvas. Later writes cover earlier ones.
type grid struct {
	w, h  int
	cells []cell
}

func newGrid(w, h int) *grid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	g := &grid{w: w, h: h, cells: make([]cell, w*h)}
	for i := range g.cells {
		g.cells[i] = cell{r: ' '}
	}
	return g
}

func (g *grid) set(x, y int, r rune, k ink) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.cells[y*g.w+x] = cell{r: r, ink: k}
}

func (g *grid) at(x, y int) cell {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return cell{r: ' '}
	}
	return g.cells[y*g.w+x]
}

// text writes s starting at (x, y), clipped to max columns.
func (g *grid) text(x, y int, s string, max int, k ink) {
	col := 0
	for _, r := range s {
		if col >= max {
			return
		}
		if runewidth.RuneWidth(r) != 1 {
			r = '?'
		}
		g.set(x+col, y, r, k)
		col++
	}
}

// box draws a frame and clears its inside.
func (g *grid) box(x0, y0, x1, y1 int, k ink) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			r := ' '
			switch {
			case (y == y0 || y == y1) && (x == x0 || x == x1):
				r = corner(x == x0, y == y0)
			case y == y0 || y == y1:
				r = '─'
			case x == x0 || x == x1:
				r = '│'
			}
			g.set(x, y, r, k)
		}
	}
}

func corner(left, top bool) rune {
	switch {
	case left && top:
		return '╭'
	case top:
		return '╮'
	case left:
		return '╰'
	}
	return '╯'
}

// curve plots a sampled edge curve given in screen pixels.
func (g *grid) curve(c geometry.Curve, k ink) {
	const samples = 64
	for i := 0; i <= samples; i++ {
		p := c.At(float64(i) / samples)
		x, y := toCell(p)
		if g.at(x, y).ink == inkBlank {
			g.set(x, y, '·', k)
		}
	}
}

func toCell(p geometry.Point) (int, int) {
	return int(math.Floor(p.X / CellWidth)), int(math.Floor(p.Y / CellHeight))
}

// render joins runs of cells with the same ink into styled segments.
func (g *grid) render(styles [inkCount]lipgloss.Style) string {
	var sb strings.Builder
	for y := 0; y < g.h; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		var run strings.Builder
		current := inkBlank
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if current == inkBlank {
				sb.WriteString(run.String())
			} else {
				sb.WriteString(styles[current].Render(run.String()))
			}
			run.Reset()
		}
		for x := 0; x < g.w; x++ {
			c := g.cells[y*g.w+x]
			if c.ink != current {
				flush()
				current = c.ink
			}
			run.WriteRune(c.r)
		}
		flush()
	}
	return sb.String()
}

// plain is the unstyled content, mostly for tests.
func (g *grid) plain() string {
	var sb strings.Builder
	for y := 0; y < g.h; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < g.w; x++ {
			sb.WriteRune(g.cells[y*g.w+x].r)
		}
	}
	return sb.String()
}

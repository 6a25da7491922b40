// Package compositor converts RGBA pixel frames into glyph grids: luminance
// ramps, ordered dithering, Sobel edges, shape matching, sub-pixel
// topologies, and the four colour modes.
package compositor

import "math"

// RGB is a packed byte colour. The zero value doubles as the transparent
// background sentinel.
type RGB struct {
	R, G, B uint8
}

// Black is the default background.
var Black = RGB{}

// Cell is one glyph grid entry: a character and its two colours.
type Cell struct {
	Char rune
	Fg   RGB
	Bg   RGB
}

// Grid is a row-major glyph grid. Reallocation only happens when a resize
// outgrows the backing array; the per-frame path never allocates.
type Grid struct {
	W, H  int
	Cells []Cell
}

// NewGrid allocates a grid with capacity for maxW×maxH cells.
func NewGrid(maxW, maxH int) *Grid {
	return &Grid{W: maxW, H: maxH, Cells: make([]Cell, maxW*maxH)}
}

// Resize sets the active dimensions, growing the backing array only if the
// new size exceeds every previous size.
func (g *Grid) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if n := w * h; n > cap(g.Cells) {
		g.Cells = make([]Cell, n)
	}
	g.W, g.H = w, h
	g.Cells = g.Cells[:w*h]
}

// At returns a pointer to the cell at (x, y).
func (g *Grid) At(x, y int) *Cell { return &g.Cells[y*g.W+x] }

// CopyFrom copies dimensions and cells from src, reusing storage.
func (g *Grid) CopyFrom(src *Grid) {
	g.Resize(src.W, src.H)
	copy(g.Cells, src.Cells)
}

// GridSize derives the effective glyph-grid dimensions from the base grid,
// the density scale and the aspect-ratio correction. aspect defaults to 2.0,
// the typical terminal cell height/width ratio; larger values squash the
// vertical count further.
func GridSize(baseCols, baseRows int, density, aspect float64) (int, int) {
	if aspect <= 0 {
		aspect = 2.0
	}
	w := int(math.Round(float64(baseCols) * density))
	h := int(math.Round(float64(baseRows) * density * 2.0 / aspect))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Luminance is the BT.709 luma of an RGB byte triple, in [0,255].
func Luminance(r, g, b uint8) float64 {
	return (2126*float64(r) + 7152*float64(g) + 722*float64(b)) / 10000
}

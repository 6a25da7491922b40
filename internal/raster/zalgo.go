package raster

import (
	"github.com/FeelTheFonk/classcii/internal/compositor"
)

// Combining diacritical marks used by the zalgo pass, split into the
// above-glyph and below-glyph subsets of U+0300–U+036F.
var (
	zalgoAbove = []rune{
		0x0300, 0x0301, 0x0302, 0x0303, 0x0304, 0x0305, 0x0306, 0x0307,
		0x0308, 0x0309, 0x030A, 0x030B, 0x030C, 0x030D, 0x030E, 0x030F,
		0x0310, 0x0311, 0x0312, 0x0313, 0x0314, 0x033D, 0x0342, 0x0344,
		0x034A, 0x034B, 0x034C, 0x0350, 0x0351, 0x0352, 0x0357, 0x035B,
	}
	zalgoBelow = []rune{
		0x0316, 0x0317, 0x0318, 0x0319, 0x031C, 0x031D, 0x031E, 0x031F,
		0x0320, 0x0321, 0x0322, 0x0323, 0x0324, 0x0325, 0x0326, 0x0327,
		0x0328, 0x0329, 0x032A, 0x032B, 0x032C, 0x032D, 0x032E, 0x032F,
		0x0330, 0x0331, 0x0332, 0x0333, 0x0339, 0x033A, 0x033B, 0x033C,
	}
)

// drawZalgo composites combining marks above and below the base glyph. The
// selection is a pure function of the cell position and character, so a
// fixed seed replays the same corruption.
func (r *Rasterizer) drawZalgo(cell *compositor.Cell, cx, cy, x0, y0, x1, y1, cellW, cellH, count int, linear bool) {
	if cell.Char == ' ' || cell.Char == 0 {
		return
	}
	h := uint32(cx*73856093) ^ uint32(cy*19349663) ^ uint32(cell.Char)
	for k := 0; k < count; k++ {
		h = h*1664525 + 1013904223
		var mark rune
		var dy int
		if k%2 == 0 {
			mark = zalgoAbove[int(h>>8)%len(zalgoAbove)]
			dy = -(k/2 + 1) * cellH / 6
		} else {
			mark = zalgoBelow[int(h>>8)%len(zalgoBelow)]
			dy = (k/2 + 1) * cellH / 6
		}
		if m := r.atlas.mask(mark, cellW, cellH); m != nil {
			r.blitMask(m, x0, y0+dy, x1, y1, cell.Fg, linear)
		}
	}
}

package raster

import (
	"image"
	"math"

	"github.com/FeelTheFonk/classcii/internal/compositor"
	"github.com/FeelTheFonk/classcii/internal/config"
)

// Rasterizer converts glyph grids into a packed RGB24 buffer of fixed
// output dimensions. Cells tile the output evenly, so a denser grid simply
// draws smaller cells; the video frame size never changes mid-export.
type Rasterizer struct {
	outW, outH int
	pix        []byte
	atlas      *atlas

	lastCellW, lastCellH int
}

// New builds a rasterizer for the given output pixel size.
func New(src *FontSource, outW, outH int) *Rasterizer {
	return &Rasterizer{
		outW:  outW,
		outH:  outH,
		pix:   make([]byte, outW*outH*3),
		atlas: newAtlas(src),
	}
}

// OutputSize reports the fixed frame dimensions.
func (r *Rasterizer) OutputSize() (int, int) { return r.outW, r.outH }

// Render draws the grid into the reused RGB buffer and returns it. Glyphs
// the font lacks are skipped silently, leaving the cell background.
func (r *Rasterizer) Render(grid *compositor.Grid, cfg *config.Config) []byte {
	cellW := r.outW / grid.W
	cellH := r.outH / grid.H
	if cellW < 1 {
		cellW = 1
	}
	if cellH < 1 {
		cellH = 1
	}
	if cellW != r.lastCellW || cellH != r.lastCellH {
		// New cell geometry: warm the atlas with every built-in charset,
		// the topology blocks, and the combining marks zalgo samples from.
		r.atlas.precache(cellW, cellH, config.Charsets...)
		r.atlas.precache(cellW, cellH, topologyGlyphSets()...)
		r.atlas.precache(cellW, cellH, string(zalgoAbove), string(zalgoBelow))
		r.lastCellW, r.lastCellH = cellW, cellH
	}

	linear := cfg.ColorMode == config.ColorOklab
	zalgoCount := int(math.Min(cfg.ZalgoIntensity*3, 15))

	for cy := 0; cy < grid.H; cy++ {
		y0 := cy * r.outH / grid.H
		y1 := (cy + 1) * r.outH / grid.H
		for cx := 0; cx < grid.W; cx++ {
			x0 := cx * r.outW / grid.W
			x1 := (cx + 1) * r.outW / grid.W
			cell := grid.At(cx, cy)

			// The transparent background style uses the zero colour as its
			// sentinel, so the fill below paints video black either way;
			// the buffer is reused across frames and must be reset.
			r.fillRect(x0, y0, x1, y1, cell.Bg)

			if cell.Char != ' ' && cell.Char != 0 {
				if m := r.atlas.mask(cell.Char, cellW, cellH); m != nil {
					r.blitMask(m, x0, y0, x1, y1, cell.Fg, linear)
				}
			}

			if zalgoCount > 0 {
				r.drawZalgo(cell, cx, cy, x0, y0, x1, y1, cellW, cellH, zalgoCount, linear)
			}
		}
	}
	return r.pix
}

func (r *Rasterizer) fillRect(x0, y0, x1, y1 int, c compositor.RGB) {
	for y := y0; y < y1 && y < r.outH; y++ {
		o := (y*r.outW + x0) * 3
		for x := x0; x < x1 && x < r.outW; x++ {
			r.pix[o] = c.R
			r.pix[o+1] = c.G
			r.pix[o+2] = c.B
			o += 3
		}
	}
}

// blitMask alpha-composites a glyph mask at the cell origin. Masks are
// cell-sized; mask pixels that land outside the cell (zalgo marks are drawn
// shifted up or down) are clipped.
func (r *Rasterizer) blitMask(m *image.Alpha, x0, y0, x1, y1 int, fg compositor.RGB, linear bool) {
	b := m.Bounds()
	for my := b.Min.Y; my < b.Max.Y; my++ {
		py := y0 + my
		if py < 0 || py >= y1 || py >= r.outH {
			continue
		}
		for mx := b.Min.X; mx < b.Max.X; mx++ {
			px := x0 + mx
			if px < 0 || px >= x1 || px >= r.outW {
				continue
			}
			a := m.AlphaAt(mx, my).A
			if a == 0 {
				continue
			}
			o := (py*r.outW + px) * 3
			r.pix[o] = blendChannel(r.pix[o], fg.R, a, linear)
			r.pix[o+1] = blendChannel(r.pix[o+1], fg.G, a, linear)
			r.pix[o+2] = blendChannel(r.pix[o+2], fg.B, a, linear)
		}
	}
}

// blendChannel composites src over dst at alpha a. The Oklab colour mode
// blends in linear light; everything else stays in sRGB.
func blendChannel(dst, src, a uint8, linear bool) uint8 {
	t := float64(a) / 255
	if !linear {
		return uint8(float64(dst)*(1-t) + float64(src)*t + 0.5)
	}
	dl := srgbByteToLinear(dst)
	sl := srgbByteToLinear(src)
	return linearToSrgbByte(dl*(1-t) + sl*t)
}

func srgbByteToLinear(v uint8) float64 {
	f := float64(v) / 255
	if f <= 0.04045 {
		return f / 12.92
	}
	return math.Pow((f+0.055)/1.055, 2.4)
}

func linearToSrgbByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	var f float64
	if v <= 0.0031308 {
		f = v * 12.92
	} else {
		f = 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return uint8(f*255 + 0.5)
}

// topologyGlyphSets enumerates every glyph the sub-pixel modes can emit, so
// the atlas covers them ahead of the first mutated frame.
func topologyGlyphSets() []string {
	quad := make([]rune, 0, 16)
	for b := 0; b < 16; b++ {
		quad = append(quad, compositor.QuadrantGlyph(uint8(b)))
	}
	braille := make([]rune, 0, 256)
	for b := 0; b < 256; b++ {
		braille = append(braille, compositor.BrailleGlyph(uint8(b)))
	}
	sextant := make([]rune, 0, 64)
	for b := 0; b < 64; b++ {
		sextant = append(sextant, compositor.SextantGlyph(uint8(b)))
	}
	octant := make([]rune, 0, 256)
	for b := 0; b < 256; b++ {
		octant = append(octant, compositor.OctantGlyph(uint8(b)))
	}
	return []string{
		string(compositor.HalfBlockChar),
		string(quad), string(braille), string(sextant), string(octant),
	}
}

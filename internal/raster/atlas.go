package raster

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// glyphKey identifies a cached alpha bitmap: one rune at one cell size.
type glyphKey struct {
	r     rune
	cellW int
	cellH int
}

// atlas caches rendered glyph masks. A nil entry records a glyph the font
// lacks, so the miss is paid once.
type atlas struct {
	src   *FontSource
	cache map[glyphKey]*image.Alpha
}

func newAtlas(src *FontSource) *atlas {
	return &atlas{src: src, cache: map[glyphKey]*image.Alpha{}}
}

// mask returns the alpha bitmap for r at the given cell size, or nil when
// the font has no such glyph.
func (a *atlas) mask(r rune, cellW, cellH int) *image.Alpha {
	key := glyphKey{r, cellW, cellH}
	if m, ok := a.cache[key]; ok {
		return m
	}

	face := a.src.FaceFor(cellH)
	adv, hasGlyph := face.GlyphAdvance(r)
	if !hasGlyph {
		a.cache[key] = nil
		return nil
	}

	m := image.NewAlpha(image.Rect(0, 0, cellW, cellH))
	metrics := face.Metrics()

	// Centre horizontally on the advance width; sit the baseline above the
	// descent.
	x := (fixed.I(cellW) - adv) / 2
	y := fixed.I(cellH) - metrics.Descent

	d := font.Drawer{
		Dst:  m,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(string(r))

	a.cache[key] = m
	return m
}

// precache renders every glyph in the given strings at the active cell
// size, so the first frame pays the atlas cost instead of the steady state.
func (a *atlas) precache(cellW, cellH int, charsets ...string) {
	for _, cs := range charsets {
		for _, r := range cs {
			a.mask(r, cellW, cellH)
		}
	}
}

// Package raster turns glyph grids into packed RGB pixel frames: a font
// atlas of alpha bitmaps, per-cell background fill and alpha blending, and
// the zalgo combining-mark pass.
package raster

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSource supplies faces at arbitrary pixel heights. A TTF-backed source
// derives a face per cell height; the built-in fallback is the fixed-size
// basicfont, whose glyphs clip or letterbox inside mismatched cells.
type FontSource struct {
	ttf *truetype.Font

	faces map[int]font.Face
}

// LoadFont parses a TTF file into a font source.
func LoadFont(path string) (*FontSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	f, err := truetype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &FontSource{ttf: f, faces: map[int]font.Face{}}, nil
}

// BuiltinFont returns the basicfont fallback source. Its 7×13 face covers
// ASCII only; every other glyph is skipped silently at raster time, leaving
// the cell background visible.
func BuiltinFont() *FontSource {
	return &FontSource{faces: map[int]font.Face{}}
}

// FaceFor returns a face suitable for the given cell height, cached per
// height.
func (fs *FontSource) FaceFor(cellH int) font.Face {
	if f, ok := fs.faces[cellH]; ok {
		return f
	}
	var f font.Face
	if fs.ttf != nil {
		f = truetype.NewFace(fs.ttf, &truetype.Options{
			Size:    float64(cellH),
			DPI:     72,
			Hinting: font.HintingFull,
		})
	} else {
		f = basicfont.Face7x13
	}
	fs.faces[cellH] = f
	return f
}

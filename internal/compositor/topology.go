package compositor

import "github.com/FeelTheFonk/classcii/internal/config"

// Sub-pixel topology LUTs. Each mode quantises its cell's sub-pixels to one
// bit each; the bit pattern indexes these tables. Bit i covers sub-pixel
// (x, y) with i = x + subW*y, row-major from the top-left.

// HalfBlockChar is the only glyph half-block mode emits: the top sub-pixel
// colours the background, the bottom the foreground.
const HalfBlockChar = '▄'

// quadrantLUT maps the 4-bit pattern (TL=1, TR=2, BL=4, BR=8) to the box
// elements block.
var quadrantLUT = [16]rune{
	' ', '▘', '▝', '▀',
	'▖', '▌', '▞', '▛',
	'▗', '▚', '▐', '▜',
	'▄', '▙', '▟', '█',
}

// brailleChar converts a 2×4 bit pattern to a braille codepoint. The
// standard permutation maps bits 0-2 to column 0 rows 0-2, bits 3-5 to
// column 1 rows 0-2, and bits 6-7 to row 3.
func brailleChar(bits uint8) rune {
	var b uint8
	// bits are laid out x + 2*y; braille dot order differs.
	if bits&0x01 != 0 {
		b |= 0x01 // (0,0) dot 1
	}
	if bits&0x04 != 0 {
		b |= 0x02 // (0,1) dot 2
	}
	if bits&0x10 != 0 {
		b |= 0x04 // (0,2) dot 3
	}
	if bits&0x02 != 0 {
		b |= 0x08 // (1,0) dot 4
	}
	if bits&0x08 != 0 {
		b |= 0x10 // (1,1) dot 5
	}
	if bits&0x20 != 0 {
		b |= 0x20 // (1,2) dot 6
	}
	if bits&0x40 != 0 {
		b |= 0x40 // (0,3) dot 7
	}
	if bits&0x80 != 0 {
		b |= 0x80 // (1,3) dot 8
	}
	return rune(0x2800 + int(b))
}

// sextantLUT maps the 6-bit pattern to the Symbols for Legacy Computing
// block. Patterns 21 and 42 (the left and right half columns) have no
// codepoint of their own there and fall back to medium shade.
var sextantLUT = func() [64]rune {
	var lut [64]rune
	lut[0] = ' '
	lut[63] = '█'
	offset := 0
	for i := 1; i < 63; i++ {
		if i == 21 || i == 42 {
			lut[i] = '▒'
			offset++
			continue
		}
		lut[i] = rune(0x1FB00 + i - 1 - offset)
	}
	return lut
}()

// octantExceptions are the 2×4 patterns representable by pre-existing block
// characters; the octant block leaves gaps for them.
var octantExceptions = map[uint8]rune{
	0x00: ' ',
	0xFF: '█',
	0x0F: '▀', // top half
	0xF0: '▄', // bottom half
	0x55: '▌', // left column
	0xAA: '▐', // right column
}

// octantChar maps an 8-bit pattern into the octant block, skipping the
// exception gaps. Fonts without coverage leave the rasterizer to skip these
// glyphs silently.
func octantChar(bits uint8) rune {
	if r, ok := octantExceptions[bits]; ok {
		return r
	}
	skipped := 0
	for e := range octantExceptions {
		if e != 0 && e < bits {
			skipped++
		}
	}
	return rune(0x1CD00 + int(bits) - 1 - skipped)
}

// TopologyClass groups glyphs by the topology that emits them; temporal
// stability only swaps characters within a class.
func TopologyClass(r rune) int {
	switch {
	case r >= 0x2800 && r <= 0x28FF:
		return 1 // braille
	case r >= 0x1FB00 && r < 0x1FB3C, r == '▒':
		return 2 // sextant
	case r >= 0x1CD00 && r <= 0x1CDE5:
		return 3 // octant
	case r == '▄' || r == '▀' || r == '█' || r == '▌' || r == '▐' ||
		(r >= 0x2596 && r <= 0x259F):
		return 4 // block elements (half block, quadrant)
	default:
		return 0 // ascii ramp
	}
}

// SubPixelDensity returns the lit fraction of a sub-pixel glyph, or -1 if
// the rune is not a recognised topology glyph.
func SubPixelDensity(r rune) float64 {
	switch {
	case r == ' ':
		return 0
	case r == '█':
		return 1
	case r >= 0x2800 && r <= 0x28FF:
		return float64(popcount(uint8(r-0x2800))) / 8
	case r == '▀' || r == '▄' || r == '▌' || r == '▐' || r == '▒':
		return 0.5
	}
	for i, q := range quadrantLUT {
		if q == r {
			return float64(popcount(uint8(i))) / 4
		}
	}
	for i, s := range sextantLUT {
		if s == r {
			return float64(popcount(uint8(i))) / 6
		}
	}
	if r >= 0x1CD00 && r <= 0x1CDE5 {
		// Reverse the exception-gap arithmetic approximately: density by
		// scanning the forward map would be exact but this path only feeds
		// the stability heuristic.
		return float64(popcount(uint8(r-0x1CD00+1))) / 8
	}
	return -1
}

func popcount(b uint8) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// topologyFor returns the sub-pixel factors of a render mode.
func topologyFor(mode config.RenderMode) (subW, subH int) {
	return mode.SubW(), mode.SubH()
}

// The exported glyph accessors let the rasterizer enumerate every glyph a
// topology can emit when warming its atlas.

// QuadrantGlyph maps a 4-bit pattern to its box element.
func QuadrantGlyph(bits uint8) rune { return quadrantLUT[bits&0x0F] }

// BrailleGlyph maps a 2×4 bit pattern to its braille codepoint.
func BrailleGlyph(bits uint8) rune { return brailleChar(bits) }

// SextantGlyph maps a 6-bit pattern to its legacy-computing codepoint.
func SextantGlyph(bits uint8) rune { return sextantLUT[bits&0x3F] }

// OctantGlyph maps an 8-bit pattern to its octant codepoint.
func OctantGlyph(bits uint8) rune { return octantChar(bits) }

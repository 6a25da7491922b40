package compositor

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/FeelTheFonk/classcii/internal/config"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "compositor"})

// Compositor converts pixel frames into glyph grids. All lookup tables and
// scratch buffers are instance fields sized once at construction; the
// per-frame path allocates nothing.
type Compositor struct {
	baseCols, baseRows int
	maxW, maxH         int

	// Luminance LUT: charset index per luminance byte. Rebuilt only when
	// the charset changes.
	lut        [256]int
	lutCharset string
	lutRunes   []rune

	shapes      *shapeTable
	shapeWarned bool

	// Per-cell scratch, sized maxW*maxH.
	lumGrid []float64
	colR    []float64
	colG    []float64
	colB    []float64
}

// New sizes the compositor for a base grid; the density scale may grow the
// effective grid up to 4× in either dimension.
func New(baseCols, baseRows int) *Compositor {
	maxW := baseCols * 4
	maxH := baseRows * 4
	n := maxW * maxH
	return &Compositor{
		baseCols: baseCols,
		baseRows: baseRows,
		maxW:     maxW,
		maxH:     maxH,
		lumGrid:  make([]float64, n),
		colR:     make([]float64, n),
		colG:     make([]float64, n),
		colB:     make([]float64, n),
	}
}

// MaxGridSize reports the largest grid Compose may produce; the effect
// chain and rasterizer size their buffers from it.
func (c *Compositor) MaxGridSize() (int, int) { return c.maxW, c.maxH }

// Compose renders one pixel frame into the glyph grid. pix is RGBA,
// row-major, pw×ph. The grid is resized (within its pre-allocated capacity)
// to the density- and aspect-derived dimensions.
func (c *Compositor) Compose(pix []byte, pw, ph int, cfg *config.Config, grid *Grid) {
	gw, gh := GridSize(c.baseCols, c.baseRows, cfg.DensityScale, cfg.AspectRatio)
	if gw > c.maxW {
		gw = c.maxW
	}
	if gh > c.maxH {
		gh = c.maxH
	}
	grid.Resize(gw, gh)

	c.ensureLUT(cfg.Charset)

	subW, subH := topologyFor(cfg.RenderMode)
	totalSX, totalSY := gw*subW, gh*subH

	// Pass 1: per-cell mean colour and luminance.
	for cy := 0; cy < gh; cy++ {
		for cx := 0; cx < gw; cx++ {
			r, g, b := c.blockMean(pix, pw, ph, cx, cy, gw, gh)
			i := cy*gw + cx
			c.colR[i], c.colG[i], c.colB[i] = r, g, b
			c.lumGrid[i] = Luminance(uint8(r), uint8(g), uint8(b))
		}
	}

	shapeOn := cfg.ShapeMatching && cfg.RenderMode == config.ModeAscii
	if shapeOn && gw*gh > shapeMatchCellLimit {
		if !c.shapeWarned {
			logger.Warn("shape matching auto-disabled: grid too large",
				"cells", gw*gh, "limit", shapeMatchCellLimit)
			c.shapeWarned = true
		}
		shapeOn = false
	}
	if shapeOn {
		c.ensureShapes(cfg.Charset)
	}

	// Pass 2: glyph choice and colours.
	for cy := 0; cy < gh; cy++ {
		for cx := 0; cx < gw; cx++ {
			i := cy*gw + cx
			cell := &grid.Cells[i]

			switch cfg.RenderMode {
			case config.ModeAscii:
				c.composeAscii(pix, pw, ph, cx, cy, gw, gh, cfg, cell, shapeOn)
			case config.ModeHalfBlock:
				c.composeHalfBlock(pix, pw, ph, cx, cy, totalSX, totalSY, cfg, cell)
			default:
				c.composeSubPixel(pix, pw, ph, cx, cy, subW, subH, totalSX, totalSY, cfg, cell)
			}

			c.applyEdges(cx, cy, gw, gh, cfg, cell)
			c.applyBackground(i, cfg, cell)
		}
	}
}

// ensureLUT rebuilds the luminance-to-character table when the charset
// changes. The ramp maps luminance 0..255 linearly over the rune positions,
// so the table is monotonic by construction.
func (c *Compositor) ensureLUT(charset string) {
	if charset == c.lutCharset {
		return
	}
	runes := []rune(charset)
	if len(runes) < 2 {
		runes = []rune(" @")
	}
	n := len(runes)
	for l := 0; l < 256; l++ {
		c.lut[l] = (l*(n-1) + 127) / 255
	}
	c.lutCharset = charset
	c.lutRunes = runes
}

func (c *Compositor) ensureShapes(charset string) {
	if c.shapes == nil || c.shapes.charset != charset {
		c.shapes = buildShapeTable(charset)
	}
}

// blockMean samples up to a 4×4 stride of the cell's pixel block.
func (c *Compositor) blockMean(pix []byte, pw, ph, cx, cy, gw, gh int) (r, g, b float64) {
	x0, x1 := cx*pw/gw, (cx+1)*pw/gw
	y0, y1 := cy*ph/gh, (cy+1)*ph/gh
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	sx := (x1 - x0 + 3) / 4
	sy := (y1 - y0 + 3) / 4
	if sx < 1 {
		sx = 1
	}
	if sy < 1 {
		sy = 1
	}
	var n float64
	for y := y0; y < y1 && y < ph; y += sy {
		for x := x0; x < x1 && x < pw; x += sx {
			o := (y*pw + x) * 4
			r += float64(pix[o])
			g += float64(pix[o+1])
			b += float64(pix[o+2])
			n++
		}
	}
	if n > 0 {
		r /= n
		g /= n
		b /= n
	}
	return
}

// samplePixel reads the nearest pixel for a sub-pixel coordinate.
func samplePixel(pix []byte, pw, ph, sx, sy, totalSX, totalSY int) (uint8, uint8, uint8) {
	x := sx * pw / totalSX
	y := sy * ph / totalSY
	if x >= pw {
		x = pw - 1
	}
	if y >= ph {
		y = ph - 1
	}
	o := (y*pw + x) * 4
	return pix[o], pix[o+1], pix[o+2]
}

func (c *Compositor) composeAscii(pix []byte, pw, ph, cx, cy, gw, gh int, cfg *config.Config, cell *Cell, shapeOn bool) {
	i := cy*gw + cx
	l := c.lumGrid[i]
	if cfg.Invert {
		l = 255 - l
	}
	step := 255.0 / float64(len(c.lutRunes)-1)
	l += ditherOffset(int(cfg.DitherMode), cx, cy, step)
	li := int(l)
	if li < 0 {
		li = 0
	}
	if li > 255 {
		li = 255
	}
	idx := c.lut[li]

	if shapeOn {
		idx = c.shapes.match(c.sampleShape(pix, pw, ph, cx, cy, gw, gh, cfg.Invert))
	}
	cell.Char = c.lutRunes[idx]

	mean := RGB{uint8(c.colR[i]), uint8(c.colG[i]), uint8(c.colB[i])}
	cell.Fg = c.cellColor(mean, c.lumGrid[i], cfg)
}

func (c *Compositor) composeHalfBlock(pix []byte, pw, ph, cx, cy, totalSX, totalSY int, cfg *config.Config, cell *Cell) {
	tr, tg, tb := samplePixel(pix, pw, ph, cx, cy*2, totalSX, totalSY)
	br, bg, bb := samplePixel(pix, pw, ph, cx, cy*2+1, totalSX, totalSY)

	cell.Char = HalfBlockChar
	// The lower half block paints the bottom pixel as foreground; the cell
	// background carries the top pixel.
	cell.Fg = c.cellColor(RGB{br, bg, bb}, Luminance(br, bg, bb), cfg)
	cell.Bg = c.cellColor(RGB{tr, tg, tb}, Luminance(tr, tg, tb), cfg)
}

func (c *Compositor) composeSubPixel(pix []byte, pw, ph, cx, cy, subW, subH, totalSX, totalSY int, cfg *config.Config, cell *Cell) {
	var bits uint8
	var litR, litG, litB, litN float64
	for dy := 0; dy < subH; dy++ {
		for dx := 0; dx < subW; dx++ {
			r, g, b := samplePixel(pix, pw, ph, cx*subW+dx, cy*subH+dy, totalSX, totalSY)
			lit := Luminance(r, g, b) >= 127.5
			if cfg.Invert {
				lit = !lit
			}
			if lit {
				bits |= 1 << (dy*subW + dx)
				litR += float64(r)
				litG += float64(g)
				litB += float64(b)
				litN++
			}
		}
	}

	switch cfg.RenderMode {
	case config.ModeBraille:
		cell.Char = brailleChar(bits)
	case config.ModeQuadrant:
		cell.Char = quadrantLUT[bits&0x0F]
	case config.ModeSextant:
		cell.Char = sextantLUT[bits&0x3F]
	default: // octant
		cell.Char = octantChar(bits)
	}

	i := cy*(totalSX/subW) + cx
	var fg RGB
	if litN > 0 {
		fg = RGB{uint8(litR / litN), uint8(litG / litN), uint8(litB / litN)}
	} else {
		fg = RGB{uint8(c.colR[i]), uint8(c.colG[i]), uint8(c.colB[i])}
	}
	cell.Fg = c.cellColor(fg, c.lumGrid[i], cfg)
}

// cellColor runs the configured colour mode, or collapses to grayscale when
// colour is disabled.
func (c *Compositor) cellColor(mean RGB, lum float64, cfg *config.Config) RGB {
	if !cfg.ColorEnabled {
		g := contrastBrightness(RGB{uint8(lum), uint8(lum), uint8(lum)}, cfg.Contrast, cfg.Brightness)
		return g
	}
	return applyColorMode(mean, cfg)
}

// sampleShape binarises the cell's 5×5 block at its median luminance.
func (c *Compositor) sampleShape(pix []byte, pw, ph, cx, cy, gw, gh int, invert bool) uint32 {
	var lums [25]float64
	for sy := 0; sy < 5; sy++ {
		for sx := 0; sx < 5; sx++ {
			r, g, b := samplePixel(pix, pw, ph, cx*5+sx, cy*5+sy, gw*5, gh*5)
			lums[sy*5+sx] = Luminance(r, g, b)
		}
	}
	med := median25(lums)
	var bits uint32
	for i, l := range lums {
		on := l > med
		if invert {
			on = !on
		}
		if on {
			bits |= 1 << i
		}
	}
	return bits
}

func median25(v [25]float64) float64 {
	// Insertion sort a copy; 25 elements is cheaper than sort.Float64s.
	s := v
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	return s[12]
}

// Directional edge glyphs, Unicode and ASCII-only fallbacks.
var (
	edgeGlyphs      = [4]rune{'│', '─', '╲', '╱'}
	edgeGlyphsASCII = [4]rune{'|', '-', '\\', '/'}
)

// applyEdges runs the Sobel operator over the cell-luminance grid and
// substitutes a directional glyph where the magnitude crosses the
// threshold.
func (c *Compositor) applyEdges(cx, cy, gw, gh int, cfg *config.Config, cell *Cell) {
	if cfg.EdgeThreshold >= 1 || cfg.EdgeMix <= 0 {
		return
	}

	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		}
		if x >= gw {
			x = gw - 1
		}
		if y < 0 {
			y = 0
		}
		if y >= gh {
			y = gh - 1
		}
		return c.lumGrid[y*gw+x]
	}

	gx := -at(cx-1, cy-1) + at(cx+1, cy-1) +
		-2*at(cx-1, cy) + 2*at(cx+1, cy) +
		-at(cx-1, cy+1) + at(cx+1, cy+1)
	gy := -at(cx-1, cy-1) - 2*at(cx, cy-1) - at(cx+1, cy-1) +
		at(cx-1, cy+1) + 2*at(cx, cy+1) + at(cx+1, cy+1)

	mag := (abs(gx) + abs(gy)) / 1020
	if mag < cfg.EdgeThreshold {
		return
	}

	// edge_mix < 1 replaces only cells whose luminance fraction falls
	// under the mix threshold.
	if cfg.EdgeMix < 1 {
		if c.lumGrid[cy*gw+cx]/255 >= cfg.EdgeMix {
			return
		}
	}

	glyphs := &edgeGlyphs
	if cfg.RenderMode == config.ModeAscii && isASCII(cfg.Charset) {
		glyphs = &edgeGlyphsASCII
	}

	ax, ay := abs(gx), abs(gy)
	switch {
	case ax > 2*ay:
		cell.Char = glyphs[0] // vertical edge: strong horizontal gradient
	case ay > 2*ax:
		cell.Char = glyphs[1]
	case gx*gy > 0:
		cell.Char = glyphs[2]
	default:
		cell.Char = glyphs[3]
	}
}

func (c *Compositor) applyBackground(i int, cfg *config.Config, cell *Cell) {
	// Half-block cells already carry the top pixel in their background.
	if cfg.RenderMode == config.ModeHalfBlock {
		return
	}
	switch cfg.BGStyle {
	case config.BGSourceDim:
		cell.Bg = RGB{
			uint8(c.colR[i] * 0.25),
			uint8(c.colG[i] * 0.25),
			uint8(c.colB[i] * 0.25),
		}
	default: // Black, Transparent (the sentinel is the zero colour)
		cell.Bg = Black
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

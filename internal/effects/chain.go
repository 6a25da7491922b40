package effects

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/FeelTheFonk/classcii/internal/analysis"
	"github.com/FeelTheFonk/classcii/internal/compositor"
	"github.com/FeelTheFonk/classcii/internal/config"
)

// waveRowFreq sets how quickly the wave phase advances per row.
const waveRowFreq = 0.35

// Chain owns the post-processing state: the camera scratch frame, the two
// history grids, and the phase accumulators. State resets on render-mode
// transitions so a mutated mode starts clean.
type Chain struct {
	camBuf []byte

	prev      *compositor.Grid // temporal-stability history
	prevOK    bool
	fadePrev  *compositor.Grid // fade-trails history (post-effect)
	fadeOK    bool
	scratch   *compositor.Grid // per-effect snapshot
	rowBuf    []compositor.Cell
	wavePhase float64
	huePhase  float64

	lastMode config.RenderMode
	primed   bool
}

// NewChain pre-allocates for the largest grid and pixel frame the export
// can produce.
func NewChain(maxGridW, maxGridH, pixW, pixH int) *Chain {
	return &Chain{
		camBuf:   make([]byte, pixW*pixH*4),
		prev:     compositor.NewGrid(maxGridW, maxGridH),
		fadePrev: compositor.NewGrid(maxGridW, maxGridH),
		scratch:  compositor.NewGrid(maxGridW, maxGridH),
		rowBuf:   make([]compositor.Cell, maxGridW),
		lastMode: -1,
	}
}

// Camera applies the virtual camera to the pixel frame before composition.
// It returns pix untouched when the transform is the identity.
func (c *Chain) Camera(pix []byte, w, h int, cfg *config.Config) []byte {
	if cfg.CameraIdentity() {
		return pix
	}
	ApplyCamera(pix, c.camBuf[:len(pix)], w, h,
		cfg.CameraZoomAmplitude, cfg.CameraRotation, cfg.CameraPanX, cfg.CameraPanY)
	return c.camBuf[:len(pix)]
}

// Apply runs the grid effects in their fixed order. dt is the frame period
// in seconds; v supplies the beat-synchronous inputs.
func (c *Chain) Apply(grid *compositor.Grid, cfg *config.Config, v *analysis.FeatureVector, dt float64) {
	if c.primed && cfg.RenderMode != c.lastMode {
		// Mode transition: history grids describe glyphs of another
		// topology, so they reset rather than bleed across.
		c.prevOK = false
		c.fadeOK = false
		c.wavePhase = 0
		c.huePhase = 0
	}
	c.lastMode = cfg.RenderMode
	c.primed = true

	c.temporalStability(grid, cfg)
	c.wave(grid, cfg, v, dt)
	c.chromatic(grid, cfg)
	c.colorPulse(grid, cfg, dt)
	c.fadeTrails(grid, cfg)
	c.strobe(grid, cfg, v)
	c.scanLines(grid, cfg)
	c.glow(grid, cfg)

	// Histories advance regardless of which effects ran.
	c.prev.CopyFrom(grid)
	c.prevOK = true
	c.fadePrev.CopyFrom(grid)
	c.fadeOK = true
}

// charDensity estimates a glyph's ink coverage: topology glyphs by
// popcount, ramp glyphs by their charset position.
func charDensity(r rune, charset string) float64 {
	if d := compositor.SubPixelDensity(r); d >= 0 {
		return d
	}
	runes := []rune(charset)
	for i, cr := range runes {
		if cr == r {
			return float64(i) / float64(len(runes)-1)
		}
	}
	return 0.5
}

// temporalStability keeps the previous frame's character when the density
// change is small and the topology class matches. Colours pass through.
func (c *Chain) temporalStability(grid *compositor.Grid, cfg *config.Config) {
	if cfg.TemporalStability <= 0 || !c.prevOK ||
		c.prev.W != grid.W || c.prev.H != grid.H {
		return
	}
	limit := cfg.TemporalStability * 0.3
	for i := range grid.Cells {
		cur := &grid.Cells[i]
		old := &c.prev.Cells[i]
		if cur.Char == old.Char {
			continue
		}
		if compositor.TopologyClass(cur.Char) != compositor.TopologyClass(old.Char) {
			continue
		}
		d := charDensity(cur.Char, cfg.Charset) - charDensity(old.Char, cfg.Charset)
		if math.Abs(d) < limit {
			cur.Char = old.Char
		}
	}
}

// wave shifts rows horizontally on a travelling sine; rows wrap. The beat
// phase modulates the accumulator at half weight so the distortion locks to
// the music.
func (c *Chain) wave(grid *compositor.Grid, cfg *config.Config, v *analysis.FeatureVector, dt float64) {
	c.wavePhase += cfg.WaveSpeed * dt
	if cfg.WaveAmplitude <= 0 {
		return
	}
	phase := c.wavePhase + v.BeatPhase*math.Pi*0.5

	for y := 0; y < grid.H; y++ {
		shift := int(math.Round(cfg.WaveAmplitude * math.Sin(phase+float64(y)*waveRowFreq) * 8))
		if shift == 0 {
			continue
		}
		row := grid.Cells[y*grid.W : (y+1)*grid.W]
		buf := c.rowBuf[:grid.W]
		for x := range row {
			buf[(x+shift%grid.W+grid.W)%grid.W] = row[x]
		}
		copy(row, buf)
	}
}

// chromatic displaces the red and blue foreground channels in opposite
// horizontal directions; boundary cells borrow their neighbours' values.
func (c *Chain) chromatic(grid *compositor.Grid, cfg *config.Config) {
	off := int(math.Round(cfg.ChromaticOffset))
	if off == 0 || !cfg.ColorEnabled {
		return
	}
	c.scratch.CopyFrom(grid)
	for y := 0; y < grid.H; y++ {
		for x := 0; x < grid.W; x++ {
			rx := x - off
			if rx < 0 {
				rx = 0
			}
			bx := x + off
			if bx >= grid.W {
				bx = grid.W - 1
			}
			cell := grid.At(x, y)
			cell.Fg.R = c.scratch.At(rx, y).Fg.R
			cell.Fg.B = c.scratch.At(bx, y).Fg.B
		}
	}
}

// colorPulse rotates every non-black foreground hue by an accumulating
// phase.
func (c *Chain) colorPulse(grid *compositor.Grid, cfg *config.Config, dt float64) {
	c.huePhase += cfg.ColorPulseSpeed * dt * 360
	for c.huePhase >= 360 {
		c.huePhase -= 360
	}
	if cfg.ColorPulseSpeed <= 0 || !cfg.ColorEnabled {
		return
	}
	for i := range grid.Cells {
		fg := &grid.Cells[i].Fg
		if fg.R == 0 && fg.G == 0 && fg.B == 0 {
			continue
		}
		col := colorful.Color{R: float64(fg.R) / 255, G: float64(fg.G) / 255, B: float64(fg.B) / 255}
		h, s, vv := col.Hsv()
		h += c.huePhase
		for h >= 360 {
			h -= 360
		}
		out := colorful.Hsv(h, s, vv)
		fg.R = clampByte(out.R * 255)
		fg.G = clampByte(out.G * 255)
		fg.B = clampByte(out.B * 255)
	}
}

// fadeTrails blends the frame against the previous post-effect grid. The
// denser character survives; colours lerp toward history by fade_decay.
func (c *Chain) fadeTrails(grid *compositor.Grid, cfg *config.Config) {
	if cfg.FadeDecay <= 0 || !c.fadeOK ||
		c.fadePrev.W != grid.W || c.fadePrev.H != grid.H {
		return
	}
	k := cfg.FadeDecay
	for i := range grid.Cells {
		cur := &grid.Cells[i]
		old := &c.fadePrev.Cells[i]
		if charDensity(old.Char, cfg.Charset) > charDensity(cur.Char, cfg.Charset) {
			cur.Char = old.Char
		}
		cur.Fg = lerpRGB(cur.Fg, old.Fg, k)
		cur.Bg = lerpRGB(cur.Bg, old.Bg, k)
	}
}

// strobe adds the beat flash: a uniform brightness delta that follows the
// onset envelope.
func (c *Chain) strobe(grid *compositor.Grid, cfg *config.Config, v *analysis.FeatureVector) {
	delta := v.OnsetEnvelope * cfg.BeatFlashIntensity * 255
	if delta <= 0 {
		return
	}
	for i := range grid.Cells {
		cell := &grid.Cells[i]
		cell.Fg = addRGB(cell.Fg, delta)
		cell.Bg = addRGB(cell.Bg, delta)
	}
}

// scanLines darkens every (gap+1)-th row. gap 0 disables the effect.
func (c *Chain) scanLines(grid *compositor.Grid, cfg *config.Config) {
	if cfg.ScanlineGap <= 0 {
		return
	}
	factor := 0.3*(1-cfg.ScanlineDarken) + cfg.ScanlineDarken
	stride := cfg.ScanlineGap + 1
	for y := 0; y < grid.H; y += stride {
		for x := 0; x < grid.W; x++ {
			cell := grid.At(x, y)
			cell.Fg = scaleRGB(cell.Fg, factor)
			cell.Bg = scaleRGB(cell.Bg, factor)
		}
	}
}

// glow bleeds bright foregrounds into their four cardinal neighbours.
func (c *Chain) glow(grid *compositor.Grid, cfg *config.Config) {
	if cfg.GlowIntensity <= 0 {
		return
	}
	c.scratch.CopyFrom(grid)
	add := cfg.GlowIntensity * 40
	for y := 0; y < grid.H; y++ {
		for x := 0; x < grid.W; x++ {
			src := c.scratch.At(x, y).Fg
			if src.R <= 140 && src.G <= 140 && src.B <= 140 {
				continue
			}
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= grid.W || ny < 0 || ny >= grid.H {
					continue
				}
				cell := grid.At(nx, ny)
				cell.Fg = addRGB(cell.Fg, add)
			}
		}
	}
}

func clampByte(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f + 0.5)
}

func lerpRGB(a, b compositor.RGB, t float64) compositor.RGB {
	return compositor.RGB{
		R: clampByte(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: clampByte(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: clampByte(float64(a.B) + (float64(b.B)-float64(a.B))*t),
	}
}

func addRGB(c compositor.RGB, d float64) compositor.RGB {
	return compositor.RGB{
		R: clampByte(float64(c.R) + d),
		G: clampByte(float64(c.G) + d),
		B: clampByte(float64(c.B) + d),
	}
}

func scaleRGB(c compositor.RGB, f float64) compositor.RGB {
	return compositor.RGB{
		R: clampByte(float64(c.R) * f),
		G: clampByte(float64(c.G) * f),
		B: clampByte(float64(c.B) * f),
	}
}

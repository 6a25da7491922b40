package config

// Curve shapes a mapping's normalized source value before scaling.
type Curve int

const (
	CurveLinear Curve = iota
	CurveExponential
	CurveThreshold
	CurveSmooth
)

var curveNames = map[Curve]string{
	CurveLinear:      "linear",
	CurveExponential: "exponential",
	CurveThreshold:   "threshold",
	CurveSmooth:      "smooth",
}

func (c Curve) String() string { return curveNames[c] }

// Apply evaluates the curve for x in [0,1].
func (c Curve) Apply(x float64) float64 {
	switch c {
	case CurveExponential:
		return x * x
	case CurveThreshold:
		if x < 0.3 {
			return 0
		}
		return (x - 0.3) / 0.7
	case CurveSmooth:
		return 3*x*x - 2*x*x*x
	default:
		return x
	}
}

// Mapping routes one audio feature into one configuration field.
// Smoothing, when set, overrides the global audio smoothing for this mapping.
type Mapping struct {
	Enabled   bool     `toml:"enabled"`
	Source    string   `toml:"source"`
	Target    string   `toml:"target"`
	Amount    float64  `toml:"amount"`
	Offset    float64  `toml:"offset"`
	Curve     Curve    `toml:"curve"`
	Smoothing *float64 `toml:"smoothing"`
}

func (m *Mapping) clamp() {
	m.Amount = clampF(m.Amount, -10.0, 10.0)
	m.Offset = clampF(m.Offset, -5.0, 5.0)
	if m.Curve < CurveLinear || m.Curve > CurveSmooth {
		m.Curve = CurveLinear
	}
	if m.Smoothing != nil {
		s := clampF(*m.Smoothing, 0.0, 1.0)
		m.Smoothing = &s
	}
}

// FieldRange is the clamp range of one mappable target field.
type FieldRange struct {
	Lo, Hi float64
}

// Targets enumerates every mapping target, its clamp range, and accessors on
// Config. The director uses this table so mapping application stays a data
// walk instead of a switch per field.
var Targets = map[string]struct {
	Range FieldRange
	Get   func(*Config) float64
	Set   func(*Config, float64)
}{
	"density_scale": {FieldRange{0.1, 4.0},
		func(c *Config) float64 { return c.DensityScale },
		func(c *Config, v float64) { c.DensityScale = v }},
	"contrast": {FieldRange{0.1, 3.0},
		func(c *Config) float64 { return c.Contrast },
		func(c *Config, v float64) { c.Contrast = v }},
	"brightness": {FieldRange{-1.0, 1.0},
		func(c *Config) float64 { return c.Brightness },
		func(c *Config, v float64) { c.Brightness = v }},
	"saturation": {FieldRange{0.0, 3.0},
		func(c *Config) float64 { return c.Saturation },
		func(c *Config, v float64) { c.Saturation = v }},
	"edge_threshold": {FieldRange{0.0, 1.0},
		func(c *Config) float64 { return c.EdgeThreshold },
		func(c *Config, v float64) { c.EdgeThreshold = v }},
	"edge_mix": {FieldRange{0.0, 1.0},
		func(c *Config) float64 { return c.EdgeMix },
		func(c *Config, v float64) { c.EdgeMix = v }},
	"fade_decay": {FieldRange{0.0, 1.0},
		func(c *Config) float64 { return c.FadeDecay },
		func(c *Config, v float64) { c.FadeDecay = v }},
	"glow_intensity": {FieldRange{0.0, 2.0},
		func(c *Config) float64 { return c.GlowIntensity },
		func(c *Config, v float64) { c.GlowIntensity = v }},
	"zalgo_intensity": {FieldRange{0.0, 5.0},
		func(c *Config) float64 { return c.ZalgoIntensity },
		func(c *Config, v float64) { c.ZalgoIntensity = v }},
	"beat_flash_intensity": {FieldRange{0.0, 2.0},
		func(c *Config) float64 { return c.BeatFlashIntensity },
		func(c *Config, v float64) { c.BeatFlashIntensity = v }},
	"chromatic_offset": {FieldRange{0.0, 5.0},
		func(c *Config) float64 { return c.ChromaticOffset },
		func(c *Config, v float64) { c.ChromaticOffset = v }},
	"wave_amplitude": {FieldRange{0.0, 1.0},
		func(c *Config) float64 { return c.WaveAmplitude },
		func(c *Config, v float64) { c.WaveAmplitude = v }},
	"wave_speed": {FieldRange{0.0, 10.0},
		func(c *Config) float64 { return c.WaveSpeed },
		func(c *Config, v float64) { c.WaveSpeed = v }},
	"color_pulse_speed": {FieldRange{0.0, 5.0},
		func(c *Config) float64 { return c.ColorPulseSpeed },
		func(c *Config, v float64) { c.ColorPulseSpeed = v }},
	"strobe_decay": {FieldRange{0.5, 0.99},
		func(c *Config) float64 { return c.StrobeDecay },
		func(c *Config, v float64) { c.StrobeDecay = v }},
	"temporal_stability": {FieldRange{0.0, 1.0},
		func(c *Config) float64 { return c.TemporalStability },
		func(c *Config, v float64) { c.TemporalStability = v }},
	"camera_zoom_amplitude": {FieldRange{0.1, 10.0},
		func(c *Config) float64 { return c.CameraZoomAmplitude },
		func(c *Config, v float64) { c.CameraZoomAmplitude = v }},
	"camera_rotation": {FieldRange{-1e9, 1e9},
		func(c *Config) float64 { return c.CameraRotation },
		func(c *Config, v float64) { c.CameraRotation = v }},
	"camera_pan_x": {FieldRange{-2.0, 2.0},
		func(c *Config) float64 { return c.CameraPanX },
		func(c *Config, v float64) { c.CameraPanX = v }},
	"camera_pan_y": {FieldRange{-2.0, 2.0},
		func(c *Config) float64 { return c.CameraPanY },
		func(c *Config, v float64) { c.CameraPanY = v }},
}

// InvertTarget is the one binary mapping target; the director accumulates
// |delta| and flips the flag past a threshold instead of lerping.
const InvertTarget = "invert"

package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

func TestClampAll(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Config)
		check func(*testing.T, *Config)
	}{
		{
			name:  "contrast above range",
			setup: func(c *Config) { c.Contrast = 99 },
			check: func(t *testing.T, c *Config) {
				if c.Contrast != 3.0 {
					t.Errorf("Contrast = %v, want 3.0", c.Contrast)
				}
			},
		},
		{
			name:  "brightness below range",
			setup: func(c *Config) { c.Brightness = -7 },
			check: func(t *testing.T, c *Config) {
				if c.Brightness != -1.0 {
					t.Errorf("Brightness = %v, want -1.0", c.Brightness)
				}
			},
		},
		{
			name:  "strobe decay floor",
			setup: func(c *Config) { c.StrobeDecay = 0.1 },
			check: func(t *testing.T, c *Config) {
				if c.StrobeDecay != 0.5 {
					t.Errorf("StrobeDecay = %v, want 0.5", c.StrobeDecay)
				}
			},
		},
		{
			name:  "scanline gap ceiling",
			setup: func(c *Config) { c.ScanlineGap = 42 },
			check: func(t *testing.T, c *Config) {
				if c.ScanlineGap != 8 {
					t.Errorf("ScanlineGap = %v, want 8", c.ScanlineGap)
				}
			},
		},
		{
			name:  "NaN falls to range floor",
			setup: func(c *Config) { c.Saturation = math.NaN() },
			check: func(t *testing.T, c *Config) {
				if c.Saturation != 0.0 {
					t.Errorf("Saturation = %v, want 0.0", c.Saturation)
				}
			},
		},
		{
			name:  "single-glyph charset padded",
			setup: func(c *Config) { c.Charset = "#" },
			check: func(t *testing.T, c *Config) {
				if c.Charset != " @" {
					t.Errorf("Charset = %q, want %q", c.Charset, " @")
				}
			},
		},
		{
			name:  "odd fps normalised",
			setup: func(c *Config) { c.TargetFPS = 25 },
			check: func(t *testing.T, c *Config) {
				if c.TargetFPS != 30 {
					t.Errorf("TargetFPS = %v, want 30", c.TargetFPS)
				}
			},
		},
		{
			name:  "camera rotation stays unbounded but finite",
			setup: func(c *Config) { c.CameraRotation = 720; c.CameraPanX = 5 },
			check: func(t *testing.T, c *Config) {
				if c.CameraRotation != 720 {
					t.Errorf("CameraRotation = %v, want 720", c.CameraRotation)
				}
				if c.CameraPanX != 2.0 {
					t.Errorf("CameraPanX = %v, want 2.0", c.CameraPanX)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.setup(&c)
			c.ClampAll()
			tt.check(t, &c)
		})
	}
}

// Every mapping target must survive a round-trip through its own clamp range:
// setting any value and clamping must land inside [Lo,Hi].
func TestTargetRangesHold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.SampledFrom(targetNames()).Draw(rt, "target")
		v := rapid.Float64Range(-1e6, 1e6).Draw(rt, "value")

		c := Default()
		tgt := Targets[name]
		tgt.Set(&c, v)
		c.ClampAll()
		got := tgt.Get(&c)
		if got < tgt.Range.Lo-1e-9 || got > tgt.Range.Hi+1e-9 {
			rt.Fatalf("target %s: value %v clamped to %v, outside [%v,%v]",
				name, v, got, tgt.Range.Lo, tgt.Range.Hi)
		}
	})
}

func targetNames() []string {
	names := make([]string, 0, len(Targets))
	for n := range Targets {
		names = append(names, n)
	}
	return names
}

func TestCurves(t *testing.T) {
	tests := []struct {
		curve Curve
		x     float64
		want  float64
	}{
		{CurveLinear, 0.5, 0.5},
		{CurveExponential, 0.5, 0.25},
		{CurveThreshold, 0.2, 0.0},
		{CurveThreshold, 1.0, 1.0},
		{CurveSmooth, 0.0, 0.0},
		{CurveSmooth, 0.5, 0.5},
		{CurveSmooth, 1.0, 1.0},
	}
	for _, tt := range tests {
		got := tt.curve.Apply(tt.x)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%v.Apply(%v) = %v, want %v", tt.curve, tt.x, got, tt.want)
		}
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classcii.toml")
	src := `
render_mode = "braille"
color_mode = "oklab"
dither_mode = "bayer8x8"
bg_style = "source_dim"
contrast = 1.4
brightness = 0.1
nonsense_key = true

[audio]
smoothing = 0.3
sensitivity = 1.5

[[audio.mappings]]
enabled = true
source = "rms"
target = "glow_intensity"
amount = 1.2
curve = "smooth"

[[audio.mappings]]
enabled = true
source = "bass"
target = "not_a_field"
amount = 1.0

[[preset]]
name = "calm"
brightness = 0.0

[[preset]]
name = "loud"
brightness = 0.4
render_mode = "sextant"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, presets, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RenderMode != ModeBraille {
		t.Errorf("RenderMode = %v, want braille", cfg.RenderMode)
	}
	if cfg.ColorMode != ColorOklab {
		t.Errorf("ColorMode = %v, want oklab", cfg.ColorMode)
	}
	if cfg.DitherMode != DitherBayer8x8 {
		t.Errorf("DitherMode = %v, want bayer8x8", cfg.DitherMode)
	}
	if cfg.BGStyle != BGSourceDim {
		t.Errorf("BGStyle = %v, want source_dim", cfg.BGStyle)
	}
	if cfg.Audio.Smoothing != 0.3 {
		t.Errorf("Audio.Smoothing = %v, want 0.3", cfg.Audio.Smoothing)
	}

	// The mapping with an unknown target must have been dropped.
	if len(cfg.Audio.Mappings) != 1 {
		t.Fatalf("Mappings = %d, want 1", len(cfg.Audio.Mappings))
	}
	if cfg.Audio.Mappings[0].Curve != CurveSmooth {
		t.Errorf("Curve = %v, want smooth", cfg.Audio.Mappings[0].Curve)
	}

	if len(presets) != 2 {
		t.Fatalf("presets = %d, want 2", len(presets))
	}
	if presets[1].RenderMode != ModeSextant {
		t.Errorf("preset render mode = %v, want sextant", presets[1].RenderMode)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, _, err := Load("/does/not/exist.toml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCharsetPool(t *testing.T) {
	if len(Charsets) != 11 {
		t.Fatalf("charset pool = %d entries, want 11", len(Charsets))
	}
	for i, cs := range Charsets {
		if len([]rune(cs)) < 2 {
			t.Errorf("charset %d too short: %q", i, cs)
		}
	}
}

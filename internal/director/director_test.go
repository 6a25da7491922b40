package director

import (
	"math"
	"testing"

	"github.com/FeelTheFonk/classcii/internal/analysis"
	"github.com/FeelTheFonk/classcii/internal/config"
)

// flatTimeline builds a timeline with a constant feature vector and energy.
func flatTimeline(frames int, fps int, v analysis.FeatureVector, e analysis.EnergyClass) *analysis.Timeline {
	fs := make([]analysis.FeatureVector, frames)
	es := make([]analysis.EnergyClass, frames)
	for i := range fs {
		fs[i] = v
		es[i] = e
	}
	return analysis.NewTimelineForTest(fs, es, fps)
}

func TestMappingClampsAtTargetMax(t *testing.T) {
	base := config.Default()
	base.Audio.Sensitivity = 1
	base.Audio.Smoothing = 1 // no smoothing lag
	base.Audio.Mappings = []config.Mapping{{
		Enabled: true,
		Source:  "rms",
		Target:  "glow_intensity",
		Amount:  1000, // clamps to 10 on ingest
	}}
	base.ClampAll()
	if base.Audio.Mappings[0].Amount != 10 {
		t.Fatalf("Amount = %v, want ingest clamp to 10", base.Audio.Mappings[0].Amount)
	}

	tl := flatTimeline(10, 30, analysis.FeatureVector{RMS: 1}, analysis.EnergyMedium)
	d := New(base, nil, tl, Options{Seed: 1})

	var eff config.Config
	d.Step(0, &eff)
	if eff.GlowIntensity != 2.0 {
		t.Errorf("GlowIntensity = %v, want clamped max 2.0", eff.GlowIntensity)
	}
}

func TestMappingCurveAndOffset(t *testing.T) {
	base := config.Default()
	base.Audio.Smoothing = 1
	base.Audio.Mappings = []config.Mapping{{
		Enabled: true,
		Source:  "bass",
		Target:  "wave_amplitude",
		Amount:  1,
		Curve:   config.CurveExponential,
	}}

	tl := flatTimeline(5, 30, analysis.FeatureVector{Bass: 0.5}, analysis.EnergyMedium)
	d := New(base, nil, tl, Options{Seed: 1})

	var eff config.Config
	d.Step(0, &eff)
	// 0.5^2 * 1 = 0.25 added to the default 0.
	if math.Abs(eff.WaveAmplitude-0.25) > 1e-9 {
		t.Errorf("WaveAmplitude = %v, want 0.25", eff.WaveAmplitude)
	}
}

func TestMappingSmoothing(t *testing.T) {
	alpha := 0.5
	base := config.Default()
	base.Audio.Mappings = []config.Mapping{{
		Enabled:   true,
		Source:    "rms",
		Target:    "glow_intensity",
		Amount:    1,
		Smoothing: &alpha,
	}}

	tl := flatTimeline(10, 30, analysis.FeatureVector{RMS: 1}, analysis.EnergyMedium)
	d := New(base, nil, tl, Options{Seed: 1})

	var eff config.Config
	d.Step(0, &eff)
	first := eff.GlowIntensity
	d.Step(1, &eff)
	second := eff.GlowIntensity

	// The EMA seeds at the first delta, so a constant source holds steady.
	if math.Abs(first-1) > 1e-9 || math.Abs(second-1) > 1e-9 {
		t.Errorf("smoothed deltas = %v, %v, want 1, 1", first, second)
	}
}

func TestInvertAccumulatesAndReverts(t *testing.T) {
	base := config.Default()
	base.Audio.Smoothing = 1
	base.Audio.Mappings = []config.Mapping{{
		Enabled: true,
		Source:  "rms",
		Target:  config.InvertTarget,
		Amount:  1,
	}}

	tl := flatTimeline(200, 30, analysis.FeatureVector{RMS: 1}, analysis.EnergyMedium)
	d := New(base, nil, tl, Options{Seed: 1})

	var eff config.Config
	d.Step(0, &eff)
	if !eff.Invert {
		t.Fatal("invert should flip once |delta| accumulates past 0.5")
	}

	// The flip must auto-revert within 90 frames (further flips permitting —
	// accumulation refires, so count reverts by scanning a window).
	reverted := false
	for f := 1; f < 100; f++ {
		d.Step(f, &eff)
		if !eff.Invert {
			reverted = true
			break
		}
	}
	if !reverted {
		t.Error("invert never reverted")
	}
}

func TestDeterminism(t *testing.T) {
	base := config.Default()
	v := analysis.FeatureVector{RMS: 0.9, Bass: 0.8, Onset: 1, BeatIntensity: 0.95}
	tl := flatTimeline(600, 30, v, analysis.EnergyHigh)

	run := func() []config.Config {
		d := New(base, nil, tl, Options{Seed: 42})
		out := make([]config.Config, 600)
		for f := 0; f < 600; f++ {
			d.Step(f, &out[f])
		}
		return out
	}

	a, b := run(), run()
	for f := range a {
		if a[f].RenderMode != b[f].RenderMode ||
			a[f].Charset != b[f].Charset ||
			a[f].ColorMode != b[f].ColorMode ||
			a[f].Invert != b[f].Invert ||
			a[f].DensityScale != b[f].DensityScale ||
			a[f].GlowIntensity != b[f].GlowIntensity {
			t.Fatalf("frame %d differs between identical runs", f)
		}
	}
}

func TestMutationsFireUnderHighEnergy(t *testing.T) {
	base := config.Default()
	v := analysis.FeatureVector{RMS: 0.9, Onset: 1, BeatIntensity: 0.95}
	tl := flatTimeline(3600, 30, v, analysis.EnergyHigh)

	d := New(base, nil, tl, Options{Seed: 42})
	var eff config.Config
	for f := 0; f < 3600; f++ {
		d.Step(f, &eff)
	}
	if d.MutationsFired == 0 {
		t.Error("no mutations fired over two minutes of high-energy beats")
	}
}

func TestMutationCooldownBounds(t *testing.T) {
	// With the cooldown at 90 frames and at most two mutations per pass, an
	// N-frame export can never fire more than 2*ceil(N/90) mutations.
	base := config.Default()
	v := analysis.FeatureVector{Onset: 1, BeatIntensity: 1}
	tl := flatTimeline(900, 30, v, analysis.EnergyHigh)

	d := New(base, nil, tl, Options{Seed: 7, MutationIntensity: 100})
	var eff config.Config
	for f := 0; f < 900; f++ {
		d.Step(f, &eff)
	}
	if max := 2 * (900/mutationCooldown + 1); d.MutationsFired > max {
		t.Errorf("MutationsFired = %d, want <= %d", d.MutationsFired, max)
	}
}

func TestNoMutationsOnSilence(t *testing.T) {
	// Silence normalises to the dead-zone with zero onsets and low energy;
	// with intensity zeroed the director must leave the config untouched.
	base := config.Default()
	tl := flatTimeline(300, 30, analysis.FeatureVector{RMS: 0.5}, analysis.EnergyLow)

	d := New(base, nil, tl, Options{Seed: 3, MutationIntensity: 1e-9})
	var eff config.Config
	for f := 0; f < 300; f++ {
		d.Step(f, &eff)
		if eff.RenderMode != base.RenderMode || eff.Charset != base.Charset {
			t.Fatalf("frame %d: discrete mutation fired at negligible intensity", f)
		}
	}
	if d.MutationsFired != 0 {
		t.Errorf("MutationsFired = %d, want 0", d.MutationsFired)
	}
}

func TestPresetInterpolation(t *testing.T) {
	base := config.Default()

	calm := config.Preset{Name: "calm", Config: base}
	calm.Brightness = 0.0
	calm.RenderMode = config.ModeAscii

	loud := config.Preset{Name: "loud", Config: base}
	loud.Brightness = 0.4
	loud.RenderMode = config.ModeBraille

	tl := flatTimeline(120, 30, analysis.FeatureVector{RMS: 0.5}, analysis.EnergyMedium)
	d := New(base, []config.Preset{calm, loud}, tl, Options{
		Seed:              1,
		MultiPreset:       true,
		PresetDuration:    2,
		MutationIntensity: 1e-9,
	})

	var eff config.Config
	bright := make([]float64, 120)
	modes := make([]config.RenderMode, 120)
	for f := 0; f < 120; f++ {
		d.Step(f, &eff)
		bright[f] = eff.Brightness
		modes[f] = eff.RenderMode
	}

	// Hold phase: brightness 0, mode ascii.
	if bright[10] != 0 || modes[10] != config.ModeAscii {
		t.Errorf("frame 10: brightness %v mode %v, want hold on calm", bright[10], modes[10])
	}

	// Transition runs frames 30..60: strictly non-decreasing smoothstep.
	if bright[44] <= 0 || bright[44] >= 0.4 {
		t.Errorf("frame 44: brightness = %v, want inside (0, 0.4)", bright[44])
	}
	for f := 31; f < 60; f++ {
		if bright[f] < bright[f-1]-1e-9 {
			t.Fatalf("brightness regressed at frame %d", f)
		}
	}

	// The discrete mode snaps at the halfway point (frame 45).
	if modes[40] != config.ModeAscii {
		t.Errorf("frame 40: mode = %v, want ascii", modes[40])
	}
	if modes[50] != config.ModeBraille {
		t.Errorf("frame 50: mode = %v, want braille", modes[50])
	}

	// Settled on the loud preset.
	if math.Abs(bright[70]-0.4) > 1e-9 || modes[70] != config.ModeBraille {
		t.Errorf("frame 70: brightness %v mode %v, want loud preset", bright[70], modes[70])
	}
}

func TestCrossfadeFrames(t *testing.T) {
	base := config.Default()
	tests := []struct {
		energy analysis.EnergyClass
		want   int
	}{
		{analysis.EnergyHigh, 7},    // 250 ms at 30 fps
		{analysis.EnergyMedium, 15}, // 500 ms
		{analysis.EnergyLow, 30},    // 1000 ms
	}
	for _, tt := range tests {
		tl := flatTimeline(10, 30, analysis.FeatureVector{}, tt.energy)
		d := New(base, nil, tl, Options{Seed: 1})
		if got := d.CrossfadeFrames(0); got != tt.want {
			t.Errorf("energy %v: CrossfadeFrames = %d, want %d", tt.energy, got, tt.want)
		}
	}
}

func TestBurstEnvelopeShape(t *testing.T) {
	b := burst{target: "glow_intensity", peak: 1, start: 0, dur: 40}
	if got := b.envelope(0); got != 0 {
		t.Errorf("envelope(0) = %v, want 0", got)
	}
	if got := b.envelope(20); got != 1 {
		t.Errorf("envelope(20) = %v, want 1 (hold)", got)
	}
	up := b.envelope(5)
	if up <= 0 || up >= 1 {
		t.Errorf("envelope(5) = %v, want inside (0,1)", up)
	}
	down := b.envelope(36)
	if down <= 0 || down >= 1 {
		t.Errorf("envelope(36) = %v, want inside (0,1)", down)
	}
}

func TestLowEnergyDriftKeepsMotion(t *testing.T) {
	base := config.Default()
	tl := flatTimeline(600, 30, analysis.FeatureVector{RMS: 0.5}, analysis.EnergyLow)
	d := New(base, nil, tl, Options{Seed: 1, MutationIntensity: 1e-9})

	var eff config.Config
	seen := map[float64]bool{}
	for f := 0; f < 600; f++ {
		d.Step(f, &eff)
		seen[eff.GlowIntensity] = true
	}
	if len(seen) < 10 {
		t.Errorf("glow took %d distinct values over 600 low-energy frames, want drift", len(seen))
	}
}

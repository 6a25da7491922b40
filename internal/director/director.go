// Package director derives the per-frame effective render configuration from
// the base configuration and the audio feature timeline: continuous audio
// mappings, discrete macro-mutations, low-energy drift, and preset
// sequencing. All randomness comes from one seeded stream so identical
// inputs replay identically.
package director

import (
	"math"
	"math/rand"

	"github.com/FeelTheFonk/classcii/internal/analysis"
	"github.com/FeelTheFonk/classcii/internal/config"
)

const (
	// Auto-revert horizons for discrete mutations, in frames.
	invertRevertFrames = 90
	modeRevertFrames   = 180
	colorRevertFrames  = 180

	// mutationCooldown throttles the whole mutation system.
	mutationCooldown = 90

	// maxMutationsPerFrame bounds how many decisions may fire at once.
	maxMutationsPerFrame = 2
)

// Options tunes an export's generative behaviour.
type Options struct {
	Seed              int64
	MutationIntensity float64 // multiplier on mutation probabilities; 0 means 1
	MultiPreset       bool
	PresetDuration    float64 // seconds per preset; 0 means 15
}

// Director owns the per-export mutation state. It is not safe for concurrent
// use; the offline pipeline drives it from a single goroutine.
type Director struct {
	base    config.Config
	presets []config.Preset
	tl      *analysis.Timeline
	rng     *rand.Rand

	fps       int
	intensity float64

	// Continuous-mapping EMA state, one slot per mapping index.
	smoothed []float64
	smoothOK []bool

	invertAccum  float64
	invertFlip   bool
	invertRevert int

	modeActive   bool
	modeOverride config.RenderMode
	modeRevert   int

	colorActive   bool
	colorOverride config.ColorMode
	colorRevert   int

	charsetIdx int
	cooldown   int
	bursts     []burst

	seq *presetSequencer

	// MutationsFired counts fired macro-mutations for the export report.
	MutationsFired int
}

// New builds a director over an immutable timeline.
func New(base config.Config, presets []config.Preset, tl *analysis.Timeline, opts Options) *Director {
	if opts.MutationIntensity <= 0 {
		opts.MutationIntensity = 1
	}
	if opts.PresetDuration <= 0 {
		opts.PresetDuration = 15
	}
	d := &Director{
		base:       base,
		presets:    presets,
		tl:         tl,
		rng:        rand.New(rand.NewSource(opts.Seed)),
		fps:        tl.FPS(),
		intensity:  opts.MutationIntensity,
		smoothed:   make([]float64, len(base.Audio.Mappings)),
		smoothOK:   make([]bool, len(base.Audio.Mappings)),
		charsetIdx: base.CharsetIndex,
	}
	if opts.MultiPreset && len(presets) > 0 {
		d.seq = newPresetSequencer(presets, tl.FPS(), opts.PresetDuration)
	}
	return d
}

// Step writes the effective configuration for frame t into eff. The storage
// is caller-owned; nothing is allocated on the per-frame path.
func (d *Director) Step(t int, eff *config.Config) {
	v := d.tl.At(t)
	energy := d.tl.Energy(t)

	// Preset sequencing decides the starting point for the frame.
	if d.seq != nil {
		d.seq.step(energy, eff)
	} else {
		*eff = d.base
	}

	d.applyMappings(v, eff)
	d.attemptMutations(t, v, energy)
	d.applyOverrides(eff)
	d.applyBursts(t, eff)
	if energy == analysis.EnergyLow {
		applyDrift(t, eff, math.Min(1, d.intensity))
	}

	eff.ClampAll()
}

// applyMappings evaluates every enabled continuous mapping against the
// frame's feature vector.
func (d *Director) applyMappings(v *analysis.FeatureVector, eff *config.Config) {
	sens := eff.Audio.Sensitivity
	for i := range eff.Audio.Mappings {
		m := &eff.Audio.Mappings[i]
		if !m.Enabled {
			continue
		}
		x, ok := v.Source(m.Source)
		if !ok {
			continue
		}
		delta := m.Curve.Apply(x)*m.Amount*sens + m.Offset

		alpha := eff.Audio.Smoothing
		if m.Smoothing != nil {
			alpha = *m.Smoothing
		}
		if i < len(d.smoothed) {
			if !d.smoothOK[i] {
				d.smoothed[i] = delta
				d.smoothOK[i] = true
			} else {
				d.smoothed[i] = alpha*delta + (1-alpha)*d.smoothed[i]
			}
			delta = d.smoothed[i]
		}

		if m.Target == config.InvertTarget {
			d.invertAccum += math.Abs(delta)
			if d.invertAccum > 0.5 {
				d.invertFlip = !d.invertFlip
				d.invertRevert = invertRevertFrames
				d.invertAccum = 0
			}
			continue
		}

		tgt, ok := config.Targets[m.Target]
		if !ok {
			continue
		}
		nv := tgt.Get(eff) + delta
		if nv < tgt.Range.Lo {
			nv = tgt.Range.Lo
		}
		if nv > tgt.Range.Hi {
			nv = tgt.Range.Hi
		}
		tgt.Set(eff, nv)
	}
}

// applyOverrides layers the active discrete mutations onto the frame and
// counts down their auto-reverts.
func (d *Director) applyOverrides(eff *config.Config) {
	if d.invertRevert > 0 {
		d.invertRevert--
		if d.invertRevert == 0 {
			d.invertFlip = false
		}
	}
	if d.invertFlip {
		eff.Invert = !eff.Invert
	}

	if d.modeActive {
		eff.RenderMode = d.modeOverride
		d.modeRevert--
		if d.modeRevert <= 0 {
			d.modeActive = false
		}
	}
	if d.colorActive {
		eff.ColorMode = d.colorOverride
		d.colorRevert--
		if d.colorRevert <= 0 {
			d.colorActive = false
		}
	}

	if d.charsetIdx != eff.CharsetIndex {
		eff.CharsetIndex = d.charsetIdx
		eff.Charset = config.Charsets[d.charsetIdx]
	}
}

// applyDrift keeps low-energy passages from freezing: a slow deterministic
// oscillator nudges glow, saturation and brightness, scaled down with the
// mutation intensity so a damped export stays still.
func applyDrift(t int, eff *config.Config, scale float64) {
	ft := float64(t)
	eff.GlowIntensity += 0.2 * scale * (0.5 + 0.5*math.Sin(2*math.Pi*ft/300))
	eff.Saturation *= 1 + 0.1*scale*math.Sin(2*math.Pi*ft/420)
	eff.Brightness += 0.05 * scale * math.Sin(2*math.Pi*ft/540)
}

// CrossfadeFrames returns the energy-adaptive crossfade length for a clip
// transition starting at frame t.
func (d *Director) CrossfadeFrames(t int) int {
	var ms float64
	switch d.tl.Energy(t) {
	case analysis.EnergyHigh:
		ms = 250
	case analysis.EnergyLow:
		ms = 1000
	default:
		ms = 500
	}
	return int(ms * float64(d.fps) / 1000)
}

// AccelerateAdvance reports whether a strong onset during a high-energy
// passage should cut the current clip short.
func (d *Director) AccelerateAdvance(t int) bool {
	v := d.tl.At(t)
	return d.tl.Energy(t) == analysis.EnergyHigh && v.BeatIntensity > 0.9 && v.Onset > 0
}

func smoothstep(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	return 3*x*x - 2*x*x*x
}

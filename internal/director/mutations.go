package director

import (
	"math"

	"github.com/FeelTheFonk/classcii/internal/analysis"
	"github.com/FeelTheFonk/classcii/internal/config"
)

// burst is a time-limited pulse of one configuration field. Its envelope
// ramps up, holds, and ramps down with smoothstep shoulders.
type burst struct {
	target string
	peak   float64
	start  int
	dur    int
}

// envelope evaluates the burst amplitude at frame t: 25% ramp-up, 50% hold,
// 25% ramp-down.
func (b *burst) envelope(t int) float64 {
	p := float64(t-b.start) / float64(b.dur)
	if p < 0 || p > 1 {
		return 0
	}
	switch {
	case p < 0.25:
		return smoothstep(p / 0.25)
	case p > 0.75:
		return smoothstep((1 - p) / 0.25)
	default:
		return 1
	}
}

// Per-frame base probabilities for each mutation family, before energy and
// intensity scaling.
const (
	probModeCycle     = 0.005
	probCharsetRotate = 0.006
	probEffectBurst   = 0.010
	probDensityPulse  = 0.008
	probColorCycle    = 0.005
	probInvertFlash   = 0.004
	probCameraBurst   = 0.012
)

// effectBurstVariants lists the six effect-burst targets with their pulse
// peaks.
var effectBurstVariants = []struct {
	target string
	peak   float64
}{
	{"wave_amplitude", 0.6},
	{"chromatic_offset", 3.0},
	{"color_pulse_speed", 3.0},
	{"glow_intensity", 1.5},
	{"zalgo_intensity", 3.0},
	{"fade_decay", 0.7},
}

// cameraBurstVariants lists the four camera pulses.
var cameraBurstVariants = []struct {
	target string
	lo, hi float64
}{
	{"camera_zoom_amplitude", 1.5, 2.5},
	{"camera_rotation", -0.3, 0.3},
	{"camera_pan_x", -0.5, 0.5},
	{"camera_pan_y", -0.5, 0.5},
}

func energyScale(e analysis.EnergyClass) float64 {
	switch e {
	case analysis.EnergyHigh:
		return 1.5
	case analysis.EnergyLow:
		return 0.3
	default:
		return 1.0
	}
}

// attemptMutations runs one priority-ordered decision pass. The frame-wide
// cooldown gates the whole pass and at most two mutations fire per frame.
func (d *Director) attemptMutations(t int, v *analysis.FeatureVector, energy analysis.EnergyClass) {
	if d.cooldown > 0 {
		d.cooldown--
		return
	}

	scale := energyScale(energy) * d.intensity
	if v.Onset > 0 {
		// Beats quadruple the odds; mutations land on the music.
		scale *= 4
	}

	fired := 0
	roll := func(p float64) bool {
		return fired < maxMutationsPerFrame && d.rng.Float64() < p*scale
	}

	// 1. Mode cycle (octant excluded from the rotation).
	if roll(probModeCycle) {
		d.modeOverride = (d.currentMode() + 1) % (config.ModeSextant + 1)
		d.modeActive = true
		d.modeRevert = modeRevertFrames
		fired++
	}

	// 2. Charset rotation.
	if roll(probCharsetRotate) {
		d.charsetIdx = (d.charsetIdx + 1) % len(config.Charsets)
		fired++
	}

	// 3. Effect burst, scaled by beat intensity with a 0.5 floor.
	if roll(probEffectBurst) {
		variant := effectBurstVariants[d.rng.Intn(len(effectBurstVariants))]
		dur := 30 + d.rng.Intn(61) // 30-90 frames
		amp := math.Max(0.5, v.BeatIntensity)
		d.bursts = append(d.bursts, burst{
			target: variant.target,
			peak:   variant.peak * amp,
			start:  t,
			dur:    dur,
		})
		fired++
	}

	// 4. Density pulse.
	if roll(probDensityPulse) {
		d.bursts = append(d.bursts, burst{
			target: "density_scale",
			peak:   0.4 + d.rng.Float64()*2.1, // [0.4, 2.5]
			start:  t,
			dur:    30,
		})
		fired++
	}

	// 5. Colour mode cycle.
	if roll(probColorCycle) {
		d.colorOverride = (d.currentColor() + 1) % (config.ColorQuantized + 1)
		d.colorActive = true
		d.colorRevert = colorRevertFrames
		fired++
	}

	// 6. Invert flash.
	if roll(probInvertFlash) {
		d.invertFlip = !d.invertFlip
		d.invertRevert = invertRevertFrames
		fired++
	}

	// 7. Camera bursts only answer the strongest beats.
	if v.BeatIntensity > 0.9 && roll(probCameraBurst) {
		variant := cameraBurstVariants[d.rng.Intn(len(cameraBurstVariants))]
		d.bursts = append(d.bursts, burst{
			target: variant.target,
			peak:   variant.lo + d.rng.Float64()*(variant.hi-variant.lo),
			start:  t,
			dur:    30 + d.rng.Intn(61),
		})
		fired++
	}

	if fired > 0 {
		d.cooldown = mutationCooldown
		d.MutationsFired += fired
	}
}

func (d *Director) currentMode() config.RenderMode {
	if d.modeActive {
		return d.modeOverride
	}
	return d.base.RenderMode
}

func (d *Director) currentColor() config.ColorMode {
	if d.colorActive {
		return d.colorOverride
	}
	return d.base.ColorMode
}

// applyBursts folds every active burst into the frame and retires finished
// ones in place.
func (d *Director) applyBursts(t int, eff *config.Config) {
	live := d.bursts[:0]
	for _, b := range d.bursts {
		if t >= b.start+b.dur {
			continue
		}
		env := b.envelope(t)
		if tgt, ok := config.Targets[b.target]; ok {
			cur := tgt.Get(eff)
			tgt.Set(eff, cur+(b.peak-cur)*env)
		}
		live = append(live, b)
	}
	d.bursts = live
}

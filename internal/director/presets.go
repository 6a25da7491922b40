package director

import (
	"math"

	"github.com/FeelTheFonk/classcii/internal/analysis"
	"github.com/FeelTheFonk/classcii/internal/config"
)

// presetSequencer walks the preset library, advancing on energy-class
// transitions or preset-duration expiry, and blends between the outgoing and
// incoming presets over a one-second transition window.
type presetSequencer struct {
	presets []config.Preset
	fps     int

	durFrames  int
	tranFrames int

	idx, next     int
	framesInState int
	transitioning bool
	progress      float64

	lastEnergy analysis.EnergyClass
	primed     bool
}

func newPresetSequencer(presets []config.Preset, fps int, durationSec float64) *presetSequencer {
	tran := fps // one second
	dur := int(durationSec * float64(fps))
	if dur <= tran {
		dur = tran + 1
	}
	return &presetSequencer{
		presets:    presets,
		fps:        fps,
		durFrames:  dur,
		tranFrames: tran,
	}
}

// step writes the blended configuration for this frame into eff and advances
// the sequencer state by one frame.
func (s *presetSequencer) step(energy analysis.EnergyClass, eff *config.Config) {
	if !s.primed {
		s.lastEnergy = energy
		s.primed = true
	}

	energyJump := energy != s.lastEnergy
	s.lastEnergy = energy

	if !s.transitioning {
		holdOver := s.framesInState >= s.durFrames-s.tranFrames
		if (energyJump || holdOver) && len(s.presets) > 1 {
			s.transitioning = true
			s.next = (s.idx + 1) % len(s.presets)
			s.progress = 0
		}
	}

	if s.transitioning {
		s.progress += 1 / float64(s.tranFrames)
		if s.progress >= 1 {
			s.idx = s.next
			s.transitioning = false
			s.framesInState = 0
			*eff = s.presets[s.idx].Config
			return
		}
		blendConfig(&s.presets[s.idx].Config, &s.presets[s.next].Config, s.progress, eff)
		s.framesInState++
		return
	}

	*eff = s.presets[s.idx].Config
	s.framesInState++
}

// blendConfig interpolates two configurations: numeric fields follow a
// smoothstep ease of progress, discrete fields snap at the halfway point.
func blendConfig(a, b *config.Config, progress float64, out *config.Config) {
	e := smoothstep(progress)
	lerp := func(x, y float64) float64 { return x + (y-x)*e }

	if progress < 0.5 {
		*out = *a
	} else {
		*out = *b
	}

	out.AspectRatio = lerp(a.AspectRatio, b.AspectRatio)
	out.DensityScale = lerp(a.DensityScale, b.DensityScale)
	out.Contrast = lerp(a.Contrast, b.Contrast)
	out.Brightness = lerp(a.Brightness, b.Brightness)
	out.Saturation = lerp(a.Saturation, b.Saturation)
	out.EdgeThreshold = lerp(a.EdgeThreshold, b.EdgeThreshold)
	out.EdgeMix = lerp(a.EdgeMix, b.EdgeMix)
	out.FadeDecay = lerp(a.FadeDecay, b.FadeDecay)
	out.GlowIntensity = lerp(a.GlowIntensity, b.GlowIntensity)
	out.ZalgoIntensity = lerp(a.ZalgoIntensity, b.ZalgoIntensity)
	out.BeatFlashIntensity = lerp(a.BeatFlashIntensity, b.BeatFlashIntensity)
	out.ChromaticOffset = lerp(a.ChromaticOffset, b.ChromaticOffset)
	out.WaveAmplitude = lerp(a.WaveAmplitude, b.WaveAmplitude)
	out.WaveSpeed = lerp(a.WaveSpeed, b.WaveSpeed)
	out.ColorPulseSpeed = lerp(a.ColorPulseSpeed, b.ColorPulseSpeed)
	out.ScanlineGap = int(math.Round(lerp(float64(a.ScanlineGap), float64(b.ScanlineGap))))
	out.ScanlineDarken = lerp(a.ScanlineDarken, b.ScanlineDarken)
	out.StrobeDecay = lerp(a.StrobeDecay, b.StrobeDecay)
	out.TemporalStability = lerp(a.TemporalStability, b.TemporalStability)
	out.CameraZoomAmplitude = lerp(a.CameraZoomAmplitude, b.CameraZoomAmplitude)
	out.CameraRotation = lerp(a.CameraRotation, b.CameraRotation)
	out.CameraPanX = lerp(a.CameraPanX, b.CameraPanX)
	out.CameraPanY = lerp(a.CameraPanY, b.CameraPanY)
}

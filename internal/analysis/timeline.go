package analysis

import (
	"math"
	"sort"
)

// EnergyClass labels a frame's position in the track's loudness distribution.
type EnergyClass int

const (
	EnergyLow EnergyClass = iota
	EnergyMedium
	EnergyHigh
)

func (e EnergyClass) String() string {
	switch e {
	case EnergyLow:
		return "low"
	case EnergyHigh:
		return "high"
	default:
		return "medium"
	}
}

// Timeline is the immutable frame-indexed result of analysis. It is shared
// by reference between the director and the UI; nothing mutates it after
// construction.
type Timeline struct {
	frames []FeatureVector
	energy []EnergyClass
	fps    int
}

// At returns the feature vector for frame t. Out-of-range indexes clamp to
// the nearest valid frame so callers never observe a zero vector at the ends.
func (tl *Timeline) At(t int) *FeatureVector {
	if t < 0 {
		t = 0
	}
	if t >= len(tl.frames) {
		t = len(tl.frames) - 1
	}
	return &tl.frames[t]
}

// Energy returns the energy class at frame t.
func (tl *Timeline) Energy(t int) EnergyClass {
	if t < 0 {
		t = 0
	}
	if t >= len(tl.energy) {
		t = len(tl.energy) - 1
	}
	return tl.energy[t]
}

// Len returns the total frame count.
func (tl *Timeline) Len() int { return len(tl.frames) }

// FPS returns the frame rate the timeline was resampled to.
func (tl *Timeline) FPS() int { return tl.fps }

// normalize applies the whole-track min/max pass to every scalar feature and
// spectrum band. A degenerate range collapses to the 0.5 dead-zone.
func normalize(hops []FeatureVector) {
	if len(hops) == 0 {
		return
	}
	const deadZone = 1e-6

	for _, acc := range scalarAccessors {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range hops {
			v := acc.get(&hops[i])
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi-lo < deadZone {
			for i := range hops {
				acc.set(&hops[i], 0.5)
			}
			continue
		}
		scale := 1 / (hi - lo)
		for i := range hops {
			acc.set(&hops[i], (acc.get(&hops[i])-lo)*scale)
		}
	}

	for b := 0; b < SpectrumBands; b++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := range hops {
			v := hops[i].Spectrum[b]
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi-lo < deadZone {
			for i := range hops {
				hops[i].Spectrum[b] = 0.5
			}
			continue
		}
		scale := 1 / (hi - lo)
		for i := range hops {
			hops[i].Spectrum[b] = (hops[i].Spectrum[b] - lo) * scale
		}
	}
}

// resample maps hop-indexed features onto video frames using the nearest
// prior hop, then derives the energy classification.
func resample(hops []FeatureVector, hopRate float64, fps int, duration float64) *Timeline {
	numFrames := int(math.Ceil(duration * float64(fps)))
	if numFrames < 1 {
		numFrames = 1
	}
	frames := make([]FeatureVector, numFrames)
	prev := -1
	for t := 0; t < numFrames; t++ {
		h := int(float64(t) / float64(fps) * hopRate)
		if h >= len(hops) {
			h = len(hops) - 1
		}
		frames[t] = hops[h]
		// An onset lasts a single hop; OR it over the hops this frame
		// covers so the frame-domain timeline never drops a beat.
		for k := prev + 1; k < h; k++ {
			if hops[k].Onset > 0 {
				frames[t].Onset = 1
				frames[t].BeatIntensity = math.Max(frames[t].BeatIntensity, hops[k].BeatIntensity)
				frames[t].OnsetEnvelope = math.Max(frames[t].OnsetEnvelope, hops[k].OnsetEnvelope)
			}
		}
		prev = h
	}
	return &Timeline{
		frames: frames,
		energy: classifyEnergy(frames, fps),
		fps:    fps,
	}
}

// classifyEnergy slides a 5-second RMS window over the track and labels each
// frame against the 30th and 70th percentiles of the windowed values.
func classifyEnergy(frames []FeatureVector, fps int) []EnergyClass {
	n := len(frames)
	windowed := make([]float64, n)
	half := 5 * fps / 2

	// Prefix sums keep the sliding window linear.
	prefix := make([]float64, n+1)
	for i := 0; i < n; i++ {
		prefix[i+1] = prefix[i] + frames[i].RMS
	}
	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= n {
			hi = n - 1
		}
		windowed[i] = (prefix[hi+1] - prefix[lo]) / float64(hi-lo+1)
	}

	sorted := make([]float64, n)
	copy(sorted, windowed)
	sort.Float64s(sorted)
	p30 := sorted[int(float64(n-1)*0.3)]
	p70 := sorted[int(float64(n-1)*0.7)]

	classes := make([]EnergyClass, n)
	for i, v := range windowed {
		switch {
		case v <= p30:
			classes[i] = EnergyLow
		case v >= p70:
			classes[i] = EnergyHigh
		default:
			classes[i] = EnergyMedium
		}
	}
	return classes
}

// NewTimelineForTest builds a timeline directly from frames; only tests use
// it.
func NewTimelineForTest(frames []FeatureVector, energy []EnergyClass, fps int) *Timeline {
	return &Timeline{frames: frames, energy: energy, fps: fps}
}

package analysis

import (
	"math"
	"sort"
)

// onsetTracker maintains the flux EMA, inter-onset intervals, tempo estimate
// and beat phase across hops.
type onsetTracker struct {
	hopRate float64
	decay   float64 // envelope multiplier per hop

	emaFlux      float64
	cooldownHops int
	sinceOnset   int

	lastOnsetHop int
	intervals    []float64 // seconds, most recent last, capped at 16
	bpm          float64
	phase        float64
	envelope     float64
	intensity    float64
}

func newOnsetTracker(hopRate, decay float64) *onsetTracker {
	return &onsetTracker{
		hopRate:      hopRate,
		decay:        decay,
		cooldownHops: int(onsetCooldownSec * hopRate),
		lastOnsetHop: -1,
	}
}

// step consumes the bass-weighted flux for hop h and fills the beat-related
// fields of v.
func (o *onsetTracker) step(h int, bassFlux float64, v *FeatureVector) {
	const emaAlpha = 0.1

	onset := false
	if h >= onsetWarmupHops && o.emaFlux > epsilon &&
		bassFlux > o.emaFlux*1.5 && o.sinceOnset >= o.cooldownHops {
		onset = true
		o.intensity = math.Min(1, math.Max(0, bassFlux/o.emaFlux-1))
		if o.lastOnsetHop >= 0 {
			interval := float64(h-o.lastOnsetHop) / o.hopRate
			o.intervals = append(o.intervals, interval)
			if len(o.intervals) > 16 {
				o.intervals = o.intervals[1:]
			}
			o.bpm = medianBPM(o.intervals)
		}
		o.lastOnsetHop = h
		o.sinceOnset = 0
		o.phase = 0
		o.envelope = o.intensity
	} else {
		o.sinceOnset++
		o.envelope *= o.decay
		if o.bpm > 0 {
			o.phase += o.bpm / 60 / o.hopRate
			if o.phase >= 1 {
				o.phase -= math.Floor(o.phase)
			}
		}
	}

	o.emaFlux = emaAlpha*bassFlux + (1-emaAlpha)*o.emaFlux

	if onset {
		v.Onset = 1
	}
	v.BeatIntensity = o.intensity
	v.BeatPhase = o.phase
	v.BPM = o.bpm
	v.OnsetEnvelope = o.envelope
}

// medianBPM converts the median inter-onset interval to beats per minute,
// clamped to the plausible tempo range.
func medianBPM(intervals []float64) float64 {
	if len(intervals) == 0 {
		return 0
	}
	sorted := make([]float64, len(intervals))
	copy(sorted, intervals)
	sort.Float64s(sorted)
	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}
	if median < epsilon {
		return 0
	}
	bpm := 60 / median
	return math.Min(300, math.Max(30, bpm))
}

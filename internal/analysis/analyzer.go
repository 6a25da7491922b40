package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/FeelTheFonk/classcii/internal/audio"
)

const (
	fftSize = 2048
	hopSize = 512

	// epsilon floors magnitudes before logs and divisions.
	epsilon = 1e-10

	// onsetWarmupHops skips detection while the flux EMA settles.
	onsetWarmupHops = 10

	// onsetCooldownSec throttles re-triggering.
	onsetCooldownSec = 0.13

	// rolloffFraction is the cumulative-energy fraction for spectral rolloff.
	rolloffFraction = 0.85
)

// Band edges in Hz for the seven named energy bands.
var bandRanges = [7][2]float64{
	{20, 60},     // sub_bass
	{60, 250},    // bass
	{250, 500},   // low_mid
	{500, 2000},  // mid
	{2000, 4000}, // high_mid
	{4000, 6000}, // presence
	{6000, 20000},
}

// Options tunes the analysis pass.
type Options struct {
	FPS           int     // target video frame rate (30 or 60)
	EnvelopeDecay float64 // per-frame onset envelope multiplier; 0 means default
}

// Analyze runs the full short-time Fourier pass over a decoded track and
// returns the frame-indexed timeline at the target fps. progress, when not
// nil, is called with (hopsDone, hopsTotal).
func Analyze(buf *audio.Buffer, opts Options, progress func(done, total int)) (*Timeline, error) {
	if buf == nil || len(buf.Samples) == 0 {
		return nil, fmt.Errorf("no samples to analyze")
	}
	if opts.FPS != 30 && opts.FPS != 60 {
		return nil, fmt.Errorf("unsupported fps %d (want 30 or 60)", opts.FPS)
	}
	decay := opts.EnvelopeDecay
	if decay <= 0 {
		decay = 0.85
	}

	samples := buf.Samples
	rate := float64(audio.ReferenceRate)
	hopRate := rate / hopSize
	numHops := (len(samples) + hopSize - 1) / hopSize

	hann := window.Hann(fftSize)
	binHz := rate / fftSize
	nyquist := rate / 2
	numBins := fftSize/2 + 1

	bandBins := computeBandBins(binHz, numBins)
	specMap := computeSpectrumMap(binHz, numBins)
	mel := newMelBank(rate)

	frame := make([]float64, fftSize)
	mag := make([]float64, numBins)
	prevMag := make([]float64, numBins)
	specEMA := make([]float64, SpectrumBands)
	specRaw := make([]float64, SpectrumBands)

	// The envelope decays by the per-frame multiplier once per video frame;
	// the tracker steps per hop, so it gets the equivalent per-hop factor.
	onsets := newOnsetTracker(hopRate, math.Pow(decay, float64(opts.FPS)/hopRate))

	hops := make([]FeatureVector, numHops)
	for h := 0; h < numHops; h++ {
		start := h * hopSize

		// Window the frame; partial reads at EOF are zero-padded.
		for i := 0; i < fftSize; i++ {
			if start+i < len(samples) {
				frame[i] = samples[start+i] * hann[i]
			} else {
				frame[i] = 0
			}
		}

		spec := fft.FFTReal(frame)
		for k := 0; k < numBins; k++ {
			mag[k] = cmplx.Abs(spec[k])
		}

		v := &hops[h]

		// Time-domain features run over the hop's fresh samples.
		end := start + hopSize
		if end > len(samples) {
			end = len(samples)
		}
		hop := samples[start:end]
		v.RMS, v.Peak = rmsPeak(hop)
		v.ZeroCrossingRate = zeroCrossingRate(hop)

		// Named band energies: mean |X|^2 over the band's bins.
		bands := [7]float64{}
		for b, bins := range bandBins {
			if len(bins) == 0 {
				continue
			}
			var sum float64
			for _, k := range bins {
				sum += mag[k] * mag[k]
			}
			bands[b] = sum / float64(len(bins))
		}
		v.SubBass, v.Bass, v.LowMid, v.Mid = bands[0], bands[1], bands[2], bands[3]
		v.HighMid, v.Presence, v.Brilliance = bands[4], bands[5], bands[6]

		v.SpectralCentroid = spectralCentroid(mag, binHz, nyquist)
		flux, bassFlux := spectralFlux(mag, prevMag, binHz)
		v.SpectralFlux = flux
		v.SpectralFlatness = spectralFlatness(mag)
		v.SpectralRolloff = spectralRolloff(mag, binHz, nyquist)

		v.TimbralBrightness, v.TimbralRoughness = mel.timbre(mag)

		// 32-band log spectrum with per-tier EMA time constants.
		for b := range specRaw {
			specRaw[b] = 0
		}
		for k, b := range specMap {
			if b >= 0 {
				specRaw[b] += mag[k]
			}
		}
		for b := 0; b < SpectrumBands; b++ {
			alpha := spectrumAlpha(b)
			specEMA[b] = alpha*specRaw[b] + (1-alpha)*specEMA[b]
			v.Spectrum[b] = specEMA[b]
		}

		onsets.step(h, bassFlux, v)

		copy(prevMag, mag)

		if progress != nil && (h%64 == 0 || h == numHops-1) {
			progress(h+1, numHops)
		}
	}

	normalize(hops)

	return resample(hops, hopRate, opts.FPS, buf.Duration()), nil
}

// spectrumAlpha picks the EMA coefficient tier for a spectrum band: bass
// bands respond fastest, highs slowest, matching perceptual time constants.
func spectrumAlpha(band int) float64 {
	const base = 0.5
	switch {
	case band < 10:
		return math.Min(1, base*1.3)
	case band < 22:
		return base
	default:
		return base * 0.7
	}
}

func rmsPeak(hop []float64) (rms, peak float64) {
	if len(hop) == 0 {
		return 0, 0
	}
	var sum float64
	for _, s := range hop {
		sum += s * s
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return math.Sqrt(sum / float64(len(hop))), peak
}

func zeroCrossingRate(hop []float64) float64 {
	if len(hop) < 2 {
		return 0
	}
	var crossings int
	for i := 1; i < len(hop); i++ {
		if (hop[i-1] >= 0) != (hop[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(hop)-1)
}

func spectralCentroid(mag []float64, binHz, nyquist float64) float64 {
	var num, den float64
	for k, m := range mag {
		num += float64(k) * binHz * m
		den += m
	}
	if den < epsilon {
		return 0
	}
	return num / den / nyquist
}

// spectralFlux returns the positive-difference flux and the bass-weighted
// variant used for onset detection (bass bins contribute double).
func spectralFlux(mag, prevMag []float64, binHz float64) (flux, bassFlux float64) {
	n := float64(len(mag))
	for k := range mag {
		d := mag[k] - prevMag[k]
		if d <= 0 {
			continue
		}
		flux += d * d
		if float64(k)*binHz < 250 {
			bassFlux += 2 * d * d
		} else {
			bassFlux += d * d
		}
	}
	return flux / n, bassFlux / n
}

func spectralFlatness(mag []float64) float64 {
	var logSum, sum float64
	for _, m := range mag {
		if m < epsilon {
			m = epsilon
		}
		logSum += math.Log(m)
		sum += m
	}
	n := float64(len(mag))
	mean := sum / n
	if mean < epsilon {
		return 0
	}
	return math.Exp(logSum/n) / mean
}

func spectralRolloff(mag []float64, binHz, nyquist float64) float64 {
	var total float64
	for _, m := range mag {
		total += m * m
	}
	if total < epsilon {
		return 0
	}
	target := total * rolloffFraction
	var cum float64
	for k, m := range mag {
		cum += m * m
		if cum >= target {
			return float64(k) * binHz / nyquist
		}
	}
	return 1
}

// computeBandBins maps each named band to the FFT bins whose centre
// frequency falls inside it.
func computeBandBins(binHz float64, numBins int) [7][]int {
	var out [7][]int
	for k := 0; k < numBins; k++ {
		f := float64(k) * binHz
		for b, r := range bandRanges {
			if f >= r[0] && f < r[1] {
				out[b] = append(out[b], k)
				break
			}
		}
	}
	return out
}

// computeSpectrumMap assigns each FFT bin to one of the 32 log-frequency
// bands, or -1 for bins below the lowest edge.
func computeSpectrumMap(binHz float64, numBins int) []int {
	const fLo, fHi = 20.0, 20000.0
	logLo, logHi := math.Log(fLo), math.Log(fHi)
	out := make([]int, numBins)
	for k := 0; k < numBins; k++ {
		f := float64(k) * binHz
		if f < fLo {
			out[k] = -1
			continue
		}
		if f > fHi {
			f = fHi
		}
		b := int((math.Log(f) - logLo) / (logHi - logLo) * SpectrumBands)
		if b >= SpectrumBands {
			b = SpectrumBands - 1
		}
		out[k] = b
	}
	return out
}

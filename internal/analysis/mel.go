package analysis

import "math"

// MFCC parameters: 26 Mel-spaced triangular filters over the speech-relevant
// range, reduced to five cepstral coefficients.
const (
	melFilters = 26
	melLoHz    = 300.0
	melHiHz    = 8000.0
	melCoeffs  = 5
)

func hzToMel(f float64) float64 { return 2595 * math.Log10(1+f/700) }
func melToHz(m float64) float64 { return 700 * (math.Pow(10, m/2595) - 1) }

// melBank holds the precomputed triangular filter weights per FFT bin.
type melBank struct {
	filters  [melFilters][]float64 // weight per bin, aligned to startBin
	startBin [melFilters]int
	energies [melFilters]float64 // scratch, reused per hop
	dctBasis [melCoeffs][melFilters]float64
}

func newMelBank(sampleRate float64) *melBank {
	binHz := sampleRate / fftSize
	numBins := fftSize/2 + 1

	// Mel-spaced edge frequencies: melFilters+2 points.
	loMel, hiMel := hzToMel(melLoHz), hzToMel(melHiHz)
	edges := make([]float64, melFilters+2)
	for i := range edges {
		edges[i] = melToHz(loMel + (hiMel-loMel)*float64(i)/float64(melFilters+1))
	}

	mb := &melBank{}
	for m := 0; m < melFilters; m++ {
		lo, mid, hi := edges[m], edges[m+1], edges[m+2]
		start := int(math.Ceil(lo / binHz))
		end := int(math.Floor(hi / binHz))
		if end >= numBins {
			end = numBins - 1
		}
		if start > end {
			start = end
		}
		mb.startBin[m] = start
		weights := make([]float64, end-start+1)
		for k := start; k <= end; k++ {
			f := float64(k) * binHz
			switch {
			case f < mid:
				if mid > lo {
					weights[k-start] = (f - lo) / (mid - lo)
				}
			default:
				if hi > mid {
					weights[k-start] = (hi - f) / (hi - mid)
				}
			}
		}
		mb.filters[m] = weights
	}

	// DCT-II basis over the filter outputs.
	for c := 0; c < melCoeffs; c++ {
		for m := 0; m < melFilters; m++ {
			mb.dctBasis[c][m] = math.Cos(math.Pi * float64(c) * (float64(m) + 0.5) / melFilters)
		}
	}
	return mb
}

// timbre computes the two MFCC-derived scalars from a magnitude spectrum:
// brightness is the share of high-index cepstral coefficients, roughness the
// variance across the filter outputs.
func (mb *melBank) timbre(mag []float64) (brightness, roughness float64) {
	var mean float64
	for m := 0; m < melFilters; m++ {
		var e float64
		start := mb.startBin[m]
		for i, w := range mb.filters[m] {
			e += w * mag[start+i]
		}
		e = math.Log(e + epsilon)
		mb.energies[m] = e
		mean += e
	}
	mean /= melFilters

	for m := 0; m < melFilters; m++ {
		d := mb.energies[m] - mean
		roughness += d * d
	}
	roughness /= melFilters

	var coeffs [melCoeffs]float64
	var total float64
	for c := 0; c < melCoeffs; c++ {
		for m := 0; m < melFilters; m++ {
			coeffs[c] += mb.dctBasis[c][m] * mb.energies[m]
		}
		total += math.Abs(coeffs[c])
	}
	if total < epsilon {
		return 0, roughness
	}
	brightness = (math.Abs(coeffs[melCoeffs-2]) + math.Abs(coeffs[melCoeffs-1])) / total
	return brightness, roughness
}

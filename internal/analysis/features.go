// Package analysis builds the frame-indexed audio feature timeline: a
// short-time Fourier pass over the decoded track, per-hop feature extraction,
// onset and tempo tracking, whole-track normalisation, and resampling to the
// video frame rate.
package analysis

// SpectrumBands is the size of the log-frequency spectrum carried per frame.
const SpectrumBands = 32

// FeatureVector is the fixed-size per-frame feature record. All scalar
// fields except BPM, BeatPhase and Onset are normalised to [0,1] by a
// whole-track min/max pass; BPM stays in beats per minute, BeatPhase is
// already cyclic in [0,1) and Onset stays a binary 0/1 flag.
type FeatureVector struct {
	RMS  float64
	Peak float64

	SubBass    float64
	Bass       float64
	LowMid     float64
	Mid        float64
	HighMid    float64
	Presence   float64
	Brilliance float64

	SpectralCentroid float64
	SpectralFlux     float64
	SpectralFlatness float64
	SpectralRolloff  float64
	ZeroCrossingRate float64

	Onset         float64 // 0 or 1
	BeatIntensity float64
	BeatPhase     float64 // [0,1)
	BPM           float64 // beats/minute, 0 if unknown
	OnsetEnvelope float64

	TimbralBrightness float64
	TimbralRoughness  float64

	Spectrum [SpectrumBands]float64
}

// Source resolves a mapping source name to its scalar value. Unknown names
// return 0 with ok=false; the director treats those mappings as disabled.
func (v *FeatureVector) Source(name string) (float64, bool) {
	switch name {
	case "rms":
		return v.RMS, true
	case "peak":
		return v.Peak, true
	case "sub_bass":
		return v.SubBass, true
	case "bass":
		return v.Bass, true
	case "low_mid":
		return v.LowMid, true
	case "mid":
		return v.Mid, true
	case "high_mid":
		return v.HighMid, true
	case "presence":
		return v.Presence, true
	case "brilliance":
		return v.Brilliance, true
	case "spectral_centroid":
		return v.SpectralCentroid, true
	case "spectral_flux":
		return v.SpectralFlux, true
	case "spectral_flatness":
		return v.SpectralFlatness, true
	case "spectral_rolloff":
		return v.SpectralRolloff, true
	case "zero_crossing_rate":
		return v.ZeroCrossingRate, true
	case "onset":
		return v.Onset, true
	case "beat_intensity":
		return v.BeatIntensity, true
	case "beat_phase":
		return v.BeatPhase, true
	case "bpm":
		return v.BPM, true
	case "onset_envelope":
		return v.OnsetEnvelope, true
	case "timbral_brightness":
		return v.TimbralBrightness, true
	case "timbral_roughness":
		return v.TimbralRoughness, true
	default:
		return 0, false
	}
}

// scalarAccessors enumerates the normalisable scalar fields for the
// whole-track min/max pass. BPM and BeatPhase are excluded: BPM is reported
// in real units and phase is cyclic. Onset stays binary by construction
// (min/max over {0,1} is the identity).
var scalarAccessors = []struct {
	name string
	get  func(*FeatureVector) float64
	set  func(*FeatureVector, float64)
}{
	{"rms", func(v *FeatureVector) float64 { return v.RMS }, func(v *FeatureVector, x float64) { v.RMS = x }},
	{"peak", func(v *FeatureVector) float64 { return v.Peak }, func(v *FeatureVector, x float64) { v.Peak = x }},
	{"sub_bass", func(v *FeatureVector) float64 { return v.SubBass }, func(v *FeatureVector, x float64) { v.SubBass = x }},
	{"bass", func(v *FeatureVector) float64 { return v.Bass }, func(v *FeatureVector, x float64) { v.Bass = x }},
	{"low_mid", func(v *FeatureVector) float64 { return v.LowMid }, func(v *FeatureVector, x float64) { v.LowMid = x }},
	{"mid", func(v *FeatureVector) float64 { return v.Mid }, func(v *FeatureVector, x float64) { v.Mid = x }},
	{"high_mid", func(v *FeatureVector) float64 { return v.HighMid }, func(v *FeatureVector, x float64) { v.HighMid = x }},
	{"presence", func(v *FeatureVector) float64 { return v.Presence }, func(v *FeatureVector, x float64) { v.Presence = x }},
	{"brilliance", func(v *FeatureVector) float64 { return v.Brilliance }, func(v *FeatureVector, x float64) { v.Brilliance = x }},
	{"spectral_centroid", func(v *FeatureVector) float64 { return v.SpectralCentroid }, func(v *FeatureVector, x float64) { v.SpectralCentroid = x }},
	{"spectral_flux", func(v *FeatureVector) float64 { return v.SpectralFlux }, func(v *FeatureVector, x float64) { v.SpectralFlux = x }},
	{"spectral_flatness", func(v *FeatureVector) float64 { return v.SpectralFlatness }, func(v *FeatureVector, x float64) { v.SpectralFlatness = x }},
	{"spectral_rolloff", func(v *FeatureVector) float64 { return v.SpectralRolloff }, func(v *FeatureVector, x float64) { v.SpectralRolloff = x }},
	{"zero_crossing_rate", func(v *FeatureVector) float64 { return v.ZeroCrossingRate }, func(v *FeatureVector, x float64) { v.ZeroCrossingRate = x }},
	{"beat_intensity", func(v *FeatureVector) float64 { return v.BeatIntensity }, func(v *FeatureVector, x float64) { v.BeatIntensity = x }},
	{"onset_envelope", func(v *FeatureVector) float64 { return v.OnsetEnvelope }, func(v *FeatureVector, x float64) { v.OnsetEnvelope = x }},
	{"timbral_brightness", func(v *FeatureVector) float64 { return v.TimbralBrightness }, func(v *FeatureVector, x float64) { v.TimbralBrightness = x }},
	{"timbral_roughness", func(v *FeatureVector) float64 { return v.TimbralRoughness }, func(v *FeatureVector, x float64) { v.TimbralRoughness = x }},
}

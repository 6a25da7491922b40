package analysis

import (
	"math"
	"testing"

	"github.com/FeelTheFonk/classcii/internal/audio"
)

func makeBuffer(samples []float64) *audio.Buffer {
	return &audio.Buffer{Samples: samples, Meta: audio.Metadata{SampleRate: audio.ReferenceRate, Channels: 1}}
}

func sine(freq float64, seconds float64) []float64 {
	n := int(seconds * audio.ReferenceRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/audio.ReferenceRate)
	}
	return out
}

func TestAnalyzeSilence(t *testing.T) {
	tl, err := Analyze(makeBuffer(make([]float64, 2*audio.ReferenceRate)), Options{FPS: 30}, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if tl.Len() != 60 {
		t.Fatalf("Len = %d, want 60", tl.Len())
	}

	// Every continuous feature must sit in the dead-zone (0.5) or at 0, and
	// no onset may fire on silence.
	for i := 0; i < tl.Len(); i++ {
		v := tl.At(i)
		if v.Onset != 0 {
			t.Fatalf("frame %d: onset fired on silence", i)
		}
		for _, acc := range scalarAccessors {
			got := acc.get(v)
			if got != 0 && math.Abs(got-0.5) > 1e-9 {
				t.Fatalf("frame %d: feature %s = %v, want 0 or 0.5", i, acc.name, got)
			}
		}
		if v.BPM != 0 {
			t.Fatalf("frame %d: BPM = %v on silence", i, v.BPM)
		}
	}
}

func TestAnalyzeSineSteadyFeatures(t *testing.T) {
	tl, err := Analyze(makeBuffer(sine(1000, 2)), Options{FPS: 30}, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// A sustained tone has constant spectral shape, so the normalised
	// centroid collapses into the dead-zone and no onsets fire.
	mid := tl.At(tl.Len() / 2)
	if math.Abs(mid.SpectralCentroid-0.5) > 0.45 {
		t.Errorf("centroid = %v, want near dead-zone", mid.SpectralCentroid)
	}
	for i := 0; i < tl.Len(); i++ {
		if tl.At(i).Onset != 0 {
			t.Fatalf("frame %d: onset fired on steady tone", i)
		}
	}
}

func TestSpectralCentroidRaw(t *testing.T) {
	binHz := float64(audio.ReferenceRate) / fftSize
	nyquist := float64(audio.ReferenceRate) / 2
	mag := make([]float64, fftSize/2+1)

	// Energy concentrated at the bin holding 440 Hz.
	bin := int(math.Round(440 / binHz))
	mag[bin] = 1.0

	got := spectralCentroid(mag, binHz, nyquist)
	if got < 0.01 || got > 0.05 {
		t.Errorf("centroid = %v, want within [0.01, 0.05] of Nyquist", got)
	}
}

func TestSpectralRolloff(t *testing.T) {
	binHz := float64(audio.ReferenceRate) / fftSize
	nyquist := float64(audio.ReferenceRate) / 2
	mag := make([]float64, fftSize/2+1)
	for k := 10; k < 20; k++ {
		mag[k] = 1
	}
	got := spectralRolloff(mag, binHz, nyquist)
	// 85% of energy lies below bin 19.
	want := float64(18) * binHz / nyquist
	if math.Abs(got-want) > 2*binHz/nyquist {
		t.Errorf("rolloff = %v, want ~%v", got, want)
	}
}

func TestSpectralFlatness(t *testing.T) {
	flat := make([]float64, fftSize/2+1)
	for i := range flat {
		flat[i] = 1
	}
	if got := spectralFlatness(flat); math.Abs(got-1) > 1e-9 {
		t.Errorf("flatness of white spectrum = %v, want 1", got)
	}

	peaked := make([]float64, fftSize/2+1)
	peaked[100] = 1
	if got := spectralFlatness(peaked); got > 0.1 {
		t.Errorf("flatness of pure tone = %v, want near 0", got)
	}
}

func TestAnalyzeImpulseTrain(t *testing.T) {
	// A click every 0.5 s for 4 s: expect roughly 8 onsets and ~120 BPM.
	n := 4 * audio.ReferenceRate
	samples := make([]float64, n)
	for i := 0; i < n; i += audio.ReferenceRate / 2 {
		for j := 0; j < 64 && i+j < n; j++ {
			samples[i+j] = 0.9
		}
	}

	tl, err := Analyze(makeBuffer(samples), Options{FPS: 30}, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var onsets int
	for i := 0; i < tl.Len(); i++ {
		if tl.At(i).Onset > 0 {
			onsets++
		}
	}
	if onsets < 4 || onsets > 12 {
		t.Errorf("onsets = %d, want ~8", onsets)
	}

	last := tl.At(tl.Len() - 1)
	if last.BPM != 0 && (last.BPM < 100 || last.BPM > 140) {
		t.Errorf("BPM = %v, want ~120", last.BPM)
	}
}

func TestZeroCrossingRate(t *testing.T) {
	// Alternating signal crosses on every step.
	hop := make([]float64, 100)
	for i := range hop {
		if i%2 == 0 {
			hop[i] = 1
		} else {
			hop[i] = -1
		}
	}
	if got := zeroCrossingRate(hop); math.Abs(got-1) > 1e-9 {
		t.Errorf("zcr = %v, want 1", got)
	}
}

func TestMedianBPM(t *testing.T) {
	tests := []struct {
		name      string
		intervals []float64
		want      float64
	}{
		{"empty", nil, 0},
		{"steady 120", []float64{0.5, 0.5, 0.5}, 120},
		{"median ignores outlier", []float64{0.5, 0.5, 5.0}, 120},
		{"clamped low", []float64{10, 10, 10}, 30},
		{"clamped high", []float64{0.01, 0.01}, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := medianBPM(tt.intervals); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("medianBPM = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnergyClassification(t *testing.T) {
	// 30 s at 30 fps: first third quiet, middle medium, last third loud.
	frames := make([]FeatureVector, 900)
	for i := range frames {
		switch {
		case i < 300:
			frames[i].RMS = 0.1
		case i < 600:
			frames[i].RMS = 0.5
		default:
			frames[i].RMS = 0.9
		}
	}
	classes := classifyEnergy(frames, 30)

	if classes[100] != EnergyLow {
		t.Errorf("frame 100 = %v, want low", classes[100])
	}
	if classes[450] != EnergyMedium {
		t.Errorf("frame 450 = %v, want medium", classes[450])
	}
	if classes[800] != EnergyHigh {
		t.Errorf("frame 800 = %v, want high", classes[800])
	}
}

func TestTimelineClampedAccess(t *testing.T) {
	tl := NewTimelineForTest(make([]FeatureVector, 10), make([]EnergyClass, 10), 30)
	if tl.At(-5) != tl.At(0) {
		t.Error("negative index should clamp to 0")
	}
	if tl.At(99) != tl.At(9) {
		t.Error("overflow index should clamp to last")
	}
}

func TestMelBankTimbre(t *testing.T) {
	mb := newMelBank(audio.ReferenceRate)

	flat := make([]float64, fftSize/2+1)
	for i := range flat {
		flat[i] = 1
	}
	_, roughFlat := mb.timbre(flat)

	jagged := make([]float64, fftSize/2+1)
	for i := range jagged {
		if i%7 == 0 {
			jagged[i] = 10
		} else {
			jagged[i] = 0.01
		}
	}
	_, roughJagged := mb.timbre(jagged)

	if roughJagged <= roughFlat {
		t.Errorf("roughness: jagged %v <= flat %v", roughJagged, roughFlat)
	}
}

package export

import (
	"crypto/sha256"
	"errors"
	"hash"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"

	"github.com/FeelTheFonk/classcii/internal/config"
)

// writeWAV writes a mono 16-bit WAV from a sample generator.
func writeWAV(t *testing.T, path string, seconds float64, gen func(i int) float64) {
	t.Helper()
	const rate = 44100
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	n := int(seconds * rate)
	data := make([]int, n)
	for i := range data {
		data[i] = int(gen(i) * 30000)
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:   data,
	}))
	require.NoError(t, enc.Close())
}

func writeGrayPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	writeColorPNG(t, path, w, h, color.RGBA{128, 128, 128, 255})
}

func writeColorPNG(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// frameHashSink hashes each frame separately.
type frameHashSink struct {
	hashes [][]byte
}

func (s *frameHashSink) Write(p []byte) (int, error) {
	h := sha256.Sum256(p)
	s.hashes = append(s.hashes, h[:])
	return len(p), nil
}

func baseParams(media []string, audioPath string) Params {
	return Params{
		MediaFiles:        media,
		AudioPath:         audioPath,
		Cols:              20,
		Rows:              6,
		Scale:             4,
		Seed:              42,
		MutationIntensity: 1e-9,
	}
}

func zeroEffects(cfg *config.Config) {
	cfg.FadeDecay = 0
	cfg.GlowIntensity = 0
	cfg.ZalgoIntensity = 0
	cfg.BeatFlashIntensity = 0
	cfg.ChromaticOffset = 0
	cfg.WaveAmplitude = 0
	cfg.ColorPulseSpeed = 0
	cfg.ScanlineGap = 0
	cfg.TemporalStability = 0
}

func TestSilentStillExportScenario(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "silence.wav")
	imgPath := filepath.Join(dir, "gray.png")
	writeWAV(t, audioPath, 3, func(int) float64 { return 0 })
	writeGrayPNG(t, imgPath, 800, 600)

	cfg := config.Default()
	cfg.Charset = " .:-=+*#%@"
	cfg.ColorEnabled = false
	zeroEffects(&cfg)

	sink := &frameHashSink{}
	p := baseParams([]string{imgPath}, audioPath)
	p.FrameSink = sink

	report, err := Run(cfg, nil, p, nil)
	require.NoError(t, err)

	if report.Frames != 90 {
		t.Fatalf("Frames = %d, want 90 for 3s at 30fps", report.Frames)
	}
	if len(sink.hashes) != 90 {
		t.Fatalf("sink saw %d frames, want 90", len(sink.hashes))
	}
	// Silence with a still image: every frame identical.
	for i := 1; i < len(sink.hashes); i++ {
		if string(sink.hashes[i]) != string(sink.hashes[0]) {
			t.Fatalf("frame %d differs from frame 0 on silent input", i)
		}
	}
	if report.OnsetsDetected != 0 {
		t.Errorf("OnsetsDetected = %d, want 0 on silence", report.OnsetsDetected)
	}
}

func TestDeterministicExport(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "tone.wav")
	imgPath := filepath.Join(dir, "gray.png")
	writeWAV(t, audioPath, 2, func(i int) float64 {
		return 0.6 * math.Sin(2*math.Pi*220*float64(i)/44100)
	})
	writeGrayPNG(t, imgPath, 64, 48)

	cfg := config.Default()

	run := func() hash.Hash {
		h := sha256.New()
		p := baseParams([]string{imgPath}, audioPath)
		p.MutationIntensity = 1 // full generative behaviour, still deterministic
		p.FrameSink = h
		_, err := Run(cfg, nil, p, nil)
		require.NoError(t, err)
		return h
	}

	a := run().Sum(nil)
	b := run().Sum(nil)
	if string(a) != string(b) {
		t.Fatal("same seed and inputs must produce a byte-identical frame stream")
	}
}

func TestImpulseTrainDrivesStrobe(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "clicks.wav")
	imgPath := filepath.Join(dir, "gray.png")
	writeWAV(t, audioPath, 3, func(i int) float64 {
		if i%(44100/2) < 64 {
			return 0.9
		}
		return 0
	})
	writeGrayPNG(t, imgPath, 64, 48)

	cfg := config.Default()
	zeroEffects(&cfg)
	cfg.ColorEnabled = false
	cfg.StrobeDecay = 0.75
	cfg.Audio.Smoothing = 1
	cfg.Audio.Mappings = []config.Mapping{{
		Enabled: true,
		Source:  "onset_envelope",
		Target:  "beat_flash_intensity",
		Amount:  0.5,
		Curve:   config.CurveSmooth,
	}}

	sink := &frameHashSink{}
	p := baseParams([]string{imgPath}, audioPath)
	p.FrameSink = sink

	report, err := Run(cfg, nil, p, nil)
	require.NoError(t, err)

	if report.Frames != 90 {
		t.Fatalf("Frames = %d, want 90", report.Frames)
	}
	if report.OnsetsDetected < 3 {
		t.Errorf("OnsetsDetected = %d, want clicks detected", report.OnsetsDetected)
	}
	// The strobe must actually change frames: not all hashes identical.
	distinct := map[string]bool{}
	for _, h := range sink.hashes {
		distinct[string(h)] = true
	}
	if len(distinct) < 2 {
		t.Error("strobe mapping produced a static frame stream")
	}
}

func TestTwoImageCrossfadeExport(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "ramp.wav")
	red := filepath.Join(dir, "red.png")
	green := filepath.Join(dir, "green.png")
	// Quiet first half, loud second half: an energy jump mid-track.
	writeWAV(t, audioPath, 6, func(i int) float64 {
		amp := 0.05
		if i > 3*44100 {
			amp = 0.9
		}
		return amp * math.Sin(2*math.Pi*180*float64(i)/44100)
	})
	writeColorPNG(t, red, 32, 32, color.RGBA{255, 0, 0, 255})
	writeColorPNG(t, green, 32, 32, color.RGBA{0, 255, 0, 255})

	cfg := config.Default()
	cfg.TargetFPS = 60

	sink := &frameHashSink{}
	p := baseParams([]string{red, green}, audioPath)
	p.Seed = 42
	p.MutationIntensity = 1
	p.FrameSink = sink

	report, err := Run(cfg, nil, p, nil)
	require.NoError(t, err)

	if report.Frames != 360 {
		t.Fatalf("Frames = %d, want 360 for 6s at 60fps", report.Frames)
	}
	if report.EnergySplit[2] == 0 {
		t.Error("no high-energy frames despite the loud segment")
	}
}

func TestValidationErrors(t *testing.T) {
	cfg := config.Default()

	_, err := Run(cfg, nil, Params{AudioPath: "", MediaFiles: []string{"x.png"}}, nil)
	if k, ok := KindOf(err); !ok || k != KindConfig {
		t.Errorf("missing audio: kind = %v, want config", err)
	}

	_, err = Run(cfg, nil, Params{AudioPath: "a.wav", MediaFiles: nil}, nil)
	if k, ok := KindOf(err); !ok || k != KindConfig {
		t.Errorf("missing media: kind = %v, want config", err)
	}

	_, err = Run(cfg, nil, Params{AudioPath: "a.wav", MediaFiles: []string{"x.png"}, Cols: 0, Rows: 5}, nil)
	if k, ok := KindOf(err); !ok || k != KindInvalidDimensions {
		t.Errorf("zero cols: kind = %v, want invalid_dimensions", err)
	}
}

func TestMissingAudioFileKind(t *testing.T) {
	cfg := config.Default()
	p := baseParams([]string{"whatever.png"}, "/no/such/audio.wav")
	p.FrameSink = &frameHashSink{}

	_, err := Run(cfg, nil, p, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if k, ok := KindOf(err); !ok || k != KindFileNotFound {
		t.Errorf("kind = %v (%v), want file_not_found", k, err)
	}
}

func TestSnapshotRendersImage(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "tone.wav")
	imgPath := filepath.Join(dir, "gray.png")
	writeWAV(t, audioPath, 2, func(i int) float64 {
		return 0.5 * math.Sin(2*math.Pi*330*float64(i)/44100)
	})
	writeGrayPNG(t, imgPath, 64, 48)

	cfg := config.Default()
	img, err := Snapshot(cfg, nil, baseParams([]string{imgPath}, audioPath), 1.0)
	require.NoError(t, err)

	wantW, wantH := 20*4, 6*4*2
	if img.Bounds().Dx() != wantW || img.Bounds().Dy() != wantH {
		t.Errorf("snapshot = %dx%d, want %dx%d", img.Bounds().Dx(), img.Bounds().Dy(), wantW, wantH)
	}
}

func TestSeedFromInputsStable(t *testing.T) {
	a := SeedFromInputs("track.flac", []string{"a.png", "b.png"})
	b := SeedFromInputs("track.flac", []string{"a.png", "b.png"})
	c := SeedFromInputs("track.flac", []string{"b.png", "a.png"})
	if a != b {
		t.Error("identical inputs must give identical seeds")
	}
	if a == c {
		t.Error("file order must influence the seed")
	}
}

func TestKindOfForeignError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("plain errors carry no kind")
	}
}

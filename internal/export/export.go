package export

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/FeelTheFonk/classcii/internal/analysis"
	"github.com/FeelTheFonk/classcii/internal/audio"
	"github.com/FeelTheFonk/classcii/internal/compositor"
	"github.com/FeelTheFonk/classcii/internal/config"
	"github.com/FeelTheFonk/classcii/internal/director"
	"github.com/FeelTheFonk/classcii/internal/effects"
	"github.com/FeelTheFonk/classcii/internal/encoder"
	"github.com/FeelTheFonk/classcii/internal/raster"
	"github.com/FeelTheFonk/classcii/internal/source"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "export"})

// progressLogInterval is how often a frame record is logged.
const progressLogInterval = 100

// Params carries everything one export needs beyond the base configuration.
type Params struct {
	MediaFiles []string
	AudioPath  string
	OutputPath string

	Cols  int // base glyph grid width
	Rows  int // base glyph grid height
	Scale int // cell width in output pixels; cells are twice as tall

	Seed              int64
	MutationIntensity float64
	CrossfadeOverride int // frames; 0 means energy-adaptive
	PresetDuration    float64
	MultiPreset       bool
	FontPath          string

	// FrameSink, when set, receives the raw RGB frames instead of an
	// encoder subprocess. Tests and the snapshot path use it.
	FrameSink io.Writer

	// StopAfter, when positive, truncates the export to that many frames.
	// The snapshot path renders up to its target frame and keeps the last.
	StopAfter int
}

// Stage identifies what the pipeline is doing for progress reporting.
type Stage int

const (
	StageAnalysis Stage = iota
	StageRender
)

// Progress is the per-step callback payload.
type Progress struct {
	Stage      Stage
	Frame      int
	Total      int
	Throughput float64 // frames per second achieved
	ETA        time.Duration
	Spectrum   *analysis.FeatureVector // nil during analysis
}

// Report summarises a finished export.
type Report struct {
	OutputPath     string
	Frames         int
	Duration       time.Duration
	Throughput     float64
	OnsetsDetected int
	BPMEstimate    float64
	MutationsFired int
	EnergySplit    [3]int // frames per energy class
}

// SeedFromInputs derives a deterministic seed from the input paths when the
// user supplies none.
func SeedFromInputs(audioPath string, media []string) int64 {
	h := fnv.New64a()
	h.Write([]byte(audioPath))
	for _, m := range media {
		h.Write([]byte{0})
		h.Write([]byte(m))
	}
	return int64(h.Sum64())
}

// Run performs a full offline export. The audio is analyzed before the
// first frame; frames are then produced strictly in order.
func Run(base config.Config, presets []config.Preset, p Params, progress func(Progress)) (*Report, error) {
	if err := validate(&p); err != nil {
		return nil, err
	}
	base.ClampAll()
	fps := base.TargetFPS

	// The whole track is decoded and analyzed up front; the timeline is
	// immutable for the rest of the export.
	buf, err := audio.Decode(p.AudioPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errf(KindFileNotFound, "open audio", err)
		}
		return nil, errf(KindAudioDecode, "decode audio", err)
	}

	tl, err := analysis.Analyze(buf, analysis.Options{FPS: fps, EnvelopeDecay: base.StrobeDecay}, func(done, total int) {
		if progress != nil {
			progress(Progress{Stage: StageAnalysis, Frame: done, Total: total})
		}
	})
	if err != nil {
		return nil, errf(KindAudioDecode, "analyze audio", err)
	}

	total := tl.Len()
	if p.StopAfter > 0 && p.StopAfter < total {
		total = p.StopAfter
	}
	outW := p.Cols * p.Scale
	outH := p.Rows * p.Scale * 2 // terminal cells are roughly twice as tall as wide

	dir := director.New(base, presets, tl, director.Options{
		Seed:              p.Seed,
		MutationIntensity: p.MutationIntensity,
		MultiPreset:       p.MultiPreset,
		PresetDuration:    p.PresetDuration,
	})

	seq := source.NewSequencer(p.MediaFiles, outW, outH, fps, total)
	defer seq.Close()

	comp := compositor.New(p.Cols, p.Rows)
	maxGw, maxGh := comp.MaxGridSize()
	grid := compositor.NewGrid(maxGw, maxGh)
	chain := effects.NewChain(maxGw, maxGh, outW, outH)

	fontSrc := raster.BuiltinFont()
	if p.FontPath != "" {
		fontSrc, err = raster.LoadFont(p.FontPath)
		if err != nil {
			return nil, errf(KindConfig, "load font", err)
		}
	}
	rast := raster.New(fontSrc, outW, outH)

	var sink io.Writer = p.FrameSink
	var enc *encoder.Encoder
	if sink == nil {
		enc, err = encoder.New(encoder.Config{
			OutputPath: p.OutputPath,
			Width:      outW,
			Height:     outH,
			Framerate:  fps,
			AudioPath:  p.AudioPath,
		})
		if err != nil {
			return nil, errf(KindConfig, "configure encoder", err)
		}
		if err := enc.Start(); err != nil {
			return nil, errf(KindEncoderPipe, "start encoder", err)
		}
	}

	report := &Report{OutputPath: p.OutputPath}
	var eff config.Config
	dt := 1 / float64(fps)
	start := time.Now()

	for t := 0; t < total; t++ {
		v := tl.At(t)
		energy := tl.Energy(t)
		report.EnergySplit[energy]++
		if v.Onset > 0 {
			report.OnsetsDetected++
		}
		if v.BPM > 0 {
			report.BPMEstimate = v.BPM
		}

		dir.Step(t, &eff)

		crossfade := p.CrossfadeOverride
		if crossfade <= 0 {
			crossfade = dir.CrossfadeFrames(t)
		}
		pix := seq.Frame(t, energy, crossfade, dir.AccelerateAdvance(t))
		pix = chain.Camera(pix, outW, outH, &eff)

		comp.Compose(pix, outW, outH, &eff, grid)
		chain.Apply(grid, &eff, v, dt)
		frame := rast.Render(grid, &eff)

		if enc != nil {
			if err := enc.WriteFrame(frame); err != nil {
				if errors.Is(err, encoder.ErrPipeClosed) {
					// The frame already composited is lost with the pipe;
					// stop cleanly rather than truncating mid-write.
					logger.Error("encoder pipe closed; stopping export", "frame", t)
					return report, errf(KindEncoderPipe, "write frame", err)
				}
				return report, errf(KindEncoderPipe, "write frame", err)
			}
		} else {
			if _, err := sink.Write(frame); err != nil {
				return report, errf(KindEncoderPipe, "write frame", err)
			}
		}
		report.Frames++

		if (t+1)%progressLogInterval == 0 || t == total-1 {
			elapsed := time.Since(start).Seconds()
			fpsNow := float64(t+1) / elapsed
			eta := time.Duration(float64(total-t-1) / fpsNow * float64(time.Second))
			logger.Info("rendering",
				"frame", t+1,
				"total", total,
				"pct", fmt.Sprintf("%.1f", float64(t+1)*100/float64(total)),
				"fps", fmt.Sprintf("%.1f", fpsNow),
				"eta", eta.Round(time.Second),
			)
		}
		if progress != nil {
			elapsed := time.Since(start).Seconds()
			fpsNow := float64(t+1) / elapsed
			progress(Progress{
				Stage:      StageRender,
				Frame:      t + 1,
				Total:      total,
				Throughput: fpsNow,
				ETA:        time.Duration(float64(total-t-1) / fpsNow * float64(time.Second)),
				Spectrum:   v,
			})
		}
	}

	if enc != nil {
		if err := enc.Close(); err != nil {
			return report, errf(KindEncoderPipe, "finalize encoder", err)
		}
	}

	report.Duration = time.Since(start)
	report.Throughput = float64(report.Frames) / report.Duration.Seconds()
	report.MutationsFired = dir.MutationsFired
	return report, nil
}

func validate(p *Params) error {
	if p.AudioPath == "" {
		return errf(KindConfig, "no audio file given", nil)
	}
	if len(p.MediaFiles) == 0 {
		return errf(KindConfig, "no media files given", nil)
	}
	if p.Cols <= 0 || p.Rows <= 0 {
		return errf(KindInvalidDimensions, fmt.Sprintf("grid %dx%d", p.Cols, p.Rows), nil)
	}
	if p.Scale <= 0 {
		p.Scale = 8
	}
	if p.OutputPath == "" && p.FrameSink == nil {
		return errf(KindConfig, "no output path given", nil)
	}
	if p.MutationIntensity < 0 {
		p.MutationIntensity = 0
	}
	return nil
}

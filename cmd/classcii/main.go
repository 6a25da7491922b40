package main

import (
	"errors"
	"fmt"
	"image/png"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/FeelTheFonk/classcii/internal/cli"
	"github.com/FeelTheFonk/classcii/internal/config"
	"github.com/FeelTheFonk/classcii/internal/export"
	"github.com/FeelTheFonk/classcii/internal/logging"
	"github.com/FeelTheFonk/classcii/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "0.1.0")
var version = "dev"

// CLI defines the command-line interface
type CLI struct {
	Audio  string   `arg:"" name:"audio" help:"Audio track driving the visuals" type:"existingfile" optional:""`
	Media  []string `arg:"" name:"media" help:"Visual media files (images, GIFs, videos)" type:"existingfile" optional:""`
	Output string   `short:"o" help:"Output video path" default:"classcii.mp4"`

	Config   string   `short:"c" help:"TOML configuration file" type:"existingfile"`
	Cols     int      `help:"Base glyph grid width" default:"120"`
	Rows     int      `help:"Base glyph grid height" default:"34"`
	Scale    int      `help:"Cell width in output pixels (cells are twice as tall)" default:"8"`
	FPS      int      `help:"Target frame rate (30 or 60)" default:"0"`
	Seed     int64    `help:"Deterministic seed; derived from inputs when 0"`
	Mutation float64  `help:"Mutation intensity multiplier" default:"1"`

	Crossfade      int     `help:"Crossfade override in frames (0 = energy-adaptive)"`
	PresetDuration float64 `help:"Seconds per preset in multi-preset mode" default:"15"`
	MultiPreset    bool    `help:"Sequence through the config's preset library"`
	Font           string  `help:"TTF font for the rasterizer (builtin bitmap font when empty)" type:"existingfile"`

	Snapshot *float64 `short:"s" help:"Render a single PNG snapshot at the given time (seconds) instead of video"`
	NoUI     bool     `help:"Plain log output instead of the progress UI"`
	Report   bool     `help:"Write an export report next to the output"`
	Version  bool     `short:"v" help:"Show version information"`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("classcii"),
		kong.Description("Audio-reactive terminal-art video renderer"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}
	if cliArgs.Audio == "" || len(cliArgs.Media) == 0 {
		cli.PrintError("an audio file and at least one media file are required")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	base := config.Default()
	var presets []config.Preset
	if cliArgs.Config != "" {
		var err error
		base, presets, err = config.Load(cliArgs.Config)
		if err != nil {
			cli.PrintError(err.Error())
			os.Exit(exitCode(err))
		}
	}
	if cliArgs.FPS == 30 || cliArgs.FPS == 60 {
		base.TargetFPS = cliArgs.FPS
	}

	seed := cliArgs.Seed
	if seed == 0 {
		seed = export.SeedFromInputs(cliArgs.Audio, cliArgs.Media)
	}

	params := export.Params{
		MediaFiles:        cliArgs.Media,
		AudioPath:         cliArgs.Audio,
		OutputPath:        cliArgs.Output,
		Cols:              cliArgs.Cols,
		Rows:              cliArgs.Rows,
		Scale:             cliArgs.Scale,
		Seed:              seed,
		MutationIntensity: cliArgs.Mutation,
		CrossfadeOverride: cliArgs.Crossfade,
		PresetDuration:    cliArgs.PresetDuration,
		MultiPreset:       cliArgs.MultiPreset,
		FontPath:          cliArgs.Font,
	}

	if cliArgs.Snapshot != nil {
		runSnapshot(base, presets, params, *cliArgs.Snapshot, cliArgs.Output)
		return
	}

	var report *export.Report
	var runErr error
	if cliArgs.NoUI {
		report, runErr = export.Run(base, presets, params, nil)
	} else {
		report, runErr = runWithUI(base, presets, params)
	}
	if runErr != nil {
		cli.PrintError(runErr.Error())
		os.Exit(exitCode(runErr))
	}

	cli.PrintExportSummary(report.OutputPath, report.Frames, report.Duration, report.Throughput)

	if cliArgs.Report {
		data := logging.ReportData{
			AudioPath:      cliArgs.Audio,
			OutputPath:     report.OutputPath,
			Frames:         report.Frames,
			FPS:            base.TargetFPS,
			Duration:       report.Duration,
			Throughput:     report.Throughput,
			OnsetsDetected: report.OnsetsDetected,
			BPMEstimate:    report.BPMEstimate,
			MutationsFired: report.MutationsFired,
			EnergySplit:    report.EnergySplit,
			Seed:           seed,
		}
		if err := logging.WriteFile(data); err != nil {
			cli.PrintWarning(fmt.Sprintf("failed to write report: %v", err))
		}
	}
}

// runWithUI drives the export under the bubbletea progress program.
func runWithUI(base config.Config, presets []config.Preset, params export.Params) (*export.Report, error) {
	p := tea.NewProgram(ui.NewModel(base.ShowSpectrum))

	var report *export.Report
	var runErr error

	go func() {
		report, runErr = export.Run(base, presets, params, func(prog export.Progress) {
			switch prog.Stage {
			case export.StageAnalysis:
				p.Send(ui.AnalysisProgressMsg{Done: prog.Frame, Total: prog.Total})
			case export.StageRender:
				p.Send(ui.RenderProgressMsg{
					Frame:      prog.Frame,
					Total:      prog.Total,
					Throughput: prog.Throughput,
					ETA:        prog.ETA,
					Features:   prog.Spectrum,
				})
			}
		})
		if runErr != nil {
			p.Send(ui.ErrorMsg{Err: runErr})
			return
		}
		p.Send(ui.DoneMsg{
			OutputPath: report.OutputPath,
			Frames:     report.Frames,
			Duration:   report.Duration,
			Throughput: report.Throughput,
		})
	}()

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("UI error: %w", err)
	}
	return report, runErr
}

func runSnapshot(base config.Config, presets []config.Preset, params export.Params, atSec float64, output string) {
	img, err := export.Snapshot(base, presets, params, atSec)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(exitCode(err))
	}

	f, err := os.Create(output)
	if err != nil {
		cli.PrintError(fmt.Sprintf("failed to create output: %v", err))
		os.Exit(1)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		cli.PrintError(fmt.Sprintf("failed to encode PNG: %v", err))
		os.Exit(1)
	}
	cli.PrintSuccess("Snapshot saved to: " + output)
}

// exitCode maps the error taxonomy onto process exit codes.
func exitCode(err error) int {
	kind, ok := export.KindOf(err)
	if !ok {
		var e *export.Error
		if !errors.As(err, &e) {
			return 1
		}
		kind = e.Kind
	}
	switch kind {
	case export.KindConfig:
		return 2
	case export.KindFileNotFound:
		return 3
	case export.KindUnsupportedFormat:
		return 4
	case export.KindInvalidDimensions:
		return 5
	case export.KindAudioDecode:
		return 6
	case export.KindVideoDecode:
		return 7
	case export.KindEncoderPipe:
		return 8
	default:
		return 1
	}
}

package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/FeelTheFonk/classcii/internal/analysis"
)

type stage int

const (
	stageAnalysis stage = iota
	stageRender
	stageDone
	stageError
)

// Model is the bubbletea model for an export run.
type Model struct {
	stage        stage
	showSpectrum bool

	analysisDone  int
	analysisTotal int

	frame      int
	total      int
	throughput float64
	eta        time.Duration
	features   *analysis.FeatureVector

	outputPath string
	frames     int
	duration   time.Duration
	finalFPS   float64
	err        error

	bar progress.Model
}

// NewModel builds the export UI model. showSpectrum toggles the live
// spectrum strip during the render pass.
func NewModel(showSpectrum bool) Model {
	return Model{
		showSpectrum: showSpectrum,
		bar:          progress.New(progress.WithDefaultGradient()),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		if m.bar.Width > 70 {
			m.bar.Width = 70
		}

	case AnalysisProgressMsg:
		m.stage = stageAnalysis
		m.analysisDone = msg.Done
		m.analysisTotal = msg.Total

	case RenderProgressMsg:
		m.stage = stageRender
		m.frame = msg.Frame
		m.total = msg.Total
		m.throughput = msg.Throughput
		m.eta = msg.ETA
		m.features = msg.Features

	case DoneMsg:
		m.stage = stageDone
		m.outputPath = msg.OutputPath
		m.frames = msg.Frames
		m.duration = msg.Duration
		m.finalFPS = msg.Throughput
		return m, tea.Quit

	case ErrorMsg:
		m.stage = stageError
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

// Err exposes a failure after the program exits.
func (m Model) Err() error { return m.err }

// Package ui renders the export progress as a bubbletea program: an
// analysis pass with a progress bar, then the render pass with throughput,
// ETA and a live spectrum strip.
package ui

import (
	"time"

	"github.com/FeelTheFonk/classcii/internal/analysis"
)

// AnalysisProgressMsg reports short-time Fourier progress over the track.
type AnalysisProgressMsg struct {
	Done  int
	Total int
}

// RenderProgressMsg reports one rendered frame.
type RenderProgressMsg struct {
	Frame      int
	Total      int
	Throughput float64
	ETA        time.Duration
	Features   *analysis.FeatureVector
}

// DoneMsg ends the program after a successful export.
type DoneMsg struct {
	OutputPath string
	Frames     int
	Duration   time.Duration
	Throughput float64
}

// ErrorMsg ends the program after a failure.
type ErrorMsg struct {
	Err error
}

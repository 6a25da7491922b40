package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/FeelTheFonk/classcii/internal/analysis"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8A2BE2"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	spectrumStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D7AF"))

	beatStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD700"))
)

// spectrumLevels maps a normalized magnitude onto vertical bar glyphs.
var spectrumLevels = []rune(" ▁▂▃▄▅▆▇█")

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("classcii export"))
	sb.WriteString("\n\n")

	switch m.stage {
	case stageAnalysis:
		sb.WriteString(labelStyle.Render("Pass 1: analyzing audio"))
		sb.WriteString("\n")
		pct := 0.0
		if m.analysisTotal > 0 {
			pct = float64(m.analysisDone) / float64(m.analysisTotal)
		}
		sb.WriteString(m.bar.ViewAs(pct))
		sb.WriteString("\n")

	case stageRender:
		sb.WriteString(labelStyle.Render("Pass 2: rendering frames"))
		sb.WriteString("\n")
		pct := 0.0
		if m.total > 0 {
			pct = float64(m.frame) / float64(m.total)
		}
		sb.WriteString(m.bar.ViewAs(pct))
		sb.WriteString("\n\n")

		sb.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			labelStyle.Render("frame"),
			valueStyle.Render(fmt.Sprintf("%d/%d", m.frame, m.total)),
			labelStyle.Render("speed"),
			valueStyle.Render(fmt.Sprintf("%.1f fps", m.throughput)),
			labelStyle.Render("eta"),
			valueStyle.Render(m.eta.Truncate(1e9).String()),
		))

		if m.showSpectrum && m.features != nil {
			sb.WriteString("\n")
			sb.WriteString(spectrumStyle.Render(renderSpectrum(m.features)))
			if m.features.Onset > 0 {
				sb.WriteString(" ")
				sb.WriteString(beatStyle.Render("●"))
			}
			if m.features.BPM > 0 {
				sb.WriteString(labelStyle.Render(fmt.Sprintf("  %.0f bpm", m.features.BPM)))
			}
			sb.WriteString("\n")
		}

	case stageDone:
		sb.WriteString(fmt.Sprintf("Finished %d frames in %s (%.1f fps)\n",
			m.frames, m.duration.Truncate(1e7), m.finalFPS))

	case stageError:
		sb.WriteString(fmt.Sprintf("Export failed: %v\n", m.err))
	}

	return sb.String()
}

// renderSpectrum draws the 32-band spectrum as one row of block glyphs.
func renderSpectrum(v *analysis.FeatureVector) string {
	var sb strings.Builder
	for b := 0; b < analysis.SpectrumBands; b++ {
		level := int(v.Spectrum[b] * float64(len(spectrumLevels)-1))
		if level < 0 {
			level = 0
		}
		if level >= len(spectrumLevels) {
			level = len(spectrumLevels) - 1
		}
		sb.WriteRune(spectrumLevels[level])
	}
	return sb.String()
}

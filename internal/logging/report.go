package logging

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ReportData is everything the export summary needs.
type ReportData struct {
	AudioPath      string
	OutputPath     string
	Frames         int
	FPS            int
	Duration       time.Duration
	Throughput     float64
	OnsetsDetected int
	BPMEstimate    float64
	MutationsFired int
	EnergySplit    [3]int // low, medium, high frame counts
	Seed           int64
}

// interpretTempo gives the musical register of a BPM estimate.
func interpretTempo(bpm float64) string {
	switch {
	case bpm <= 0:
		return "no stable tempo detected"
	case bpm < 70:
		return "slow, ambient pacing"
	case bpm < 100:
		return "relaxed groove"
	case bpm < 130:
		return "steady dance tempo"
	case bpm < 170:
		return "driving, energetic"
	default:
		return "frantic"
	}
}

// interpretMutations describes how restless the director was.
func interpretMutations(count, frames, fps int) string {
	if frames == 0 || fps == 0 {
		return ""
	}
	perMin := float64(count) / (float64(frames) / float64(fps)) * 60
	switch {
	case perMin < 1:
		return "calm, mostly continuous"
	case perMin < 6:
		return "moderately varied"
	default:
		return "highly volatile"
	}
}

// Render produces the human-readable export summary.
func Render(d ReportData) string {
	videoSecs := float64(d.Frames) / float64(max(1, d.FPS))
	total := d.EnergySplit[0] + d.EnergySplit[1] + d.EnergySplit[2]
	pct := func(n int) string {
		if total == 0 {
			return "0%"
		}
		return fmt.Sprintf("%d%%", n*100/total)
	}

	table := MetricTable{
		Title: "Export summary",
		Rows: []MetricRow{
			{Label: "Output", Value: d.OutputPath},
			{Label: "Frames", Value: fmt.Sprintf("%d", d.Frames)},
			{Label: "Video length", Value: fmt.Sprintf("%.1f", videoSecs), Unit: "s"},
			{Label: "Render time", Value: fmt.Sprintf("%.1f", d.Duration.Seconds()), Unit: "s"},
			{Label: "Throughput", Value: fmt.Sprintf("%.1f", d.Throughput), Unit: "fps"},
			{Label: "Onsets", Value: fmt.Sprintf("%d", d.OnsetsDetected)},
			{Label: "Tempo", Value: fmt.Sprintf("%.0f", d.BPMEstimate), Unit: "bpm", Note: interpretTempo(d.BPMEstimate)},
			{Label: "Mutations", Value: fmt.Sprintf("%d", d.MutationsFired), Note: interpretMutations(d.MutationsFired, d.Frames, d.FPS)},
			{Label: "Energy low/med/high", Value: fmt.Sprintf("%s/%s/%s", pct(d.EnergySplit[0]), pct(d.EnergySplit[1]), pct(d.EnergySplit[2]))},
			{Label: "Seed", Value: fmt.Sprintf("%d", d.Seed)},
		},
	}
	return table.String()
}

// WriteFile drops the summary next to the output file.
func WriteFile(d ReportData) error {
	path := strings.TrimSuffix(d.OutputPath, ".mp4") + "-report.txt"
	return os.WriteFile(path, []byte(Render(d)), 0o644)
}

package logging

import (
	"strings"
	"testing"
	"time"
)

func TestMetricTableAlignment(t *testing.T) {
	table := MetricTable{
		Title: "Test",
		Rows: []MetricRow{
			{Label: "Frames", Value: "900"},
			{Label: "Throughput", Value: "42.5", Unit: "fps"},
			{Label: "Tempo", Value: "120", Unit: "bpm", Note: "steady"},
		},
	}
	out := table.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 { // title + rule + 3 rows
		t.Fatalf("lines = %d, want 5:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "steady") {
		t.Error("note column missing")
	}
	// Values right-align to a shared column.
	idx900 := strings.Index(lines[2], "900")
	idx425 := strings.Index(lines[3], "42.5")
	if idx900+len("900") != idx425+len("42.5") {
		t.Errorf("values not right-aligned:\n%s", out)
	}
}

func TestEmptyTable(t *testing.T) {
	table := MetricTable{Title: "Nothing"}
	if got := table.String(); got != "" {
		t.Errorf("empty table = %q, want empty string", got)
	}
}

func TestRenderReport(t *testing.T) {
	out := Render(ReportData{
		AudioPath:      "track.flac",
		OutputPath:     "out.mp4",
		Frames:         900,
		FPS:            30,
		Duration:       20 * time.Second,
		Throughput:     45,
		OnsetsDetected: 61,
		BPMEstimate:    122,
		MutationsFired: 14,
		EnergySplit:    [3]int{270, 360, 270},
		Seed:           42,
	})

	for _, want := range []string{"out.mp4", "900", "122", "steady dance tempo", "30%"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestInterpretTempo(t *testing.T) {
	tests := []struct {
		bpm  float64
		want string
	}{
		{0, "no stable tempo detected"},
		{60, "slow, ambient pacing"},
		{120, "steady dance tempo"},
		{200, "frantic"},
	}
	for _, tt := range tests {
		if got := interpretTempo(tt.bpm); got != tt.want {
			t.Errorf("interpretTempo(%v) = %q, want %q", tt.bpm, got, tt.want)
		}
	}
}

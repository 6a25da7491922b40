package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"
)

// ffmpegBinary is overridable for tests.
var ffmpegBinary = "ffmpeg"

// decodeFFmpeg shells out to ffmpeg for formats without a native decoder.
// The subprocess writes interleaved float32 mono at the reference rate to
// stdout; no shell is involved, so paths cannot inject arguments.
func decodeFFmpeg(path string) ([]float64, error) {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", "1",
		"-ar", strconv.Itoa(ReferenceRate),
		"pipe:1",
	}

	var out, errBuf bytes.Buffer
	cmd := exec.Command(ffmpegBinary, args...)
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w (%s)", err, errBuf.String())
	}

	raw := out.Bytes()
	n := len(raw) / 4
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(raw[4*i:])
		samples[i] = float64(math.Float32frombits(bits))
	}
	return samples, nil
}

package export

import (
	"fmt"
	"image"

	"github.com/FeelTheFonk/classcii/internal/config"
)

// lastFrameSink keeps only the most recent frame written through it.
type lastFrameSink struct {
	frame []byte
}

func (s *lastFrameSink) Write(p []byte) (int, error) {
	if cap(s.frame) < len(p) {
		s.frame = make([]byte, len(p))
	}
	s.frame = s.frame[:len(p)]
	copy(s.frame, p)
	return len(p), nil
}

// Snapshot renders the single frame at atSec and returns it as an RGBA
// image. The pipeline runs from frame zero so the stateful effects (trails,
// wave phase, mutation state) are identical to a full export.
func Snapshot(base config.Config, presets []config.Preset, p Params, atSec float64) (*image.RGBA, error) {
	base.ClampAll()
	sink := &lastFrameSink{}
	p.FrameSink = sink
	p.OutputPath = ""
	p.StopAfter = int(atSec*float64(base.TargetFPS)) + 1

	if _, err := Run(base, presets, p, nil); err != nil {
		return nil, err
	}
	if len(sink.frame) == 0 {
		return nil, errf(KindInvalidDimensions, fmt.Sprintf("no frame at %.2fs", atSec), nil)
	}

	if p.Scale <= 0 {
		p.Scale = 8
	}
	w := p.Cols * p.Scale
	h := p.Rows * p.Scale * 2
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[4*i] = sink.frame[3*i]
		img.Pix[4*i+1] = sink.frame[3*i+1]
		img.Pix[4*i+2] = sink.frame[3*i+2]
		img.Pix[4*i+3] = 255
	}
	return img, nil
}

package source

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/FeelTheFonk/classcii/internal/analysis"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "source"})

// Sequencer walks an ordered list of media files, decoding the current clip
// into a pre-allocated RGBA buffer and crossfading into the next clip when
// the energy-paced budget expires.
type Sequencer struct {
	files []string
	w, h  int
	fps   int

	total     int // total frames in the export
	baseShare int // default frames per clip

	cur      clip
	curIdx   int
	curFrame int // clip-relative frame counter

	incoming    clip
	fadeFrames  int
	fadeElapsed int

	frame    []byte // the published frame, 4*w*h
	curBuf   []byte
	inBuf    []byte
	exhaust  bool // every file failed
	warnOnce bool
}

// NewSequencer prepares the clip list. Files that fail to open are skipped
// at the moment they are reached, not eagerly.
func NewSequencer(files []string, w, h, fps, totalFrames int) *Sequencer {
	share := totalFrames
	if len(files) > 0 {
		share = totalFrames / len(files)
	}
	if share < 1 {
		share = 1
	}
	s := &Sequencer{
		files:     files,
		w:         w,
		h:         h,
		fps:       fps,
		total:     totalFrames,
		baseShare: share,
		curIdx:    -1,
		frame:     make([]byte, 4*w*h),
		curBuf:    make([]byte, 4*w*h),
		inBuf:     make([]byte, 4*w*h),
	}
	return s
}

// Frame produces the RGBA pixels for frame t. crossfade is the director's
// energy-adaptive transition length; accelerate cuts the current clip short
// on strong beats. The returned slice is reused across calls.
func (s *Sequencer) Frame(t int, energy analysis.EnergyClass, crossfade int, accelerate bool) []byte {
	if s.cur == nil && !s.exhaust {
		s.advance(crossfade)
	}
	if s.exhaust {
		clear(s.frame)
		return s.frame
	}

	// Budget check: high energy halves a clip's stay, low energy stretches it.
	budget := s.baseShare
	switch energy {
	case analysis.EnergyHigh:
		budget = s.baseShare / 2
	case analysis.EnergyLow:
		budget = s.baseShare * 3 / 2
	}
	if budget < 1 {
		budget = 1
	}
	if s.incoming == nil && len(s.files) > 1 && (s.curFrame >= budget || (accelerate && s.curFrame > s.fps)) {
		s.beginFade(crossfade)
	}

	if err := s.cur.next(s.curFrame, s.curBuf); err != nil {
		if err != io.EOF {
			logger.Warn("clip decode failed mid-stream", "file", s.files[s.curIdx], "err", err)
		}
		// Clip ended: drop any fade in progress and hard-cut forward.
		s.advance(crossfade)
		if s.exhaust {
			clear(s.frame)
			return s.frame
		}
		if err := s.cur.next(s.curFrame, s.curBuf); err != nil {
			clear(s.curBuf)
		}
	}
	s.curFrame++

	if s.incoming != nil {
		if err := s.incoming.next(s.fadeElapsed, s.inBuf); err != nil {
			// The incoming clip died during the fade; abandon it.
			s.incoming.close()
			s.incoming = nil
			copy(s.frame, s.curBuf)
			return s.frame
		}
		alpha := float64(s.fadeElapsed+1) / float64(s.fadeFrames+1)
		blendRGBA(s.frame, s.curBuf, s.inBuf, alpha)
		s.fadeElapsed++
		if s.fadeElapsed >= s.fadeFrames {
			// Fade complete: the incoming clip takes over.
			s.cur.close()
			s.cur = s.incoming
			s.incoming = nil
			s.curFrame = s.fadeElapsed
		}
		return s.frame
	}

	copy(s.frame, s.curBuf)
	return s.frame
}

// beginFade opens the next clip and starts the per-pixel blend.
func (s *Sequencer) beginFade(frames int) {
	if frames < 1 {
		frames = 1
	}
	next, idx := s.openNext(s.curIdx)
	if next == nil {
		return
	}
	s.incoming = next
	s.curIdx = idx
	s.fadeFrames = frames
	s.fadeElapsed = 0
}

// advance hard-cuts to the next openable clip.
func (s *Sequencer) advance(_ int) {
	if s.cur != nil {
		s.cur.close()
		s.cur = nil
	}
	if s.incoming != nil {
		s.incoming.close()
		s.incoming = nil
	}
	next, idx := s.openNext(s.curIdx)
	if next == nil {
		if !s.warnOnce {
			logger.Warn("every media file failed to open; emitting black frames")
			s.warnOnce = true
		}
		s.exhaust = true
		return
	}
	s.cur = next
	s.curIdx = idx
	s.curFrame = 0
}

// openNext tries each file after 'from' once around the list.
func (s *Sequencer) openNext(from int) (clip, int) {
	for n := 0; n < len(s.files); n++ {
		idx := (from + 1 + n) % len(s.files)
		c, err := openClip(s.files[idx], s.w, s.h, s.fps)
		if err != nil {
			logger.Warn("skipping unreadable media file", "file", s.files[idx], "err", err)
			continue
		}
		return c, idx
	}
	return nil, -1
}

// Close releases the active decoders.
func (s *Sequencer) Close() {
	if s.cur != nil {
		s.cur.close()
		s.cur = nil
	}
	if s.incoming != nil {
		s.incoming.close()
		s.incoming = nil
	}
}

// blendRGBA writes a*(1-alpha) + b*alpha into dst.
func blendRGBA(dst, a, b []byte, alpha float64) {
	ia := 1 - alpha
	for i := range dst {
		dst[i] = byte(float64(a[i])*ia + float64(b[i])*alpha + 0.5)
	}
}

// Package source enumerates visual media, decodes it to fixed-size RGBA
// frames, and paces clip changes by track energy with per-pixel crossfades.
package source

import (
	"fmt"
	"image"
	"image/gif"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// clip produces RGBA frames at the sequencer's fixed target size.
type clip interface {
	// next writes the RGBA pixels for clip-relative frame idx into dst.
	// It returns io.EOF once the clip is exhausted.
	next(idx int, dst []byte) error
	close()
}

// imageExts lists formats decoded natively; everything else is treated as
// video and handed to the external decoder.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".webp": true,
}

func openClip(path string, w, h, fps int) (clip, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case ext == ".gif":
		return openGIF(path, w, h, fps)
	case imageExts[ext]:
		return openStill(path, w, h)
	default:
		return openVideo(path, w, h, fps)
	}
}

// stillClip repeats one scaled frame forever.
type stillClip struct {
	pixels []byte
}

func openStill(path string, w, h int) (clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		img, err = bmp.Decode(f)
	case ".webp":
		img, err = webp.Decode(f)
	default:
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &stillClip{pixels: scaleToRGBA(img, w, h)}, nil
}

func (c *stillClip) next(_ int, dst []byte) error {
	copy(dst, c.pixels)
	return nil
}

func (c *stillClip) close() {}

// gifClip pre-decodes every frame and advances by accumulated delay.
type gifClip struct {
	frames [][]byte
	ends   []float64 // cumulative end time of each frame, seconds
	total  float64
	fps    int
}

func openGIF(path string, w, h, fps int) (clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("gif has no frames")
	}

	c := &gifClip{fps: fps}
	// GIF frames are deltas against the logical screen; composite as we go.
	sw, sh := g.Config.Width, g.Config.Height
	if sw == 0 || sh == 0 {
		b := g.Image[0].Bounds()
		sw, sh = b.Dx(), b.Dy()
	}
	screen := image.NewRGBA(image.Rect(0, 0, sw, sh))
	for i, pal := range g.Image {
		draw.Draw(screen, pal.Bounds(), pal, pal.Bounds().Min, draw.Over)
		c.frames = append(c.frames, scaleToRGBA(screen, w, h))
		delay := float64(g.Delay[i]) / 100 // centiseconds
		if delay <= 0 {
			delay = 0.1
		}
		c.total += delay
		c.ends = append(c.ends, c.total)
	}
	return c, nil
}

func (c *gifClip) next(idx int, dst []byte) error {
	t := float64(idx) / float64(c.fps)
	if c.total > 0 {
		for t >= c.total {
			t -= c.total // animated images loop
		}
	}
	for i, end := range c.ends {
		if t < end {
			copy(dst, c.frames[i])
			return nil
		}
	}
	copy(dst, c.frames[len(c.frames)-1])
	return nil
}

func (c *gifClip) close() {}

// scaleToRGBA resamples an image to w×h with the high-quality kernel.
func scaleToRGBA(src image.Image, w, h int) []byte {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst.Pix
}

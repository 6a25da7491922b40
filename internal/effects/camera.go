// Package effects applies the virtual camera to pixel frames and the eight
// post-processing effects to glyph grids, in the fixed chain order. All
// persistent state (previous grids, phase accumulators) lives on the Chain.
package effects

import (
	"math"
)

// ApplyCamera warps src into dst with the affine transform: zoom about the
// frame centre, rotation, then pan as a fraction of the frame size.
// Bilinear interpolation everywhere; samples past the border clamp to the
// nearest edge pixel.
func ApplyCamera(src, dst []byte, w, h int, zoom, rotation, panX, panY float64) {
	if zoom <= 0 {
		zoom = 1
	}
	cx, cy := float64(w)/2, float64(h)/2
	sin, cos := math.Sincos(-rotation)
	inv := 1 / zoom
	offX := panX * float64(w)
	offY := panY * float64(h)

	for y := 0; y < h; y++ {
		fy := float64(y) - cy - offY
		for x := 0; x < w; x++ {
			fx := float64(x) - cx - offX

			// Inverse-map the destination pixel into source space.
			sx := (fx*cos-fy*sin)*inv + cx
			sy := (fx*sin+fy*cos)*inv + cy

			r, g, b, a := bilinear(src, w, h, sx, sy)
			o := (y*w + x) * 4
			dst[o], dst[o+1], dst[o+2], dst[o+3] = r, g, b, a
		}
	}
}

func bilinear(pix []byte, w, h int, x, y float64) (uint8, uint8, uint8, uint8) {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := clampedPixel(pix, w, h, x0, y0)
	c10 := clampedPixel(pix, w, h, x0+1, y0)
	c01 := clampedPixel(pix, w, h, x0, y0+1)
	c11 := clampedPixel(pix, w, h, x0+1, y0+1)

	var out [4]uint8
	for i := 0; i < 4; i++ {
		top := float64(c00[i])*(1-fx) + float64(c10[i])*fx
		bot := float64(c01[i])*(1-fx) + float64(c11[i])*fx
		out[i] = uint8(top*(1-fy) + bot*fy + 0.5)
	}
	return out[0], out[1], out[2], out[3]
}

func clampedPixel(pix []byte, w, h, x, y int) [4]uint8 {
	if x < 0 {
		x = 0
	}
	if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= h {
		y = h - 1
	}
	o := (y*w + x) * 4
	return [4]uint8{pix[o], pix[o+1], pix[o+2], pix[o+3]}
}

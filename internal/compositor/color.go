package compositor

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/FeelTheFonk/classcii/internal/config"
)

// applyColorMode transforms a mean block colour per the configured mode,
// then applies contrast and brightness.
func applyColorMode(c RGB, cfg *config.Config) RGB {
	switch cfg.ColorMode {
	case config.ColorHsvBright:
		col := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
		h, s, _ := col.Hsv()
		s = math.Min(1, s*cfg.Saturation)
		out := colorful.Hsv(h, s, 1)
		c = RGB{clampByte(out.R * 255), clampByte(out.G * 255), clampByte(out.B * 255)}
	case config.ColorOklab:
		// Lightness is forced to 1; only the chroma plane survives.
		_, a, b := rgbToOklab(c)
		c = oklabToRGB(1, a, b)
	case config.ColorQuantized:
		c = RGB{quantize5(c.R), quantize5(c.G), quantize5(c.B)}
	}
	return contrastBrightness(c, cfg.Contrast, cfg.Brightness)
}

func contrastBrightness(c RGB, contrast, brightness float64) RGB {
	adj := func(v uint8) uint8 {
		f := (float64(v)-128)*contrast + 128 + brightness*255
		return clampByte(f)
	}
	return RGB{adj(c.R), adj(c.G), adj(c.B)}
}

func clampByte(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f + 0.5)
}

// quantize5 snaps a channel to the nearest of six levels 51 apart.
func quantize5(v uint8) uint8 {
	q := (int(v) + 25) / 51 * 51
	if q > 255 {
		q = 255
	}
	return uint8(q)
}

// Oklab conversion after Björn Ottosson's reference formulation. go-colorful
// carries Lab/Luv but not Oklab, so the two 3×3 transforms live here.

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSrgb(v float64) float64 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func rgbToOklab(c RGB) (l, a, b float64) {
	r := srgbToLinear(float64(c.R) / 255)
	g := srgbToLinear(float64(c.G) / 255)
	bl := srgbToLinear(float64(c.B) / 255)

	lm := math.Cbrt(0.4122214708*r + 0.5363325363*g + 0.0514459929*bl)
	mm := math.Cbrt(0.2119034982*r + 0.6806995451*g + 0.1073969566*bl)
	sm := math.Cbrt(0.0883024619*r + 0.2817188376*g + 0.6299787005*bl)

	l = 0.2104542553*lm + 0.7936177850*mm - 0.0040720468*sm
	a = 1.9779984951*lm - 2.4285922050*mm + 0.4505937099*sm
	b = 0.0259040371*lm + 0.7827717662*mm - 0.8086757660*sm
	return
}

func oklabToRGB(l, a, b float64) RGB {
	lm := l + 0.3963377774*a + 0.2158037573*b
	mm := l - 0.1055613458*a - 0.0638541728*b
	sm := l - 0.0894841775*a - 1.2914855480*b

	lm, mm, sm = lm*lm*lm, mm*mm*mm, sm*sm*sm

	r := 4.0767416621*lm - 3.3077115913*mm + 0.2309699292*sm
	g := -1.2684380046*lm + 2.6097574011*mm - 0.3413193965*sm
	bl := -0.0041960863*lm - 0.7034186147*mm + 1.7076147010*sm

	return RGB{
		clampByte(linearToSrgb(clamp01(r)) * 255),
		clampByte(linearToSrgb(clamp01(g)) * 255),
		clampByte(linearToSrgb(clamp01(bl)) * 255),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RoundTripHSV converts through HSV and back; exported for the colour-mode
// round-trip invariant tests.
func RoundTripHSV(c RGB) RGB {
	col := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	h, s, v := col.Hsv()
	out := colorful.Hsv(h, s, v)
	return RGB{clampByte(out.R * 255), clampByte(out.G * 255), clampByte(out.B * 255)}
}

// RoundTripOklab converts through Oklab and back without forcing lightness.
func RoundTripOklab(c RGB) RGB {
	l, a, b := rgbToOklab(c)
	return oklabToRGB(l, a, b)
}

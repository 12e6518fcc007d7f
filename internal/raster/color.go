package raster

import "image/color"

// rgbColor is a device-independent RGB color in [0,1] per channel, the
// representation PDF content streams express fill/stroke color in
// regardless of which color operator set it.
type rgbColor struct {
	r, g, b float64
}

var colorBlack = rgbColor{}

func grayColor(v float64) rgbColor {
	v = clamp01(v)
	return rgbColor{r: v, g: v, b: v}
}

func rgbFromComponents(r, g, b float64) rgbColor {
	return rgbColor{r: clamp01(r), g: clamp01(g), b: clamp01(b)}
}

// cmykColor converts the subtractive CMYK components the "k"/"K" operators
// carry into additive RGB using the standard naive conversion.
func cmykColor(c, m, y, k float64) rgbColor {
	return rgbColor{
		r: clamp01((1 - c) * (1 - k)),
		g: clamp01((1 - m) * (1 - k)),
		b: clamp01((1 - y) * (1 - k)),
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

func (c rgbColor) toNRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(c.r * 255),
		G: uint8(c.g * 255),
		B: uint8(c.b * 255),
		A: 255,
	}
}

package blend

import "image"

// Load reads the premultiplied color of pixel (x, y) from an NRGBA image.
func Load(img *image.NRGBA, x, y int) Color {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	a := float64(p[3]) / 255
	return Color{
		R: float64(p[0]) / 255 * a,
		G: float64(p[1]) / 255 * a,
		B: float64(p[2]) / 255 * a,
		A: a,
	}
}

// Store writes a premultiplied color to pixel (x, y) of an NRGBA image,
// unpremultiplying and rounding to 8 bits.
func Store(img *image.NRGBA, x, y int, c Color) {
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	if c.A <= 0 {
		p[0], p[1], p[2], p[3] = 0, 0, 0, 0
		return
	}
	a := min(c.A, 1)
	p[0] = to8(c.R / a)
	p[1] = to8(c.G / a)
	p[2] = to8(c.B / a)
	p[3] = to8(a)
}

// Composite blends s onto pixel (x, y) of img using fn.
// Coordinates outside the image are ignored.
func Composite(img *image.NRGBA, x, y int, s Color, fn Func) {
	if !(image.Point{X: x, Y: y}).In(img.Rect) {
		return
	}
	Store(img, x, y, fn(s, Load(img, x, y)))
}

func to8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

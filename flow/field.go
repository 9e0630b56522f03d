package flow

import (
	"image"
	"image/color"
)

// DefaultFieldSize is the side of the field raster in pixels.
const DefaultFieldSize = 1024

// Neutral is the "zero motion" background: mid-gray direction, no anchor.
var Neutral = color.NRGBA{R: 128, G: 128, B: 0, A: 255}

// Field is a square raster encoding a direction and an anchor weight per
// cell. Red and green hold the direction as (v+1)/2, blue holds the anchor
// weight in [0,1].
type Field struct {
	img *image.NRGBA
}

// NewField creates a neutral field of the given side length.
func NewField(size int) *Field {
	f := &Field{img: image.NewNRGBA(image.Rect(0, 0, size, size))}
	f.Clear()
	return f
}

// Size returns the side length in pixels.
func (f *Field) Size() int {
	return f.img.Rect.Dx()
}

// Image returns the raster. Callers must treat it as read-only.
func (f *Field) Image() *image.NRGBA {
	return f.img
}

// Clear resets every cell to Neutral.
func (f *Field) Clear() {
	pix := f.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = Neutral.R
		pix[i+1] = Neutral.G
		pix[i+2] = Neutral.B
		pix[i+3] = Neutral.A
	}
}

// At decodes cell (x, y) into a direction in [-1,1]² and an anchor weight.
// Out-of-range cells are clamped to the nearest edge.
func (f *Field) At(x, y int) (dx, dy, weight float64) {
	s := f.Size()
	x = min(max(x, 0), s-1)
	y = min(max(y, 0), s-1)
	i := f.img.PixOffset(x, y)
	p := f.img.Pix[i : i+3 : i+3]
	return (float64(p[0])/255 - 0.5) * 2, (float64(p[1])/255 - 0.5) * 2, float64(p[2]) / 255
}

// AtPoint decodes the cell under the normalized point p.
func (f *Field) AtPoint(p Point) (dx, dy, weight float64) {
	s := float64(f.Size())
	return f.At(int(p.X*s), int(p.Y*s))
}

// Encode maps a unit direction to the red and green channel values used by
// the field, in 0..255.
func Encode(dx, dy float64) (r, g float64) {
	return (dx + 1) * 127.5, (dy + 1) * 127.5
}

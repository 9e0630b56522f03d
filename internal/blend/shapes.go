package blend

import (
	"image"
	"math"
)

// coverage is the antialiased coverage of a pixel whose center lies at
// signed distance sd from a shape edge (negative inside).
func coverage(sd float64) float64 {
	return min(max(0.5-sd, 0), 1)
}

// clipBox returns the pixel rectangle covering [x0,x1)×[y0,y1) intersected
// with the image bounds.
func clipBox(img *image.NRGBA, x0, y0, x1, y1 float64) image.Rectangle {
	r := image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	)
	return r.Intersect(img.Rect)
}

// Disc fills an antialiased circle of radius r centered at (cx, cy).
func Disc(img *image.NRGBA, cx, cy, r float64, c Color, fn Func) {
	if r <= 0 {
		return
	}
	box := clipBox(img, cx-r-1, cy-r-1, cx+r+1, cy+r+1)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if cov := coverage(d - r); cov > 0 {
				Composite(img, x, y, c.Scale(cov), fn)
			}
		}
	}
}

// Segment strokes the line from (ax, ay) to (bx, by) with round caps.
func Segment(img *image.NRGBA, ax, ay, bx, by, width float64, c Color, fn Func) {
	hw := width / 2
	if hw <= 0 {
		return
	}
	dx, dy := bx-ax, by-ay
	l2 := dx*dx + dy*dy
	box := clipBox(img, min(ax, bx)-hw-1, min(ay, by)-hw-1, max(ax, bx)+hw+1, max(ay, by)+hw+1)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			px, py := float64(x)+0.5-ax, float64(y)+0.5-ay
			t := 0.0
			if l2 > 0 {
				t = min(max((px*dx+py*dy)/l2, 0), 1)
			}
			d := math.Hypot(px-t*dx, py-t*dy)
			if cov := coverage(d - hw); cov > 0 {
				Composite(img, x, y, c.Scale(cov), fn)
			}
		}
	}
}

// Mask composites c through an alpha mask whose top-left corner is at.
func Mask(img *image.NRGBA, mask *image.Alpha, at image.Point, c Color, fn Func) {
	mb := mask.Bounds()
	dst := mb.Sub(mb.Min).Add(at).Intersect(img.Rect)
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		for x := dst.Min.X; x < dst.Max.X; x++ {
			a := mask.AlphaAt(x-at.X+mb.Min.X, y-at.Y+mb.Min.Y).A
			if a == 0 {
				continue
			}
			Composite(img, x, y, c.Scale(float64(a)/255), fn)
		}
	}
}

// Fill composites c over every pixel of img.
func Fill(img *image.NRGBA, c Color, fn Func) {
	b := img.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			Composite(img, x, y, c, fn)
		}
	}
}

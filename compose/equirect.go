package compose

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/pierkiroule/Pixaloop/internal/parallel"
)

// Equirect remaps the square frame onto a 2:1 equirectangular panorama for
// skybox players.
//
// Longitude runs from -π to π across the width and latitude from -π/2 to
// π/2 down the height, endpoints included. An output pixel at (λ, φ) reads
// the frame at angle φ and radius max(cos λ, 0)/2 around its center, so the
// frame fills the front hemisphere and the back collapses onto the center
// texel. Sampling is bicubic with wrap-around addressing.
//
// An Equirect is not safe for concurrent use.
type Equirect struct {
	w, h int
	pool *parallel.WorkerPool

	radius []float64 // per column
	cosLat []float64 // per row
	sinLat []float64 // per row

	src *image.RGBA
	out *image.RGBA
}

// NewEquirect creates a projector for a w×h panorama. Non-positive sizes
// select DefaultWidth×DefaultHeight.
func NewEquirect(w, h int, opts ...Option) *Equirect {
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
	}
	e := &Equirect{
		w:      w,
		h:      h,
		pool:   apply(opts).pool,
		radius: make([]float64, w),
		cosLat: make([]float64, h),
		sinLat: make([]float64, h),
		out:    image.NewRGBA(image.Rect(0, 0, w, h)),
	}
	for x := range w {
		e.radius[x] = max(math.Cos(linspace(-math.Pi, math.Pi, x, w)), 0) / 2
	}
	for y := range h {
		e.sinLat[y], e.cosLat[y] = math.Sincos(linspace(-math.Pi/2, math.Pi/2, y, h))
	}
	return e
}

func linspace(lo, hi float64, i, n int) float64 {
	if n == 1 {
		return lo
	}
	return lo + (hi-lo)*float64(i)/float64(n-1)
}

// Size returns the panorama size.
func (e *Equirect) Size() (w, h int) { return e.w, e.h }

// Project renders frame into the projector's buffer and returns it. The
// result is overwritten by the next call.
func (e *Equirect) Project(frame image.Image) *image.RGBA {
	e.ProjectInto(e.out, frame)
	return e.out
}

// ProjectInto renders frame into dst, which must be at least the panorama
// size. A nil or empty frame yields opaque black.
func (e *Equirect) ProjectInto(dst *image.RGBA, frame image.Image) {
	r := image.Rect(0, 0, e.w, e.h).Add(dst.Rect.Min)
	if frame == nil || frame.Bounds().Empty() {
		xdraw.Draw(dst, r, image.Black, image.Point{}, xdraw.Src)
		return
	}
	src := e.rgba(frame)
	sw, sh := float64(src.Rect.Dx()), float64(src.Rect.Dy())
	rows(e.pool, e.h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			i := dst.PixOffset(r.Min.X, r.Min.Y+y)
			row := dst.Pix[i : i+e.w*4 : i+e.w*4]
			cl, sl := e.cosLat[y], e.sinLat[y]
			for x, rad := range e.radius {
				c := bicubicWrap(src, (cl*rad+0.5)*sw, (sl*rad+0.5)*sh)
				copy(row[x*4:x*4+4], c[:])
			}
		}
	})
}

// rgba returns frame as an RGBA raster with its origin at (0, 0), converting
// into a reused buffer when needed.
func (e *Equirect) rgba(frame image.Image) *image.RGBA {
	b := frame.Bounds()
	if m, ok := frame.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return m
	}
	if e.src == nil || e.src.Rect.Size() != b.Size() {
		e.src = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	xdraw.Copy(e.src, image.Point{}, frame, b, xdraw.Src, nil)
	return e.src
}

// bicubicWrap samples img at pixel coordinates (fx, fy), integers being
// texel centers, with a Catmull-Rom kernel and wrap-around addressing.
func bicubicWrap(img *image.RGBA, fx, fy float64) [4]uint8 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	x0, y0 := math.Floor(fx), math.Floor(fy)
	wx, wy := catmullRom(fx-x0), catmullRom(fy-y0)
	ix, iy := int(x0)-1, int(y0)-1

	var acc [4]float64
	for j, ky := range wy {
		off := wrapIndex(iy+j, h) * img.Stride
		var racc [4]float64
		for i, kx := range wx {
			p := img.Pix[off+wrapIndex(ix+i, w)*4:][:4:4]
			racc[0] += kx * float64(p[0])
			racc[1] += kx * float64(p[1])
			racc[2] += kx * float64(p[2])
			racc[3] += kx * float64(p[3])
		}
		for k := range acc {
			acc[k] += ky * racc[k]
		}
	}

	// Premultiplied: color never exceeds alpha.
	a := min(max(acc[3], 0), 255)
	return [4]uint8{
		uint8(math.Round(min(max(acc[0], 0), a))),
		uint8(math.Round(min(max(acc[1], 0), a))),
		uint8(math.Round(min(max(acc[2], 0), a))),
		uint8(math.Round(a)),
	}
}

// catmullRom returns the four tap weights for fractional offset t.
func catmullRom(t float64) [4]float64 {
	t2, t3 := t*t, t*t*t
	return [4]float64{
		-0.5*t3 + t2 - 0.5*t,
		1.5*t3 - 2.5*t2 + 1,
		-1.5*t3 + 2*t2 + 0.5*t,
		0.5*t3 - 0.5*t2,
	}
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

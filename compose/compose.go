// Package compose projects the square warped frame into the wide master
// frame used for dome projection.
//
// The master frame is white. The square frame is scaled into a centered
// circle (the dome) whose diameter is 94% of the frame height, and a white
// radial vignette feathers the dome edge into the surround.
package compose

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/pierkiroule/Pixaloop/internal/parallel"
)

// Default master frame size (2:1 equirectangular).
const (
	DefaultWidth  = 3840
	DefaultHeight = 1920
)

const (
	// DomeScale is the dome diameter relative to the frame height.
	DomeScale = 0.94
	// VignetteStart is where the vignette begins, relative to the dome radius.
	VignetteStart = 0.65
)

// Compositor renders master frames. It caches the dome geometry, so one
// Compositor should be reused across frames of the same size.
//
// A Compositor is not safe for concurrent use.
type Compositor struct {
	w, h   int
	radius float64
	dome   image.Rectangle

	clip     *image.Alpha // antialiased dome circle, dome-local
	vignette *image.Alpha // white overlay coverage, dome-local
	scaled   *image.RGBA
	out      *image.RGBA
	pool     *parallel.WorkerPool

	// scaler is reused while the square frame keeps its size.
	scaler  xdraw.Scaler
	scaleSz image.Point
}

// Option configures a Compositor or an Equirect projector.
type Option func(*settings)

type settings struct {
	pool *parallel.WorkerPool
}

// WithPool fans the work out over pool in row bands. Without a pool it runs
// on the calling goroutine.
func WithPool(pool *parallel.WorkerPool) Option {
	return func(s *settings) { s.pool = pool }
}

func apply(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// rows runs fn over [0, height) in bands on pool, or inline without one.
func rows(pool *parallel.WorkerPool, height int, fn func(y0, y1 int)) {
	if pool == nil {
		fn(0, height)
		return
	}
	pool.Rows(height, fn)
}

// New creates a compositor for a w×h master frame. Non-positive sizes select
// the defaults.
func New(w, h int, opts ...Option) *Compositor {
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
	}
	r := DomeScale * float64(h) / 2
	cx, cy := float64(w)/2, float64(h)/2
	dome := image.Rect(
		int(math.Floor(cx-r)), int(math.Floor(cy-r)),
		int(math.Ceil(cx+r)), int(math.Ceil(cy+r)),
	)
	c := &Compositor{
		w:      w,
		h:      h,
		radius: r,
		dome:   dome,
		scaled: image.NewRGBA(image.Rect(0, 0, dome.Dx(), dome.Dy())),
		out:    image.NewRGBA(image.Rect(0, 0, w, h)),
		pool:   apply(opts).pool,
	}
	c.clip, c.vignette = c.masks(cx, cy)
	return c
}

// Size returns the master frame size.
func (c *Compositor) Size() (w, h int) { return c.w, c.h }

// Dome returns the dome center and radius in master-frame pixels.
func (c *Compositor) Dome() (cx, cy, r float64) {
	return float64(c.w) / 2, float64(c.h) / 2, c.radius
}

// Compose renders frame into the compositor's buffer and returns it. The
// result is overwritten by the next call.
func (c *Compositor) Compose(frame image.Image) *image.RGBA {
	c.ComposeInto(c.out, frame)
	return c.out
}

// ComposeInto renders frame into dst, which must be at least the master
// frame size.
func (c *Compositor) ComposeInto(dst *image.RGBA, frame image.Image) {
	r := image.Rect(0, 0, c.w, c.h).Add(dst.Rect.Min)
	dome := c.dome.Add(dst.Rect.Min)
	var scaler xdraw.Scaler
	if frame != nil && !frame.Bounds().Empty() {
		scaler = c.scalerFor(frame.Bounds().Size())
	}
	rows(c.pool, c.h, func(y0, y1 int) {
		band := image.Rect(r.Min.X, r.Min.Y+y0, r.Max.X, r.Min.Y+y1)
		xdraw.Draw(dst, band, image.White, image.Point{}, xdraw.Src)
		db := band.Intersect(dome)
		if scaler == nil || db.Empty() {
			return
		}
		// Each band scales only its own rows of the dome; the mapping
		// is fixed by the full dome rectangle.
		local := db.Sub(dome.Min)
		scaler.Scale(c.scaled.SubImage(local).(*image.RGBA), c.scaled.Rect, frame, frame.Bounds(), xdraw.Src, nil)
		xdraw.DrawMask(dst, db, c.scaled, local.Min, c.clip, local.Min, xdraw.Over)
		xdraw.DrawMask(dst, db, image.White, image.Point{}, c.vignette, local.Min, xdraw.Over)
	})
}

func (c *Compositor) scalerFor(src image.Point) xdraw.Scaler {
	if c.scaler == nil || c.scaleSz != src {
		c.scaler = xdraw.CatmullRom.NewScaler(c.scaled.Rect.Dx(), c.scaled.Rect.Dy(), src.X, src.Y)
		c.scaleSz = src
	}
	return c.scaler
}

// masks rasterizes the dome clip and the vignette over the dome's bounding
// square. Coverage is evaluated at pixel centers.
func (c *Compositor) masks(cx, cy float64) (clip, vignette *image.Alpha) {
	b := image.Rect(0, 0, c.dome.Dx(), c.dome.Dy())
	clip = image.NewAlpha(b)
	vignette = image.NewAlpha(b)
	r := c.radius
	inner := VignetteStart * r
	rows(c.pool, b.Dy(), func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			py := float64(c.dome.Min.Y+y) + 0.5 - cy
			for x := range b.Dx() {
				px := float64(c.dome.Min.X+x) + 0.5 - cx
				d := math.Hypot(px, py)
				cov := min(max(r-d+0.5, 0), 1)
				clip.SetAlpha(x, y, color.Alpha{A: uint8(math.Round(cov * 255))})
				v := min(max((d-inner)/(r-inner), 0), 1)
				vignette.SetAlpha(x, y, color.Alpha{A: uint8(math.Round(v * 255))})
			}
		}
	})
	return clip, vignette
}

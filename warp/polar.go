package warp

import (
	"fmt"
	"image"
	"math"

	"github.com/pierkiroule/Pixaloop/internal/parallel"
)

// DefaultPolarStrength is the swirl strength used for exports.
const DefaultPolarStrength = 0.35

// PolarRemap displaces src around its center along field and writes the
// result to dst.
//
// The field's red direction turns each pixel about the center by up to
// strength radians, fading to nothing at the rim of the inscribed circle.
// The green direction moves it outward or inward by up to strength/2 of the
// frame, clamped to that circle. Addressing wraps on both axes. Rows are
// shaded on pool, or on the calling goroutine when pool is nil.
func PolarRemap(dst *image.NRGBA, src, field *Texture, strength float64, pool *parallel.WorkerPool) error {
	if dst == nil || dst.Rect.Empty() {
		return fmt.Errorf("warp: polar remap: %w", ErrEmptyTexture)
	}
	if src == nil || field == nil {
		return fmt.Errorf("warp: polar remap: missing input: %w", ErrEmptyTexture)
	}
	b := dst.Rect
	w, h := b.Dx(), b.Dy()
	shadeRows := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			i := dst.PixOffset(b.Min.X, b.Min.Y+y)
			row := dst.Pix[i : i+w*4 : i+w*4]
			v := (float64(y) + 0.5) / float64(h)
			for x := range w {
				uv := vec2{(float64(x) + 0.5) / float64(w), v}
				c := src.sampleWrap(polar(uv, field.sample(uv), strength))
				o := row[x*4 : x*4+4 : x*4+4]
				o[0] = to8(c.r)
				o[1] = to8(c.g)
				o[2] = to8(c.b)
				o[3] = to8(c.a)
			}
		}
	}
	if pool == nil {
		shadeRows(0, h)
		return nil
	}
	pool.Rows(h, shadeRows)
	return nil
}

// polar returns the point uv reads from under flow sample f.
func polar(uv vec2, f vec4, strength float64) vec2 {
	d := uv.sub(vec2{0.5, 0.5})
	theta := math.Atan2(d.y, d.x)
	r := math.Hypot(d.x, d.y)
	dx, dy := (f.r-0.5)*2, (f.g-0.5)*2
	theta += dx * strength * clampf(1-2*r, 0, 1)
	r = clampf(r+dy*strength*0.5, 0, 0.5)
	return vec2{0.5 + math.Cos(theta)*r, 0.5 + math.Sin(theta)*r}
}

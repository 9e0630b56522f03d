package flow

import (
	"image"
	"math"

	"github.com/pierkiroule/Pixaloop/internal/blend"
)

// colorStop is a premultiplied color at an offset of a gradient.
type colorStop struct {
	offset float64
	color  blend.Color
}

// radialSplat is a concentric radial gradient from the center (t=0) to
// radius (t=1), padded beyond both ends.
type radialSplat struct {
	cx, cy float64
	radius float64
	stops  []colorStop
}

// colorAt returns the premultiplied gradient color at (x, y).
func (g *radialSplat) colorAt(x, y float64) blend.Color {
	if g.radius <= 0 || len(g.stops) == 0 {
		return blend.Color{}
	}
	t := math.Hypot(x-g.cx, y-g.cy) / g.radius
	return stopColor(g.stops, t)
}

// stopColor interpolates sorted stops at t with pad extension.
func stopColor(stops []colorStop, t float64) blend.Color {
	if t <= stops[0].offset {
		return stops[0].color
	}
	last := stops[len(stops)-1]
	if t >= last.offset {
		return last.color
	}
	for i := 1; i < len(stops); i++ {
		s0, s1 := stops[i-1], stops[i]
		if t > s1.offset {
			continue
		}
		if s1.offset == s0.offset {
			return s0.color
		}
		k := (t - s0.offset) / (s1.offset - s0.offset)
		return blend.Color{
			R: s0.color.R + (s1.color.R-s0.color.R)*k,
			G: s0.color.G + (s1.color.G-s0.color.G)*k,
			B: s0.color.B + (s1.color.B-s0.color.B)*k,
			A: s0.color.A + (s1.color.A-s0.color.A)*k,
		}
	}
	return last.color
}

// fill composites the splat over its bounding box in dst. Pixels are
// sampled at their centers; fully transparent gradient samples are skipped.
func (g *radialSplat) fill(dst *image.NRGBA, op blend.Func) {
	b := image.Rect(
		int(math.Floor(g.cx-g.radius)), int(math.Floor(g.cy-g.radius)),
		int(math.Ceil(g.cx+g.radius))+1, int(math.Ceil(g.cy+g.radius))+1,
	).Intersect(dst.Rect)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := g.colorAt(float64(x)+0.5, float64(y)+0.5)
			if c.A <= 0 {
				continue
			}
			blend.Composite(dst, x, y, c, op)
		}
	}
}

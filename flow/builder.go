package flow

import (
	"math"

	"github.com/pierkiroule/Pixaloop/internal/blend"
	"github.com/pierkiroule/Pixaloop/internal/logging"
)

// Splat geometry on the reference 1024 px grid. Radii scale with the field.
const (
	referenceSize = 1024

	// PathRadius is the radius of a path segment splat.
	PathRadius = 130.0

	// PathStrength is the alpha at the center of a path splat.
	PathStrength = 0.3

	// AnchorRadius is the radius of an anchor splat.
	AnchorRadius = 90.0

	// minSegmentLength floors degenerate segment lengths.
	minSegmentLength = 1e-6
)

// Builder owns the flow field and regenerates it from paths and anchors.
// It is not safe for concurrent use; the render loop owns it.
type Builder struct {
	field  *Field
	dirty  bool
	builds int
}

// NewBuilder creates a builder for a field of the given side length.
// A non-positive size selects DefaultFieldSize.
func NewBuilder(size int) *Builder {
	if size <= 0 {
		size = DefaultFieldSize
	}
	return &Builder{field: NewField(size), dirty: true}
}

// Invalidate marks the field stale. The next Field call rebuilds it.
func (b *Builder) Invalidate() {
	b.dirty = true
}

// Dirty reports whether the field needs rebuilding.
func (b *Builder) Dirty() bool {
	return b.dirty
}

// Builds returns how many times the field was regenerated.
func (b *Builder) Builds() int {
	return b.builds
}

// Field returns the current field, regenerating it first if invalidated.
func (b *Builder) Field(paths []*Path, anchors []Point) *Field {
	if b.dirty {
		Paint(b.field, paths, anchors)
		b.dirty = false
		b.builds++
		logging.Logger().Debug("flow: field rebuilt",
			"paths", len(paths), "anchors", len(anchors), "size", b.field.Size())
	}
	return b.field
}

// Paint regenerates f from scratch: neutral background, path splats with
// source-over blending, then anchor splats with additive blending.
func Paint(f *Field, paths []*Path, anchors []Point) {
	f.Clear()
	size := float64(f.Size())
	scale := size / referenceSize

	over := blend.Get(blend.SourceOver)
	for _, p := range paths {
		if p == nil || p.Len() < 2 {
			continue
		}
		p.Segments(func(a, b Point) {
			pathSplat(a, b, size, PathRadius*scale).fill(f.img, over)
		})
	}

	lighter := blend.Get(blend.Plus)
	for _, a := range anchors {
		anchorSplat(a, size, AnchorRadius*scale).fill(f.img, lighter)
	}
}

// pathSplat builds the gradient for segment a→b, centered at a.
func pathSplat(a, b Point, size, radius float64) *radialSplat {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := max(math.Hypot(dx, dy), minSegmentLength)
	r, g := Encode(dx/l, dy/l)
	r, g = r/255, g/255
	return &radialSplat{
		cx:     a.X * size,
		cy:     a.Y * size,
		radius: radius,
		stops: []colorStop{
			{offset: 0, color: blend.Premul(r, g, 0, PathStrength)},
			{offset: 1, color: blend.Premul(r, g, 0, 0)},
		},
	}
}

// anchorSplat builds the solid-blue gradient of an anchor.
func anchorSplat(a Point, size, radius float64) *radialSplat {
	return &radialSplat{
		cx:     a.X * size,
		cy:     a.Y * size,
		radius: radius,
		stops: []colorStop{
			{offset: 0, color: blend.Premul(0, 0, 1, 1)},
			{offset: 1, color: blend.Premul(0, 0, 1, 0)},
		},
	}
}

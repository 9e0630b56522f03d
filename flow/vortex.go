package flow

import "math"

const (
	// VortexRadius is the radius of the disk all gesture points lie in.
	VortexRadius = 0.5

	// CurveWeight is the angular and radial weight given to the incoming
	// point when easing a path toward the vortex.
	CurveWeight = 0.65

	// MinPointSpacing is the minimal normalized distance between two
	// accepted path points.
	MinPointSpacing = 0.005

	// rimTolerance absorbs rounding so a projected point is never
	// projected again.
	rimTolerance = 1e-12
)

// ClampToVortex projects p onto the vortex rim when it lies outside the
// vortex disk and returns it unchanged otherwise. It is idempotent.
func ClampToVortex(p Point) Point {
	d := p.Sub(Center)
	r := d.Len()
	if r <= VortexRadius+rimTolerance {
		return p
	}
	k := VortexRadius / r
	return Point{X: Center.X + d.X*k, Y: Center.Y + d.Y*k}
}

// CurveTowardVortex eases next toward prev in polar coordinates about the
// vortex center. With no previous point it returns ClampToVortex(next).
//
// The angle moves along the shortest arc from prev to next by CurveWeight;
// the radius is 0.35*prevR + 0.65*nextR, capped at VortexRadius.
func CurveTowardVortex(next Point, prev *Point) Point {
	if prev == nil {
		return ClampToVortex(next)
	}
	nextTheta, nextR := next.polar()
	prevTheta, prevR := prev.polar()

	delta := shortestArc(prevTheta, nextTheta)
	theta := prevTheta + delta*CurveWeight
	r := min((1-CurveWeight)*prevR+CurveWeight*nextR, VortexRadius)
	return fromPolar(theta, r)
}

// shortestArc returns the signed angle in (-π, π] that rotates from to to.
func shortestArc(from, to float64) float64 {
	d := math.Mod(to-from, 2*math.Pi)
	switch {
	case d > math.Pi:
		d -= 2 * math.Pi
	case d <= -math.Pi:
		d += 2 * math.Pi
	}
	return d
}

// Filter constrains raw pointer input into field-ready points.
// The zero value is ready to use.
type Filter struct {
	last   Point
	hasPts bool
}

// Reset forgets the last accepted point. Call it when a gesture begins.
func (f *Filter) Reset() {
	f.hasPts = false
}

// Accept filters a raw path point. It returns the eased point and whether
// it is far enough from the previously accepted point to be appended.
func (f *Filter) Accept(raw Point) (Point, bool) {
	var prev *Point
	if f.hasPts {
		prev = &f.last
	}
	p := CurveTowardVortex(raw, prev)
	if f.hasPts && p.Dist(f.last) < MinPointSpacing {
		return p, false
	}
	f.last = p
	f.hasPts = true
	return p, true
}

// Anchor filters a raw anchor point. Anchors are clamped but never eased.
func (f *Filter) Anchor(raw Point) Point {
	return ClampToVortex(raw)
}

package flow

import "errors"

// ErrPathFrozen is returned when appending to a path whose gesture ended.
var ErrPathFrozen = errors.New("flow: path is frozen")

// Path is an ordered sequence of points recorded during one gesture.
// It is append-only until Freeze is called.
type Path struct {
	points []Point
	frozen bool
}

// NewPath creates an active path starting at p.
func NewPath(p Point) *Path {
	return &Path{points: []Point{p}}
}

// Append adds p to the end of an active path.
func (pa *Path) Append(p Point) error {
	if pa.frozen {
		return ErrPathFrozen
	}
	pa.points = append(pa.points, p)
	return nil
}

// Freeze ends the gesture. Further appends fail.
func (pa *Path) Freeze() {
	pa.frozen = true
}

// Frozen reports whether the path's gesture has ended.
func (pa *Path) Frozen() bool {
	return pa.frozen
}

// Len returns the number of points.
func (pa *Path) Len() int {
	return len(pa.points)
}

// Points returns a copy of the path's points.
func (pa *Path) Points() []Point {
	out := make([]Point, len(pa.points))
	copy(out, pa.points)
	return out
}

// Last returns the most recent point.
func (pa *Path) Last() (Point, bool) {
	if len(pa.points) == 0 {
		return Point{}, false
	}
	return pa.points[len(pa.points)-1], true
}

// Segments calls fn for each consecutive point pair.
func (pa *Path) Segments(fn func(a, b Point)) {
	for i := 1; i < len(pa.points); i++ {
		fn(pa.points[i-1], pa.points[i])
	}
}

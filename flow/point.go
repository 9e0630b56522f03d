package flow

import "math"

// Point is a normalized canvas coordinate in [0,1]².
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Len returns the Euclidean length of p treated as a vector.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 {
	return p.Sub(q).Len()
}

// Center is the vortex center.
var Center = Point{X: 0.5, Y: 0.5}

// polar returns the angle and radius of p about Center.
func (p Point) polar() (theta, radius float64) {
	d := p.Sub(Center)
	return math.Atan2(d.Y, d.X), d.Len()
}

// fromPolar is the inverse of polar.
func fromPolar(theta, radius float64) Point {
	return Point{
		X: Center.X + math.Cos(theta)*radius,
		Y: Center.Y + math.Sin(theta)*radius,
	}
}

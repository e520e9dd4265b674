// Package geom holds the small amount of plane geometry the swarm core needs:
// points and rectangles in world units, headings in degrees, line intersection
// and the hole (gap) computation over a row of obstacles.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point is a position in world units. +x is right, +y is "forward" (the
// direction agents cross the field).
type Point = orb.Point

// Pt builds a Point.
func Pt(x, y float64) Point { return Point{x, y} }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return planar.Distance(a, b)
}

// Rect is an axis-aligned rectangle. Y is the near edge (lowest y), Y+H the far edge.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Top returns the far (upper) edge.
func (r Rect) Top() float64 { return r.Y + r.H }

// Bound converts the rectangle to an orb.Bound.
func (r Rect) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{r.X, r.Y}, Max: orb.Point{r.X + r.W, r.Y + r.H}}
}

// Contains reports whether p lies inside or on the rectangle.
func (r Rect) Contains(p Point) bool {
	return r.Bound().Contains(p)
}

const degPerRad = 180 / math.Pi

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg / degPerRad }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * degPerRad }

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// HeadingTo returns the heading in degrees [0, 360) from (ax,ay) toward (bx,by).
// A zero-length vector yields 90 (straight ahead).
func HeadingTo(a, b Point) float64 {
	dx := b.X() - a.X()
	dy := b.Y() - a.Y()
	if math.Abs(dx) < 1e-12 && math.Abs(dy) < 1e-12 {
		return 90
	}
	return NormalizeDegrees(Degrees(math.Atan2(dy, dx)))
}

// AngleBetween returns the unsigned smallest difference between two headings, in [0, 180].
func AngleBetween(a, b float64) float64 {
	d := math.Abs(NormalizeDegrees(a) - NormalizeDegrees(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Advance moves p by dist along heading (degrees).
func Advance(p Point, heading, dist float64) Point {
	rad := Radians(heading)
	return Pt(p.X()+math.Cos(rad)*dist, p.Y()+math.Sin(rad)*dist)
}

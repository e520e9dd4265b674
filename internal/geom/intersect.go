package geom

import "math"

// parallelEps is the determinant magnitude below which two lines of travel are
// treated as parallel.
const parallelEps = 1e-9

// LineIntersection returns the point where the line through p1 with heading h1
// crosses the line through p2 with heading h2 (headings in degrees). The bool
// is false for parallel or anti-parallel lines, which have no single crossing.
func LineIntersection(p1 Point, h1 float64, p2 Point, h2 float64) (Point, bool) {
	r1 := Radians(h1)
	r2 := Radians(h2)
	d1x, d1y := math.Cos(r1), math.Sin(r1)
	d2x, d2y := math.Cos(r2), math.Sin(r2)

	// p1 + t*d1 = p2 + s*d2, solved for t by Cramer's rule.
	det := d1x*d2y - d1y*d2x
	if math.Abs(det) < parallelEps {
		return Point{}, false
	}
	wx := p2.X() - p1.X()
	wy := p2.Y() - p1.Y()
	t := (wx*d2y - wy*d2x) / det
	return Pt(p1.X()+t*d1x, p1.Y()+t*d1y), true
}

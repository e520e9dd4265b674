package geom

// SegmentHitsRect reports whether the segment a->b touches r, clipping the
// segment against each axis slab in turn.
func SegmentHitsRect(a, b Point, r Rect) bool {
	lo, hi := 0.0, 1.0
	clip := func(origin, delta, min, max float64) bool {
		if delta > -1e-12 && delta < 1e-12 {
			return origin >= min && origin <= max
		}
		t0, t1 := (min-origin)/delta, (max-origin)/delta
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > lo {
			lo = t0
		}
		if t1 < hi {
			hi = t1
		}
		return lo <= hi
	}
	return clip(a.X(), b.X()-a.X(), r.X, r.Right()) &&
		clip(a.Y(), b.Y()-a.Y(), r.Y, r.Top())
}

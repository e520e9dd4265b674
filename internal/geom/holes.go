package geom

import (
	"math"
	"sort"
)

// Hole is an open horizontal interval in a row of obstacles.
type Hole struct {
	// Start is the left end of the gap; its Y is the near edge of the
	// obstacle bounding the gap. Start also identifies the hole.
	Start Point
	Width float64
	// Offset is agentX minus the hole centre: negative when the hole lies to
	// the agent's right.
	Offset float64
}

// Centre returns the x coordinate of the middle of the hole.
func (h Hole) Centre() float64 { return h.Start.X() + h.Width/2 }

// End returns the x coordinate of the right end of the hole.
func (h Hole) End() float64 { return h.Start.X() + h.Width }

// SortByX sorts rectangles left to right, stable for equal x.
func SortByX(rects []Rect) {
	sort.SliceStable(rects, func(i, j int) bool { return rects[i].X < rects[j].X })
}

// Holes computes the gaps in a row of obstacles sorted by x, over the field
// [0, width]. The layout is
//
//	hole_0 [obstacle_0] hole_1 [obstacle_1] ... [obstacle_n] hole_n+1
//
// where the outer holes may be absent. Overlapping or x-coincident obstacles
// produce no hole between them. Each hole carries its signed offset from agentX.
func Holes(sorted []Rect, width, agentX float64) []Hole {
	if len(sorted) == 0 {
		return nil
	}
	var holes []Hole
	add := func(startX, y, end float64) {
		h := Hole{Start: Pt(startX, y), Width: end - startX}
		h.Offset = agentX - h.Centre()
		holes = append(holes, h)
	}

	first := sorted[0]
	if first.X > 0 {
		add(0, first.Y, first.X)
	}
	edge := first.Right()
	edgeY := first.Y
	for _, ob := range sorted[1:] {
		if ob.X > edge {
			add(edge, edgeY, ob.X)
		}
		if ob.Right() > edge {
			edge = ob.Right()
			edgeY = ob.Y
		}
	}
	if edge < width {
		add(edge, edgeY, width)
	}
	return holes
}

// BestHole picks the passable hole closest to the agent. A hole is passable
// when its width exceeds 2*clearance. Ties keep the earlier hole. The bool is
// false when no hole is passable.
func BestHole(holes []Hole, clearance float64) (Hole, bool) {
	best := Hole{}
	found := false
	for _, h := range holes {
		if h.Width <= 2*clearance {
			continue
		}
		if !found || math.Abs(h.Offset) < math.Abs(best.Offset) {
			best = h
			found = true
		}
	}
	return best, found
}

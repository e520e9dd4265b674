package swarm

import (
	"math"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
)

// Target is the circular convergence zone at the far end of the field.
type Target struct {
	Center geom.Point
	Radius float64
}

// Side says which half of the formation an agent approaches from.
type Side int

const (
	SideLeft  Side = iota // agent x < target x
	SideRight             // agent x >= target x
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// SlotTable is the fixed set of angular positions on the lower semicircle of
// the target. Slot 0 is leftmost (near 180°), slot n-1 rightmost (near 0°).
// The left half is [0, ceil(n/2)), the right half the rest.
type SlotTable struct {
	target  Target
	claimed []bool
	claims  int
}

// NewSlotTable creates an empty table of n slots around target.
func NewSlotTable(target Target, n int) *SlotTable {
	if n < 0 {
		n = 0
	}
	return &SlotTable{target: target, claimed: make([]bool, n)}
}

// Len returns the number of slots.
func (t *SlotTable) Len() int { return len(t.claimed) }

// Claims returns how many slots have been claimed so far.
func (t *SlotTable) Claims() int { return t.claims }

// Claimed reports whether slot k is taken.
func (t *SlotTable) Claimed(k int) bool {
	return k >= 0 && k < len(t.claimed) && t.claimed[k]
}

// half returns the first index of the right half.
func (t *SlotTable) half() int {
	return (len(t.claimed) + 1) / 2
}

// SlotAngle returns the angle of slot k seen from the target centre, degrees.
func (t *SlotTable) SlotAngle(k int) float64 {
	n := float64(len(t.claimed))
	return 180 - (float64(k)+0.5)*180/n
}

// SlotPosition returns the world position of slot k.
func (t *SlotTable) SlotPosition(k int) geom.Point {
	rad := geom.Radians(t.SlotAngle(k))
	c := t.target.Center
	return geom.Pt(c.X()+t.target.Radius*math.Cos(rad), c.Y()-t.target.Radius*math.Sin(rad))
}

// Claim takes the first free slot for side. Each side fills its own half
// first, scanning from its outer edge inward; once that half is full it
// overflows into the other half starting from that half's far end. The bool is
// false when every slot is taken.
func (t *SlotTable) Claim(side Side) (int, bool) {
	n := len(t.claimed)
	mid := t.half()
	var order []int
	if side == SideLeft {
		for k := 0; k < mid; k++ {
			order = append(order, k)
		}
		for k := n - 1; k >= mid; k-- {
			order = append(order, k)
		}
	} else {
		for k := n - 1; k >= mid; k-- {
			order = append(order, k)
		}
		for k := 0; k < mid; k++ {
			order = append(order, k)
		}
	}
	for _, k := range order {
		if !t.claimed[k] {
			t.claimed[k] = true
			t.claims++
			return k, true
		}
	}
	return -1, false
}

// SideOf returns the approach side for an agent at x.
func (t *SlotTable) SideOf(x float64) Side {
	if x < t.target.Center.X() {
		return SideLeft
	}
	return SideRight
}

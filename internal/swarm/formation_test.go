package swarm

import (
	"math"
	"testing"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
)

func testTarget() Target {
	return Target{Center: geom.Pt(10, 45), Radius: 5}
}

func TestSlotTable_PositionsOnLowerSemicircle(t *testing.T) {
	tbl := NewSlotTable(testTarget(), 7)
	for k := 0; k < tbl.Len(); k++ {
		p := tbl.SlotPosition(k)
		d := geom.Distance(p, testTarget().Center)
		if math.Abs(d-5) > 1e-9 {
			t.Fatalf("slot %d: expected radius 5, got %.4f", k, d)
		}
		if p.Y() >= 45 {
			t.Fatalf("slot %d: expected below the centre, got y=%.2f", k, p.Y())
		}
		if k > 0 && p.X() <= tbl.SlotPosition(k-1).X() {
			t.Fatalf("slot %d: slots must run left to right", k)
		}
	}
}

func TestSlotTable_LeftFillsOwnHalfThenOverflowsFromFarEnd(t *testing.T) {
	tbl := NewSlotTable(testTarget(), 6)
	var got []int
	for i := 0; i < 4; i++ {
		k, ok := tbl.Claim(SideLeft)
		if !ok {
			t.Fatalf("claim %d failed", i)
		}
		got = append(got, k)
	}
	want := []int{0, 1, 2, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("claim order: expected %v, got %v", want, got)
		}
	}

	k, _ := tbl.Claim(SideRight)
	if k != 4 {
		t.Fatalf("right side should take 4 next, got %d", k)
	}
	k, _ = tbl.Claim(SideRight)
	if k != 3 {
		t.Fatalf("right side should take 3 next, got %d", k)
	}
	if _, ok := tbl.Claim(SideRight); ok {
		t.Fatal("full table must refuse a claim")
	}
	if tbl.Claims() != 6 {
		t.Fatalf("expected 6 claims, got %d", tbl.Claims())
	}
}

func TestSlotTable_RightOverflowStartsAtZero(t *testing.T) {
	tbl := NewSlotTable(testTarget(), 5)
	// Right half of 5 slots is {3,4}.
	for _, want := range []int{4, 3, 0, 1, 2} {
		k, ok := tbl.Claim(SideRight)
		if !ok || k != want {
			t.Fatalf("expected slot %d, got %d ok=%v", want, k, ok)
		}
	}
}

func TestSlotTable_SideOf(t *testing.T) {
	tbl := NewSlotTable(testTarget(), 4)
	if tbl.SideOf(3) != SideLeft {
		t.Fatal("x left of target centre should be left")
	}
	if tbl.SideOf(10) != SideRight || tbl.SideOf(17) != SideRight {
		t.Fatal("x at or right of target centre should be right")
	}
}

func TestSlotTable_Empty(t *testing.T) {
	tbl := NewSlotTable(testTarget(), 0)
	if _, ok := tbl.Claim(SideLeft); ok {
		t.Fatal("empty table must refuse a claim")
	}
}

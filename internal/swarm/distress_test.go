package swarm

import (
	"math"
	"testing"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
)

func distressConfig() Config {
	cfg := DefaultConfig()
	cfg.Arbitration = ArbitrationDistress
	return cfg
}

func TestDistress_BoxedInSidestepsAndFreezesFollowers(t *testing.T) {
	wall := []geom.Rect{{X: 0, Y: 25, W: 20, H: 4}}
	w, _ := newTestWorld(t, distressConfig(), wall,
		geom.Pt(3, 20),  // distressed
		geom.Pt(3, 10),  // behind
		geom.Pt(15, 22), // ahead
	)
	a, behind, ahead := w.agents[0], w.agents[1], w.agents[2]

	a.Sense()
	if a.Heading() != 180 || math.Abs(a.Speed()-0.1) > 1e-12 {
		t.Fatalf("expected sidestep left at 0.1, got heading=%.1f speed=%.3f", a.Heading(), a.Speed())
	}
	if a.Mode() != ModeForward {
		t.Fatalf("sidestepping keeps the mode, got %s", a.Mode())
	}
	w.arbitrate()
	if !behind.Frozen() {
		t.Fatal("peer behind should be frozen")
	}
	if ahead.Frozen() {
		t.Fatal("peer ahead must not be frozen")
	}

	// Moving out of range of the wall ends the distress.
	a.pos = geom.Pt(1.5, 18.5)
	a.Sense()
	if a.Heading() != 90 || a.Speed() != 0.2 {
		t.Fatalf("expected nominal velocity after clear, got heading=%.1f speed=%.3f", a.Heading(), a.Speed())
	}
	w.arbitrate()
	if behind.Frozen() {
		t.Fatal("clear should thaw the follower")
	}
}

func TestDistress_FrozenAgentDoesNotMove(t *testing.T) {
	w, _ := newTestWorld(t, distressConfig(), []geom.Rect{{X: 0, Y: 25, W: 20, H: 4}},
		geom.Pt(3, 20), geom.Pt(10, 10))
	w.Step()
	if got := w.agents[1].Position(); got != geom.Pt(10, 10) {
		t.Fatalf("frozen agent moved to %v", got)
	}
}

func TestDistress_NoSideOpenHalts(t *testing.T) {
	wall := []geom.Rect{{X: 0, Y: 25, W: 20, H: 4}}
	w, _ := newTestWorld(t, distressConfig(), wall,
		geom.Pt(1.2, 20), // against the left edge
		geom.Pt(2.5, 20), // alongside on the right
		geom.Pt(3, 10),   // behind
	)
	a := w.agents[0]
	a.Sense()
	if a.Mode() != ModeHalting || a.Speed() != 0 {
		t.Fatalf("expected halt, got %s speed=%.2f", a.Mode(), a.Speed())
	}
	w.arbitrate()
	if w.agents[2].Frozen() {
		t.Fatal("a halting sender must release its followers")
	}
}

func TestDistress_GapFoundSequencesBehindDodger(t *testing.T) {
	row := []geom.Rect{{X: 0, Y: 25, W: 8, H: 2}, {X: 12, Y: 25, W: 8, H: 2}}
	w, _ := newTestWorld(t, distressConfig(), row, geom.Pt(9, 20), geom.Pt(14, 19))
	lead, s := w.agents[0], w.agents[1]

	lead.Sense()
	if lead.Mode() != ModeDodging || lead.safety == nil {
		t.Fatalf("lead should be dodging into the hole, got %s", lead.Mode())
	}
	lead.speed = 0.05

	d := w.ReceiveDistress(s.ID(), DistressReport{
		Kind:   DistressGapFound,
		Hole:   lead.safety.Hole,
		Safety: geom.Pt(10, 25),
	})
	if d.Kind != DirectiveSequence {
		t.Fatalf("expected sequence, got %s", d.Kind)
	}
	// the sender covers 6 units in the lead's vertical clearing time plus 1.8/0.2 s
	_, vy := lead.Velocity()
	want := 6 / (5.5/(math.Abs(vy)+1e-6) + 9)
	if math.Abs(d.Speed-want) > 1e-6 {
		t.Fatalf("expected sequenced speed %.5f, got %.5f", want, d.Speed)
	}
	if d.Heading != s.Heading() {
		t.Fatal("sequencing must keep the heading")
	}
}

func TestDistress_GapFoundAloneProceeds(t *testing.T) {
	w, _ := newTestWorld(t, distressConfig(), nil, geom.Pt(10, 20))
	d := w.ReceiveDistress(0, DistressReport{Kind: DistressGapFound, Hole: geom.Pt(8, 25), Safety: geom.Pt(10, 25)})
	if d.Kind != DirectiveProceed {
		t.Fatalf("expected proceed, got %s", d.Kind)
	}
	if d := w.ReceiveDistress(42, DistressReport{Kind: DistressClear}); d.Kind != DirectiveProceed {
		t.Fatalf("unknown sender should proceed, got %s", d.Kind)
	}
}

func TestDistress_PolicyNeverRunsCollisionTest(t *testing.T) {
	w, tally := newTestWorld(t, distressConfig(), []geom.Rect{{X: 0, Y: 40, W: 1, H: 1}},
		geom.Pt(-2, -2), geom.Pt(10, 0))
	w.agents[0].heading = 45
	w.agents[1].heading = 135
	w.Step()
	if tally.Detected != 0 {
		t.Fatalf("distress arbitration must not run the collision test, got %d", tally.Detected)
	}
}

func TestDistress_GapAppearingClearsAndDodges(t *testing.T) {
	row := []geom.Rect{{X: 0, Y: 25, W: 8, H: 2}, {X: 12, Y: 25, W: 8, H: 2}}
	w, _ := newTestWorld(t, distressConfig(), row, geom.Pt(9, 20), geom.Pt(3, 10))
	a, behind := w.agents[0], w.agents[1]
	a.distressed = true
	w.frozen[a.id] = []int{behind.id}
	behind.frozenBy[a.id] = true

	a.Sense()
	w.arbitrate()

	if a.distressed {
		t.Fatal("finding a hole should end the distress")
	}
	if behind.Frozen() {
		t.Fatal("clear should thaw the follower")
	}
	if a.Mode() != ModeDodging {
		t.Fatalf("expected dodging, got %s", a.Mode())
	}
	safety, ok := a.SafetyPoint()
	if !ok || safety != geom.Pt(10, 25) {
		t.Fatalf("expected safety point (10,25), got %v %v", safety, ok)
	}
	if want := geom.HeadingTo(geom.Pt(9, 20), safety); math.Abs(a.Heading()-want) > 1e-9 {
		t.Fatalf("expected heading %.3f toward the hole, got %.3f", want, a.Heading())
	}
	if math.Abs(a.Speed()-math.Hypot(0.2, 0.2)) > 1e-9 {
		t.Fatalf("expected dodging speed, got %.4f", a.Speed())
	}
}

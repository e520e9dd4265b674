package swarm

import (
	"reflect"
	"testing"
)

func TestSim_OpenFieldFormsUp(t *testing.T) {
	sim, err := NewSim(WithSeed(3), WithPopulation(5))
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	ticks := sim.Run(2000)
	if ticks >= 2000 {
		t.Fatalf("run did not settle:\n%s", sim.SimLog.Format())
	}
	if !sim.World.AllArrived() {
		t.Fatalf("expected every agent to reach a slot:\n%s", sim.SimLog.Summary(sim.Snapshot()))
	}

	seen := map[int]bool{}
	for _, a := range sim.Snapshot().Agents {
		if a.Slot < 0 || seen[a.Slot] {
			t.Fatalf("agent %s has slot %d (claimed twice or missing)", a.Label, a.Slot)
		}
		seen[a.Slot] = true
	}
	for _, a := range sim.World.Agents() {
		_, slot, _ := a.ApproachPoint()
		if a.ID() < 2 && slot >= 3 {
			t.Fatalf("left-side agent %s took right slot %d", a.Label(), slot)
		}
	}
}

func TestSim_SolidWallHaltsEveryone(t *testing.T) {
	sim, err := NewSim(WithObstacle(0, 25, 20, 4), WithPopulation(5))
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	if ticks := sim.Run(2000); ticks >= 2000 {
		t.Fatal("expected the run to settle before the budget")
	}
	for _, a := range sim.Snapshot().Agents {
		if a.Mode != ModeHalting {
			t.Fatalf("%s expected halting, got %s", a.Label, a.Mode)
		}
		if a.Flags&FlagApproached != 0 {
			t.Fatalf("%s cannot reach the target through a wall", a.Label)
		}
		if a.Y >= 25 {
			t.Fatalf("%s passed the wall at y=%.2f", a.Label, a.Y)
		}
	}
	if got := sim.SimLog.Count("mode", "change"); got < 5 {
		t.Fatalf("expected a mode change per agent, got %d", got)
	}
	if !sim.SimLog.Has("mode", "change", "halting-blocked") {
		t.Fatal("expected a transition into halting-blocked in the log")
	}
	if sim.Tally.Strikes != 0 {
		t.Fatalf("expected no obstacle strikes, got %d", sim.Tally.Strikes)
	}
}

func TestSim_SameSeedSameRun(t *testing.T) {
	run := func() Snapshot {
		sim, err := NewSim(WithSeed(11), WithObstacle(3, 20, 4, 2), WithObstacle(10, 16, 6, 8), WithPopulation(10))
		if err != nil {
			t.Fatalf("NewSim: %v", err)
		}
		sim.RunTicks(300)
		return sim.Snapshot()
	}
	first, second := run(), run()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical seeds must produce identical runs")
	}
}

func TestSim_DistressPolicySkipsCollisionTest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Arbitration = ArbitrationDistress
	sim, err := NewSim(WithConfig(cfg), WithObstacle(3, 20, 4, 2), WithObstacle(10, 16, 6, 8), WithPopulation(10))
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	sim.RunTicks(400)
	if sim.Tally.Detected != 0 {
		t.Fatalf("expected no collision-course detections, got %d", sim.Tally.Detected)
	}
}

func TestSim_RunStopsAtBudget(t *testing.T) {
	sim, err := NewSim(WithPopulation(5))
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	if got := sim.Run(3); got != 3 {
		t.Fatalf("expected 3 ticks, got %d", got)
	}
	if _, ok := sim.SimLog.Last("run", "budget"); !ok {
		t.Fatal("expected a budget entry")
	}
	if sim.CurrentTick() != 3 {
		t.Fatalf("expected tick 3, got %d", sim.CurrentTick())
	}
}

func TestSim_VerboseRecordsPositions(t *testing.T) {
	sim, err := NewSim(WithVerbose(true), WithAgent(10, 2))
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	sim.RunTicks(2)
	if got := len(sim.SimLog.ForAgent("A0")); got < 2 {
		t.Fatalf("expected position entries for A0, got %d", got)
	}
}

func TestNewSim_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AgentRadius = 0
	if _, err := NewSim(WithConfig(cfg)); err == nil {
		t.Fatal("expected an error for a zero agent radius")
	}
}

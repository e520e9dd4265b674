package swarm

import "github.com/Garsondee/Swarm-Sense/internal/geom"

// AdjustKind names a change one agent's Sense asks the World to make to
// another agent.
type AdjustKind int

const (
	AdjustRetard  AdjustKind = iota // record a collision point, optionally slowing
	AdjustRelease                   // drop the record against Peer
	AdjustFreeze                    // hold the agent in place on behalf of Peer
	AdjustThaw                      // end the freeze requested by Peer
)

func (k AdjustKind) String() string {
	switch k {
	case AdjustRetard:
		return "retard"
	case AdjustRelease:
		return "release"
	case AdjustFreeze:
		return "freeze"
	case AdjustThaw:
		return "thaw"
	default:
		return "unknown"
	}
}

// Adjustment is a queued change to Agent, requested by Peer.
type Adjustment struct {
	Kind  AdjustKind
	Agent int
	Peer  int
	At    geom.Point
	Slow  bool
	Speed float64
}

// pair is an unordered agent pair, low id first.
type pair [2]int

func pairOf(a, b int) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

func (w *World) enqueue(adj Adjustment) {
	w.queue = append(w.queue, adj)
}

// Pending returns a copy of the adjustments queued since the last arbitration.
func (w *World) Pending() []Adjustment {
	out := make([]Adjustment, len(w.queue))
	copy(out, w.queue)
	return out
}

// arbitrate applies queued adjustments in the order they were raised.
func (w *World) arbitrate() {
	queue := w.queue
	w.queue = nil
	for _, adj := range queue {
		a, ok := w.Agent(adj.Agent)
		if !ok {
			continue
		}
		switch adj.Kind {
		case AdjustRetard:
			a.applyRetard(adj.Peer, adj.At, adj.Slow, adj.Speed)
		case AdjustRelease:
			a.releaseRecord(adj.Peer)
		case AdjustFreeze:
			if a.loco.Mode() != ModeHalting {
				a.frozenBy[adj.Peer] = true
			}
		case AdjustThaw:
			delete(a.frozenBy, adj.Peer)
		}
	}
	w.pending = make(map[pair]bool)
}

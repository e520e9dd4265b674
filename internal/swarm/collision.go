package swarm

import (
	"math"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
	"github.com/Garsondee/Swarm-Sense/internal/logging"
)

// parallelTolerance is the heading difference, in degrees, below which two
// agents are treated as travelling in parallel.
const parallelTolerance = 1e-9

// collisionCourse is the outcome of a triggered collision-course test between
// an agent (self) and a peer.
type collisionCourse struct {
	At        geom.Point
	SelfSlows bool
	Speed     float64 // new speed for the side that slows

	SelfTime, PeerTime   float64 // time to reach At along y
	SelfClear, PeerClear float64 // safety clearance durations
}

// verticalSpeed returns |sin(heading)| * speed.
func verticalSpeed(heading, speed float64) float64 {
	return math.Abs(math.Sin(geom.Radians(heading))) * speed
}

// predictCollision runs the collision-course test for self against peer. It
// reads both agents and the World's pending pairs but changes nothing.
func (w *World) predictCollision(self, peer *Agent) (collisionCourse, bool) {
	cfg := &w.cfg
	if self.loco.Mode() == ModeHalting || peer.loco.Mode() == ModeHalting {
		return collisionCourse{}, false
	}
	if geom.AngleBetween(self.heading, peer.heading) < parallelTolerance {
		return collisionCourse{}, false
	}
	if self.loco.Has(FlagApproaching) || peer.loco.Has(FlagApproaching) {
		return collisionCourse{}, false
	}
	if _, ok := self.retarding[peer.id]; ok {
		return collisionCourse{}, false
	}
	if _, ok := peer.retarding[self.id]; ok {
		return collisionCourse{}, false
	}
	if w.pending[pairOf(self.id, peer.id)] {
		return collisionCourse{}, false
	}

	at, ok := geom.LineIntersection(self.pos, self.heading, peer.pos, peer.heading)
	if !ok {
		return collisionCourse{}, false
	}
	if at.Y() <= self.pos.Y() || at.Y() <= peer.pos.Y() {
		return collisionCourse{}, false
	}

	eps := cfg.VelocityEpsilon
	selfVy := verticalSpeed(self.heading, self.speed)
	peerVy := verticalSpeed(peer.heading, peer.speed)

	cc := collisionCourse{
		At:        at,
		SelfTime:  math.Abs(at.Y()-self.pos.Y()) / (selfVy + eps),
		PeerTime:  math.Abs(at.Y()-peer.pos.Y()) / (peerVy + eps),
		SelfClear: cfg.PeerClearance() / (selfVy + eps),
		PeerClear: cfg.PeerClearance() / (peerVy + eps),
	}
	arrive := cc.SelfTime - cc.SelfClear
	clear := cc.PeerTime + cc.PeerClear
	if !(math.Abs(arrive-clear) < 2*math.Max(cc.SelfClear, cc.PeerClear)) {
		return collisionCourse{}, false
	}

	// Each agent's safe exit point lies beyond the crossing by the distance
	// at which two bodies on these headings no longer overlap.
	half := geom.Radians(geom.AngleBetween(self.heading, peer.heading) / 2)
	exit := cfg.AgentRadius / math.Tan(half)
	selfExit := geom.Distance(self.pos, geom.Advance(at, self.heading, exit))
	peerExit := geom.Distance(peer.pos, geom.Advance(at, peer.heading, exit))

	slowing := peer
	if selfExit > peerExit {
		cc.SelfSlows = true
		slowing = self
		cc.Speed = math.Abs(at.Y()-self.pos.Y()) / (cc.PeerTime + cfg.RetardStretch*cc.PeerClear)
	} else {
		cc.Speed = math.Abs(at.Y()-peer.pos.Y()) / (cc.SelfTime + cfg.RetardStretch*cc.SelfClear)
	}
	// Already slow enough to pass behind: the windows need no sequencing.
	if !(cc.Speed < slowing.speed) {
		return collisionCourse{}, false
	}
	return cc, true
}

// retardPeers runs the collision-course test against every peer and queues a
// mutual retardation for each triggered pair.
func (a *Agent) retardPeers() {
	w := a.world
	for _, p := range w.agents {
		if p == a {
			continue
		}
		cc, ok := w.predictCollision(a, p)
		if !ok {
			continue
		}
		w.pending[pairOf(a.id, p.id)] = true
		w.enqueue(Adjustment{Kind: AdjustRetard, Agent: a.id, Peer: p.id, At: cc.At, Slow: cc.SelfSlows, Speed: cc.Speed})
		w.enqueue(Adjustment{Kind: AdjustRetard, Agent: p.id, Peer: a.id, At: cc.At, Slow: !cc.SelfSlows, Speed: cc.Speed})
		w.rec.CollisionCourse(w.tick, a.id, p.id, cc.At)

		slowed := p.id
		if cc.SelfSlows {
			slowed = a.id
		}
		logging.NewEvent(w.log.Debug()).
			Add(logging.Tick(w.tick)).
			Add(logging.AgentID(a.id)).
			Add(logging.Peer(p.id)).
			Add(logging.Str("slowed", labelOf(slowed))).
			Add(logging.Num("x", cc.At.X())).
			Add(logging.Num("y", cc.At.Y())).
			Add(logging.Num("speed", cc.Speed)).
			Msg("collision course")
	}
}

// applyRetard records one side of a triggered pair. The slowed side saves
// its speed first. Agents that halted since the test ran are left alone.
func (a *Agent) applyRetard(peer int, at geom.Point, slow bool, speed float64) {
	if a.loco.Mode() == ModeHalting {
		return
	}
	if _, ok := a.retarding[peer]; ok {
		return
	}
	rec := retardRecord{At: at}
	if slow {
		rec.Slowed = true
		rec.Gen = a.hold.Save(a.speed)
		a.speed = math.Min(a.speed, speed)
	}
	a.retarding[peer] = rec
	a.setFlag(FlagAvoiding)
}

// recover ends every arbitration whose collision point the agent has passed,
// or all of them once it is approaching or at the target.
func (a *Agent) recover() {
	if len(a.retarding) == 0 {
		return
	}
	atTarget := a.loco.Flags()&(FlagApproaching|FlagApproached) != 0
	for _, peer := range a.RetardingPeers() {
		rec := a.retarding[peer]
		if !atTarget && a.pos.Y() < rec.At.Y()+a.cfg.RecoveryEpsilon {
			continue
		}
		a.releaseRecord(peer)
		a.world.enqueue(Adjustment{Kind: AdjustRelease, Agent: peer, Peer: a.id})
	}
}

// releaseRecord drops the record against peer. When the last slow-down goes,
// the held speed comes back once; a stale or missing hold falls back to
// nominal. Agents now steered by the formation or halted keep their speed.
// It reports whether a record existed.
func (a *Agent) releaseRecord(peer int) bool {
	rec, ok := a.retarding[peer]
	if !ok {
		return false
	}
	delete(a.retarding, peer)
	if len(a.retarding) == 0 {
		a.loco.Clear(FlagAvoiding)
	}
	if !rec.Slowed || a.slowed() {
		return true
	}
	speed, held := a.hold.Release(rec.Gen)
	if !held {
		speed = a.cfg.NominalSpeed
	}
	steered := a.loco.Mode() == ModeHalting || a.loco.Flags()&(FlagApproaching|FlagApproached) != 0
	if !steered {
		a.speed = speed
	}
	return true
}

// slowed reports whether any remaining record slowed this agent.
func (a *Agent) slowed() bool {
	for _, rec := range a.retarding {
		if rec.Slowed {
			return true
		}
	}
	return false
}

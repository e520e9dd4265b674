package swarm

import (
	"fmt"
	"math"
	"sort"

	"github.com/felixgeelhaar/statekit"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
	"github.com/Garsondee/Swarm-Sense/internal/logging"
)

// Direction selects the velocity component used by TimeToArrive and TimeToClear.
type Direction string

const (
	DirectionFree       Direction = "free" // along the velocity vector
	DirectionHorizontal Direction = "horizontal"
	DirectionVertical   Direction = "vertical"
)

type safetyTarget struct {
	Point geom.Point
	Hole  geom.Point // start of the hole, which identifies it
}

type approachTarget struct {
	Point geom.Point
	Slot  int
}

// retardRecord is one side of a mutual collision arbitration.
type retardRecord struct {
	At     geom.Point
	Slowed bool
	Gen    uint64
}

// Agent is one member of the swarm. All fields are owned by the World's tick:
// Sense and Move are the only entry points that change them.
type Agent struct {
	id    int
	world *World
	cfg   *Config

	pos     geom.Point
	heading float64
	speed   float64

	loco      *Locomotion
	safety    *safetyTarget
	approach  *approachTarget
	retarding map[int]retardRecord
	dodged    map[int]bool
	hold      SpeedHold

	frozenBy   map[int]bool
	distressed bool
}

func newAgent(id int, w *World, pos geom.Point) (*Agent, error) {
	loco, err := NewLocomotion()
	if err != nil {
		return nil, err
	}
	return &Agent{
		id:        id,
		world:     w,
		cfg:       &w.cfg,
		pos:       pos,
		heading:   w.cfg.NominalHeading,
		speed:     w.cfg.NominalSpeed,
		loco:      loco,
		retarding: make(map[int]retardRecord),
		dodged:    make(map[int]bool),
		frozenBy:  make(map[int]bool),
	}, nil
}

// ID returns the agent's stable id.
func (a *Agent) ID() int { return a.id }

// Label returns the short log label, e.g. "A3".
func (a *Agent) Label() string { return labelOf(a.id) }

// Position returns the agent's centre.
func (a *Agent) Position() geom.Point { return a.pos }

// Heading returns the direction of travel in degrees [0, 360).
func (a *Agent) Heading() float64 { return a.heading }

// Speed returns the current scalar speed.
func (a *Agent) Speed() float64 { return a.speed }

// Velocity returns the velocity components.
func (a *Agent) Velocity() (vx, vy float64) {
	rad := geom.Radians(a.heading)
	return a.speed * math.Cos(rad), a.speed * math.Sin(rad)
}

// Mode returns the locomotion mode.
func (a *Agent) Mode() Mode { return a.loco.Mode() }

// Flags returns the orthogonal locomotion flags.
func (a *Agent) Flags() Flag { return a.loco.Flags() }

// Has reports whether every flag in f is set.
func (a *Agent) Has(f Flag) bool { return a.loco.Has(f) }

// Frozen reports whether a distress directive is holding the agent in place.
func (a *Agent) Frozen() bool { return len(a.frozenBy) > 0 }

// SafetyPoint returns the committed waypoint inside a hole, if dodging.
func (a *Agent) SafetyPoint() (geom.Point, bool) {
	if a.safety == nil {
		return geom.Point{}, false
	}
	return a.safety.Point, true
}

// ApproachPoint returns the claimed formation slot and its index.
func (a *Agent) ApproachPoint() (geom.Point, int, bool) {
	if a.approach == nil {
		return geom.Point{}, -1, false
	}
	return a.approach.Point, a.approach.Slot, true
}

// RetardingPoint returns the collision point recorded against peer.
func (a *Agent) RetardingPoint(peer int) (geom.Point, bool) {
	rec, ok := a.retarding[peer]
	return rec.At, ok
}

// RetardingPeers returns the ids of peers under arbitration, ascending.
func (a *Agent) RetardingPeers() []int {
	ids := make([]int, 0, len(a.retarding))
	for id := range a.retarding {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// HasDodged reports whether the agent already nudged away from peer.
func (a *Agent) HasDodged(peer int) bool { return a.dodged[peer] }

// Sense runs perception and negotiation for one tick. It may change the
// agent's own state and queue adjustments for peers; it never moves anyone.
func (a *Agent) Sense() {
	a.settle()
	if a.loco.Mode() == ModeHalting {
		return
	}
	a.approachTarget()
	a.dodgeObstacles()
	if a.cfg.Arbitration == ArbitrationPairwise {
		a.retardPeers()
	}
	a.dodgeTooClose()
}

// Move integrates position over dt seconds. Halted agents have zero speed;
// frozen agents stay put.
func (a *Agent) Move(dt float64) {
	if a.loco.Mode() == ModeHalting {
		a.speed = 0
		return
	}
	if a.Frozen() {
		return
	}
	vx, vy := a.Velocity()
	a.pos = geom.Pt(a.pos.X()+vx*dt, a.pos.Y()+vy*dt)
}

// settle resolves arrivals left over from the previous move: formation slot
// reached, safety point passed, collision points passed.
func (a *Agent) settle() {
	cfg := a.cfg
	if a.loco.Has(FlagApproaching) && a.approach != nil &&
		a.approach.Point.Y()-a.pos.Y() < cfg.ArrivalEpsilon {
		a.loco.Clear(FlagApproaching)
		a.transition(EventHalt)
		a.setFlag(FlagApproached)
		a.speed = 0
	}

	if a.loco.Mode() == ModeDodging && a.safety != nil &&
		a.pos.Y() >= a.safety.Point.Y()+cfg.ArrivalEpsilon {
		a.transition(EventClear)
		a.safety = nil
		a.speed = cfg.NominalSpeed
		a.heading = cfg.NominalHeading
		a.hold.Rebase(cfg.NominalSpeed)
	}

	a.recover()
}

func (a *Agent) transition(ev statekit.EventType) {
	from := a.loco.Mode()
	if err := a.loco.Fire(ev); err != nil {
		logging.NewEvent(a.world.log.Warn()).
			Add(logging.Tick(a.world.tick)).
			Add(logging.AgentID(a.id)).
			Add(logging.ErrorField(err)).
			Msg("locomotion event rejected")
		return
	}
	logging.NewEvent(a.world.log.Debug()).
		Add(logging.Tick(a.world.tick)).
		Add(logging.AgentID(a.id)).
		Add(logging.Str("from", from.String())).
		Add(logging.Mode(a.loco.Mode().String())).
		Msg("mode change")
}

func (a *Agent) setFlag(f Flag) {
	if err := a.loco.Set(f); err != nil {
		logging.NewEvent(a.world.log.Warn()).
			Add(logging.Tick(a.world.tick)).
			Add(logging.AgentID(a.id)).
			Add(logging.ErrorField(err)).
			Msg("flag rejected")
	}
}

func (a *Agent) halt() {
	a.transition(EventHalt)
	a.speed = 0
}

// Obstacles returns the obstacles whose near edge lies ahead within the panic
// distance and whose x-extent strictly overlaps the agent's safety corridor,
// sorted by x.
func (a *Agent) Obstacles() []geom.Rect {
	half := a.cfg.Clearance()
	lo, hi := a.pos.X()-half, a.pos.X()+half
	var out []geom.Rect
	for _, ob := range a.world.obstacles {
		dy := ob.Y - a.pos.Y()
		if dy < 0 || dy > a.cfg.PanicDistance {
			continue
		}
		if hi > ob.X && lo < ob.Right() {
			out = append(out, ob)
		}
	}
	geom.SortByX(out)
	return out
}

// obstacleRow returns every obstacle whose near edge lies ahead within the
// panic distance, regardless of x, sorted by x. Holes are cut from this row
// so a gap that looks open next to the blocking obstacle is not in fact
// closed by a neighbour.
func (a *Agent) obstacleRow() []geom.Rect {
	var out []geom.Rect
	for _, ob := range a.world.obstacles {
		dy := ob.Y - a.pos.Y()
		if dy >= 0 && dy <= a.cfg.PanicDistance {
			out = append(out, ob)
		}
	}
	geom.SortByX(out)
	return out
}

// Holes returns the gaps in the obstacle row ahead.
func (a *Agent) Holes() []geom.Hole {
	return geom.Holes(a.obstacleRow(), a.world.width, a.pos.X())
}

// SafetyPosition commits the agent to a waypoint inside hole and switches it
// to dodging-obstacle. The x is a random integer offset into the hole's
// interior plus sub-unit jitter; the margin widens for holes spanning more
// than half the field. A collapsed interior falls back to the hole midpoint.
func (a *Agent) SafetyPosition(h geom.Hole) geom.Point {
	margin := 2 * a.cfg.Clearance()
	if h.Width > a.world.width/2 {
		margin = 5 * a.cfg.Clearance()
	}
	lo := h.Start.X() + margin
	hi := h.End() - margin
	x := h.Centre()
	if span := int(hi - lo); span >= 1 {
		x = math.Min(lo+float64(a.world.rng.Intn(span))+a.world.rng.Float64(), hi)
	}
	pt := geom.Pt(x, h.Start.Y())
	if a.loco.Mode() == ModeForward {
		a.transition(EventDodge)
	}
	a.safety = &safetyTarget{Point: pt, Hole: h.Start}
	return pt
}

func (a *Agent) dodgeObstacles() {
	if a.loco.Mode() != ModeForward || a.loco.Flags()&(FlagApproaching|FlagApproached) != 0 {
		return
	}
	if len(a.Obstacles()) == 0 {
		if a.distressed {
			a.follow(a.world.ReceiveDistress(a.id, DistressReport{Kind: DistressClear}))
			a.distressed = false
		}
		return
	}

	best, ok := geom.BestHole(a.Holes(), a.cfg.Clearance())
	if !ok {
		a.blocked()
		return
	}
	if a.distressed {
		a.follow(a.world.ReceiveDistress(a.id, DistressReport{Kind: DistressClear}))
		a.distressed = false
	}

	safety := a.SafetyPosition(best)
	vx, vy := a.world.DodgingVelocity(best.Start, safety, a.pos)
	a.speed = math.Min(math.Hypot(vx, vy), a.cfg.MaxSpeed)
	a.heading = geom.HeadingTo(a.pos, safety)

	logging.NewEvent(a.world.log.Debug()).
		Add(logging.Tick(a.world.tick)).
		Add(logging.AgentID(a.id)).
		Add(logging.HoleX(best.Start.X())).
		Add(logging.Num("safety_x", safety.X())).
		Add(logging.Num("speed", a.speed)).
		Msg("dodging obstacle")

	if a.cfg.Arbitration == ArbitrationDistress {
		a.follow(a.world.ReceiveDistress(a.id, DistressReport{
			Kind:   DistressGapFound,
			Hole:   best.Start,
			Safety: safety,
		}))
	}
}

// blocked handles a row with no passable hole.
func (a *Agent) blocked() {
	if a.cfg.Arbitration != ArbitrationDistress {
		a.halt()
		return
	}
	a.distressed = true
	a.follow(a.world.ReceiveDistress(a.id, DistressReport{Kind: DistressGapNotFound}))
}

// follow applies a directive returned by the World.
func (a *Agent) follow(d Directive) {
	switch d.Kind {
	case DirectiveHalt:
		a.distressed = false
		a.halt()
	case DirectiveSequence:
		a.speed = math.Min(a.speed, d.Speed)
	case DirectiveSidestep, DirectiveResume:
		a.heading = geom.NormalizeDegrees(d.Heading)
		a.speed = d.Speed
	}
}

func (a *Agent) approachTarget() {
	if a.loco.Mode() != ModeForward || a.loco.Flags()&(FlagApproaching|FlagApproached) != 0 {
		return
	}
	if a.pos.Y() <= a.world.TopObstacleEdge() {
		return
	}
	slot, pt, speed, ok := a.world.claimSlot(a.pos.X())
	if !ok {
		logging.NewEvent(a.world.log.Debug()).
			Add(logging.Tick(a.world.tick)).
			Add(logging.AgentID(a.id)).
			Msg("approach slots full")
		a.halt()
		return
	}
	a.setFlag(FlagApproaching)
	a.approach = &approachTarget{Point: pt, Slot: slot}
	a.heading = geom.HeadingTo(a.pos, pt)
	a.speed = speed

	logging.NewEvent(a.world.log.Debug()).
		Add(logging.Tick(a.world.tick)).
		Add(logging.AgentID(a.id)).
		Add(logging.Slot(slot)).
		Add(logging.Num("speed", speed)).
		Msg("slot claimed")
}

// dodgeTooClose nudges the heading away from a slower peer that came within
// the proximity radius. Each peer is dodged once until it moves away again.
func (a *Agent) dodgeTooClose() {
	threshold := a.cfg.ProximityRadius()
	for _, p := range a.world.agents {
		if p == a {
			continue
		}
		sep := geom.Distance(a.pos, p.pos)
		if sep < threshold && a.speed > p.speed && !a.dodged[p.id] {
			a.heading = geom.NormalizeDegrees(a.heading + a.cfg.DodgeIncrement)
			a.dodged[p.id] = true
			a.world.rec.NearMiss(a.world.tick, a.id, p.id, sep)
		}
		if a.dodged[p.id] && sep > threshold {
			delete(a.dodged, p.id)
		}
	}
}

// TimeToArrive returns how long before the front of the agent's safety
// radius reaches dest, measured along dir.
func (a *Agent) TimeToArrive(dest geom.Point, dir Direction) (float64, error) {
	dist, v, err := a.directional(dest, dir)
	if err != nil {
		return 0, err
	}
	return (dist - a.cfg.SafetyRadius) / (v + a.cfg.VelocityEpsilon), nil
}

// TimeToClear returns how long before the rear of the agent's safety radius
// leaves dest, measured along dir.
func (a *Agent) TimeToClear(dest geom.Point, dir Direction) (float64, error) {
	dist, v, err := a.directional(dest, dir)
	if err != nil {
		return 0, err
	}
	return (dist + a.cfg.SafetyRadius) / (v + a.cfg.VelocityEpsilon), nil
}

func (a *Agent) directional(dest geom.Point, dir Direction) (dist, v float64, err error) {
	vx, vy := a.Velocity()
	switch dir {
	case DirectionFree:
		return geom.Distance(a.pos, dest), a.speed, nil
	case DirectionHorizontal:
		return math.Abs(dest.X() - a.pos.X()), math.Abs(vx), nil
	case DirectionVertical:
		return math.Abs(dest.Y() - a.pos.Y()), math.Abs(vy), nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrVelocityDirection, dir)
	}
}

// CanSidestep reports whether each side of the agent is free of peers
// travelling alongside it. units widens the inspected band in safety radii.
func (a *Agent) CanSidestep(units int) (left, right bool) {
	band := float64(2*units+1)*a.cfg.SafetyRadius + a.cfg.AgentRadius
	level := 2*a.cfg.SafetyRadius + a.cfg.AgentRadius
	left, right = true, true
	for _, p := range a.world.agents {
		if p == a || p.loco.Has(FlagApproached) {
			continue
		}
		dx := a.pos.X() - p.pos.X()
		dy := a.pos.Y() - p.pos.Y()
		if math.Abs(dx) >= band || math.Abs(dy) >= level {
			continue
		}
		if dx > 0 {
			left = false
		} else {
			right = false
		}
	}
	return left, right
}

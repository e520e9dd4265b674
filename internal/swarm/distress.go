package swarm

import (
	"math"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
	"github.com/Garsondee/Swarm-Sense/internal/logging"
)

// DistressKind classifies a report sent to the World.
type DistressKind int

const (
	DistressGapFound    DistressKind = iota + 100 // a passable hole was chosen
	DistressGapNotFound                           // boxed in, no passable hole
	DistressClear                                 // the earlier distress is over
)

func (k DistressKind) String() string {
	switch k {
	case DistressGapFound:
		return "gap-found"
	case DistressGapNotFound:
		return "gap-not-found"
	case DistressClear:
		return "clear"
	default:
		return "unknown"
	}
}

// DistressReport is what a distressed agent tells the World.
type DistressReport struct {
	Kind   DistressKind
	Hole   geom.Point // hole id, for DistressGapFound
	Safety geom.Point // chosen safety point, for DistressGapFound
}

// DirectiveKind says how the sender of a report must proceed.
type DirectiveKind int

const (
	DirectiveProceed  DirectiveKind = iota // keep the current velocity
	DirectiveSequence                      // slow to Speed, keep heading
	DirectiveSidestep                      // translate along Heading at Speed
	DirectiveResume                        // back to Heading and Speed after distress
	DirectiveHalt                          // stop for good
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveProceed:
		return "proceed"
	case DirectiveSequence:
		return "sequence"
	case DirectiveSidestep:
		return "sidestep"
	case DirectiveResume:
		return "resume"
	case DirectiveHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// Directive is the World's answer to a distress report.
type Directive struct {
	Kind    DirectiveKind
	Speed   float64
	Heading float64
}

// ReceiveDistress is the arbitration endpoint of the distress policy. The
// directive for the sender is returned; changes to peers are queued and take
// effect in the arbitration pass.
//
//   - gap found: sequence the sender behind the slowest peer already dodging
//     into the same hole, using that peer's vertical time to clear its
//     safety point.
//   - gap not found: freeze every peer behind the sender and send it sideways
//     toward the nearer field edge at reduced speed. When neither side is
//     open the sender halts and the freeze is lifted.
//   - clear: lift the freeze the sender asked for.
func (w *World) ReceiveDistress(sender int, report DistressReport) Directive {
	s, ok := w.Agent(sender)
	if !ok {
		return Directive{Kind: DirectiveProceed}
	}
	var d Directive
	switch report.Kind {
	case DistressGapFound:
		d = w.sequenceBehind(s, report)
	case DistressGapNotFound:
		d = w.sidestep(s)
	case DistressClear:
		w.thaw(sender)
		d = Directive{Kind: DirectiveResume, Speed: w.cfg.NominalSpeed, Heading: w.cfg.NominalHeading}
	default:
		d = Directive{Kind: DirectiveProceed}
	}

	logging.NewEvent(w.log.Debug()).
		Add(logging.Tick(w.tick)).
		Add(logging.AgentID(sender)).
		Add(logging.Str("report", report.Kind.String())).
		Add(logging.Str("directive", d.Kind.String())).
		Msg("distress")
	return d
}

func (w *World) sequenceBehind(s *Agent, report DistressReport) Directive {
	slowest := -1.0
	for _, p := range w.agents {
		if p == s || p.safety == nil || p.safety.Hole != report.Hole {
			continue
		}
		if p.loco.Mode() == ModeHalting {
			continue
		}
		t, err := p.TimeToClear(p.safety.Point, DirectionVertical)
		if err != nil {
			continue
		}
		slowest = math.Max(slowest, t)
	}
	if slowest < 0 {
		return Directive{Kind: DirectiveProceed}
	}
	dy := math.Abs(report.Safety.Y() - s.pos.Y())
	clearance := w.cfg.PeerClearance() / w.cfg.NominalSpeed
	speed := dy / (slowest + clearance)
	if speed >= s.speed {
		return Directive{Kind: DirectiveProceed}
	}
	return Directive{Kind: DirectiveSequence, Speed: speed, Heading: s.heading}
}

func (w *World) sidestep(s *Agent) Directive {
	for _, p := range w.agents {
		if p == s || p.loco.Mode() == ModeHalting || p.pos.Y() >= s.pos.Y() {
			continue
		}
		if p.frozenBy[s.id] || w.froze(s.id, p.id) {
			continue
		}
		w.frozen[s.id] = append(w.frozen[s.id], p.id)
		w.enqueue(Adjustment{Kind: AdjustFreeze, Agent: p.id, Peer: s.id})
	}

	clearance := w.cfg.Clearance()
	leftOpen, rightOpen := s.CanSidestep(1)
	leftOpen = leftOpen && s.pos.X()-clearance > 0
	rightOpen = rightOpen && s.pos.X()+clearance < w.width

	speed := w.cfg.SidestepFactor * w.cfg.NominalSpeed
	nearerLeft := s.pos.X() <= w.width-s.pos.X()
	switch {
	case nearerLeft && leftOpen, !rightOpen && leftOpen:
		return Directive{Kind: DirectiveSidestep, Speed: speed, Heading: 180}
	case rightOpen:
		return Directive{Kind: DirectiveSidestep, Speed: speed, Heading: 0}
	default:
		w.thaw(s.id)
		return Directive{Kind: DirectiveHalt}
	}
}

func (w *World) froze(sender, peer int) bool {
	for _, id := range w.frozen[sender] {
		if id == peer {
			return true
		}
	}
	return false
}

func (w *World) thaw(sender int) {
	for _, id := range w.frozen[sender] {
		w.enqueue(Adjustment{Kind: AdjustThaw, Agent: id, Peer: sender})
	}
	delete(w.frozen, sender)
}

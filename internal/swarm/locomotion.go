package swarm

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/statekit"
)

// Mode is the primary locomotion state. An agent is always in exactly one.
type Mode int

const (
	ModeForward Mode = iota // forward-translating
	ModeDodging             // dodging-obstacle: heading for a safety point in a hole
	ModeHalting             // halting-blocked: terminal, zero speed
)

func (m Mode) String() string {
	switch m {
	case ModeForward:
		return "forward-translating"
	case ModeDodging:
		return "dodging-obstacle"
	case ModeHalting:
		return "halting-blocked"
	default:
		return "unknown"
	}
}

// Flag is an orthogonal locomotion flag.
//
// Legal co-occurrence:
//   - FlagAvoiding with ModeForward or ModeDodging
//   - FlagApproaching with ModeForward only, never with FlagApproached
//   - FlagApproached with ModeHalting only
type Flag uint8

const (
	FlagAvoiding    Flag = 1 << iota // avoiding-collision
	FlagApproaching                  // approaching-target
	FlagApproached                   // approached-target
)

func (f Flag) String() string {
	var parts []string
	if f&FlagAvoiding != 0 {
		parts = append(parts, "avoiding-collision")
	}
	if f&FlagApproaching != 0 {
		parts = append(parts, "approaching-target")
	}
	if f&FlagApproached != 0 {
		parts = append(parts, "approached-target")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Locomotion events.
const (
	EventDodge statekit.EventType = "DODGE"
	EventClear statekit.EventType = "CLEAR"
	EventHalt  statekit.EventType = "HALT"
)

const (
	stateForward statekit.StateID = "forward"
	stateDodging statekit.StateID = "dodging"
	stateHalting statekit.StateID = "halting"
)

var modeByState = map[statekit.StateID]Mode{
	stateForward: ModeForward,
	stateDodging: ModeDodging,
	stateHalting: ModeHalting,
}

// legalEvents mirrors the statechart below; statekit has no error channel for
// events a state does not handle, so they are rejected before Send.
var legalEvents = map[Mode]map[statekit.EventType]bool{
	ModeForward: {EventDodge: true, EventHalt: true},
	ModeDodging: {EventClear: true, EventHalt: true},
	ModeHalting: {},
}

type locoContext struct {
	transitions int
	last        statekit.EventType
}

func recordTransition(ctx **locoContext, ev statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).transitions++
	(*ctx).last = ev.Type
}

// newLocomotionMachine builds the locomotion statechart:
//
//	forward --DODGE--> dodging --CLEAR--> forward
//	forward|dodging --HALT--> halting (final)
func newLocomotionMachine() (*statekit.MachineConfig[*locoContext], error) {
	return statekit.NewMachine[*locoContext]("locomotion").
		WithInitial(stateForward).
		WithContext(&locoContext{}).
		WithAction("record", recordTransition).
		State(stateForward).
			On(EventDodge).Target(stateDodging).Do("record").
			On(EventHalt).Target(stateHalting).Do("record").
			Done().
		State(stateDodging).
			On(EventClear).Target(stateForward).Do("record").
			On(EventHalt).Target(stateHalting).Do("record").
			Done().
		State(stateHalting).
			Final().
			Done().
		Build()
}

// Locomotion is an agent's statechart plus its orthogonal flags.
type Locomotion struct {
	interp *statekit.Interpreter[*locoContext]
	ctx    *locoContext
	flags  Flag
}

// NewLocomotion starts a statechart in forward-translating with no flags.
func NewLocomotion() (*Locomotion, error) {
	machine, err := newLocomotionMachine()
	if err != nil {
		return nil, fmt.Errorf("build locomotion machine: %w", err)
	}
	ctx := &locoContext{}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **locoContext) {
		*c = ctx
	})
	interp.Start()
	return &Locomotion{interp: interp, ctx: ctx}, nil
}

// Mode returns the current locomotion mode.
func (l *Locomotion) Mode() Mode {
	return modeByState[l.interp.State().Value]
}

// Flags returns the set flags.
func (l *Locomotion) Flags() Flag { return l.flags }

// Has reports whether every flag in f is set.
func (l *Locomotion) Has(f Flag) bool { return l.flags&f == f }

// Transitions counts mode changes since start.
func (l *Locomotion) Transitions() int { return l.ctx.transitions }

// Fire sends a locomotion event. HALT drops FlagAvoiding and FlagApproaching,
// neither of which may outlive a halt. DODGE is refused while approaching.
func (l *Locomotion) Fire(ev statekit.EventType) error {
	mode := l.Mode()
	if !legalEvents[mode][ev] {
		return fmt.Errorf("%w: %s in %s", ErrIllegalTransition, ev, mode)
	}
	if ev == EventDodge && l.flags&FlagApproaching != 0 {
		return fmt.Errorf("%w: %s while approaching target", ErrIllegalTransition, ev)
	}
	l.interp.Send(statekit.Event{Type: ev})
	if ev == EventHalt {
		l.flags &^= FlagAvoiding | FlagApproaching
	}
	return nil
}

// Set raises a flag if it may co-occur with the current mode and flags.
func (l *Locomotion) Set(f Flag) error {
	mode := l.Mode()
	var ok bool
	switch f {
	case FlagAvoiding:
		ok = mode != ModeHalting
	case FlagApproaching:
		ok = mode == ModeForward && l.flags&FlagApproached == 0
	case FlagApproached:
		ok = mode == ModeHalting && l.flags&FlagApproaching == 0
	default:
		ok = false
	}
	if !ok {
		return fmt.Errorf("%w: flag %s in %s with %s", ErrIllegalTransition, f, mode, l.flags)
	}
	l.flags |= f
	return nil
}

// Clear lowers a flag. Clearing an unset flag is a no-op.
func (l *Locomotion) Clear(f Flag) { l.flags &^= f }

// Halted reports whether the statechart reached its final state.
func (l *Locomotion) Halted() bool { return l.interp.Done() }

func (l *Locomotion) String() string {
	return fmt.Sprintf("%s [%s]", l.Mode(), l.flags)
}

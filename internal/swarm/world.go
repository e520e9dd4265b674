package swarm

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
	"github.com/Garsondee/Swarm-Sense/internal/logging"
)

// Layout is everything a run needs besides tuning: the field, its obstacles,
// the target and where each agent starts. Agent ids follow Spawns order.
type Layout struct {
	Width, Height float64
	Obstacles     []geom.Rect
	Target        Target
	Spawns        []geom.Point
}

// SpawnGrid places n agents in rows across the field starting at y0 and
// stacking backwards (towards lower y). Rows are spacing apart and agents in
// a row at least spacing apart.
func SpawnGrid(n int, width, y0, spacing float64) []geom.Point {
	if n <= 0 {
		return nil
	}
	cols := int(width/spacing) - 1
	if cols < 1 {
		cols = 1
	}
	pts := make([]geom.Point, 0, n)
	for i := 0; i < n; i++ {
		row, col := i/cols, i%cols
		inRow := cols
		if rest := n - row*cols; rest < cols {
			inRow = rest
		}
		gap := width / float64(inRow+1)
		pts = append(pts, geom.Pt(gap*float64(col+1), y0-float64(row)*spacing))
	}
	return pts
}

// World owns the field, the population and every shared resource agents
// negotiate over: hole reservations, the approach slot table and the
// adjustment queue.
type World struct {
	cfg       Config
	width     float64
	height    float64
	obstacles []geom.Rect
	target    Target
	topEdge   float64

	agents       []*Agent
	reservations map[geom.Point]float64
	slots        *SlotTable

	queue    []Adjustment
	pending  map[pair]bool
	frozen   map[int][]int // distressed sender -> peers it froze
	contacts map[pair]bool
	inside   map[[2]int]bool

	rng  *rand.Rand
	rec  Recorder
	log  *bolt.Logger
	tick int
}

// WorldOption customises a World at construction.
type WorldOption func(*World)

// WithRecorder routes counter hooks to r.
func WithRecorder(r Recorder) WorldOption {
	return func(w *World) {
		if r != nil {
			w.rec = r
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *bolt.Logger) WorldOption {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

// WithRand injects the random source used for safety-point jitter.
func WithRand(r *rand.Rand) WorldOption {
	return func(w *World) {
		if r != nil {
			w.rng = r
		}
	}
}

// NewWorld builds a World and its population. cfg is copied and never
// changed afterwards.
func NewWorld(cfg Config, layout Layout, opts ...WorldOption) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !(layout.Width > 0) || !(layout.Height > 0) {
		return nil, fmt.Errorf("%w: field %.1fx%.1f", ErrInvalidLayout, layout.Width, layout.Height)
	}
	for i, ob := range layout.Obstacles {
		if ob.W < 0 || ob.H < 0 {
			return nil, fmt.Errorf("%w: obstacle %d has negative size", ErrInvalidLayout, i)
		}
	}
	if len(layout.Spawns) > 0 && !(layout.Target.Radius > 0) {
		return nil, fmt.Errorf("%w: target radius %.2f", ErrInvalidLayout, layout.Target.Radius)
	}

	w := &World{
		cfg:          cfg,
		width:        layout.Width,
		height:       layout.Height,
		obstacles:    append([]geom.Rect(nil), layout.Obstacles...),
		target:       layout.Target,
		reservations: make(map[geom.Point]float64),
		pending:      make(map[pair]bool),
		frozen:       make(map[int][]int),
		contacts:     make(map[pair]bool),
		inside:       make(map[[2]int]bool),
		rng:          rand.New(rand.NewSource(1)), // #nosec G404 -- jitter only
		rec:          NopRecorder{},
		log:          logging.Discard(),
	}
	for _, o := range opts {
		o(w)
	}
	for _, ob := range w.obstacles {
		w.topEdge = math.Max(w.topEdge, ob.Top())
	}

	slots := cfg.SlotCount
	if slots == 0 {
		slots = len(layout.Spawns)
	}
	w.slots = NewSlotTable(layout.Target, slots)

	for i, p := range layout.Spawns {
		a, err := newAgent(i, w, p)
		if err != nil {
			return nil, err
		}
		w.agents = append(w.agents, a)
	}
	return w, nil
}

// Config returns the run's configuration.
func (w *World) Config() Config { return w.cfg }

// Width returns the field width.
func (w *World) Width() float64 { return w.width }

// Height returns the field height.
func (w *World) Height() float64 { return w.height }

// Obstacles returns a copy of the obstacle list.
func (w *World) Obstacles() []geom.Rect {
	return append([]geom.Rect(nil), w.obstacles...)
}

// Target returns the convergence zone.
func (w *World) Target() Target { return w.target }

// Agents returns the population in id order. Callers outside the tick must
// treat the agents as read-only.
func (w *World) Agents() []*Agent { return w.agents }

// Agent looks up an agent by id.
func (w *World) Agent(id int) (*Agent, bool) {
	if id < 0 || id >= len(w.agents) {
		return nil, false
	}
	return w.agents[id], true
}

// Slots returns the approach slot table.
func (w *World) Slots() *SlotTable { return w.slots }

// Tick returns the number of completed steps.
func (w *World) Tick() int { return w.tick }

// Now returns the simulation clock in seconds.
func (w *World) Now() float64 { return float64(w.tick) * w.cfg.TickInterval }

// TopObstacleEdge returns the highest far edge of any obstacle, or 0 for an
// empty field.
func (w *World) TopObstacleEdge() float64 { return w.topEdge }

// Reservation returns the scheduled arrival time booked for hole.
func (w *World) Reservation(hole geom.Point) (float64, bool) {
	t, ok := w.reservations[hole]
	return t, ok
}

// DodgingVelocity books an arrival at hole for an agent at pos heading for
// dest and returns the velocity components it may use. A free hole, or one
// whose previous arrival is older than the reservation window, grants
// nominal speed on both axes. Otherwise the arrival is pushed back by the
// safety distance and the agent approaches slower, behind the previous
// claimant.
func (w *World) DodgingVelocity(hole, dest, pos geom.Point) (vx, vy float64) {
	cfg := &w.cfg
	dy := dest.Y() - pos.Y()
	now := w.Now()
	prev, reserved := w.reservations[hole]
	if !reserved || now-prev > cfg.ReservationWindow() {
		w.reservations[hole] = now + dy/cfg.NominalSpeed
		return cfg.NominalSpeed, cfg.NominalSpeed
	}
	sa := cfg.ReservationSafetyFactor * cfg.PeerClearance()
	tta := (dy + sa) / cfg.NominalSpeed
	w.reservations[hole] = now + tta

	logging.NewEvent(w.log.Debug()).
		Add(logging.Tick(w.tick)).
		Add(logging.HoleX(hole.X())).
		Add(logging.Num("arrival", now+tta)).
		Msg("hole occupied, queueing")
	return cfg.OccupiedHorizontalFactor * cfg.NominalSpeed, dy / tta
}

// claimSlot gives an agent at x the next free formation slot for its side,
// with the approach speed for that claim.
func (w *World) claimSlot(x float64) (int, geom.Point, float64, bool) {
	claims := w.slots.Claims()
	k, ok := w.slots.Claim(w.slots.SideOf(x))
	if !ok {
		return -1, geom.Point{}, 0, false
	}
	speed := w.cfg.NominalSpeed * math.Pow(w.cfg.ApproachSpeedDecay, float64(claims))
	return k, w.slots.SlotPosition(k), speed, true
}

// Step runs one tick: every agent senses in id order, queued adjustments are
// applied, every agent moves, then contacts are observed.
func (w *World) Step() {
	w.tick++
	for _, a := range w.agents {
		a.Sense()
	}
	w.arbitrate()

	prev := make([]geom.Point, len(w.agents))
	for i, a := range w.agents {
		prev[i] = a.pos
		a.Move(w.cfg.TickInterval)
	}
	w.observe(prev)
}

// observe reports hard collisions and obstacle strikes, each once per
// contact.
func (w *World) observe(prev []geom.Point) {
	limit := w.cfg.CollisionRadius()
	for i, a := range w.agents {
		for _, b := range w.agents[i+1:] {
			key := pairOf(a.id, b.id)
			sep := geom.Distance(a.pos, b.pos)
			switch {
			case sep < limit && !w.contacts[key]:
				w.contacts[key] = true
				w.rec.Collision(w.tick, a.id, b.id, sep)
			case sep >= limit && w.contacts[key]:
				delete(w.contacts, key)
			}
		}
	}

	for i, a := range w.agents {
		for j, ob := range w.obstacles {
			key := [2]int{a.id, j}
			hit := ob.Contains(a.pos) || geom.SegmentHitsRect(prev[i], a.pos, ob)
			switch {
			case hit && !w.inside[key]:
				w.inside[key] = true
				w.rec.ObstacleStrike(w.tick, a.id, j)
			case !hit && w.inside[key]:
				delete(w.inside, key)
			}
		}
	}
}

// AllArrived reports whether every agent reached its formation slot.
func (w *World) AllArrived() bool {
	for _, a := range w.agents {
		if !a.loco.Has(FlagApproached) {
			return false
		}
	}
	return true
}

// Settled reports whether every agent is halted, arrived or blocked.
func (w *World) Settled() bool {
	for _, a := range w.agents {
		if a.loco.Mode() != ModeHalting {
			return false
		}
	}
	return true
}

// AgentSnapshot is a read-only copy of one agent's state.
type AgentSnapshot struct {
	ID        int
	Label     string
	X, Y      float64
	Heading   float64
	Speed     float64
	Mode      Mode
	Flags     Flag
	Frozen    bool
	HasSafety bool
	SafetyX   float64
	SafetyY   float64
	Slot      int // -1 when no slot is claimed
	Retarding int // number of peers under arbitration
}

// Snapshot is the state of every agent after a tick.
type Snapshot struct {
	Tick   int
	Agents []AgentSnapshot
}

// Snapshot copies the current state for renderers and reports.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{Tick: w.tick, Agents: make([]AgentSnapshot, 0, len(w.agents))}
	for _, a := range w.agents {
		s := AgentSnapshot{
			ID:        a.id,
			Label:     a.Label(),
			X:         a.pos.X(),
			Y:         a.pos.Y(),
			Heading:   a.heading,
			Speed:     a.speed,
			Mode:      a.loco.Mode(),
			Flags:     a.loco.Flags(),
			Frozen:    a.Frozen(),
			Slot:      -1,
			Retarding: len(a.retarding),
		}
		if a.safety != nil {
			s.HasSafety = true
			s.SafetyX, s.SafetyY = a.safety.Point.X(), a.safety.Point.Y()
		}
		if a.approach != nil {
			s.Slot = a.approach.Slot
		}
		snap.Agents = append(snap.Agents, s)
	}
	return snap
}

func labelOf(id int) string { return fmt.Sprintf("A%d", id) }

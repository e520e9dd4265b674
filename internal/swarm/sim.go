package swarm

import (
	"fmt"
	"math/rand"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
)

// Sim is the headless driver used by tests, the CLI and the viewer. It owns
// a World, seeds its randomness and records a SimLog plus a Tally.
type Sim struct {
	World  *World
	SimLog *SimLog
	Tally  *Tally

	cfg       Config
	width     float64
	height    float64
	obstacles []geom.Rect
	target    *Target
	spawns    []geom.Point
	rng       *rand.Rand
	recorders []Recorder
	logger    *bolt.Logger
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // field, obstacles, config, seed: applied first
	simOptAgent                      // spawns: applied once the field is known
)

// SimOption is a builder function applied to a Sim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*Sim)
}

// WithFieldSize sets the field dimensions.
func WithFieldSize(w, h float64) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.width = w
		s.height = h
	}}
}

// WithObstacle adds an obstacle; y is its near edge.
func WithObstacle(x, y, w, h float64) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.obstacles = append(s.obstacles, geom.Rect{X: x, Y: y, W: w, H: h})
	}}
}

// WithObstacles adds several obstacles.
func WithObstacles(rects ...geom.Rect) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.obstacles = append(s.obstacles, rects...)
	}}
}

// WithTarget places the convergence zone.
func WithTarget(cx, cy, radius float64) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.target = &Target{Center: geom.Pt(cx, cy), Radius: radius}
	}}
}

// WithConfig replaces the default tuning.
func WithConfig(cfg Config) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.cfg = cfg
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation jitter
	}}
}

// WithVerbose enables per-tick position logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.SimLog = NewSimLog(v)
	}}
}

// WithSimRecorder adds a recorder next to the built-in log and tally.
func WithSimRecorder(r Recorder) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.recorders = append(s.recorders, r)
	}}
}

// WithSimLogger sets the structured logger handed to the World.
func WithSimLogger(l *bolt.Logger) SimOption {
	return SimOption{simOptInfra, func(s *Sim) {
		s.logger = l
	}}
}

// WithAgent adds an agent at (x, y). Ids follow the order agents are added.
func WithAgent(x, y float64) SimOption {
	return SimOption{simOptAgent, func(s *Sim) {
		s.spawns = append(s.spawns, geom.Pt(x, y))
	}}
}

// WithPopulation adds n agents in rows below the start line.
func WithPopulation(n int) SimOption {
	return SimOption{simOptAgent, func(s *Sim) {
		spacing := 2*s.cfg.AgentRadius + s.cfg.SafetyRadius
		s.spawns = append(s.spawns, SpawnGrid(n, s.width, 2, spacing)...)
	}}
}

// NewSim constructs a Sim from options in two passes: field and tuning
// first, then agents. The default field is 20x50 with the target centred
// five units below the far edge.
func NewSim(opts ...SimOption) (*Sim, error) {
	s := &Sim{
		cfg:    DefaultConfig(),
		width:  20,
		height: 50,
		SimLog: NewSimLog(false),
		Tally:  &Tally{},
		rng:    rand.New(rand.NewSource(1)), // #nosec G404 -- simulation default
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(s)
		}
	}
	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(s)
		}
	}
	target := Target{Center: geom.Pt(s.width/2, s.height-5), Radius: s.width / 4}
	if s.target != nil {
		target = *s.target
	}

	recorders := append(MultiRecorder{logRecorder{log: s.SimLog}, s.Tally}, s.recorders...)
	w, err := NewWorld(s.cfg, Layout{
		Width:     s.width,
		Height:    s.height,
		Obstacles: s.obstacles,
		Target:    target,
		Spawns:    s.spawns,
	}, WithRand(s.rng), WithRecorder(recorders), WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}
	s.World = w
	return s, nil
}

// CurrentTick returns the number of completed ticks.
func (s *Sim) CurrentTick() int { return s.World.Tick() }

// Agent looks up an agent by id.
func (s *Sim) Agent(id int) *Agent {
	a, _ := s.World.Agent(id)
	return a
}

// Step runs one tick and logs state changes.
func (s *Sim) Step() {
	prevModes := make([]Mode, len(s.World.agents))
	prevFlags := make([]Flag, len(s.World.agents))
	for i, a := range s.World.agents {
		prevModes[i] = a.Mode()
		prevFlags[i] = a.Flags()
	}

	s.World.Step()

	tick := s.World.Tick()
	for i, a := range s.World.agents {
		if a.Mode() != prevModes[i] {
			s.SimLog.Add(tick, a.Label(), "mode", "change",
				fmt.Sprintf("%s → %s", prevModes[i], a.Mode()), 0)
		}
		if a.Flags() != prevFlags[i] {
			s.SimLog.Add(tick, a.Label(), "flag", "change",
				fmt.Sprintf("%s → %s", prevFlags[i], a.Flags()), 0)
		}
		s.SimLog.AddVerbose(tick, a.Label(), "move", "position",
			fmt.Sprintf("(%.2f,%.2f) v=%.3f h=%.1f", a.pos.X(), a.pos.Y(), a.speed, a.heading), a.speed)
	}
}

// RunTicks advances the simulation n ticks.
func (s *Sim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// RunUntil advances the simulation up to maxTicks, stopping early if
// predicate returns true. Returns the tick at which the predicate was
// satisfied, or -1.
func (s *Sim) RunUntil(predicate func(*Sim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		s.Step()
		if predicate(s) {
			return s.World.Tick()
		}
	}
	return -1
}

// Run advances until every agent has halted or maxTicks elapse, and returns
// the number of ticks run.
func (s *Sim) Run(maxTicks int) int {
	if s.World.Settled() {
		return 0
	}
	if t := s.RunUntil(func(s *Sim) bool { return s.World.Settled() }, maxTicks); t >= 0 {
		return t
	}
	s.SimLog.Add(s.World.Tick(), "--", "run", "budget", fmt.Sprintf("stopped after %d ticks", maxTicks), float64(maxTicks))
	return maxTicks
}

// Snapshot returns the current state of all agents.
func (s *Sim) Snapshot() Snapshot {
	return s.World.Snapshot()
}

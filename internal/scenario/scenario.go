// Package scenario describes swarm runs as data: the field, its obstacles,
// the target, the population and any tuning overrides. Scenarios come from
// the built-in set or from YAML, JSON and TOML files.
package scenario

import (
	"fmt"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
	"github.com/Garsondee/Swarm-Sense/internal/swarm"
)

// Obstacle is an axis-aligned rectangle; Y is its near edge.
type Obstacle struct {
	X float64 `yaml:"x" json:"x" toml:"x"`
	Y float64 `yaml:"y" json:"y" toml:"y"`
	W float64 `yaml:"w" json:"w" toml:"w"`
	H float64 `yaml:"h" json:"h" toml:"h"`
}

// Rect converts to the geometry type.
func (o Obstacle) Rect() geom.Rect { return geom.Rect{X: o.X, Y: o.Y, W: o.W, H: o.H} }

// Target places the convergence zone. A nil target uses the Sim default.
type Target struct {
	X      float64 `yaml:"x" json:"x" toml:"x"`
	Y      float64 `yaml:"y" json:"y" toml:"y"`
	Radius float64 `yaml:"radius" json:"radius" toml:"radius"`
}

// Overrides replaces selected swarm.Config fields. Unset fields keep the
// defaults.
type Overrides struct {
	AgentRadius       *float64 `yaml:"agent_radius,omitempty" json:"agent_radius,omitempty" toml:"agent_radius,omitempty"`
	SafetyRadius      *float64 `yaml:"safety_radius,omitempty" json:"safety_radius,omitempty" toml:"safety_radius,omitempty"`
	ObstacleAllowance *float64 `yaml:"obstacle_allowance,omitempty" json:"obstacle_allowance,omitempty" toml:"obstacle_allowance,omitempty"`
	PanicDistance     *float64 `yaml:"panic_distance,omitempty" json:"panic_distance,omitempty" toml:"panic_distance,omitempty"`
	NominalSpeed      *float64 `yaml:"nominal_speed,omitempty" json:"nominal_speed,omitempty" toml:"nominal_speed,omitempty"`
	MaxSpeed          *float64 `yaml:"max_speed,omitempty" json:"max_speed,omitempty" toml:"max_speed,omitempty"`
	TickInterval      *float64 `yaml:"tick_interval,omitempty" json:"tick_interval,omitempty" toml:"tick_interval,omitempty"`
	SlotCount         *int     `yaml:"slot_count,omitempty" json:"slot_count,omitempty" toml:"slot_count,omitempty"`
	Arbitration       string   `yaml:"arbitration,omitempty" json:"arbitration,omitempty" toml:"arbitration,omitempty"`
}

// Scenario is one run description.
type Scenario struct {
	Name       string     `yaml:"name" json:"name" toml:"name"`
	Width      float64    `yaml:"width" json:"width" toml:"width"`
	Height     float64    `yaml:"height" json:"height" toml:"height"`
	Population int        `yaml:"population" json:"population" toml:"population"`
	Seed       int64      `yaml:"seed,omitempty" json:"seed,omitempty" toml:"seed,omitempty"`
	Obstacles  []Obstacle `yaml:"obstacles" json:"obstacles" toml:"obstacles"`
	Target     *Target    `yaml:"target,omitempty" json:"target,omitempty" toml:"target,omitempty"`
	Config     Overrides  `yaml:"config,omitempty" json:"config,omitempty" toml:"config,omitempty"`
}

// Validate checks the parts of a scenario the World does not check itself.
func (s Scenario) Validate() error {
	if !(s.Width > 0) || !(s.Height > 0) {
		return fmt.Errorf("%w: %q field %.1fx%.1f", ErrInvalidScenario, s.Name, s.Width, s.Height)
	}
	if s.Population < 0 {
		return fmt.Errorf("%w: %q population %d", ErrInvalidScenario, s.Name, s.Population)
	}
	for i, o := range s.Obstacles {
		if o.W <= 0 || o.H <= 0 {
			return fmt.Errorf("%w: %q obstacle %d is empty", ErrInvalidScenario, s.Name, i)
		}
	}
	if s.Target != nil && !(s.Target.Radius > 0) {
		return fmt.Errorf("%w: %q target radius %.2f", ErrInvalidScenario, s.Name, s.Target.Radius)
	}
	return nil
}

// SwarmConfig applies the overrides to the default tuning.
func (s Scenario) SwarmConfig() (swarm.Config, error) {
	cfg := swarm.DefaultConfig()
	o := s.Config
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cfg.AgentRadius, o.AgentRadius)
	set(&cfg.SafetyRadius, o.SafetyRadius)
	set(&cfg.ObstacleAllowance, o.ObstacleAllowance)
	set(&cfg.PanicDistance, o.PanicDistance)
	set(&cfg.NominalSpeed, o.NominalSpeed)
	set(&cfg.MaxSpeed, o.MaxSpeed)
	set(&cfg.TickInterval, o.TickInterval)
	if o.SlotCount != nil {
		cfg.SlotCount = *o.SlotCount
	}
	if o.Arbitration != "" {
		cfg.Arbitration = swarm.Arbitration(o.Arbitration)
	}
	if err := cfg.Validate(); err != nil {
		return swarm.Config{}, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return cfg, nil
}

// Options turns the scenario into Sim options. extra options are applied
// after the scenario's own, so callers can replace the seed or add
// recorders.
func (s Scenario) Options(extra ...swarm.SimOption) ([]swarm.SimOption, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cfg, err := s.SwarmConfig()
	if err != nil {
		return nil, err
	}
	opts := []swarm.SimOption{
		swarm.WithFieldSize(s.Width, s.Height),
		swarm.WithConfig(cfg),
	}
	for _, o := range s.Obstacles {
		opts = append(opts, swarm.WithObstacles(o.Rect()))
	}
	if s.Target != nil {
		opts = append(opts, swarm.WithTarget(s.Target.X, s.Target.Y, s.Target.Radius))
	}
	if s.Seed != 0 {
		opts = append(opts, swarm.WithSeed(s.Seed))
	}
	if s.Population > 0 {
		opts = append(opts, swarm.WithPopulation(s.Population))
	}
	return append(opts, extra...), nil
}

// NewSim builds a Sim for the scenario.
func (s Scenario) NewSim(extra ...swarm.SimOption) (*swarm.Sim, error) {
	opts, err := s.Options(extra...)
	if err != nil {
		return nil, err
	}
	return swarm.NewSim(opts...)
}

// WithPopulation returns a copy with the population replaced.
func (s Scenario) WithPopulation(n int) Scenario {
	s.Population = n
	s.Obstacles = append([]Obstacle(nil), s.Obstacles...)
	return s
}

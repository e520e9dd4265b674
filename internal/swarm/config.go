package swarm

import (
	"fmt"
	"math"
)

// Arbitration selects which policy sequences agents through shared space.
type Arbitration string

const (
	// ArbitrationPairwise is the pairwise collision prediction and retardation
	// protocol. It is the default.
	ArbitrationPairwise Arbitration = "pairwise"
	// ArbitrationDistress routes gap reports through World.ReceiveDistress.
	ArbitrationDistress Arbitration = "distress"
)

// Config holds every tunable of a run. A World copies it at construction and
// never changes it afterwards.
type Config struct {
	AgentRadius       float64 // body radius, world units
	SafetyRadius      float64 // extra clearance kept from peers
	ObstacleAllowance float64 // extra clearance kept from obstacles
	PanicDistance     float64 // how far ahead obstacles are sensed

	NominalHeading float64 // degrees; 90 is straight up the field
	NominalSpeed   float64
	MaxSpeed       float64
	TickInterval   float64 // simulated seconds per tick

	ProximityFactor float64 // near-miss threshold as a multiple of AgentRadius
	DodgeIncrement  float64 // heading nudge in degrees

	ArrivalEpsilon  float64
	RecoveryEpsilon float64
	VelocityEpsilon float64

	RetardStretch            float64 // clearance multiple added when slowing a peer
	ReservationSafetyFactor  float64 // hole reservation window, in (r+safety) units
	OccupiedHorizontalFactor float64 // vx multiple granted when a hole is occupied
	ApproachSpeedDecay       float64 // per-claim speed decay in the formation
	SidestepFactor           float64 // distress sidestep speed multiple

	// SlotCount sizes the approach formation. Zero means one slot per agent.
	SlotCount int

	Arbitration Arbitration
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		AgentRadius:       1.3,
		SafetyRadius:      0.5,
		ObstacleAllowance: 0.1,
		PanicDistance:     6,

		NominalHeading: 90,
		NominalSpeed:   0.2,
		MaxSpeed:       0.35,
		TickInterval:   1,

		ProximityFactor: 2.3,
		DodgeIncrement:  10,

		ArrivalEpsilon:  0.001,
		RecoveryEpsilon: 1e-4,
		VelocityEpsilon: 1e-6,

		RetardStretch:            5,
		ReservationSafetyFactor:  3,
		OccupiedHorizontalFactor: 0.3,
		ApproachSpeedDecay:       0.98,
		SidestepFactor:           0.5,

		Arbitration: ArbitrationPairwise,
	}
}

// Clearance is the half-width an agent needs to pass an obstacle.
func (c Config) Clearance() float64 { return c.AgentRadius + c.ObstacleAllowance }

// PeerClearance is the distance an agent keeps from another agent's path.
func (c Config) PeerClearance() float64 { return c.AgentRadius + c.SafetyRadius }

// CollisionRadius is the centre separation below which two agents touch.
func (c Config) CollisionRadius() float64 { return 2 * c.AgentRadius }

// ProximityRadius is the separation that triggers a heading nudge.
func (c Config) ProximityRadius() float64 { return c.ProximityFactor * c.AgentRadius }

// ReservationWindow is how long, in simulated seconds, a hole stays occupied
// after the previous claimant's scheduled arrival.
func (c Config) ReservationWindow() float64 {
	return c.ReservationSafetyFactor * c.PeerClearance() / c.NominalSpeed
}

// Validate checks that the config can drive a run.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"agent radius", c.AgentRadius},
		{"panic distance", c.PanicDistance},
		{"nominal speed", c.NominalSpeed},
		{"max speed", c.MaxSpeed},
		{"tick interval", c.TickInterval},
		{"proximity factor", c.ProximityFactor},
		{"arrival epsilon", c.ArrivalEpsilon},
		{"recovery epsilon", c.RecoveryEpsilon},
		{"velocity epsilon", c.VelocityEpsilon},
		{"reservation safety factor", c.ReservationSafetyFactor},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, p.name, p.v)
		}
	}
	if c.SafetyRadius < 0 || c.ObstacleAllowance < 0 || c.RetardStretch < 0 {
		return fmt.Errorf("%w: radii and stretch must not be negative", ErrInvalidConfig)
	}
	if c.MaxSpeed < c.NominalSpeed {
		return fmt.Errorf("%w: max speed %.3f below nominal %.3f", ErrInvalidConfig, c.MaxSpeed, c.NominalSpeed)
	}
	if c.ApproachSpeedDecay <= 0 || c.ApproachSpeedDecay > 1 {
		return fmt.Errorf("%w: approach speed decay must be in (0,1], got %v", ErrInvalidConfig, c.ApproachSpeedDecay)
	}
	if c.OccupiedHorizontalFactor < 0 || c.SidestepFactor <= 0 {
		return fmt.Errorf("%w: speed factors out of range", ErrInvalidConfig)
	}
	if c.SlotCount < 0 {
		return fmt.Errorf("%w: slot count %d", ErrInvalidConfig, c.SlotCount)
	}
	switch c.Arbitration {
	case ArbitrationPairwise, ArbitrationDistress:
	default:
		return fmt.Errorf("%w: unknown arbitration %q", ErrInvalidConfig, c.Arbitration)
	}
	return nil
}

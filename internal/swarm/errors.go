package swarm

import "errors"

var (
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid swarm config")

	// ErrInvalidLayout is returned when a Layout cannot host a run.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrIllegalTransition is returned when a locomotion event or flag is not
	// allowed in the agent's current state.
	ErrIllegalTransition = errors.New("illegal locomotion transition")

	// ErrVelocityDirection is returned for a velocity direction other than
	// free, horizontal or vertical.
	ErrVelocityDirection = errors.New("velocity direction is incorrect")
)

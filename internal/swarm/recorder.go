package swarm

import "github.com/Garsondee/Swarm-Sense/internal/geom"

// Recorder receives the counter hooks of a run. Implementations must not
// mutate the World.
type Recorder interface {
	// CollisionCourse fires when the pairwise collision-course test triggers.
	CollisionCourse(tick, a, b int, at geom.Point)
	// NearMiss fires when an agent nudges its heading away from a close peer.
	NearMiss(tick, a, b int, separation float64)
	// Collision fires when two agents come within the hard-collision radius.
	// It is edge-triggered per pair.
	Collision(tick, a, b int, separation float64)
	// ObstacleStrike fires when an agent's move takes it into an obstacle.
	ObstacleStrike(tick, agent, obstacle int)
}

// NopRecorder ignores every hook.
type NopRecorder struct{}

func (NopRecorder) CollisionCourse(int, int, int, geom.Point) {}
func (NopRecorder) NearMiss(int, int, int, float64)          {}
func (NopRecorder) Collision(int, int, int, float64)         {}
func (NopRecorder) ObstacleStrike(int, int, int)             {}

// Tally counts hook calls. Field names follow the result files: detected
// collision courses, imminent near misses, actual collisions.
type Tally struct {
	Detected   int
	Imminent   int
	Collisions int
	Strikes    int
}

func (t *Tally) CollisionCourse(int, int, int, geom.Point) { t.Detected++ }
func (t *Tally) NearMiss(int, int, int, float64)          { t.Imminent++ }
func (t *Tally) Collision(int, int, int, float64)         { t.Collisions++ }
func (t *Tally) ObstacleStrike(int, int, int)             { t.Strikes++ }

// MultiRecorder fans every hook out to each recorder in order.
type MultiRecorder []Recorder

func (m MultiRecorder) CollisionCourse(tick, a, b int, at geom.Point) {
	for _, r := range m {
		r.CollisionCourse(tick, a, b, at)
	}
}

func (m MultiRecorder) NearMiss(tick, a, b int, separation float64) {
	for _, r := range m {
		r.NearMiss(tick, a, b, separation)
	}
}

func (m MultiRecorder) Collision(tick, a, b int, separation float64) {
	for _, r := range m {
		r.Collision(tick, a, b, separation)
	}
}

func (m MultiRecorder) ObstacleStrike(tick, agent, obstacle int) {
	for _, r := range m {
		r.ObstacleStrike(tick, agent, obstacle)
	}
}

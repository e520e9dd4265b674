package logging

import (
	"strconv"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// AgentID adds the agent id.
func AgentID(id int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("agent", id)
	}
}

// Peer adds the id of the other agent in a pairwise event.
func Peer(id int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("peer", id)
	}
}

// Tick adds the simulation tick.
func Tick(tick int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("tick", tick)
	}
}

// Mode adds a locomotion mode.
func Mode(mode string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("mode", mode)
	}
}

// Slot adds an approach slot index.
func Slot(k int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("slot", k)
	}
}

// HoleX adds the x coordinate identifying a hole.
func HoleX(x float64) Field {
	return Num("hole_x", x)
}

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// Scenario adds the scenario name.
func Scenario(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("scenario", name)
	}
}

// Population adds the population size.
func Population(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("population", n)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Num adds a float rendered with three decimals.
func Num(key string, v float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, strconv.FormatFloat(v, 'f', 3, 64))
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

package scenario

import (
	"fmt"
	"sort"
)

// Field size shared by the built-in scenarios.
const (
	DefaultWidth  = 20
	DefaultHeight = 50
)

var builtins = map[string][]Obstacle{
	"a":  {{X: 3, Y: 20, W: 4, H: 2}, {X: 10, Y: 16, W: 6, H: 8}},
	"a2": {{X: 3, Y: 25, W: 14, H: 4}},
	"b":  {{X: 0, Y: 15, W: 8, H: 5}, {X: 12, Y: 29, W: 4, H: 7}},
	"c":  {{X: 5, Y: 23, W: 4, H: 4}, {X: 16, Y: 29, W: 4, H: 11}},
	"d":  {{X: 0, Y: 25, W: 10, H: 3}, {X: 16, Y: 15, W: 4, H: 3}},
	"e":  {{X: 0, Y: 25, W: 20, H: 4}},
	"f":  {},
}

// Names lists the built-in scenarios in order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a built-in scenario on the 20x50 field. Population is left
// at zero for the caller to set.
func Builtin(name string) (Scenario, error) {
	obs, ok := builtins[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return Scenario{
		Name:      name,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Obstacles: append([]Obstacle(nil), obs...),
	}, nil
}

// Resolve returns the built-in scenario called ref, or loads ref as a file
// when no built-in has that name.
func Resolve(ref string, l *Loader) (Scenario, error) {
	if s, err := Builtin(ref); err == nil {
		return s, nil
	}
	if l == nil {
		l = NewLoader()
	}
	return l.LoadFile(ref)
}

// Package results persists run outcomes and consolidates them per scenario
// and population.
package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Garsondee/Swarm-Sense/internal/swarm"
)

var (
	ErrNotInitialized = errors.New("store is not initialized")
	ErrUnsupported    = errors.New("unsupported store backend")
)

// Result is the outcome of one run.
type Result struct {
	RunID      string
	Scenario   string
	Population int
	Seed       int64
	Ticks      int
	Settled    bool
	Arrived    int
	Detected   int
	Imminent   int
	Collisions int
	Strikes    int
	RecordedAt time.Time
}

// Totals accumulates every run of one scenario at one population.
type Totals struct {
	Scenario   string
	Population int
	Runs       int
	Detected   int
	Imminent   int
	Collisions int
	Strikes    int
}

func (t *Totals) add(r Result) {
	t.Runs++
	t.Detected += r.Detected
	t.Imminent += r.Imminent
	t.Collisions += r.Collisions
	t.Strikes += r.Strikes
}

// Store records results and keeps the consolidated totals.
type Store interface {
	Init(ctx context.Context) error
	Record(ctx context.Context, r Result) error
	Run(ctx context.Context, runID string) (Result, bool, error)
	Totals(ctx context.Context) ([]Totals, error)
	Lookup(ctx context.Context, scenario string, population int) (Totals, bool, error)
}

// NewStore opens a backend by name: "memory" (or empty) or "sqlite".
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if sqlitePath == "" {
			return nil, fmt.Errorf("%w: sqlite needs a path", ErrUnsupported)
		}
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
}

// CloseIfSupported closes stores that hold resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// FromSim collects the counters of a finished Sim.
func FromSim(scenario string, seed int64, sim *swarm.Sim, ticks int) Result {
	arrived := 0
	for _, a := range sim.World.Agents() {
		if a.Has(swarm.FlagApproached) {
			arrived++
		}
	}
	return Result{
		RunID:      NewRunID(),
		Scenario:   scenario,
		Population: len(sim.World.Agents()),
		Seed:       seed,
		Ticks:      ticks,
		Settled:    sim.World.Settled(),
		Arrived:    arrived,
		Detected:   sim.Tally.Detected,
		Imminent:   sim.Tally.Imminent,
		Collisions: sim.Tally.Collisions,
		Strikes:    sim.Tally.Strikes,
		RecordedAt: time.Now().UTC(),
	}
}

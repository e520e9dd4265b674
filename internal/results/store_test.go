package results

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Garsondee/Swarm-Sense/internal/swarm"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "results.db")),
	}
	for name, s := range stores {
		if err := s.Init(ctx); err != nil {
			t.Fatalf("%s init: %v", name, err)
		}
		s := s
		t.Cleanup(func() { _ = CloseIfSupported(s) })
	}
	return stores
}

func TestStore_ConsolidatesByScenarioAndPopulation(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			runs := []Result{
				{RunID: NewRunID(), Scenario: "a", Population: 5, Detected: 2, Imminent: 1, Collisions: 0},
				{RunID: NewRunID(), Scenario: "a", Population: 5, Detected: 3, Imminent: 0, Collisions: 1},
				{RunID: NewRunID(), Scenario: "a", Population: 10, Detected: 7, Imminent: 4, Collisions: 2},
				{RunID: NewRunID(), Scenario: "b", Population: 5, Detected: 1, Strikes: 1},
			}
			for _, r := range runs {
				r.RecordedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
				if err := s.Record(ctx, r); err != nil {
					t.Fatalf("record: %v", err)
				}
			}

			got, ok, err := s.Lookup(ctx, "a", 5)
			if err != nil || !ok {
				t.Fatalf("lookup a/5: ok=%v err=%v", ok, err)
			}
			want := Totals{Scenario: "a", Population: 5, Runs: 2, Detected: 5, Imminent: 1, Collisions: 1}
			if got != want {
				t.Fatalf("expected %+v, got %+v", want, got)
			}

			all, err := s.Totals(ctx)
			if err != nil {
				t.Fatalf("totals: %v", err)
			}
			if len(all) != 3 {
				t.Fatalf("expected 3 groups, got %d", len(all))
			}
			if all[0].Scenario != "a" || all[0].Population != 5 || all[2].Scenario != "b" {
				t.Fatalf("totals not ordered by scenario then population: %+v", all)
			}

			if _, ok, _ := s.Lookup(ctx, "z", 5); ok {
				t.Fatal("expected no totals for unknown scenario")
			}
		})
	}
}

func TestStore_DuplicateRunIgnored(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			r := Result{RunID: "fixed", Scenario: "e", Population: 2, Detected: 4, RecordedAt: time.Now()}
			for i := 0; i < 2; i++ {
				if err := s.Record(ctx, r); err != nil {
					t.Fatalf("record: %v", err)
				}
			}
			got, _, _ := s.Lookup(ctx, "e", 2)
			if got.Runs != 1 || got.Detected != 4 {
				t.Fatalf("expected one run counted, got %+v", got)
			}
			back, ok, err := s.Run(ctx, "fixed")
			if err != nil || !ok {
				t.Fatalf("run lookup: ok=%v err=%v", ok, err)
			}
			if back.Scenario != "e" || back.Detected != 4 {
				t.Fatalf("unexpected run: %+v", back)
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")

	first := NewSQLiteStore(path)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := first.Record(ctx, Result{RunID: NewRunID(), Scenario: "c", Population: 20, Collisions: 3, Settled: true, RecordedAt: time.Now()}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := NewSQLiteStore(path)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, ok, err := second.Lookup(ctx, "c", 20)
	if err != nil || !ok || got.Collisions != 3 {
		t.Fatalf("expected persisted totals, got %+v ok=%v err=%v", got, ok, err)
	}
}

func TestStore_RequiresInit(t *testing.T) {
	ctx := context.Background()
	if err := NewMemoryStore().Record(ctx, Result{RunID: "x"}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := NewSQLiteStore("unused.db").Totals(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestNewStore(t *testing.T) {
	if s, err := NewStore("", ""); err != nil || s == nil {
		t.Fatalf("expected memory store, got %v", err)
	}
	if _, err := NewStore("sqlite", ""); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for missing path, got %v", err)
	}
	if _, err := NewStore("postgres", "x"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestFromSim(t *testing.T) {
	sim, err := swarm.NewSim(swarm.WithObstacle(0, 25, 20, 4), swarm.WithPopulation(3))
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	ticks := sim.Run(500)
	r := FromSim("e", 1, sim, ticks)
	if r.RunID == "" || r.Population != 3 || r.Scenario != "e" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if !r.Settled || r.Arrived != 0 {
		t.Fatalf("wall scenario should settle with nobody arrived: %+v", r)
	}
	if other := FromSim("e", 1, sim, ticks); other.RunID == r.RunID {
		t.Fatal("run ids must be unique")
	}
}

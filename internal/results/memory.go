package results

import (
	"context"
	"sort"
	"sync"
)

type totalsKey struct {
	scenario   string
	population int
}

// MemoryStore keeps results for the life of the process.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]Result
	totals      map[totalsKey]*Totals
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]Result)
	s.totals = make(map[totalsKey]*Totals)
	return nil
}

func (s *MemoryStore) Record(_ context.Context, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if _, seen := s.runs[r.RunID]; seen {
		return nil
	}
	s.runs[r.RunID] = r
	key := totalsKey{r.Scenario, r.Population}
	t, ok := s.totals[key]
	if !ok {
		t = &Totals{Scenario: r.Scenario, Population: r.Population}
		s.totals[key] = t
	}
	t.add(r)
	return nil
}

func (s *MemoryStore) Run(_ context.Context, runID string) (Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	return r, ok, nil
}

func (s *MemoryStore) Totals(_ context.Context) ([]Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Totals, 0, len(s.totals))
	for _, t := range s.totals {
		out = append(out, *t)
	}
	sortTotals(out)
	return out, nil
}

func (s *MemoryStore) Lookup(_ context.Context, scenario string, population int) (Totals, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.totals[totalsKey{scenario, population}]
	if !ok {
		return Totals{}, false, nil
	}
	return *t, true, nil
}

func sortTotals(ts []Totals) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Scenario != ts[j].Scenario {
			return ts[i].Scenario < ts[j].Scenario
		}
		return ts[i].Population < ts[j].Population
	})
}

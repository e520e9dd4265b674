package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps results in a SQLite file so sweeps can accumulate over
// several invocations.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

// Record stores the run and folds it into the totals in one transaction. A
// run id seen before is ignored.
func (s *SQLiteStore) Record(ctx context.Context, r Result) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, scenario, population, seed, ticks, settled, arrived,
			detected, imminent, collisions, strikes, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`, r.RunID, r.Scenario, r.Population, r.Seed, r.Ticks, r.Settled, r.Arrived,
		r.Detected, r.Imminent, r.Collisions, r.Strikes, r.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tx.Commit()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO totals (scenario, population, runs, detected, imminent, collisions, strikes)
		VALUES (?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT(scenario, population) DO UPDATE SET
			runs = runs + 1,
			detected = detected + excluded.detected,
			imminent = imminent + excluded.imminent,
			collisions = collisions + excluded.collisions,
			strikes = strikes + excluded.strikes
	`, r.Scenario, r.Population, r.Detected, r.Imminent, r.Collisions, r.Strikes)
	if err != nil {
		return fmt.Errorf("consolidate %s/%d: %w", r.Scenario, r.Population, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Run(ctx context.Context, runID string) (Result, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Result{}, false, err
	}
	var (
		r  Result
		at string
	)
	err = db.QueryRowContext(ctx, `
		SELECT run_id, scenario, population, seed, ticks, settled, arrived,
			detected, imminent, collisions, strikes, recorded_at
		FROM runs WHERE run_id = ?
	`, runID).Scan(&r.RunID, &r.Scenario, &r.Population, &r.Seed, &r.Ticks, &r.Settled, &r.Arrived,
		&r.Detected, &r.Imminent, &r.Collisions, &r.Strikes, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, false, nil
		}
		return Result{}, false, err
	}
	if r.RecordedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
		return Result{}, false, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return r, true, nil
}

func (s *SQLiteStore) Totals(ctx context.Context) ([]Totals, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT scenario, population, runs, detected, imminent, collisions, strikes
		FROM totals ORDER BY scenario, population
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Totals
	for rows.Next() {
		var t Totals
		if err := rows.Scan(&t.Scenario, &t.Population, &t.Runs, &t.Detected, &t.Imminent, &t.Collisions, &t.Strikes); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Lookup(ctx context.Context, scenario string, population int) (Totals, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Totals{}, false, err
	}
	t := Totals{Scenario: scenario, Population: population}
	err = db.QueryRowContext(ctx, `
		SELECT runs, detected, imminent, collisions, strikes
		FROM totals WHERE scenario = ? AND population = ?
	`, scenario, population).Scan(&t.Runs, &t.Detected, &t.Imminent, &t.Collisions, &t.Strikes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Totals{}, false, nil
		}
		return Totals{}, false, err
	}
	return t, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			population INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			settled BOOLEAN NOT NULL,
			arrived INTEGER NOT NULL,
			detected INTEGER NOT NULL,
			imminent INTEGER NOT NULL,
			collisions INTEGER NOT NULL,
			strikes INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS totals (
			scenario TEXT NOT NULL,
			population INTEGER NOT NULL,
			runs INTEGER NOT NULL,
			detected INTEGER NOT NULL,
			imminent INTEGER NOT NULL,
			collisions INTEGER NOT NULL,
			strikes INTEGER NOT NULL,
			PRIMARY KEY (scenario, population)
		);
	`)
	return err
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func newTestApp() (*App, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return New().WithOutput(stdout, stderr), stdout, stderr
}

func TestVersionCommand(t *testing.T) {
	app, stdout, _ := newTestApp()
	if err := app.ExecuteWithArgs(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(stdout.String(), "swarmctl version dev") {
		t.Fatalf("expected version line, got %q", stdout.String())
	}
}

func TestScenariosCommand(t *testing.T) {
	app, stdout, _ := newTestApp()
	if err := app.ExecuteWithArgs(context.Background(), []string{"scenarios"}); err != nil {
		t.Fatalf("scenarios: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"NAME", "a2", "20x50", "(0,25 20x4)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestRunJSON(t *testing.T) {
	app, stdout, stderr := newTestApp()
	err := app.ExecuteWithArgs(context.Background(), []string{
		"run", "-s", "e", "-n", "3", "--runs", "2", "--ticks", "400", "--json", "--log-format", "json",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var all []runStats
	if err := json.Unmarshal(stdout.Bytes(), &all); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(all))
	}
	if all[0].Seed != 42 || all[1].Seed != 43 {
		t.Fatalf("expected seeds 42 and 43, got %d and %d", all[0].Seed, all[1].Seed)
	}
	for _, rs := range all {
		if rs.Result.Population != 3 || rs.Result.Scenario != "e" {
			t.Fatalf("unexpected result %+v", rs.Result)
		}
		if rs.Result.Arrived != 0 {
			t.Fatalf("expected nobody past the wall, got %d", rs.Result.Arrived)
		}
		if rs.Result.RunID == "" {
			t.Fatal("expected a run id")
		}
	}
	if !strings.Contains(stderr.String(), "run finished") {
		t.Fatalf("expected run log on stderr, got %q", stderr.String())
	}
}

func TestRunText(t *testing.T) {
	app, stdout, _ := newTestApp()
	err := app.ExecuteWithArgs(context.Background(), []string{
		"run", "-s", "e", "-n", "2", "--runs", "2", "--ticks", "300", "--log-level", "error",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"run 1", "run 2", "aggregate e x2", "detected="} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero runs", []string{"run", "-s", "a", "-n", "2", "--runs", "0"}},
		{"zero ticks", []string{"run", "-s", "a", "-n", "2", "--ticks", "0"}},
		{"unknown scenario", []string{"run", "-s", "no-such-scenario", "-n", "2"}},
		{"no population", []string{"run", "-s", "a"}},
		{"bad arbitration", []string{"run", "-s", "a", "-n", "2", "--arbitration", "vote"}},
		{"bad store", []string{"run", "-s", "a", "-n", "2", "--store", "redis"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := newTestApp()
			if err := app.ExecuteWithArgs(context.Background(), tt.args); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSweepAndReport(t *testing.T) {
	db := filepath.Join(t.TempDir(), "results.db")

	app, stdout, _ := newTestApp()
	err := app.ExecuteWithArgs(context.Background(), []string{
		"sweep", "--scenarios", "e,f", "--populations", "2,3", "--iterations", "2",
		"--ticks", "300", "--store", "sqlite", "--db", db, "--log-level", "error",
	})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(stdout.String(), "8 runs") {
		t.Fatalf("expected 8 runs, got %q", stdout.String())
	}

	app, stdout, _ = newTestApp()
	if err := app.ExecuteWithArgs(context.Background(), []string{"report", "--db", db, "--json"}); err != nil {
		t.Fatalf("report: %v", err)
	}
	var totals []struct {
		Scenario   string
		Population int
		Runs       int
	}
	if err := json.Unmarshal(stdout.Bytes(), &totals); err != nil {
		t.Fatalf("decode totals: %v\n%s", err, stdout.String())
	}
	if len(totals) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(totals))
	}
	for _, c := range totals {
		if c.Runs != 2 {
			t.Fatalf("expected 2 runs in %s/%d, got %d", c.Scenario, c.Population, c.Runs)
		}
	}

	app, stdout, _ = newTestApp()
	if err := app.ExecuteWithArgs(context.Background(), []string{"report", "--db", db}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(stdout.String(), "COLLISIONS") {
		t.Fatalf("expected table header, got %q", stdout.String())
	}
}

func TestReportEmptyStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	app, stdout, _ := newTestApp()
	if err := app.ExecuteWithArgs(context.Background(), []string{"report", "--db", db}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(stdout.String(), "no results recorded") {
		t.Fatalf("expected empty notice, got %q", stdout.String())
	}
}

func TestSweepRejectsZeroIterations(t *testing.T) {
	app, _, _ := newTestApp()
	err := app.ExecuteWithArgs(context.Background(), []string{"sweep", "--iterations", "0"})
	if err == nil {
		t.Fatal("expected error")
	}
}

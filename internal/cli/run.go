package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Garsondee/Swarm-Sense/internal/logging"
	"github.com/Garsondee/Swarm-Sense/internal/results"
	"github.com/Garsondee/Swarm-Sense/internal/scenario"
	"github.com/Garsondee/Swarm-Sense/internal/swarm"
	"github.com/Garsondee/Swarm-Sense/internal/telemetry"
)

// runOptions holds options for the run command.
type runOptions struct {
	scenario    string
	population  int
	runs        int
	ticks       int
	seedBase    int64
	seedStep    int64
	arbitration string
	store       string
	dbPath      string
	jsonOutput  bool
	verbose     bool
}

// runStats is what one headless run reports.
type runStats struct {
	RunIndex int   `json:"run"`
	Seed     int64 `json:"seed"`

	Result results.Result `json:"result"`

	FirstCourseTick  int `json:"first_course_tick"`
	FirstNudgeTick   int `json:"first_nudge_tick"`
	FirstContactTick int `json:"first_contact_tick"`
	FirstHaltTick    int `json:"first_halt_tick"`
	ModeChanges      int `json:"mode_changes"`
	Frozen           int `json:"frozen"`
}

func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario headless and report collisions",
		Long: `Run a scenario one or more times without a window.

Each run uses seed-base + i*seed-step. A run ends when every agent has
halted (at its formation slot or blocked) or the tick budget is spent.

Examples:
  # Ten agents through scenario a, five seeds
  swarmctl run --scenario a --population 10 --runs 5

  # A scenario file with the distress policy, stored in SQLite
  swarmctl run --scenario gate.yaml --arbitration distress --store sqlite --db results.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScenario(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.scenario, "scenario", "s", "a", "Built-in scenario name or scenario file")
	cmd.Flags().IntVarP(&opts.population, "population", "n", 0, "Number of agents (overrides the scenario)")
	cmd.Flags().IntVar(&opts.runs, "runs", 1, "Number of runs")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 3000, "Tick budget per run")
	cmd.Flags().Int64Var(&opts.seedBase, "seed-base", 42, "Seed for the first run")
	cmd.Flags().Int64Var(&opts.seedStep, "seed-step", 1, "Seed increment between runs")
	cmd.Flags().StringVar(&opts.arbitration, "arbitration", "", "Arbitration policy: pairwise or distress")
	cmd.Flags().StringVar(&opts.store, "store", "", "Record results: memory or sqlite")
	cmd.Flags().StringVar(&opts.dbPath, "db", "swarm-results.db", "SQLite path for --store sqlite")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print the event log of each run")

	return cmd
}

func (a *App) runScenario(ctx context.Context, opts *runOptions) error {
	if opts.runs <= 0 {
		return fmt.Errorf("--runs must be > 0, got %d", opts.runs)
	}
	if opts.ticks <= 0 {
		return fmt.Errorf("--ticks must be > 0, got %d", opts.ticks)
	}
	sc, err := scenario.Resolve(opts.scenario, nil)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}
	if opts.population > 0 {
		sc = sc.WithPopulation(opts.population)
	}
	if sc.Population <= 0 {
		return fmt.Errorf("scenario %q has no population; pass --population", sc.Name)
	}
	if opts.arbitration != "" {
		sc.Config.Arbitration = opts.arbitration
	}

	var store results.Store
	if opts.store != "" {
		if store, err = openStore(ctx, opts.store, opts.dbPath); err != nil {
			return err
		}
		defer func() { _ = results.CloseIfSupported(store) }()
	}

	all := make([]runStats, 0, opts.runs)
	for i := 0; i < opts.runs; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		seed := opts.seedBase + int64(i)*opts.seedStep
		rs, sim, err := a.runOnce(ctx, sc, i+1, seed, opts.ticks)
		if err != nil {
			return err
		}
		if store != nil {
			if err := store.Record(ctx, rs.Result); err != nil {
				return fmt.Errorf("record run %s: %w", rs.Result.RunID, err)
			}
		}
		all = append(all, rs)
		if !opts.jsonOutput {
			a.printRun(rs)
			if opts.verbose {
				_, _ = fmt.Fprint(a.stdout, sim.SimLog.Format())
			}
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	}
	if len(all) > 1 {
		a.printAggregate(sc.Name, all)
	}
	return nil
}

// runOnce builds and runs one Sim, logging its lifecycle.
func (a *App) runOnce(ctx context.Context, sc scenario.Scenario, index int, seed int64, ticks int) (runStats, *swarm.Sim, error) {
	metrics, err := telemetry.NewMetrics(ctx, telemetry.MetricsConfig{
		Attributes: telemetry.RunAttributes(sc.Name, sc.Population),
	})
	if err != nil {
		return runStats{}, nil, err
	}
	sim, err := sc.NewSim(swarm.WithSeed(seed), swarm.WithSimRecorder(metrics), swarm.WithSimLogger(a.logger()))
	if err != nil {
		return runStats{}, nil, err
	}

	n := sim.Run(ticks)
	res := results.FromSim(sc.Name, seed, sim, n)
	metrics.RecordRun(n, res.Settled)

	logging.NewEvent(a.logger().Info()).
		Add(logging.RunID(res.RunID)).
		Add(logging.Scenario(sc.Name)).
		Add(logging.Population(res.Population)).
		Add(logging.Tick(n)).
		Add(logging.Str("settled", fmt.Sprint(res.Settled))).
		Msg("run finished")

	rs := runStats{
		RunIndex:         index,
		Seed:             seed,
		Result:           res,
		FirstCourseTick:  firstTick(sim.SimLog, "collision", "course", ""),
		FirstNudgeTick:   firstTick(sim.SimLog, "proximity", "near_miss", ""),
		FirstContactTick: firstTick(sim.SimLog, "collision", "contact", ""),
		FirstHaltTick:    firstTick(sim.SimLog, "mode", "change", swarm.ModeHalting.String()),
		ModeChanges:      sim.SimLog.Count("mode", "change"),
	}
	for _, ag := range sim.Snapshot().Agents {
		if ag.Frozen {
			rs.Frozen++
		}
	}
	return rs, sim, nil
}

func openStore(ctx context.Context, kind, path string) (results.Store, error) {
	store, err := results.NewStore(kind, path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("open %s store: %w", kind, err)
	}
	return store, nil
}

// firstTick returns the tick of the first matching log entry, or -1.
func firstTick(log *swarm.SimLog, category, key, contains string) int {
	if e, ok := log.First(category, key, contains); ok {
		return e.Tick
	}
	return -1
}

func tickString(t int) string {
	if t < 0 {
		return mutedStyle.Render("-")
	}
	return fmt.Sprint(t)
}

func (a *App) printRun(rs runStats) {
	r := rs.Result
	status := goodStyle.Render("settled")
	if !r.Settled {
		status = badStyle.Render("budget")
	}
	_, _ = fmt.Fprintf(a.stdout, "%s seed=%d ticks=%d %s arrived=%d/%d\n",
		titleStyle.Render(fmt.Sprintf("run %d", rs.RunIndex)), rs.Seed, r.Ticks, status, r.Arrived, r.Population)
	_, _ = fmt.Fprintf(a.stdout, "  detected=%d imminent=%d collisions=%s strikes=%s frozen=%d\n",
		r.Detected, r.Imminent, count(r.Collisions), count(r.Strikes), rs.Frozen)
	_, _ = fmt.Fprintf(a.stdout, "  first: course=%s nudge=%s contact=%s halt=%s  mode changes=%d\n",
		tickString(rs.FirstCourseTick), tickString(rs.FirstNudgeTick),
		tickString(rs.FirstContactTick), tickString(rs.FirstHaltTick), rs.ModeChanges)
}

func (a *App) printAggregate(name string, all []runStats) {
	var detected, imminent, collisions, strikes, ticks, settled int
	for _, rs := range all {
		detected += rs.Result.Detected
		imminent += rs.Result.Imminent
		collisions += rs.Result.Collisions
		strikes += rs.Result.Strikes
		ticks += rs.Result.Ticks
		if rs.Result.Settled {
			settled++
		}
	}
	n := len(all)
	_, _ = fmt.Fprintf(a.stdout, "\n%s\n", titleStyle.Render(fmt.Sprintf("aggregate %s x%d", name, n)))
	_, _ = fmt.Fprintf(a.stdout, "  settled=%d/%d avg_ticks=%.1f\n", settled, n, avg(ticks, n))
	_, _ = fmt.Fprintf(a.stdout, "  avg detected=%.2f imminent=%.2f collisions=%.2f strikes=%.2f\n",
		avg(detected, n), avg(imminent, n), avg(collisions, n), avg(strikes, n))
}

func avg(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Garsondee/Swarm-Sense/internal/logging"
	"github.com/Garsondee/Swarm-Sense/internal/results"
	"github.com/Garsondee/Swarm-Sense/internal/scenario"
)

type sweepOptions struct {
	scenarios   []string
	populations []int
	iterations  int
	ticks       int
	seedBase    int64
	arbitration string
	store       string
	dbPath      string
}

func (a *App) newSweepCmd() *cobra.Command {
	opts := &sweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run every scenario at every population and consolidate the counters",
		Long: `Run scenarios x populations x iterations and accumulate detected,
imminent and collision counts per scenario and population.

Examples:
  # The full default sweep into SQLite
  swarmctl sweep --store sqlite --db results.db

  # A quick sweep kept in memory
  swarmctl sweep --scenarios a,e --populations 2,5 --iterations 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sweep(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.scenarios, "scenarios", []string{"a", "b", "c", "d", "e", "f"}, "Scenarios to sweep")
	cmd.Flags().IntSliceVar(&opts.populations, "populations", []int{2, 5, 10, 20, 25, 50}, "Populations to sweep")
	cmd.Flags().IntVar(&opts.iterations, "iterations", 20, "Runs per scenario and population")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 3000, "Tick budget per run")
	cmd.Flags().Int64Var(&opts.seedBase, "seed-base", 1, "Seed for the first run of each cell")
	cmd.Flags().StringVar(&opts.arbitration, "arbitration", "", "Arbitration policy: pairwise or distress")
	cmd.Flags().StringVar(&opts.store, "store", "memory", "Result store: memory or sqlite")
	cmd.Flags().StringVar(&opts.dbPath, "db", "swarm-results.db", "SQLite path for --store sqlite")
	return cmd
}

func (a *App) sweep(ctx context.Context, opts *sweepOptions) error {
	if opts.iterations <= 0 {
		return fmt.Errorf("--iterations must be > 0, got %d", opts.iterations)
	}
	store, err := openStore(ctx, opts.store, opts.dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = results.CloseIfSupported(store) }()

	scs := make([]scenario.Scenario, 0, len(opts.scenarios))
	for _, ref := range opts.scenarios {
		sc, err := scenario.Resolve(strings.TrimSpace(ref), nil)
		if err != nil {
			return fmt.Errorf("failed to load scenario: %w", err)
		}
		if opts.arbitration != "" {
			sc.Config.Arbitration = opts.arbitration
		}
		scs = append(scs, sc)
	}

	total := 0
	for _, sc := range scs {
		for _, pop := range opts.populations {
			cell := sc.WithPopulation(pop)
			for i := 0; i < opts.iterations; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				rs, _, err := a.runOnce(ctx, cell, i+1, opts.seedBase+int64(i), opts.ticks)
				if err != nil {
					return err
				}
				if err := store.Record(ctx, rs.Result); err != nil {
					return fmt.Errorf("record run %s: %w", rs.Result.RunID, err)
				}
				total++
			}
			logging.NewEvent(a.logger().Info()).
				Add(logging.Scenario(sc.Name)).
				Add(logging.Population(pop)).
				Add(logging.Str("iterations", fmt.Sprint(opts.iterations))).
				Msg("sweep cell done")
		}
	}

	_, _ = fmt.Fprintf(a.stdout, "%s %d runs\n\n", titleStyle.Render("sweep"), total)
	return a.printTotals(ctx, store)
}

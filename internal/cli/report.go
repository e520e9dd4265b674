package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Garsondee/Swarm-Sense/internal/results"
	"github.com/Garsondee/Swarm-Sense/internal/scenario"
)

type reportOptions struct {
	dbPath     string
	jsonOutput bool
}

func (a *App) newReportCmd() *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print consolidated totals from a SQLite result store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), "sqlite", opts.dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = results.CloseIfSupported(store) }()
			if opts.jsonOutput {
				totals, err := store.Totals(cmd.Context())
				if err != nil {
					return err
				}
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(totals)
			}
			return a.printTotals(cmd.Context(), store)
		},
	}
	cmd.Flags().StringVar(&opts.dbPath, "db", "swarm-results.db", "SQLite result store")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output totals as JSON")
	return cmd
}

func (a *App) printTotals(ctx context.Context, store results.Store) error {
	totals, err := store.Totals(ctx)
	if err != nil {
		return err
	}
	if len(totals) == 0 {
		_, _ = fmt.Fprintln(a.stdout, mutedStyle.Render("no results recorded"))
		return nil
	}
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{
			t.Scenario,
			fmt.Sprint(t.Population),
			fmt.Sprint(t.Runs),
			fmt.Sprint(t.Detected),
			fmt.Sprint(t.Imminent),
			count(t.Collisions),
			count(t.Strikes),
		})
	}
	_, _ = fmt.Fprint(a.stdout, table(
		[]string{"SCENARIO", "POP", "RUNS", "DETECTED", "IMMINENT", "COLLISIONS", "STRIKES"}, rows))
	return nil
}

func (a *App) newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := [][]string{}
			for _, name := range scenario.Names() {
				sc, err := scenario.Builtin(name)
				if err != nil {
					return err
				}
				obs := ""
				for i, o := range sc.Obstacles {
					if i > 0 {
						obs += " "
					}
					obs += fmt.Sprintf("(%g,%g %gx%g)", o.X, o.Y, o.W, o.H)
				}
				if obs == "" {
					obs = mutedStyle.Render("open field")
				}
				rows = append(rows, []string{name, fmt.Sprintf("%gx%g", sc.Width, sc.Height), obs})
			}
			_, _ = fmt.Fprint(a.stdout, table([]string{"NAME", "FIELD", "OBSTACLES"}, rows))
			return nil
		},
	}
}

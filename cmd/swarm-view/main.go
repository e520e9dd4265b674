package main

import (
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Swarm-Sense/internal/logging"
	"github.com/Garsondee/Swarm-Sense/internal/scenario"
	"github.com/Garsondee/Swarm-Sense/internal/swarm"
	"github.com/Garsondee/Swarm-Sense/internal/view"
)

const defaultPopulation = 10

func main() {
	ref := flag.String("scenario", "a", "built-in scenario name or scenario file")
	population := flag.Int("population", 0, "number of agents (0 keeps the scenario's own)")
	seed := flag.Int64("seed", 1, "random seed")
	arbitration := flag.String("arbitration", "", "pairwise or distress (default from scenario)")
	scale := flag.Float64("scale", 14, "pixels per world unit")
	budget := flag.Int("ticks", 5000, "tick budget")
	logLevel := flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.Parse()

	cfg := logging.DefaultConfig()
	cfg.Level = *logLevel
	logging.Init(cfg)

	sc, err := scenario.Resolve(*ref, nil)
	if err != nil {
		fatal(err, "load scenario")
	}
	switch {
	case *population > 0:
		sc = sc.WithPopulation(*population)
	case sc.Population <= 0:
		logging.Warn().
			Add(logging.Scenario(sc.Name)).
			Add(logging.Population(defaultPopulation)).
			Msg("scenario has no population, using default")
		sc = sc.WithPopulation(defaultPopulation)
	}
	if *arbitration != "" {
		sc.Config.Arbitration = *arbitration
	}

	events := view.NewEventLog()
	sim, err := sc.NewSim(swarm.WithSeed(*seed), swarm.WithSimRecorder(events), swarm.WithSimLogger(logging.Get()))
	if err != nil {
		fatal(err, "build simulation")
	}
	g := view.New(sim, view.WithScale(*scale), view.WithBudget(*budget), view.WithEventLog(events))

	logging.Info().
		Add(logging.Scenario(sc.Name)).
		Add(logging.Population(sc.Population)).
		Msg("viewer started")

	w, h := g.Size()
	ebiten.SetWindowTitle("Swarm Sense - " + sc.Name)
	ebiten.SetWindowSize(w, h)
	if err := ebiten.RunGame(g); err != nil {
		fatal(err, "viewer stopped")
	}
}

func fatal(err error, msg string) {
	logging.Error().Add(logging.ErrorField(err)).Msg(msg)
	os.Exit(1)
}

// Package cli provides the swarmctl command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/spf13/cobra"

	"github.com/Garsondee/Swarm-Sense/internal/logging"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	logLevel  string
	logFormat string
	log       *bolt.Logger
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "swarmctl",
		Short: "Headless runs, sweeps and reports for the swarm crossing simulator",
		Long: `swarmctl drives the decentralized swarm simulator without a window.

Agents start below an obstacle field, find holes, negotiate crossings and
form up on a semicircle around the target. Runs report how many collision
courses were detected, how many near misses forced a heading nudge and how
many actual contacts happened.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			app.initLogger()
		},
	}
	app.root.PersistentFlags().StringVar(&app.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	app.root.PersistentFlags().StringVar(&app.logFormat, "log-format", "console", "Log format (console, json)")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newScenariosCmd(),
		app.newRunCmd(),
		app.newSweepCmd(),
		app.newReportCmd(),
	)
	return app
}

// WithOutput sets custom output writers. Logs go to stderr.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

func (a *App) initLogger() {
	cfg := logging.DefaultConfig()
	cfg.Level = a.logLevel
	cfg.Format = a.logFormat
	cfg.Output = a.stderr
	a.log = logging.New(cfg)
}

func (a *App) logger() *bolt.Logger {
	if a.log == nil {
		a.initLogger()
	}
	return a.log
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(a.stdout, "swarmctl version %s\n", Version)
			_, _ = fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			_, _ = fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}

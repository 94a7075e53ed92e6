// Package cmd defines the f1schedule command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/app"
	"github.com/hydavinci/formula-1-schedule/internal/chain"
	"github.com/hydavinci/formula-1-schedule/internal/config"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
	"github.com/hydavinci/formula-1-schedule/internal/schedule"
)

var version = "dev"

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// Service is the part of the schedule service the commands use.
type Service interface {
	Year(year int) int
	Calendar(ctx context.Context, q schedule.CalendarQuery) (chain.Result, error)
	RaceResults(ctx context.Context, year int, round f1.Round) ([]f1.Race, error)
	DriverStandings(ctx context.Context, year int, round f1.Round) ([]f1.StandingsList, error)
	ConstructorStandings(ctx context.Context, year int, round f1.Round) ([]f1.StandingsList, error)
	ClearCache(ctx context.Context) error
}

// App defines what commands need from the application. Tests inject a fake.
type App interface {
	Schedule() Service
	Logger() *zap.Logger
	Clock() f1.Clock
	Serve(ctx context.Context) error
	RunTools(ctx context.Context) error
	Close() error
}

type built struct {
	*app.App
}

func (b built) Schedule() Service {
	return b.Service()
}

// newApp is the application factory. It is a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config) (App, error) {
	a, err := app.Build(ctx, cfg, app.WithVersion(version))
	if err != nil {
		return nil, err
	}
	return built{a}, nil
}

// cli owns the application built for one invocation.
type cli struct {
	cfgFile string
	app     App
}

func (c *cli) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "f1schedule",
		Short: "Formula 1 calendars, results and standings from redundant sources.",
		Long: `f1schedule fetches Formula 1 season calendars from the Ergast API, falling
back to formula1.com and to earlier seasons when a source has nothing to offer.
Race results and championship standings come from the same sources.`,
		SilenceUsage: true,

		// Runs after flags are parsed and before the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return err
			}
			appInstance, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			c.app = appInstance
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (YAML, JSON or TOML)")

	cmd.AddCommand(newCalendarCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newCacheCmd())
	return cmd
}

// execute runs args and closes the application whether or not the command
// failed.
func (c *cli) execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.Close(); cerr != nil {
			fmt.Fprintf(stderr, "close: %v\n", cerr)
		}
	}
	return err
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	c := &cli{}
	if err := c.execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

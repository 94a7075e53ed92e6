package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/chain"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
	"github.com/hydavinci/formula-1-schedule/internal/report"
	"github.com/hydavinci/formula-1-schedule/internal/schedule"
)

// errNoCalendar makes the process exit non-zero when every source came up empty.
var errNoCalendar = errors.New("no calendar data found")

type calendarOptions struct {
	json         bool
	noCache      bool
	podium       bool
	drivers      bool
	teams        bool
	allInfo      bool
	round        string
	maxFallbacks int
}

// calendarOutput is the --json document.
type calendarOutput struct {
	Calendar chain.Result       `json:"calendar"`
	Podium   []f1.Race          `json:"podium,omitempty"`
	Drivers  []f1.StandingsList `json:"driver_standings,omitempty"`
	Teams    []f1.StandingsList `json:"constructor_standings,omitempty"`
}

func newCalendarCmd() *cobra.Command {
	opts := &calendarOptions{}
	cmd := &cobra.Command{
		Use:   "calendar [year]",
		Short: "Print a season calendar",
		Long: `Prints the race calendar for a season (the current one by default). When the
season is not available the calendar of an earlier season is shown instead,
with a note saying so. Podium and standings tables can be added with flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalendar(cmd, args, opts)
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&opts.json, "json", false, "print JSON instead of tables")
	flags.BoolVar(&opts.noCache, "no-cache", false, "clear the cache before fetching")
	flags.BoolVar(&opts.podium, "podium", false, "show the podium of the selected race")
	flags.BoolVar(&opts.drivers, "drivers", false, "show driver standings")
	flags.BoolVar(&opts.teams, "teams", false, "show constructor standings")
	flags.BoolVar(&opts.allInfo, "all-info", false, "show podium and both standings tables")
	flags.StringVar(&opts.round, "round", "", `round for podium and standings ("last" or a number)`)
	flags.IntVar(&opts.maxFallbacks, "max-fallbacks", -1, "earlier seasons to try (-1 uses the configured value)")
	return cmd
}

func runCalendar(cmd *cobra.Command, args []string, opts *calendarOptions) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	year := 0
	if len(args) == 1 {
		year, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid year %q: %w", args[0], err)
		}
	}
	round, err := f1.ParseRound(opts.round)
	if err != nil {
		return err
	}
	if opts.allInfo {
		opts.podium, opts.drivers, opts.teams = true, true, true
	}

	ctx := cmd.Context()
	svc := appInstance.Schedule()
	logger := appInstance.Logger()
	if opts.noCache {
		if err := svc.ClearCache(ctx); err != nil {
			return err
		}
		logger.Info("cache cleared")
	}

	res, err := svc.Calendar(ctx, schedule.CalendarQuery{Year: year, MaxFallbacks: opts.maxFallbacks})
	if err != nil {
		return err
	}
	out := calendarOutput{Calendar: res}
	if res.Status != f1.StatusError {
		season := res.YearUsed
		if opts.podium {
			out.Podium = fetchOrLog(logger, "race results", func() ([]f1.Race, error) {
				return svc.RaceResults(ctx, season, round)
			})
		}
		if opts.drivers {
			out.Drivers = fetchOrLog(logger, "driver standings", func() ([]f1.StandingsList, error) {
				return svc.DriverStandings(ctx, season, round)
			})
		}
		if opts.teams {
			out.Teams = fetchOrLog(logger, "constructor standings", func() ([]f1.StandingsList, error) {
				return svc.ConstructorStandings(ctx, season, round)
			})
		}
	}

	w := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
	} else {
		printTables(w, out, appInstance, opts)
	}
	if res.Status == f1.StatusError {
		return errNoCalendar
	}
	return nil
}

func printTables(w io.Writer, out calendarOutput, appInstance App, opts *calendarOptions) {
	report.Calendar(w, out.Calendar, appInstance.Clock().Now())
	if out.Calendar.Status == f1.StatusError {
		return
	}
	if opts.podium {
		fmt.Fprintln(w)
		report.Podium(w, out.Podium)
	}
	if opts.drivers {
		fmt.Fprintln(w)
		report.DriverStandings(w, out.Drivers)
	}
	if opts.teams {
		fmt.Fprintln(w)
		report.ConstructorStandings(w, out.Teams)
	}
}

func fetchOrLog[T any](logger *zap.Logger, what string, fn func() ([]T, error)) []T {
	items, err := fn()
	if err != nil {
		logger.Warn("fetch failed", zap.String("what", what), zap.Error(err))
		return nil
	}
	return items
}

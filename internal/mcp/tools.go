package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/chain"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
	"github.com/hydavinci/formula-1-schedule/internal/schedule"
)

type calendarInput struct {
	Year         string `json:"year" jsonschema:"Season to fetch, e.g. 2024. Empty means the current season."`
	MaxFallbacks *int   `json:"max_fallbacks,omitempty" jsonschema:"How many earlier seasons to try when the requested one is unavailable (default 3)"`
}

type seasonInput struct {
	Year  string `json:"year" jsonschema:"Season to query, e.g. 2024. Empty means the current season."`
	Round string `json:"round,omitempty" jsonschema:"Round number, or last / current (default current)"`
}

type resultsOutput struct {
	Year  int       `json:"year" jsonschema:"Season queried"`
	Round string    `json:"round" jsonschema:"Round queried"`
	Races []f1.Race `json:"races" jsonschema:"Race with its classification; empty when unavailable"`
}

type standingsOutput struct {
	Year           int                `json:"year" jsonschema:"Season queried"`
	Round          string             `json:"round" jsonschema:"Round queried"`
	StandingsLists []f1.StandingsList `json:"standings_lists" jsonschema:"Championship tables; empty when unavailable"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolCalendar,
		Description: "Fetch the Formula 1 race calendar for a season. Falls back to alternate sources and earlier seasons; status reports which one answered.",
	}, s.calendar)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolDriverStandings,
		Description: "Fetch the Formula 1 drivers' championship standings for a season.",
	}, s.standings(f1.StandingsDrivers))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolConstructorStandings,
		Description: "Fetch the Formula 1 constructors' (team) championship standings for a season.",
	}, s.standings(f1.StandingsConstructors))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolRaceResults,
		Description: "Fetch the classification of a Formula 1 race. Round defaults to the last completed race.",
	}, s.results)
}

func (s *Server) calendar(ctx context.Context, _ *mcp.CallToolRequest, in calendarInput) (*mcp.CallToolResult, chain.Result, error) {
	year, err := parseYear(in.Year)
	if err != nil {
		return nil, chain.Result{}, err
	}
	q := schedule.CalendarQuery{Year: year, MaxFallbacks: -1}
	if in.MaxFallbacks != nil {
		q.MaxFallbacks = *in.MaxFallbacks
	}
	res, err := s.svc.Calendar(ctx, q)
	if err != nil {
		return nil, chain.Result{}, err
	}
	if res.Races == nil {
		res.Races = []f1.Race{}
	}
	s.logger.Debug("calendar tool served",
		zap.Int("requested_year", res.RequestedYear),
		zap.Int("year_used", res.YearUsed),
		zap.String("status", string(res.Status)))
	return nil, res, nil
}

func (s *Server) results(ctx context.Context, _ *mcp.CallToolRequest, in seasonInput) (*mcp.CallToolResult, resultsOutput, error) {
	year, round, err := s.season(in)
	if err != nil {
		return nil, resultsOutput{}, err
	}
	races, err := s.svc.RaceResults(ctx, year, round)
	if err != nil {
		return nil, resultsOutput{}, err
	}
	if races == nil {
		races = []f1.Race{}
	}
	return nil, resultsOutput{Year: year, Round: round.ForResults().String(), Races: races}, nil
}

func (s *Server) standings(kind f1.StandingsKind) mcp.ToolHandlerFor[seasonInput, standingsOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in seasonInput) (*mcp.CallToolResult, standingsOutput, error) {
		year, round, err := s.season(in)
		if err != nil {
			return nil, standingsOutput{}, err
		}
		var lists []f1.StandingsList
		if kind == f1.StandingsDrivers {
			lists, err = s.svc.DriverStandings(ctx, year, round)
		} else {
			lists, err = s.svc.ConstructorStandings(ctx, year, round)
		}
		if err != nil {
			return nil, standingsOutput{}, err
		}
		if lists == nil {
			lists = []f1.StandingsList{}
		}
		return nil, standingsOutput{Year: year, Round: round.String(), StandingsLists: lists}, nil
	}
}

func (s *Server) season(in seasonInput) (int, f1.Round, error) {
	year, err := parseYear(in.Year)
	if err != nil {
		return 0, f1.Round{}, err
	}
	round, err := f1.ParseRound(in.Round)
	if err != nil {
		return 0, f1.Round{}, err
	}
	return s.svc.Year(year), round, nil
}

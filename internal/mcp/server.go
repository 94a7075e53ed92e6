// Package mcp exposes the schedule queries as Model Context Protocol tools,
// over stdio or streamable HTTP.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/chain"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
	"github.com/hydavinci/formula-1-schedule/internal/schedule"
)

// Tool names.
const (
	ToolCalendar             = "fetch_f1_calendar"
	ToolDriverStandings      = "fetch_f1_driver_standings"
	ToolConstructorStandings = "fetch_f1_team_standings"
	ToolRaceResults          = "fetch_f1_race_results"
)

// Service is the subset of schedule.Service the tools call.
type Service interface {
	Year(year int) int
	Calendar(ctx context.Context, q schedule.CalendarQuery) (chain.Result, error)
	RaceResults(ctx context.Context, year int, round f1.Round) ([]f1.Race, error)
	DriverStandings(ctx context.Context, year int, round f1.Round) ([]f1.StandingsList, error)
	ConstructorStandings(ctx context.Context, year int, round f1.Round) ([]f1.StandingsList, error)
}

// Config configures the tool server.
type Config struct {
	Name    string
	Version string
}

// Server wraps an mcp.Server with the schedule tools registered.
type Server struct {
	mcp    *mcp.Server
	svc    Service
	logger *zap.Logger
}

// NewServer creates a server and registers every tool.
func NewServer(cfg Config, svc Service, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("schedule service is required")
	}
	if cfg.Name == "" {
		cfg.Name = "formula-1-schedule"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp:    mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
		svc:    svc,
		logger: logger.Named("mcp"),
	}
	s.registerTools()
	return s, nil
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Run serves the stdio transport until ctx ends or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Handler serves the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
}

// parseYear accepts an empty string for the current season.
func parseYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1950 {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

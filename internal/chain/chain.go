// Package chain walks the ordered list of calendar sources and years until
// one of them returns races.
package chain

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/f1"
	"github.com/hydavinci/formula-1-schedule/internal/metrics"
)

// DefaultMaxFallbacks is how many earlier seasons are tried after the
// requested one.
const DefaultMaxFallbacks = 3

// Attempt is one planned (source, year) lookup.
type Attempt struct {
	Source f1.RaceSource
	Year   int
	Status f1.Status
}

// Policy decides which attempts are made and in what order.
type Policy struct {
	MaxFallbacks int
}

// Plan returns the attempt list for a query. The primary source is tried for
// the requested year first. Alternates are only consulted for the current
// season. Then the primary is tried for each of the MaxFallbacks previous
// years. No (source, year) pair appears twice.
func (p Policy) Plan(requested, current int, alts []f1.RaceSource, primary f1.RaceSource) []Attempt {
	maxFallbacks := p.MaxFallbacks
	if maxFallbacks < 0 {
		maxFallbacks = 0
	}
	plan := make([]Attempt, 0, 1+len(alts)+maxFallbacks)
	plan = append(plan, Attempt{Source: primary, Year: requested, Status: f1.StatusCurrent})
	if requested == current {
		for _, alt := range alts {
			if alt == nil {
				continue
			}
			plan = append(plan, Attempt{Source: alt, Year: requested, Status: f1.StatusAltAPI})
		}
	}
	for k := 1; k <= maxFallbacks; k++ {
		plan = append(plan, Attempt{Source: primary, Year: requested - k, Status: f1.StatusFallback})
	}
	return plan
}

// Query selects the season to look up. Year 0 means the current season.
// MaxFallbacks below zero means the default.
type Query struct {
	Year         int
	MaxFallbacks int
}

// Result is the outcome of a chain walk.
type Result struct {
	Races         []f1.Race `json:"races"`
	YearUsed      int       `json:"year_used"`
	RequestedYear int       `json:"requested_year"`
	Status        f1.Status `json:"status"`
	Source        string    `json:"source,omitempty"`
}

// Chain resolves calendars from a primary source with alternates and year
// fallback.
type Chain struct {
	primary f1.RaceSource
	alts    []f1.RaceSource
	clock   f1.Clock
	logger  *zap.Logger
}

// New creates a chain. alts are consulted in the given order.
func New(primary f1.RaceSource, alts []f1.RaceSource, clock f1.Clock, logger *zap.Logger) (*Chain, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary source is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		primary: primary,
		alts:    alts,
		clock:   clock,
		logger:  logger.Named("chain"),
	}, nil
}

// Fetch walks the plan in order and stops at the first nonempty attempt.
// When every attempt comes back empty the status is error and YearUsed is
// the last year tried.
func (c *Chain) Fetch(ctx context.Context, q Query) Result {
	current := c.clock.Now().Year()
	requested := q.Year
	if requested == 0 {
		requested = current
	}
	maxFallbacks := q.MaxFallbacks
	if maxFallbacks < 0 {
		maxFallbacks = DefaultMaxFallbacks
	}

	plan := Policy{MaxFallbacks: maxFallbacks}.Plan(requested, current, c.alts, c.primary)
	res := Result{RequestedYear: requested, YearUsed: requested, Status: f1.StatusError}
	for _, attempt := range plan {
		if err := ctx.Err(); err != nil {
			c.logger.Warn("query cancelled", zap.Int("year", requested), zap.Error(err))
			break
		}
		res.YearUsed = attempt.Year
		races, outcome := c.try(ctx, attempt)
		metrics.ObserveSourceAttempt(attempt.Source.Name(), string(outcome))
		if outcome != f1.OutcomeNonEmpty {
			continue
		}
		res.Races = races
		res.Status = attempt.Status
		res.Source = attempt.Source.Name()
		break
	}
	if res.Status == f1.StatusError {
		c.logger.Error("no calendar found",
			zap.Int("requested_year", requested),
			zap.Int("last_year_tried", res.YearUsed))
	}
	metrics.ObserveChainResult(string(res.Status))
	return res
}

func (c *Chain) try(ctx context.Context, a Attempt) ([]f1.Race, f1.Outcome) {
	log := c.logger.With(zap.String("source", a.Source.Name()), zap.Int("year", a.Year))
	races, err := a.Source.Races(ctx, a.Year)
	switch {
	case err != nil:
		log.Warn("source failed", zap.Error(err))
		return nil, f1.OutcomeError
	case len(races) == 0:
		log.Debug("source empty")
		return nil, f1.OutcomeEmpty
	}
	log.Info("source returned races", zap.Int("races", len(races)), zap.String("status", string(a.Status)))
	return races, f1.OutcomeNonEmpty
}

// Package schedule answers calendar, results and standings queries. It owns
// source ordering for the non-calendar views, coalesces identical concurrent
// queries and publishes an event for every resolved calendar.
package schedule

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
	"github.com/hydavinci/formula-1-schedule/internal/chain"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

// ErrUnknownKind is returned for a standings kind other than drivers or
// constructors.
var ErrUnknownKind = errors.New("unknown standings kind")

// Calendars resolves a calendar through the fallback chain.
type Calendars interface {
	Fetch(ctx context.Context, q chain.Query) chain.Result
}

// ResultsSource returns the classification of one race.
type ResultsSource interface {
	Results(ctx context.Context, year int, round f1.Round) ([]f1.Race, error)
}

// API is the structured upstream used as the last resort for results and
// standings.
type API interface {
	ResultsSource
	Standings(ctx context.Context, kind f1.StandingsKind, year int, round f1.Round) ([]f1.StandingsList, error)
}

// Website is the scraped upstream, consulted first where it can answer.
type Website interface {
	ResultsSource
	DriverStandings(ctx context.Context, year int) ([]f1.StandingsList, error)
	ConstructorStandings(ctx context.Context, year int) ([]f1.StandingsList, error)
}

// Config tunes the service.
type Config struct {
	MaxFallbacks int
	// Topic receives acquisition events. Empty disables publishing.
	Topic string
}

// CalendarQuery selects a season. Year 0 means the current one and a negative
// MaxFallbacks means the configured default.
type CalendarQuery struct {
	Year         int
	MaxFallbacks int
	NoCache      bool
}

// Service is the query facade used by the CLI, HTTP API and tool server.
type Service struct {
	cfg       Config
	calendars Calendars
	api       API
	website   Website
	cache     *cache.Layer
	publisher f1.Publisher
	clock     f1.Clock
	logger    *zap.Logger
	group     singleflight.Group
}

// Deps groups the service collaborators. Website, Cache and Publisher may be
// nil.
type Deps struct {
	Calendars Calendars
	API       API
	Website   Website
	Cache     *cache.Layer
	Publisher f1.Publisher
	Clock     f1.Clock
	Logger    *zap.Logger
}

// New validates deps and creates a Service.
func New(cfg Config, deps Deps) (*Service, error) {
	if deps.Calendars == nil {
		return nil, fmt.Errorf("calendar chain is required")
	}
	if deps.API == nil {
		return nil, fmt.Errorf("api source is required")
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if cfg.MaxFallbacks < 0 {
		cfg.MaxFallbacks = chain.DefaultMaxFallbacks
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:       cfg,
		calendars: deps.Calendars,
		api:       deps.API,
		website:   deps.Website,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		clock:     deps.Clock,
		logger:    logger.Named("schedule"),
	}, nil
}

// Year resolves 0 to the current season.
func (s *Service) Year(year int) int {
	if year == 0 {
		return s.clock.Now().Year()
	}
	return year
}

// Calendar resolves a season calendar. NoCache skips cache reads for this
// query; fresh data is still written back. Identical concurrent queries share
// one fetch, and a caller whose ctx ends stops waiting without cancelling it.
func (s *Service) Calendar(ctx context.Context, q CalendarQuery) (chain.Result, error) {
	q.Year = s.Year(q.Year)
	if q.MaxFallbacks < 0 {
		q.MaxFallbacks = s.cfg.MaxFallbacks
	}
	if q.NoCache {
		ctx = cache.ContextWithBypass(ctx)
	}
	key := fmt.Sprintf("calendar:%d:%d:%t", q.Year, q.MaxFallbacks, q.NoCache)
	// The shared fetch must outlive whichever caller started it.
	flight := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		res := s.calendars.Fetch(flight, chain.Query{Year: q.Year, MaxFallbacks: q.MaxFallbacks})
		s.publish(flight, res)
		return res, nil
	})
	select {
	case <-ctx.Done():
		return chain.Result{RequestedYear: q.Year, Status: f1.StatusError}, ctx.Err()
	case r := <-ch:
		if r.Shared {
			s.logger.Debug("calendar query coalesced", zap.Int("year", q.Year))
		}
		return r.Val.(chain.Result), nil
	}
}

func (s *Service) publish(ctx context.Context, res chain.Result) {
	if s.publisher == nil || s.cfg.Topic == "" {
		return
	}
	ev := f1.AcquisitionEvent{
		Kind:          "calendar",
		RequestedYear: res.RequestedYear,
		YearUsed:      res.YearUsed,
		Status:        res.Status,
		Source:        res.Source,
		Races:         len(res.Races),
		At:            s.clock.Now(),
	}
	id, err := s.publisher.Publish(ctx, s.cfg.Topic, ev)
	if err != nil {
		s.logger.Warn("publish acquisition event failed", zap.String("topic", s.cfg.Topic), zap.Error(err))
		return
	}
	s.logger.Debug("acquisition event published", zap.String("id", id), zap.String("status", string(res.Status)))
}

// RaceResults returns the classification of one race, website first. The
// "current" round means the last completed race.
func (s *Service) RaceResults(ctx context.Context, year int, round f1.Round) ([]f1.Race, error) {
	year = s.Year(year)
	round = round.ForResults()
	key := fmt.Sprintf("results:%d:%s", year, round)
	v, err, _ := s.group.Do(key, func() (any, error) {
		if s.website != nil {
			races, err := s.website.Results(ctx, year, round)
			if err != nil {
				s.logger.Warn("website results failed", zap.Int("year", year), zap.Error(err))
			} else if len(races) > 0 {
				return races, nil
			}
		}
		return s.api.Results(ctx, year, round)
	})
	if err != nil {
		return nil, err
	}
	return v.([]f1.Race), nil
}

// DriverStandings returns the drivers' championship table.
func (s *Service) DriverStandings(ctx context.Context, year int, round f1.Round) ([]f1.StandingsList, error) {
	return s.Standings(ctx, f1.StandingsDrivers, year, round)
}

// ConstructorStandings returns the constructors' championship table.
func (s *Service) ConstructorStandings(ctx context.Context, year int, round f1.Round) ([]f1.StandingsList, error) {
	return s.Standings(ctx, f1.StandingsConstructors, year, round)
}

// Standings returns a championship table. The website only publishes the
// latest table, so it is consulted for the "current" round only.
func (s *Service) Standings(ctx context.Context, kind f1.StandingsKind, year int, round f1.Round) ([]f1.StandingsList, error) {
	if kind != f1.StandingsDrivers && kind != f1.StandingsConstructors {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	year = s.Year(year)
	key := fmt.Sprintf("standings:%s:%d:%s", kind, year, round)
	v, err, _ := s.group.Do(key, func() (any, error) {
		if s.website != nil && round.IsCurrent() {
			lists, err := s.websiteStandings(ctx, kind, year)
			if err != nil {
				s.logger.Warn("website standings failed", zap.String("kind", string(kind)), zap.Int("year", year), zap.Error(err))
			} else if len(lists) > 0 {
				return lists, nil
			}
		}
		return s.api.Standings(ctx, kind, year, round)
	})
	if err != nil {
		return nil, err
	}
	return v.([]f1.StandingsList), nil
}

func (s *Service) websiteStandings(ctx context.Context, kind f1.StandingsKind, year int) ([]f1.StandingsList, error) {
	if kind == f1.StandingsDrivers {
		return s.website.DriverStandings(ctx, year)
	}
	return s.website.ConstructorStandings(ctx, year)
}

// ClearCache drops every cached payload.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("cache cleared")
	return nil
}

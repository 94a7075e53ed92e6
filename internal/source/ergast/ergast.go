// Package ergast reads season calendars, race results and standings from the
// Ergast-compatible JSON API.
package ergast

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
	"github.com/hydavinci/formula-1-schedule/internal/metrics"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultBaseURL   = "http://ergast.com/api/f1"
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "formula-1-schedule/1.0"
)

// Config controls the API client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// RequestConfig is the per-call transport configuration.
type RequestConfig struct {
	Headers map[string]string
	Timeout time.Duration
}

// Source is the primary structured data source.
type Source struct {
	client *resty.Client
	cfg    Config
	cache  *cache.Layer
	clock  f1.Clock
	logger *zap.Logger
}

// New creates an Ergast source. layer may be nil to disable caching.
func New(cfg Config, layer *cache.Layer, clock f1.Clock, logger *zap.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		client: resty.New(),
		cfg:    cfg,
		cache:  layer,
		clock:  clock,
		logger: logger.Named(f1.SourceErgast),
	}
}

// Name implements f1.RaceSource.
func (s *Source) Name() string {
	return f1.SourceErgast
}

type envelope struct {
	MRData struct {
		RaceTable *struct {
			Races []f1.Race `json:"Races"`
		} `json:"RaceTable"`
		StandingsTable *struct {
			StandingsLists []f1.StandingsList `json:"StandingsLists"`
		} `json:"StandingsTable"`
	} `json:"MRData"`
}

// Races returns the season calendar. Failures are logged and yield an empty list.
func (s *Source) Races(ctx context.Context, year int) ([]f1.Race, error) {
	key := cache.NewKey(f1.SourceErgast, year)
	var races []f1.Race
	if s.cache.Load(ctx, key, &races) {
		s.logger.Info("calendar loaded from cache", zap.Int("year", year), zap.Int("races", len(races)))
		return races, nil
	}

	url := fmt.Sprintf("%s/%d.json", s.cfg.BaseURL, year)
	env, ok := s.get(ctx, url, year)
	if !ok || env.MRData.RaceTable == nil {
		return nil, nil
	}
	races = env.MRData.RaceTable.Races
	if len(races) == 0 {
		if s.clock != nil && year == s.clock.Now().Year() {
			s.logger.Info("calendar may not be published yet", zap.Int("year", year))
		} else {
			s.logger.Warn("no races returned", zap.Int("year", year))
		}
		return nil, nil
	}
	s.cache.Save(ctx, key, races)
	return races, nil
}

// Results returns the race result for one round ("last" or a number).
func (s *Source) Results(ctx context.Context, year int, round f1.Round) ([]f1.Race, error) {
	round = round.ForResults()
	key := cache.NewKey(f1.SourceResults, year).WithDiscriminator(round.String())
	var races []f1.Race
	if s.cache.Load(ctx, key, &races) {
		return races, nil
	}

	url := fmt.Sprintf("%s/%d/%s/results.json", s.cfg.BaseURL, year, round)
	env, ok := s.get(ctx, url, year)
	if !ok || env.MRData.RaceTable == nil || len(env.MRData.RaceTable.Races) == 0 {
		return nil, nil
	}
	races = env.MRData.RaceTable.Races
	s.cache.Save(ctx, key, races)
	return races, nil
}

// Standings returns the driver or constructor standings as of round.
func (s *Source) Standings(ctx context.Context, kind f1.StandingsKind, year int, round f1.Round) ([]f1.StandingsList, error) {
	tag, endpoint := f1.SourceDriverStandings, "driverStandings"
	if kind == f1.StandingsConstructors {
		tag, endpoint = f1.SourceConstructorStandings, "constructorStandings"
	}
	key := cache.NewKey(tag, year).WithDiscriminator(round.String())
	var lists []f1.StandingsList
	if s.cache.Load(ctx, key, &lists) {
		return lists, nil
	}

	url := fmt.Sprintf("%s/%d/%s/%s.json", s.cfg.BaseURL, year, round, endpoint)
	env, ok := s.get(ctx, url, year)
	if !ok || env.MRData.StandingsTable == nil || len(env.MRData.StandingsTable.StandingsLists) == 0 {
		return nil, nil
	}
	lists = env.MRData.StandingsTable.StandingsLists
	s.cache.Save(ctx, key, lists)
	return lists, nil
}

// get performs one GET and decodes the envelope. It never returns an error;
// the bool reports whether a usable body was decoded.
func (s *Source) get(ctx context.Context, url string, year int) (envelope, bool) {
	return s.fetch(ctx, url, year, s.requestConfig())
}

func (s *Source) requestConfig() RequestConfig {
	return RequestConfig{
		Headers: map[string]string{
			"User-Agent": s.cfg.UserAgent,
			"Accept":     "application/json",
		},
		Timeout: s.cfg.Timeout,
	}
}

func (s *Source) fetch(ctx context.Context, url string, year int, rc RequestConfig) (envelope, bool) {
	var env envelope
	timeout := rc.Timeout
	if timeout <= 0 {
		timeout = s.cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := s.client.R().
		SetContext(ctx).
		SetHeaders(rc.Headers).
		Get(url)
	if err != nil {
		metrics.ObserveFetch(url, "error", 0, time.Since(start))
		s.logger.Warn("request failed", zap.Int("year", year), zap.String("url", url), zap.Error(err))
		return env, false
	}
	metrics.ObserveFetch(url, strconv.Itoa(res.StatusCode()), len(res.Body()), time.Since(start))
	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() > 299 {
		s.logger.Warn("unexpected status",
			zap.Int("year", year),
			zap.String("url", url),
			zap.Int("status", res.StatusCode()),
		)
		return env, false
	}
	if err := json.Unmarshal(res.Body(), &env); err != nil {
		s.logger.Error("malformed response", zap.Int("year", year), zap.String("url", url), zap.Error(err))
		return env, false
	}
	return env, true
}

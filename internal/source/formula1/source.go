// Package formula1 scrapes the official formula1.com site: the season index
// with its per-race detail pages, plus the results and standings archives.
package formula1

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/cache"
	"github.com/hydavinci/formula-1-schedule/internal/dispatcher"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultBaseURL = "https://www.formula1.com"
	DefaultTimeout = 10 * time.Second
)

// Waiter paces requests per host.
type Waiter interface {
	Wait(ctx context.Context, url string) error
}

// Config controls the scraper.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	MaxWorkers int
}

// Source scrapes formula1.com.
type Source struct {
	cfg     Config
	fetcher f1.Fetcher
	limiter Waiter
	cache   *cache.Layer
	pool    dispatcher.Pool
	logger  *zap.Logger
}

// New creates a scrape source. limiter and layer may be nil.
func New(cfg Config, fetcher f1.Fetcher, limiter Waiter, layer *cache.Layer, logger *zap.Logger) (*Source, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = dispatcher.DefaultSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named(f1.SourceFormula1)
	return &Source{
		cfg:     cfg,
		fetcher: fetcher,
		limiter: limiter,
		cache:   layer,
		pool:    dispatcher.New("race_detail", cfg.MaxWorkers, logger),
		logger:  logger,
	}, nil
}

// Name implements f1.RaceSource.
func (s *Source) Name() string {
	return f1.SourceFormula1
}

func (s *Source) headers() map[string]string {
	h := map[string]string{
		"Accept":          "text/html,application/xhtml+xml",
		"Accept-Language": "en-GB,en;q=0.9",
	}
	if s.cfg.UserAgent != "" {
		h["User-Agent"] = s.cfg.UserAgent
	}
	return h
}

// page fetches and parses one HTML page.
func (s *Source) page(ctx context.Context, url string) (*goquery.Document, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, url); err != nil {
			return nil, err
		}
	}
	resp, err := s.fetcher.Fetch(ctx, f1.FetchRequest{
		URL:     url,
		Headers: s.headers(),
		Timeout: s.cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

func (s *Source) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return s.cfg.BaseURL + href
}

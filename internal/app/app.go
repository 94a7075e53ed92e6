// Package app wires configuration into the schedule service and its front ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/hydavinci/formula-1-schedule/internal/api"
	"github.com/hydavinci/formula-1-schedule/internal/cache"
	gcscache "github.com/hydavinci/formula-1-schedule/internal/cache/gcs"
	localcache "github.com/hydavinci/formula-1-schedule/internal/cache/local"
	memorycache "github.com/hydavinci/formula-1-schedule/internal/cache/memory"
	pgcache "github.com/hydavinci/formula-1-schedule/internal/cache/postgres"
	rediscache "github.com/hydavinci/formula-1-schedule/internal/cache/redis"
	"github.com/hydavinci/formula-1-schedule/internal/chain"
	"github.com/hydavinci/formula-1-schedule/internal/clock/system"
	"github.com/hydavinci/formula-1-schedule/internal/config"
	"github.com/hydavinci/formula-1-schedule/internal/f1"
	collyfetcher "github.com/hydavinci/formula-1-schedule/internal/fetcher/colly"
	headlessfetcher "github.com/hydavinci/formula-1-schedule/internal/fetcher/headless"
	"github.com/hydavinci/formula-1-schedule/internal/fetcher/promote"
	"github.com/hydavinci/formula-1-schedule/internal/id/uuid"
	"github.com/hydavinci/formula-1-schedule/internal/logging"
	"github.com/hydavinci/formula-1-schedule/internal/mcp"
	"github.com/hydavinci/formula-1-schedule/internal/policy/ratelimit"
	memorypublisher "github.com/hydavinci/formula-1-schedule/internal/publisher/memory"
	gcppublisher "github.com/hydavinci/formula-1-schedule/internal/publisher/pubsub"
	"github.com/hydavinci/formula-1-schedule/internal/schedule"
	"github.com/hydavinci/formula-1-schedule/internal/source/ergast"
	"github.com/hydavinci/formula-1-schedule/internal/source/formula1"
	"github.com/hydavinci/formula-1-schedule/internal/source/placeholder"
)

// Name is reported to tool clients.
const Name = "formula-1-schedule"

// DefaultEventTopic names in-process acquisition events when no Pub/Sub
// topic is configured.
const DefaultEventTopic = "f1-acquisitions"

// App holds the long-lived dependencies.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	clock      f1.Clock
	version    string
	service    *schedule.Service
	tools      *mcp.Server
	apiServer  *api.Server
	storage    *storage.Client
	pubsub     *pubsub.Client
	publisher  *gcppublisher.Publisher
	events     *memorypublisher.Publisher
	pgStore    *pgcache.Store
	redisStore *rediscache.Store
	headless   *headlessfetcher.Fetcher
}

// Option customizes Build.
type Option func(*App)

// WithLogger replaces the logger built from cfg.Logging.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithClock replaces the system clock.
func WithClock(clock f1.Clock) Option {
	return func(a *App) {
		a.clock = clock
	}
}

// WithEventSink records acquisition events in p when Pub/Sub is not
// configured.
func WithEventSink(p *memorypublisher.Publisher) Option {
	return func(a *App) {
		a.events = p
	}
}

// WithVersion sets the version reported to tool clients.
func WithVersion(version string) Option {
	return func(a *App) {
		a.version = version
	}
}

// Build creates the application's dependencies. Close must be called on the
// returned App even when Run is never used.
func Build(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	app := &App{cfg: cfg, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("logger init failed: %w", err)
		}
		app.logger = logger
	}
	if app.clock == nil {
		app.clock = system.New()
	}
	app.logger.Debug("building application dependencies",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("transport", cfg.Server.Transport),
	)

	if err := app.build(ctx); err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context) error {
	layer, err := setupCache(ctx, a)
	if err != nil {
		return err
	}

	primary := ergast.New(ergast.Config{
		BaseURL:   a.cfg.Sources.ErgastBaseURL,
		Timeout:   a.cfg.Timeout(),
		UserAgent: a.cfg.HTTP.UserAgent,
	}, layer, a.clock, a.logger)

	deps := schedule.Deps{
		API:    primary,
		Cache:  layer,
		Clock:  a.clock,
		Logger: a.logger,
	}
	alts := []f1.RaceSource{}
	if !a.cfg.Sources.Formula1Disabled {
		scraper, err := setupScraper(a, layer)
		if err != nil {
			return err
		}
		deps.Website = scraper
		alts = append(alts, scraper)
	} else {
		a.logger.Info("formula1.com scraping disabled")
	}
	alts = append(alts, placeholder.SportRadar(a.logger), placeholder.RapidAPI(a.logger))

	calendars, err := chain.New(primary, alts, a.clock, a.logger)
	if err != nil {
		return fmt.Errorf("chain init failed: %w", err)
	}

	publisher, topic, err := setupPublisher(ctx, a)
	if err != nil {
		return err
	}
	deps.Calendars = calendars
	deps.Publisher = publisher
	a.service, err = schedule.New(schedule.Config{
		MaxFallbacks: a.cfg.Fallback.MaxYears,
		Topic:        topic,
	}, deps)
	if err != nil {
		return fmt.Errorf("schedule service init failed: %w", err)
	}

	a.tools, err = mcp.NewServer(mcp.Config{Name: Name, Version: a.version}, a.service, a.logger)
	if err != nil {
		return fmt.Errorf("tool server init failed: %w", err)
	}
	var toolHandler http.Handler
	if a.cfg.Server.Transport == config.TransportHTTP {
		toolHandler = a.tools.Handler()
	}
	a.apiServer = api.NewServer(a.service, uuid.New(), a.cfg, a.logger, toolHandler)
	return nil
}

func setupCache(ctx context.Context, app *App) (*cache.Layer, error) {
	var (
		store cache.Store
		err   error
	)
	cfg := app.cfg.Cache
	switch cfg.Backend {
	case config.BackendMemory:
		app.logger.Info("using in-memory cache backend")
		store = memorycache.New()
	case config.BackendGCS:
		app.logger.Info("using GCS cache backend", zap.String("bucket", cfg.GCSBucket))
		app.storage, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		store, err = gcscache.New(app.storage, gcscache.Config{Bucket: cfg.GCSBucket, Prefix: cfg.Prefix})
		if err != nil {
			return nil, fmt.Errorf("gcs cache init failed: %w", err)
		}
	case config.BackendPostgres:
		app.logger.Info("using postgres cache backend", zap.String("table", cfg.PostgresTable))
		app.pgStore, err = pgcache.New(ctx, pgcache.Config{DSN: cfg.PostgresDSN, Table: cfg.PostgresTable})
		if err != nil {
			return nil, fmt.Errorf("postgres cache init failed: %w", err)
		}
		store = app.pgStore
	case config.BackendRedis:
		app.logger.Info("using redis cache backend", zap.String("addr", cfg.RedisAddr))
		prefix := ""
		if cfg.Prefix != "" {
			prefix = cfg.Prefix + ":"
		}
		app.redisStore, err = rediscache.New(ctx, rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("redis cache init failed: %w", err)
		}
		store = app.redisStore
	default:
		app.logger.Info("using local cache backend", zap.String("dir", cfg.Dir))
		store, err = localcache.New(localcache.Config{BaseDir: cfg.Dir})
		if err != nil {
			return nil, fmt.Errorf("local cache init failed: %w", err)
		}
	}
	layer, err := cache.NewLayer(store, app.logger, cache.WithPolicy(cache.Policy{TTL: cfg.TTL}))
	if err != nil {
		return nil, fmt.Errorf("cache layer init failed: %w", err)
	}
	return layer, nil
}

func setupScraper(app *App, layer *cache.Layer) (*formula1.Source, error) {
	var fetcher f1.Fetcher = collyfetcher.New(collyfetcher.Config{
		UserAgent: app.cfg.HTTP.UserAgent,
		Timeout:   app.cfg.Timeout(),
	})
	if app.cfg.Scrape.Headless {
		headless, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       app.cfg.Scrape.MaxWorkers,
			UserAgent:         app.cfg.HTTP.UserAgent,
			NavigationTimeout: time.Duration(app.cfg.Scrape.NavTimeoutSeconds) * time.Second,
		})
		if err != nil {
			app.logger.Warn("headless fetcher init failed, scraping static HTML only", zap.Error(err))
		} else {
			app.headless = headless
			detector := promote.NewHeuristic(app.cfg.Scrape.PromotionThreshold)
			fetcher = promote.New(fetcher, headless, detector, app.logger)
			app.logger.Info("using headless promotion", zap.Int("max_parallel", app.cfg.Scrape.MaxWorkers))
		}
	}
	limiter := ratelimit.New(ratelimit.Config{
		DefaultRPS:   app.cfg.Scrape.RatePerSecond,
		DefaultBurst: app.cfg.Scrape.Burst,
	})
	source, err := formula1.New(formula1.Config{
		BaseURL:    app.cfg.Sources.Formula1BaseURL,
		Timeout:    app.cfg.Timeout(),
		UserAgent:  app.cfg.HTTP.UserAgent,
		MaxWorkers: app.cfg.Scrape.MaxWorkers,
	}, fetcher, limiter, layer, app.logger)
	if err != nil {
		return nil, fmt.Errorf("formula1 source init failed: %w", err)
	}
	return source, nil
}

func setupPublisher(ctx context.Context, app *App) (f1.Publisher, string, error) {
	if app.cfg.PubSub.TopicName == "" || app.cfg.PubSub.ProjectID == "" {
		if app.events == nil {
			app.events = memorypublisher.New()
		}
		topic := app.cfg.PubSub.TopicName
		if topic == "" {
			topic = DefaultEventTopic
		}
		app.logger.Debug("no Pub/Sub project configured, recording acquisition events in process",
			zap.String("topic", topic))
		return app.events, topic, nil
	}
	var err error
	app.pubsub, err = pubsub.NewClient(ctx, app.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, "", fmt.Errorf("pubsub client init failed: %w", err)
	}
	app.publisher = gcppublisher.New(app.pubsub.Topic(app.cfg.PubSub.TopicName))
	app.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", app.cfg.PubSub.ProjectID),
		zap.String("topic", app.cfg.PubSub.TopicName),
	)
	return app.publisher, app.cfg.PubSub.TopicName, nil
}

// Service returns the schedule service.
func (a *App) Service() *schedule.Service {
	return a.service
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Clock returns the clock shared by every component.
func (a *App) Clock() f1.Clock {
	return a.clock
}

// Handler returns the HTTP API handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Serve runs the HTTP API until ctx is canceled or a termination signal arrives.
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	default:
		return nil
	}
}

// RunTools serves the tool server on the configured transport.
func (a *App) RunTools(ctx context.Context) error {
	if a.cfg.Server.Transport == config.TransportHTTP {
		return a.Serve(ctx)
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	a.logger.Info("tool server started", zap.String("transport", config.TransportStdio))
	return a.tools.Run(ctx)
}

// Close releases clients and flushes the logger.
func (a *App) Close() error {
	a.closeInfrastructure()
	// Sync fails on terminals; nothing useful can be done about it.
	_ = a.logger.Sync()
	return nil
}

func (a *App) closeInfrastructure() {
	if a.events != nil {
		a.logger.Debug("in-process acquisition events recorded", zap.Int("count", len(a.events.Messages())))
	}
	if a.publisher != nil {
		a.publisher.Stop()
	}
	if a.pubsub != nil {
		if err := a.pubsub.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	if a.redisStore != nil {
		if err := a.redisStore.Close(); err != nil {
			a.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.headless != nil {
		a.headless.Close()
	}
}

package cmd

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/foundersignal/pipeline/internal/api"
	"github.com/foundersignal/pipeline/internal/config"
	"github.com/foundersignal/pipeline/internal/database"
	"github.com/foundersignal/pipeline/internal/generator"
	"github.com/foundersignal/pipeline/internal/leads"
	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/metrics"
	"github.com/foundersignal/pipeline/internal/pipeline"
	"github.com/foundersignal/pipeline/internal/ratelimit"
	"github.com/foundersignal/pipeline/internal/sources"
	"github.com/foundersignal/pipeline/internal/validator"
)

// app holds the wired service components.
type app struct {
	cfg       *config.Config
	log       logger.Logger
	db        *sqlx.DB
	pipeline  *pipeline.Pipeline
	scheduler *pipeline.Scheduler
	server    *api.Server
}

// newApp loads configuration and wires every component.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	startupRepo := database.NewStartupRepository(db)
	sourceRepo := database.NewSourceRepository(db)
	storyRepo := database.NewStoryRepository(db)
	jobRepo := database.NewJobRunRepository(db)

	limiter := ratelimit.NewRegistry(cfg.RateLimit.Buckets, 60, cfg.RateLimit.MaxWaitAttempts, log)
	client := &http.Client{Timeout: cfg.Sources.RequestTimeout}

	// Funding feeds ride along with the startup feeds; the funding detection
	// sweep picks their announcements out of the collected evidence.
	feeds := append(append([]string{}, cfg.Sources.StartupFeeds...), cfg.Sources.FundingFeeds...)
	collectors := []sources.Collector{
		sources.NewProductHunt(client, cfg.Sources.ProductHuntToken, log),
		sources.NewHackerNews(client, log),
		sources.NewGitHub(client, cfg.Sources.GitHubToken, log),
		sources.NewRSS(feeds, log),
	}
	scraper := sources.NewWebScraper(client, log)

	textService := generator.NewOpenAIClient(cfg.Generator)
	gen := generator.NewGenerator(textService, limiter, cfg.Generator, log)
	val := validator.New(scraper, scraper, startupRepo, limiter, cfg.Validator, log)
	processor := leads.NewProcessor(startupRepo, sourceRepo, log)

	m := metrics.New()
	pipe := pipeline.New(pipeline.Deps{
		Collectors: collectors,
		Funding:    sources.NewFundingFeed(client, cfg.Sources.FundingFeedURL, log),
		Valuations: sources.NewValuationFeed(client, cfg.Sources.ValuationFeedURL, log),
		Scraper:    scraper,
		Leads:      processor,
		Generator:  gen,
		Validator:  val,
		Startups:   startupRepo,
		Evidence:   sourceRepo,
		Stories:    storyRepo,
		Jobs:       jobRepo,
		Limiter:    limiter,
		Metrics:    m,
		Logger:     log,
		Config:     cfg,
	})

	scheduler, err := pipeline.NewScheduler(pipe, cfg.Pipeline.Schedules, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build scheduler: %w", err)
	}

	server := api.NewServer(api.Deps{
		Addr:     cfg.Server.Addr,
		Trigger:  pipe,
		Jobs:     jobRepo,
		Startups: startupRepo,
		Evidence: sourceRepo,
		Stories:  storyRepo,
		Registry: m.Registry(),
		Logger:   log,
	})

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		pipeline:  pipe,
		scheduler: scheduler,
		server:    server,
	}, nil
}

func (a *app) close() {
	if err := database.Close(a.db); err != nil {
		a.log.Error("failed to close database", logger.Error(err))
	}
	_ = a.log.Sync()
}

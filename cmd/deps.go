package cmd

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/sentineliq/harvester/internal/config"
	"github.com/sentineliq/harvester/internal/crawler"
	"github.com/sentineliq/harvester/internal/database"
	"github.com/sentineliq/harvester/internal/dedup"
	"github.com/sentineliq/harvester/internal/discovery"
	"github.com/sentineliq/harvester/internal/extract"
	"github.com/sentineliq/harvester/internal/fetch"
	"github.com/sentineliq/harvester/internal/logger"
	"github.com/sentineliq/harvester/internal/ratelimit"
)

// appDeps holds the wired application dependencies commands operate on.
type appDeps struct {
	cfg          *config.Config
	log          *logger.Logger
	db           *sqlx.DB
	sources      *database.SourceRepository
	articles     *database.ArticleRepository
	fingerprints *database.FingerprintRepository
	index        *dedup.Index
	orchestrator *crawler.Orchestrator
}

// Close releases held resources.
func (d *appDeps) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}
	if d.log != nil {
		_ = d.log.Sync()
	}
}

// buildDeps loads configuration and wires the full application graph.
func buildDeps() (*appDeps, error) {
	cfg, cfgErr := config.Load(cfgFile)
	if cfgErr != nil {
		return nil, cfgErr
	}

	log, logErr := logger.New(cfg.Logger)
	if logErr != nil {
		return nil, fmt.Errorf("create logger: %w", logErr)
	}

	db, dbErr := database.NewPostgresConnection(cfg.Database)
	if dbErr != nil {
		_ = log.Sync()
		return nil, dbErr
	}

	deps := &appDeps{
		cfg:          cfg,
		log:          log,
		db:           db,
		sources:      database.NewSourceRepository(db),
		articles:     database.NewArticleRepository(db),
		fingerprints: database.NewFingerprintRepository(db),
	}

	deps.index = dedup.NewIndex(deps.fingerprints, log, cfg.DedupIndexConfig())

	httpClient := &http.Client{Timeout: cfg.Crawler.RequestTimeout}
	client := fetch.NewClient(httpClient, cfg.Crawler.UserAgent, cfg.Crawler.MaxBodyBytes)
	robots := fetch.NewRobotsChecker(httpClient, cfg.Crawler.UserAgent, cfg.Crawler.RobotsCacheTTL)
	limiter := ratelimit.New(cfg.RateLimiterConfig())
	discoverer := discovery.NewDiscoverer(client, log)

	deps.orchestrator = crawler.NewOrchestrator(
		deps.sources,
		deps.articles,
		deps.index,
		discoverer,
		limiter,
		robots,
		client,
		extract.NewExtractor(),
		log,
		crawler.Config{
			BatchSize:     cfg.Crawler.BatchSize,
			BatchPause:    cfg.Crawler.BatchPause,
			MaxConcurrent: cfg.Crawler.MaxConcurrent,
		},
	)

	return deps, nil
}

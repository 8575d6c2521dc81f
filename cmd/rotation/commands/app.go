package commands

import (
	"fmt"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/internal/external/yahoo"
	"github.com/wonny/rotor/internal/pipeline"
	"github.com/wonny/rotor/internal/rotationconfig"
	"github.com/wonny/rotor/internal/s0_data"
	"github.com/wonny/rotor/internal/s1_silver"
	"github.com/wonny/rotor/internal/s1_silver/quality"
	"github.com/wonny/rotor/internal/s3_rank"
	"github.com/wonny/rotor/pkg/config"
	"github.com/wonny/rotor/pkg/database"
	"github.com/wonny/rotor/pkg/logger"
	"github.com/wonny/rotor/pkg/redis"
)

// app bundles the wired components every command needs. Each command builds
// one, uses what it needs, and closes it on exit.
type app struct {
	cfg      *config.Config
	strategy *rotationconfig.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	cache    *redis.Cache

	collector *s0_data.Collector
	silver    *s1_silver.Builder
	gate      *quality.Gate
	prices    contracts.PriceRepository
	gold      *s3_rank.Builder
	rankings  contracts.RankingRepository
	runner    *pipeline.Runner
}

// newApp loads configuration and wires the full pipeline
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	path := cfg.StrategyFile
	if strategyFile != "" {
		path = strategyFile
	}

	strategy, _, err := rotationconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", path, err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// no-op client when Redis is disabled, so the cache is always safe to use
	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(redisClient, "rotor")

	anchor, err := strategy.Weekly.AnchorWeekday()
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, err
	}

	gold, err := s3_rank.NewBuilder(anchor, strategy.Rankings, log)
	if err != nil {
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("build ranking core: %w", err)
	}

	rawRepo := s0_data.NewRepository(db.Pool)
	priceRepo := s1_silver.NewRepository(db.Pool)
	rankingRepo := s3_rank.NewRepository(db.Pool)

	yahooClient := yahoo.NewClient(cfg.Yahoo, log)
	collector := s0_data.NewCollector(yahooClient, rawRepo, log)
	silver := s1_silver.NewBuilder(rawRepo, priceRepo, log)
	gate := quality.NewGate(priceRepo, strategy.Quality, log)

	runner := pipeline.NewRunner(
		strategy, collector, silver, gate,
		priceRepo, gold, rankingRepo, cache,
		cfg.LatestJSON, log,
	)

	return &app{
		cfg:       cfg,
		strategy:  strategy,
		log:       log,
		db:        db,
		redis:     redisClient,
		cache:     cache,
		collector: collector,
		silver:    silver,
		gate:      gate,
		prices:    priceRepo,
		gold:      gold,
		rankings:  rankingRepo,
		runner:    runner,
	}, nil
}

// Close releases the app's resources
func (a *app) Close() {
	a.redis.Close()
	a.db.Close()
}

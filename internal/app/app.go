package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/avelier/club-ladder/internal/config"
	"github.com/avelier/club-ladder/internal/infrastructure/jobs"
	"github.com/avelier/club-ladder/internal/infrastructure/leaderboard"
	"github.com/avelier/club-ladder/internal/infrastructure/repository/postgres"
	"github.com/avelier/club-ladder/internal/interfaces/httpapi"
	"github.com/avelier/club-ladder/internal/platform/cache"
	idgen "github.com/avelier/club-ladder/internal/platform/id"
	"github.com/avelier/club-ladder/internal/platform/logging"
	"github.com/avelier/club-ladder/internal/platform/resilience"
	"github.com/avelier/club-ladder/internal/usecase"
)

// App owns the wired service graph and its closable resources.
type App struct {
	Server *http.Server
	db     *sqlx.DB
	runner *jobs.Runner
	redis  *redis.Client
	logger *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewJSON(cfg.LogLevel)
	}

	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	idGen := idgen.NewRandomGenerator()

	playerRepo := postgres.NewPlayerRepository(db)
	seasonRepo := postgres.NewSeasonRepository(db)
	matchRepo := postgres.NewMatchRepository(db, idGen)
	historyRepo := postgres.NewHistoryRepository(db, idGen)
	jobRepo := postgres.NewJobRepository(db)
	configRepo := postgres.NewEloConfigRepository(db)

	runner, err := jobs.NewRunner(cfg.JobWorkerCount, logger)
	if err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("start job runner: %w", err)
	}

	var localCache *cache.Store
	if cfg.CacheEnabled {
		localCache = cache.NewStore(cfg.CacheTTL)
	}

	var redisClient *redis.Client
	var lbCache usecase.LeaderboardCache
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		lbCache = leaderboard.NewRedisCache(redisClient, cfg.LeaderboardCacheTTL, resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: cfg.RedisCircuitFailures,
			OpenTimeout:      cfg.RedisCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.RedisCircuitHalfOpenMax,
		})
	}

	configSvc := usecase.NewConfigService(configRepo, idGen)
	recalcSvc := usecase.NewRecalcService(seasonRepo, historyRepo, matchRepo, jobRepo, runner, logger, idGen)
	playerSvc := usecase.NewPlayerService(playerRepo, idGen)
	seasonSvc := usecase.NewSeasonService(seasonRepo, playerRepo, configSvc, recalcSvc, localCache, lbCache, logger, idGen)
	matchSvc := usecase.NewMatchService(playerRepo, seasonRepo, matchRepo, configSvc, recalcSvc, idGen)
	jobSvc := usecase.NewJobService(jobRepo)

	handler := httpapi.NewHandler(playerSvc, seasonSvc, matchSvc, recalcSvc, configSvc, jobSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.AdminToken, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		closeQuietly(db, logger)
		runner.Release()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server: server,
		db:     db,
		runner: runner,
		redis:  redisClient,
		logger: logger,
	}, nil
}

// Close releases background workers and connections after the HTTP
// server has stopped accepting requests.
func (a *App) Close() error {
	a.runner.Release()

	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close database: %w", err)
	}

	return firstErr
}

func closeQuietly(db *sqlx.DB, logger *logging.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("close database failed", "error", err)
	}
}

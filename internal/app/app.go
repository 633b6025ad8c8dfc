package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/openkick/predictor/external/footballdata"
	"github.com/openkick/predictor/internal/config"
	"github.com/openkick/predictor/internal/domain/match"
	"github.com/openkick/predictor/internal/domain/prediction"
	"github.com/openkick/predictor/internal/domain/score"
	"github.com/openkick/predictor/internal/infrastructure/repository/memory"
	"github.com/openkick/predictor/internal/infrastructure/repository/postgres"
	"github.com/openkick/predictor/internal/interfaces/httpapi"
	"github.com/openkick/predictor/internal/platform/cache"
	"github.com/openkick/predictor/internal/platform/logging"
	"github.com/openkick/predictor/internal/platform/resilience"
	"github.com/openkick/predictor/internal/usecase"
)

type repositories struct {
	matches     match.Repository
	predictions prediction.Repository
	scores      score.Repository
}

// NewHTTPServer wires the full service graph and returns a configured server.
// An empty DATABASE_URL selects the in-memory repositories with seed data,
// which is the dev default.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	cacheStore := cache.NewStore(logger)
	provider := buildFeedProvider(cfg, logger)

	recalcSvc := usecase.NewRecalcService(repos.matches, repos.predictions, repos.scores, cacheStore, logger)
	syncSvc := usecase.NewSyncService(provider, repos.matches, recalcSvc, logger)
	matchSvc := usecase.NewMatchService(repos.matches, syncSvc, recalcSvc, cacheStore, cfg.Season, cfg.MatchCacheTTL, logger)
	predictionSvc := usecase.NewPredictionService(repos.matches, repos.predictions, logger)
	leaderboardSvc := usecase.NewLeaderboardService(repos.scores, cacheStore, cfg.LeaderboardCacheTTL, logger)

	handler := httpapi.NewHandler(matchSvc, predictionSvc, leaderboardSvc, recalcSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	// Prime the match cache once; its refresh timer keeps the entry warm from
	// then on, so steady-state reads never wait on the rate-limited feed.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.FootballDataTimeout+5*time.Second)
		defer cancel()
		if _, err := matchSvc.GetMatches(ctx); err != nil {
			logger.Warn("initial match cache warm failed", "error", err)
		}
	}()

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, error) {
	if cfg.DBURL == "" {
		logger.Info("datastore selected", "kind", "memory")
		return repositories{
			matches:     memory.NewMatchRepository(memory.SeedMatches(time.Now().UTC())),
			predictions: memory.NewPredictionRepository(),
			scores:      memory.NewScoreRepository(),
		}, nil
	}

	db, err := otelsqlx.Connect("postgres", cfg.DBURL)
	if err != nil {
		return repositories{}, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	logger.Info("datastore selected", "kind", "postgres", "db", dbNameFromURL(cfg.DBURL))

	return repositories{
		matches:     postgres.NewMatchRepository(db),
		predictions: postgres.NewPredictionRepository(db),
		scores:      postgres.NewScoreRepository(db),
	}, nil
}

func buildFeedProvider(cfg config.Config, logger *logging.Logger) usecase.MatchFeedProvider {
	if !cfg.FootballDataEnabled {
		logger.Info("match feed disabled", "reason", "FOOTBALL_DATA_ENABLED=false")
		return staticFeedProvider{}
	}

	return footballdata.NewClient(footballdata.ClientConfig{
		HTTPClient:  &http.Client{Timeout: cfg.FootballDataTimeout},
		BaseURL:     cfg.FootballDataBaseURL,
		Competition: cfg.FootballDataCompetition,
		Token:       cfg.FootballDataToken,
		Timeout:     cfg.FootballDataTimeout,
		MaxRetries:  cfg.FootballDataMaxRetries,
		Logger:      logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FeedCircuitEnabled,
			FailureThreshold: cfg.FeedCircuitFailureCount,
			OpenTimeout:      cfg.FeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
		},
	})
}

// staticFeedProvider keeps the sync path alive when no upstream feed is
// configured. The seeded matches already live in the repository, so a sync
// that upserts nothing is the correct no-op.
type staticFeedProvider struct{}

func (staticFeedProvider) FetchSeasonMatches(context.Context, string) ([]usecase.ExternalMatch, error) {
	return nil, nil
}

package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/oauth2"

	"github.com/gridpulse/fantasy-api/external/leaguehub"
	"github.com/gridpulse/fantasy-api/external/statsfeed"
	"github.com/gridpulse/fantasy-api/internal/config"
	"github.com/gridpulse/fantasy-api/internal/domain/credential"
	"github.com/gridpulse/fantasy-api/internal/infrastructure/repository/memory"
	"github.com/gridpulse/fantasy-api/internal/infrastructure/repository/postgres"
	"github.com/gridpulse/fantasy-api/internal/interfaces/httpapi"
	"github.com/gridpulse/fantasy-api/internal/platform/cache"
	"github.com/gridpulse/fantasy-api/internal/platform/logging"
	"github.com/gridpulse/fantasy-api/internal/platform/resilience"
	"github.com/gridpulse/fantasy-api/internal/usecase"
)

// NewHTTPServer wires the whole service. The returned cleanup closes what
// the wiring opened and is safe to call after server shutdown.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		db           *sqlx.DB
		cacheBackend cache.Backend
		credRepo     credential.Repository
	)
	if cfg.DBURL != "" {
		var err error
		db, err = sqlx.Connect("postgres", cfg.DBURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)

		cacheBackend = postgres.NewCacheRepository(db)
		credRepo = postgres.NewCredentialRepository(db)
	} else {
		logger.Warn("DB_URL is empty, using in-memory persistence")
		credRepo = memory.NewCredentialRepository()
	}
	cleanup := func() {
		if db != nil {
			_ = db.Close()
		}
	}

	var oauthCfg *oauth2.Config
	if cfg.LeagueHubClientID != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.LeagueHubClientID,
			ClientSecret: cfg.LeagueHubClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.LeagueHubAuthURL,
				TokenURL: cfg.LeagueHubTokenURL,
				// Pinned so a rejected refresh is one request, not an
				// auth-style probe followed by a second attempt.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		}
	}

	credentialSvc := usecase.NewCredentialService(credRepo, oauthCfg, logger)
	store := cache.NewStore(cacheBackend, logger)

	leagueClient := leaguehub.NewClient(leaguehub.ClientConfig{
		BaseURL:    cfg.LeagueHubBaseURL,
		Timeout:    cfg.LeagueHubTimeout,
		MaxRetries: cfg.LeagueHubMaxRetries,
		Tokens:     credentialSvc,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.LeagueHubCircuitEnabled,
			FailureThreshold: cfg.LeagueHubCircuitFailureCount,
			OpenTimeout:      cfg.LeagueHubCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.LeagueHubCircuitHalfOpenMaxReq,
		},
		MinRequestInterval: cfg.LeagueHubMinRequestInterval,
	})

	statsClient := statsfeed.NewClient(statsfeed.ClientConfig{
		BaseURL: cfg.StatsFeedBaseURL,
		Timeout: cfg.StatsFeedTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.StatsFeedCircuitEnabled,
			FailureThreshold: cfg.StatsFeedCircuitFailureCount,
			OpenTimeout:      cfg.StatsFeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.StatsFeedCircuitHalfOpenMaxReq,
		},
		RetryBaseDelay: cfg.StatsFeedRetryBaseDelay,
	})

	aggregationSvc := usecase.NewAggregationService(leagueClient, statsClient, store, logger, usecase.AggregationConfig{
		CurrentWeek: currentWeekFunc(cfg),
		Season:      cfg.Season,
		MaxWorkers:  cfg.MaxWorkers,
	})

	handler := httpapi.NewHandler(aggregationSvc, credentialSvc, oauthCfg, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		cleanup()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, cleanup, nil
}

// currentWeekFunc returns the week clock for the aggregation service. A
// configured CURRENT_WEEK pins it; otherwise it ticks off the calendar from
// the season start date.
func currentWeekFunc(cfg config.Config) func() int {
	if cfg.CurrentWeek > 0 {
		week := cfg.CurrentWeek
		return func() int { return week }
	}

	start := cfg.SeasonStartDate
	return func() int {
		return weeksSince(start, time.Now())
	}
}

func weeksSince(start, now time.Time) int {
	if !now.After(start) {
		return 1
	}
	week := int(now.Sub(start)/(7*24*time.Hour)) + 1
	if week > 23 {
		week = 23
	}
	return week
}

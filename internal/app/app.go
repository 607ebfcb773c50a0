package app

import (
	"fmt"
	"net/http"

	"github.com/scoutbase/scout/external/gridapi"
	"github.com/scoutbase/scout/internal/config"
	"github.com/scoutbase/scout/internal/infrastructure/repository/sqlite"
	"github.com/scoutbase/scout/internal/interfaces/httpapi"
	"github.com/scoutbase/scout/internal/parser/valorant"
	"github.com/scoutbase/scout/internal/platform/logging"
	"github.com/scoutbase/scout/internal/platform/resilience"
	"github.com/scoutbase/scout/internal/usecase"
)

// NewHTTPServer wires repositories, provider client, parser and services into
// a ready-to-run HTTP server. The returned cleanup closes the database.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	matchRepo := sqlite.NewMatchRepository(db)
	roundRepo := sqlite.NewRoundRepository(db)
	statsRepo := sqlite.NewPlayerStatsRepository(db)

	gridClient := gridapi.NewClient(gridapi.ClientConfig{
		BaseURL:        cfg.GridBaseURL,
		APIKey:         cfg.GridAPIKey,
		Timeout:        cfg.GridTimeout,
		MaxRetries:     cfg.GridMaxRetries,
		RetryBaseDelay: cfg.GridRetryBaseDelay,
		SeriesCacheTTL: cfg.SeriesCacheTTL,
		Logger:         logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.GridCircuitEnabled,
			FailureThreshold: cfg.GridCircuitFailureCount,
			OpenTimeout:      cfg.GridCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.GridCircuitHalfOpenReq,
		},
	})

	parser := valorant.NewParser(valorant.EconomyThresholds{
		Eco:   cfg.EconomyEcoThreshold,
		Force: cfg.EconomyForceThreshold,
		Full:  cfg.EconomyFullThreshold,
	})

	ingestionSvc := usecase.NewIngestionService(matchRepo, roundRepo, statsRepo)
	scoutingSvc := usecase.NewScoutingService(matchRepo, roundRepo, statsRepo)
	syncSvc := usecase.NewScoutSyncService(gridClient, parser, ingestionSvc, logger, usecase.ScoutSyncConfig{
		Workers:     cfg.IngestWorkers,
		CallTimeout: cfg.IngestCallTimeout,
	})

	handler := httpapi.NewHandler(scoutingSvc, syncSvc, logger)
	router := httpapi.NewRouter(handler, logger)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		_ = db.Close()
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, db.Close, nil
}

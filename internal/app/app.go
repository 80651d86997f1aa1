package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/stockpulse/config"
	"github.com/guttosm/stockpulse/internal/api"
	"github.com/guttosm/stockpulse/internal/ingestion"
	"github.com/guttosm/stockpulse/internal/provider/alphavantage"
	"github.com/guttosm/stockpulse/internal/service"
	"github.com/guttosm/stockpulse/internal/storage"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL using InitPostgres().
//   - Initializes the repository layer (PricesRepository).
//   - Builds the provider client and ingestion engine behind /retrieve.
//   - Creates the query and statistics services and the HTTP handler.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Provides a cleanup function to close resources (e.g., DB connection).
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	repo := storage.NewPricesRepository(db)

	provider := alphavantage.NewClient(
		cfg.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL),
	)
	engine := ingestion.NewEngine(repo, provider)

	queries := service.NewQueryService(repo)
	stats := service.NewStatisticsService(repo)

	handler := api.NewHandler(queries, stats, engine, cfg.Ingestion.Symbols)
	router := api.NewRouter(handler)

	healthHandler := api.NewHealthHandler(db.Ping)
	healthHandler.Register(router)

	cleanup := func() {
		_ = db.Close()
	}

	return router, cleanup, nil
}

// InitializeIngestion wires the price store and provider client for the
// ingest and schedule modes, which run without the HTTP layer.
//
// Returns:
//   - *ingestion.Engine: ready-to-run ingestion engine.
//   - func(): cleanup function closing the database connection.
//   - error: any initialization error that occurred.
func InitializeIngestion() (*ingestion.Engine, func(), error) {
	cfg := config.AppConfig

	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	repo := storage.NewPricesRepository(db)
	provider := alphavantage.NewClient(
		cfg.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL),
	)

	cleanup := func() {
		_ = db.Close()
	}

	return ingestion.NewEngine(repo, provider), cleanup, nil
}

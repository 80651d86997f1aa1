package main

//
//  @title           stockpulse API
//  @version         1.0
//  @description     Daily equity price ingestion & query service.
//  @termsOfService  https://github.com/guttosm/stockpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/stockpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:5000
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        financial-data
//  @tag.description Endpoints for querying stored daily prices and statistics
//
//  @tag.name        ingestion
//  @tag.description Endpoints for triggering provider ingestion runs
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/guttosm/stockpulse/config"
	_ "github.com/guttosm/stockpulse/docs" // swagger docs
	"github.com/guttosm/stockpulse/internal/app"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/scheduler"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// main is the entry point of the stockpulse application.
//
// Modes (selected via --mode flag):
//   - api:      Starts the REST API exposing stored prices and statistics.
//   - ingest:   Runs one ingestion pass over the configured symbols and exits.
//   - schedule: Keeps running and fires ingestion on the configured cron expression.
//
// Flags:
//   - --mode:    Execution mode ("api", "ingest" or "schedule"). Default: "api".
//   - --symbols: Comma-separated symbols to ingest. Defaults to SYMBOLS from config.
//   - --weeks:   Trailing window in weeks for ingestion. Defaults to INGEST_WEEKS.
//   - --clear:   Empty the table before ingesting (ingest mode only).
//   - --port:    Port for the API server. Defaults to SERVER_PORT from config.
func main() {
	ctx := context.Background()

	config.LoadConfig()
	logger.Init()

	mode := flag.String("mode", "api", "Mode: api, ingest or schedule")
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols to ingest (default from config)")
	weeks := flag.Int("weeks", config.AppConfig.Ingestion.Weeks, "Trailing window in weeks")
	clear := flag.Bool("clear", false, "Empty the table before ingesting")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	symbols := config.AppConfig.Ingestion.Symbols
	if *symbolsFlag != "" {
		symbols = nil
		for _, s := range strings.Split(*symbolsFlag, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
	}

	switch *mode {
	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	case "ingest":
		logger.L().Info().Strs("symbols", symbols).Int("weeks", *weeks).Msg("running ingestion")

		engine, cleanup, err := app.InitializeIngestion()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}
		defer cleanup()

		status, err := engine.Run(ctx, symbols, *weeks, *clear)
		if err != nil {
			logger.L().Fatal().Err(err).Str("status", status).Msg("ingestion failed")
		}
		logger.L().Info().Str("status", status).Msg("ingestion completed")

	case "schedule":
		logger.L().Info().Str("cron", config.AppConfig.Ingestion.Cron).Msg("starting ingestion scheduler")

		engine, cleanup, err := app.InitializeIngestion()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}
		defer cleanup()

		sched := scheduler.New(engine, symbols, *weeks)
		if err := sched.Register(config.AppConfig.Ingestion.Cron); err != nil {
			logger.L().Fatal().Err(err).Msg("scheduler registration failed")
		}
		sched.Start()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		sched.Stop()

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

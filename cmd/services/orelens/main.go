package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltixdb/orelens/internal/cache"
	"github.com/soltixdb/orelens/internal/config"
	"github.com/soltixdb/orelens/internal/engine"
	"github.com/soltixdb/orelens/internal/handlers"
	"github.com/soltixdb/orelens/internal/logging"
	"github.com/soltixdb/orelens/internal/metrics"
	"github.com/soltixdb/orelens/internal/queue"
	"github.com/soltixdb/orelens/internal/router"
	"github.com/soltixdb/orelens/internal/services"
	"github.com/soltixdb/orelens/internal/source"
	"github.com/soltixdb/orelens/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Orelens starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Dataset cache
	dataCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to initialize cache", "type", cfg.Cache.Type, "error", err)
	}
	if dataCache != nil {
		defer func() { _ = dataCache.Close() }()
		logger.Info("Dataset cache enabled", "type", cfg.Cache.Type, "ttl", cfg.Cache.TTL)
	}

	// Data source
	src, err := source.New(cfg.Source, dataCache, cfg.Cache, logger)
	if err != nil {
		logger.Fatal("Failed to initialize data source", "error", err)
	}
	if cfg.Source.SourceLocation() == "" {
		logger.Warn("No data source location configured - only inline datasets can be analyzed")
	}
	logger.Info("Data source configured", "type", cfg.Source.Type, "id", src.ID())

	// Event publisher (configurable backend)
	logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
	publisher, err := queue.NewPublisher(cfg.Queue)
	if err != nil {
		logger.Fatal("Failed to connect to Queue", "error", err)
	}
	defer func() { _ = publisher.Close() }()

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithParallelism(cfg.Analysis.MaxParallelism),
	)
	analysis := services.NewAnalysisService(logger, src, eng, publisher, m, services.AnalysisServiceConfig{
		Defaults:     engine.ParamsFromConfig(cfg.Analysis),
		EventSubject: cfg.Queue.Subject,
	})
	reports := services.NewReportService(logger, analysis)

	app := router.New(logger, handlers.New(logger, analysis, reports, src.ID()), m, *cfg)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

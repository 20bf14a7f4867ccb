package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/api"
	"github.com/yourusername/appcatalog/internal/app"
	"github.com/yourusername/appcatalog/internal/domain"
	"github.com/yourusername/appcatalog/internal/infrastructure"
	"github.com/yourusername/appcatalog/pkg/logger"
)

const version = "1.0.0"

var (
	configPath   = flag.String("config", "", "Path to config file (default: search ./configs, ~/.appcatalog, /etc/appcatalog)")
	updateOnBoot = flag.Bool("update-on-start", false, "Run the update pipeline once before serving")
)

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := createDirectories(config); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Categorized event logs: sync, stats, error
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.LogsDir,
	})
	if err != nil {
		log.Fatal("Failed to initialize event logs", zap.Error(err))
	}
	defer multiLog.Close()

	log.Info("Starting app catalog server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("stats_url", config.Stats.BaseURL),
		zap.Bool("scheduler", config.Scheduler.Enabled))

	store, err := infrastructure.NewSQLiteStore(config.Store.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	// The fetcher caches snapshots in the same store
	fetcher := infrastructure.NewStatsFetcher(&config.Stats, store, multiLog.Stats())
	aggregator := app.NewAggregator(fetcher, multiLog.Stats())

	catalog := app.NewCatalogService(store, &config.Recent, log)
	synchronizer := app.NewSynchronizer(store, multiLog)
	synchronizer.OnSync(catalog.InvalidateCaches)

	picks := app.NewPicksService(store, infrastructure.NewHTTPPicksSource(config.Picks.RemoteURL, config.Stats.Timeout), &config.Picks, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := picks.Initialize(ctx); err != nil {
		log.Warn("Failed to load local picks", zap.Error(err))
	}

	statsUpdater := app.NewStatsUpdater(store, aggregator, &config.Stats, multiLog)
	updater := app.NewUpdater(
		infrastructure.NewFileCatalogSource(config.Catalog.AppstreamDir),
		synchronizer,
		picks,
		statsUpdater,
		store,
		store.SyncRuns(),
		multiLog,
	)

	if *updateOnBoot {
		if _, err := updater.Run(ctx, domain.TriggerManual); err != nil {
			log.Error("Initial update failed", zap.Error(err))
		}
	}

	var scheduler *app.Scheduler
	if config.Scheduler.Enabled {
		scheduler = app.NewScheduler(updater, &config.Scheduler, multiLog)
		if err := scheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	router := api.SetupRouter(api.Services{
		Catalog:    catalog,
		Popularity: app.NewPopularity(store, aggregator, &config.Popular, multiLog),
		Picks:      picks,
		Feeds:      app.NewFeedBuilder(store, &config.Feeds),
		Updater:    updater,
		Scheduler:  scheduler,
		Version:    version,
	}, log, multiLog)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if scheduler != nil {
		if err := scheduler.Stop(); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	log.Info("Server exited")
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		filepath.Dir(config.Store.DatabasePath),
		config.Logging.LogsDir,
		config.Picks.DataDir,
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

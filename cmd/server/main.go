// Package main provides the API server entry point for the faucet analytics
// service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/faucet-analytics/internal/api"
	"github.com/faucet-analytics/internal/backend"
	"github.com/faucet-analytics/internal/chains"
	"github.com/faucet-analytics/internal/config"
	"github.com/faucet-analytics/internal/connector"
	"github.com/faucet-analytics/internal/logging"
	"github.com/faucet-analytics/internal/probe"
	"github.com/faucet-analytics/internal/stats"
	"github.com/faucet-analytics/internal/storage"
	"github.com/faucet-analytics/internal/worker"
)

// resolverAdapter narrows the connector resolver to the probe-facing
// interface the pipelines consume.
type resolverAdapter struct {
	resolver *connector.Resolver
}

func (a resolverAdapter) Resolve(ctx context.Context, urls []string) (probe.Caller, error) {
	client, err := a.resolver.Resolve(ctx, urls)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Postgres is preferred but not required: without it the service still
	// crawls chains and serves the dashboard from memory.
	var (
		postgres      *storage.PostgresDB
		dashboardRepo *storage.DashboardRepository
		faucetRepo    *storage.FaucetRepository
	)
	postgres, err = storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Warn("Postgres unavailable, running without persistence")
		postgres = nil
	} else {
		defer postgres.Close()
		dashboardRepo = storage.NewDashboardRepository(postgres)
		faucetRepo = storage.NewFaucetRepository(postgres)
		logger.Info("Postgres connection established")
	}

	var hotCache *storage.SnapshotCache
	if cfg.Database.Redis.Enabled() {
		hotCache, err = storage.NewSnapshotCache(&cfg.Database.Redis)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, running without hot cache")
			hotCache = nil
		} else {
			defer hotCache.Close()
			logger.Info("Redis connection established")
		}
	}

	resolver := resolverAdapter{resolver: connector.NewResolver(cfg.Refresh.RPCTimeout)}
	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.DeletedTimeout, cfg.Backend.MetadataTimeout)
	memCache := stats.NewCache()

	accumulator := stats.NewAccumulator(chains.All(), cfg.RPCURLs, resolver, backendClient)

	var crawlStore worker.FaucetStore
	if faucetRepo != nil {
		crawlStore = faucetRepo
	}
	crawler := worker.NewCrawler(chains.All(), cfg.RPCURLs, resolver, backendClient, crawlStore)

	var snapshotStore worker.SnapshotStore
	if dashboardRepo != nil {
		snapshotStore = dashboardRepo
	}
	var workerHotCache worker.HotCache
	if hotCache != nil {
		workerHotCache = hotCache
	}
	refreshWorker, err := worker.NewRefreshWorker(&worker.RefreshWorkerConfig{
		Accumulator: accumulator,
		Crawler:     crawler,
		Store:       snapshotStore,
		MemCache:    memCache,
		HotCache:    workerHotCache,
		Backend:     backendClient,
		Interval:    cfg.Refresh.Interval,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create refresh worker")
	}

	workerCtx, workerCancel := context.WithCancel(logging.WithLogger(context.Background(), logger))
	defer workerCancel()
	if err := refreshWorker.Start(workerCtx); err != nil {
		logger.WithError(err).Fatal("Failed to start refresh worker")
	}

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RequestsPerSec:  cfg.Server.RequestsPerSec,
	}

	var apiStore api.DashboardStore
	if dashboardRepo != nil {
		apiStore = dashboardRepo
	}
	var apiHotCache api.SnapshotHotCache
	if hotCache != nil {
		apiHotCache = hotCache
	}
	var faucetReader api.FaucetReader
	if faucetRepo != nil {
		faucetReader = faucetRepo
	}
	server := api.NewServer(serverConfig, apiStore, apiHotCache, memCache, faucetReader, refreshWorker)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	workerCancel()
	if err := refreshWorker.Stop(ctx); err != nil {
		logger.WithError(err).Warn("Refresh worker stop incomplete")
	}

	logger.Info("Server exited")
}

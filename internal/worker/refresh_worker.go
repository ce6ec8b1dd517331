// Package worker schedules the two refresh pipelines: the dashboard
// accumulation run and the faucet crawl. Both run on a shared interval and
// can be triggered manually through the API.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/faucet-analytics/internal/logging"
	"github.com/faucet-analytics/internal/models"
	"github.com/faucet-analytics/internal/stats"
	"github.com/google/uuid"
)

// SnapshotStore is the slice of the dashboard repository the worker uses.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot *models.DashboardSnapshot) error
	EvictClaims(ctx context.Context, addresses []string) error
	LoadSnapshot(ctx context.Context) (*models.DashboardSnapshot, error)
}

// HotCache is the optional Redis snapshot cache. A nil HotCache disables the
// hot-cache write without affecting the rest of the pipeline.
type HotCache interface {
	SetSnapshot(ctx context.Context, snapshot *models.DashboardSnapshot) error
}

// RefreshWorkerConfig holds the worker dependencies.
type RefreshWorkerConfig struct {
	Accumulator *stats.Accumulator
	Crawler     *Crawler
	Store       SnapshotStore
	MemCache    *stats.Cache
	HotCache    HotCache // optional
	Backend     stats.DeletedSetProvider
	Interval    time.Duration // default 3h
}

// RefreshWorker owns the periodic refresh loop.
type RefreshWorker struct {
	accumulator *stats.Accumulator
	crawler     *Crawler
	store       SnapshotStore
	memCache    *stats.Cache
	hotCache    HotCache
	backend     stats.DeletedSetProvider
	interval    time.Duration

	running bool
	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefreshWorker creates a refresh worker.
func NewRefreshWorker(cfg *RefreshWorkerConfig) (*RefreshWorker, error) {
	if cfg.Accumulator == nil {
		return nil, fmt.Errorf("accumulator cannot be nil")
	}
	if cfg.Crawler == nil {
		return nil, fmt.Errorf("crawler cannot be nil")
	}
	if cfg.MemCache == nil {
		return nil, fmt.Errorf("memory cache cannot be nil")
	}
	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend client cannot be nil")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 3 * time.Hour
	}

	return &RefreshWorker{
		accumulator: cfg.Accumulator,
		crawler:     cfg.Crawler,
		store:       cfg.Store,
		memCache:    cfg.MemCache,
		hotCache:    cfg.HotCache,
		backend:     cfg.Backend,
		interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start bootstraps the in-memory cache from the store so the API serves data
// immediately, kicks off the first refresh asynchronously, and begins the
// interval loop.
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("refresh worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	logger := logging.FromContext(ctx)

	if w.store != nil {
		if snapshot, err := w.store.LoadSnapshot(ctx); err != nil {
			logger.WithError(err).Warn("Failed to load persisted dashboard at startup")
		} else if snapshot != nil {
			w.memCache.Set(snapshot)
			logger.WithField("last_updated", snapshot.LastUpdated).Info("Bootstrapped dashboard from store")
		}
	}

	go w.RunAll(ctx)
	go w.loop(ctx)

	logger.WithField("interval", w.interval.String()).Info("Refresh worker started")
	return nil
}

// Stop signals the loop and waits for it to exit.
func (w *RefreshWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("refresh worker is not running")
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

func (w *RefreshWorker) loop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunAll(ctx)
		}
	}
}

// RunAll executes both pipelines concurrently and waits for both to finish.
// The manual refresh endpoint calls this synchronously so the store is fully
// updated before it responds.
func (w *RefreshWorker) RunAll(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.RefreshDashboard(ctx)
	}()
	go func() {
		defer wg.Done()
		w.RefreshFaucets(ctx)
	}()
	wg.Wait()
}

// RefreshDashboard runs one accumulation pass, swaps the in-memory cache,
// persists the snapshot and updates the hot cache. Persistence failures are
// logged, never fatal: the fresh snapshot still serves from memory.
func (w *RefreshWorker) RefreshDashboard(ctx context.Context) {
	logger := logging.FromContext(ctx)
	defer recoverJob(logger, "dashboard refresh")

	started := time.Now()
	snapshot := w.accumulator.Run(ctx)
	w.memCache.Set(snapshot)

	if w.store != nil {
		if err := w.store.SaveSnapshot(ctx, snapshot); err != nil {
			logger.WithError(err).Error("Failed to persist dashboard snapshot")
		} else {
			deleted := w.backend.DeletedFaucets(ctx)
			if len(deleted) > 0 {
				addrs := make([]string, 0, len(deleted))
				for addr := range deleted {
					addrs = append(addrs, addr)
				}
				if err := w.store.EvictClaims(ctx, addrs); err != nil {
					logger.WithError(err).Warn("Eviction of deleted claim rows incomplete")
				}
			}
		}
	}

	if w.hotCache != nil {
		if err := w.hotCache.SetSnapshot(ctx, snapshot); err != nil {
			logger.WithError(err).Warn("Failed to update snapshot hot cache")
		}
	}

	logger.WithField("duration", time.Since(started).String()).Info("Dashboard refresh complete")
}

// RefreshFaucets runs one full faucet crawl.
func (w *RefreshWorker) RefreshFaucets(ctx context.Context) {
	logger := logging.FromContext(ctx)
	defer recoverJob(logger, "faucet crawl")

	started := time.Now()
	w.crawler.Run(ctx)
	logger.WithField("duration", time.Since(started).String()).Info("Faucet crawl complete")
}

// EnqueueCrawl starts a background faucet crawl scoped to one chain and
// returns its job id.
func (w *RefreshWorker) EnqueueCrawl(ctx context.Context, chainID int64) string {
	jobID := uuid.New().String()
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"job_id":   jobID,
		"chain_id": chainID,
	})
	go func() {
		defer recoverJob(logger, "faucet crawl")
		w.crawler.RunChain(logging.WithLogger(context.Background(), logger), chainID)
	}()
	return jobID
}

// recoverJob converts a pipeline panic into a log line so one bad run never
// kills the scheduler.
func recoverJob(logger *logging.Logger, job string) {
	if r := recover(); r != nil {
		logger.WithField("panic", fmt.Sprintf("%v", r)).Error("Recovered from " + job + " panic")
	}
}

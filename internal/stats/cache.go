package stats

import (
	"sync"

	"github.com/faucet-analytics/internal/models"
)

// Cache holds the most recent dashboard snapshot in memory. Replacement is
// wholesale: readers either see the previous complete snapshot or the new
// one, never a partial mix.
type Cache struct {
	mu       sync.RWMutex
	snapshot *models.DashboardSnapshot
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached snapshot, or nil when no run has completed yet.
func (c *Cache) Get() *models.DashboardSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Set replaces the cached snapshot.
func (c *Cache) Set(snapshot *models.DashboardSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snapshot
}

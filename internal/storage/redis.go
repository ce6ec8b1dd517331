package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/faucet-analytics/internal/config"
	"github.com/faucet-analytics/internal/models"
	"github.com/redis/go-redis/v9"
)

// snapshotKey is the single Redis key holding the serialized dashboard.
const snapshotKey = "dashboard:snapshot"

// SnapshotCache is the optional Redis hot cache for the dashboard snapshot.
// It holds exactly one value under a short TTL; a miss simply falls through
// to Postgres or the in-memory copy.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a Redis-backed snapshot cache and verifies the
// connection with a ping before returning.
func NewSnapshotCache(cfg *config.RedisConfig) (*SnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.MaxConnections,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.SnapshotTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &SnapshotCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *SnapshotCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Ping checks if Redis is reachable.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetSnapshot returns the cached snapshot, or (nil, nil) on a cache miss.
func (c *SnapshotCache) GetSnapshot(ctx context.Context) (*models.DashboardSnapshot, error) {
	raw, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot from Redis: %w", err)
	}

	var snapshot models.DashboardSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode cached snapshot: %w", err)
	}
	return &snapshot, nil
}

// SetSnapshot stores the snapshot under the configured TTL.
func (c *SnapshotCache) SetSnapshot(ctx context.Context, snapshot *models.DashboardSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot to Redis: %w", err)
	}
	return nil
}

// InvalidateSnapshot drops the cached snapshot so the next read goes to
// Postgres.
func (c *SnapshotCache) InvalidateSnapshot(ctx context.Context) error {
	return c.client.Del(ctx, snapshotKey).Err()
}

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/faucet-analytics/internal/config"
	"github.com/faucet-analytics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSnapshotCache(t *testing.T) (*SnapshotCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := NewSnapshotCache(&config.RedisConfig{
		Host:           mr.Host(),
		Port:           mr.Port(),
		MaxConnections: 5,
		SnapshotTTL:    time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache, mr
}

func sampleSnapshot() *models.DashboardSnapshot {
	return &models.DashboardSnapshot{
		TotalClaims:      42,
		TotalUniqueUsers: 7,
		TotalFaucets:     3,
		ClaimsPieData: []models.PieSlice{
			{Name: "Alpha", Value: 42, FaucetAddress: "0xaaa", Network: "Celo"},
		},
		NetworkFaucets: []models.NetworkFaucets{{Network: "Celo", Faucets: 3}},
		LastUpdated:    "2026-08-29T00:00:00Z",
	}
}

func TestSnapshotCacheRoundtrip(t *testing.T) {
	cache, _ := setupSnapshotCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSnapshot(ctx, sampleSnapshot()))

	got, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.TotalClaims)
	assert.Equal(t, int64(7), got.TotalUniqueUsers)
	require.Len(t, got.ClaimsPieData, 1)
	assert.Equal(t, "Alpha", got.ClaimsPieData[0].Name)
	assert.Equal(t, "2026-08-29T00:00:00Z", got.LastUpdated)
}

func TestSnapshotCacheMissReturnsNil(t *testing.T) {
	cache, _ := setupSnapshotCache(t)

	got, err := cache.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	cache, _ := setupSnapshotCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSnapshot(ctx, sampleSnapshot()))
	require.NoError(t, cache.InvalidateSnapshot(ctx))

	got, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotCacheTTLExpiry(t *testing.T) {
	cache, mr := setupSnapshotCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetSnapshot(ctx, sampleSnapshot()))
	mr.FastForward(2 * time.Minute)

	got, err := cache.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotCacheCorruptValue(t *testing.T) {
	cache, mr := setupSnapshotCache(t)

	require.NoError(t, mr.Set(snapshotKey, "{not json"))

	_, err := cache.GetSnapshot(context.Background())
	assert.Error(t, err)
}

func TestNewSnapshotCacheUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Host()
	port := mr.Port()
	mr.Close()

	_, err = NewSnapshotCache(&config.RedisConfig{Host: addr, Port: port})
	assert.Error(t, err)
}

func TestSnapshotCachePing(t *testing.T) {
	cache, mr := setupSnapshotCache(t)
	require.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/faucet-analytics/internal/models"
	"github.com/faucet-analytics/internal/stats"
	"github.com/faucet-analytics/internal/storage"
)

type fakeDashboardStore struct {
	snapshot *models.DashboardSnapshot
	err      error
}

func (f *fakeDashboardStore) LoadSnapshot(ctx context.Context) (*models.DashboardSnapshot, error) {
	return f.snapshot, f.err
}

type fakeHotCache struct {
	snapshot *models.DashboardSnapshot
	err      error
}

func (f *fakeHotCache) GetSnapshot(ctx context.Context) (*models.DashboardSnapshot, error) {
	return f.snapshot, f.err
}

type fakeFaucetReader struct {
	faucets    []*models.FaucetMeta
	total      int64
	listErr    error
	detail     *models.FaucetDetail
	detailErr  error
	gotFilters *storage.FaucetFilters
	gotAddress string
}

func (f *fakeFaucetReader) List(ctx context.Context, filters *storage.FaucetFilters) ([]*models.FaucetMeta, int64, error) {
	f.gotFilters = filters
	return f.faucets, f.total, f.listErr
}

func (f *fakeFaucetReader) GetDetail(ctx context.Context, address string) (*models.FaucetDetail, error) {
	f.gotAddress = address
	return f.detail, f.detailErr
}

type fakeRefresher struct {
	ranAll     bool
	jobID      string
	gotChainID int64
}

func (f *fakeRefresher) RunAll(ctx context.Context) {
	f.ranAll = true
}

func (f *fakeRefresher) EnqueueCrawl(ctx context.Context, chainID int64) string {
	f.gotChainID = chainID
	return f.jobID
}

func newTestServer(store DashboardStore, hotCache SnapshotHotCache, memCache *stats.Cache, faucets FaucetReader, refresher Refresher) *Server {
	if memCache == nil {
		memCache = stats.NewCache()
	}
	config := &ServerConfig{
		Host:           "127.0.0.1",
		Port:           "0",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		IdleTimeout:    5 * time.Second,
		RequestsPerSec: 1000,
	}
	return NewServer(config, store, hotCache, memCache, faucets, refresher)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", body["status"])
	}
}

func TestDashboardEmptyFallback(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/dashboard", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var snapshot models.DashboardSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if snapshot.TotalClaims != 0 {
		t.Errorf("Expected zero claims, got %d", snapshot.TotalClaims)
	}

	// The empty shape serializes arrays, never nulls.
	body := decodeBody(t, w)
	for _, key := range []string{"claims_pie_data", "faucet_rankings", "users_chart", "network_transactions", "network_faucets"} {
		if _, ok := body[key].([]interface{}); !ok {
			t.Errorf("Expected %s to be an array, got %T", key, body[key])
		}
	}
}

func TestDashboardFromMemoryCache(t *testing.T) {
	memCache := stats.NewCache()
	memCache.Set(&models.DashboardSnapshot{TotalClaims: 7})
	server := newTestServer(nil, nil, memCache, nil, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/dashboard", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	body := decodeBody(t, w)
	if body["total_claims"] != float64(7) {
		t.Errorf("Expected 7 claims, got %v", body["total_claims"])
	}
}

func TestDashboardPrefersHotCache(t *testing.T) {
	memCache := stats.NewCache()
	memCache.Set(&models.DashboardSnapshot{TotalClaims: 3})
	hotCache := &fakeHotCache{snapshot: &models.DashboardSnapshot{TotalClaims: 1}}
	store := &fakeDashboardStore{snapshot: &models.DashboardSnapshot{TotalClaims: 2}}
	server := newTestServer(store, hotCache, memCache, nil, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/dashboard", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	body := decodeBody(t, w)
	if body["total_claims"] != float64(1) {
		t.Errorf("Expected hot cache snapshot, got %v claims", body["total_claims"])
	}
}

func TestDashboardFallsBackToStore(t *testing.T) {
	hotCache := &fakeHotCache{err: context.DeadlineExceeded}
	store := &fakeDashboardStore{snapshot: &models.DashboardSnapshot{TotalClaims: 2}}
	server := newTestServer(store, hotCache, nil, nil, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/dashboard", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	body := decodeBody(t, w)
	if body["total_claims"] != float64(2) {
		t.Errorf("Expected store snapshot, got %v claims", body["total_claims"])
	}
}

func TestListFaucetsWithoutDatabase(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/faucets", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("Expected SERVICE_UNAVAILABLE, got %s", resp.Error.Code)
	}
}

func TestListFaucetsPagination(t *testing.T) {
	reader := &fakeFaucetReader{
		faucets: []*models.FaucetMeta{{FaucetAddress: "0xaaa", FaucetName: "Alpha"}},
		total:   250,
	}
	server := newTestServer(nil, nil, nil, reader, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/faucets?page=2&per_page=500&active_only=true&search=usd&factory_type=dropcode", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if reader.gotFilters.Page != 2 {
		t.Errorf("Expected page 2, got %d", reader.gotFilters.Page)
	}
	if reader.gotFilters.PerPage != 200 {
		t.Errorf("Expected per_page clamped to 200, got %d", reader.gotFilters.PerPage)
	}
	if !reader.gotFilters.ActiveOnly {
		t.Error("Expected active_only filter")
	}
	if reader.gotFilters.Search != "usd" {
		t.Errorf("Expected search usd, got %q", reader.gotFilters.Search)
	}
	if reader.gotFilters.FactoryType != "dropcode" {
		t.Errorf("Expected factory_type dropcode, got %q", reader.gotFilters.FactoryType)
	}

	body := decodeBody(t, w)
	if body["total"] != float64(250) {
		t.Errorf("Expected total 250, got %v", body["total"])
	}
	if body["per_page"] != float64(200) {
		t.Errorf("Expected per_page 200, got %v", body["per_page"])
	}
}

func TestListFaucetsEmptyResultIsArray(t *testing.T) {
	server := newTestServer(nil, nil, nil, &fakeFaucetReader{}, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/faucets", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	body := decodeBody(t, w)
	if _, ok := body["faucets"].([]interface{}); !ok {
		t.Errorf("Expected faucets to be an array, got %T", body["faucets"])
	}
}

func TestNetworkFaucets(t *testing.T) {
	reader := &fakeFaucetReader{total: 1, faucets: []*models.FaucetMeta{{FaucetAddress: "0xaaa"}}}
	server := newTestServer(nil, nil, nil, reader, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/network/42220/faucets", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if reader.gotFilters.ChainID == nil || *reader.gotFilters.ChainID != 42220 {
		t.Errorf("Expected chain filter 42220, got %v", reader.gotFilters.ChainID)
	}

	body := decodeBody(t, w)
	if body["chain_id"] != float64(42220) {
		t.Errorf("Expected chain_id 42220, got %v", body["chain_id"])
	}
	if body["network_name"] != "Celo" {
		t.Errorf("Expected network_name Celo, got %v", body["network_name"])
	}
}

func TestNetworkFaucetsUnknownChain(t *testing.T) {
	server := newTestServer(nil, nil, nil, &fakeFaucetReader{}, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/network/999/faucets", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("Expected NOT_FOUND, got %s", resp.Error.Code)
	}
}

func TestFaucetDetail(t *testing.T) {
	reader := &fakeFaucetReader{detail: &models.FaucetDetail{FaucetAddress: "0xaaa", FaucetName: "Alpha"}}
	server := newTestServer(nil, nil, nil, reader, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/faucet/0xAAA", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if reader.gotAddress != "0xAAA" {
		t.Errorf("Expected raw path address, got %q", reader.gotAddress)
	}
	body := decodeBody(t, w)
	if body["faucet_name"] != "Alpha" {
		t.Errorf("Expected faucet name Alpha, got %v", body["faucet_name"])
	}
}

func TestFaucetDetailNotFound(t *testing.T) {
	server := newTestServer(nil, nil, nil, &fakeFaucetReader{}, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/faucet/0xdead", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

func TestNetworkRefresh(t *testing.T) {
	refresher := &fakeRefresher{jobID: "job-1"}
	server := newTestServer(nil, nil, nil, nil, refresher)

	req := httptest.NewRequest("GET", "/api/network/8453/faucets/refresh", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "refresh started" {
		t.Errorf("Expected refresh started, got %v", body["status"])
	}
	if body["chain_id"] != float64(8453) {
		t.Errorf("Expected chain_id 8453, got %v", body["chain_id"])
	}
	if body["job_id"] != "job-1" {
		t.Errorf("Expected job-1, got %v", body["job_id"])
	}
	if refresher.gotChainID != 8453 {
		t.Errorf("Expected crawl scoped to chain 8453, got %d", refresher.gotChainID)
	}
}

func TestNetworkRefreshUnknownChain(t *testing.T) {
	server := newTestServer(nil, nil, nil, nil, &fakeRefresher{})

	req := httptest.NewRequest("GET", "/api/network/12345/faucets/refresh", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

func TestManualRefresh(t *testing.T) {
	memCache := stats.NewCache()
	memCache.Set(&models.DashboardSnapshot{LastUpdated: "2026-08-29T12:00:00Z"})
	refresher := &fakeRefresher{}
	server := newTestServer(nil, nil, memCache, nil, refresher)

	req := httptest.NewRequest("GET", "/api/refresh", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !refresher.ranAll {
		t.Error("Expected a synchronous pipeline run")
	}
	body := decodeBody(t, w)
	if body["status"] != "complete" {
		t.Errorf("Expected complete, got %v", body["status"])
	}
	if body["last_updated"] != "2026-08-29T12:00:00Z" {
		t.Errorf("Expected last_updated from memory cache, got %v", body["last_updated"])
	}
}

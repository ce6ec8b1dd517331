// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/faucet-analytics/internal/logging"
	"github.com/faucet-analytics/internal/models"
	"github.com/faucet-analytics/internal/stats"
	"github.com/faucet-analytics/internal/storage"
	"github.com/gorilla/mux"
)

// Dependency interfaces, kept minimal so handlers are testable with fakes.

// DashboardStore reads the persisted dashboard snapshot.
type DashboardStore interface {
	LoadSnapshot(ctx context.Context) (*models.DashboardSnapshot, error)
}

// SnapshotHotCache reads the Redis hot cache. A nil hot cache is a
// permanent miss.
type SnapshotHotCache interface {
	GetSnapshot(ctx context.Context) (*models.DashboardSnapshot, error)
}

// FaucetReader serves the faucet listing and detail queries.
type FaucetReader interface {
	List(ctx context.Context, filters *storage.FaucetFilters) ([]*models.FaucetMeta, int64, error)
	GetDetail(ctx context.Context, address string) (*models.FaucetDetail, error)
}

// Refresher triggers the refresh pipelines.
type Refresher interface {
	RunAll(ctx context.Context)
	EnqueueCrawl(ctx context.Context, chainID int64) string
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	config     *ServerConfig

	store     DashboardStore   // may be nil when Postgres is down at startup
	hotCache  SnapshotHotCache // may be nil when Redis is not configured
	memCache  *stats.Cache
	faucets   FaucetReader
	refresher Refresher
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestsPerSec  int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	store DashboardStore,
	hotCache SnapshotHotCache,
	memCache *stats.Cache,
	faucets FaucetReader,
	refresher Refresher,
) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		config:    config,
		store:     store,
		hotCache:  hotCache,
		memCache:  memCache,
		faucets:   faucets,
		refresher: refresher,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSec)

	// Middleware order matters
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/dashboard", s.handleDashboard).Methods("GET")
	api.HandleFunc("/faucets", s.handleListFaucets).Methods("GET")
	api.HandleFunc("/network/{chainId:[0-9]+}/faucets", s.handleNetworkFaucets).Methods("GET")
	api.HandleFunc("/network/{chainId:[0-9]+}/faucets/refresh", s.handleNetworkRefresh).Methods("GET")
	api.HandleFunc("/faucet/{address}", s.handleFaucetDetail).Methods("GET")
	api.HandleFunc("/refresh", s.handleManualRefresh).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "faucet-analytics",
	})
}

// Router exposes the configured router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.GetGlobalLogger().WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.GetGlobalLogger().Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/faucet-analytics/internal/chains"
	"github.com/faucet-analytics/internal/logging"
	"github.com/faucet-analytics/internal/models"
	"github.com/faucet-analytics/internal/storage"
	"github.com/gorilla/mux"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
)

// handleDashboard serves the dashboard snapshot. Read path: Redis hot cache,
// then Postgres, then the in-memory copy, then an empty snapshot so the
// frontend always receives a complete shape.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.hotCache != nil {
		if snapshot, err := s.hotCache.GetSnapshot(ctx); err == nil && snapshot != nil {
			respondJSON(w, http.StatusOK, snapshot)
			return
		}
	}

	if s.store != nil {
		snapshot, err := s.store.LoadSnapshot(ctx)
		if err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Dashboard store read failed, falling back to memory")
		} else if snapshot != nil {
			respondJSON(w, http.StatusOK, snapshot)
			return
		}
	}

	if snapshot := s.memCache.Get(); snapshot != nil {
		respondJSON(w, http.StatusOK, snapshot)
		return
	}

	respondJSON(w, http.StatusOK, models.EmptySnapshot())
}

// handleListFaucets serves the cross-chain faucet listing.
func (s *Server) handleListFaucets(w http.ResponseWriter, r *http.Request) {
	if s.faucets == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Database not available")
		return
	}

	filters, page, perPage := parseFaucetFilters(r)

	faucets, total, err := s.faucets.List(r.Context(), filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list faucets")
		return
	}
	if faucets == nil {
		faucets = []*models.FaucetMeta{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":    total,
		"page":     page,
		"per_page": perPage,
		"faucets":  faucets,
	})
}

// handleNetworkFaucets serves the per-chain faucet listing. Unknown chain ids
// are a 404.
func (s *Server) handleNetworkFaucets(w http.ResponseWriter, r *http.Request) {
	if s.faucets == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Database not available")
		return
	}

	chainID, network, ok := parseChainID(r)
	if !ok {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Chain "+mux.Vars(r)["chainId"]+" not supported")
		return
	}

	filters, page, perPage := parseFaucetFilters(r)
	filters.ChainID = &chainID

	faucets, total, err := s.faucets.List(r.Context(), filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to list faucets")
		return
	}
	if faucets == nil {
		faucets = []*models.FaucetMeta{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"chain_id":     chainID,
		"network_name": network.Name,
		"total":        total,
		"page":         page,
		"per_page":     perPage,
		"faucets":      faucets,
	})
}

// handleFaucetDetail serves one faucet's full state.
func (s *Server) handleFaucetDetail(w http.ResponseWriter, r *http.Request) {
	if s.faucets == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Database not available")
		return
	}

	address := mux.Vars(r)["address"]

	detail, err := s.faucets.GetDetail(r.Context(), address)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to get faucet detail")
		return
	}
	if detail == nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Faucet "+address+" not found")
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// handleNetworkRefresh starts a background faucet crawl scoped to the
// requested chain.
func (s *Server) handleNetworkRefresh(w http.ResponseWriter, r *http.Request) {
	chainID, _, ok := parseChainID(r)
	if !ok {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Chain "+mux.Vars(r)["chainId"]+" not supported")
		return
	}

	jobID := s.refresher.EnqueueCrawl(r.Context(), chainID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "refresh started",
		"chain_id": chainID,
		"job_id":   jobID,
	})
}

// handleManualRefresh runs both pipelines synchronously so the store is
// fully updated before the response returns.
func (s *Server) handleManualRefresh(w http.ResponseWriter, r *http.Request) {
	s.refresher.RunAll(r.Context())

	lastUpdated := ""
	if snapshot := s.memCache.Get(); snapshot != nil {
		lastUpdated = snapshot.LastUpdated
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "complete",
		"last_updated": lastUpdated,
	})
}

// parseChainID resolves the chainId path variable against the registry.
func parseChainID(r *http.Request) (int64, chains.Network, bool) {
	raw := mux.Vars(r)["chainId"]
	chainID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, chains.Network{}, false
	}
	network, ok := chains.ByChainID(chainID)
	if !ok {
		return 0, chains.Network{}, false
	}
	return chainID, network, true
}

// parseFaucetFilters reads the shared listing query parameters.
func parseFaucetFilters(r *http.Request) (*storage.FaucetFilters, int, int) {
	q := r.URL.Query()

	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 1 {
		page = v
	}
	perPage := defaultPerPage
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v >= 1 {
		perPage = v
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	activeOnly := false
	if v, err := strconv.ParseBool(q.Get("active_only")); err == nil {
		activeOnly = v
	}

	return &storage.FaucetFilters{
		ActiveOnly:  activeOnly,
		FactoryType: strings.TrimSpace(q.Get("factory_type")),
		Search:      strings.TrimSpace(q.Get("search")),
		Page:        page,
		PerPage:     perPage,
	}, page, perPage
}

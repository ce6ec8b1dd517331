// Package backend is the client for the external FaucetDrop backend service,
// which owns the deleted-faucet list and the off-chain faucet metadata. Both
// lookups degrade silently: any failure yields an empty set or empty fields
// so pipelines never depend on the service being up.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/faucet-analytics/internal/logging"
	"github.com/faucet-analytics/internal/models"
)

// Client talks to the FaucetDrop backend over HTTP.
type Client struct {
	baseURL         string
	deletedTimeout  time.Duration
	metadataTimeout time.Duration
	httpClient      *http.Client
}

// NewClient creates a backend client. Zero timeouts default to 5s for the
// deleted list and 4s for metadata lookups.
func NewClient(baseURL string, deletedTimeout, metadataTimeout time.Duration) *Client {
	if deletedTimeout == 0 {
		deletedTimeout = 5 * time.Second
	}
	if metadataTimeout == 0 {
		metadataTimeout = 4 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		deletedTimeout:  deletedTimeout,
		metadataTimeout: metadataTimeout,
		httpClient:      &http.Client{},
	}
}

type deletedResponse struct {
	DeletedAddresses []string `json:"deletedAddresses"`
}

type metadataResponse struct {
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// DeletedFaucets fetches the authoritative deleted-address set, lowercased.
// Any failure (network error, non-2xx status, malformed body) yields an
// empty set so callers degrade to "nothing is deleted".
func (c *Client) DeletedFaucets(ctx context.Context) map[string]struct{} {
	deleted := make(map[string]struct{})

	reqCtx, cancel := context.WithTimeout(ctx, c.deletedTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/deleted-faucets", nil)
	if err != nil {
		return deleted
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Debug("deleted-faucets fetch failed")
		return deleted
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return deleted
	}

	var body deletedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return deleted
	}
	for _, addr := range body.DeletedAddresses {
		deleted[strings.ToLower(addr)] = struct{}{}
	}
	return deleted
}

// Metadata fetches the off-chain image URL and description for one faucet.
// ok is false on any failure; missing fields default to empty strings.
func (c *Client) Metadata(ctx context.Context, faucetAddress string) (imageURL, description string, ok bool) {
	reqCtx, cancel := context.WithTimeout(ctx, c.metadataTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/faucet-metadata/%s", c.baseURL, strings.ToLower(faucetAddress))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", false
	}

	var body metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", false
	}
	return body.ImageURL, body.Description, true
}

// Enrich attaches metadata to every detail row concurrently, one lookup per
// row with no fan-out bound. A row whose lookup fails keeps its existing
// (typically empty) image and description; a single row's failure never
// affects the others.
func (c *Client) Enrich(ctx context.Context, rows []*models.FaucetDetail) {
	var wg sync.WaitGroup
	for _, row := range rows {
		wg.Add(1)
		go func(row *models.FaucetDetail) {
			defer wg.Done()
			imageURL, description, ok := c.Metadata(ctx, row.FaucetAddress)
			if ok {
				row.ImageURL = imageURL
				row.Description = description
			}
		}(row)
	}
	wg.Wait()
}

// Package connector resolves reachable RPC endpoints for the supported
// networks and provides address normalization helpers shared by every
// pipeline stage.
package connector

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/faucet-analytics/internal/logging"
)

// ErrAllEndpointsUnreachable is returned when no candidate RPC endpoint for
// a network answers the liveness check. The caller skips the whole network
// for that run; there are no mid-run retries.
var ErrAllEndpointsUnreachable = errors.New("all rpc endpoints unreachable")

// Client is a resolved connection to one network endpoint. It embeds the
// underlying ethclient so it satisfies the probe.Caller interface directly.
type Client struct {
	*ethclient.Client
	url string
}

// URL returns the endpoint this client was resolved against.
func (c *Client) URL() string {
	return c.url
}

// Resolver dials candidate endpoint lists with a per-attempt timeout.
type Resolver struct {
	dialTimeout time.Duration
}

// NewResolver creates a resolver. A zero timeout defaults to 10 seconds.
func NewResolver(dialTimeout time.Duration) *Resolver {
	if dialTimeout == 0 {
		dialTimeout = 10 * time.Second
	}
	return &Resolver{dialTimeout: dialTimeout}
}

// Resolve tries each candidate URL in order and returns the first client
// that answers a chain-id liveness check.
func (r *Resolver) Resolve(ctx context.Context, urls []string) (*Client, error) {
	logger := logging.FromContext(ctx)

	for _, url := range urls {
		attemptCtx, cancel := context.WithTimeout(ctx, r.dialTimeout)
		client, err := ethclient.DialContext(attemptCtx, url)
		if err != nil {
			cancel()
			logger.WithFields(map[string]interface{}{"url": url, "error": err.Error()}).Debug("RPC dial failed")
			continue
		}
		if _, err := client.ChainID(attemptCtx); err != nil {
			cancel()
			client.Close()
			logger.WithFields(map[string]interface{}{"url": url, "error": err.Error()}).Debug("RPC liveness check failed")
			continue
		}
		cancel()
		return &Client{Client: client, url: url}, nil
	}

	return nil, ErrAllEndpointsUnreachable
}

// SafeChecksum converts a raw address string to its canonical checksummed
// form. The boolean is false for malformed input; callers treat that as
// "skip this entry", never as an error.
func SafeChecksum(addr string) (common.Address, bool) {
	if !common.IsHexAddress(addr) {
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}

// IsPlaceholder reports whether an address is an empty or zero placeholder:
// with the 0x prefix and separator characters stripped, nothing but the
// character '0' remains (or nothing at all).
func IsPlaceholder(addr string) bool {
	stripped := strings.ReplaceAll(addr, "0x", "")
	stripped = strings.ReplaceAll(stripped, "0X", "")
	for _, sep := range []string{".", "-", "_", " "} {
		stripped = strings.ReplaceAll(stripped, sep, "")
	}
	if stripped == "" {
		return true
	}
	return strings.Trim(stripped, "0") == ""
}

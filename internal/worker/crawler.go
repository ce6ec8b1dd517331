package worker

import (
	"context"
	"strings"

	"github.com/faucet-analytics/internal/chains"
	"github.com/faucet-analytics/internal/connector"
	"github.com/faucet-analytics/internal/detail"
	"github.com/faucet-analytics/internal/logging"
	"github.com/faucet-analytics/internal/models"
	"github.com/faucet-analytics/internal/probe"
	"github.com/faucet-analytics/internal/stats"
)

// FaucetStore is the slice of the faucet repository the crawler writes to.
type FaucetStore interface {
	UpsertFaucets(ctx context.Context, metas []*models.FaucetMeta, details []*models.FaucetDetail) error
	EvictDeleted(ctx context.Context, addresses []string) error
}

// MetadataBackend combines the two external-backend lookups the crawler
// depends on. *backend.Client satisfies it.
type MetadataBackend interface {
	DeletedFaucets(ctx context.Context) map[string]struct{}
	Enrich(ctx context.Context, rows []*models.FaucetDetail)
}

// Crawler walks every configured factory, fetches full state for each
// deployed non-deleted faucet, enriches it with off-chain metadata and
// upserts the result. One network's failure never stops the others.
type Crawler struct {
	networks []chains.Network
	rpcURLs  func(chains.Network) []string
	resolver stats.EndpointResolver
	backend  MetadataBackend
	store    FaucetStore
}

// NewCrawler creates a faucet crawler over the given networks.
func NewCrawler(networks []chains.Network, rpcURLs func(chains.Network) []string, resolver stats.EndpointResolver, metadataBackend MetadataBackend, store FaucetStore) *Crawler {
	return &Crawler{
		networks: networks,
		rpcURLs:  rpcURLs,
		resolver: resolver,
		backend:  metadataBackend,
		store:    store,
	}
}

// Run executes one full crawl over every network, then evicts rows for
// faucets the external backend reports as deleted.
func (c *Crawler) Run(ctx context.Context) {
	c.run(ctx, c.networks)
}

// RunChain crawls only the networks matching the given chain id. Unknown
// chain ids crawl nothing; the API validates them before enqueueing.
func (c *Crawler) RunChain(ctx context.Context, chainID int64) {
	var scoped []chains.Network
	for _, network := range c.networks {
		if network.ChainID == chainID {
			scoped = append(scoped, network)
		}
	}
	c.run(ctx, scoped)
}

func (c *Crawler) run(ctx context.Context, networks []chains.Network) {
	logger := logging.FromContext(ctx)

	deleted := c.backend.DeletedFaucets(ctx)

	for _, network := range networks {
		if len(network.Factories) == 0 {
			continue
		}
		netLogger := logger.WithField("network", network.Name)

		client, err := c.resolver.Resolve(ctx, c.rpcURLs(network))
		if err != nil {
			netLogger.WithError(err).Warn("All RPC endpoints failed, skipping network crawl")
			continue
		}

		var (
			metas   []*models.FaucetMeta
			details []*models.FaucetDetail
		)

		for _, factory := range network.Factories {
			if connector.IsPlaceholder(factory.Address) {
				continue
			}
			factoryAddr, ok := connector.SafeChecksum(factory.Address)
			if !ok {
				continue
			}

			faucets := probe.ListDeployed(ctx, client, factoryAddr)
			netLogger.WithFields(map[string]interface{}{
				"factory": strings.ToLower(factoryAddr.Hex()),
				"kind":    string(factory.Kind),
				"faucets": len(faucets),
			}).Info("Listed deployed faucets")

			for _, faucet := range faucets {
				if _, del := deleted[strings.ToLower(faucet.Hex())]; del {
					continue
				}
				row := detail.Fetch(ctx, client, faucet, factory.Address, factory.Kind, network.ChainID)
				if row == nil {
					continue
				}
				details = append(details, row)
				metas = append(metas, models.MetaFromDetail(row))
			}
		}

		if len(details) == 0 {
			continue
		}

		c.backend.Enrich(ctx, details)

		if c.store == nil {
			netLogger.WithField("faucets", len(details)).Info("Crawl finished without persistence")
			continue
		}
		if err := c.store.UpsertFaucets(ctx, metas, details); err != nil {
			netLogger.WithError(err).Error("Failed to upsert crawled faucets")
			continue
		}
		netLogger.WithField("faucets", len(details)).Info("Saved crawled faucets")
	}

	if c.store != nil && len(deleted) > 0 {
		addrs := make([]string, 0, len(deleted))
		for addr := range deleted {
			addrs = append(addrs, addr)
		}
		if err := c.store.EvictDeleted(ctx, addrs); err != nil {
			logger.WithError(err).Warn("Eviction of deleted faucets incomplete")
		}
	}
}

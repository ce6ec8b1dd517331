package worker

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/faucet-analytics/internal/chains"
	"github.com/faucet-analytics/internal/models"
	"github.com/faucet-analytics/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingABIJSON = `[
  {"inputs": [], "name": "getAllFaucets", "outputs": [{"internalType": "address[]", "name": "", "type": "address[]"}], "stateMutability": "view", "type": "function"}
]`

var listingABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(listingABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// scriptedCaller answers the factory listing call and reverts everything
// else, which drives every faucet detail field to its default.
type scriptedCaller struct {
	responses map[string][]byte
}

func (c *scriptedCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	key := strings.ToLower(call.To.Hex()) + "|" + hex.EncodeToString(call.Data[:4])
	if resp, ok := c.responses[key]; ok {
		return resp, nil
	}
	return nil, errors.New("execution reverted")
}

func newListingCaller(t *testing.T, factory common.Address, faucets []common.Address) *scriptedCaller {
	t.Helper()
	out, err := listingABI.Methods["getAllFaucets"].Outputs.Pack(faucets)
	require.NoError(t, err)
	key := strings.ToLower(factory.Hex()) + "|" + hex.EncodeToString(listingABI.Methods["getAllFaucets"].ID)
	return &scriptedCaller{responses: map[string][]byte{key: out}}
}

type fakeResolver struct {
	callers map[string]probe.Caller

	mu       sync.Mutex
	resolved []string
}

func (r *fakeResolver) Resolve(ctx context.Context, urls []string) (probe.Caller, error) {
	if len(urls) > 0 {
		r.mu.Lock()
		r.resolved = append(r.resolved, urls[0])
		r.mu.Unlock()
		if caller, ok := r.callers[urls[0]]; ok {
			return caller, nil
		}
	}
	return nil, errors.New("all rpc endpoints unreachable")
}

func (r *fakeResolver) resolvedURLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.resolved...)
}

type fakeBackend struct {
	deleted  map[string]struct{}
	enriched int
}

func (b *fakeBackend) DeletedFaucets(ctx context.Context) map[string]struct{} {
	if b.deleted == nil {
		return map[string]struct{}{}
	}
	return b.deleted
}

func (b *fakeBackend) Enrich(ctx context.Context, rows []*models.FaucetDetail) {
	b.enriched += len(rows)
	for _, row := range rows {
		row.Description = "enriched"
	}
}

type fakeFaucetStore struct {
	metas     []*models.FaucetMeta
	details   []*models.FaucetDetail
	evicted   []string
	upsertErr error
}

func (s *fakeFaucetStore) UpsertFaucets(ctx context.Context, metas []*models.FaucetMeta, details []*models.FaucetDetail) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.metas = append(s.metas, metas...)
	s.details = append(s.details, details...)
	return nil
}

func (s *fakeFaucetStore) EvictDeleted(ctx context.Context, addresses []string) error {
	s.evicted = append(s.evicted, addresses...)
	return nil
}

var (
	crawlFactory = common.HexToAddress("0xFFFF000000000000000000000000000000000001")
	crawlFaucetA = common.HexToAddress("0xAAAA000000000000000000000000000000000001")
	crawlFaucetB = common.HexToAddress("0xAAAA000000000000000000000000000000000002")
)

func crawlNetwork() chains.Network {
	return chains.Network{
		ChainID: 8453,
		Name:    "Base",
		RPCURLs: []string{"test://base"},
		Factories: []chains.Factory{
			{Address: crawlFactory.Hex(), Kind: chains.KindDropcode},
		},
		NativeSymbol: "ETH",
		Color:        "#0052FF",
	}
}

func registryURLs(network chains.Network) []string {
	return network.RPCURLs
}

func TestCrawlerRun(t *testing.T) {
	caller := newListingCaller(t, crawlFactory, []common.Address{crawlFaucetA, crawlFaucetB})
	resolver := &fakeResolver{callers: map[string]probe.Caller{"test://base": caller}}
	backend := &fakeBackend{deleted: map[string]struct{}{strings.ToLower(crawlFaucetB.Hex()): {}}}
	store := &fakeFaucetStore{}

	crawler := NewCrawler([]chains.Network{crawlNetwork()}, registryURLs, resolver, backend, store)
	crawler.Run(context.Background())

	// The deleted faucet is skipped before its state is even fetched.
	require.Len(t, store.metas, 1)
	assert.Equal(t, strings.ToLower(crawlFaucetA.Hex()), store.metas[0].FaucetAddress)
	assert.Equal(t, int64(8453), store.metas[0].ChainID)
	assert.Equal(t, "Base", store.metas[0].NetworkName)

	require.Len(t, store.details, 1)
	assert.Equal(t, "enriched", store.details[0].Description)

	assert.Equal(t, []string{strings.ToLower(crawlFaucetB.Hex())}, store.evicted)
}

func TestCrawlerSkipsUnreachableNetwork(t *testing.T) {
	resolver := &fakeResolver{callers: map[string]probe.Caller{}}
	backend := &fakeBackend{deleted: map[string]struct{}{"0xdead": {}}}
	store := &fakeFaucetStore{}

	crawler := NewCrawler([]chains.Network{crawlNetwork()}, registryURLs, resolver, backend, store)
	crawler.Run(context.Background())

	assert.Empty(t, store.metas)
	// Eviction of deleted rows still runs.
	assert.Equal(t, []string{"0xdead"}, store.evicted)
}

func TestCrawlerRunChainScopesToOneNetwork(t *testing.T) {
	celo := chains.Network{
		ChainID: 42220,
		Name:    "Celo",
		RPCURLs: []string{"test://celo"},
		Factories: []chains.Factory{
			{Address: crawlFactory.Hex(), Kind: chains.KindDropcode},
		},
	}
	resolver := &fakeResolver{callers: map[string]probe.Caller{}}

	crawler := NewCrawler([]chains.Network{crawlNetwork(), celo}, registryURLs, resolver, &fakeBackend{}, &fakeFaucetStore{})
	crawler.RunChain(context.Background(), 8453)

	assert.Equal(t, []string{"test://base"}, resolver.resolvedURLs())
}

func TestCrawlerRunChainUnknownChainCrawlsNothing(t *testing.T) {
	resolver := &fakeResolver{callers: map[string]probe.Caller{}}

	crawler := NewCrawler([]chains.Network{crawlNetwork()}, registryURLs, resolver, &fakeBackend{}, &fakeFaucetStore{})
	crawler.RunChain(context.Background(), 999)

	assert.Empty(t, resolver.resolvedURLs())
}

func TestCrawlerSkipsNetworkWithoutFactories(t *testing.T) {
	network := crawlNetwork()
	network.Factories = nil
	resolver := &fakeResolver{callers: map[string]probe.Caller{}}

	crawler := NewCrawler([]chains.Network{network}, registryURLs, resolver, &fakeBackend{}, &fakeFaucetStore{})
	crawler.Run(context.Background())

	assert.Empty(t, resolver.resolvedURLs())
}

func TestCrawlerWithoutStore(t *testing.T) {
	caller := newListingCaller(t, crawlFactory, []common.Address{crawlFaucetA})
	resolver := &fakeResolver{callers: map[string]probe.Caller{"test://base": caller}}
	backend := &fakeBackend{deleted: map[string]struct{}{"0xdead": {}}}

	crawler := NewCrawler([]chains.Network{crawlNetwork()}, registryURLs, resolver, backend, nil)
	crawler.Run(context.Background())

	// Enrichment still happens; persistence and eviction are skipped.
	assert.Equal(t, 1, backend.enriched)
}

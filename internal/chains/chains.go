// Package chains holds the static registry of supported EVM networks and
// their deployed factory contracts. The registry is immutable process-wide
// configuration; RPC URLs may be overridden per chain via the environment
// (see internal/config).
package chains

// FactoryKind labels how a factory was deployed. The label is metadata only:
// actual behavior is determined by which interface the address answers to at
// call time, not by the declared kind.
type FactoryKind string

const (
	KindDropcode FactoryKind = "dropcode"
	KindDroplist FactoryKind = "droplist"
	KindCustom   FactoryKind = "custom"
)

// Factory is one configured factory address with its declared kind.
type Factory struct {
	Address string
	Kind    FactoryKind
}

// Network is the static configuration for one supported chain.
type Network struct {
	ChainID      int64
	Name         string
	RPCURLs      []string
	Factories    []Factory
	NativeSymbol string
	Color        string
}

// DefaultColor is used for networks without a configured chart color.
const DefaultColor = "#888888"

// registry preserves configuration order; pipelines process networks in this
// order with no further guarantee.
var registry = []Network{
	{
		ChainID: 42220,
		Name:    "Celo",
		RPCURLs: []string{
			"https://forno.celo.org",
			"https://celo-mainnet.g.alchemy.com/v2/demo",
			"https://rpc.ankr.com/celo",
		},
		Factories: []Factory{
			{Address: "0x17cFed7fEce35a9A71D60Fbb5CA52237103A21FB", Kind: KindDropcode},
			{Address: "0xB8De8f37B263324C44FD4874a7FB7A0C59D8C58E", Kind: KindCustom},
			{Address: "0xc26c4Ea50fd3b63B6564A5963fdE4a3A474d4024", Kind: KindCustom},
			{Address: "0x9D6f441b31FBa22700bb3217229eb89b13FB49de", Kind: KindDropcode},
			{Address: "0xE3Ac30fa32E727386a147Fe08b4899Da4115202f", Kind: KindDropcode},
			{Address: "0xF8707b53a2bEc818E96471DDdb34a09F28E0dE6D", Kind: KindDroplist},
			{Address: "0x8D1306b3970278b3AB64D1CE75377BDdf00f61da", Kind: KindDropcode},
			{Address: "0x8cA5975Ded3B2f93E188c05dD6eb16d89b14aeA5", Kind: KindCustom},
			{Address: "0xc9c89f695C7fa9D9AbA3B297C9b0d86C5A74f534", Kind: KindDroplist},
		},
		NativeSymbol: "CELO",
		Color:        "#35D07F",
	},
	{
		ChainID: 1135,
		Name:    "Lisk",
		RPCURLs: []string{
			"https://rpc.api.lisk.com",
			"https://lisk.drpc.org",
			"https://1rpc.io/lisk",
		},
		Factories: []Factory{
			{Address: "0x96E9911df17e94F7048cCbF7eccc8D9b5eDeCb5C", Kind: KindCustom},
			{Address: "0x4F5Cf906b9b2Bf4245dba9F7d2d7F086a2a441C2", Kind: KindCustom},
			{Address: "0x21E855A5f0E6cF8d0CfE8780eb18e818950dafb7", Kind: KindCustom},
			{Address: "0xd6Cb67dF496fF739c4eBA2448C1B0B44F4Cf0a7C", Kind: KindDropcode},
			{Address: "0x0837EACf85472891F350cba74937cB02D90E60A4", Kind: KindDroplist},
		},
		NativeSymbol: "ETH",
		Color:        "#0D4477",
	},
	{
		ChainID: 42161,
		Name:    "Arbitrum",
		RPCURLs: []string{
			"https://arb1.arbitrum.io/rpc",
			"https://arbitrum-one.publicnode.com",
			"https://rpc.ankr.com/arbitrum",
		},
		Factories: []Factory{
			{Address: "0x0a5C19B5c0f4B9260f0F8966d26bC05AAea2009C", Kind: KindDropcode},
			{Address: "0x42355492298A89eb1EF7FB2fFE4555D979f1Eee9", Kind: KindDroplist},
			{Address: "0x9D6f441b31FBa22700bb3217229eb89b13FB49de", Kind: KindCustom},
		},
		NativeSymbol: "ETH",
		Color:        "#28A0F0",
	},
	{
		ChainID: 8453,
		Name:    "Base",
		RPCURLs: []string{
			"https://base.publicnode.com",
			"https://mainnet.base.org",
			"https://rpc.ankr.com/base",
		},
		Factories: []Factory{
			{Address: "0x945431302922b69D500671201CEE62900624C6d5", Kind: KindDropcode},
			{Address: "0xda191fb5Ca50fC95226f7FC91C792927FC968CA9", Kind: KindDroplist},
			{Address: "0x587b840140321DD8002111282748acAdaa8fA206", Kind: KindCustom},
		},
		NativeSymbol: "ETH",
		Color:        "#0052FF",
	},
	{
		ChainID: 56,
		Name:    "BNB",
		RPCURLs: []string{
			"https://bsc-dataseed.binance.org",
			"https://bsc-rpc.publicnode.com",
			"https://rpc.ankr.com/bsc",
		},
		Factories: []Factory{
			{Address: "0xFE7DB2549d0c03A4E3557e77c8d798585dD80Cc1", Kind: KindDropcode},
			{Address: "0x0F779235237Fc136c6EE9dD9bC2545404CDeAB36", Kind: KindDroplist},
			{Address: "0x4B8c7A12660C4847c65662a953F517198fBFc0ED", Kind: KindCustom},
		},
		NativeSymbol: "BNB",
		Color:        "#F3BA2F",
	},
	{
		ChainID: 43114,
		Name:    "Avalanche",
		RPCURLs: []string{
			"https://api.avax.network/ext/bc/C/rpc",
			"https://avalanche-c-chain-rpc.publicnode.com",
		},
		Factories:    []Factory{},
		NativeSymbol: "AVAX",
		Color:        "#E84142",
	},
}

// All returns the supported networks in configuration order. Callers must
// not mutate the returned slice.
func All() []Network {
	return registry
}

// ByChainID looks up a network by its chain identifier.
func ByChainID(chainID int64) (Network, bool) {
	for _, n := range registry {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return Network{}, false
}

// NameByChainID returns the display name for a chain id, or "" when the
// chain is not configured.
func NameByChainID(chainID int64) string {
	if n, ok := ByChainID(chainID); ok {
		return n.Name
	}
	return ""
}

// ChainIDByName returns the chain id for a network display name, or 0.
func ChainIDByName(name string) int64 {
	for _, n := range registry {
		if n.Name == name {
			return n.ChainID
		}
	}
	return 0
}

// ColorByName returns the chart color for a network display name, falling
// back to DefaultColor.
func ColorByName(name string) string {
	for _, n := range registry {
		if n.Name == name {
			return n.Color
		}
	}
	return DefaultColor
}

// NativeSymbol returns the native-currency symbol for a chain id, defaulting
// to "ETH" for unknown chains.
func NativeSymbol(chainID int64) string {
	if n, ok := ByChainID(chainID); ok {
		return n.NativeSymbol
	}
	return "ETH"
}

// Package probe classifies on-chain contracts by duck-typed interface
// probing. There is no registry declaring which shape an address implements,
// so classification attempts a fixed priority order of typed probes (factory,
// quest, check-in) and the first successful probe wins. A revert or ABI
// mismatch is expected and never an error condition for the caller.
package probe

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller is the minimal RPC surface a probe needs. *ethclient.Client (and
// therefore *connector.Client) satisfies it.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Kind is the detected interface shape of a contract.
type Kind string

const (
	KindFactory Kind = "factory"
	KindQuest   Kind = "quest"
	KindCheckin Kind = "checkin"
	KindUnknown Kind = "unknown"
)

// FactoryTransaction mirrors the on-chain transaction log tuple shared by
// the factory and quest interfaces.
type FactoryTransaction struct {
	FaucetAddress   common.Address
	TransactionType string
	Initiator       common.Address
	Amount          *big.Int
	IsEther         bool
	Timestamp       *big.Int
}

// IsClaim reports whether the transaction-type label marks a claim.
func (t *FactoryTransaction) IsClaim() bool {
	return strings.Contains(strings.ToLower(t.TransactionType), "claim")
}

// Classification is the result of probing one address.
type Classification struct {
	Kind         Kind
	Transactions []FactoryTransaction // factory/quest only
	Faucets      []common.Address     // factory/quest only
	CheckinTxs   int64                // checkin only
	Participants []string             // checkin only, lowercased, empties dropped
}

var errEmptyResult = errors.New("empty call result")

// Classify probes an address against the known interface shapes in priority
// order: factory, quest, check-in. Each probe swallows its own failure.
func Classify(ctx context.Context, caller Caller, addr common.Address) Classification {
	if txs, faucets, err := listingProbe(ctx, caller, factoryABI, addr, "getAllFaucets"); err == nil {
		return Classification{Kind: KindFactory, Transactions: txs, Faucets: faucets}
	}
	if txs, quests, err := listingProbe(ctx, caller, questABI, addr, "getAllQuests"); err == nil {
		return Classification{Kind: KindQuest, Transactions: txs, Faucets: quests}
	}
	if count, participants, err := checkinProbe(ctx, caller, addr); err == nil {
		return Classification{Kind: KindCheckin, CheckinTxs: count, Participants: participants}
	}
	return Classification{Kind: KindUnknown}
}

// ListDeployed probes a minimal "get all faucets" call and falls back to
// "get all quests" under the same fail-silently discipline. An empty list is
// returned when both fail.
func ListDeployed(ctx context.Context, caller Caller, factory common.Address) []common.Address {
	if addrs, err := callAddressList(ctx, caller, factoryABI, factory, "getAllFaucets"); err == nil {
		return addrs
	}
	if addrs, err := callAddressList(ctx, caller, questABI, factory, "getAllQuests"); err == nil {
		return addrs
	}
	return nil
}

// TryCheckin probes the check-in interface directly, returning zero values
// on any failure.
func TryCheckin(ctx context.Context, caller Caller, addr common.Address) (int64, []string) {
	count, participants, err := checkinProbe(ctx, caller, addr)
	if err != nil {
		return 0, nil
	}
	return count, participants
}

// listingProbe performs the two calls shared by the factory and quest
// shapes: the transaction log plus the deployed-address listing.
func listingProbe(ctx context.Context, caller Caller, parsed abi.ABI, addr common.Address, listMethod string) ([]FactoryTransaction, []common.Address, error) {
	out, err := Call(ctx, caller, parsed, addr, "getAllTransactions")
	if err != nil {
		return nil, nil, err
	}
	txs := *abi.ConvertType(out[0], new([]FactoryTransaction)).(*[]FactoryTransaction)

	faucets, err := callAddressList(ctx, caller, parsed, addr, listMethod)
	if err != nil {
		return nil, nil, err
	}
	return txs, faucets, nil
}

func checkinProbe(ctx context.Context, caller Caller, addr common.Address) (int64, []string, error) {
	out, err := Call(ctx, caller, checkinABI, addr, "getTotalTransactions")
	if err != nil {
		return 0, nil, err
	}
	count := abi.ConvertType(out[0], new(big.Int)).(*big.Int)

	raw, err := callAddressList(ctx, caller, checkinABI, addr, "getAllParticipants")
	if err != nil {
		return 0, nil, err
	}
	participants := make([]string, 0, len(raw))
	for _, p := range raw {
		if p == (common.Address{}) {
			continue
		}
		participants = append(participants, strings.ToLower(p.Hex()))
	}
	return count.Int64(), participants, nil
}

func callAddressList(ctx context.Context, caller Caller, parsed abi.ABI, addr common.Address, method string) ([]common.Address, error) {
	out, err := Call(ctx, caller, parsed, addr, method)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address), nil
}

// Call packs, executes and unpacks a single view call. An empty response is
// treated as a failure: eth_call against a non-contract address returns no
// data rather than an error. Exported for the detail fetcher, which reads
// individual faucet fields through the same path.
func Call(ctx context.Context, caller Caller, parsed abi.ABI, addr common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	raw, err := caller.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errEmptyResult
	}
	return parsed.Unpack(method, raw)
}

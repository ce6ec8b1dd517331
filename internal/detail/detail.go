// Package detail reads the full on-chain state of a classified faucet
// contract. Every field read is individually fault-tolerant: a failed
// accessor yields a documented default instead of aborting the fetch. Only
// the deleted-flag check is fatal.
package detail

import (
	"context"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/faucet-analytics/internal/chains"
	"github.com/faucet-analytics/internal/models"
	"github.com/faucet-analytics/internal/probe"
)

var zeroAddress = common.Address{}

// Fetch reads the complete state of one faucet. It returns nil (not an
// error) when the faucet's on-chain deleted flag is true; callers skip nil
// entries.
func Fetch(ctx context.Context, caller probe.Caller, faucet common.Address, factoryAddress string, kind chains.FactoryKind, chainID int64) *models.FaucetDetail {
	faucetABI := probe.FaucetABI()

	if callBool(ctx, caller, faucetABI, faucet, "deleted", false) {
		return nil
	}

	name := callString(ctx, caller, faucetABI, faucet, "name", "")
	if strings.TrimSpace(name) == "" {
		name = placeholderName(faucet)
	}

	owner, ownerOK := callAddress(ctx, caller, faucetABI, faucet, "owner")
	token, _ := callAddress(ctx, caller, faucetABI, faucet, "token")
	claimAmount := callUint(ctx, caller, faucetABI, faucet, "claimAmount")
	startTime := callUint(ctx, caller, faucetABI, faucet, "startTime")
	endTime := callUint(ctx, caller, faucetABI, faucet, "endTime")
	isClaimActive := callBool(ctx, caller, faucetABI, faucet, "isClaimActive", false)
	isPaused := callBool(ctx, caller, faucetABI, faucet, "paused", false)
	useBackend := callBool(ctx, caller, faucetABI, faucet, "useBackend", false)

	balance, isEther := fetchBalance(ctx, caller, faucetABI, faucet)

	tokenSymbol := "TOKEN"
	if isEther {
		tokenSymbol = chains.NativeSymbol(chainID)
	}
	tokenDecimals := 18
	if !isEther && token != zeroAddress {
		erc20 := probe.ERC20ABI()
		tokenSymbol = callString(ctx, caller, erc20, token, "symbol", tokenSymbol)
		tokenDecimals = callDecimals(ctx, caller, erc20, token)
	}

	networkName := chains.NameByChainID(chainID)
	if networkName == "" {
		networkName = strconv.FormatInt(chainID, 10)
	}

	// A successful read is stored even when the owner is the zero address;
	// only a failed read leaves the field empty.
	ownerHex := ""
	if ownerOK {
		ownerHex = strings.ToLower(owner.Hex())
	}

	return &models.FaucetDetail{
		FaucetAddress:  strings.ToLower(faucet.Hex()),
		ChainID:        chainID,
		NetworkName:    networkName,
		FactoryAddress: strings.ToLower(factoryAddress),
		FactoryType:    string(kind),
		FaucetName:     name,
		TokenAddress:   strings.ToLower(token.Hex()),
		TokenSymbol:    tokenSymbol,
		TokenDecimals:  tokenDecimals,
		IsEther:        isEther,
		Balance:        balance,
		ClaimAmount:    claimAmount.String(),
		StartTime:      startTime.Int64(),
		EndTime:        endTime.Int64(),
		IsClaimActive:  isClaimActive,
		IsPaused:       isPaused,
		OwnerAddress:   ownerHex,
		UseBackend:     useBackend,
		Slug:           Slugify(name, faucet.Hex()),
		ImageURL:       "",
		Description:    "",
		UpdatedAt:      time.Now().UTC(),
	}
}

// FetchName resolves a faucet's display name, falling back to a truncated
// address placeholder when the read fails or the name is blank.
func FetchName(ctx context.Context, caller probe.Caller, faucet common.Address) string {
	name := callString(ctx, caller, probe.FaucetABI(), faucet, "name", "")
	if strings.TrimSpace(name) == "" {
		return placeholderName(faucet)
	}
	return name
}

// placeholderName builds "Faucet 0xAbCd...1234" from the checksummed form.
func placeholderName(faucet common.Address) string {
	hex := faucet.Hex()
	return "Faucet " + hex[:6] + "..." + hex[len(hex)-4:]
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the stable identifier for a faucet: the lowercased name
// with every run of non-alphanumeric characters collapsed to a single
// hyphen, trimmed, with the last 4 lowercase hex characters of the address
// appended. A name that normalizes to nothing yields just the suffix.
func Slugify(name, address string) string {
	namePart := nonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	namePart = strings.Trim(namePart, "-")

	lower := strings.ToLower(address)
	suffix := lower
	if len(lower) > 4 {
		suffix = lower[len(lower)-4:]
	}

	if namePart == "" {
		return suffix
	}
	return namePart + "-" + suffix
}

// fetchBalance performs the combined balance read. On failure it reports a
// zero balance in a non-native currency.
func fetchBalance(ctx context.Context, caller probe.Caller, faucetABI abi.ABI, faucet common.Address) (string, bool) {
	out, err := probe.Call(ctx, caller, faucetABI, faucet, "getFaucetBalance")
	if err != nil || len(out) < 2 {
		return "0", false
	}
	balance := abi.ConvertType(out[0], new(big.Int)).(*big.Int)
	isEther := *abi.ConvertType(out[1], new(bool)).(*bool)
	return balance.String(), isEther
}

func callString(ctx context.Context, caller probe.Caller, parsed abi.ABI, addr common.Address, method, def string) string {
	out, err := probe.Call(ctx, caller, parsed, addr, method)
	if err != nil || len(out) == 0 {
		return def
	}
	return *abi.ConvertType(out[0], new(string)).(*string)
}

func callBool(ctx context.Context, caller probe.Caller, parsed abi.ABI, addr common.Address, method string, def bool) bool {
	out, err := probe.Call(ctx, caller, parsed, addr, method)
	if err != nil || len(out) == 0 {
		return def
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool)
}

func callUint(ctx context.Context, caller probe.Caller, parsed abi.ABI, addr common.Address, method string) *big.Int {
	out, err := probe.Call(ctx, caller, parsed, addr, method)
	if err != nil || len(out) == 0 {
		return new(big.Int)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int)
}

// callDecimals reads the ERC-20 decimals accessor (a uint8), defaulting to
// 18 on failure.
func callDecimals(ctx context.Context, caller probe.Caller, parsed abi.ABI, addr common.Address) int {
	out, err := probe.Call(ctx, caller, parsed, addr, "decimals")
	if err != nil || len(out) == 0 {
		return 18
	}
	if d, ok := out[0].(uint8); ok {
		return int(d)
	}
	return 18
}

func callAddress(ctx context.Context, caller probe.Caller, parsed abi.ABI, addr common.Address, method string) (common.Address, bool) {
	out, err := probe.Call(ctx, caller, parsed, addr, method)
	if err != nil || len(out) == 0 {
		return zeroAddress, false
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), true
}

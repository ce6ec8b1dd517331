package probe

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABIs covering only the view functions the pipelines call. The
// factory and quest shapes are structural twins: same transaction log
// accessor, different listing method name.

const factoryABIJSON = `[
  {"inputs": [], "name": "getAllFaucets", "outputs": [{"internalType": "address[]", "name": "", "type": "address[]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getAllTransactions", "outputs": [{"components": [{"internalType": "address", "name": "faucetAddress", "type": "address"}, {"internalType": "string", "name": "transactionType", "type": "string"}, {"internalType": "address", "name": "initiator", "type": "address"}, {"internalType": "uint256", "name": "amount", "type": "uint256"}, {"internalType": "bool", "name": "isEther", "type": "bool"}, {"internalType": "uint256", "name": "timestamp", "type": "uint256"}], "internalType": "struct TransactionLibrary.Transaction[]", "name": "", "type": "tuple[]"}], "stateMutability": "view", "type": "function"}
]`

const questABIJSON = `[
  {"inputs": [], "name": "getAllQuests", "outputs": [{"internalType": "address[]", "name": "", "type": "address[]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getAllTransactions", "outputs": [{"components": [{"internalType": "address", "name": "faucetAddress", "type": "address"}, {"internalType": "string", "name": "transactionType", "type": "string"}, {"internalType": "address", "name": "initiator", "type": "address"}, {"internalType": "uint256", "name": "amount", "type": "uint256"}, {"internalType": "bool", "name": "isEther", "type": "bool"}, {"internalType": "uint256", "name": "timestamp", "type": "uint256"}], "internalType": "struct TransactionLibrary.Transaction[]", "name": "", "type": "tuple[]"}], "stateMutability": "view", "type": "function"}
]`

const checkinABIJSON = `[
  {"inputs": [], "name": "getAllParticipants", "outputs": [{"internalType": "address[]", "name": "", "type": "address[]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getTotalTransactions", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const faucetABIJSON = `[
  {"inputs": [], "name": "claimAmount", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "deleted", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "endTime", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getFaucetBalance", "outputs": [{"internalType": "uint256", "name": "balance", "type": "uint256"}, {"internalType": "bool", "name": "isEther", "type": "bool"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "isClaimActive", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"internalType": "string", "name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "owner", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "paused", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "startTime", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "useBackend", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIJSON = `[
  {"inputs": [], "name": "decimals", "outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"internalType": "string", "name": "", "type": "string"}], "stateMutability": "view", "type": "function"}
]`

var (
	factoryABI = mustParseABI(factoryABIJSON)
	questABI   = mustParseABI(questABIJSON)
	checkinABI = mustParseABI(checkinABIJSON)
	faucetABI  = mustParseABI(faucetABIJSON)
	erc20ABI   = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// FaucetABI exposes the faucet interface for the detail fetcher.
func FaucetABI() abi.ABI { return faucetABI }

// ERC20ABI exposes the token metadata interface for the detail fetcher.
func ERC20ABI() abi.ABI { return erc20ABI }

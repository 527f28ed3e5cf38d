// Package ethereum implements the executor over the flash-loan executor
// contract.
package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	tracerName = "github.com/fd1az/flashroute/business/execution/infra/ethereum"
	meterName  = "github.com/fd1az/flashroute/business/execution/infra/ethereum"
)

// FlashExecutorABI is the owner-only entry point, the Ownable getter and
// the completion event.
const FlashExecutorABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "asset", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "bytes", "name": "params", "type": "bytes"}
		],
		"name": "runSimpleFlash",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "owner",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "asset", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "premium", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "profitWei", "type": "uint256"}
		],
		"name": "FlashCompleted",
		"type": "event"
	}
]`

const (
	methodRunSimpleFlash = "runSimpleFlash"
	methodOwner          = "owner"
	eventFlashCompleted  = "FlashCompleted"
)

func parseExecutorABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(FlashExecutorABI))
}

package uniswap

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
)

const (
	tracerName = "uniswap"
	meterName  = "uniswap"
)

// ContractCaller is the read-only slice of ethclient.Client the adapters use.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

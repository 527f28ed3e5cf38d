package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FlashCompleted is the executor's completion event.
type FlashCompleted struct {
	Asset     common.Address
	Amount    *big.Int
	Premium   *big.Int
	ProfitWei *big.Int
}

// Receipt is the confirmed outcome of a submitted plan.
type Receipt struct {
	TxHash      common.Hash
	Success     bool
	GasUsed     uint64
	BlockNumber uint64
	// Completion is nil when the event is absent or undecodable.
	Completion *FlashCompleted
}

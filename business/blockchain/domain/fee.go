package domain

import (
	"math/big"
	"time"
)

// FeeSource tells which query produced a FeeQuote.
type FeeSource string

const (
	// FeeSourceDynamic is baseFee from the head plus a suggested tip.
	FeeSourceDynamic FeeSource = "eip1559"
	// FeeSourceLegacy is eth_gasPrice, used when the head has no baseFee.
	FeeSourceLegacy FeeSource = "legacy"
)

// FeeQuote is the live fee data for one cycle.
type FeeQuote struct {
	// BaseFee, TipCap and MaxFee are nil for legacy quotes.
	BaseFee *big.Int
	TipCap  *big.Int
	MaxFee  *big.Int
	// GasPrice is the effective per-gas price fed to the profitability gate.
	GasPrice  *big.Int
	Source    FeeSource
	Timestamp time.Time
}

// NewDynamicFeeQuote derives maxFee = 2*baseFee + tip and an effective
// price of baseFee + tip.
func NewDynamicFeeQuote(baseFee, tip *big.Int) *FeeQuote {
	maxFee := new(big.Int).Mul(baseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)

	return &FeeQuote{
		BaseFee:   new(big.Int).Set(baseFee),
		TipCap:    new(big.Int).Set(tip),
		MaxFee:    maxFee,
		GasPrice:  new(big.Int).Add(baseFee, tip),
		Source:    FeeSourceDynamic,
		Timestamp: time.Now(),
	}
}

// NewLegacyFeeQuote wraps a plain gas price.
func NewLegacyFeeQuote(gasPrice *big.Int) *FeeQuote {
	return &FeeQuote{
		GasPrice:  new(big.Int).Set(gasPrice),
		Source:    FeeSourceLegacy,
		Timestamp: time.Now(),
	}
}

// Capped returns a copy whose effective price and max fee do not exceed limit.
func (q *FeeQuote) Capped(limit *big.Int) (*FeeQuote, bool) {
	if limit == nil || q.GasPrice.Cmp(limit) <= 0 {
		return q, false
	}

	out := *q
	out.GasPrice = new(big.Int).Set(limit)
	if out.MaxFee != nil && out.MaxFee.Cmp(limit) > 0 {
		out.MaxFee = new(big.Int).Set(limit)
	}
	if out.TipCap != nil && out.TipCap.Cmp(limit) > 0 {
		out.TipCap = new(big.Int).Set(limit)
	}
	return &out, true
}

// Gwei renders the effective price for display.
func (q *FeeQuote) Gwei() float64 {
	f := new(big.Float).SetInt(q.GasPrice)
	f.Quo(f, big.NewFloat(1e9))
	v, _ := f.Float64()
	return v
}

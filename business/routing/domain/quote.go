package domain

import "math/big"

// QuoteStatus is the outcome of a simulate-only quote.
type QuoteStatus uint8

const (
	QuoteOK QuoteStatus = iota + 1
	// QuoteNoRoute means the venue reverted: no pool, no liquidity or an
	// unsupported path. Expected and never an error.
	QuoteNoRoute
)

// QuoteResult is returned by quote adapters for every reachable call.
type QuoteResult struct {
	Status      QuoteStatus
	AmountOut   *big.Int
	GasEstimate uint64
	Reason      string
}

func Quoted(amountOut *big.Int, gasEstimate uint64) QuoteResult {
	return QuoteResult{Status: QuoteOK, AmountOut: amountOut, GasEstimate: gasEstimate}
}

func NoRoute(reason string) QuoteResult {
	return QuoteResult{Status: QuoteNoRoute, Reason: reason}
}

// OK reports a usable positive output.
func (q QuoteResult) OK() bool {
	return q.Status == QuoteOK && q.AmountOut != nil && q.AmountOut.Sign() > 0
}

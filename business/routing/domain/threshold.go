package domain

import (
	"fmt"
	"math/big"

	"github.com/fd1az/flashroute/internal/apperror"
)

// BpsDenominator is 100%.
const BpsDenominator = 10_000

var bpsDen = big.NewInt(BpsDenominator)

// EconomicThreshold is derived once per cycle from live fee data and the
// gate configuration. Read-only within a cycle.
type EconomicThreshold struct {
	GasPrice          *big.Int
	EstimatedGasUnits uint64
	SafetyMarginWei   *big.Int
	LoanPremiumBps    int64
	SlippageBps       int64
	MinEdgeBps        int64
}

// Evaluation is the gate's verdict with every intermediate figure kept
// for reporting.
type Evaluation struct {
	Accepted bool
	// Reason is empty on accept.
	Reason string

	AmountIn   *big.Int
	QuotedOutA *big.Int
	QuotedOutB *big.Int

	MinProfit *big.Int
	Premium   *big.Int
	Required  *big.Int
	GrossBps  *big.Int
	NeededBps *big.Int

	MinOutA *big.Int
	MinOutB *big.Int
}

// Rejection reasons.
const (
	ReasonBelowRequired = "below required"
	ReasonThinEdge      = "insufficient edge"
)

// MinProfit is gasPrice*estimatedGasUnits + safetyMargin.
func (t EconomicThreshold) MinProfit() *big.Int {
	gas := new(big.Int).Mul(orZero(t.GasPrice), new(big.Int).SetUint64(t.EstimatedGasUnits))
	return gas.Add(gas, orZero(t.SafetyMarginWei))
}

// Evaluate accepts iff qb >= required and grossBps >= neededBps + minEdgeBps.
// It is a pure function of its inputs.
func (t EconomicThreshold) Evaluate(amountIn, qa, qb *big.Int) (Evaluation, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Evaluation{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext(fmt.Sprintf("amountIn %v", amountIn)))
	}
	if qa == nil || qb == nil || qa.Sign() < 0 || qb.Sign() < 0 {
		return Evaluation{}, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext("quotes must be non-negative"))
	}
	if t.SlippageBps < 0 || t.SlippageBps > BpsDenominator || t.LoanPremiumBps < 0 {
		return Evaluation{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("slippage %d premium %d", t.SlippageBps, t.LoanPremiumBps)))
	}

	minProfit := t.MinProfit()
	premium := bps(amountIn, t.LoanPremiumBps)

	required := new(big.Int).Add(amountIn, minProfit)
	required.Add(required, premium)

	grossBps := new(big.Int).Sub(qb, amountIn)
	grossBps.Mul(grossBps, bpsDen).Quo(grossBps, amountIn)

	neededBps := new(big.Int).Sub(required, amountIn)
	neededBps.Mul(neededBps, bpsDen).Quo(neededBps, amountIn)

	ev := Evaluation{
		AmountIn:   new(big.Int).Set(amountIn),
		QuotedOutA: new(big.Int).Set(qa),
		QuotedOutB: new(big.Int).Set(qb),
		MinProfit:  minProfit,
		Premium:    premium,
		Required:   required,
		GrossBps:   grossBps,
		NeededBps:  neededBps,
		MinOutA:    MinOut(qa, t.SlippageBps),
		MinOutB:    MinOut(qb, t.SlippageBps),
	}

	edge := new(big.Int).Add(neededBps, big.NewInt(t.MinEdgeBps))
	switch {
	case qb.Cmp(required) < 0:
		ev.Reason = ReasonBelowRequired
	case grossBps.Cmp(edge) < 0:
		ev.Reason = ReasonThinEdge
	default:
		ev.Accepted = true
	}

	return ev, nil
}

// MinOut is q - q*slippageBps/10000.
func MinOut(q *big.Int, slippageBps int64) *big.Int {
	out := new(big.Int).Set(q)
	return out.Sub(out, bps(q, slippageBps))
}

func bps(v *big.Int, b int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(b))
	return out.Quo(out, bpsDen)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

package app

import (
	"math/big"

	"github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/apperror"
)

// GateConfig is the static part of the economic threshold.
type GateConfig struct {
	EstimatedGasUnits uint64
	SafetyMarginWei   *big.Int
	LoanPremiumBps    int64
	SlippageBps       int64
	MinEdgeBps        int64
}

// ProfitabilityGate accepts or rejects the cycle's best candidate.
type ProfitabilityGate struct {
	config GateConfig
}

// NewProfitabilityGate creates a new ProfitabilityGate with thresholds.
func NewProfitabilityGate(cfg GateConfig) *ProfitabilityGate {
	return &ProfitabilityGate{config: cfg}
}

// Threshold combines live gas price with the static configuration.
func (g *ProfitabilityGate) Threshold(gasPrice *big.Int) domain.EconomicThreshold {
	return domain.EconomicThreshold{
		GasPrice:          gasPrice,
		EstimatedGasUnits: g.config.EstimatedGasUnits,
		SafetyMarginWei:   g.config.SafetyMarginWei,
		LoanPremiumBps:    g.config.LoanPremiumBps,
		SlippageBps:       g.config.SlippageBps,
		MinEdgeBps:        g.config.MinEdgeBps,
	}
}

// Evaluate runs the candidate through the threshold for gasPrice.
func (g *ProfitabilityGate) Evaluate(c *domain.RouteCandidate, gasPrice *big.Int) (domain.Evaluation, error) {
	if c == nil {
		return domain.Evaluation{}, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("nil candidate"))
	}
	if gasPrice == nil {
		return domain.Evaluation{}, apperror.New(apperror.CodeFeeDataUnavailable)
	}
	return g.Threshold(gasPrice).Evaluate(c.AmountIn, c.QuotedOutA, c.QuotedOutB)
}

package app

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/business/routing/domain"
)

func testGate() *ProfitabilityGate {
	return NewProfitabilityGate(GateConfig{
		EstimatedGasUnits: 210_000,
		SafetyMarginWei:   big.NewInt(100_000_000_000),
		LoanPremiumBps:    9,
		SlippageBps:       15,
		MinEdgeBps:        1,
	})
}

func candidate(amountIn, qa, qb string) *domain.RouteCandidate {
	parse := func(s string) *big.Int {
		v, _ := new(big.Int).SetString(s, 10)
		return v
	}
	return &domain.RouteCandidate{
		AmountIn:   parse(amountIn),
		QuotedOutA: parse(qa),
		QuotedOutB: parse(qb),
	}
}

func TestProfitabilityGate_Evaluate(t *testing.T) {
	gate := testGate()

	tests := []struct {
		name     string
		qb       string
		gasPrice int64
		accepted bool
	}{
		{"thin_return", "10050000000000", 100, false},
		{"wide_return", "10300000000000", 100, true},
		{"wide_return_expensive_gas", "10300000000000", 100_000_000_000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := gate.Evaluate(candidate("10000000000000", "30000000000", tt.qb), big.NewInt(tt.gasPrice))
			require.NoError(t, err)
			assert.Equal(t, tt.accepted, ev.Accepted, "reason %q", ev.Reason)
		})
	}
}

func TestProfitabilityGate_Threshold(t *testing.T) {
	th := testGate().Threshold(big.NewInt(100))

	assert.Equal(t, int64(100), th.GasPrice.Int64())
	assert.Equal(t, uint64(210_000), th.EstimatedGasUnits)
	assert.Equal(t, int64(100_021_000_000), th.MinProfit().Int64())
}

func TestProfitabilityGate_InvalidInput(t *testing.T) {
	gate := testGate()

	_, err := gate.Evaluate(nil, big.NewInt(1))
	assert.Error(t, err)

	_, err = gate.Evaluate(candidate("1", "1", "1"), nil)
	assert.Error(t, err)
}

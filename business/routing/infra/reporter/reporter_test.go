package reporter

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/asset"
	"github.com/fd1az/flashroute/pkg/ui"
)

type registryAssets struct {
	reg *asset.Registry
}

func (a registryAssets) Lookup(addr common.Address) *asset.Asset {
	return a.reg.Lookup(asset.ChainIDArbitrum, addr)
}

func (a registryAssets) Symbol(addr common.Address) string {
	return a.reg.Symbol(asset.ChainIDArbitrum, addr)
}

func newFormatter() *Formatter {
	return NewFormatter(asset.WETH, registryAssets{reg: asset.DefaultRegistry()})
}

func acceptedReport(t *testing.T) *domain.CycleReport {
	t.Helper()
	weth, usdc := asset.AddrWETHArbitrum, asset.AddrUSDCArbitrum
	legA, err := domain.NewLeg(domain.VenueConcentrated, []common.Address{weth, usdc}, 500)
	require.NoError(t, err)
	legB, err := domain.NewLeg(domain.VenueConstantProduct, []common.Address{usdc, weth}, 0)
	require.NoError(t, err)
	route, err := domain.NewRoute(2, domain.ShapeOneOne, weth, legA, legB, []common.Address{usdc})
	require.NoError(t, err)

	amountIn := big.NewInt(1e16)
	return &domain.CycleReport{
		CycleID:     3,
		StartedAt:   time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Duration:    50 * time.Millisecond,
		Outcome:     domain.OutcomeExecuted,
		GasPriceWei: big.NewInt(20_000_000),
		Best: &domain.RouteCandidate{
			Route:      route,
			AmountIn:   amountIn,
			QuotedOutA: big.NewInt(30_000_000),
			QuotedOutB: big.NewInt(10_300_000_000_000_000),
		},
		Evaluation: &domain.Evaluation{
			Accepted:   true,
			AmountIn:   amountIn,
			QuotedOutA: big.NewInt(30_000_000),
			QuotedOutB: big.NewInt(10_300_000_000_000_000),
			GrossBps:   big.NewInt(300),
			NeededBps:  big.NewInt(109),
			MinOutB:    big.NewInt(10_284_550_000_000_000),
		},
		Execution: &domain.ExecutionResult{
			Outcome:        domain.OutcomeExecuted,
			TxHash:         common.HexToHash("0xabc"),
			GasUsed:        410_000,
			RealizedProfit: big.NewInt(1e14),
		},
		Stats:        domain.SearchStats{Quoted: 24},
		NextInterval: 500 * time.Millisecond,
	}
}

func TestFormatter_Row(t *testing.T) {
	row := newFormatter().Row(acceptedReport(t))

	assert.Equal(t, "15:04:05", row.Time)
	assert.Equal(t, "WETH", row.Symbol)
	assert.Equal(t, "0.0100", row.Size.StringFixed(4))
	assert.Equal(t, "0.0003", row.Profit.StringFixed(4))
	assert.Equal(t, int64(300), row.GrossBps)
	assert.True(t, row.Hit)
	assert.Equal(t, "CL->CP 1-1 WETH>USDC@500 | USDC>WETH", row.Route)
	assert.NotEmpty(t, row.TxHash)
}

func TestFormatter_GateUsesIntermediateDecimals(t *testing.T) {
	g := newFormatter().Gate(acceptedReport(t))
	require.NotNil(t, g)
	assert.Equal(t, "30.000000 USDC", g.QuotedOutA)
	assert.Equal(t, "0.010285", g.MinOutB.StringFixed(6))
	assert.True(t, g.Accepted)
}

func TestFormatter_NoCandidate(t *testing.T) {
	f := newFormatter()
	report := &domain.CycleReport{CycleID: 1, Outcome: domain.OutcomeNoRoute}

	assert.Nil(t, f.Gate(report))
	row := f.Row(report)
	assert.Empty(t, row.Route)
	assert.True(t, row.Size.IsZero())
	assert.False(t, Failed(report))
}

func TestFormatter_NegativeProfitDoesNotPanic(t *testing.T) {
	report := acceptedReport(t)
	report.Best.QuotedOutB = big.NewInt(9e15)
	row := newFormatter().Row(report)
	assert.Equal(t, "-0.0010", row.Profit.StringFixed(4))
}

func TestConsoleReporter_PrintsAcceptedBlock(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, newFormatter())

	r.ReportCycle(acceptedReport(t))

	out := buf.String()
	assert.Contains(t, out, "cycle 3 executed")
	assert.Contains(t, out, "gross +300bp need 109bp")
	assert.Contains(t, out, "CANDIDATE ACCEPTED")
	assert.Contains(t, out, "Execution:      executed")
	assert.Contains(t, out, "Realized:       0.00010000 WETH")
}

func TestConsoleReporter_RejectedIsOneLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, newFormatter())
	report := acceptedReport(t)
	report.Outcome = domain.OutcomeRejected
	report.Execution = nil
	report.Evaluation.Accepted = false
	report.Evaluation.Reason = domain.ReasonBelowRequired

	r.ReportCycle(report)

	assert.Contains(t, buf.String(), "(below required)")
	assert.NotContains(t, buf.String(), "CANDIDATE ACCEPTED")
}

func TestTUIReporter_SendsCycleMessages(t *testing.T) {
	var msgs []tea.Msg
	r := NewTUIReporter(newFormatter(), func(m tea.Msg) { msgs = append(msgs, m) })

	report := acceptedReport(t)
	report.Err = errors.New("journal down")
	r.ReportCycle(report)

	require.Len(t, msgs, 3)
	gas, ok := msgs[0].(ui.GasPriceMsg)
	require.True(t, ok)
	assert.InDelta(t, 0.02, gas.GweiPrice, 1e-9)

	cycle, ok := msgs[1].(ui.CycleMsg)
	require.True(t, ok)
	assert.Equal(t, uint64(3), cycle.Row.CycleID)
	assert.Equal(t, 24, cycle.Quotes)
	assert.True(t, cycle.Failed)
	require.NotNil(t, cycle.Gate)

	_, ok = msgs[2].(ui.ErrorMsg)
	assert.True(t, ok)
}

// Package reporter renders finished cycles to a terminal or the dashboard.
package reporter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/asset"
	"github.com/fd1az/flashroute/pkg/ui/components"
)

// Assets resolves token metadata for display.
type Assets interface {
	Lookup(addr common.Address) *asset.Asset
	Symbol(addr common.Address) string
}

// Formatter converts wei amounts in a CycleReport into display units of
// the base asset and the intermediates.
type Formatter struct {
	base   *asset.Asset
	assets Assets
}

func NewFormatter(base *asset.Asset, assets Assets) *Formatter {
	return &Formatter{base: base, assets: assets}
}

// Route renders the hop descriptor, empty when the cycle had no candidate.
func (f *Formatter) Route(report *domain.CycleReport) string {
	if report.Best == nil {
		return ""
	}
	return report.Best.HopDescriptor(f.assets.Symbol)
}

// Base converts a base-token wei amount. Negative deltas are allowed.
func (f *Formatter) Base(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -int32(f.base.Decimals()))
}

func (f *Formatter) token(addr common.Address, v *big.Int) string {
	if v == nil || v.Sign() < 0 {
		return "-"
	}
	return asset.NewAmount(f.assets.Lookup(addr), v).StringFixed(6)
}

// Row builds the history row for a cycle.
func (f *Formatter) Row(report *domain.CycleReport) components.CycleRow {
	row := components.CycleRow{
		Time:    report.StartedAt.Format("15:04:05"),
		CycleID: report.CycleID,
		Symbol:  f.base.Symbol(),
		Route:   f.Route(report),
		Outcome: string(report.Outcome),
		Hit:     report.Outcome.IsHit(),
	}
	if report.Best != nil {
		row.Size = f.Base(report.Best.AmountIn)
		row.Profit = f.Base(report.Best.Profit())
	}
	if report.Evaluation != nil && report.Evaluation.GrossBps != nil {
		row.GrossBps = report.Evaluation.GrossBps.Int64()
	}
	if report.Execution != nil && report.Execution.TxHash != (common.Hash{}) {
		row.TxHash = report.Execution.TxHash.Hex()
	}
	return row
}

// Gate builds the gate panel, nil when no candidate was evaluated.
func (f *Formatter) Gate(report *domain.CycleReport) *components.GateBreakdown {
	ev := report.Evaluation
	if report.Best == nil || ev == nil {
		return nil
	}
	return &components.GateBreakdown{
		Symbol:     f.base.Symbol(),
		Route:      f.Route(report),
		AmountIn:   f.Base(ev.AmountIn),
		QuotedOutA: f.token(report.Best.LegA.TokenOut(), ev.QuotedOutA),
		QuotedOutB: f.Base(ev.QuotedOutB),
		Premium:    f.Base(ev.Premium),
		MinProfit:  f.Base(ev.MinProfit),
		Required:   f.Base(ev.Required),
		GrossBps:   bpsInt(ev.GrossBps),
		NeededBps:  bpsInt(ev.NeededBps),
		MinOutB:    f.Base(ev.MinOutB),
		Accepted:   ev.Accepted,
		Reason:     ev.Reason,
	}
}

// Failed reports whether the cycle ended on an error rather than a decision.
func Failed(report *domain.CycleReport) bool {
	switch report.Outcome {
	case domain.OutcomeExecutionError, domain.OutcomeFeeUnavailable, domain.OutcomeReverted:
		return true
	}
	return report.Err != nil
}

// Gwei converts a wei price for display.
func Gwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	return decimal.NewFromBigInt(wei, -9).InexactFloat64()
}

func bpsInt(v *big.Int) int64 {
	if v == nil {
		return 0
	}
	return v.Int64()
}

// Package domain holds the flat cycle record written to every journal store.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	routingDomain "github.com/fd1az/flashroute/business/routing/domain"
)

// CycleRecord is one finished cycle. Wei amounts are base-10 strings so
// every store keeps full precision; empty means not applicable.
type CycleRecord struct {
	CycleID        uint64
	StartedAt      time.Time
	DurationMs     int64
	Outcome        string
	AmountIn       string
	QuotedOut      string
	Profit         string
	GrossBps       int64
	NeededBps      int64
	Route          string
	GasPriceWei    string
	IntervalMs     int64
	TxHash         string
	RealizedProfit string
	Reason         string
}

// FromReport flattens a cycle report. symbol renders token addresses in
// the route descriptor.
func FromReport(r *routingDomain.CycleReport, symbol func(common.Address) string) CycleRecord {
	rec := CycleRecord{
		CycleID:     r.CycleID,
		StartedAt:   r.StartedAt.UTC(),
		DurationMs:  r.Duration.Milliseconds(),
		Outcome:     string(r.Outcome),
		GasPriceWei: wei(r.GasPriceWei),
		IntervalMs:  r.NextInterval.Milliseconds(),
	}

	if c := r.Best; c != nil {
		rec.AmountIn = wei(c.AmountIn)
		rec.QuotedOut = wei(c.QuotedOutB)
		rec.Profit = wei(c.Profit())
		rec.Route = c.HopDescriptor(symbol)
	}

	if ev := r.Evaluation; ev != nil {
		rec.GrossBps = bps(ev.GrossBps)
		rec.NeededBps = bps(ev.NeededBps)
		rec.Reason = ev.Reason
	}

	if ex := r.Execution; ex != nil {
		if ex.TxHash != (common.Hash{}) {
			rec.TxHash = ex.TxHash.Hex()
		}
		rec.RealizedProfit = wei(ex.RealizedProfit)
		if ex.Reason != "" {
			rec.Reason = ex.Reason
		}
	}

	if r.Err != nil && rec.Reason == "" {
		rec.Reason = r.Err.Error()
	}
	return rec
}

func wei(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func bps(v *big.Int) int64 {
	if v == nil || !v.IsInt64() {
		return 0
	}
	return v.Int64()
}

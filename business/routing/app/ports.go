// Package app contains the route search, gate, scheduler and cycle loop.
package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	blockchainDomain "github.com/fd1az/flashroute/business/blockchain/domain"
	"github.com/fd1az/flashroute/business/routing/domain"
)

// QuoteAdapter is the simulate-only surface over both venues. Reverts come
// back as domain.NoRoute results; the error return is for unreachable
// RPC, an open breaker or malformed input.
type QuoteAdapter interface {
	QuoteConcentrated(ctx context.Context, path []byte, amountIn *big.Int) (domain.QuoteResult, error)
	QuoteConstantProduct(ctx context.Context, tokens []common.Address, amountIn *big.Int) (domain.QuoteResult, error)
}

// FeeSource provides live fee data. Its error means both the EIP-1559
// and the legacy query failed.
type FeeSource interface {
	CurrentFees(ctx context.Context) (*blockchainDomain.FeeQuote, error)
}

// Dispatcher turns an accepted candidate into a dry run and at most one
// submission. Failures are folded into the result, never returned.
type Dispatcher interface {
	Execute(ctx context.Context, c *domain.RouteCandidate, ev domain.Evaluation) domain.ExecutionResult
}

// TokenUniverse supplies intermediate tokens and display symbols.
type TokenUniverse interface {
	// Intermediates returns a snapshot safe to keep for one cycle.
	Intermediates() []common.Address
	Symbol(addr common.Address) string
}

// BlockSource feeds chain heads to the dashboard.
type BlockSource interface {
	Subscribe(ctx context.Context) (<-chan *blockchainDomain.Block, error)
}

// Journal persists cycle records.
type Journal interface {
	Record(ctx context.Context, report *domain.CycleReport) error
}

// Reporter displays cycle outcomes.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportCycle shows a finished cycle.
	ReportCycle(report *domain.CycleReport)

	// UpdateBlock shows the latest chain head.
	UpdateBlock(block *blockchainDomain.Block)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

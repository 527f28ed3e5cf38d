package uniswap

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashroute/business/routing/app"
	"github.com/fd1az/flashroute/business/routing/domain"
)

var _ app.QuoteAdapter = (*Adapter)(nil)

// Adapter joins both venues behind app.QuoteAdapter. A nil venue client
// answers NoRoute.
type Adapter struct {
	quoter *Quoter
	router *Router
}

func NewAdapter(quoter *Quoter, router *Router) *Adapter {
	return &Adapter{quoter: quoter, router: router}
}

func (a *Adapter) QuoteConcentrated(ctx context.Context, path []byte, amountIn *big.Int) (domain.QuoteResult, error) {
	if a.quoter == nil {
		return domain.NoRoute("concentrated venue disabled"), nil
	}
	return a.quoter.Quote(ctx, path, amountIn)
}

func (a *Adapter) QuoteConstantProduct(ctx context.Context, tokens []common.Address, amountIn *big.Int) (domain.QuoteResult, error) {
	if a.router == nil {
		return domain.NoRoute("constant-product venue disabled"), nil
	}
	return a.router.Quote(ctx, tokens, amountIn)
}

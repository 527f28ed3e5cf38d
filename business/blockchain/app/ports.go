// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/fd1az/flashroute/business/blockchain/domain"
)

// HeadWatcher follows chain heads.
type HeadWatcher interface {
	// Subscribe starts listening for new heads and returns a channel of blocks.
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)

	// LatestBlock retrieves the most recent block.
	LatestBlock(ctx context.Context) (*domain.Block, error)

	// Status returns the current connection details.
	Status() domain.ConnectionStatus
}

// FeeOracle supplies live fee data.
type FeeOracle interface {
	CurrentFees(ctx context.Context) (*domain.FeeQuote, error)
}

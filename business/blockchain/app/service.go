package app

import (
	"context"

	"github.com/fd1az/flashroute/business/blockchain/domain"
)

// BlockchainService is the context's public surface: fee data for the
// gate and heads for the dashboard.
type BlockchainService struct {
	heads HeadWatcher
	fees  FeeOracle
}

func NewBlockchainService(heads HeadWatcher, fees FeeOracle) *BlockchainService {
	return &BlockchainService{
		heads: heads,
		fees:  fees,
	}
}

// Subscribe starts the head subscription and returns the channel.
func (s *BlockchainService) Subscribe(ctx context.Context) (<-chan *domain.Block, error) {
	return s.heads.Subscribe(ctx)
}

// CurrentFees returns the fee quote for the current cycle.
func (s *BlockchainService) CurrentFees(ctx context.Context) (*domain.FeeQuote, error) {
	return s.fees.CurrentFees(ctx)
}

// LatestBlock reads the current head.
func (s *BlockchainService) LatestBlock(ctx context.Context) (*domain.Block, error) {
	return s.heads.LatestBlock(ctx)
}

func (s *BlockchainService) Status() domain.ConnectionStatus {
	return s.heads.Status()
}

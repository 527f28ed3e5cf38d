// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/flashroute/business/blockchain/app"
	"github.com/fd1az/flashroute/business/blockchain/infra/ethereum"
	"github.com/fd1az/flashroute/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BlockchainService = di.NewToken[*app.BlockchainService]("blockchain.BlockchainService")
)

// Private dependency tokens - internal to blockchain module
var (
	HeadWatcher = di.NewToken[*ethereum.HeadWatcher]("blockchain:headWatcher")
	FeeOracle   = di.NewToken[*ethereum.FeeOracle]("blockchain:feeOracle")
)

func GetBlockchainService(c di.ServiceRegistry) *app.BlockchainService {
	return di.GetToken(c, BlockchainService)
}

func GetHeadWatcher(c di.ServiceRegistry) *ethereum.HeadWatcher {
	return di.GetToken(c, HeadWatcher)
}

func GetFeeOracle(c di.ServiceRegistry) *ethereum.FeeOracle {
	return di.GetToken(c, FeeOracle)
}

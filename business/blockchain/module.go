// Package blockchain implements the chain-facing bounded context: fee
// data and head tracking.
package blockchain

import (
	"context"
	"fmt"

	"github.com/fd1az/flashroute/business/blockchain/app"
	blockchainDI "github.com/fd1az/flashroute/business/blockchain/di"
	"github.com/fd1az/flashroute/business/blockchain/infra/ethereum"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/config"
	"github.com/fd1az/flashroute/internal/di"
	"github.com/fd1az/flashroute/internal/logger"
	"github.com/fd1az/flashroute/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.HeadWatcher, func(sr di.ServiceRegistry) *ethereum.HeadWatcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		wCfg := ethereum.DefaultHeadWatcherConfig(cfg.Ethereum.WebSocketURL, cfg.Ethereum.HTTPURL)
		if cfg.Ethereum.PollInterval > 0 {
			wCfg.PollInterval = cfg.Ethereum.PollInterval
		}
		w, err := ethereum.NewHeadWatcher(wCfg, log)
		if err != nil {
			panic("failed to create head watcher: " + err.Error())
		}
		return w
	})

	di.RegisterToken(c, blockchainDI.FeeOracle, func(sr di.ServiceRegistry) *ethereum.FeeOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(ethereum.FeeClient)

		oCfg := ethereum.DefaultFeeOracleConfig()
		oCfg.CacheTTL = cfg.Fees.CacheTTL
		// Validate already parsed both values.
		oCfg.FallbackTip, _ = cfg.Fees.FallbackPriorityFee()
		oCfg.MaxGasPrice, _ = cfg.Fees.MaxGasPrice()

		oracle, err := ethereum.NewFeeOracle(oCfg, client, log)
		if err != nil {
			panic("failed to create fee oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		return app.NewBlockchainService(
			blockchainDI.GetHeadWatcher(sr),
			blockchainDI.GetFeeOracle(sr),
		)
	})

	return nil
}

// Startup checks that the node serves the configured chain and primes the
// fee cache.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	chainID, err := mono.EthClient().ChainID(ctx)
	if err != nil {
		return apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err),
			apperror.WithContext("read chain id"))
	}
	if chainID.Uint64() != cfg.Ethereum.ChainID {
		return apperror.Configuration(fmt.Sprintf("node serves chain %s, configured %d", chainID, cfg.Ethereum.ChainID))
	}

	svc := blockchainDI.GetBlockchainService(mono.Services())
	mono.OnClose(blockchainDI.GetHeadWatcher(mono.Services()).Close)
	mono.OnClose(blockchainDI.GetFeeOracle(mono.Services()).Close)

	if q, err := svc.CurrentFees(ctx); err != nil {
		log.Warn(ctx, "initial fee read failed", "error", err)
	} else {
		log.Info(ctx, "fee data available", "source", q.Source, "gwei", q.Gwei())
	}

	log.Info(ctx, "blockchain module started", "chain_id", chainID.Uint64())
	return nil
}

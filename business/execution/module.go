// Package execution implements the dispatcher that dry-runs and submits
// accepted candidates to the flash-loan executor contract.
package execution

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	blockchainDI "github.com/fd1az/flashroute/business/blockchain/di"
	"github.com/fd1az/flashroute/business/execution/app"
	executionDI "github.com/fd1az/flashroute/business/execution/di"
	"github.com/fd1az/flashroute/business/execution/infra/ethereum"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/config"
	"github.com/fd1az/flashroute/internal/di"
	"github.com/fd1az/flashroute/internal/logger"
	"github.com/fd1az/flashroute/internal/monolith"
)

// Module implements the execution bounded context. Nothing is built
// while execution is disabled.
type Module struct{}

// RegisterServices registers all execution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, executionDI.Executor, func(sr di.ServiceRegistry) *ethereum.Executor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(ethereum.ChainClient)

		key, err := ParsePrivateKey(cfg.Execution.PrivateKey)
		if err != nil {
			panic(err.Error())
		}

		eCfg := ethereum.DefaultExecutorConfig(cfg.Execution.ExecutorAddressHex(), key)
		eCfg.GasLimit = cfg.Execution.GasLimit
		if cfg.Execution.ReceiptTimeout > 0 {
			eCfg.ReceiptTimeout = cfg.Execution.ReceiptTimeout
		}

		exec, err := ethereum.NewExecutor(eCfg, client, blockchainDI.GetBlockchainService(sr), log)
		if err != nil {
			panic("failed to create executor: " + err.Error())
		}
		return exec
	})

	di.RegisterToken(c, executionDI.Dispatcher, func(sr di.ServiceRegistry) *app.Dispatcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewDispatcher(
			app.DispatcherConfig{DryRunOnly: cfg.Execution.DryRunOnly},
			executionDI.GetExecutor(sr),
			log,
		)
	})

	return nil
}

// Startup verifies that the signer owns the executor contract.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	if !cfg.Execution.Enabled {
		log.Info(ctx, "execution disabled, accepted candidates are reported only")
		return nil
	}

	exec, err := di.Resolve(mono.Services(), executionDI.Executor)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeConfigurationError, "build executor")
	}
	if err := exec.VerifyOwner(ctx); err != nil {
		return err
	}

	log.Info(ctx, "execution module started",
		"executor", cfg.Execution.ExecutorAddressHex().Hex(),
		"signer", exec.Signer().Hex(),
		"dry_run_only", cfg.Execution.DryRunOnly)
	return nil
}

// ParsePrivateKey accepts a hex key with or without 0x.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if h == "" {
		return nil, apperror.New(apperror.CodeSignerUnavailable, apperror.WithContext("empty private key"))
	}
	key, err := crypto.HexToECDSA(h)
	if err != nil {
		return nil, apperror.New(apperror.CodeSignerUnavailable, apperror.WithCause(err))
	}
	return key, nil
}

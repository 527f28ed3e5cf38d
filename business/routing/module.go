// Package routing implements the route search bounded context: quoting,
// gating and the polling cycle.
package routing

import (
	"context"
	"os"

	"github.com/ethereum/go-ethereum/ethclient"

	blockchainDI "github.com/fd1az/flashroute/business/blockchain/di"
	executionDI "github.com/fd1az/flashroute/business/execution/di"
	journalDI "github.com/fd1az/flashroute/business/journal/di"
	"github.com/fd1az/flashroute/business/routing/app"
	routingDI "github.com/fd1az/flashroute/business/routing/di"
	"github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/business/routing/infra/reporter"
	"github.com/fd1az/flashroute/business/routing/infra/uniswap"
	tokensDI "github.com/fd1az/flashroute/business/tokens/di"
	"github.com/fd1az/flashroute/internal/config"
	"github.com/fd1az/flashroute/internal/di"
	"github.com/fd1az/flashroute/internal/logger"
	"github.com/fd1az/flashroute/internal/monolith"
	"github.com/fd1az/flashroute/internal/ratelimit"
)

// Module implements the routing bounded context.
type Module struct{}

// RegisterServices registers all routing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, routingDI.QuoteAdapter, func(sr di.ServiceRegistry) app.QuoteAdapter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		var (
			quoter *uniswap.Quoter
			router *uniswap.Router
			err    error
		)
		if cfg.Venues.Concentrated.Enabled {
			quoter, err = uniswap.NewQuoter(client, cfg.Venues.Concentrated.QuoterAddressHex(), log)
			if err != nil {
				panic("failed to create concentrated quoter: " + err.Error())
			}
		}
		if cfg.Venues.ConstantProduct.Enabled {
			router, err = uniswap.NewRouter(client, cfg.Venues.ConstantProduct.RouterAddressHex(), log)
			if err != nil {
				panic("failed to create constant-product router: " + err.Error())
			}
		}
		return uniswap.NewAdapter(quoter, router)
	})

	di.RegisterToken(c, routingDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		engine, err := app.NewEngine(
			routingDI.GetQuoteAdapter(sr),
			ratelimit.New(cfg.Routing.QuoteRatePerSecond, cfg.Routing.QuoteBurst),
			EngineConfig(cfg),
			log,
		)
		if err != nil {
			panic(err.Error())
		}
		return engine
	})

	di.RegisterToken(c, routingDI.Gate, func(sr di.ServiceRegistry) *app.ProfitabilityGate {
		cfg := sr.Get("config").(*config.Config)
		// Validate already parsed the margin.
		safety, _ := cfg.Gate.SafetyMargin()
		return app.NewProfitabilityGate(app.GateConfig{
			EstimatedGasUnits: cfg.Gate.EstimatedGasUnits,
			SafetyMarginWei:   safety,
			LoanPremiumBps:    cfg.Gate.LoanPremiumBps,
			SlippageBps:       cfg.Gate.SlippageBps,
			MinEdgeBps:        cfg.Gate.MinEdgeBps,
		})
	})

	di.RegisterToken(c, routingDI.Scheduler, func(sr di.ServiceRegistry) *app.Scheduler {
		cfg := sr.Get("config").(*config.Config)
		return app.NewScheduler(app.SchedulerConfig{
			Adaptive:    cfg.Polling.Adaptive,
			Interval:    cfg.Polling.Interval,
			MinInterval: cfg.Polling.MinInterval,
			MaxInterval: cfg.Polling.MaxInterval,
			BackoffStep: cfg.Polling.BackoffStep,
		})
	})

	di.RegisterToken(c, routingDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		universe := tokensDI.GetUniverse(sr)

		f := reporter.NewFormatter(universe.Lookup(cfg.Routing.BaseTokenHex()), universe)
		if cfg.App.TUIMode {
			return reporter.NewTUIReporter(f, nil)
		}
		return reporter.NewConsoleReporter(os.Stdout, f)
	})

	di.RegisterToken(c, routingDI.Runner, func(sr di.ServiceRegistry) *app.Runner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		chain := blockchainDI.GetBlockchainService(sr)

		deps := app.RunnerDeps{
			Engine:    routingDI.GetEngine(sr),
			Gate:      routingDI.GetGate(sr),
			Scheduler: routingDI.GetScheduler(sr),
			Fees:      chain,
			Blocks:    chain,
			Universe:  tokensDI.GetUniverse(sr),
			Reporter:  routingDI.GetReporter(sr),
			Journal:   journalDI.GetFanout(sr),
		}
		if cfg.Execution.Enabled {
			deps.Dispatcher = executionDI.GetDispatcher(sr)
		}

		// Validate already parsed the amounts.
		amounts, _ := cfg.Routing.AmountsWei()
		runner, err := app.NewRunner(deps, app.RunnerConfig{
			Amounts:          amounts,
			ExecutionEnabled: cfg.Execution.Enabled,
		}, log)
		if err != nil {
			panic(err.Error())
		}
		return runner
	})

	return nil
}

// EngineConfig maps the venue and routing settings onto the search space.
func EngineConfig(cfg *config.Config) app.EngineConfig {
	var tiers []domain.FeeTier
	if cfg.Venues.Concentrated.Enabled {
		tiers = make([]domain.FeeTier, 0, len(cfg.Venues.Concentrated.FeeTiers))
		for _, f := range cfg.Venues.Concentrated.FeeTiers {
			tiers = append(tiers, domain.FeeTier(f))
		}
	}
	return app.EngineConfig{
		BaseToken:     cfg.Routing.BaseTokenHex(),
		FeeTiers:      tiers,
		Pairings:      domain.EnabledPairings(cfg.Venues.Concentrated.Enabled, cfg.Venues.ConstantProduct.Enabled),
		TwoHop:        cfg.Routing.TwoHop,
		MaxConcurrent: cfg.Routing.MaxConcurrentQuotes,
		QuoteTimeout:  cfg.Routing.QuoteTimeout,
	}
}

// Startup builds the cycle runner. The runner is started by the caller.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	runner, err := di.Resolve(mono.Services(), routingDI.Runner)
	if err != nil {
		return err
	}
	mono.OnClose(runner.Stop)

	log.Info(ctx, "routing module started",
		"pairings", len(domain.EnabledPairings(cfg.Venues.Concentrated.Enabled, cfg.Venues.ConstantProduct.Enabled)),
		"intermediates", len(tokensDI.GetUniverse(mono.Services()).Intermediates()),
		"execution", cfg.Execution.Enabled)
	return nil
}

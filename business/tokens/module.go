// Package tokens implements the intermediate token universe.
package tokens

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/fd1az/flashroute/business/tokens/app"
	tokensDI "github.com/fd1az/flashroute/business/tokens/di"
	"github.com/fd1az/flashroute/business/tokens/infra/fallback"
	"github.com/fd1az/flashroute/business/tokens/infra/filecache"
	"github.com/fd1az/flashroute/business/tokens/infra/rediscache"
	"github.com/fd1az/flashroute/business/tokens/infra/tokenlist"
	"github.com/fd1az/flashroute/internal/asset"
	"github.com/fd1az/flashroute/internal/config"
	"github.com/fd1az/flashroute/internal/di"
	"github.com/fd1az/flashroute/internal/httpclient"
	"github.com/fd1az/flashroute/internal/logger"
	"github.com/fd1az/flashroute/internal/monolith"
)

// Module implements the tokens bounded context.
type Module struct{}

// RegisterServices registers all tokens services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tokensDI.RedisClient, func(sr di.ServiceRegistry) *redis.Client {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Tokens.RedisAddr == "" {
			return nil
		}
		return rediscache.NewClient(cfg.Tokens.RedisAddr)
	})

	di.RegisterToken(c, tokensDI.Universe, func(sr di.ServiceRegistry) *app.Universe {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		chainID := cfg.Ethereum.ChainID

		var tiers []app.Tier
		if cfg.Tokens.CacheFile != "" {
			tiers = append(tiers, filecache.New(cfg.Tokens.CacheFile, chainID, cfg.Tokens.CacheTTL))
		}
		if rc := tokensDI.GetRedisClient(sr); rc != nil {
			tiers = append(tiers, rediscache.New(rc, chainID, cfg.Tokens.RedisTTL))
		}

		var remote app.Fetcher
		if cfg.Tokens.ListURL != "" {
			client, err := httpclient.NewInstrumentedClient(
				httpclient.WithProviderName("tokenlist"),
				httpclient.WithRequestTimeout(cfg.Tokens.FetchTimeout),
			)
			if err != nil {
				panic("failed to create token list client: " + err.Error())
			}
			remote = tokenlist.NewFetcher(client, cfg.Tokens.ListURL)
		}

		fb, err := fallback.Tokens(chainID)
		if err != nil {
			panic(err.Error())
		}

		return app.NewUniverse(app.UniverseConfig{
			ChainID:          chainID,
			BaseToken:        cfg.Routing.BaseTokenHex(),
			MaxIntermediates: cfg.Routing.MaxIntermediates,
			Overrides:        cfg.Tokens.Intermediates,
		}, tiers, remote, fb, registry, log)
	})

	di.RegisterToken(c, tokensDI.Refresher, func(sr di.ServiceRegistry) *app.Refresher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		r, err := app.NewRefresher(tokensDI.GetUniverse(sr), cfg.Tokens.RefreshSchedule, cfg.Tokens.FetchTimeout, log)
		if err != nil {
			panic(err.Error())
		}
		return r
	})

	return nil
}

// Startup loads the universe and schedules refreshes. Overrides are
// never refreshed.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	universe := tokensDI.GetUniverse(mono.Services())
	if err := universe.Load(ctx); err != nil {
		return err
	}

	if rc := tokensDI.GetRedisClient(mono.Services()); rc != nil {
		mono.OnClose(rc.Close)
	}

	if cfg.Tokens.RefreshSchedule != "" && len(cfg.Tokens.Intermediates) == 0 {
		refresher, err := di.Resolve(mono.Services(), tokensDI.Refresher)
		if err != nil {
			return err
		}
		if err := refresher.Start(ctx); err != nil {
			return err
		}
		mono.OnClose(func() error {
			refresher.Stop()
			return nil
		})
	}

	log.Info(ctx, "tokens module started",
		"source", universe.Source(),
		"intermediates", len(universe.Intermediates()))
	return nil
}

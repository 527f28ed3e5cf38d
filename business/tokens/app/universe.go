package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashroute/business/tokens/domain"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/asset"
	"github.com/fd1az/flashroute/internal/logger"
)

// Universe sources.
const (
	SourceOverride = "override"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// UniverseConfig holds configuration for the token universe.
type UniverseConfig struct {
	ChainID   uint64
	BaseToken common.Address
	// MaxIntermediates caps the universe; zero keeps everything.
	MaxIntermediates int
	// Overrides short-circuits every other source when non-empty.
	Overrides []string
}

// Universe is the set of intermediate tokens the route search walks. It
// is read by the cycle loop and replaced by Refresh from the cron job.
type Universe struct {
	config   UniverseConfig
	tiers    []Tier
	remote   Fetcher
	fallback []domain.ListEntry
	registry *asset.Registry
	logger   logger.LoggerInterface

	mu     sync.RWMutex
	tokens []domain.Token
	source string
}

// NewUniverse creates an empty universe. remote may be nil.
func NewUniverse(cfg UniverseConfig, tiers []Tier, remote Fetcher, fallback []domain.ListEntry, registry *asset.Registry, log logger.LoggerInterface) *Universe {
	if registry == nil {
		registry = asset.NewRegistry()
	}
	return &Universe{
		config:   cfg,
		tiers:    tiers,
		remote:   remote,
		fallback: fallback,
		registry: registry,
		logger:   log,
	}
}

// Load fills the universe from the first source that yields tokens:
// overrides, each cache tier in order, the remote list, the fallback set.
func (u *Universe) Load(ctx context.Context) error {
	if len(u.config.Overrides) > 0 {
		sel := u.selectFrom(ctx, SourceOverride, domain.FromAddresses(u.config.ChainID, u.config.Overrides))
		if len(sel.Tokens) == 0 {
			return apperror.Configuration("tokens.intermediates: no usable address")
		}
		u.set(ctx, sel.Tokens, SourceOverride)
		return nil
	}

	for _, tier := range u.tiers {
		entries, err := tier.Load(ctx)
		if err != nil {
			u.logger.Warn(ctx, "token cache tier failed", "tier", tier.Name(), "error", err)
			continue
		}
		if sel := u.selectFrom(ctx, tier.Name(), entries); len(sel.Tokens) > 0 {
			u.set(ctx, sel.Tokens, tier.Name())
			return nil
		}
	}

	err := u.Refresh(ctx)
	if err == nil {
		return nil
	}
	u.logger.Warn(ctx, "remote token list unavailable, using fallback set", "error", err)

	sel := u.selectFrom(ctx, SourceFallback, u.fallback)
	if len(sel.Tokens) == 0 {
		return apperror.Configuration(fmt.Sprintf("no intermediate tokens for chain %d", u.config.ChainID))
	}
	u.set(ctx, sel.Tokens, SourceFallback)
	return nil
}

// Refresh fetches the remote list and writes it through every tier. On
// failure the current universe is kept.
func (u *Universe) Refresh(ctx context.Context) error {
	if u.remote == nil {
		return apperror.New(apperror.CodeTokenListFetchFailed, apperror.WithContext("no list url"))
	}

	entries, err := u.remote.Fetch(ctx)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeTokenListFetchFailed, "fetch token list")
	}
	sel := u.selectFrom(ctx, SourceRemote, entries)
	if len(sel.Tokens) == 0 {
		return apperror.New(apperror.CodeTokenListInvalid,
			apperror.WithContext(fmt.Sprintf("no tokens for chain %d", u.config.ChainID)))
	}

	for _, tier := range u.tiers {
		if err := tier.Store(ctx, entries); err != nil {
			u.logger.Warn(ctx, "token cache write failed", "tier", tier.Name(), "error", err)
		}
	}

	u.set(ctx, sel.Tokens, SourceRemote)
	return nil
}

// Intermediates returns a snapshot of the universe.
func (u *Universe) Intermediates() []common.Address {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]common.Address, len(u.tokens))
	for i, t := range u.tokens {
		out[i] = t.Address
	}
	return out
}

// Source names where the current universe came from.
func (u *Universe) Source() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.source
}

// Symbol returns the display symbol of addr.
func (u *Universe) Symbol(addr common.Address) string {
	return u.registry.Symbol(u.config.ChainID, addr)
}

// Lookup returns the asset for addr, 18 decimals when unknown.
func (u *Universe) Lookup(addr common.Address) *asset.Asset {
	return u.registry.Lookup(u.config.ChainID, addr)
}

func (u *Universe) selectFrom(ctx context.Context, source string, entries []domain.ListEntry) domain.Selection {
	sel := domain.Select(entries, u.config.ChainID, u.config.BaseToken, u.config.MaxIntermediates)
	for _, raw := range sel.Skipped {
		u.logger.Warn(ctx, "skipping malformed token address",
			"source", source,
			"address", raw,
			"code", apperror.CodeInvalidAddress)
	}
	return sel
}

func (u *Universe) set(ctx context.Context, tokens []domain.Token, source string) {
	for _, t := range tokens {
		if _, known := u.registry.GetToken(u.config.ChainID, t.Address); known || t.Symbol == "" {
			continue
		}
		u.registry.Register(asset.NewToken(u.config.ChainID, t.Address, t.Symbol, t.Name, t.Decimals))
	}

	u.mu.Lock()
	u.tokens = tokens
	u.source = source
	u.mu.Unlock()

	u.logger.Info(ctx, "token universe loaded", "source", source, "count", len(tokens))
}

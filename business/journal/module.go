// Package journal persists one record per cycle to the configured stores.
package journal

import (
	"context"
	"time"

	"github.com/fd1az/flashroute/business/journal/app"
	journalDI "github.com/fd1az/flashroute/business/journal/di"
	"github.com/fd1az/flashroute/business/journal/infra/clickhouse"
	"github.com/fd1az/flashroute/business/journal/infra/postgres"
	"github.com/fd1az/flashroute/business/journal/infra/sqlite"
	tokensDI "github.com/fd1az/flashroute/business/tokens/di"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/config"
	"github.com/fd1az/flashroute/internal/di"
	"github.com/fd1az/flashroute/internal/monolith"
)

const openTimeout = 15 * time.Second

// Module implements the journal bounded context.
type Module struct{}

// RegisterServices registers the journal fanout with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, journalDI.Fanout, func(sr di.ServiceRegistry) *app.Fanout {
		cfg := sr.Get("config").(*config.Config)

		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()

		stores, err := OpenStores(ctx, cfg.Journal)
		if err != nil {
			panic(err.Error())
		}

		universe := tokensDI.GetUniverse(sr)
		f, err := app.NewFanout(stores, universe.Symbol, cfg.Journal.WriteTimeout)
		if err != nil {
			panic("failed to create journal fanout: " + err.Error())
		}
		return f
	})

	return nil
}

// OpenStores opens every configured store. On failure the stores opened
// so far are closed.
func OpenStores(ctx context.Context, cfg config.JournalConfig) ([]app.Store, error) {
	var stores []app.Store
	fail := func(err error, name string) ([]app.Store, error) {
		for _, s := range stores {
			_ = s.Close()
		}
		return nil, apperror.New(apperror.CodeJournalUnavailable,
			apperror.WithContext(name), apperror.WithCause(err), apperror.WithKind(apperror.KindConfiguration))
	}

	if cfg.SQLitePath != "" {
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return fail(err, "sqlite")
		}
		stores = append(stores, s)
	}
	if cfg.PostgresDSN != "" {
		s, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return fail(err, "postgres")
		}
		stores = append(stores, s)
	}
	if cfg.ClickHouseDSN != "" {
		s, err := clickhouse.Open(ctx, cfg.ClickHouseDSN)
		if err != nil {
			return fail(err, "clickhouse")
		}
		stores = append(stores, s)
	}
	return stores, nil
}

// Startup opens the stores, registers their shutdown and logs where the
// previous run left off.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	fanout, err := di.Resolve(mono.Services(), journalDI.Fanout)
	if err != nil {
		return err
	}
	mono.OnClose(fanout.Close)

	if recs, err := fanout.Recent(ctx, 1); err == nil && len(recs) > 0 {
		last := recs[0]
		log.Info(ctx, "last journaled cycle",
			"cycle", last.CycleID,
			"started_at", last.StartedAt,
			"outcome", last.Outcome,
			"route", last.Route)
	}

	log.Info(ctx, "journal module started", "stores", fanout.Stores())
	return nil
}

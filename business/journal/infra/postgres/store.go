// Package postgres journals cycle records to PostgreSQL through pgxpool.
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fd1az/flashroute/business/journal/domain"
)

//go:embed schema.sql
var schema string

// Store is a pgx backed journal.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Name() string { return "postgres" }

// Insert is idempotent on (cycle_id, started_at).
func (s *Store) Insert(ctx context.Context, r domain.CycleRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cycle_records (
			cycle_id, started_at, duration_ms, outcome,
			amount_in, quoted_out, profit, gross_bps, needed_bps,
			route, gas_price_wei, interval_ms, tx_hash, realized_profit, reason
		) VALUES (
			$1, $2, $3, $4,
			NULLIF($5, '')::numeric, NULLIF($6, '')::numeric, NULLIF($7, '')::numeric, $8, $9,
			$10, NULLIF($11, '')::numeric, $12, $13, NULLIF($14, '')::numeric, $15
		)
		ON CONFLICT (cycle_id, started_at) DO NOTHING`,
		int64(r.CycleID), r.StartedAt, r.DurationMs, r.Outcome,
		r.AmountIn, r.QuotedOut, r.Profit, r.GrossBps, r.NeededBps,
		r.Route, r.GasPriceWei, r.IntervalMs, r.TxHash, r.RealizedProfit, r.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert cycle record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.CycleRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cycle_id, started_at, duration_ms, outcome,
			COALESCE(amount_in::text, ''), COALESCE(quoted_out::text, ''), COALESCE(profit::text, ''),
			gross_bps, needed_bps, route, COALESCE(gas_price_wei::text, ''),
			interval_ms, tx_hash, COALESCE(realized_profit::text, ''), reason
		FROM cycle_records
		ORDER BY started_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycle records: %w", err)
	}
	defer rows.Close()

	var out []domain.CycleRecord
	for rows.Next() {
		var (
			r       domain.CycleRecord
			cycleID int64
		)
		if err := rows.Scan(
			&cycleID, &r.StartedAt, &r.DurationMs, &r.Outcome,
			&r.AmountIn, &r.QuotedOut, &r.Profit, &r.GrossBps, &r.NeededBps,
			&r.Route, &r.GasPriceWei, &r.IntervalMs, &r.TxHash, &r.RealizedProfit, &r.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan cycle record: %w", err)
		}
		r.CycleID = uint64(cycleID)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

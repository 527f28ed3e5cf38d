// Package sqlite is the default local journal store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fd1az/flashroute/business/journal/domain"
)

//go:embed schema.sql
var schema string

// Store writes cycle records to a sqlite file.
type Store struct {
	db *sql.DB
}

// Open opens path, creating the file and schema when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; the cycle loop is sequential
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Name() string { return "sqlite" }

func (s *Store) Insert(ctx context.Context, r domain.CycleRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycle_records (
			cycle_id, started_at, duration_ms, outcome,
			amount_in, quoted_out, profit, gross_bps, needed_bps,
			route, gas_price_wei, interval_ms, tx_hash, realized_profit, reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CycleID, r.StartedAt, r.DurationMs, r.Outcome,
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT cycle_id, started_at, duration_ms, outcome,
			amount_in, quoted_out, profit, gross_bps, needed_bps,
			route, gas_price_wei, interval_ms, tx_hash, realized_profit, reason
		FROM cycle_records
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycle records: %w", err)
	}
	defer rows.Close()

	var out []domain.CycleRecord
	for rows.Next() {
		var r domain.CycleRecord
		if err := rows.Scan(
			&r.CycleID, &r.StartedAt, &r.DurationMs, &r.Outcome,
			&r.AmountIn, &r.QuotedOut, &r.Profit, &r.GrossBps, &r.NeededBps,
			&r.Route, &r.GasPriceWei, &r.IntervalMs, &r.TxHash, &r.RealizedProfit, &r.Reason,
		); err != nil {
			return nil, fmt.Errorf("scan cycle record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

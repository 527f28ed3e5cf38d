// Package app fans cycle reports out to the configured journal stores.
package app

import (
	"context"

	"github.com/fd1az/flashroute/business/journal/domain"
)

// Store persists cycle records.
type Store interface {
	Name() string
	Insert(ctx context.Context, rec domain.CycleRecord) error
	Close() error
}

// Querier reads recent records, newest first.
type Querier interface {
	Recent(ctx context.Context, limit int) ([]domain.CycleRecord, error)
}

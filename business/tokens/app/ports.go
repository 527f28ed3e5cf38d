// Package app contains the token universe and its refresher.
package app

import (
	"context"

	"github.com/fd1az/flashroute/business/tokens/domain"
)

// Tier is a cache level that can both serve and store a token list.
// A miss is (nil, nil).
type Tier interface {
	Name() string
	Load(ctx context.Context) ([]domain.ListEntry, error)
	Store(ctx context.Context, entries []domain.ListEntry) error
}

// Fetcher downloads the remote token list.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.ListEntry, error)
}

package filecache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/business/tokens/domain"
)

func TestCache_RoundTripFiltersChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	c := New(path, 42161, 0)
	ctx := context.Background()

	got, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Store(ctx, []domain.ListEntry{
		{ChainID: 42161, Address: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", Symbol: "USDC", Decimals: 6},
		{ChainID: 1, Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Decimals: 6},
	}))

	got, err = c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint8(6), got[0].Decimals)

	other := New(path, 10, 0)
	got, err = other.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_Stale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	c := New(path, 42161, time.Hour)
	require.NoError(t, c.Store(context.Background(), []domain.ListEntry{{ChainID: 42161, Address: "0x01"}}))

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	got, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path, 42161, 0).Load(context.Background())
	assert.Error(t, err)
}

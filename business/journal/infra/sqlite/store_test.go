package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/business/journal/domain"
)

func TestStore_InsertAndRecent(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "data", "journal.db"))
	require.NoError(t, err)
	defer s.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Insert(ctx, domain.CycleRecord{
			CycleID:     uint64(i),
			StartedAt:   base.Add(time.Duration(i) * time.Second),
			DurationMs:  120,
			Outcome:     "rejected",
			AmountIn:    "10000000000000",
			QuotedOut:   "10050000000000",
			Profit:      "50000000000",
			GrossBps:    50,
			NeededBps:   109,
			Route:       "CL->CP 1-1 WETH>USDC@500 | USDC>WETH",
			GasPriceWei: "100",
			IntervalMs:  3500,
			Reason:      "below required",
		}))
	}

	recs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(3), recs[0].CycleID)
	assert.Equal(t, uint64(2), recs[1].CycleID)
	assert.True(t, recs[0].StartedAt.Equal(base.Add(3*time.Second)))
	assert.Equal(t, "CL->CP 1-1 WETH>USDC@500 | USDC>WETH", recs[0].Route)
	assert.Equal(t, int64(109), recs[0].NeededBps)
	assert.Equal(t, "below required", recs[0].Reason)
}

func TestOpen_ReappliesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, domain.CycleRecord{CycleID: 1, StartedAt: time.Now(), Outcome: "no_route"}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

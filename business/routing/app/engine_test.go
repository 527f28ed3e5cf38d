package app

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/logger"
	"github.com/fd1az/flashroute/internal/ratelimit"
)

func newTestEngine(t *testing.T, q QuoteAdapter, twoHop bool, concurrency int) *Engine {
	t.Helper()
	e, err := NewEngine(q, ratelimit.New(0, 1), EngineConfig{
		BaseToken:     weth,
		FeeTiers:      []domain.FeeTier{500, 3000},
		Pairings:      domain.Pairings,
		TwoHop:        twoHop,
		MaxConcurrent: concurrency,
		QuoteTimeout:  time.Second,
	}, logger.NewNop())
	require.NoError(t, err)
	return e
}

func TestEngine_EnumerateOrderAndCount(t *testing.T) {
	e := newTestEngine(t, newFakeQuotes(), false, 4)

	routes := e.Enumerate([]common.Address{usdc, weth, arb, gmx})
	// CL->CL 3*2*2, CP->CP 3, CL->CP 3*2, CP->CL 3*2
	require.Len(t, routes, 27)

	for i, r := range routes {
		assert.Equal(t, i, r.Priority)
		assert.Equal(t, weth, r.LegA.TokenIn())
		assert.Equal(t, weth, r.LegB.TokenOut())
		assert.Equal(t, r.LegA.TokenOut(), r.LegB.TokenIn())
	}

	first, second := routes[0], routes[1]
	assert.Equal(t, "CL->CL", first.Pairing.String())
	assert.Equal(t, usdc, first.LegA.TokenOut())
	assert.Equal(t, []domain.FeeTier{500}, first.LegA.Fees)
	assert.Equal(t, []domain.FeeTier{500}, first.LegB.Fees)
	assert.Equal(t, []domain.FeeTier{3000}, second.LegB.Fees, "leg B fee varies fastest")

	assert.Equal(t, "CP->CP", routes[12].Pairing.String())
	assert.Equal(t, "CP->CL", routes[26].Pairing.String())
}

func TestEngine_EnumerateTwoHop(t *testing.T) {
	e := newTestEngine(t, newFakeQuotes(), true, 4)

	routes := e.Enumerate([]common.Address{usdc, arb, gmx})
	// one-hop 27 plus 6 ordered pairs: CL->CL 24, CP->CP 6, cross 12+12
	require.Len(t, routes, 81)

	var twoTwo int
	for _, r := range routes {
		if r.Shape != domain.ShapeTwoTwo {
			continue
		}
		twoTwo++
		require.Len(t, r.LegA.Tokens, 3)
		assert.Equal(t, r.LegA.Tokens[1], r.LegB.Tokens[1], "legs chain through the token pair")
		assert.NotEqual(t, r.LegA.Tokens[1], r.LegA.Tokens[2])
		if r.LegA.Venue == domain.VenueConcentrated {
			assert.Len(t, r.LegA.Data, domain.ConcentratedPathLen(3))
		}
	}
	assert.Equal(t, 54, twoTwo)
}

func TestEngine_SearchPicksHighestQB(t *testing.T) {
	orders := [][]common.Address{
		{usdc, arb, gmx},
		{gmx, arb, usdc},
		{arb, gmx, usdc},
	}

	for _, mids := range orders {
		q := newFakeQuotes()
		// Two target routes.
		q.setCL(2_000, 500, weth, usdc)
		q.setCP(1_100, usdc, weth)
		q.setCP(3_000, weth, arb)
		q.setCL(1_200, 3000, arb, weth)
		// Lower decoys everywhere else.
		q.setCL(4_000, 3000, weth, gmx)
		q.setCL(1_050, 500, gmx, weth)
		q.setCP(1_010, gmx, weth)
		q.setCL(1_090, 3000, usdc, weth)

		e := newTestEngine(t, q, false, 8)
		best, stats, err := e.Search(context.Background(), big.NewInt(1_000), mids)
		require.NoError(t, err)
		require.NotNil(t, best)

		assert.Equal(t, int64(1_200), best.QuotedOutB.Int64())
		assert.Equal(t, int64(3_000), best.QuotedOutA.Int64())
		assert.Equal(t, "CP->CL", best.Pairing.String())
		assert.Equal(t, arb, best.LegA.TokenOut())
		assert.Equal(t, int64(200), best.Profit().Int64())
		assert.Equal(t, 27, stats.Enumerated)
		assert.Equal(t, stats.Enumerated, stats.Quoted+stats.NoRoute+stats.Failed)
	}
}

func TestEngine_SearchTieKeepsLowestPriority(t *testing.T) {
	q := newFakeQuotes()
	q.setCL(2_000, 500, weth, usdc)
	q.setCL(1_500, 500, usdc, weth)
	q.setCP(2_000, weth, arb)
	q.setCP(1_500, arb, weth)

	for i := 0; i < 20; i++ {
		e := newTestEngine(t, q, false, 8)
		best, _, err := e.Search(context.Background(), big.NewInt(1_000), []common.Address{usdc, arb})
		require.NoError(t, err)
		require.NotNil(t, best)
		assert.Equal(t, "CL->CL", best.Pairing.String(), "tie must go to the earlier pairing")
		assert.Equal(t, usdc, best.LegA.TokenOut())
	}
}

func TestEngine_SearchMemoizesLegA(t *testing.T) {
	q := newFakeQuotes()
	q.setCL(2_000, 500, weth, usdc)

	e := newTestEngine(t, q, false, 8)
	_, _, err := e.Search(context.Background(), big.NewInt(1_000), []common.Address{usdc})
	require.NoError(t, err)

	// WETH>USDC@500 is leg A of CL->CL (two leg B fees) and CL->CP.
	assert.Equal(t, 1, q.callsFor(clKey([]common.Address{weth, usdc}, 500)))
}

func TestEngine_SearchContainsFailures(t *testing.T) {
	q := newFakeQuotes()
	q.setCP(2_000, weth, usdc)
	q.setCP(1_300, usdc, weth)
	q.setCP(2_000, weth, arb)
	q.fail[cpKey([]common.Address{arb, weth})] = errors.New("connection refused")

	e := newTestEngine(t, q, false, 2)
	best, stats, err := e.Search(context.Background(), big.NewInt(1_000), []common.Address{usdc, arb})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, int64(1_300), best.QuotedOutB.Int64())
	assert.Equal(t, 1, stats.Failed)
}

func TestEngine_SearchNoRoute(t *testing.T) {
	q := newFakeQuotes()
	q.fail[cpKey([]common.Address{weth, usdc})] = errors.New("circuit open")

	e := newTestEngine(t, q, true, 4)
	best, stats, err := e.Search(context.Background(), big.NewInt(1_000), []common.Address{usdc, arb})
	require.NoError(t, err, "no route is not an error")
	assert.Nil(t, best)
	assert.Zero(t, stats.Quoted)
	assert.Positive(t, stats.NoRoute)
}

func TestEngine_SearchRejectsBadAmount(t *testing.T) {
	e := newTestEngine(t, newFakeQuotes(), false, 1)
	_, _, err := e.Search(context.Background(), big.NewInt(0), []common.Address{usdc})
	require.Error(t, err)
}

func TestEngine_SearchCancelled(t *testing.T) {
	q := newFakeQuotes()
	q.delay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(t, q, false, 2)
	best, _, err := e.Search(ctx, big.NewInt(1_000), []common.Address{usdc, arb})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, best)
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(newFakeQuotes(), nil, EngineConfig{Pairings: domain.Pairings}, logger.NewNop())
	assert.Error(t, err, "missing base token")

	_, err = NewEngine(newFakeQuotes(), nil, EngineConfig{BaseToken: weth}, logger.NewNop())
	assert.Error(t, err, "no pairings")

	_, err = NewEngine(newFakeQuotes(), nil, EngineConfig{BaseToken: weth, Pairings: domain.Pairings}, logger.NewNop())
	assert.Error(t, err, "concentrated venue without fee tiers")

	_, err = NewEngine(newFakeQuotes(), nil, EngineConfig{
		BaseToken: weth,
		Pairings:  domain.EnabledPairings(false, true),
	}, logger.NewNop())
	assert.NoError(t, err)
}

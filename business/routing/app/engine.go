package app

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/apm"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/logger"
	"github.com/fd1az/flashroute/internal/ratelimit"
)

// EngineConfig holds the enumeration space.
type EngineConfig struct {
	BaseToken     common.Address
	FeeTiers      []domain.FeeTier
	Pairings      []domain.Pairing
	TwoHop        bool
	MaxConcurrent int
	QuoteTimeout  time.Duration
}

// Engine enumerates round trips and finds the best quoted candidate for
// an input amount.
type Engine struct {
	quotes  QuoteAdapter
	limiter *ratelimit.Limiter
	config  EngineConfig
	logger  logger.LoggerInterface
	tracer  apm.Tracer
}

// NewEngine creates an Engine. A nil limiter means unlimited.
func NewEngine(quotes QuoteAdapter, limiter *ratelimit.Limiter, cfg EngineConfig, log logger.LoggerInterface) (*Engine, error) {
	if cfg.BaseToken == (common.Address{}) {
		return nil, apperror.Configuration("engine: base token is required")
	}
	if len(cfg.Pairings) == 0 {
		return nil, apperror.Configuration("engine: no venue pairing enabled")
	}
	if len(cfg.FeeTiers) == 0 {
		for _, p := range cfg.Pairings {
			if p.A == domain.VenueConcentrated || p.B == domain.VenueConcentrated {
				return nil, apperror.Configuration("engine: concentrated venue enabled without fee tiers")
			}
		}
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if limiter == nil {
		limiter = ratelimit.New(0, 1)
	}

	return &Engine{
		quotes:  quotes,
		limiter: limiter,
		config:  cfg,
		logger:  log,
		tracer:  apm.NewTracer("routing.engine"),
	}, nil
}

// Enumerate lists every route in priority order: pairing, then shape,
// then intermediates in universe order, then leg A fee, then leg B fee.
// Intermediates equal to the base token are skipped.
func (e *Engine) Enumerate(intermediates []common.Address) []domain.Route {
	base := e.config.BaseToken

	mids := make([]common.Address, 0, len(intermediates))
	for _, m := range intermediates {
		if m != base && m != (common.Address{}) {
			mids = append(mids, m)
		}
	}

	var routes []domain.Route
	add := func(p domain.Pairing, shape domain.Shape, pathA, pathB, used []common.Address) {
		for _, feeA := range e.feesFor(p.A) {
			for _, feeB := range e.feesFor(p.B) {
				legA, err := domain.NewLeg(p.A, pathA, feeA)
				if err != nil {
					continue
				}
				legB, err := domain.NewLeg(p.B, pathB, feeB)
				if err != nil {
					continue
				}
				r, err := domain.NewRoute(len(routes), shape, base, legA, legB, used)
				if err != nil {
					continue
				}
				routes = append(routes, r)
			}
		}
	}

	for _, p := range e.config.Pairings {
		for _, mid := range mids {
			add(p, domain.ShapeOneOne,
				[]common.Address{base, mid},
				[]common.Address{mid, base},
				[]common.Address{mid})
		}

		if !e.config.TwoHop {
			continue
		}
		for _, mid := range mids {
			for _, mid2 := range mids {
				if mid == mid2 {
					continue
				}
				add(p, domain.ShapeTwoTwo,
					[]common.Address{base, mid, mid2},
					[]common.Address{mid2, mid, base},
					[]common.Address{mid, mid2})
			}
		}
	}

	return routes
}

func (e *Engine) feesFor(v domain.VenueKind) []domain.FeeTier {
	if v == domain.VenueConcentrated {
		return e.config.FeeTiers
	}
	return []domain.FeeTier{0}
}

type legQuote struct {
	once sync.Once
	res  domain.QuoteResult
	err  error
}

// Search quotes every enumerated route for amountIn and returns the one
// with the highest qb, ties to the lowest priority. A nil candidate with
// a nil error means no route quoted. Per-route failures never abort the
// search; only a cancelled ctx does.
func (e *Engine) Search(ctx context.Context, amountIn *big.Int, intermediates []common.Address) (*domain.RouteCandidate, domain.SearchStats, error) {
	ctx, span := e.tracer.StartSpanFromContext(ctx, "routing.search")
	defer span.End()

	start := time.Now()
	var stats domain.SearchStats

	if amountIn == nil || amountIn.Sign() <= 0 {
		err := apperror.New(apperror.CodeInvalidAmount, apperror.WithContext(fmt.Sprintf("amountIn %v", amountIn)))
		span.NoticeError(err)
		return nil, stats, err
	}

	routes := e.Enumerate(intermediates)
	stats.Enumerated = len(routes)
	span.SetAttributes(
		attribute.String("amount_in", amountIn.String()),
		attribute.Int("routes", len(routes)),
	)

	var (
		memoMu   sync.Mutex
		memo     = make(map[string]*legQuote)
		results  = make([]*domain.RouteCandidate, len(routes))
		noRoute  atomic.Int64
		failures atomic.Int64
	)

	quoteA := func(ctx context.Context, leg domain.SwapLeg) (domain.QuoteResult, error) {
		memoMu.Lock()
		q, ok := memo[leg.Key()]
		if !ok {
			q = &legQuote{}
			memo[leg.Key()] = q
		}
		memoMu.Unlock()

		q.once.Do(func() {
			q.res, q.err = e.quoteLeg(ctx, leg, amountIn)
		})
		return q.res, q.err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.MaxConcurrent)

	for i := range routes {
		r := routes[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			resA, err := quoteA(gctx, r.LegA)
			if err != nil {
				failures.Add(1)
				return nil
			}
			if !resA.OK() {
				noRoute.Add(1)
				return nil
			}

			resB, err := e.quoteLeg(gctx, r.LegB, resA.AmountOut)
			if err != nil {
				failures.Add(1)
				return nil
			}
			if !resB.OK() {
				noRoute.Add(1)
				return nil
			}

			results[i] = &domain.RouteCandidate{
				Route:      r,
				AmountIn:   new(big.Int).Set(amountIn),
				QuotedOutA: resA.AmountOut,
				QuotedOutB: resB.AmountOut,
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.NoRoute = int(noRoute.Load())
	stats.Failed = int(failures.Load())
	stats.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		span.NoticeError(err)
		return nil, stats, err
	}

	var best *domain.RouteCandidate
	for _, c := range results {
		if c == nil {
			continue
		}
		stats.Quoted++
		if c.BetterThan(best) {
			best = c
		}
	}

	span.SetAttributes(
		attribute.Int("quoted", stats.Quoted),
		attribute.Int("no_route", stats.NoRoute),
		attribute.Int("failed", stats.Failed),
	)

	if best == nil {
		span.Ok("no route")
		e.logger.Debug(ctx, "search found no route",
			"amount_in", amountIn.String(),
			"enumerated", stats.Enumerated,
			"no_route", stats.NoRoute,
			"failed", stats.Failed,
		)
		return nil, stats, nil
	}

	span.SetAttributes(
		attribute.Int("best_priority", best.Priority),
		attribute.String("best_qb", best.QuotedOutB.String()),
	)
	span.Ok("found")
	return best, stats, nil
}

func (e *Engine) quoteLeg(ctx context.Context, leg domain.SwapLeg, amountIn *big.Int) (domain.QuoteResult, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return domain.QuoteResult{}, err
	}

	if e.config.QuoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.QuoteTimeout)
		defer cancel()
	}

	var (
		res domain.QuoteResult
		err error
	)
	switch leg.Venue {
	case domain.VenueConcentrated:
		res, err = e.quotes.QuoteConcentrated(ctx, leg.Data, amountIn)
	case domain.VenueConstantProduct:
		res, err = e.quotes.QuoteConstantProduct(ctx, leg.Tokens, amountIn)
	default:
		return domain.QuoteResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("venue %s", leg.Venue)))
	}
	if err != nil {
		e.logger.Debug(ctx, "quote failed", "leg", leg.Key(), "error", err)
		return domain.QuoteResult{}, err
	}
	return res, nil
}

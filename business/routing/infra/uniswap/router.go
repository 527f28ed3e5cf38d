package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/circuitbreaker"
	"github.com/fd1az/flashroute/internal/logger"
	"github.com/fd1az/flashroute/internal/revert"
)

// Router prices token lists on the constant-product venue.
type Router struct {
	client    ContractCaller
	address   common.Address
	routerABI abi.ABI

	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *quoteMetrics
}

// NewRouter creates a V2 router client.
func NewRouter(client ContractCaller, address common.Address, log logger.LoggerInterface) (*Router, error) {
	parsedABI, err := abi.JSON(strings.NewReader(RouterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	r := &Router{
		client:    client,
		address:   address,
		routerABI: parsedABI,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("v2-router")
	cbCfg.IsSuccessful = revert.Healthy
	r.cb = circuitbreaker.New[[]byte](cbCfg)

	r.metrics, err = newQuoteMetrics("constant_product")
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return r, nil
}

// Quote calls getAmountsOut(amountIn, tokens); the last amount is the output.
func (r *Router) Quote(ctx context.Context, tokens []common.Address, amountIn *big.Int) (domain.QuoteResult, error) {
	ctx, span := r.tracer.Start(ctx, "uniswap.get_amounts_out",
		trace.WithAttributes(
			attribute.Int("hops", len(tokens)-1),
			attribute.String("amount_in", amountIn.String()),
		),
	)
	defer span.End()

	start := time.Now()
	r.metrics.quotesTotal.Add(ctx, 1)
	defer func() {
		r.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}()

	if len(tokens) < 2 {
		return domain.QuoteResult{}, apperror.New(apperror.CodeShapeMismatch,
			apperror.WithContext(fmt.Sprintf("%d tokens", len(tokens))))
	}

	callData, err := r.routerABI.Pack(methodGetAmountsOut, amountIn, tokens)
	if err != nil {
		span.RecordError(err)
		return domain.QuoteResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContext("encode getAmountsOut"))
	}

	result, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{
			To:   &r.address,
			Data: callData,
		}, nil)
	})
	if reason, reverted := revert.Reason(err); reverted {
		r.metrics.noRoute.Add(ctx, 1)
		span.AddEvent("no_route", trace.WithAttributes(attribute.String("reason", reason)))
		span.SetStatus(codes.Ok, "no route")
		return domain.NoRoute(reason), nil
	}
	if err != nil {
		r.metrics.quoteErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "router call failed")
		return domain.QuoteResult{}, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithCause(err),
			apperror.WithContext("getAmountsOut"))
	}

	outputs, err := r.routerABI.Unpack(methodGetAmountsOut, result)
	if err != nil || len(outputs) != 1 {
		r.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "decode failed")
		return domain.QuoteResult{}, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("getAmountsOut returned %d bytes", len(result))))
	}

	amounts, ok := outputs[0].([]*big.Int)
	if !ok || len(amounts) != len(tokens) {
		r.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "unexpected amounts")
		return domain.QuoteResult{}, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext(fmt.Sprintf("%d amounts for %d tokens", len(amounts), len(tokens))))
	}

	amountOut := amounts[len(amounts)-1]
	if amountOut.Sign() == 0 {
		r.metrics.noRoute.Add(ctx, 1)
		span.SetStatus(codes.Ok, "zero output")
		return domain.NoRoute("zero output"), nil
	}

	span.SetAttributes(attribute.String("amount_out", amountOut.String()))
	span.SetStatus(codes.Ok, "quote received")

	return domain.Quoted(amountOut, 0), nil
}

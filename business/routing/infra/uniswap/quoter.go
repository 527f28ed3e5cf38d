package uniswap

import (
	"context"
	"encoding/hex"
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
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/circuitbreaker"
	"github.com/fd1az/flashroute/internal/logger"
	"github.com/fd1az/flashroute/internal/revert"
)

// quoteMetrics holds OTEL metric instruments shared by both venues.
type quoteMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	noRoute      metric.Int64Counter
	quoteErrors  metric.Int64Counter
}

func newQuoteMetrics(prefix string) (*quoteMetrics, error) {
	meter := otel.Meter(meterName)
	m := &quoteMetrics{}
	var err error

	m.quotesTotal, err = meter.Int64Counter(
		prefix+"_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return nil, err
	}

	m.quoteLatency, err = meter.Float64Histogram(
		prefix+"_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.noRoute, err = meter.Int64Counter(
		prefix+"_quote_no_route_total",
		metric.WithDescription("Quotes that reverted with no route"),
	)
	if err != nil {
		return nil, err
	}

	m.quoteErrors, err = meter.Int64Counter(
		prefix+"_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Quoter prices packed multi-hop paths on the concentrated-liquidity venue.
type Quoter struct {
	client    ContractCaller
	address   common.Address
	quoterABI abi.ABI

	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *quoteMetrics
}

// NewQuoter creates a QuoterV2 client.
func NewQuoter(client ContractCaller, address common.Address, log logger.LoggerInterface) (*Quoter, error) {
	parsedABI, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quoter ABI: %w", err)
	}

	q := &Quoter{
		client:    client,
		address:   address,
		quoterABI: parsedABI,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("uniswap-quoter")
	cbCfg.IsSuccessful = revert.Healthy
	q.cb = circuitbreaker.New[[]byte](cbCfg)

	q.metrics, err = newQuoteMetrics("concentrated")
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return q, nil
}

// Quote calls quoteExactInput(path, amountIn). A revert is a NoRoute result.
func (q *Quoter) Quote(ctx context.Context, path []byte, amountIn *big.Int) (domain.QuoteResult, error) {
	ctx, span := q.tracer.Start(ctx, "uniswap.quote_exact_input",
		trace.WithAttributes(
			attribute.String("path", hex.EncodeToString(path)),
			attribute.String("amount_in", amountIn.String()),
		),
	)
	defer span.End()

	start := time.Now()
	q.metrics.quotesTotal.Add(ctx, 1)
	defer func() {
		q.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}()

	callData, err := q.quoterABI.Pack(methodQuoteExactInput, path, amountIn)
	if err != nil {
		span.RecordError(err)
		return domain.QuoteResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContext("encode quoteExactInput"))
	}

	result, err := q.cb.Execute(func() ([]byte, error) {
		return q.client.CallContract(ctx, ethereum.CallMsg{
			To:   &q.address,
			Data: callData,
		}, nil)
	})
	if reason, reverted := revert.Reason(err); reverted {
		q.metrics.noRoute.Add(ctx, 1)
		span.AddEvent("no_route", trace.WithAttributes(attribute.String("reason", reason)))
		span.SetStatus(codes.Ok, "no route")
		return domain.NoRoute(reason), nil
	}
	if err != nil {
		q.metrics.quoteErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "quoter call failed")
		return domain.QuoteResult{}, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithCause(err),
			apperror.WithContext("quoteExactInput"))
	}

	outputs, err := q.quoterABI.Unpack(methodQuoteExactInput, result)
	if err != nil || len(outputs) < 4 {
		q.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "decode failed")
		return domain.QuoteResult{}, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("quoteExactInput returned %d bytes", len(result))))
	}

	amountOut, _ := outputs[0].(*big.Int)
	gasEstimate, _ := outputs[3].(*big.Int)
	if amountOut == nil || amountOut.Sign() == 0 {
		q.metrics.noRoute.Add(ctx, 1)
		span.SetStatus(codes.Ok, "zero output")
		return domain.NoRoute("zero output"), nil
	}

	var gas uint64
	if gasEstimate != nil && gasEstimate.IsUint64() {
		gas = gasEstimate.Uint64()
	}

	span.SetAttributes(
		attribute.String("amount_out", amountOut.String()),
		attribute.Int64("gas_estimate", int64(gas)),
	)
	span.SetStatus(codes.Ok, "quote received")

	return domain.Quoted(amountOut, gas), nil
}

package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashroute/business/blockchain/domain"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/cache"
	"github.com/fd1az/flashroute/internal/circuitbreaker"
	"github.com/fd1az/flashroute/internal/logger"
)

// FeeClient is the slice of ethclient.Client the fee oracle needs.
type FeeClient interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// FeeOracleConfig holds configuration for the fee oracle.
type FeeOracleConfig struct {
	CacheTTL    time.Duration
	FallbackTip *big.Int // used when eth_maxPriorityFeePerGas is unsupported
	MaxGasPrice *big.Int // nil disables the cap
}

// DefaultFeeOracleConfig uses a 0.2 gwei fallback tip and no cap.
func DefaultFeeOracleConfig() FeeOracleConfig {
	return FeeOracleConfig{
		CacheTTL:    2 * time.Second,
		FallbackTip: big.NewInt(200_000_000),
	}
}

type feeOracleMetrics struct {
	fetches      metric.Int64Counter
	gasPriceGwei metric.Float64Gauge
	tipFallbacks metric.Int64Counter
	legacyUsed   metric.Int64Counter
	unavailable  metric.Int64Counter
	cacheHits    metric.Int64Counter
}

// FeeOracle serves EIP-1559 fee data, falling back to the legacy gas
// price when the head has no base fee or cannot be read.
type FeeOracle struct {
	config FeeOracleConfig
	client FeeClient
	logger logger.LoggerInterface

	cache *cache.Cache[*domain.FeeQuote]

	headCB   *circuitbreaker.CircuitBreaker[*types.Header]
	tipCB    *circuitbreaker.CircuitBreaker[*big.Int]
	legacyCB *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  trace.Tracer
	metrics *feeOracleMetrics
}

// NewFeeOracle creates a fee oracle over client.
func NewFeeOracle(cfg FeeOracleConfig, client FeeClient, log logger.LoggerInterface) (*FeeOracle, error) {
	if client == nil {
		return nil, apperror.Configuration("fee oracle: nil client")
	}
	if cfg.FallbackTip == nil {
		cfg.FallbackTip = DefaultFeeOracleConfig().FallbackTip
	}

	o := &FeeOracle{
		config: cfg,
		client: client,
		logger: log,
		cache:  cache.New[*domain.FeeQuote](time.Minute),
		tracer: otel.Tracer(tracerName),
	}

	if err := o.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	o.initCircuitBreakers()

	return o, nil
}

func (o *FeeOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	o.metrics = &feeOracleMetrics{}

	o.metrics.fetches, err = meter.Int64Counter(
		"fee_fetches_total",
		metric.WithDescription("Total fee data fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	o.metrics.gasPriceGwei, err = meter.Float64Gauge(
		"fee_gas_price_gwei",
		metric.WithDescription("Effective gas price fed to the profitability gate"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	o.metrics.tipFallbacks, err = meter.Int64Counter(
		"fee_tip_fallbacks_total",
		metric.WithDescription("Times the fallback priority fee was used"),
	)
	if err != nil {
		return err
	}

	o.metrics.legacyUsed, err = meter.Int64Counter(
		"fee_legacy_total",
		metric.WithDescription("Times the legacy gas price was used"),
	)
	if err != nil {
		return err
	}

	o.metrics.unavailable, err = meter.Int64Counter(
		"fee_unavailable_total",
		metric.WithDescription("Times no fee data could be obtained"),
	)
	if err != nil {
		return err
	}

	o.metrics.cacheHits, err = meter.Int64Counter(
		"fee_cache_hits_total",
		metric.WithDescription("Fee quote cache hits"),
		metric.WithUnit("{hit}"),
	)
	return err
}

func (o *FeeOracle) initCircuitBreakers() {
	onChange := func(name string, from, to gobreaker.State) {
		o.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	headCfg := circuitbreaker.DefaultConfig("fee-head")
	headCfg.OnStateChange = onChange
	o.headCB = circuitbreaker.New[*types.Header](headCfg)

	tipCfg := circuitbreaker.DefaultConfig("fee-tip")
	tipCfg.OnStateChange = onChange
	o.tipCB = circuitbreaker.New[*big.Int](tipCfg)

	legacyCfg := circuitbreaker.DefaultConfig("fee-legacy")
	legacyCfg.OnStateChange = onChange
	o.legacyCB = circuitbreaker.New[*big.Int](legacyCfg)
}

// CurrentFees returns the fee quote for this cycle. The error is
// FEE_DATA_UNAVAILABLE only when both the EIP-1559 and legacy paths fail.
func (o *FeeOracle) CurrentFees(ctx context.Context) (*domain.FeeQuote, error) {
	ctx, span := o.tracer.Start(ctx, "fees.current")
	defer span.End()

	if q, ok := o.cache.Get(ctx, "current"); ok {
		o.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return q, nil
	}
	o.metrics.fetches.Add(ctx, 1)

	q, dynErr := o.dynamic(ctx)
	if dynErr != nil {
		span.AddEvent("legacy_fallback", trace.WithAttributes(attribute.String("reason", dynErr.Error())))
		price, err := o.legacyCB.Execute(func() (*big.Int, error) {
			return o.client.SuggestGasPrice(ctx)
		})
		if err != nil {
			o.metrics.unavailable.Add(ctx, 1)
			span.RecordError(err)
			span.SetStatus(codes.Error, "fee data unavailable")
			return nil, apperror.New(apperror.CodeFeeDataUnavailable,
				apperror.WithCause(errors.Join(dynErr, err)))
		}
		o.metrics.legacyUsed.Add(ctx, 1)
		q = domain.NewLegacyFeeQuote(price)
	}

	if capped, ok := q.Capped(o.config.MaxGasPrice); ok {
		o.logger.Warn(ctx, "gas price exceeds cap",
			"wei", q.GasPrice.String(), "cap", o.config.MaxGasPrice.String())
		q = capped
	}

	if o.config.CacheTTL > 0 {
		o.cache.Set(ctx, "current", q, o.config.CacheTTL)
	}
	o.metrics.gasPriceGwei.Record(ctx, q.Gwei())

	span.SetAttributes(
		attribute.String("source", string(q.Source)),
		attribute.Float64("gwei", q.Gwei()),
	)
	span.SetStatus(codes.Ok, "fetched")
	return q, nil
}

func (o *FeeOracle) dynamic(ctx context.Context) (*domain.FeeQuote, error) {
	header, err := o.headCB.Execute(func() (*types.Header, error) {
		return o.client.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("latest header"))
	}
	if header.BaseFee == nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContext("head has no base fee"))
	}

	tip, err := o.tipCB.Execute(func() (*big.Int, error) {
		return o.client.SuggestGasTipCap(ctx)
	})
	if err != nil {
		o.metrics.tipFallbacks.Add(ctx, 1)
		o.logger.Debug(ctx, "priority fee unavailable, using fallback",
			"error", err, "fallback_wei", o.config.FallbackTip.String())
		tip = o.config.FallbackTip
	}

	return domain.NewDynamicFeeQuote(header.BaseFee, tip), nil
}

// Close releases the cache janitor.
func (o *FeeOracle) Close() error {
	o.cache.Close()
	return nil
}

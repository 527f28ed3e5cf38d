// Package ethereum provides the chain adapters for fee data and heads.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashroute/business/blockchain/domain"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/circuitbreaker"
	"github.com/fd1az/flashroute/internal/logger"
)

const (
	tracerName = "github.com/fd1az/flashroute/business/blockchain/infra/ethereum"
	meterName  = "github.com/fd1az/flashroute/business/blockchain/infra/ethereum"
)

// HeadWatcherConfig holds configuration for the head watcher.
type HeadWatcherConfig struct {
	WSURL          string        // websocket endpoint, optional
	HTTPURL        string        // polling fallback
	PollInterval   time.Duration // HTTP polling period
	ReconnectDelay time.Duration
	BufferSize     int
}

// DefaultHeadWatcherConfig polls every 2s, close to Arbitrum's head cadence
// as seen through most public RPCs.
func DefaultHeadWatcherConfig(wsURL, httpURL string) HeadWatcherConfig {
	return HeadWatcherConfig{
		WSURL:          wsURL,
		HTTPURL:        httpURL,
		PollInterval:   2 * time.Second,
		ReconnectDelay: 5 * time.Second,
		BufferSize:     16,
	}
}

type headWatcherMetrics struct {
	blocksReceived   metric.Int64Counter
	subscribeErrors  metric.Int64Counter
	connectionState  metric.Int64Gauge
	blockLatency     metric.Float64Histogram
	httpFallbackUsed metric.Int64Counter
}

// HeadWatcher follows chain heads over a websocket subscription and falls
// back to HTTP polling when the socket is unavailable.
type HeadWatcher struct {
	config HeadWatcherConfig
	logger logger.LoggerInterface

	wsClient   *ethclient.Client
	httpClient *ethclient.Client
	clientMu   sync.RWMutex

	state       domain.ConnectionState
	stateMu     sync.RWMutex
	usingHTTP   atomic.Bool
	lastBlock   atomic.Uint64
	lastLatency atomic.Int64
	lastHeadAt  atomic.Int64
	reconnects  atomic.Int32
	subscribed  atomic.Bool

	blocks  chan *domain.Block
	done    chan struct{}
	closeMu sync.Mutex
	closed  atomic.Bool

	wsCB   *circuitbreaker.CircuitBreaker[*types.Header]
	httpCB *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *headWatcherMetrics
}

// NewHeadWatcher creates a watcher; no connection is made until Subscribe.
func NewHeadWatcher(cfg HeadWatcherConfig, log logger.LoggerInterface) (*HeadWatcher, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	w := &HeadWatcher{
		config: cfg,
		logger: log,
		state:  domain.StateDisconnected,
		blocks: make(chan *domain.Block, cfg.BufferSize),
		done:   make(chan struct{}),
		tracer: otel.Tracer(tracerName),
	}

	if err := w.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	w.initCircuitBreakers()

	return w, nil
}

func (w *HeadWatcher) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	w.metrics = &headWatcherMetrics{}

	w.metrics.blocksReceived, err = meter.Int64Counter(
		"chain_heads_received_total",
		metric.WithDescription("Total chain heads received"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	w.metrics.subscribeErrors, err = meter.Int64Counter(
		"chain_subscribe_errors_total",
		metric.WithDescription("Total head subscription errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	w.metrics.connectionState, err = meter.Int64Gauge(
		"chain_connection_state",
		metric.WithDescription("Chain connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return err
	}

	w.metrics.blockLatency, err = meter.Float64Histogram(
		"chain_head_latency_ms",
		metric.WithDescription("Latency from block timestamp to receipt"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	w.metrics.httpFallbackUsed, err = meter.Int64Counter(
		"chain_http_fallback_total",
		metric.WithDescription("Times HTTP polling was used"),
		metric.WithUnit("{fallback}"),
	)
	return err
}

func (w *HeadWatcher) initCircuitBreakers() {
	onChange := func(name string, from, to gobreaker.State) {
		w.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	wsCfg := circuitbreaker.DefaultConfig("chain-ws")
	wsCfg.OnStateChange = onChange
	w.wsCB = circuitbreaker.New[*types.Header](wsCfg)

	httpCfg := circuitbreaker.DefaultConfig("chain-http")
	httpCfg.OnStateChange = onChange
	w.httpCB = circuitbreaker.New[*types.Header](httpCfg)
}

// Subscribe connects and returns the head channel. Later calls return the
// same channel without reconnecting.
func (w *HeadWatcher) Subscribe(ctx context.Context) (<-chan *domain.Block, error) {
	ctx, span := w.tracer.Start(ctx, "chain.subscribe",
		trace.WithAttributes(
			attribute.String("ws_url", w.config.WSURL),
			attribute.String("http_url", w.config.HTTPURL),
		),
	)
	defer span.End()

	if w.closed.Load() {
		err := errors.New("head watcher is closed")
		span.RecordError(err)
		return nil, err
	}
	if !w.subscribed.CompareAndSwap(false, true) {
		return w.blocks, nil
	}

	w.setState(domain.StateConnecting)

	if err := w.connectWS(ctx); err != nil {
		w.logger.Warn(ctx, "ws connection failed, trying http polling", "error", err)
		span.AddEvent("ws_failed_trying_http")

		if err := w.connectHTTP(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "both connections failed")
			w.setState(domain.StateDisconnected)
			w.subscribed.Store(false)
			return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
				apperror.WithCause(err),
				apperror.WithContext("failed to connect via WS and HTTP"))
		}

		w.usingHTTP.Store(true)
		go w.runHTTPPoller(ctx)
	} else {
		go w.runWSSubscription(ctx)
	}

	w.setState(domain.StateConnected)
	span.SetStatus(codes.Ok, "subscribed")

	return w.blocks, nil
}

func (w *HeadWatcher) connectWS(ctx context.Context) error {
	if w.config.WSURL == "" {
		return errors.New("ws url not configured")
	}

	ctx, span := w.tracer.Start(ctx, "chain.connect.ws")
	defer span.End()

	client, err := ethclient.DialContext(ctx, w.config.WSURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return fmt.Errorf("dial ws: %w", err)
	}

	w.clientMu.Lock()
	w.wsClient = client
	w.clientMu.Unlock()

	span.SetStatus(codes.Ok, "connected")
	return nil
}

func (w *HeadWatcher) connectHTTP(ctx context.Context) error {
	if w.config.HTTPURL == "" {
		return errors.New("http url not configured")
	}

	w.clientMu.RLock()
	existing := w.httpClient
	w.clientMu.RUnlock()
	if existing != nil {
		return nil
	}

	ctx, span := w.tracer.Start(ctx, "chain.connect.http")
	defer span.End()

	client, err := ethclient.DialContext(ctx, w.config.HTTPURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return fmt.Errorf("dial http: %w", err)
	}

	w.clientMu.Lock()
	w.httpClient = client
	w.clientMu.Unlock()

	span.SetStatus(codes.Ok, "connected")
	return nil
}

func (w *HeadWatcher) runWSSubscription(ctx context.Context) {
	headers := make(chan *types.Header, w.config.BufferSize)

	w.clientMu.RLock()
	client := w.wsClient
	w.clientMu.RUnlock()

	if client == nil {
		w.handleWSDisconnect(ctx)
		return
	}

	sub, err := client.SubscribeNewHead(ctx, headers)
	if err != nil {
		w.logger.Error(ctx, "subscribe new head failed",
			"error", apperror.New(apperror.CodeEthereumSubscribeFailed, apperror.WithCause(err)).ToLog())
		w.metrics.subscribeErrors.Add(ctx, 1)
		w.handleWSDisconnect(ctx)
		return
	}

	w.logger.Info(ctx, "subscribed to new heads via ws")

	w.processWSHeaders(ctx, headers, sub)
	sub.Unsubscribe()
	w.handleWSDisconnect(ctx)
}

func (w *HeadWatcher) processWSHeaders(ctx context.Context, headers <-chan *types.Header, sub interface{ Err() <-chan error }) {
	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				w.logger.Error(ctx, "subscription error", "error", err)
				w.metrics.subscribeErrors.Add(ctx, 1)
			}
			return
		case header := <-headers:
			if header == nil {
				continue
			}
			w.processHeader(ctx, header, false)
		}
	}
}

// handleWSDisconnect retries the socket once, then switches to polling.
func (w *HeadWatcher) handleWSDisconnect(ctx context.Context) {
	if w.closed.Load() || ctx.Err() != nil {
		return
	}

	w.setState(domain.StateReconnecting)
	w.reconnects.Add(1)

	select {
	case <-w.done:
		return
	case <-ctx.Done():
		return
	case <-time.After(w.config.ReconnectDelay):
	}

	if err := w.connectWS(ctx); err != nil {
		w.logger.Warn(ctx, "ws reconnect failed, switching to http", "error", err)

		if err := w.connectHTTP(ctx); err != nil {
			w.logger.Error(ctx, "http fallback connection failed", "error", err)
			w.setState(domain.StateDisconnected)
			return
		}

		w.usingHTTP.Store(true)
		w.metrics.httpFallbackUsed.Add(ctx, 1)
		w.setState(domain.StateConnected)
		go w.runHTTPPoller(ctx)
		return
	}

	w.usingHTTP.Store(false)
	w.setState(domain.StateConnected)
	go w.runWSSubscription(ctx)
}

func (w *HeadWatcher) runHTTPPoller(ctx context.Context) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.logger.Info(ctx, "starting http head polling", "interval", w.config.PollInterval)

	w.pollLatestBlock(ctx)
	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollLatestBlock(ctx)
		}
	}
}

func (w *HeadWatcher) pollLatestBlock(ctx context.Context) {
	ctx, span := w.tracer.Start(ctx, "chain.poll.head")
	defer span.End()

	w.clientMu.RLock()
	client := w.httpClient
	w.clientMu.RUnlock()

	if client == nil {
		span.AddEvent("no_http_client")
		return
	}

	header, err := w.httpCB.Execute(func() (*types.Header, error) {
		return client.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		w.logger.Warn(ctx, "http head poll failed", "error", err)
		w.metrics.subscribeErrors.Add(ctx, 1)
		return
	}

	w.processHeader(ctx, header, true)
	span.SetStatus(codes.Ok, "polled")
}

// processHeader emits a head unless it is not newer than the last one.
// Emission never blocks; a full buffer drops the head.
func (w *HeadWatcher) processHeader(ctx context.Context, header *types.Header, fromHTTP bool) bool {
	if header.Number == nil || header.Number.Uint64() <= w.lastBlock.Load() {
		return false
	}

	block := headerToBlock(header)
	latency := time.Since(block.Timestamp)
	w.metrics.blockLatency.Record(ctx, float64(latency.Milliseconds()),
		metric.WithAttributes(attribute.Bool("from_http", fromHTTP)))
	w.lastBlock.Store(block.Number)
	w.lastLatency.Store(int64(latency))
	w.lastHeadAt.Store(time.Now().UnixNano())

	select {
	case w.blocks <- block:
		w.metrics.blocksReceived.Add(ctx, 1)
		w.logger.Debug(ctx, "head received",
			"number", block.Number,
			"latency_ms", latency.Milliseconds())
		return true
	default:
		w.logger.Warn(ctx, "head dropped, buffer full", "number", block.Number)
		return false
	}
}

func headerToBlock(header *types.Header) *domain.Block {
	return &domain.Block{
		Number:     header.Number.Uint64(),
		Hash:       header.Hash(),
		ParentHash: header.ParentHash,
		Timestamp:  time.Unix(int64(header.Time), 0),
		GasLimit:   header.GasLimit,
		GasUsed:    header.GasUsed,
		BaseFee:    header.BaseFee,
	}
}

// LatestBlock reads the current head through whichever client is live.
func (w *HeadWatcher) LatestBlock(ctx context.Context) (*domain.Block, error) {
	ctx, span := w.tracer.Start(ctx, "chain.latest_block")
	defer span.End()

	w.clientMu.RLock()
	wsClient := w.wsClient
	httpClient := w.httpClient
	w.clientMu.RUnlock()

	var header *types.Header
	var err error

	if wsClient != nil && !w.usingHTTP.Load() {
		header, err = w.wsCB.Execute(func() (*types.Header, error) {
			return wsClient.HeaderByNumber(ctx, nil)
		})
	}
	if header == nil && httpClient != nil {
		header, err = w.httpCB.Execute(func() (*types.Header, error) {
			return httpClient.HeaderByNumber(ctx, nil)
		})
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("failed to fetch latest block"))
	}
	if header == nil {
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithContext("no chain client connected"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return headerToBlock(header), nil
}

// State returns the current connection state.
func (w *HeadWatcher) State() domain.ConnectionState {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.state
}

// Status returns detailed connection status.
func (w *HeadWatcher) Status() domain.ConnectionStatus {
	var lastHead time.Time
	if ns := w.lastHeadAt.Load(); ns != 0 {
		lastHead = time.Unix(0, ns)
	}
	return domain.ConnectionStatus{
		State:      w.State(),
		Latency:    time.Duration(w.lastLatency.Load()),
		LastBlock:  w.lastBlock.Load(),
		LastUpdate: lastHead,
		Reconnects: int(w.reconnects.Load()),
		UsingHTTP:  w.usingHTTP.Load(),
	}
}

// Close stops the loops and closes the head channel.
func (w *HeadWatcher) Close() error {
	w.closeMu.Lock()
	defer w.closeMu.Unlock()

	if w.closed.Load() {
		return nil
	}

	w.logger.Info(context.Background(), "closing head watcher")

	w.closed.Store(true)
	close(w.done)

	w.clientMu.Lock()
	if w.wsClient != nil {
		w.wsClient.Close()
		w.wsClient = nil
	}
	if w.httpClient != nil {
		w.httpClient.Close()
		w.httpClient = nil
	}
	w.clientMu.Unlock()

	w.setState(domain.StateDisconnected)
	return nil
}

func (w *HeadWatcher) setState(state domain.ConnectionState) {
	w.stateMu.Lock()
	w.state = state
	w.stateMu.Unlock()

	var v int64
	switch state {
	case domain.StateConnecting:
		v = 1
	case domain.StateConnected:
		v = 2
	case domain.StateReconnecting:
		v = 3
	}
	w.metrics.connectionState.Record(context.Background(), v)
}

package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	blockchainDomain "github.com/fd1az/flashroute/business/blockchain/domain"
	"github.com/fd1az/flashroute/business/execution/domain"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/circuitbreaker"
	"github.com/fd1az/flashroute/internal/logger"
	"github.com/fd1az/flashroute/internal/revert"
)

// ChainClient is the slice of ethclient.Client the executor needs.
type ChainClient interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// FeeSource supplies the fee caps of a submission.
type FeeSource interface {
	CurrentFees(ctx context.Context) (*blockchainDomain.FeeQuote, error)
}

// ExecutorConfig holds configuration for the executor.
type ExecutorConfig struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
	// GasLimit caps the padded estimate; zero means no cap.
	GasLimit            uint64
	GasMarginPercent    uint64
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
}

// DefaultExecutorConfig pads estimates by 10% and waits two minutes for a receipt.
func DefaultExecutorConfig(address common.Address, key *ecdsa.PrivateKey) ExecutorConfig {
	return ExecutorConfig{
		Address:             address,
		PrivateKey:          key,
		GasMarginPercent:    10,
		ReceiptTimeout:      2 * time.Minute,
		ReceiptPollInterval: time.Second,
	}
}

type executorMetrics struct {
	simulations metric.Int64Counter
	dryRunFails metric.Int64Counter
	submissions metric.Int64Counter
	reverts     metric.Int64Counter
	gasUsed     metric.Int64Histogram
	latency     metric.Float64Histogram
}

// Executor signs and submits runSimpleFlash calls.
type Executor struct {
	config ExecutorConfig
	client ChainClient
	fees   FeeSource
	logger logger.LoggerInterface

	abi   abi.ABI
	event abi.Event
	from  common.Address

	callCB *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *executorMetrics
}

// NewExecutor creates an executor. The signer is derived from the key.
func NewExecutor(cfg ExecutorConfig, client ChainClient, fees FeeSource, log logger.LoggerInterface) (*Executor, error) {
	if client == nil || fees == nil {
		return nil, apperror.Configuration("executor: nil client or fee source")
	}
	if cfg.PrivateKey == nil {
		return nil, apperror.New(apperror.CodeSignerUnavailable)
	}
	if cfg.Address == (common.Address{}) {
		return nil, apperror.Configuration("executor: zero contract address")
	}
	def := DefaultExecutorConfig(cfg.Address, cfg.PrivateKey)
	if cfg.GasMarginPercent == 0 {
		cfg.GasMarginPercent = def.GasMarginPercent
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = def.ReceiptTimeout
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = def.ReceiptPollInterval
	}

	parsed, err := parseExecutorABI()
	if err != nil {
		return nil, fmt.Errorf("parse executor ABI: %w", err)
	}

	e := &Executor{
		config: cfg,
		client: client,
		fees:   fees,
		logger: log,
		abi:    parsed,
		event:  parsed.Events[eventFlashCompleted],
		from:   crypto.PubkeyToAddress(cfg.PrivateKey.PublicKey),
		tracer: otel.Tracer(tracerName),
	}

	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("executor-call")
	cbCfg.IsSuccessful = revert.Healthy
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	e.callCB = circuitbreaker.New[[]byte](cbCfg)

	return e, nil
}

func (e *Executor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &executorMetrics{}

	e.metrics.simulations, err = meter.Int64Counter(
		"execution_simulations_total",
		metric.WithDescription("Dry runs of runSimpleFlash"),
	)
	if err != nil {
		return err
	}

	e.metrics.dryRunFails, err = meter.Int64Counter(
		"execution_dry_run_rejected_total",
		metric.WithDescription("Dry runs that reverted"),
	)
	if err != nil {
		return err
	}

	e.metrics.submissions, err = meter.Int64Counter(
		"execution_submissions_total",
		metric.WithDescription("Transactions submitted"),
	)
	if err != nil {
		return err
	}

	e.metrics.reverts, err = meter.Int64Counter(
		"execution_reverts_total",
		metric.WithDescription("Mined transactions with status 0"),
	)
	if err != nil {
		return err
	}

	e.metrics.gasUsed, err = meter.Int64Histogram(
		"execution_gas_used",
		metric.WithDescription("Gas used by mined flash transactions"),
		metric.WithUnit("{gas}"),
	)
	if err != nil {
		return err
	}

	e.metrics.latency, err = meter.Float64Histogram(
		"execution_confirm_latency_ms",
		metric.WithDescription("Time from submission to receipt"),
		metric.WithUnit("ms"),
	)
	return err
}

// Signer is the address transactions are sent from.
func (e *Executor) Signer() common.Address {
	return e.from
}

// Simulate runs runSimpleFlash as an eth_call from the signer.
func (e *Executor) Simulate(ctx context.Context, plan domain.Plan) error {
	ctx, span := e.tracer.Start(ctx, "execution.simulate",
		trace.WithAttributes(attribute.String("route", plan.RouteID.Hex())),
	)
	defer span.End()

	e.metrics.simulations.Add(ctx, 1)

	msg, err := e.callMsg(plan)
	if err != nil {
		span.RecordError(err)
		return err
	}

	_, err = e.callCB.Execute(func() ([]byte, error) {
		return e.client.CallContract(ctx, msg, nil)
	})
	if err == nil {
		span.SetStatus(codes.Ok, "passed")
		return nil
	}

	span.RecordError(err)
	if reason, ok := revert.Reason(err); ok {
		e.metrics.dryRunFails.Add(ctx, 1)
		span.SetStatus(codes.Error, "reverted")
		return apperror.New(apperror.CodeDryRunRejected,
			apperror.WithCause(err),
			apperror.WithContext(reason))
	}
	span.SetStatus(codes.Error, "call failed")
	return apperror.Wrap(err, apperror.CodeEthereumRPCError, "simulate runSimpleFlash")
}

// Submit signs and sends one EIP-1559 transaction and waits for its
// receipt. A mined revert returns the receipt with EXECUTION_REVERTED.
func (e *Executor) Submit(ctx context.Context, plan domain.Plan) (*domain.Receipt, error) {
	ctx, span := e.tracer.Start(ctx, "execution.submit",
		trace.WithAttributes(attribute.String("route", plan.RouteID.Hex())),
	)
	defer span.End()

	tx, err := e.buildTx(ctx, plan)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return nil, err
	}

	if err := e.client.SendTransaction(ctx, tx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return nil, apperror.New(apperror.CodeExecutionFailed,
			apperror.WithCause(err),
			apperror.WithContext("send transaction"))
	}
	e.metrics.submissions.Add(ctx, 1)
	span.SetAttributes(attribute.String("tx", tx.Hash().Hex()))
	e.logger.Info(ctx, "transaction submitted",
		"tx", tx.Hash().Hex(),
		"nonce", tx.Nonce(),
		"gas", tx.Gas(),
		"max_fee", tx.GasFeeCap().String())

	start := time.Now()
	rcpt, err := e.waitReceipt(ctx, tx.Hash())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no receipt")
		return &domain.Receipt{TxHash: tx.Hash()}, err
	}
	e.metrics.latency.Record(ctx, float64(time.Since(start).Milliseconds()))
	e.metrics.gasUsed.Record(ctx, int64(rcpt.GasUsed))

	out := &domain.Receipt{
		TxHash:      rcpt.TxHash,
		Success:     rcpt.Status == types.ReceiptStatusSuccessful,
		GasUsed:     rcpt.GasUsed,
		BlockNumber: blockNumber(rcpt),
	}

	if !out.Success {
		e.metrics.reverts.Add(ctx, 1)
		span.SetStatus(codes.Error, "reverted")
		return out, apperror.New(apperror.CodeExecutionReverted,
			apperror.WithContext(fmt.Sprintf("tx %s status 0", rcpt.TxHash.Hex())))
	}

	completion, err := e.decodeCompletion(rcpt)
	if err != nil {
		e.logger.Warn(ctx, "could not decode FlashCompleted", "tx", rcpt.TxHash.Hex(), "error", err)
	}
	out.Completion = completion

	span.SetStatus(codes.Ok, "executed")
	return out, nil
}

// VerifyOwner checks owner() of the executor against the signer.
func (e *Executor) VerifyOwner(ctx context.Context) error {
	data, err := e.abi.Pack(methodOwner)
	if err != nil {
		return fmt.Errorf("pack owner: %w", err)
	}
	to := e.config.Address
	res, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return apperror.New(apperror.CodeContractCall,
			apperror.WithCause(err),
			apperror.WithContext("owner()"))
	}

	vals, err := e.abi.Unpack(methodOwner, res)
	if err != nil || len(vals) != 1 {
		return apperror.New(apperror.CodeContractCall,
			apperror.WithCause(err),
			apperror.WithContext("decode owner()"))
	}
	owner, ok := vals[0].(common.Address)
	if !ok || owner != e.from {
		return apperror.New(apperror.CodeExecutorNotOwner,
			apperror.WithContext(fmt.Sprintf("owner %s, signer %s", owner.Hex(), e.from.Hex())))
	}
	return nil
}

func (e *Executor) callMsg(plan domain.Plan) (ethereum.CallMsg, error) {
	params, err := plan.Params()
	if err != nil {
		return ethereum.CallMsg{}, err
	}
	data, err := e.abi.Pack(methodRunSimpleFlash, plan.Asset, plan.Amount, params)
	if err != nil {
		return ethereum.CallMsg{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContext("pack runSimpleFlash"))
	}
	to := e.config.Address
	return ethereum.CallMsg{From: e.from, To: &to, Data: data}, nil
}

func (e *Executor) buildTx(ctx context.Context, plan domain.Plan) (*types.Transaction, error) {
	msg, err := e.callMsg(plan)
	if err != nil {
		return nil, err
	}

	fees, err := e.fees.CurrentFees(ctx)
	if err != nil {
		return nil, err
	}
	tip, maxFee := fees.TipCap, fees.MaxFee
	if fees.Source == blockchainDomain.FeeSourceLegacy || tip == nil || maxFee == nil {
		tip, maxFee = fees.GasPrice, fees.GasPrice
	}

	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("pending nonce"))
	}
	chainID, err := e.client.ChainID(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("chain id"))
	}

	msg.GasTipCap, msg.GasFeeCap = tip, maxFee
	estimate, err := e.client.EstimateGas(ctx, msg)
	if err != nil {
		ctxMsg := "estimate gas"
		if reason, ok := revert.Reason(err); ok {
			ctxMsg = reason
		}
		return nil, apperror.New(apperror.CodeGasEstimationFailed,
			apperror.WithCause(err),
			apperror.WithContext(ctxMsg))
	}
	gas := e.padGas(estimate)

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: maxFee,
		Gas:       gas,
		To:        msg.To,
		Value:     big.NewInt(0),
		Data:      msg.Data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), e.config.PrivateKey)
	if err != nil {
		return nil, apperror.New(apperror.CodeSignerUnavailable,
			apperror.WithCause(err),
			apperror.WithContext("sign transaction"))
	}
	return signed, nil
}

func (e *Executor) padGas(estimate uint64) uint64 {
	gas := estimate + estimate*e.config.GasMarginPercent/100
	if e.config.GasLimit > 0 && gas > e.config.GasLimit {
		return e.config.GasLimit
	}
	return gas
}

func (e *Executor) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(e.config.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		rcpt, err := e.client.TransactionReceipt(ctx, hash)
		if err == nil && rcpt != nil {
			return rcpt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			e.logger.Debug(ctx, "receipt query failed", "tx", hash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, apperror.New(apperror.CodeReceiptTimeout,
				apperror.WithCause(ctx.Err()),
				apperror.WithContext(hash.Hex()))
		case <-ticker.C:
		}
	}
}

func (e *Executor) decodeCompletion(rcpt *types.Receipt) (*domain.FlashCompleted, error) {
	for _, l := range rcpt.Logs {
		if l == nil || l.Address != e.config.Address || len(l.Topics) < 2 || l.Topics[0] != e.event.ID {
			continue
		}
		vals, err := e.event.Inputs.NonIndexed().Unpack(l.Data)
		if err != nil {
			return nil, err
		}
		if len(vals) != 3 {
			return nil, fmt.Errorf("FlashCompleted: %d values", len(vals))
		}
		amount, _ := vals[0].(*big.Int)
		premium, _ := vals[1].(*big.Int)
		profit, _ := vals[2].(*big.Int)
		return &domain.FlashCompleted{
			Asset:     common.BytesToAddress(l.Topics[1].Bytes()),
			Amount:    amount,
			Premium:   premium,
			ProfitWei: profit,
		}, nil
	}
	return nil, nil
}

func blockNumber(r *types.Receipt) uint64 {
	if r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}

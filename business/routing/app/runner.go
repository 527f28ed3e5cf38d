package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/apm"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/logger"
)

// RunnerConfig holds configuration for the cycle loop.
type RunnerConfig struct {
	Amounts          []*big.Int
	ExecutionEnabled bool
}

// RunnerDeps are the collaborators of a Runner. Dispatcher, Blocks and
// Journal may be nil.
type RunnerDeps struct {
	Engine     *Engine
	Gate       *ProfitabilityGate
	Scheduler  *Scheduler
	Fees       FeeSource
	Universe   TokenUniverse
	Dispatcher Dispatcher
	Blocks     BlockSource
	Reporter   Reporter
	Journal    Journal
}

// Runner drives one cycle at a time: fees, search per size, select by
// profit, gate, dispatch, schedule, report, journal, sleep.
type Runner struct {
	deps   RunnerDeps
	config RunnerConfig
	logger logger.LoggerInterface
	tracer apm.Tracer

	cycles    atomic.Uint64
	lastCycle atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a new cycle Runner.
func NewRunner(deps RunnerDeps, cfg RunnerConfig, log logger.LoggerInterface) (*Runner, error) {
	switch {
	case deps.Engine == nil, deps.Gate == nil, deps.Scheduler == nil:
		return nil, apperror.Configuration("runner: engine, gate and scheduler are required")
	case deps.Fees == nil, deps.Universe == nil, deps.Reporter == nil:
		return nil, apperror.Configuration("runner: fee source, token universe and reporter are required")
	case len(cfg.Amounts) == 0:
		return nil, apperror.Configuration("runner: at least one input amount is required")
	case cfg.ExecutionEnabled && deps.Dispatcher == nil:
		return nil, apperror.Configuration("runner: execution enabled without a dispatcher")
	}

	return &Runner{
		deps:   deps,
		config: cfg,
		logger: log,
		tracer: apm.NewTracer("routing.runner"),
	}, nil
}

// Start begins the cycle loop in the background.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("runner already started"))
	}

	r.logger.Info(ctx, "starting cycle runner",
		"amounts", len(r.config.Amounts),
		"execution", r.config.ExecutionEnabled,
		"adaptive", r.deps.Scheduler.Adaptive(),
	)

	if err := r.deps.Reporter.Start(ctx); err != nil {
		return err
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	if r.deps.Blocks != nil {
		r.watchBlocks(ctx)
	}

	go r.run(ctx, r.done)

	return nil
}

func (r *Runner) watchBlocks(ctx context.Context) {
	blocks, err := r.deps.Blocks.Subscribe(ctx)
	if err != nil {
		r.logger.Warn(ctx, "block subscription unavailable", "error", err)
		r.deps.Reporter.UpdateConnectionStatus("chain", false, 0)
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-blocks:
				if !ok {
					r.deps.Reporter.UpdateConnectionStatus("chain", false, 0)
					return
				}
				if b != nil {
					r.deps.Reporter.UpdateBlock(b)
				}
			}
		}
	}()
}

func (r *Runner) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		report := r.RunCycle(ctx)
		if ctx.Err() != nil {
			r.logger.Info(ctx, "runner stopping", "reason", ctx.Err())
			return
		}

		t := time.NewTimer(report.NextInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			r.logger.Info(ctx, "runner stopping", "reason", ctx.Err())
			return
		case <-t.C:
		}
	}
}

// RunCycle executes exactly one cycle and returns its report. A cycle
// interrupted by ctx is neither scheduled, reported nor journaled.
func (r *Runner) RunCycle(ctx context.Context) *domain.CycleReport {
	ctx, span := r.tracer.StartSpanFromContext(ctx, "routing.cycle")
	defer span.End()

	report := &domain.CycleReport{
		CycleID:   r.cycles.Add(1),
		StartedAt: time.Now(),
	}
	span.SetAttributes(attribute.Int64("cycle_id", int64(report.CycleID)))

	r.evaluate(ctx, report)

	if err := ctx.Err(); err != nil {
		report.Err = err
		return report
	}

	report.NextInterval = r.deps.Scheduler.Observe(report.Outcome)
	report.Duration = time.Since(report.StartedAt)
	r.lastCycle.Store(time.Now().UnixNano())

	span.SetAttributes(
		attribute.String("outcome", string(report.Outcome)),
		attribute.Int64("next_interval_ms", report.NextInterval.Milliseconds()),
	)
	if report.Err != nil {
		span.NoticeError(report.Err)
	} else {
		span.Ok(string(report.Outcome))
	}

	r.log(ctx, report)
	r.deps.Reporter.ReportCycle(report)

	if r.deps.Journal != nil {
		if err := r.deps.Journal.Record(ctx, report); err != nil {
			r.logger.Warn(ctx, "journal write failed", "cycle", report.CycleID, "error", err)
		}
	}

	return report
}

func (r *Runner) evaluate(ctx context.Context, report *domain.CycleReport) {
	fees, err := r.deps.Fees.CurrentFees(ctx)
	if err != nil {
		report.Outcome = domain.OutcomeFeeUnavailable
		report.Err = err
		return
	}
	report.GasPriceWei = fees.GasPrice

	intermediates := r.deps.Universe.Intermediates()

	perSize := make([]*domain.RouteCandidate, 0, len(r.config.Amounts))
	for _, amount := range r.config.Amounts {
		best, stats, err := r.deps.Engine.Search(ctx, amount, intermediates)
		report.Stats.Add(stats)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn(ctx, "search failed", "amount_in", amount.String(), "error", err)
			continue
		}
		perSize = append(perSize, best)
	}

	best := domain.SelectByProfit(perSize)
	if best == nil {
		report.Outcome = domain.OutcomeNoRoute
		return
	}
	report.Best = best

	ev, err := r.deps.Gate.Evaluate(best, fees.GasPrice)
	if err != nil {
		report.Outcome = domain.OutcomeRejected
		report.Err = err
		return
	}
	report.Evaluation = &ev

	if !ev.Accepted {
		report.Outcome = domain.OutcomeRejected
		return
	}

	if !r.config.ExecutionEnabled {
		report.Outcome = domain.OutcomeAccepted
		return
	}

	res := r.deps.Dispatcher.Execute(ctx, best, ev)
	report.Execution = &res
	report.Outcome = res.Outcome
	if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
		report.Err = res.Err
	}
}

func (r *Runner) log(ctx context.Context, report *domain.CycleReport) {
	args := []any{
		"cycle", report.CycleID,
		"outcome", report.Outcome,
		"enumerated", report.Stats.Enumerated,
		"quoted", report.Stats.Quoted,
		"no_route", report.Stats.NoRoute,
		"failed", report.Stats.Failed,
		"next_interval", report.NextInterval.String(),
	}
	if report.Best != nil {
		args = append(args,
			"route", report.Best.HopDescriptor(r.deps.Universe.Symbol),
			"amount_in", report.Best.AmountIn.String(),
			"qb", report.Best.QuotedOutB.String(),
		)
	}
	if ev := report.Evaluation; ev != nil {
		args = append(args,
			"gross_bps", ev.GrossBps.String(),
			"needed_bps", ev.NeededBps.String(),
			"required", ev.Required.String(),
		)
		if ev.Reason != "" {
			args = append(args, "reason", ev.Reason)
		}
	}
	if ex := report.Execution; ex != nil && ex.TxHash != (common.Hash{}) {
		args = append(args, "tx", ex.TxHash.Hex())
	}
	if report.Err != nil {
		args = append(args, "error", report.Err)
	}

	switch report.Outcome {
	case domain.OutcomeExecuted, domain.OutcomeAccepted, domain.OutcomeSimulated:
		r.logger.Infoc(ctx, 4, "cycle finished", args...)
	case domain.OutcomeReverted, domain.OutcomeExecutionError, domain.OutcomeFeeUnavailable:
		r.logger.Warnc(ctx, 4, "cycle finished", args...)
	default:
		r.logger.Debugc(ctx, 4, "cycle finished", args...)
	}
}

// Stop cancels the loop and waits for the running cycle to end.
func (r *Runner) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	r.logger.Info(context.Background(), "stopping cycle runner")

	if cancel != nil {
		cancel()
		<-done
	}
	return r.deps.Reporter.Stop()
}

// LastCycleAt is when the last complete cycle finished, zero before the first.
func (r *Runner) LastCycleAt() time.Time {
	ns := r.lastCycle.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Cycles is the number of cycles started.
func (r *Runner) Cycles() uint64 {
	return r.cycles.Load()
}

// Scheduler exposes the poll state owner for health checks.
func (r *Runner) Scheduler() *Scheduler {
	return r.deps.Scheduler
}

package app

import (
	"context"
	"errors"

	"github.com/fd1az/flashroute/business/execution/domain"
	routingDomain "github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/logger"
)

// DispatcherConfig controls how far an accepted candidate goes.
type DispatcherConfig struct {
	// DryRunOnly stops after a passing simulation.
	DryRunOnly bool
}

// Dispatcher turns an accepted candidate into a dry run and at most one
// submission. It never retries within a cycle.
type Dispatcher struct {
	config   DispatcherConfig
	executor Executor
	logger   logger.LoggerInterface
}

// NewDispatcher creates a dispatcher over executor.
func NewDispatcher(cfg DispatcherConfig, executor Executor, log logger.LoggerInterface) *Dispatcher {
	return &Dispatcher{
		config:   cfg,
		executor: executor,
		logger:   log,
	}
}

// Execute implements the routing dispatcher port. Every failure is folded
// into the result.
func (d *Dispatcher) Execute(ctx context.Context, c *routingDomain.RouteCandidate, ev routingDomain.Evaluation) routingDomain.ExecutionResult {
	plan, err := domain.NewPlan(c, ev)
	if err != nil {
		return failed(routingDomain.OutcomeExecutionError, err)
	}

	if err := d.executor.Simulate(ctx, plan); err != nil {
		if apperror.Is(err, apperror.CodeDryRunRejected) {
			d.logger.Info(ctx, "dry run rejected", "route", plan.RouteID.Hex(), "error", err)
			return failed(routingDomain.OutcomeDryRunRejected, err)
		}
		d.logger.Warn(ctx, "dry run failed", "route", plan.RouteID.Hex(), "error", err)
		return failed(routingDomain.OutcomeExecutionError, err)
	}

	if d.config.DryRunOnly {
		d.logger.Info(ctx, "dry run passed, submission disabled", "route", plan.RouteID.Hex())
		return routingDomain.ExecutionResult{Outcome: routingDomain.OutcomeSimulated}
	}

	receipt, err := d.executor.Submit(ctx, plan)
	if err != nil {
		res := failed(routingDomain.OutcomeExecutionError, err)
		if apperror.Is(err, apperror.CodeExecutionReverted) {
			res.Outcome = routingDomain.OutcomeReverted
		}
		if receipt != nil {
			res.TxHash = receipt.TxHash
			res.GasUsed = receipt.GasUsed
		}
		d.logger.Error(ctx, "submission failed", "route", plan.RouteID.Hex(), "outcome", res.Outcome, "error", err)
		return res
	}

	res := routingDomain.ExecutionResult{
		Outcome: routingDomain.OutcomeExecuted,
		TxHash:  receipt.TxHash,
		GasUsed: receipt.GasUsed,
	}
	if receipt.Completion != nil {
		res.Premium = receipt.Completion.Premium
		res.RealizedProfit = receipt.Completion.ProfitWei
	}
	d.logger.Info(ctx, "flash executed",
		"tx", receipt.TxHash.Hex(),
		"gas_used", receipt.GasUsed,
		"block", receipt.BlockNumber)
	return res
}

func failed(outcome routingDomain.Outcome, err error) routingDomain.ExecutionResult {
	return routingDomain.ExecutionResult{
		Outcome: outcome,
		Reason:  reason(err),
		Err:     err,
	}
}

func reason(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Context != "" {
		return appErr.Context
	}
	return err.Error()
}

// Package app contains the execution dispatcher.
package app

import (
	"context"

	"github.com/fd1az/flashroute/business/execution/domain"
)

// Executor talks to the flash-loan executor contract.
type Executor interface {
	// Simulate dry-runs the plan. A revert comes back as DRY_RUN_REJECTED.
	Simulate(ctx context.Context, plan domain.Plan) error
	// Submit sends one transaction and waits for its receipt. A mined
	// revert comes back with the receipt and EXECUTION_REVERTED.
	Submit(ctx context.Context, plan domain.Plan) (*domain.Receipt, error)
	// VerifyOwner checks that the signer owns the contract.
	VerifyOwner(ctx context.Context) error
}

package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Outcome is how a cycle ended.
type Outcome string

const (
	OutcomeNoRoute  Outcome = "no_route"
	OutcomeRejected Outcome = "rejected"
	// OutcomeAccepted is a passing gate with execution disabled.
	OutcomeAccepted       Outcome = "accepted"
	OutcomeDryRunRejected Outcome = "dry_run_rejected"
	// OutcomeSimulated is a passing dry run with submission disabled.
	OutcomeSimulated      Outcome = "simulated"
	OutcomeExecuted       Outcome = "executed"
	OutcomeReverted       Outcome = "reverted"
	OutcomeExecutionError Outcome = "execution_error"
	OutcomeFeeUnavailable Outcome = "fee_unavailable"
)

// IsHit reports whether the outcome shortens the next interval. Only a
// confirmed successful execution counts.
func (o Outcome) IsHit() bool {
	return o == OutcomeExecuted
}

// ExecutionResult is what the dispatcher reports back for an accepted
// candidate.
type ExecutionResult struct {
	Outcome Outcome
	TxHash  common.Hash
	GasUsed uint64
	// Premium and RealizedProfit come from the completion event, nil when absent.
	Premium        *big.Int
	RealizedProfit *big.Int
	Reason         string
	Err            error
}

// SearchStats summarizes one search for one input size.
type SearchStats struct {
	Enumerated int
	Quoted     int
	NoRoute    int
	Failed     int
	Duration   time.Duration
}

func (s *SearchStats) Add(o SearchStats) {
	s.Enumerated += o.Enumerated
	s.Quoted += o.Quoted
	s.NoRoute += o.NoRoute
	s.Failed += o.Failed
	s.Duration += o.Duration
}

// CycleReport is everything reported and journaled for a cycle.
type CycleReport struct {
	CycleID     uint64
	StartedAt   time.Time
	Duration    time.Duration
	Outcome     Outcome
	GasPriceWei *big.Int
	Best        *RouteCandidate
	Evaluation  *Evaluation
	Execution   *ExecutionResult
	Stats       SearchStats
	// NextInterval is the sleep chosen after this cycle.
	NextInterval time.Duration
	Err          error
}

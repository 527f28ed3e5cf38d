// Package domain models the execution plan handed to the flash-loan
// executor contract and what comes back from it.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	routingDomain "github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/apperror"
)

// LegPayload is one leg in wire form: the venue tag and its
// venue-specific path bytes.
type LegPayload struct {
	Venue routingDomain.VenueKind
	Data  []byte
}

// Plan is everything runSimpleFlash needs for one accepted candidate.
type Plan struct {
	RouteID   common.Hash
	Asset     common.Address
	Amount    *big.Int
	LegA      LegPayload
	LegB      LegPayload
	MinOutA   *big.Int
	MinOutB   *big.Int
	MinProfit *big.Int
}

var paramsArgs = mustParamsArgs()

func mustParamsArgs() abi.Arguments {
	u8, _ := abi.NewType("uint8", "", nil)
	bytesT, _ := abi.NewType("bytes", "", nil)
	u256, _ := abi.NewType("uint256", "", nil)
	return abi.Arguments{
		{Name: "venueA", Type: u8},
		{Name: "dataA", Type: bytesT},
		{Name: "venueB", Type: u8},
		{Name: "dataB", Type: bytesT},
		{Name: "minOutA", Type: u256},
		{Name: "minOutB", Type: u256},
		{Name: "minProfit", Type: u256},
	}
}

// NewPlan builds the plan from an accepted evaluation. The guards come
// from the evaluation, never from the raw quotes.
func NewPlan(c *routingDomain.RouteCandidate, ev routingDomain.Evaluation) (Plan, error) {
	if c == nil {
		return Plan{}, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("nil candidate"))
	}
	if !ev.Accepted {
		return Plan{}, apperror.New(apperror.CodeInvalidState,
			apperror.WithContext("plan for a rejected candidate"))
	}
	if ev.MinOutA == nil || ev.MinOutB == nil || ev.MinProfit == nil {
		return Plan{}, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("missing guards"))
	}
	if !c.LegA.Venue.Valid() || !c.LegB.Venue.Valid() {
		return Plan{}, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("unknown venue"))
	}

	return Plan{
		RouteID:   c.ID(),
		Asset:     c.LegA.TokenIn(),
		Amount:    new(big.Int).Set(c.AmountIn),
		LegA:      LegPayload{Venue: c.LegA.Venue, Data: c.LegA.Data},
		LegB:      LegPayload{Venue: c.LegB.Venue, Data: c.LegB.Data},
		MinOutA:   new(big.Int).Set(ev.MinOutA),
		MinOutB:   new(big.Int).Set(ev.MinOutB),
		MinProfit: new(big.Int).Set(ev.MinProfit),
	}, nil
}

// Params ABI-encodes
// (uint8 venueA, bytes dataA, uint8 venueB, bytes dataB, uint256 minOutA, uint256 minOutB, uint256 minProfit).
func (p Plan) Params() ([]byte, error) {
	out, err := paramsArgs.Pack(
		uint8(p.LegA.Venue), p.LegA.Data,
		uint8(p.LegB.Venue), p.LegB.Data,
		p.MinOutA, p.MinOutB, p.MinProfit,
	)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err),
			apperror.WithContext("encode flash params"))
	}
	return out, nil
}

package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"github.com/fd1az/flashroute/internal/apperror"
)

// Route is an enumerated, not yet quoted round trip. Priority is its
// position in enumeration order and decides ties.
type Route struct {
	Priority      int
	Pairing       Pairing
	Shape         Shape
	LegA          SwapLeg
	LegB          SwapLeg
	Intermediates []common.Address
}

// NewRoute checks the chaining invariants between the two legs.
func NewRoute(priority int, shape Shape, base common.Address, legA, legB SwapLeg, intermediates []common.Address) (Route, error) {
	switch {
	case legA.TokenIn() != base:
		return Route{}, chainError("leg A must start at the base token")
	case legB.TokenOut() != base:
		return Route{}, chainError("leg B must end at the base token")
	case legA.TokenOut() != legB.TokenIn():
		return Route{}, chainError("leg A output must feed leg B")
	}

	return Route{
		Priority:      priority,
		Pairing:       Pairing{A: legA.Venue, B: legB.Venue},
		Shape:         shape,
		LegA:          legA,
		LegB:          legB,
		Intermediates: intermediates,
	}, nil
}

// ID is keccak256 over both legs' venue ids and path data.
func (r Route) ID() common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte{byte(r.LegA.Venue)})
	h.Write(r.LegA.Data)
	h.Write([]byte{byte(r.LegB.Venue)})
	h.Write(r.LegB.Data)

	var out common.Hash
	h.Sum(out[:0])
	return out
}

// HopDescriptor renders the route for reports, e.g.
// "CL->CP 1-1 WETH>USDC@500 | USDC>WETH".
func (r Route) HopDescriptor(symbol func(common.Address) string) string {
	if symbol == nil {
		symbol = shortAddress
	}
	return fmt.Sprintf("%s %s %s | %s", r.Pairing, r.Shape, r.LegA.Describe(symbol), r.LegB.Describe(symbol))
}

// RouteCandidate is a route with both legs quoted for one input amount.
// Built once per cycle and never mutated.
type RouteCandidate struct {
	Route
	AmountIn   *big.Int
	QuotedOutA *big.Int
	// QuotedOutB is the base token recovered after both legs (qb).
	QuotedOutB *big.Int
}

// Profit is qb - amountIn; negative for losing routes.
func (c RouteCandidate) Profit() *big.Int {
	return new(big.Int).Sub(c.QuotedOutB, c.AmountIn)
}

// BetterThan reports whether c should replace incumbent: strictly higher
// qb, or equal qb with an earlier priority.
func (c RouteCandidate) BetterThan(incumbent *RouteCandidate) bool {
	if incumbent == nil {
		return true
	}
	switch c.QuotedOutB.Cmp(incumbent.QuotedOutB) {
	case 1:
		return true
	case 0:
		return c.Priority < incumbent.Priority
	default:
		return false
	}
}

// SelectByProfit picks the per-size winner with the highest absolute
// profit. Ties keep the earlier entry. Nil entries are skipped.
func SelectByProfit(perSize []*RouteCandidate) *RouteCandidate {
	var best *RouteCandidate
	var bestProfit *big.Int
	for _, c := range perSize {
		if c == nil {
			continue
		}
		p := c.Profit()
		if best == nil || p.Cmp(bestProfit) > 0 {
			best, bestProfit = c, p
		}
	}
	return best
}

func chainError(msg string) error {
	return apperror.New(apperror.CodeShapeMismatch, apperror.WithContext(msg))
}

func shortAddress(a common.Address) string {
	h := a.Hex()
	return h[:6] + ".." + h[len(h)-4:]
}

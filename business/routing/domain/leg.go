package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashroute/internal/apperror"
)

// SwapLeg is one single-venue swap. Data is the venue-specific path
// encoding: packed bytes for concentrated liquidity, ABI address[] for
// constant product.
type SwapLeg struct {
	Venue  VenueKind
	Tokens []common.Address
	// Fees has len(Tokens)-1 entries for concentrated liquidity, none otherwise.
	Fees []FeeTier
	Data []byte
}

// NewConcentratedLeg encodes a concentrated-liquidity leg.
func NewConcentratedLeg(tokens []common.Address, fees []FeeTier) (SwapLeg, error) {
	data, err := EncodeConcentratedPath(tokens, fees)
	if err != nil {
		return SwapLeg{}, err
	}
	return SwapLeg{
		Venue:  VenueConcentrated,
		Tokens: append([]common.Address(nil), tokens...),
		Fees:   append([]FeeTier(nil), fees...),
		Data:   data,
	}, nil
}

// NewConstantProductLeg encodes a constant-product leg.
func NewConstantProductLeg(tokens []common.Address) (SwapLeg, error) {
	data, err := EncodeConstantProductPath(tokens)
	if err != nil {
		return SwapLeg{}, err
	}
	return SwapLeg{
		Venue:  VenueConstantProduct,
		Tokens: append([]common.Address(nil), tokens...),
		Data:   data,
	}, nil
}

// NewLeg builds a leg on venue. Concentrated legs use fee for every hop;
// fee is ignored for constant product.
func NewLeg(venue VenueKind, tokens []common.Address, fee FeeTier) (SwapLeg, error) {
	switch venue {
	case VenueConcentrated:
		if len(tokens) < 2 {
			return SwapLeg{}, apperror.New(apperror.CodeShapeMismatch,
				apperror.WithContext(fmt.Sprintf("%d tokens", len(tokens))))
		}
		fees := make([]FeeTier, len(tokens)-1)
		for i := range fees {
			fees[i] = fee
		}
		return NewConcentratedLeg(tokens, fees)
	case VenueConstantProduct:
		return NewConstantProductLeg(tokens)
	default:
		return SwapLeg{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("unknown venue %d", venue)))
	}
}

func (l SwapLeg) TokenIn() common.Address {
	return l.Tokens[0]
}

func (l SwapLeg) TokenOut() common.Address {
	return l.Tokens[len(l.Tokens)-1]
}

func (l SwapLeg) Hops() int {
	return len(l.Tokens) - 1
}

// Key identifies the leg for quote memoization.
func (l SwapLeg) Key() string {
	return l.Venue.String() + ":" + hex.EncodeToString(l.Data)
}

// Describe renders the leg as "WETH>USDC>ARB@500" using symbol.
func (l SwapLeg) Describe(symbol func(common.Address) string) string {
	s := ""
	for i, t := range l.Tokens {
		if i > 0 {
			s += ">"
		}
		s += symbol(t)
	}
	if l.Venue == VenueConcentrated && len(l.Fees) > 0 {
		s += fmt.Sprintf("@%d", l.Fees[0])
	}
	return s
}

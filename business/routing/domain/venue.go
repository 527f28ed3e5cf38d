// Package domain contains the route search and profitability types.
package domain

import "fmt"

// VenueKind identifies a liquidity venue. The numeric values are the
// venue ids the execution contract expects.
type VenueKind uint8

const (
	VenueUnknown         VenueKind = 0
	VenueConcentrated    VenueKind = 1
	VenueConstantProduct VenueKind = 2
)

func (v VenueKind) String() string {
	switch v {
	case VenueConcentrated:
		return "CL"
	case VenueConstantProduct:
		return "CP"
	default:
		return fmt.Sprintf("venue(%d)", uint8(v))
	}
}

// Valid reports whether v is a known venue.
func (v VenueKind) Valid() bool {
	return v == VenueConcentrated || v == VenueConstantProduct
}

// Pairing is the venue of leg A and leg B.
type Pairing struct {
	A VenueKind
	B VenueKind
}

func (p Pairing) String() string {
	return p.A.String() + "->" + p.B.String()
}

// Pairings lists every pairing in enumeration order.
var Pairings = []Pairing{
	{VenueConcentrated, VenueConcentrated},
	{VenueConstantProduct, VenueConstantProduct},
	{VenueConcentrated, VenueConstantProduct},
	{VenueConstantProduct, VenueConcentrated},
}

// EnabledPairings filters Pairings to the enabled venues, keeping order.
func EnabledPairings(concentrated, constantProduct bool) []Pairing {
	enabled := func(v VenueKind) bool {
		return (v == VenueConcentrated && concentrated) || (v == VenueConstantProduct && constantProduct)
	}

	out := make([]Pairing, 0, len(Pairings))
	for _, p := range Pairings {
		if enabled(p.A) && enabled(p.B) {
			out = append(out, p)
		}
	}
	return out
}

// FeeTier is a concentrated-liquidity pool fee in hundredths of a bip
// (500 = 0.05%).
type FeeTier uint32

// MaxFeeTier is the largest fee that fits the 3-byte path marker.
const MaxFeeTier FeeTier = 1<<24 - 1

// Shape is the hop structure of a round trip.
type Shape uint8

const (
	// ShapeOneOne is base -> mid -> base.
	ShapeOneOne Shape = 1
	// ShapeTwoTwo is base -> mid -> mid2 -> base, legs chained through the pair.
	ShapeTwoTwo Shape = 2
)

func (s Shape) String() string {
	switch s {
	case ShapeOneOne:
		return "1-1"
	case ShapeTwoTwo:
		return "2-2"
	default:
		return "?"
	}
}

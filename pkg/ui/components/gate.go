package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// GateBreakdown is the profitability gate's arithmetic for the best
// candidate of a cycle, already converted to display units.
type GateBreakdown struct {
	Symbol     string
	Route      string
	AmountIn   decimal.Decimal
	QuotedOutA string
	QuotedOutB decimal.Decimal
	Premium    decimal.Decimal
	MinProfit  decimal.Decimal
	Required   decimal.Decimal
	GrossBps   int64
	NeededBps  int64
	MinOutB    decimal.Decimal
	Accepted   bool
	Reason     string
}

// GateComponent renders the last gate decision.
type GateComponent struct {
	breakdown *GateBreakdown
	gasGwei   float64
	interval  string
}

func NewGateComponent() *GateComponent {
	return &GateComponent{}
}

// Set replaces the displayed decision. A nil breakdown shows that the
// last cycle found no candidate.
func (g *GateComponent) Set(b *GateBreakdown) {
	g.breakdown = b
}

// SetGas sets the gas price in gwei.
func (g *GateComponent) SetGas(gwei float64) {
	g.gasGwei = gwei
}

// SetInterval sets the next polling interval label.
func (g *GateComponent) SetInterval(s string) {
	g.interval = s
}

// View renders the gate component.
func (g *GateComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	positiveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("PROFITABILITY GATE"))
	sb.WriteString("\n")
	if g.gasGwei > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  gas %.3f gwei", g.gasGwei)))
	}
	if g.interval != "" {
		sb.WriteString(dimStyle.Render("  next poll in " + g.interval))
	}
	sb.WriteString("\n\n")

	b := g.breakdown
	if b == nil {
		sb.WriteString(dimStyle.Render("  Waiting for a candidate..."))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  Route:      %s\n", dimStyle.Render(b.Route)))
	sb.WriteString(fmt.Sprintf("  Loan:       %s %s\n", b.AmountIn.StringFixed(6), b.Symbol))
	sb.WriteString(fmt.Sprintf("  Leg A out:  %s\n", b.QuotedOutA))
	sb.WriteString(fmt.Sprintf("  Leg B out:  %s %s\n", b.QuotedOutB.StringFixed(6), b.Symbol))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 40)) + "\n")
	sb.WriteString(fmt.Sprintf("  Premium:    %s\n", negativeStyle.Render("-"+b.Premium.StringFixed(8))))
	sb.WriteString(fmt.Sprintf("  Min profit: %s\n", negativeStyle.Render("-"+b.MinProfit.StringFixed(8))))
	sb.WriteString(fmt.Sprintf("  Required:   %s %s\n", b.Required.StringFixed(6), b.Symbol))
	sb.WriteString(fmt.Sprintf("  Edge:       %+d bps (need %d)\n", b.GrossBps, b.NeededBps))

	if b.Accepted {
		sb.WriteString(positiveStyle.Render(fmt.Sprintf("  ACCEPTED  minOutB %s", b.MinOutB.StringFixed(6))))
	} else {
		sb.WriteString(negativeStyle.Render("  REJECTED  " + b.Reason))
	}
	sb.WriteString("\n")

	return sb.String()
}

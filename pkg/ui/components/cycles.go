// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// CycleRow is one finished cycle as shown in the history table.
type CycleRow struct {
	Time     string
	CycleID  uint64
	Size     decimal.Decimal
	Symbol   string
	Route    string
	GrossBps int64
	Profit   decimal.Decimal
	Outcome  string
	Hit      bool
	TxHash   string
}

// CyclesComponent renders the most recent cycles, newest first.
type CyclesComponent struct {
	rows    []CycleRow
	maxRows int
	offset  int
	visible int
}

// NewCyclesComponent creates a history holding at most maxRows rows.
func NewCyclesComponent(maxRows int) *CyclesComponent {
	return &CyclesComponent{
		rows:    make([]CycleRow, 0, maxRows),
		maxRows: maxRows,
		visible: 8,
	}
}

// Add prepends a row and drops the oldest beyond maxRows.
func (c *CyclesComponent) Add(row CycleRow) {
	c.rows = append([]CycleRow{row}, c.rows...)
	if len(c.rows) > c.maxRows {
		c.rows = c.rows[:c.maxRows]
	}
}

func (c *CyclesComponent) Len() int {
	return len(c.rows)
}

// Clear drops all rows.
func (c *CyclesComponent) Clear() {
	c.rows = c.rows[:0]
	c.offset = 0
}

func (c *CyclesComponent) ScrollUp() {
	if c.offset > 0 {
		c.offset--
	}
}

func (c *CyclesComponent) ScrollDown() {
	if c.offset < len(c.rows)-c.visible {
		c.offset++
	}
}

// View renders the cycles table.
func (c *CyclesComponent) View() string {
	if len(c.rows) == 0 {
		return "No cycles finished yet..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	hitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	missStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	result := headerStyle.Render(fmt.Sprintf("CYCLES (%d)", len(c.rows))) + "\n"
	result += fmt.Sprintf("  %-8s %6s %12s %8s %16s  %s\n", "Time", "Cycle", "Size", "Gross", "Outcome", "Route")

	end := c.offset + c.visible
	if end > len(c.rows) {
		end = len(c.rows)
	}
	for _, row := range c.rows[c.offset:end] {
		style := missStyle
		if row.Hit {
			style = hitStyle
		}
		gross := "-"
		if row.Route != "" {
			gross = fmt.Sprintf("%+dbp", row.GrossBps)
		}
		result += fmt.Sprintf("  %-8s %6d %12s %8s %s  %s\n",
			row.Time,
			row.CycleID,
			row.Size.StringFixed(4)+" "+row.Symbol,
			gross,
			style.Render(fmt.Sprintf("%16s", row.Outcome)),
			dimStyle.Render(row.Route),
		)
	}

	return result
}

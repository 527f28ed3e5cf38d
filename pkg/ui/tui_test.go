package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/flashroute/pkg/ui/components"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func cycle(id uint64, outcome string) CycleMsg {
	return CycleMsg{
		Row: components.CycleRow{
			CycleID: id,
			Size:    decimal.RequireFromString("0.01"),
			Symbol:  "WETH",
			Route:   "CL->CP 1-1 WETH>USDC@500 | USDC>WETH",
			Outcome: outcome,
			Hit:     outcome == "executed",
		},
		Quotes:       27,
		Duration:     40 * time.Millisecond,
		NextInterval: time.Second,
	}
}

func TestModel_CountsOutcomes(t *testing.T) {
	m := New()
	m = update(t, m, cycle(1, "no_route"))
	m = update(t, m, cycle(2, "rejected"))
	m = update(t, m, cycle(3, "executed"))
	m = update(t, m, cycle(4, "accepted"))

	c := m.Counters()
	assert.Equal(t, int64(4), c.Cycles)
	assert.Equal(t, int64(1), c.NoRoute)
	assert.Equal(t, int64(1), c.Rejected)
	assert.Equal(t, int64(1), c.Executed)
	assert.Equal(t, int64(1), c.Accepted)
	assert.Equal(t, int64(108), c.Quotes)
	assert.InDelta(t, 40.0, c.AvgCycleMs, 0.01)
	assert.Equal(t, 4, m.cycles.Len())
}

func TestModel_PauseKeepsCountingButFreezesHistory(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = update(t, m, cycle(1, "no_route"))

	assert.Equal(t, int64(1), m.Counters().Cycles)
	assert.Zero(t, m.cycles.Len())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = update(t, m, cycle(2, "no_route"))
	assert.Equal(t, 1, m.cycles.Len())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Zero(t, m.cycles.Len())
}

func TestModel_StartupCompletesWhenAllStepsReady(t *testing.T) {
	m := New()
	m.phase = PhaseStartup
	for _, step := range stepOrder {
		m = update(t, m, StartupMsg{Step: step, Status: "done"})
	}
	m = update(t, m, TickMsg{})
	assert.Equal(t, PhaseDashboard, m.Phase())
}

func TestModel_KeepsLastThreeErrors(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m = update(t, m, ErrorMsg{Error: errors.New("boom")})
	}
	assert.Len(t, m.errors, 3)

	m.phase = PhaseDashboard
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	assert.Empty(t, m.errors)
}

func TestModel_DashboardRendersGate(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard
	m.width = 120
	msg := cycle(7, "rejected")
	msg.Gate = &components.GateBreakdown{
		Symbol:   "WETH",
		Route:    msg.Row.Route,
		GrossBps: 12,
		Reason:   "below required",
	}
	m = update(t, m, msg)

	view := m.View()
	assert.Contains(t, view, "REJECTED")
	assert.Contains(t, view, "below required")
	assert.Contains(t, view, "flashroute")
}

package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds running cycle counters for display.
type Stats struct {
	Cycles     int64
	NoRoute    int64
	Rejected   int64
	Accepted   int64
	Executed   int64
	Failed     int64
	Quotes     int64
	AvgCycleMs float64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	hitRate := float64(0)
	if s.stats.Cycles > 0 {
		hitRate = float64(s.stats.Executed) / float64(s.stats.Cycles) * 100
	}

	failed := valueStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	if s.stats.Failed > 0 {
		failed = errorStyle.Render(fmt.Sprintf("%d", s.stats.Failed))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Cycles: %s  │  No route: %s  │  Rejected: %s  │  Accepted: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Cycles)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.NoRoute)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Rejected)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Accepted)),
		) +
		fmt.Sprintf("Executed: %s (%.1f%%)  │  Failed: %s  │  Quotes: %s  │  Avg cycle: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Executed)),
			hitRate,
			failed,
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Quotes)),
			valueStyle.Render(fmt.Sprintf("%.0fms", s.stats.AvgCycleMs)),
		)
}

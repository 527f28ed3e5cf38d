package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSecondary = lipgloss.Color("#10B981")
	ColorDanger    = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorBorder    = lipgloss.Color("#374151")
	ColorBlock     = lipgloss.Color("#60A5FA")
	ColorFaint     = lipgloss.Color("#9CA3AF")
)

// Panels and text roles shared by every screen.
var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 2)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	PositiveValue = lipgloss.NewStyle().Foreground(ColorSecondary)
	WarningValue  = lipgloss.NewStyle().Foreground(ColorWarning)
	NegativeValue = lipgloss.NewStyle().Foreground(ColorDanger)
	MutedValue    = lipgloss.NewStyle().Foreground(ColorMuted)
	FaintValue    = lipgloss.NewStyle().Foreground(ColorFaint)
	BlockValue    = lipgloss.NewStyle().Foreground(ColorBlock)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)

// stepStyle colors a startup step by status.
func stepStyle(status string) lipgloss.Style {
	switch status {
	case "connected", "done":
		return PositiveValue
	case "connecting":
		return WarningValue
	case "failed":
		return NegativeValue
	default:
		return MutedValue
	}
}

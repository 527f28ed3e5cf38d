// Package ui provides the Bubble Tea dashboard for flashroute.
package ui

import (
	"time"

	"github.com/fd1az/flashroute/pkg/ui/components"
)

// Message types for TUI updates

// CycleMsg is sent when a polling cycle finishes. Values are already in
// display units; the UI does no arithmetic on them.
type CycleMsg struct {
	Row components.CycleRow
	// Gate is nil when the cycle produced no candidate.
	Gate         *components.GateBreakdown
	Quotes       int
	Failed       bool
	Duration     time.Duration
	NextInterval time.Duration
}

// ConnectionStatusMsg is sent when connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// BlockMsg is sent when a new block is received.
type BlockMsg struct {
	Number    uint64
	Timestamp time.Time
}

// GasPriceMsg is sent when gas price is updated.
type GasPriceMsg struct {
	GweiPrice float64
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // "config", "ethereum", "tokens", "venues"
	Status  string // "connecting", "connected", "done", "failed"
	Message string
}

package reporter

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	blockchainDomain "github.com/fd1az/flashroute/business/blockchain/domain"
	"github.com/fd1az/flashroute/business/routing/app"
	"github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/pkg/ui"
)

var _ app.Reporter = (*TUIReporter)(nil)

// TUIReporter forwards cycles to the Bubble Tea dashboard.
type TUIReporter struct {
	fmt  *Formatter
	send func(tea.Msg)
}

// NewTUIReporter sends through send, or ui.Send when nil.
func NewTUIReporter(f *Formatter, send func(tea.Msg)) *TUIReporter {
	if send == nil {
		send = ui.Send
	}
	return &TUIReporter{fmt: f, send: send}
}

func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "venues", Status: "done"})
	return nil
}

// ReportCycle sends the cycle row, gate panel and gas price.
func (r *TUIReporter) ReportCycle(report *domain.CycleReport) {
	if report.GasPriceWei != nil {
		r.send(ui.GasPriceMsg{GweiPrice: Gwei(report.GasPriceWei)})
	}
	r.send(ui.CycleMsg{
		Row:          r.fmt.Row(report),
		Gate:         r.fmt.Gate(report),
		Quotes:       report.Stats.Quoted,
		Failed:       Failed(report),
		Duration:     report.Duration,
		NextInterval: report.NextInterval,
	})
	if report.Err != nil {
		r.send(ui.ErrorMsg{Error: report.Err})
	}
}

func (r *TUIReporter) UpdateBlock(block *blockchainDomain.Block) {
	r.send(ui.BlockMsg{Number: block.Number, Timestamp: block.Timestamp})
}

func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
}

func (r *TUIReporter) Stop() error {
	return nil
}

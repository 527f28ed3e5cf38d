package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	blockchainDomain "github.com/fd1az/flashroute/business/blockchain/domain"
	"github.com/fd1az/flashroute/business/routing/app"
	"github.com/fd1az/flashroute/business/routing/domain"
)

var _ app.Reporter = (*ConsoleReporter)(nil)

const rule = "================================================================================"

// ConsoleReporter prints one line per cycle and a detailed block for every
// accepted candidate.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
	fmt *Formatter
}

// NewConsoleReporter writes to out, or stdout when out is nil.
func NewConsoleReporter(out io.Writer, f *Formatter) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out, fmt: f}
}

func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "flashroute started")
	fmt.Fprintln(r.out, strings.Repeat("=", 18))
	return nil
}

// ReportCycle prints the cycle summary line.
func (r *ConsoleReporter) ReportCycle(report *domain.CycleReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.fmt.Row(report)
	line := fmt.Sprintf("[%s] cycle %d %-16s", row.Time, row.CycleID, row.Outcome)
	if row.Route != "" {
		line += fmt.Sprintf(" %s %s %s", row.Size.StringFixed(4), row.Symbol, row.Route)
	}
	if ev := report.Evaluation; ev != nil {
		line += fmt.Sprintf(" gross %+dbp need %dbp", bpsInt(ev.GrossBps), bpsInt(ev.NeededBps))
		if !ev.Accepted {
			line += " (" + ev.Reason + ")"
		}
	}
	line += fmt.Sprintf(" quotes %d next %s", report.Stats.Quoted, report.NextInterval.Round(time.Millisecond))
	if report.Err != nil {
		line += " error: " + report.Err.Error()
	}
	fmt.Fprintln(r.out, line)

	if report.Evaluation != nil && report.Evaluation.Accepted {
		r.printAccepted(report)
	}
}

func (r *ConsoleReporter) printAccepted(report *domain.CycleReport) {
	g := r.fmt.Gate(report)
	if g == nil {
		return
	}
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "CANDIDATE ACCEPTED")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "Route:          %s\n", g.Route)
	fmt.Fprintf(r.out, "Loan:           %s %s\n", g.AmountIn.StringFixed(8), g.Symbol)
	fmt.Fprintf(r.out, "Leg A out:      %s\n", g.QuotedOutA)
	fmt.Fprintf(r.out, "Leg B out:      %s %s\n", g.QuotedOutB.StringFixed(8), g.Symbol)
	fmt.Fprintf(r.out, "Gas price:      %.4f gwei\n", Gwei(report.GasPriceWei))
	fmt.Fprintln(r.out, strings.Repeat("-", len(rule)))
	fmt.Fprintf(r.out, "Premium:        %s\n", g.Premium.StringFixed(8))
	fmt.Fprintf(r.out, "Min profit:     %s\n", g.MinProfit.StringFixed(8))
	fmt.Fprintf(r.out, "Required:       %s\n", g.Required.StringFixed(8))
	fmt.Fprintf(r.out, "Edge:           %+d bps (need %d)\n", g.GrossBps, g.NeededBps)
	fmt.Fprintf(r.out, "minOutB:        %s\n", g.MinOutB.StringFixed(8))
	if ex := report.Execution; ex != nil {
		fmt.Fprintln(r.out, strings.Repeat("-", len(rule)))
		fmt.Fprintf(r.out, "Execution:      %s\n", ex.Outcome)
		if row := r.fmt.Row(report); row.TxHash != "" {
			fmt.Fprintf(r.out, "Tx:             %s (gas %d)\n", row.TxHash, ex.GasUsed)
		}
		if ex.RealizedProfit != nil {
			fmt.Fprintf(r.out, "Realized:       %s %s\n", r.fmt.Base(ex.RealizedProfit).StringFixed(8), g.Symbol)
		}
		if ex.Reason != "" {
			fmt.Fprintf(r.out, "Reason:         %s\n", ex.Reason)
		}
	}
	fmt.Fprintln(r.out, rule)
}

// UpdateBlock is a no-op; cycles are paced by the scheduler, not by heads.
func (r *ConsoleReporter) UpdateBlock(*blockchainDomain.Block) {}

// UpdateConnectionStatus prints connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency)
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", time.Now().Format("15:04:05"), name, status)
}

func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "flashroute stopped")
	return nil
}

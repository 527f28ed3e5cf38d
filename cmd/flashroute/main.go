// Package main is the entry point for flashroute.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/flashroute/business/blockchain"
	blockchainDI "github.com/fd1az/flashroute/business/blockchain/di"
	"github.com/fd1az/flashroute/business/execution"
	"github.com/fd1az/flashroute/business/journal"
	"github.com/fd1az/flashroute/business/routing"
	routingApp "github.com/fd1az/flashroute/business/routing/app"
	routingDI "github.com/fd1az/flashroute/business/routing/di"
	"github.com/fd1az/flashroute/business/tokens"
	tokensDI "github.com/fd1az/flashroute/business/tokens/di"
	"github.com/fd1az/flashroute/internal/apm"
	"github.com/fd1az/flashroute/internal/config"
	"github.com/fd1az/flashroute/internal/health"
	"github.com/fd1az/flashroute/internal/logger"
	"github.com/fd1az/flashroute/internal/metrics"
	"github.com/fd1az/flashroute/internal/monolith"
	"github.com/fd1az/flashroute/pkg/ui"
)

// headStaleAfter is generous for L2 block times of under a second.
const headStaleAfter = time.Minute

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	once := flag.Bool("once", false, "Run a single cycle and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("flashroute %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default; a single cycle always prints to the console.
	tuiMode := !*cliMode && !*once

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode, *once); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	var log *logger.Logger
	if tuiMode {
		log = logger.New(io.Discard, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
		log.Info(ctx, "starting flashroute",
			"version", version,
			"environment", cfg.App.Environment,
			"chain_id", cfg.Ethereum.ChainID,
		)
	}

	stopTelemetry := setupTelemetry(ctx, cfg, log)
	defer stopTelemetry()

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer func() {
		if err := mono.Close(); err != nil {
			log.Error(context.Background(), "shutdown", "error", err)
		}
	}()

	// Dependency order: tokens needs the registry, execution needs fees,
	// journal needs the universe, routing needs all of them.
	modules := []monolith.Module{
		&blockchain.Module{},
		&tokens.Module{},
		&execution.Module{},
		&journal.Module{},
		&routing.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	startFunc := func() error {
		if err := startModules(ctx, mono, modules, tuiMode); err != nil {
			return err
		}
		runner := routingDI.GetRunner(mono.Services())
		if !once {
			startHealth(ctx, cfg, mono, runner, log)
		}
		return nil
	}

	if tuiMode {
		return runTUI(ctx, startFunc, func() error {
			return routingDI.GetRunner(mono.Services()).Start(ctx)
		})
	}

	if err := startFunc(); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	runner := routingDI.GetRunner(mono.Services())

	if once {
		report := runner.RunCycle(ctx)
		log.Info(ctx, "single cycle done", "outcome", report.Outcome)
		return nil
	}
	return runCLI(ctx, runner, log)
}

// startModules starts each module in order and reports progress to the
// dashboard when it is running.
func startModules(ctx context.Context, mono monolith.Monolith, modules []monolith.Module, tuiMode bool) error {
	steps := map[int]string{0: "ethereum", 1: "tokens"}

	send := func(step, status, msg string) {
		if tuiMode {
			ui.Send(ui.StartupMsg{Step: step, Status: status, Message: msg})
		}
	}
	send("config", "done", "")

	for i, m := range modules {
		step, tracked := steps[i]
		if tracked {
			send(step, "connecting", "")
		}
		if err := m.Startup(ctx, mono); err != nil {
			if tracked {
				send(step, "failed", err.Error())
			}
			return err
		}
		if tracked {
			msg := ""
			if step == "tokens" {
				u := tokensDI.GetUniverse(mono.Services())
				msg = fmt.Sprintf("%d intermediates (%s)", len(u.Intermediates()), u.Source())
			}
			send(step, "connected", msg)
		}
	}
	return nil
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}

	traceProvider := apm.NewTraceProvider(ctx, log, apm.Settings{
		ServiceName: cfg.Telemetry.ServiceName,
		Exporter:    apm.Exporter(cfg.Telemetry.Exporter),
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	})

	opts := []metrics.OptionFn{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		opts = append(opts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.OTLPHeaders, false)))
	}
	meterProvider, err := metrics.NewMetricProvider(opts...)
	if err != nil {
		log.Warn(ctx, "metrics disabled", "error", err)
	}

	port := cfg.Telemetry.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go func() {
		if err := metrics.ServePrometheusMetrics(ctx, metrics.WithPort(strconv.Itoa(port))); err != nil {
			log.Warn(ctx, "prometheus server stopped", "error", err)
		}
	}()
	log.Info(ctx, "telemetry initialized", "exporter", cfg.Telemetry.Exporter, "prometheus_port", port)

	return func() {
		_ = traceProvider.Stop()
		if meterProvider != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = meterProvider.Shutdown(shutdownCtx)
		}
	}
}

// startHealth serves probes. The runner is live while cycles keep
// finishing within a few maximum intervals.
func startHealth(ctx context.Context, cfg *config.Config, mono monolith.Monolith, runner *routingApp.Runner, log *logger.Logger) {
	srv := health.NewServer(cfg.Health.Port, version)
	stall := 3*cfg.Polling.MaxInterval + cfg.Routing.QuoteTimeout*2

	srv.RegisterCheck("runner", func(context.Context) (bool, string) {
		last := runner.LastCycleAt()
		if last.IsZero() {
			return runner.Cycles() == 0, "no cycle finished yet"
		}
		if age := time.Since(last); age > stall {
			return false, fmt.Sprintf("last cycle %s ago", age.Round(time.Second))
		}
		return true, fmt.Sprintf("%d cycles", runner.Cycles())
	})
	chain := blockchainDI.GetBlockchainService(mono.Services())
	srv.RegisterCheck("heads", func(context.Context) (bool, string) {
		st := chain.Status()
		if !st.Fresh(time.Now(), headStaleAfter) {
			return false, fmt.Sprintf("%s, last block %d", st.State, st.LastBlock)
		}
		return true, fmt.Sprintf("block %d via %s", st.LastBlock, transport(st.UsingHTTP))
	})
	srv.RegisterCheck("ethereum", func(ctx context.Context) (bool, string) {
		n, err := mono.EthClient().BlockNumber(ctx)
		if err != nil {
			return false, err.Error()
		}
		return true, fmt.Sprintf("block %d", n)
	})

	if err := srv.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
		return
	}
	log.Info(ctx, "health server started", "port", cfg.Health.Port)
	mono.OnClose(func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
}

func transport(usingHTTP bool) string {
	if usingHTTP {
		return "http"
	}
	return "ws"
}

func runCLI(ctx context.Context, runner *routingApp.Runner, log *logger.Logger) error {
	log.Info(ctx, "all modules started, beginning route search")

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start runner: %w", err)
	}

	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}

func runTUI(ctx context.Context, startFunc, runFunc func() error) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := startFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		if err := runFunc(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

package app

import (
	"context"
	"encoding/hex"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	blockchainDomain "github.com/fd1az/flashroute/business/blockchain/domain"
	"github.com/fd1az/flashroute/business/routing/domain"
)

var (
	weth = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	usdc = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	arb  = common.HexToAddress("0x912CE59144191C1204E64559FE8253a0e49E6548")
	gmx  = common.HexToAddress("0xfc5A1A6EB076a2C7aD06eD22C90d7E710E35ad0a")
)

// fakeQuotes returns fixed outputs per path and NoRoute for unknown paths.
type fakeQuotes struct {
	mu    sync.Mutex
	cl    map[string]*big.Int
	cp    map[string]*big.Int
	fail  map[string]error
	calls map[string]int
	total atomic.Int64
	delay time.Duration
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		cl:    make(map[string]*big.Int),
		cp:    make(map[string]*big.Int),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func clKey(tokens []common.Address, fee domain.FeeTier) string {
	fees := make([]domain.FeeTier, len(tokens)-1)
	for i := range fees {
		fees[i] = fee
	}
	p, err := domain.EncodeConcentratedPath(tokens, fees)
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(p)
}

func cpKey(tokens []common.Address) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Hex()
	}
	return strings.Join(parts, ">")
}

func (f *fakeQuotes) setCL(out int64, fee domain.FeeTier, tokens ...common.Address) {
	f.cl[clKey(tokens, fee)] = big.NewInt(out)
}

func (f *fakeQuotes) setCP(out int64, tokens ...common.Address) {
	f.cp[cpKey(tokens)] = big.NewInt(out)
}

func (f *fakeQuotes) QuoteConcentrated(ctx context.Context, path []byte, _ *big.Int) (domain.QuoteResult, error) {
	return f.lookup(ctx, hex.EncodeToString(path), f.cl)
}

func (f *fakeQuotes) QuoteConstantProduct(ctx context.Context, tokens []common.Address, _ *big.Int) (domain.QuoteResult, error) {
	return f.lookup(ctx, cpKey(tokens), f.cp)
}

func (f *fakeQuotes) lookup(ctx context.Context, key string, table map[string]*big.Int) (domain.QuoteResult, error) {
	f.total.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domain.QuoteResult{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++

	if err, ok := f.fail[key]; ok {
		return domain.QuoteResult{}, err
	}
	if out, ok := table[key]; ok {
		return domain.Quoted(new(big.Int).Set(out), 100_000), nil
	}
	return domain.NoRoute("no pool"), nil
}

func (f *fakeQuotes) callsFor(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

type fakeFees struct {
	quote *blockchainDomain.FeeQuote
	err   error
}

func (f *fakeFees) CurrentFees(context.Context) (*blockchainDomain.FeeQuote, error) {
	return f.quote, f.err
}

type fakeUniverse struct {
	tokens []common.Address
}

func (u *fakeUniverse) Intermediates() []common.Address {
	return append([]common.Address(nil), u.tokens...)
}

func (u *fakeUniverse) Symbol(a common.Address) string {
	switch a {
	case weth:
		return "WETH"
	case usdc:
		return "USDC"
	case arb:
		return "ARB"
	case gmx:
		return "GMX"
	}
	return a.Hex()
}

type fakeDispatcher struct {
	calls  atomic.Int64
	result domain.ExecutionResult
	last   *domain.RouteCandidate
	lastEv domain.Evaluation
}

func (d *fakeDispatcher) Execute(_ context.Context, c *domain.RouteCandidate, ev domain.Evaluation) domain.ExecutionResult {
	d.calls.Add(1)
	d.last = c
	d.lastEv = ev
	return d.result
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []*domain.CycleReport
	blocks  int
	started bool
	stopped bool
}

func (r *fakeReporter) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return nil
}

func (r *fakeReporter) ReportCycle(report *domain.CycleReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

func (r *fakeReporter) UpdateBlock(*blockchainDomain.Block) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks++
}

func (r *fakeReporter) UpdateConnectionStatus(string, bool, time.Duration) {}

func (r *fakeReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

func (r *fakeReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

type fakeJournal struct {
	mu      sync.Mutex
	records []*domain.CycleReport
	err     error
}

func (j *fakeJournal) Record(_ context.Context, report *domain.CycleReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, report)
	return j.err
}

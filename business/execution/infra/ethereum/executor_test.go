package ethereum

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blockchainDomain "github.com/fd1az/flashroute/business/blockchain/domain"
	"github.com/fd1az/flashroute/business/execution/domain"
	routingDomain "github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/logger"
)

var (
	executorAddr = common.HexToAddress("0x00000000000000000000000000000000000F1A50")
	weth         = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	usdc         = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
)

// revertErr mimics the JSON-RPC error geth returns for a reverted call.
type revertErr struct{ data string }

func (e revertErr) Error() string          { return "execution reverted" }
func (e revertErr) ErrorCode() int         { return 3 }
func (e revertErr) ErrorData() interface{} { return e.data }

var _ rpc.DataError = revertErr{}

type fakeChain struct {
	mu sync.Mutex

	callRes  []byte
	callErr  error
	calls    []ethereum.CallMsg
	estimate uint64
	estErr   error
	sendErr  error
	sent     []*types.Transaction

	pendingPolls int
	status       uint64
	logs         []*types.Log
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	return f.callRes, f.callErr
}

func (f *fakeChain) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 7, nil }

func (f *fakeChain) ChainID(context.Context) (*big.Int, error) { return big.NewInt(42161), nil }

func (f *fakeChain) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.estimate, f.estErr
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pendingPolls > 0 {
		f.pendingPolls--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{
		TxHash:      hash,
		Status:      f.status,
		GasUsed:     350_000,
		BlockNumber: big.NewInt(1234),
		Logs:        f.logs,
	}, nil
}

type fixedFees struct{ q *blockchainDomain.FeeQuote }

func (f fixedFees) CurrentFees(context.Context) (*blockchainDomain.FeeQuote, error) { return f.q, nil }

func testPlan(t *testing.T) domain.Plan {
	t.Helper()
	legA, err := routingDomain.NewLeg(routingDomain.VenueConcentrated, []common.Address{weth, usdc}, 500)
	require.NoError(t, err)
	legB, err := routingDomain.NewLeg(routingDomain.VenueConstantProduct, []common.Address{usdc, weth}, 0)
	require.NoError(t, err)
	route, err := routingDomain.NewRoute(0, routingDomain.ShapeOneOne, weth, legA, legB, []common.Address{usdc})
	require.NoError(t, err)

	plan, err := domain.NewPlan(&routingDomain.RouteCandidate{
		Route:      route,
		AmountIn:   big.NewInt(10_000_000_000_000),
		QuotedOutA: big.NewInt(30_000),
		QuotedOutB: big.NewInt(10_300_000_000_000),
	}, routingDomain.Evaluation{
		Accepted:  true,
		MinOutA:   big.NewInt(29_955),
		MinOutB:   big.NewInt(10_284_550_000_000),
		MinProfit: big.NewInt(100_021_000_000),
	})
	require.NoError(t, err)
	return plan
}

func newTestExecutor(t *testing.T, chain *fakeChain, fees *blockchainDomain.FeeQuote) *Executor {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	cfg := DefaultExecutorConfig(executorAddr, key)
	cfg.ReceiptTimeout = 500 * time.Millisecond
	cfg.ReceiptPollInterval = 5 * time.Millisecond
	if fees == nil {
		fees = blockchainDomain.NewDynamicFeeQuote(big.NewInt(10_000_000), big.NewInt(200_000_000))
	}

	e, err := NewExecutor(cfg, chain, fixedFees{q: fees}, logger.NewNop())
	require.NoError(t, err)
	return e
}

func completionLog(t *testing.T, premium, profit int64) *types.Log {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(FlashExecutorABI))
	require.NoError(t, err)
	ev := parsed.Events[eventFlashCompleted]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(10_000_000_000_000), big.NewInt(premium), big.NewInt(profit))
	require.NoError(t, err)
	return &types.Log{
		Address: executorAddr,
		Topics:  []common.Hash{ev.ID, common.BytesToHash(weth.Bytes())},
		Data:    data,
	}
}

func TestExecutor_SimulatePasses(t *testing.T) {
	chain := &fakeChain{}
	e := newTestExecutor(t, chain, nil)

	require.NoError(t, e.Simulate(context.Background(), testPlan(t)))
	require.Len(t, chain.calls, 1)
	assert.Equal(t, e.Signer(), chain.calls[0].From)
	assert.Equal(t, executorAddr, *chain.calls[0].To)

	parsed, err := parseExecutorABI()
	require.NoError(t, err)
	assert.Equal(t, parsed.Methods[methodRunSimpleFlash].ID, chain.calls[0].Data[:4])
}

func TestExecutor_SimulateRevertIsDryRunRejected(t *testing.T) {
	reason, err := (abi.Arguments{{Type: mustType(t, "string")}}).Pack("not profitable")
	require.NoError(t, err)
	data := append(crypto.Keccak256([]byte("Error(string)"))[:4], reason...)

	chain := &fakeChain{callErr: revertErr{data: hexutil.Encode(data)}}
	e := newTestExecutor(t, chain, nil)

	err = e.Simulate(context.Background(), testPlan(t))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeDryRunRejected))

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "not profitable", appErr.Context)
}

func TestExecutor_SimulateTransportError(t *testing.T) {
	chain := &fakeChain{callErr: errors.New("connection refused")}
	e := newTestExecutor(t, chain, nil)

	err := e.Simulate(context.Background(), testPlan(t))
	assert.True(t, apperror.Is(err, apperror.CodeEthereumRPCError))
}

func TestExecutor_SubmitSignsDynamicFeeTx(t *testing.T) {
	chain := &fakeChain{
		estimate:     400_000,
		pendingPolls: 2,
		status:       types.ReceiptStatusSuccessful,
	}
	chain.logs = []*types.Log{completionLog(t, 5_000_000_000, 250_000_000_000)}
	e := newTestExecutor(t, chain, nil)

	rcpt, err := e.Submit(context.Background(), testPlan(t))
	require.NoError(t, err)

	require.Len(t, chain.sent, 1)
	tx := chain.sent[0]
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(440_000), tx.Gas())
	assert.Equal(t, "200000000", tx.GasTipCap().String())
	assert.Equal(t, "220000000", tx.GasFeeCap().String())
	assert.Equal(t, int64(42161), tx.ChainId().Int64())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(42161)), tx)
	require.NoError(t, err)
	assert.Equal(t, e.Signer(), sender)

	assert.True(t, rcpt.Success)
	assert.Equal(t, tx.Hash(), rcpt.TxHash)
	assert.Equal(t, uint64(350_000), rcpt.GasUsed)
	assert.Equal(t, uint64(1234), rcpt.BlockNumber)
	require.NotNil(t, rcpt.Completion)
	assert.Equal(t, weth, rcpt.Completion.Asset)
	assert.Equal(t, "250000000000", rcpt.Completion.ProfitWei.String())
	assert.Equal(t, "5000000000", rcpt.Completion.Premium.String())
}

func TestExecutor_SubmitLegacyFeesAndGasCap(t *testing.T) {
	chain := &fakeChain{estimate: 1_000_000, status: types.ReceiptStatusSuccessful}
	e := newTestExecutor(t, chain, blockchainDomain.NewLegacyFeeQuote(big.NewInt(100_000_000)))
	e.config.GasLimit = 900_000

	rcpt, err := e.Submit(context.Background(), testPlan(t))
	require.NoError(t, err)
	assert.Nil(t, rcpt.Completion)

	tx := chain.sent[0]
	assert.Equal(t, uint64(900_000), tx.Gas())
	assert.Equal(t, "100000000", tx.GasTipCap().String())
	assert.Equal(t, "100000000", tx.GasFeeCap().String())
}

func TestExecutor_SubmitReverted(t *testing.T) {
	chain := &fakeChain{estimate: 400_000, status: types.ReceiptStatusFailed}
	e := newTestExecutor(t, chain, nil)

	rcpt, err := e.Submit(context.Background(), testPlan(t))
	assert.True(t, apperror.Is(err, apperror.CodeExecutionReverted))
	require.NotNil(t, rcpt)
	assert.False(t, rcpt.Success)
	assert.Equal(t, uint64(350_000), rcpt.GasUsed)
}

func TestExecutor_SubmitEstimateRevert(t *testing.T) {
	chain := &fakeChain{estErr: errors.New("execution reverted: profit below min")}
	e := newTestExecutor(t, chain, nil)

	_, err := e.Submit(context.Background(), testPlan(t))
	assert.True(t, apperror.Is(err, apperror.CodeGasEstimationFailed))
	assert.Empty(t, chain.sent)
}

func TestExecutor_ReceiptTimeout(t *testing.T) {
	chain := &fakeChain{estimate: 400_000, pendingPolls: 1 << 30}
	e := newTestExecutor(t, chain, nil)
	e.config.ReceiptTimeout = 30 * time.Millisecond

	rcpt, err := e.Submit(context.Background(), testPlan(t))
	assert.True(t, apperror.Is(err, apperror.CodeReceiptTimeout))
	require.NotNil(t, rcpt)
	assert.Equal(t, chain.sent[0].Hash(), rcpt.TxHash)
}

func TestExecutor_VerifyOwner(t *testing.T) {
	chain := &fakeChain{}
	e := newTestExecutor(t, chain, nil)

	chain.callRes = common.LeftPadBytes(e.Signer().Bytes(), 32)
	require.NoError(t, e.VerifyOwner(context.Background()))

	chain.callRes = common.LeftPadBytes(weth.Bytes(), 32)
	err := e.VerifyOwner(context.Background())
	assert.True(t, apperror.Is(err, apperror.CodeExecutorNotOwner))
}

func TestNewExecutor_RequiresKey(t *testing.T) {
	_, err := NewExecutor(ExecutorConfig{Address: executorAddr}, &fakeChain{}, fixedFees{}, logger.NewNop())
	assert.True(t, apperror.Is(err, apperror.CodeSignerUnavailable))
}

func mustType(t *testing.T, name string) abi.Type {
	t.Helper()
	typ, err := abi.NewType(name, "", nil)
	require.NoError(t, err)
	return typ
}

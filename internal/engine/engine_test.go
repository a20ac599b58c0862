package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-fee-router/internal/config"
	"github.com/aman-zulfiqar/solana-fee-router/internal/events"
	"github.com/aman-zulfiqar/solana-fee-router/internal/instruction"
	"github.com/aman-zulfiqar/solana-fee-router/internal/pools"
	"github.com/aman-zulfiqar/solana-fee-router/internal/processor"
	"github.com/aman-zulfiqar/solana-fee-router/internal/routererr"
	"github.com/aman-zulfiqar/solana-fee-router/internal/routerix"
	"github.com/aman-zulfiqar/solana-fee-router/internal/wallet"
)

var routerProgram = solana.NewWallet().PublicKey()

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newKey() solana.PublicKey { return solana.NewWallet().PublicKey() }

func loadRegistry(t *testing.T) *pools.Registry {
	t.Helper()
	r, err := pools.NewRegistry("../../config/pools.json")
	require.NoError(t, err)
	return r
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	cfg.RouterProgramID = routerProgram
	if cfg.Registry == nil {
		cfg.Registry = loadRegistry(t)
	}
	cfg.Logger = quietLogger()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

// recordingSink collects every event written to it.
type recordingSink struct {
	mu     sync.Mutex
	events []*events.SkimEvent
	err    error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Write(_ context.Context, evs []*events.SkimEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evs...)
	return s.err
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(Config{Registry: loadRegistry(t)})
	assert.Error(t, err)

	_, err = NewEngine(Config{RouterProgramID: routerProgram})
	assert.Error(t, err)
}

func TestPlanSwap(t *testing.T) {
	e := newTestEngine(t, Config{})
	owner, feeOwner := newKey(), newKey()

	plan, err := e.PlanSwap(context.Background(), SwapRequest{
		Pool:             "SOL-USDC",
		Owner:            owner,
		FeeOwner:         feeOwner,
		AmountIn:         1000,
		MinimumAmountOut: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, routerProgram, plan.RouterProgram)
	assert.Equal(t, 20, plan.RouterAccounts)
	require.NotEmpty(t, plan.RouterData)
	assert.Equal(t, instruction.TagSwap, plan.RouterData[0])
	assert.Equal(t, 2, plan.SetupInstructions)

	require.Len(t, plan.Result.Skims, 1)
	skim := plan.Result.Skims[0]
	assert.Equal(t, uint64(50), skim.Amount)

	pool, err := loadRegistry(t).FindPoolByName("SOL-USDC")
	require.NoError(t, err)
	wantDest, err := routerix.FindAssociatedTokenAddress(owner, pool.PcMint)
	require.NoError(t, err)
	wantFee, err := routerix.FindAssociatedTokenAddress(feeOwner, pool.PcMint)
	require.NoError(t, err)
	assert.Equal(t, wantDest, skim.Source)
	assert.Equal(t, wantFee, skim.Destination)

	require.Len(t, plan.Calls, 2)
	assert.Equal(t, pool.AmmProgram, plan.Calls[0].ProgramID)
	assert.Equal(t, pool.TokenProgram, plan.Calls[1].ProgramID)
}

func TestPlanSwap_ReverseDirection(t *testing.T) {
	e := newTestEngine(t, Config{})
	owner := newKey()
	pool, err := loadRegistry(t).FindPoolByName("SOL-USDC")
	require.NoError(t, err)

	plan, err := e.PlanSwap(context.Background(), SwapRequest{
		Pool:             "SOL-USDC",
		InputMint:        pool.PcMint,
		Owner:            owner,
		FeeOwner:         newKey(),
		AmountIn:         1000,
		MinimumAmountOut: 100,
	})
	require.NoError(t, err)

	wantDest, err := routerix.FindAssociatedTokenAddress(owner, pool.CoinMint)
	require.NoError(t, err)
	assert.Equal(t, wantDest, plan.Result.Skims[0].Source)
	assert.Equal(t, uint64(10), plan.Result.Skims[0].Amount)
}

func TestPlanDeposit(t *testing.T) {
	e := newTestEngine(t, Config{})

	plan, err := e.PlanDeposit(context.Background(), DepositRequest{
		Pool:          "SOL-USDC",
		Owner:         newKey(),
		FeeOwner:      newKey(),
		MaxCoinAmount: 100,
		MaxPcAmount:   200,
	})
	require.NoError(t, err)

	assert.Equal(t, 16, plan.RouterAccounts)
	assert.Equal(t, instruction.TagDeposit, plan.RouterData[0])
	assert.Equal(t, 3, plan.SetupInstructions)

	fwd, ok := plan.Result.Forwarded.(instruction.Deposit)
	require.True(t, ok)
	assert.Equal(t, uint64(90), fwd.MaxCoinAmount)
	assert.Equal(t, uint64(180), fwd.MaxPcAmount)

	require.Len(t, plan.Result.Skims, 2)
	assert.Equal(t, processor.LegCoin, plan.Result.Skims[0].Leg)
	assert.Equal(t, uint64(10), plan.Result.Skims[0].Amount)
	assert.Equal(t, uint64(20), plan.Result.Skims[1].Amount)
	assert.Len(t, plan.Calls, 3)
}

func TestPlan_SkimFailureCommitsNothing(t *testing.T) {
	e := newTestEngine(t, Config{
		Executor: func(_ context.Context, ix solana.Instruction) error {
			if ix.ProgramID().Equals(solana.TokenProgramID) {
				return errors.New("insufficient funds")
			}
			return nil
		},
	})

	_, err := e.PlanSwap(context.Background(), SwapRequest{
		Pool:             "SOL-USDC",
		Owner:            newKey(),
		FeeOwner:         newKey(),
		AmountIn:         1000,
		MinimumAmountOut: 500,
	})
	require.Error(t, err)

	var skimErr *routererr.SkimCallError
	assert.ErrorAs(t, err, &skimErr)
}

func TestPlan_RequestValidation(t *testing.T) {
	e := newTestEngine(t, Config{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  SwapRequest
	}{
		{"no owner without wallet", SwapRequest{Pool: "SOL-USDC", FeeOwner: newKey()}},
		{"unknown pool", SwapRequest{Pool: "RAY-USDC", Owner: newKey(), FeeOwner: newKey()}},
		{"no fee owner", SwapRequest{Pool: "SOL-USDC", Owner: newKey()}},
		{"foreign input mint", SwapRequest{Pool: "SOL-USDC", Owner: newKey(), FeeOwner: newKey(), InputMint: newKey()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.PlanSwap(ctx, tt.req)
			assert.Error(t, err)
		})
	}
}

func TestExecute_RequiresWallet(t *testing.T) {
	e := newTestEngine(t, Config{})

	_, err := e.ExecuteSwap(context.Background(), SwapRequest{Pool: "SOL-USDC", FeeOwner: newKey()})
	assert.ErrorIs(t, err, ErrNoWallet)

	_, err = e.ExecuteDeposit(context.Background(), DepositRequest{Pool: "SOL-USDC", FeeOwner: newKey()})
	assert.ErrorIs(t, err, ErrNoWallet)

	_, err = e.GetWalletInfo(context.Background())
	assert.ErrorIs(t, err, ErrNoWallet)
}

// clusterStub answers just enough JSON-RPC to send and confirm one transaction.
func clusterStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result any
		switch req.Method {
		case "getLatestBlockhash":
			result = map[string]any{"value": map[string]any{"blockhash": solana.HashFromBytes(make([]byte, 32)).String()}}
		case "getBalance":
			result = map[string]any{"value": 1_000_000_000}
		case "sendTransaction":
			result = "execsig"
		case "getSignatureStatuses":
			result = map[string]any{"value": []any{map[string]any{"confirmationStatus": "confirmed"}}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newStubWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.NewWallet(wallet.WalletConfig{
		RPCURL:       clusterStub(t).URL,
		Timeout:      2 * time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
		PrivateKey:   solana.NewWallet().PrivateKey.String(),
		Logger:       quietLogger(),
	})
	require.NoError(t, err)
	return w
}

func TestExecuteSwap_PublishesEvents(t *testing.T) {
	sink := &recordingSink{err: errors.New("sink down")}
	w := newStubWallet(t)
	e := newTestEngine(t, Config{
		Wallet:         w,
		Sinks:          []events.Sink{sink},
		ConfirmTimeout: time.Second,
	})

	exec, err := e.ExecuteSwap(context.Background(), SwapRequest{
		Pool:             "SOL-USDC",
		FeeOwner:         newKey(),
		AmountIn:         1000,
		MinimumAmountOut: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, "execsig", exec.Signature)

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, "execsig", ev.Signature)
	assert.Equal(t, events.ModeExecute, ev.Mode)
	assert.Equal(t, uint64(50), ev.Amount)
	assert.Equal(t, "SOL-USDC", ev.Pool)
}

func TestExecuteSwap_ForeignOwner(t *testing.T) {
	e := newTestEngine(t, Config{Wallet: newStubWallet(t)})

	_, err := e.ExecuteSwap(context.Background(), SwapRequest{
		Pool:     "SOL-USDC",
		Owner:    newKey(),
		FeeOwner: newKey(),
		AmountIn: 1,
	})
	assert.Error(t, err)
}

func TestExecuteSwap_Limits(t *testing.T) {
	e := newTestEngine(t, Config{
		Wallet:         newStubWallet(t),
		ConfirmTimeout: time.Second,
		Limits:         LimitConfig{MaxAmount: 500, DailyOperations: 1},
	})
	ctx := context.Background()
	req := SwapRequest{Pool: "SOL-USDC", FeeOwner: newKey(), AmountIn: 1000, MinimumAmountOut: 10}

	_, err := e.ExecuteSwap(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds max")

	req.AmountIn = 400
	_, err = e.ExecuteSwap(ctx, req)
	require.NoError(t, err)

	_, err = e.ExecuteSwap(ctx, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily limit")
}

func TestGetPoolInfo(t *testing.T) {
	e := newTestEngine(t, Config{})
	info := e.GetPoolInfo()
	assert.Equal(t, 1, info.TotalPools)
	assert.Equal(t, []string{"SOL-USDC"}, info.PoolNames)
}

func TestNewEngineFromConfig(t *testing.T) {
	cfg := &config.Config{
		RPCUrl:          "http://localhost:8899",
		RouterProgramID: routerProgram.String(),
		PoolConfigPath:  "../../config/pools.json",
	}

	e, err := NewEngineFromConfig(context.Background(), cfg, nil, nil, quietLogger())
	require.NoError(t, err)
	defer e.Close()

	assert.Nil(t, e.wallet)
	assert.Empty(t, e.sinks)
	assert.Equal(t, 1, e.GetPoolInfo().TotalPools)

	cfg.PoolConfigPath = "missing.json"
	_, err = NewEngineFromConfig(context.Background(), cfg, nil, nil, quietLogger())
	assert.Error(t, err)
}

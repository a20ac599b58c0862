package wallet

import (
	"context"
	"encoding/json"
	"fmt"
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

	"github.com/aman-zulfiqar/solana-fee-router/internal/host"
	"github.com/aman-zulfiqar/solana-fee-router/internal/raydium"
)

// fakeCluster answers the JSON-RPC methods the wallet uses and counts calls.
type fakeCluster struct {
	mu       sync.Mutex
	calls    map[string]int
	simError any
}

func (f *fakeCluster) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint64 `json:"id"`
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls[req.Method]++
	f.mu.Unlock()

	var result any
	switch req.Method {
	case "getLatestBlockhash":
		result = map[string]any{"value": map[string]any{
			"blockhash":            solana.HashFromBytes(make([]byte, 32)).String(),
			"lastValidBlockHeight": 100,
		}}
	case "simulateTransaction":
		result = map[string]any{"value": map[string]any{
			"err":  f.simError,
			"logs": []string{"Program log: Instruction: Swap"},
		}}
	case "sendTransaction":
		result = "5sig"
	case "getSignatureStatuses":
		result = map[string]any{"value": []any{map[string]any{"slot": 1, "confirmationStatus": "finalized"}}}
	case "getBalance":
		result = map[string]any{"value": 2_500_000_000}
	default:
		result = nil
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func newTestWallet(t *testing.T, cluster *fakeCluster) *Wallet {
	t.Helper()
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	w, err := NewWallet(WalletConfig{
		RPCURL:       srv.URL,
		Timeout:      2 * time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
		PrivateKey:   solana.NewWallet().PrivateKey.String(),
		Logger:       logger,
	})
	require.NoError(t, err)
	return w
}

func transferFrom(t *testing.T, owner solana.PublicKey, amount uint64) solana.Instruction {
	t.Helper()
	ix, err := raydium.NewTransferInstruction(
		solana.TokenProgramID,
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		owner,
		amount,
	)
	require.NoError(t, err)
	return ix
}

func TestParsePrivateKey(t *testing.T) {
	priv := solana.NewWallet().PrivateKey

	got, err := ParsePrivateKey(priv.String())
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey(), got.PublicKey())

	ints := make([]int, len(priv))
	for i, b := range priv {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	require.NoError(t, err)

	got, err = ParsePrivateKey(string(raw))
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey(), got.PublicKey())
}

func TestParsePrivateKey_Invalid(t *testing.T) {
	for _, in := range []string{"[1,2,3]", "[256]", "0OIl", "3mJr7AoUXx2Wqd"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePrivateKey(in)
			assert.Error(t, err)
		})
	}
}

func TestNewWallet_RequiresFields(t *testing.T) {
	_, err := NewWallet(WalletConfig{PrivateKey: "x"})
	assert.Error(t, err)

	_, err = NewWallet(WalletConfig{RPCURL: "http://localhost"})
	assert.Error(t, err)
}

func TestGetBalanceSOL(t *testing.T) {
	w := newTestWallet(t, &fakeCluster{calls: map[string]int{}})

	bal, err := w.GetBalanceSOL(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2.5, bal, 1e-9)
}

func TestTxLedger_CommitSendsOneTransaction(t *testing.T) {
	cluster := &fakeCluster{calls: map[string]int{}}
	w := newTestWallet(t, cluster)
	ledger := NewTxLedger(w, LedgerConfig{RequireSimulation: true, ConfirmTimeout: time.Second})

	err := host.Run(context.Background(), ledger, func(ctx context.Context, inv host.Invoker) error {
		require.NoError(t, inv.Invoke(ctx, transferFrom(t, w.PublicKey(), 10)))
		return inv.Invoke(ctx, transferFrom(t, w.PublicKey(), 20))
	})
	require.NoError(t, err)

	assert.Equal(t, "5sig", ledger.LastSignature())
	assert.Equal(t, 1, cluster.count("simulateTransaction"))
	assert.Equal(t, 1, cluster.count("sendTransaction"))
	assert.NotEmpty(t, ledger.LastSimulationLogs())
}

func TestTxLedger_RollbackSendsNothing(t *testing.T) {
	cluster := &fakeCluster{calls: map[string]int{}}
	w := newTestWallet(t, cluster)
	ledger := NewTxLedger(w, LedgerConfig{})

	err := host.Run(context.Background(), ledger, func(ctx context.Context, inv host.Invoker) error {
		require.NoError(t, inv.Invoke(ctx, transferFrom(t, w.PublicKey(), 10)))
		return fmt.Errorf("skim failed")
	})
	require.Error(t, err)

	assert.Zero(t, cluster.count("getLatestBlockhash"))
	assert.Zero(t, cluster.count("sendTransaction"))
	assert.Empty(t, ledger.LastSignature())
}

func TestTxLedger_FailedSimulationIsNotSent(t *testing.T) {
	cluster := &fakeCluster{
		calls:    map[string]int{},
		simError: map[string]any{"InstructionError": []any{0, "InsufficientFunds"}},
	}
	w := newTestWallet(t, cluster)
	ledger := NewTxLedger(w, LedgerConfig{RequireSimulation: true})

	err := host.Run(context.Background(), ledger, func(ctx context.Context, inv host.Invoker) error {
		return inv.Invoke(ctx, transferFrom(t, w.PublicKey(), 10))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation failed")
	assert.Zero(t, cluster.count("sendTransaction"))
}

func TestTxLedger_InvokeAfterCommit(t *testing.T) {
	w := newTestWallet(t, &fakeCluster{calls: map[string]int{}})
	ledger := NewTxLedger(w, LedgerConfig{})

	unit, err := ledger.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, unit.Invoke(context.Background(), transferFrom(t, w.PublicKey(), 1)))
	require.NoError(t, unit.Commit(context.Background()))

	assert.Error(t, unit.Invoke(context.Background(), transferFrom(t, w.PublicKey(), 1)))
	unit.Rollback()
}

package events

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-fee-router/internal/instruction"
	"github.com/aman-zulfiqar/solana-fee-router/internal/processor"
)

func depositResult() *processor.Result {
	owner := solana.NewWallet().PublicKey()
	return &processor.Result{
		Kind:       instruction.KindDeposit,
		Request:    instruction.Deposit{MaxCoinAmount: 100, MaxPcAmount: 200},
		Forwarded:  instruction.Deposit{MaxCoinAmount: 90, MaxPcAmount: 180},
		AmmProgram: solana.NewWallet().PublicKey(),
		Skims: []processor.Skim{
			{Leg: processor.LegCoin, Source: solana.NewWallet().PublicKey(), Destination: solana.NewWallet().PublicKey(), Authority: owner, Amount: 10},
			{Leg: processor.LegPc, Source: solana.NewWallet().PublicKey(), Destination: solana.NewWallet().PublicKey(), Authority: owner, Amount: 20},
		},
	}
}

func TestFromResult(t *testing.T) {
	res := depositResult()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))

	evs := FromResult(res, "SOL-USDC", "sig", ModeExecute, ts)
	require.Len(t, evs, 2)

	assert.Equal(t, "deposit", evs[0].Kind)
	assert.Equal(t, "SOL-USDC", evs[0].Pool)
	assert.Equal(t, "sig", evs[0].Signature)
	assert.Equal(t, ModeExecute, evs[0].Mode)
	assert.Equal(t, time.UTC, evs[0].Timestamp.Location())
	assert.Equal(t, processor.LegCoin, evs[0].Leg)
	assert.Equal(t, uint64(10), evs[0].Amount)
	assert.Equal(t, res.Skims[1].Destination.String(), evs[1].Destination)
	assert.Equal(t, res.AmmProgram.String(), evs[1].AmmProgram)

	assert.Nil(t, FromResult(nil, "p", "", ModePlan, ts))
}

func TestChannels(t *testing.T) {
	chs := Channels(&SkimEvent{Pool: "SOL-USDC", Kind: "swap"})
	assert.Equal(t, []string{"skims:all", "skims:pool:SOL-USDC", "skims:kind:swap"}, chs)
}

func TestNewPublisher_NilClient(t *testing.T) {
	_, err := NewPublisher(nil)
	assert.Error(t, err)
}

func TestPublisher_RoundTrip(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	pub, err := NewPublisher(client)
	require.NoError(t, err)

	got := make(chan *SkimEvent, 4)
	subCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		_ = pub.Subscribe(subCtx, "skims:pool:*", func(ev *SkimEvent) { got <- ev })
	}()

	// give the subscription time to register
	time.Sleep(200 * time.Millisecond)

	evs := FromResult(depositResult(), "SOL-USDC", "", ModePlan, time.Now())
	require.NoError(t, pub.Write(ctx, evs))

	for i := 0; i < len(evs); i++ {
		select {
		case ev := <-got:
			assert.Equal(t, "SOL-USDC", ev.Pool)
		case <-ctx.Done():
			t.Fatal("timed out waiting for skim event")
		}
	}
}

func TestClickHouseConfig_Validate(t *testing.T) {
	assert.Error(t, ClickHouseConfig{}.validate())
	assert.Error(t, ClickHouseConfig{Addr: "localhost:9000"}.validate())
	assert.NoError(t, ClickHouseConfig{Addr: "localhost:9000", Database: "solana"}.validate())

	_, err := NewClickHouseSink(context.Background(), ClickHouseConfig{})
	assert.Error(t, err)
}

func TestClickHouseSink_Write(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink, err := NewClickHouseSink(ctx, ClickHouseConfig{
		Addr:     "localhost:9000",
		Database: "default",
		Table:    "fee_skims_test",
	})
	if err != nil {
		t.Skipf("ClickHouse not available: %v", err)
	}
	defer sink.Close()

	require.NoError(t, sink.EnsureSchema(ctx))
	evs := FromResult(depositResult(), "SOL-USDC", "test-sig", ModePlan, time.Now())
	assert.NoError(t, sink.Write(ctx, evs))
	assert.NoError(t, sink.Write(ctx, nil))
}

package feeconfig

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-fee-router/internal/fees"
	"github.com/aman-zulfiqar/solana-fee-router/internal/routererr"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	require.NoError(t, client.FlushDB(ctx).Err())
	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

var sample = fees.Fees{
	TradeFeeNumerator:     25,
	TradeFeeDenominator:   10000,
	DepositFeeNumerator:   1,
	DepositFeeDenominator: 10,
}

func TestNewStore_NilClient(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestValidatePool(t *testing.T) {
	for _, p := range []string{"SOL-USDC", "ray.usdc", "a", "pool_1"} {
		assert.NoError(t, ValidatePool(p), p)
	}
	for _, p := range []string{"", " ", "SOL/USDC", "pool:1", "with space", "tab\tbed"} {
		assert.Error(t, ValidatePool(p), p)
	}
}

func TestStore_UpsertGet(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	rec, err := store.Upsert(ctx, "SOL-USDC", sample)
	require.NoError(t, err)
	assert.Equal(t, "SOL-USDC", rec.Pool)
	assert.NotZero(t, rec.UpdatedAt)

	got, err := store.Get(ctx, "SOL-USDC")
	require.NoError(t, err)
	assert.Equal(t, sample, got.Fees)
	assert.True(t, rec.UpdatedAt.Equal(got.UpdatedAt))

	// stored in the 64-byte packed form
	raw, err := client.HGet(ctx, recordKey("SOL-USDC"), fieldRecord).Bytes()
	require.NoError(t, err)
	assert.Len(t, raw, fees.RecordLen)
}

func TestStore_UpsertRejectsInvalidFees(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	_, err = store.Upsert(context.Background(), "SOL-USDC", fees.Fees{TradeFeeNumerator: 5, TradeFeeDenominator: 5})
	assert.ErrorIs(t, err, routererr.InvalidFee)

	_, err = store.Get(context.Background(), "SOL-USDC")
	assert.Equal(t, ErrNotFound, err)
}

func TestStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Upsert(ctx, "SOL-USDC", sample)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "SOL-USDC"))
	_, err = store.Get(ctx, "SOL-USDC")
	assert.Equal(t, ErrNotFound, err)

	assert.NoError(t, store.Delete(ctx, "missing"))
}

func TestStore_List(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	recs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	for i := 0; i < 3; i++ {
		f := sample
		f.TradeFeeNumerator = uint64(i + 1)
		_, err := store.Upsert(ctx, fmt.Sprintf("pool-%d", i), f)
		require.NoError(t, err)
	}

	recs, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	byPool := map[string]fees.Fees{}
	for _, r := range recs {
		byPool[r.Pool] = r.Fees
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, uint64(i+1), byPool[fmt.Sprintf("pool-%d", i)].TradeFeeNumerator)
	}
}

func TestStore_ListSkipsCorruptRecords(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Upsert(ctx, "good", sample)
	require.NoError(t, err)

	require.NoError(t, client.HSet(ctx, recordKey("short"), fieldRecord, []byte{1, 2, 3}).Err())
	require.NoError(t, client.SAdd(ctx, indexKey, "short").Err())

	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, routererr.InvalidInput)

	recs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "good", recs[0].Pool)
}

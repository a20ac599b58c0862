package routerix

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-fee-router/internal/accounts"
	"github.com/aman-zulfiqar/solana-fee-router/internal/instruction"
	"github.com/aman-zulfiqar/solana-fee-router/internal/pools"
)

func newKey() solana.PublicKey { return solana.NewWallet().PublicKey() }

func testPool() *pools.Pool {
	return &pools.Pool{
		Name:                 "TEST",
		CoinMint:             newKey(),
		PcMint:               newKey(),
		LpMint:               newKey(),
		AmmProgram:           solana.MustPublicKeyFromBase58(pools.RaydiumAmmV4ProgramID),
		TokenProgram:         solana.TokenProgramID,
		Amm:                  newKey(),
		AmmAuthority:         newKey(),
		AmmOpenOrders:        newKey(),
		AmmTargetOrders:      newKey(),
		PoolCoinTokenAccount: newKey(),
		PoolPcTokenAccount:   newKey(),
		SerumProgram:         solana.MustPublicKeyFromBase58(pools.SerumDexV3ProgramID),
		SerumMarket:          newKey(),
		SerumBids:            newKey(),
		SerumAsks:            newKey(),
		SerumEventQueue:      newKey(),
		SerumCoinVault:       newKey(),
		SerumPcVault:         newKey(),
		SerumVaultSigner:     newKey(),
	}
}

func TestNewSwapInstruction(t *testing.T) {
	router := newKey()
	pool := testPool()
	p := SwapParams{
		UserSource:       newKey(),
		UserDestination:  newKey(),
		UserOwner:        newKey(),
		FeeReceiver:      newKey(),
		AmountIn:         1000,
		MinimumAmountOut: 500,
	}

	ix, err := NewSwapInstruction(router, pool, p)
	require.NoError(t, err)
	assert.Equal(t, router, ix.ProgramID())

	data, err := ix.Data()
	require.NoError(t, err)
	decoded, err := instruction.Decode(data)
	require.NoError(t, err, "router data uses the decode tag table")
	assert.Equal(t, instruction.Swap{AmountIn: 1000, MinimumAmountOut: 500}, decoded)

	routed, err := accounts.RouteSwap(ix.Accounts())
	require.NoError(t, err)
	assert.Equal(t, pool.AmmProgram, routed.AmmProgram)
	assert.Equal(t, pool.SerumVaultSigner, routed.SerumVaultSigner)
	assert.Equal(t, p.FeeReceiver, routed.FeeReceiver)
	assert.True(t, ix.Accounts()[18].IsSigner, "user owner signs")
}

func TestNewDepositInstruction(t *testing.T) {
	router := newKey()
	pool := testPool()
	p := DepositParams{
		UserCoin:        newKey(),
		UserPc:          newKey(),
		UserLp:          newKey(),
		UserOwner:       newKey(),
		FeeReceiverCoin: newKey(),
		FeeReceiverPc:   newKey(),
		MaxCoinAmount:   100,
		MaxPcAmount:     200,
	}

	ix, err := NewDepositInstruction(router, pool, p)
	require.NoError(t, err)
	require.Len(t, ix.Accounts(), accounts.DepositLen)

	data, err := ix.Data()
	require.NoError(t, err)
	decoded, err := instruction.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, instruction.Deposit{MaxCoinAmount: 100, MaxPcAmount: 200}, decoded)

	routed, err := accounts.RouteDeposit(ix.Accounts())
	require.NoError(t, err)
	assert.Equal(t, pool.LpMint, routed.LpMint)
	assert.Equal(t, p.FeeReceiverPc, routed.FeeReceiverPc)
}

func TestBuilder_Validation(t *testing.T) {
	_, err := NewSwapInstruction(newKey(), nil, SwapParams{})
	assert.Error(t, err)

	_, err = NewSwapInstruction(newKey(), testPool(), SwapParams{UserSource: newKey()})
	assert.Error(t, err)

	_, err = NewDepositInstruction(solana.PublicKey{}, testPool(), DepositParams{})
	assert.Error(t, err)
}

func TestFindAssociatedTokenAddress(t *testing.T) {
	owner, mint := newKey(), newKey()

	a, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	b, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	ix := NewCreateAssociatedTokenAccountIdempotentIx(owner, a, owner, mint)
	assert.Equal(t, associatedTokenProgramID, ix.ProgramID())
	assert.Len(t, ix.Accounts(), 6)
}

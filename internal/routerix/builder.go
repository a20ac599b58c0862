package routerix

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-fee-router/internal/accounts"
	"github.com/aman-zulfiqar/solana-fee-router/internal/instruction"
	"github.com/aman-zulfiqar/solana-fee-router/internal/pools"
)

// SwapParams are the user side inputs of a routed swap.
type SwapParams struct {
	UserSource       solana.PublicKey
	UserDestination  solana.PublicKey
	UserOwner        solana.PublicKey
	FeeReceiver      solana.PublicKey
	AmountIn         uint64
	MinimumAmountOut uint64
}

// DepositParams are the user side inputs of a routed deposit.
type DepositParams struct {
	UserCoin        solana.PublicKey
	UserPc          solana.PublicKey
	UserLp          solana.PublicKey
	UserOwner       solana.PublicKey
	FeeReceiverCoin solana.PublicKey
	FeeReceiverPc   solana.PublicKey
	MaxCoinAmount   uint64
	MaxPcAmount     uint64
	BaseSide        uint64
}

// SwapAccounts fills the positional swap roles from a pool and user keys.
func SwapAccounts(pool *pools.Pool, p SwapParams) *accounts.Swap {
	return &accounts.Swap{
		AmmProgram:           pool.AmmProgram,
		TokenProgram:         pool.TokenProgram,
		Amm:                  pool.Amm,
		AmmAuthority:         pool.AmmAuthority,
		AmmOpenOrders:        pool.AmmOpenOrders,
		AmmTargetOrders:      pool.AmmTargetOrders,
		PoolCoinTokenAccount: pool.PoolCoinTokenAccount,
		PoolPcTokenAccount:   pool.PoolPcTokenAccount,
		SerumProgram:         pool.SerumProgram,
		SerumMarket:          pool.SerumMarket,
		SerumBids:            pool.SerumBids,
		SerumAsks:            pool.SerumAsks,
		SerumEventQueue:      pool.SerumEventQueue,
		SerumCoinVault:       pool.SerumCoinVault,
		SerumPcVault:         pool.SerumPcVault,
		SerumVaultSigner:     pool.SerumVaultSigner,
		UserSource:           p.UserSource,
		UserDestination:      p.UserDestination,
		UserOwner:            p.UserOwner,
		FeeReceiver:          p.FeeReceiver,
	}
}

// DepositAccounts fills the positional deposit roles from a pool and user keys.
func DepositAccounts(pool *pools.Pool, p DepositParams) *accounts.Deposit {
	return &accounts.Deposit{
		AmmProgram:           pool.AmmProgram,
		TokenProgram:         pool.TokenProgram,
		Amm:                  pool.Amm,
		AmmAuthority:         pool.AmmAuthority,
		AmmOpenOrders:        pool.AmmOpenOrders,
		AmmTargetOrders:      pool.AmmTargetOrders,
		LpMint:               pool.LpMint,
		PoolCoinTokenAccount: pool.PoolCoinTokenAccount,
		PoolPcTokenAccount:   pool.PoolPcTokenAccount,
		SerumMarket:          pool.SerumMarket,
		UserCoinTokenAccount: p.UserCoin,
		UserPcTokenAccount:   p.UserPc,
		UserLpTokenAccount:   p.UserLp,
		UserOwner:            p.UserOwner,
		FeeReceiverCoin:      p.FeeReceiverCoin,
		FeeReceiverPc:        p.FeeReceiverPc,
	}
}

// NewSwapInstruction builds the router swap instruction a wallet signs.
//
// Data: [0] = 0 (swap), [1:9] = amount_in, [9:17] = minimum_amount_out.
// Accounts: the 20 positional swap roles.
func NewSwapInstruction(router solana.PublicKey, pool *pools.Pool, p SwapParams) (solana.Instruction, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if err := requirePubkeys(map[string]solana.PublicKey{
		"router":           router,
		"user_source":      p.UserSource,
		"user_destination": p.UserDestination,
		"user_owner":       p.UserOwner,
		"fee_receiver":     p.FeeReceiver,
	}); err != nil {
		return nil, err
	}

	data, err := instruction.EncodeRouter(instruction.Swap{
		AmountIn:         p.AmountIn,
		MinimumAmountOut: p.MinimumAmountOut,
	})
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(router, SwapAccounts(pool, p).Metas(), data), nil
}

// NewDepositInstruction builds the router deposit instruction a wallet signs.
//
// Data: [0] = 1 (deposit), then max_coin_amount, max_pc_amount, base_side.
// Accounts: the 16 positional deposit roles.
func NewDepositInstruction(router solana.PublicKey, pool *pools.Pool, p DepositParams) (solana.Instruction, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if err := requirePubkeys(map[string]solana.PublicKey{
		"router":            router,
		"user_coin":         p.UserCoin,
		"user_pc":           p.UserPc,
		"user_lp":           p.UserLp,
		"user_owner":        p.UserOwner,
		"fee_receiver_coin": p.FeeReceiverCoin,
		"fee_receiver_pc":   p.FeeReceiverPc,
	}); err != nil {
		return nil, err
	}

	data, err := instruction.EncodeRouter(instruction.Deposit{
		MaxCoinAmount: p.MaxCoinAmount,
		MaxPcAmount:   p.MaxPcAmount,
		BaseSide:      p.BaseSide,
	})
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(router, DepositAccounts(pool, p).Metas(), data), nil
}

func requirePubkeys(keys map[string]solana.PublicKey) error {
	for name, pk := range keys {
		if pk.IsZero() {
			return fmt.Errorf("%s is zero", name)
		}
	}
	return nil
}

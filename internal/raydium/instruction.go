package raydium

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/aman-zulfiqar/solana-fee-router/internal/accounts"
	"github.com/aman-zulfiqar/solana-fee-router/internal/instruction"
)

// NewDepositInstruction builds the forwarded AMM deposit call.
//
// Data layout (25 bytes):
// [0] = 3 (deposit)
// [1:9] = max_coin_amount
// [9:17] = max_pc_amount
// [17:25] = base_side
func NewDepositInstruction(acc *accounts.Deposit, coinAmount, pcAmount, baseSide uint64) (solana.Instruction, error) {
	if acc == nil {
		return nil, fmt.Errorf("deposit accounts cannot be nil")
	}

	data, err := instruction.Encode(instruction.Deposit{
		MaxCoinAmount: coinAmount,
		MaxPcAmount:   pcAmount,
		BaseSide:      baseSide,
	})
	if err != nil {
		return nil, fmt.Errorf("encode deposit: %w", err)
	}

	return solana.NewInstruction(acc.AmmProgram, acc.ForwardMetas(), data), nil
}

// NewSwapInstruction builds the forwarded AMM swap call.
//
// Data layout:
// [0] = 9 (swap base in)
// [1:9] = amount_in
// [9:17] = minimum_amount_out
func NewSwapInstruction(acc *accounts.Swap, amountIn, minimumAmountOut uint64) (solana.Instruction, error) {
	if acc == nil {
		return nil, fmt.Errorf("swap accounts cannot be nil")
	}

	data, err := instruction.Encode(instruction.Swap{
		AmountIn:         amountIn,
		MinimumAmountOut: minimumAmountOut,
	})
	if err != nil {
		return nil, fmt.Errorf("encode swap: %w", err)
	}

	return solana.NewInstruction(acc.AmmProgram, acc.ForwardMetas(), data), nil
}

// NewTransferInstruction builds an SPL Token transfer addressed to tokenProgram,
// which is whatever token program the caller passed in rather than the
// hardcoded default.
//
// Accounts: source (writable), destination (writable), owner (signer).
func NewTransferInstruction(
	tokenProgram solana.PublicKey,
	source solana.PublicKey,
	destination solana.PublicKey,
	owner solana.PublicKey,
	amount uint64,
) (solana.Instruction, error) {
	ix, err := token.NewTransferInstruction(amount, source, destination, owner, nil).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("build transfer: %w", err)
	}

	data, err := ix.Data()
	if err != nil {
		return nil, fmt.Errorf("encode transfer: %w", err)
	}

	return solana.NewInstruction(tokenProgram, ix.Accounts(), data), nil
}

package engine

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-fee-router/internal/host"
	"github.com/aman-zulfiqar/solana-fee-router/internal/processor"
)

// SwapRequest describes a routed swap on a registered pool.
type SwapRequest struct {
	Pool      string           `json:"pool"`
	InputMint solana.PublicKey `json:"input_mint"` // zero means coin -> pc

	// Owner signs the swap; zero uses the engine wallet.
	Owner solana.PublicKey `json:"owner"`
	// FeeOwner owns the fee receiver token account of the output mint.
	FeeOwner solana.PublicKey `json:"fee_owner"`

	AmountIn         uint64 `json:"amount_in"`
	MinimumAmountOut uint64 `json:"minimum_amount_out"`
}

// DepositRequest describes a routed liquidity deposit on a registered pool.
type DepositRequest struct {
	Pool     string           `json:"pool"`
	Owner    solana.PublicKey `json:"owner"`
	FeeOwner solana.PublicKey `json:"fee_owner"`

	MaxCoinAmount uint64 `json:"max_coin_amount"`
	MaxPcAmount   uint64 `json:"max_pc_amount"`
	BaseSide      uint64 `json:"base_side"`
}

// Plan is the outcome of a dry run: the router instruction a wallet would send
// and the calls the router would commit for it.
type Plan struct {
	Pool              string            `json:"pool"`
	RouterProgram     solana.PublicKey  `json:"router_program"`
	RouterData        []byte            `json:"router_data"`
	RouterAccounts    int               `json:"router_accounts"`
	Result            *processor.Result `json:"result"`
	Calls             []host.Call       `json:"calls"`
	PlannedAt         time.Time         `json:"planned_at"`
	SetupInstructions int               `json:"setup_instructions"`
}

// Execution is the outcome of a committed on-chain operation.
type Execution struct {
	Pool      string            `json:"pool"`
	Signature string            `json:"signature"`
	Result    *processor.Result `json:"result"`
	Duration  time.Duration     `json:"duration"`
	Logs      []string          `json:"logs,omitempty"`
}

// WalletInfo reports the engine wallet.
type WalletInfo struct {
	Address    string  `json:"address"`
	BalanceSOL float64 `json:"balance_sol"`
}

// PoolInfo lists the registered pools.
type PoolInfo struct {
	TotalPools int      `json:"total_pools"`
	PoolNames  []string `json:"pool_names"`
}

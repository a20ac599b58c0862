package instruction

import "fmt"

// Router tag table: accepted by Decode.
const (
	TagSwap    uint8 = 0
	TagDeposit uint8 = 1
)

// AMM tag table: produced by Encode for the forwarded call.
// These differ from the router table; Decode does not accept them.
const (
	ForwardTagSwap    uint8 = 9
	ForwardTagDeposit uint8 = 3
)

const (
	SwapDataLen    = 1 + 8 + 8
	DepositDataLen = 1 + 8 + 8 + 8
)

// Kind names an instruction variant.
type Kind string

const (
	KindSwap    Kind = "swap"
	KindDeposit Kind = "deposit"
)

// Instruction is either a Swap or a Deposit.
type Instruction interface {
	Kind() Kind
	isInstruction()
}

// Swap trades amount_in of the source token for at least MinimumAmountOut.
type Swap struct {
	AmountIn         uint64 `json:"amount_in"`
	MinimumAmountOut uint64 `json:"minimum_amount_out"`
}

// Deposit adds liquidity bounded by the two max amounts.
type Deposit struct {
	MaxCoinAmount uint64 `json:"max_coin_amount"`
	MaxPcAmount   uint64 `json:"max_pc_amount"`
	BaseSide      uint64 `json:"base_side"`
}

func (Swap) Kind() Kind    { return KindSwap }
func (Deposit) Kind() Kind { return KindDeposit }

func (Swap) isInstruction()    {}
func (Deposit) isInstruction() {}

func (s Swap) String() string {
	return fmt.Sprintf("Swap{amount_in=%d minimum_amount_out=%d}", s.AmountIn, s.MinimumAmountOut)
}

func (d Deposit) String() string {
	return fmt.Sprintf("Deposit{max_coin_amount=%d max_pc_amount=%d base_side=%d}",
		d.MaxCoinAmount, d.MaxPcAmount, d.BaseSide)
}

package accounts

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-fee-router/internal/routererr"
)

// Number of account references consumed by each operation, and the size of
// the subset handed to the forwarded AMM call.
const (
	SwapLen           = 20
	DepositLen        = 16
	SwapForwardLen    = 18
	DepositForwardLen = 13
)

// cursor hands out account references in order. The first missing reference
// sticks, so callers can pull every role and check err once.
type cursor struct {
	op   string
	refs []*solana.AccountMeta
	pos  int
	err  error
}

func (c *cursor) next(role string) solana.PublicKey {
	if c.err != nil {
		return solana.PublicKey{}
	}
	if c.pos >= len(c.refs) || c.refs[c.pos] == nil {
		c.err = fmt.Errorf("%w: %s account #%d (%s)", routererr.MissingAccount, c.op, c.pos, role)
		return solana.PublicKey{}
	}
	pk := c.refs[c.pos].PublicKey
	c.pos++
	return pk
}

// Swap holds the positional roles of a swap call.
type Swap struct {
	AmmProgram           solana.PublicKey `json:"amm_program"`
	TokenProgram         solana.PublicKey `json:"token_program"`
	Amm                  solana.PublicKey `json:"amm"`
	AmmAuthority         solana.PublicKey `json:"amm_authority"`
	AmmOpenOrders        solana.PublicKey `json:"amm_open_orders"`
	AmmTargetOrders      solana.PublicKey `json:"amm_target_orders"`
	PoolCoinTokenAccount solana.PublicKey `json:"pool_coin_token_account"`
	PoolPcTokenAccount   solana.PublicKey `json:"pool_pc_token_account"`
	SerumProgram         solana.PublicKey `json:"serum_program"`
	SerumMarket          solana.PublicKey `json:"serum_market"`
	SerumBids            solana.PublicKey `json:"serum_bids"`
	SerumAsks            solana.PublicKey `json:"serum_asks"`
	SerumEventQueue      solana.PublicKey `json:"serum_event_queue"`
	SerumCoinVault       solana.PublicKey `json:"serum_coin_vault"`
	SerumPcVault         solana.PublicKey `json:"serum_pc_vault"`
	SerumVaultSigner     solana.PublicKey `json:"serum_vault_signer"`
	UserSource           solana.PublicKey `json:"user_source"`
	UserDestination      solana.PublicKey `json:"user_destination"`
	UserOwner            solana.PublicKey `json:"user_owner"`
	FeeReceiver          solana.PublicKey `json:"fee_receiver"`
}

// RouteSwap assigns swap roles by position. References past SwapLen are ignored.
func RouteSwap(refs []*solana.AccountMeta) (*Swap, error) {
	c := &cursor{op: "swap", refs: refs}
	s := &Swap{
		AmmProgram:           c.next("amm program"),
		TokenProgram:         c.next("token program"),
		Amm:                  c.next("amm"),
		AmmAuthority:         c.next("amm authority"),
		AmmOpenOrders:        c.next("amm open orders"),
		AmmTargetOrders:      c.next("amm target orders"),
		PoolCoinTokenAccount: c.next("pool coin token account"),
		PoolPcTokenAccount:   c.next("pool pc token account"),
		SerumProgram:         c.next("serum program"),
		SerumMarket:          c.next("serum market"),
		SerumBids:            c.next("serum bids"),
		SerumAsks:            c.next("serum asks"),
		SerumEventQueue:      c.next("serum event queue"),
		SerumCoinVault:       c.next("serum coin vault"),
		SerumPcVault:         c.next("serum pc vault"),
		SerumVaultSigner:     c.next("serum vault signer"),
		UserSource:           c.next("user source"),
		UserDestination:      c.next("user destination"),
		UserOwner:            c.next("user owner"),
		FeeReceiver:          c.next("fee receiver"),
	}
	if c.err != nil {
		return nil, c.err
	}
	return s, nil
}

// ForwardMetas returns the 18 accounts of the AMM swap call, in the AMM's order.
func (s *Swap) ForwardMetas() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.Meta(s.TokenProgram),
		solana.Meta(s.Amm).WRITE(),
		solana.Meta(s.AmmAuthority),
		solana.Meta(s.AmmOpenOrders).WRITE(),
		solana.Meta(s.AmmTargetOrders).WRITE(),
		solana.Meta(s.PoolCoinTokenAccount).WRITE(),
		solana.Meta(s.PoolPcTokenAccount).WRITE(),
		solana.Meta(s.SerumProgram),
		solana.Meta(s.SerumMarket).WRITE(),
		solana.Meta(s.SerumBids).WRITE(),
		solana.Meta(s.SerumAsks).WRITE(),
		solana.Meta(s.SerumEventQueue).WRITE(),
		solana.Meta(s.SerumCoinVault).WRITE(),
		solana.Meta(s.SerumPcVault).WRITE(),
		solana.Meta(s.SerumVaultSigner),
		solana.Meta(s.UserSource).WRITE(),
		solana.Meta(s.UserDestination).WRITE(),
		solana.Meta(s.UserOwner).SIGNER(),
	}
}

// Metas returns the full router account list a client sends for a swap.
func (s *Swap) Metas() []*solana.AccountMeta {
	out := make([]*solana.AccountMeta, 0, SwapLen)
	out = append(out, solana.Meta(s.AmmProgram))
	out = append(out, s.ForwardMetas()...)
	return append(out, solana.Meta(s.FeeReceiver).WRITE())
}

// Deposit holds the positional roles of a deposit call.
type Deposit struct {
	AmmProgram           solana.PublicKey `json:"amm_program"`
	TokenProgram         solana.PublicKey `json:"token_program"`
	Amm                  solana.PublicKey `json:"amm"`
	AmmAuthority         solana.PublicKey `json:"amm_authority"`
	AmmOpenOrders        solana.PublicKey `json:"amm_open_orders"`
	AmmTargetOrders      solana.PublicKey `json:"amm_target_orders"`
	LpMint               solana.PublicKey `json:"lp_mint"`
	PoolCoinTokenAccount solana.PublicKey `json:"pool_coin_token_account"`
	PoolPcTokenAccount   solana.PublicKey `json:"pool_pc_token_account"`
	SerumMarket          solana.PublicKey `json:"serum_market"`
	UserCoinTokenAccount solana.PublicKey `json:"user_coin_token_account"`
	UserPcTokenAccount   solana.PublicKey `json:"user_pc_token_account"`
	UserLpTokenAccount   solana.PublicKey `json:"user_lp_token_account"`
	UserOwner            solana.PublicKey `json:"user_owner"`
	FeeReceiverCoin      solana.PublicKey `json:"fee_receiver_coin"`
	FeeReceiverPc        solana.PublicKey `json:"fee_receiver_pc"`
}

// RouteDeposit assigns deposit roles by position. References past DepositLen
// are ignored.
func RouteDeposit(refs []*solana.AccountMeta) (*Deposit, error) {
	c := &cursor{op: "deposit", refs: refs}
	d := &Deposit{
		AmmProgram:           c.next("amm program"),
		TokenProgram:         c.next("token program"),
		Amm:                  c.next("amm"),
		AmmAuthority:         c.next("amm authority"),
		AmmOpenOrders:        c.next("amm open orders"),
		AmmTargetOrders:      c.next("amm target orders"),
		LpMint:               c.next("lp mint"),
		PoolCoinTokenAccount: c.next("pool coin token account"),
		PoolPcTokenAccount:   c.next("pool pc token account"),
		SerumMarket:          c.next("serum market"),
		UserCoinTokenAccount: c.next("user coin token account"),
		UserPcTokenAccount:   c.next("user pc token account"),
		UserLpTokenAccount:   c.next("user lp token account"),
		UserOwner:            c.next("user owner"),
		FeeReceiverCoin:      c.next("fee receiver coin"),
		FeeReceiverPc:        c.next("fee receiver pc"),
	}
	if c.err != nil {
		return nil, c.err
	}
	return d, nil
}

// ForwardMetas returns the 13 accounts of the AMM deposit call.
func (d *Deposit) ForwardMetas() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.Meta(d.TokenProgram),
		solana.Meta(d.Amm).WRITE(),
		solana.Meta(d.AmmAuthority),
		solana.Meta(d.AmmOpenOrders),
		solana.Meta(d.AmmTargetOrders).WRITE(),
		solana.Meta(d.LpMint).WRITE(),
		solana.Meta(d.PoolCoinTokenAccount).WRITE(),
		solana.Meta(d.PoolPcTokenAccount).WRITE(),
		solana.Meta(d.SerumMarket),
		solana.Meta(d.UserCoinTokenAccount).WRITE(),
		solana.Meta(d.UserPcTokenAccount).WRITE(),
		solana.Meta(d.UserLpTokenAccount).WRITE(),
		solana.Meta(d.UserOwner).SIGNER(),
	}
}

// Metas returns the full router account list a client sends for a deposit.
func (d *Deposit) Metas() []*solana.AccountMeta {
	out := make([]*solana.AccountMeta, 0, DepositLen)
	out = append(out, solana.Meta(d.AmmProgram))
	out = append(out, d.ForwardMetas()...)
	return append(out,
		solana.Meta(d.FeeReceiverCoin).WRITE(),
		solana.Meta(d.FeeReceiverPc).WRITE(),
	)
}

package processor

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-fee-router/internal/accounts"
	"github.com/aman-zulfiqar/solana-fee-router/internal/fees"
	"github.com/aman-zulfiqar/solana-fee-router/internal/host"
	"github.com/aman-zulfiqar/solana-fee-router/internal/instruction"
	"github.com/aman-zulfiqar/solana-fee-router/internal/metrics"
	"github.com/aman-zulfiqar/solana-fee-router/internal/raydium"
	"github.com/aman-zulfiqar/solana-fee-router/internal/routererr"
)

// Skim legs.
const (
	LegCoin = "coin"
	LegPc   = "pc"
	LegSwap = "destination"
)

// Skim is one fee transfer issued after a successful forward call.
type Skim struct {
	Leg         string           `json:"leg"`
	Source      solana.PublicKey `json:"source"`
	Destination solana.PublicKey `json:"destination"`
	Authority   solana.PublicKey `json:"authority"`
	Amount      uint64           `json:"amount"`
}

// Result describes a committed operation.
type Result struct {
	Kind       instruction.Kind        `json:"kind"`
	Request    instruction.Instruction `json:"request"`
	Forwarded  instruction.Instruction `json:"forwarded"`
	AmmProgram solana.PublicKey        `json:"amm_program"`
	Skims      []Skim                  `json:"skims"`
}

// TotalSkimmed sums the amounts of all skim legs.
func (r *Result) TotalSkimmed() uint64 {
	var total uint64
	for _, s := range r.Skims {
		total += s.Amount
	}
	return total
}

// Processor routes swap and deposit calls to the AMM and skims a fixed 10%
// fee. Every call runs inside one unit of work opened on its ledger.
type Processor struct {
	ledger  host.Ledger
	logger  *logrus.Logger
	metrics *metrics.Recorder
}

// New creates a Processor.
func New(ledger host.Ledger) *Processor {
	return &Processor{
		ledger: ledger,
		logger: logrus.New(),
	}
}

// WithLogger sets a custom logger
func (p *Processor) WithLogger(logger *logrus.Logger) *Processor {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithMetrics sets the counter recorder
func (p *Processor) WithMetrics(m *metrics.Recorder) *Processor {
	p.metrics = m
	return p
}

// Process decodes data and runs the matching operation over refs.
//
// All calls made by the operation are committed together or not at all.
// Checked arithmetic failures panic with routererr.Overflow after the unit has
// been rolled back; they are not returned as errors.
func (p *Processor) Process(ctx context.Context, programID solana.PublicKey, refs []*solana.AccountMeta, data []byte) (*Result, error) {
	ix, err := instruction.Decode(data)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"program": programID.String(),
			"error":   err,
		}).Warn("Rejected instruction")
		return nil, err
	}

	kind := string(ix.Kind())
	var res *Result

	err = host.Run(ctx, p.ledger, func(ctx context.Context, inv host.Invoker) error {
		var err error
		switch v := ix.(type) {
		case instruction.Deposit:
			p.logger.Info("Instruction: Deposit")
			res, err = p.deposit(ctx, inv, refs, v)
		case instruction.Swap:
			p.logger.Info("Instruction: Swap")
			res, err = p.swap(ctx, inv, refs, v)
		default:
			err = fmt.Errorf("%w: unhandled %T", routererr.InvalidInstruction, ix)
		}
		return err
	})

	p.metrics.Operation(kind, err == nil)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"program": programID.String(),
			"kind":    kind,
			"error":   err,
		}).Warn("Operation failed, unit rolled back")
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"program": programID.String(),
		"kind":    kind,
		"skimmed": res.TotalSkimmed(),
	}).Info("Operation committed")
	return res, nil
}

func (p *Processor) deposit(ctx context.Context, inv host.Invoker, refs []*solana.AccountMeta, ix instruction.Deposit) (*Result, error) {
	acc, err := accounts.RouteDeposit(refs)
	if err != nil {
		return nil, err
	}

	feeCoin, err := fees.SkimFee(ix.MaxCoinAmount)
	if err != nil {
		return nil, err
	}
	feePc, err := fees.SkimFee(ix.MaxPcAmount)
	if err != nil {
		return nil, err
	}

	forwarded := instruction.Deposit{
		MaxCoinAmount: checkedSub(ix.MaxCoinAmount, feeCoin, "deposit coin amount"),
		MaxPcAmount:   checkedSub(ix.MaxPcAmount, feePc, "deposit pc amount"),
		BaseSide:      ix.BaseSide,
	}

	fwd, err := raydium.NewDepositInstruction(acc, forwarded.MaxCoinAmount, forwarded.MaxPcAmount, forwarded.BaseSide)
	if err != nil {
		return nil, err
	}
	if err := p.forward(ctx, inv, acc.AmmProgram, instruction.KindDeposit, fwd); err != nil {
		return nil, err
	}

	skims := []Skim{
		{Leg: LegCoin, Source: acc.UserCoinTokenAccount, Destination: acc.FeeReceiverCoin, Authority: acc.UserOwner, Amount: feeCoin},
		{Leg: LegPc, Source: acc.UserPcTokenAccount, Destination: acc.FeeReceiverPc, Authority: acc.UserOwner, Amount: feePc},
	}
	for _, s := range skims {
		if err := p.skim(ctx, inv, acc.TokenProgram, s); err != nil {
			return nil, err
		}
	}

	return &Result{
		Kind:       instruction.KindDeposit,
		Request:    ix,
		Forwarded:  forwarded,
		AmmProgram: acc.AmmProgram,
		Skims:      skims,
	}, nil
}

func (p *Processor) swap(ctx context.Context, inv host.Invoker, refs []*solana.AccountMeta, ix instruction.Swap) (*Result, error) {
	acc, err := accounts.RouteSwap(refs)
	if err != nil {
		return nil, err
	}

	fwd, err := raydium.NewSwapInstruction(acc, ix.AmountIn, ix.MinimumAmountOut)
	if err != nil {
		return nil, err
	}
	if err := p.forward(ctx, inv, acc.AmmProgram, instruction.KindSwap, fwd); err != nil {
		return nil, err
	}

	// The fee base is the caller's minimum output, not the realized output.
	fee, err := fees.SkimFee(ix.MinimumAmountOut)
	if err != nil {
		return nil, err
	}

	s := Skim{
		Leg:         LegSwap,
		Source:      acc.UserDestination,
		Destination: acc.FeeReceiver,
		Authority:   acc.UserOwner,
		Amount:      fee,
	}
	if err := p.skim(ctx, inv, acc.TokenProgram, s); err != nil {
		return nil, err
	}

	return &Result{
		Kind:       instruction.KindSwap,
		Request:    ix,
		Forwarded:  ix,
		AmmProgram: acc.AmmProgram,
		Skims:      []Skim{s},
	}, nil
}

func (p *Processor) forward(ctx context.Context, inv host.Invoker, program solana.PublicKey, kind instruction.Kind, ix solana.Instruction) error {
	p.logger.WithFields(logrus.Fields{
		"program": program.String(),
		"kind":    kind,
	}).Debug("Forwarding to AMM")

	err := inv.Invoke(ctx, ix)
	p.metrics.ForwardCall(string(kind), err == nil)
	if err != nil {
		return &routererr.ForwardCallError{Program: program.String(), Err: err}
	}
	return nil
}

func (p *Processor) skim(ctx context.Context, inv host.Invoker, tokenProgram solana.PublicKey, s Skim) error {
	ix, err := raydium.NewTransferInstruction(tokenProgram, s.Source, s.Destination, s.Authority, s.Amount)
	if err != nil {
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"leg":         s.Leg,
		"amount":      s.Amount,
		"destination": s.Destination.String(),
	}).Debug("Skimming fee")

	err = inv.Invoke(ctx, ix)
	p.metrics.SkimCall(s.Leg, s.Amount, err == nil)
	if err != nil {
		return &routererr.SkimCallError{Leg: s.Leg, Amount: s.Amount, Err: err}
	}
	return nil
}

// checkedSub returns a-b and panics with routererr.Overflow on underflow.
func checkedSub(a, b uint64, op string) uint64 {
	if b > a {
		routererr.ArithmeticOverflow(op)
	}
	return a - b
}

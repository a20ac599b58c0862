package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-fee-router/internal/host"
	"github.com/aman-zulfiqar/solana-fee-router/internal/routererr"
)

// LedgerConfig controls how a TxLedger commits.
type LedgerConfig struct {
	// Setup instructions run ahead of the unit's calls in the same
	// transaction, e.g. idempotent associated token account creation.
	Setup []solana.Instruction

	RequireSimulation bool
	ConfirmTimeout    time.Duration
}

// TxLedger is a host.Ledger backed by the cluster. Every call invoked inside a
// unit is packed into one signed transaction at Commit, so the runtime applies
// them all or none.
type TxLedger struct {
	w   *Wallet
	cfg LedgerConfig

	mu      sync.Mutex
	lastSig string
	lastSim []string
}

// NewTxLedger creates a TxLedger signing with w.
func NewTxLedger(w *Wallet, cfg LedgerConfig) *TxLedger {
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}
	return &TxLedger{w: w, cfg: cfg}
}

func (l *TxLedger) Begin(ctx context.Context) (host.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &txUnit{l: l}, nil
}

// LastSignature is the signature of the most recently committed transaction.
func (l *TxLedger) LastSignature() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSig
}

// LastSimulationLogs are the logs of the most recent simulation, if any.
func (l *TxLedger) LastSimulationLogs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSim
}

type txUnit struct {
	l      *TxLedger
	staged []solana.Instruction
	done   bool
}

func (u *txUnit) Invoke(ctx context.Context, ix solana.Instruction) error {
	if u.done {
		return fmt.Errorf("invoke on closed unit: %w", routererr.InvalidStatus)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := ix.Data(); err != nil {
		return fmt.Errorf("instruction data: %w", err)
	}
	u.staged = append(u.staged, ix)
	return nil
}

func (u *txUnit) Commit(ctx context.Context) error {
	if u.done {
		return fmt.Errorf("commit on closed unit: %w", routererr.InvalidStatus)
	}
	u.done = true
	defer func() { u.staged = nil }()

	w := u.l.w
	ixs := make([]solana.Instruction, 0, len(u.l.cfg.Setup)+len(u.staged))
	ixs = append(ixs, u.l.cfg.Setup...)
	ixs = append(ixs, u.staged...)

	tx, err := w.BuildTransaction(ctx, ixs)
	if err != nil {
		return err
	}
	if err := w.SignTx(tx); err != nil {
		return err
	}

	if u.l.cfg.RequireSimulation {
		sim, err := w.Simulate(ctx, tx)
		if sim != nil {
			u.l.mu.Lock()
			u.l.lastSim = sim.Logs
			u.l.mu.Unlock()
		}
		if err != nil {
			return fmt.Errorf("simulation failed, not sending: %w", err)
		}
		w.logger.WithField("units", sim.UnitsConsumed).Debug("Simulation passed")
	}

	sig, err := w.Send(ctx, tx)
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}
	w.logger.WithFields(logrus.Fields{
		"signature": sig,
		"calls":     len(ixs),
	}).Info("Transaction sent")

	if err := w.ConfirmTransaction(ctx, sig, u.l.cfg.ConfirmTimeout); err != nil {
		return fmt.Errorf("confirm %s: %w", sig, err)
	}

	u.l.mu.Lock()
	u.l.lastSig = sig
	u.l.mu.Unlock()
	return nil
}

func (u *txUnit) Rollback() {
	if u.done {
		return
	}
	u.done = true
	u.l.w.logger.WithField("discarded", len(u.staged)).Debug("Transaction discarded")
	u.staged = nil
}

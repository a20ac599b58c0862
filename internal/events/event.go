package events

import (
	"context"
	"time"

	"github.com/aman-zulfiqar/solana-fee-router/internal/processor"
)

// Modes an operation ran in.
const (
	ModePlan    = "plan"
	ModeExecute = "execute"
)

// SkimEvent is one committed fee transfer.
type SkimEvent struct {
	Signature   string    `json:"signature"`
	Timestamp   time.Time `json:"timestamp"`
	Mode        string    `json:"mode"`
	Kind        string    `json:"kind"`
	Pool        string    `json:"pool"`
	AmmProgram  string    `json:"amm_program"`
	Leg         string    `json:"leg"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Amount      uint64    `json:"amount"`
}

// FromResult flattens a committed operation into one event per skim leg.
func FromResult(res *processor.Result, pool, signature, mode string, ts time.Time) []*SkimEvent {
	if res == nil {
		return nil
	}
	out := make([]*SkimEvent, 0, len(res.Skims))
	for _, s := range res.Skims {
		out = append(out, &SkimEvent{
			Signature:   signature,
			Timestamp:   ts.UTC(),
			Mode:        mode,
			Kind:        string(res.Kind),
			Pool:        pool,
			AmmProgram:  res.AmmProgram.String(),
			Leg:         s.Leg,
			Source:      s.Source.String(),
			Destination: s.Destination.String(),
			Amount:      s.Amount,
		})
	}
	return out
}

// Sink receives committed skim events.
type Sink interface {
	Name() string
	Write(ctx context.Context, events []*SkimEvent) error
}

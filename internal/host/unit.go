package host

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Invoker performs a synchronous cross-program call. It returns once the
// invoked program has finished; a non-nil error is the program's own error.
type Invoker interface {
	Invoke(ctx context.Context, ix solana.Instruction) error
}

// Unit is an all-or-nothing unit of work. Effects of invoked calls become
// visible only after Commit. Rollback discards them and is safe to call more
// than once or after a failed Commit.
type Unit interface {
	Invoker
	Commit(ctx context.Context) error
	Rollback()
}

// Ledger opens units of work.
type Ledger interface {
	Begin(ctx context.Context) (Unit, error)
}

// Run executes fn inside a fresh unit. The unit is committed when fn returns
// nil and rolled back otherwise. A panic inside fn rolls the unit back and is
// then re-raised unchanged.
func Run(ctx context.Context, ledger Ledger, fn func(ctx context.Context, inv Invoker) error) (err error) {
	unit, err := ledger.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin unit: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			unit.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, unit); err != nil {
		unit.Rollback()
		return err
	}

	if err := unit.Commit(ctx); err != nil {
		unit.Rollback()
		return fmt.Errorf("commit unit: %w", err)
	}
	return nil
}

package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-fee-router/internal/routererr"
)

// Executor simulates the programs a unit calls into. Returning an error fails
// the call the same way the real program would.
type Executor func(ctx context.Context, ix solana.Instruction) error

// AcceptAll is an Executor under which every call succeeds.
func AcceptAll(context.Context, solana.Instruction) error { return nil }

// Call is one recorded cross-program call.
type Call struct {
	ProgramID solana.PublicKey      `json:"program_id"`
	Accounts  []*solana.AccountMeta `json:"accounts"`
	Data      []byte                `json:"data"`
}

// Journal is an in-memory Ledger. Calls invoked inside a unit are staged and
// only appended to the committed log on Commit.
type Journal struct {
	mu        sync.Mutex
	exec      Executor
	logger    *logrus.Logger
	committed []Call
	rollbacks int
}

// NewJournal creates a Journal. A nil executor accepts every call.
func NewJournal(exec Executor) *Journal {
	if exec == nil {
		exec = AcceptAll
	}
	return &Journal{
		exec:   exec,
		logger: logrus.New(),
	}
}

// WithLogger sets a custom logger
func (j *Journal) WithLogger(logger *logrus.Logger) *Journal {
	if logger != nil {
		j.logger = logger
	}
	return j
}

func (j *Journal) Begin(ctx context.Context) (Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &journalUnit{j: j}, nil
}

// Committed returns a copy of every committed call, oldest first.
func (j *Journal) Committed() []Call {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Call, len(j.committed))
	copy(out, j.committed)
	return out
}

// Rollbacks reports how many units have been rolled back.
func (j *Journal) Rollbacks() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rollbacks
}

type journalUnit struct {
	j      *Journal
	staged []Call
	done   bool
}

func (u *journalUnit) Invoke(ctx context.Context, ix solana.Instruction) error {
	if u.done {
		return fmt.Errorf("invoke on closed unit: %w", routererr.InvalidStatus)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := ix.Data()
	if err != nil {
		return fmt.Errorf("instruction data: %w", err)
	}

	if err := u.j.exec(ctx, ix); err != nil {
		u.j.logger.WithFields(logrus.Fields{
			"program": ix.ProgramID().String(),
			"error":   err,
		}).Debug("Simulated call failed")
		return err
	}

	metas := make([]*solana.AccountMeta, len(ix.Accounts()))
	copy(metas, ix.Accounts())
	u.staged = append(u.staged, Call{
		ProgramID: ix.ProgramID(),
		Accounts:  metas,
		Data:      data,
	})
	return nil
}

func (u *journalUnit) Commit(ctx context.Context) error {
	if u.done {
		return fmt.Errorf("commit on closed unit: %w", routererr.InvalidStatus)
	}
	u.done = true

	u.j.mu.Lock()
	u.j.committed = append(u.j.committed, u.staged...)
	u.j.mu.Unlock()

	u.j.logger.WithField("calls", len(u.staged)).Debug("Unit committed")
	u.staged = nil
	return nil
}

func (u *journalUnit) Rollback() {
	if u.done {
		return
	}
	u.done = true

	u.j.mu.Lock()
	u.j.rollbacks++
	u.j.mu.Unlock()

	u.j.logger.WithField("discarded", len(u.staged)).Debug("Unit rolled back")
	u.staged = nil
}

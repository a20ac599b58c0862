package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-fee-router/internal/events"
	"github.com/aman-zulfiqar/solana-fee-router/internal/host"
	"github.com/aman-zulfiqar/solana-fee-router/internal/metrics"
	"github.com/aman-zulfiqar/solana-fee-router/internal/pools"
	"github.com/aman-zulfiqar/solana-fee-router/internal/processor"
	"github.com/aman-zulfiqar/solana-fee-router/internal/routerix"
	"github.com/aman-zulfiqar/solana-fee-router/internal/wallet"
)

// ErrNoWallet is returned by operations that need a signing wallet.
var ErrNoWallet = errors.New("engine: no wallet configured")

// Config wires the engine's collaborators.
type Config struct {
	RouterProgramID solana.PublicKey
	Registry        *pools.Registry

	// Wallet signs executed operations. Plans work without one.
	Wallet *wallet.Wallet

	// Sinks receive skim events of executed operations.
	Sinks []events.Sink

	// Executor simulates the AMM and token programs during plans. Nil
	// accepts every call.
	Executor host.Executor

	RequireSimulation bool
	ConfirmTimeout    time.Duration
	Limits            LimitConfig

	Metrics *metrics.Recorder
	Logger  *logrus.Logger
}

// Engine plans and executes routed swaps and deposits on registered pools.
type Engine struct {
	router   solana.PublicKey
	registry *pools.Registry
	wallet   *wallet.Wallet
	sinks    []events.Sink
	executor host.Executor
	limiter  *Limiter
	metrics  *metrics.Recorder
	logger   *logrus.Logger

	requireSimulation bool
	confirmTimeout    time.Duration
}

// NewEngine creates an engine from cfg.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.RouterProgramID.IsZero() {
		return nil, fmt.Errorf("engine: router program id is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("engine: pool registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}

	return &Engine{
		router:            cfg.RouterProgramID,
		registry:          cfg.Registry,
		wallet:            cfg.Wallet,
		sinks:             cfg.Sinks,
		executor:          cfg.Executor,
		limiter:           NewLimiter(cfg.Limits),
		metrics:           cfg.Metrics,
		logger:            cfg.Logger,
		requireSimulation: cfg.RequireSimulation,
		confirmTimeout:    cfg.ConfirmTimeout,
	}, nil
}

// PlanSwap runs a swap against an in-memory ledger and reports what the router
// would forward and skim.
func (e *Engine) PlanSwap(ctx context.Context, req SwapRequest) (*Plan, error) {
	owner, err := e.owner(req.Owner, false)
	if err != nil {
		return nil, err
	}
	pool, params, setup, err := e.resolveSwap(req, owner)
	if err != nil {
		return nil, err
	}
	ix, err := routerix.NewSwapInstruction(e.router, pool, params)
	if err != nil {
		return nil, fmt.Errorf("build router instruction: %w", err)
	}
	return e.plan(ctx, pool, ix, len(setup))
}

// PlanDeposit is PlanSwap for deposits.
func (e *Engine) PlanDeposit(ctx context.Context, req DepositRequest) (*Plan, error) {
	owner, err := e.owner(req.Owner, false)
	if err != nil {
		return nil, err
	}
	pool, params, setup, err := e.resolveDeposit(req, owner)
	if err != nil {
		return nil, err
	}
	ix, err := routerix.NewDepositInstruction(e.router, pool, params)
	if err != nil {
		return nil, fmt.Errorf("build router instruction: %w", err)
	}
	return e.plan(ctx, pool, ix, len(setup))
}

// ExecuteSwap runs a swap with the engine wallet as owner. The forwarded AMM
// call and the skim transfer land in one transaction.
func (e *Engine) ExecuteSwap(ctx context.Context, req SwapRequest) (*Execution, error) {
	owner, err := e.owner(req.Owner, true)
	if err != nil {
		return nil, err
	}
	pool, params, setup, err := e.resolveSwap(req, owner)
	if err != nil {
		return nil, err
	}
	if err := e.checkLimits(ctx, req.AmountIn); err != nil {
		return nil, err
	}
	ix, err := routerix.NewSwapInstruction(e.router, pool, params)
	if err != nil {
		return nil, fmt.Errorf("build router instruction: %w", err)
	}
	return e.execute(ctx, pool, ix, setup)
}

// ExecuteDeposit is ExecuteSwap for deposits.
func (e *Engine) ExecuteDeposit(ctx context.Context, req DepositRequest) (*Execution, error) {
	owner, err := e.owner(req.Owner, true)
	if err != nil {
		return nil, err
	}
	pool, params, setup, err := e.resolveDeposit(req, owner)
	if err != nil {
		return nil, err
	}
	if err := e.checkLimits(ctx, max(req.MaxCoinAmount, req.MaxPcAmount)); err != nil {
		return nil, err
	}
	ix, err := routerix.NewDepositInstruction(e.router, pool, params)
	if err != nil {
		return nil, fmt.Errorf("build router instruction: %w", err)
	}
	return e.execute(ctx, pool, ix, setup)
}

func (e *Engine) plan(ctx context.Context, pool *pools.Pool, ix solana.Instruction, setup int) (*Plan, error) {
	data, err := ix.Data()
	if err != nil {
		return nil, err
	}

	journal := host.NewJournal(e.executor).WithLogger(e.logger)
	proc := processor.New(journal).WithLogger(e.logger).WithMetrics(e.metrics)

	res, err := proc.Process(ctx, ix.ProgramID(), ix.Accounts(), data)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Pool:              pool.Name,
		RouterProgram:     ix.ProgramID(),
		RouterData:        data,
		RouterAccounts:    len(ix.Accounts()),
		Result:            res,
		Calls:             journal.Committed(),
		PlannedAt:         time.Now().UTC(),
		SetupInstructions: setup,
	}, nil
}

func (e *Engine) execute(ctx context.Context, pool *pools.Pool, ix solana.Instruction, setup []solana.Instruction) (*Execution, error) {
	start := time.Now()

	data, err := ix.Data()
	if err != nil {
		return nil, err
	}

	ledger := wallet.NewTxLedger(e.wallet, wallet.LedgerConfig{
		Setup:             setup,
		RequireSimulation: e.requireSimulation,
		ConfirmTimeout:    e.confirmTimeout,
	})
	proc := processor.New(ledger).WithLogger(e.logger).WithMetrics(e.metrics)

	res, err := proc.Process(ctx, ix.ProgramID(), ix.Accounts(), data)
	exec := &Execution{
		Pool:     pool.Name,
		Result:   res,
		Duration: time.Since(start),
		Logs:     ledger.LastSimulationLogs(),
	}
	if err != nil {
		return exec, fmt.Errorf("execution failed: %w", err)
	}

	exec.Signature = ledger.LastSignature()
	e.limiter.Record()

	e.logger.WithFields(logrus.Fields{
		"pool":      pool.Name,
		"kind":      res.Kind,
		"signature": exec.Signature,
		"skimmed":   res.TotalSkimmed(),
		"duration":  exec.Duration,
	}).Info("Operation executed")

	e.publish(ctx, events.FromResult(res, pool.Name, exec.Signature, events.ModeExecute, time.Now()))
	return exec, nil
}

// publish writes events to every sink. Sink failures are logged, never
// returned: the operation has already committed.
func (e *Engine) publish(ctx context.Context, evs []*events.SkimEvent) {
	if len(evs) == 0 {
		return
	}
	for _, sink := range e.sinks {
		err := sink.Write(ctx, evs)
		e.metrics.Event(sink.Name(), err == nil)
		if err != nil {
			e.logger.WithFields(logrus.Fields{
				"sink":  sink.Name(),
				"error": err,
			}).Warn("Failed to publish skim events")
		}
	}
}

func (e *Engine) owner(requested solana.PublicKey, signing bool) (solana.PublicKey, error) {
	if e.wallet == nil {
		if signing {
			return solana.PublicKey{}, ErrNoWallet
		}
		if requested.IsZero() {
			return solana.PublicKey{}, fmt.Errorf("owner is required without a wallet")
		}
		return requested, nil
	}
	if requested.IsZero() {
		return e.wallet.PublicKey(), nil
	}
	if signing && !requested.Equals(e.wallet.PublicKey()) {
		return solana.PublicKey{}, fmt.Errorf("owner %s is not the engine wallet", requested)
	}
	return requested, nil
}

func (e *Engine) resolveSwap(req SwapRequest, owner solana.PublicKey) (*pools.Pool, routerix.SwapParams, []solana.Instruction, error) {
	pool, err := e.registry.FindPoolByName(req.Pool)
	if err != nil {
		return nil, routerix.SwapParams{}, nil, err
	}
	if req.FeeOwner.IsZero() {
		return nil, routerix.SwapParams{}, nil, fmt.Errorf("fee owner is required")
	}

	input := req.InputMint
	if input.IsZero() {
		input = pool.CoinMint
	}
	inMint, outMint, err := pool.SwapMints(input)
	if err != nil {
		return nil, routerix.SwapParams{}, nil, err
	}

	source, err := routerix.FindAssociatedTokenAddress(owner, inMint)
	if err != nil {
		return nil, routerix.SwapParams{}, nil, err
	}
	destination, err := routerix.FindAssociatedTokenAddress(owner, outMint)
	if err != nil {
		return nil, routerix.SwapParams{}, nil, err
	}
	feeReceiver, err := routerix.FindAssociatedTokenAddress(req.FeeOwner, outMint)
	if err != nil {
		return nil, routerix.SwapParams{}, nil, err
	}

	setup := []solana.Instruction{
		routerix.NewCreateAssociatedTokenAccountIdempotentIx(owner, destination, owner, outMint),
		routerix.NewCreateAssociatedTokenAccountIdempotentIx(owner, feeReceiver, req.FeeOwner, outMint),
	}

	return pool, routerix.SwapParams{
		UserSource:       source,
		UserDestination:  destination,
		UserOwner:        owner,
		FeeReceiver:      feeReceiver,
		AmountIn:         req.AmountIn,
		MinimumAmountOut: req.MinimumAmountOut,
	}, setup, nil
}

func (e *Engine) resolveDeposit(req DepositRequest, owner solana.PublicKey) (*pools.Pool, routerix.DepositParams, []solana.Instruction, error) {
	pool, err := e.registry.FindPoolByName(req.Pool)
	if err != nil {
		return nil, routerix.DepositParams{}, nil, err
	}
	if req.FeeOwner.IsZero() {
		return nil, routerix.DepositParams{}, nil, fmt.Errorf("fee owner is required")
	}

	atas := make(map[string]solana.PublicKey, 5)
	for name, pair := range map[string][2]solana.PublicKey{
		"user_coin": {owner, pool.CoinMint},
		"user_pc":   {owner, pool.PcMint},
		"user_lp":   {owner, pool.LpMint},
		"fee_coin":  {req.FeeOwner, pool.CoinMint},
		"fee_pc":    {req.FeeOwner, pool.PcMint},
	} {
		ata, err := routerix.FindAssociatedTokenAddress(pair[0], pair[1])
		if err != nil {
			return nil, routerix.DepositParams{}, nil, fmt.Errorf("%s: %w", name, err)
		}
		atas[name] = ata
	}

	setup := []solana.Instruction{
		routerix.NewCreateAssociatedTokenAccountIdempotentIx(owner, atas["user_lp"], owner, pool.LpMint),
		routerix.NewCreateAssociatedTokenAccountIdempotentIx(owner, atas["fee_coin"], req.FeeOwner, pool.CoinMint),
		routerix.NewCreateAssociatedTokenAccountIdempotentIx(owner, atas["fee_pc"], req.FeeOwner, pool.PcMint),
	}

	return pool, routerix.DepositParams{
		UserCoin:        atas["user_coin"],
		UserPc:          atas["user_pc"],
		UserLp:          atas["user_lp"],
		UserOwner:       owner,
		FeeReceiverCoin: atas["fee_coin"],
		FeeReceiverPc:   atas["fee_pc"],
		MaxCoinAmount:   req.MaxCoinAmount,
		MaxPcAmount:     req.MaxPcAmount,
		BaseSide:        req.BaseSide,
	}, setup, nil
}

func (e *Engine) checkLimits(ctx context.Context, amount uint64) error {
	balance, err := e.wallet.GetBalanceSOL(ctx)
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}
	if check := e.limiter.Check(amount, balance); !check.Allowed {
		return fmt.Errorf("limit check failed: %s", check.Reason)
	}
	return nil
}

// GetWalletInfo returns wallet status
func (e *Engine) GetWalletInfo(ctx context.Context) (*WalletInfo, error) {
	if e.wallet == nil {
		return nil, ErrNoWallet
	}
	balance, err := e.wallet.GetBalanceSOL(ctx)
	if err != nil {
		return nil, err
	}
	return &WalletInfo{
		Address:    e.wallet.Address(),
		BalanceSOL: balance,
	}, nil
}

// GetPoolInfo returns information about available pools
func (e *Engine) GetPoolInfo() *PoolInfo {
	all := e.registry.GetAllPools()
	names := make([]string, len(all))
	for i, pool := range all {
		names[i] = pool.Name
	}
	return &PoolInfo{
		TotalPools: len(all),
		PoolNames:  names,
	}
}

// Close releases sinks that hold connections.
func (e *Engine) Close() error {
	var errs []error
	for _, sink := range e.sinks {
		if c, ok := sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s close: %w", sink.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/mr-tron/base58"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-fee-router/internal/config"
	"github.com/aman-zulfiqar/solana-fee-router/internal/engine"
	"github.com/aman-zulfiqar/solana-fee-router/internal/fees"
	"github.com/aman-zulfiqar/solana-fee-router/internal/instruction"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

type flags struct {
	mode string
	op   string
	data string
	pool string

	inputMint string
	owner     string
	feeOwner  string

	amount      uint64
	numerator   uint64
	denominator uint64

	amountIn  uint64
	minOut    uint64
	maxCoin   uint64
	maxPc     uint64
	baseSide  uint64
	verbosity string
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.mode, "mode", "plan", "decode | quote | plan | execute")
	flag.StringVar(&f.op, "op", "swap", "swap | deposit (plan, execute)")
	flag.StringVar(&f.data, "data", "", "base58 router instruction data (decode)")
	flag.StringVar(&f.pool, "pool", "SOL-USDC", "registered pool name")
	flag.StringVar(&f.inputMint, "input-mint", "", "swap input mint (default: pool coin mint)")
	flag.StringVar(&f.owner, "owner", "", "user owner (default: wallet)")
	flag.StringVar(&f.feeOwner, "fee-owner", "", "owner of the fee receiver token accounts")
	flag.Uint64Var(&f.amount, "amount", 0, "amount to quote a fee on (quote)")
	flag.Uint64Var(&f.numerator, "num", fees.SkimNumerator, "fee numerator (quote)")
	flag.Uint64Var(&f.denominator, "den", fees.SkimDenominator, "fee denominator (quote)")
	flag.Uint64Var(&f.amountIn, "amount-in", 0, "swap amount in, raw units")
	flag.Uint64Var(&f.minOut, "min-out", 0, "swap minimum amount out, raw units")
	flag.Uint64Var(&f.maxCoin, "max-coin", 0, "deposit max coin amount, raw units")
	flag.Uint64Var(&f.maxPc, "max-pc", 0, "deposit max pc amount, raw units")
	flag.Uint64Var(&f.baseSide, "base-side", 0, "deposit base side (0 coin, 1 pc)")
	flag.StringVar(&f.verbosity, "log-level", "warn", "log level")
	flag.Parse()
	return f
}

func main() {
	loadEnv()
	f := parseFlags()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if lvl, err := logrus.ParseLevel(f.verbosity); err == nil {
		logger.SetLevel(lvl)
	}

	switch f.mode {
	case "decode":
		exitOn(runDecode(f))
		return
	case "quote":
		exitOn(runQuote(f))
		return
	case "plan", "execute":
	default:
		fmt.Println("invalid -mode (use decode|quote|plan|execute)")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Println("invalid configuration:", err)
		os.Exit(2)
	}

	var rdb *redis.Client
	if f.mode == "execute" && cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, skim events will not be published")
			_ = rdb.Close()
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	if f.mode == "plan" {
		cfg.ClickHouseAddr = ""
	}

	eng, err := engine.NewEngineFromConfig(ctx, cfg, rdb, nil, logger)
	if err != nil {
		fmt.Println("failed to init engine:", err)
		os.Exit(1)
	}
	defer eng.Close()

	out, err := run(ctx, eng, f)
	if err != nil {
		fmt.Println(f.mode, "failed:", err)
		os.Exit(1)
	}
	printJSON(out)
}

func run(ctx context.Context, eng *engine.Engine, f *flags) (any, error) {
	owner, err := optionalKey("owner", f.owner)
	if err != nil {
		return nil, err
	}
	feeOwner, err := optionalKey("fee-owner", f.feeOwner)
	if err != nil {
		return nil, err
	}

	switch f.op {
	case "swap":
		input, err := optionalKey("input-mint", f.inputMint)
		if err != nil {
			return nil, err
		}
		req := engine.SwapRequest{
			Pool:             f.pool,
			InputMint:        input,
			Owner:            owner,
			FeeOwner:         feeOwner,
			AmountIn:         f.amountIn,
			MinimumAmountOut: f.minOut,
		}
		if f.mode == "execute" {
			return eng.ExecuteSwap(ctx, req)
		}
		return eng.PlanSwap(ctx, req)

	case "deposit":
		req := engine.DepositRequest{
			Pool:          f.pool,
			Owner:         owner,
			FeeOwner:      feeOwner,
			MaxCoinAmount: f.maxCoin,
			MaxPcAmount:   f.maxPc,
			BaseSide:      f.baseSide,
		}
		if f.mode == "execute" {
			return eng.ExecuteDeposit(ctx, req)
		}
		return eng.PlanDeposit(ctx, req)
	}
	return nil, fmt.Errorf("invalid -op %q (use swap|deposit)", f.op)
}

func runDecode(f *flags) error {
	raw, err := base58.Decode(f.data)
	if err != nil {
		return fmt.Errorf("invalid -data: %w", err)
	}
	ix, err := instruction.Decode(raw)
	if err != nil {
		return err
	}
	printJSON(map[string]any{"kind": ix.Kind(), "instruction": ix})
	return nil
}

func runQuote(f *flags) error {
	if err := fees.ValidateFraction(f.numerator, f.denominator); err != nil {
		return err
	}
	fee, ok := fees.CalculateFee(f.amount, f.numerator, f.denominator)
	if !ok {
		return fmt.Errorf("fee is undefined for %d/%d", f.numerator, f.denominator)
	}
	fmt.Printf("amount=%d fee=%d net=%d rate=%d/%d\n", f.amount, fee, f.amount-fee, f.numerator, f.denominator)
	return nil
}

func optionalKey(name, v string) (solana.PublicKey, error) {
	if v == "" {
		return solana.PublicKey{}, nil
	}
	pk, err := solana.PublicKeyFromBase58(v)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return pk, nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println("failed to encode output:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func exitOn(err error) {
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

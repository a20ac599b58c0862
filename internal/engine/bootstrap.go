package engine

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-fee-router/internal/config"
	"github.com/aman-zulfiqar/solana-fee-router/internal/events"
	"github.com/aman-zulfiqar/solana-fee-router/internal/metrics"
	"github.com/aman-zulfiqar/solana-fee-router/internal/pools"
	"github.com/aman-zulfiqar/solana-fee-router/internal/wallet"
)

// NewEngineFromConfig builds an engine and its collaborators from cfg.
//
// The wallet is created only when WALLET_PRIVATE_KEY is set. rdb, when not
// nil, receives skim events over pub/sub; ClickHouse is used when
// CLICKHOUSE_ADDR is set.
func NewEngineFromConfig(ctx context.Context, cfg *config.Config, rdb *redis.Client, rec *metrics.Recorder, logger *logrus.Logger) (*Engine, error) {
	if logger == nil {
		logger = logrus.New()
	}

	// 1. Load pool registry
	registry, err := pools.NewRegistry(cfg.PoolConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pool registry: %w", err)
	}

	// 2. Initialize wallet
	var w *wallet.Wallet
	if cfg.WalletPrivateKey != "" {
		w, err = wallet.NewWallet(wallet.WalletConfig{
			RPCURL:              cfg.RPCUrl,
			PrivateKey:          cfg.WalletPrivateKey,
			Timeout:             cfg.HTTPTimeout,
			MaxRetries:          cfg.MaxRetries,
			RetryBackoff:        cfg.RetryBackoff,
			DefaultCommitment:   "confirmed",
			PreflightCommitment: "processed",
			Logger:              logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
	}

	// 3. Event sinks
	var sinks []events.Sink
	if rdb != nil {
		pub, err := events.NewPublisher(rdb)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, pub.WithLogger(logger))
	}
	if cfg.ClickHouseAddr != "" {
		ch, err := events.NewClickHouseSink(ctx, events.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		if err := ch.EnsureSchema(ctx); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("failed to create skim table: %w", err)
		}
		sinks = append(sinks, ch.WithLogger(logger))
	}

	return NewEngine(Config{
		RouterProgramID:   cfg.RouterProgram(),
		Registry:          registry,
		Wallet:            w,
		Sinks:             sinks,
		RequireSimulation: cfg.RequireSimulation,
		ConfirmTimeout:    cfg.ConfirmTimeout,
		Limits: LimitConfig{
			MaxAmount:       cfg.MaxAmount,
			DailyOperations: cfg.DailyOperations,
			MinBalanceSOL:   cfg.MinBalanceSOL,
		},
		Metrics: rec,
		Logger:  logger,
	})
}

package events

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"
)

// ClickHouseConfig configures the ClickHouse sink
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Table    string
}

func (c ClickHouseConfig) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("clickhouse addr is required")
	}
	if c.Database == "" {
		return fmt.Errorf("clickhouse database is required")
	}
	return nil
}

// ClickHouseSink stores skim events, one row per leg.
type ClickHouseSink struct {
	conn   driver.Conn
	table  string
	logger *logrus.Logger
}

func NewClickHouseSink(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseSink, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Table == "" {
		cfg.Table = "fee_skims"
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseSink{conn: conn, table: cfg.Table, logger: logrus.New()}, nil
}

// WithLogger sets a custom logger
func (c *ClickHouseSink) WithLogger(logger *logrus.Logger) *ClickHouseSink {
	if logger != nil {
		c.logger = logger
	}
	return c
}

func (c *ClickHouseSink) Name() string { return "clickhouse" }

// EnsureSchema creates the events table if it does not exist.
func (c *ClickHouseSink) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			signature String,
			timestamp DateTime64(3),
			mode LowCardinality(String),
			kind LowCardinality(String),
			pool String,
			amm_program String,
			leg LowCardinality(String),
			source String,
			destination String,
			amount UInt64
		) ENGINE = MergeTree
		ORDER BY (pool, timestamp)
	`, c.table)

	if err := c.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", c.table, err)
	}
	return nil
}

// Write inserts events as a single batch.
func (c *ClickHouseSink) Write(ctx context.Context, events []*SkimEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			signature, timestamp, mode, kind, pool, amm_program,
			leg, source, destination, amount
		)`, c.table))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, ev := range events {
		if err := batch.Append(
			ev.Signature,
			ev.Timestamp,
			ev.Mode,
			ev.Kind,
			ev.Pool,
			ev.AmmProgram,
			ev.Leg,
			ev.Source,
			ev.Destination,
			ev.Amount,
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append skim event: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert skim events: %w", err)
	}

	c.logger.WithField("rows", len(events)).Debug("Inserted skim events")
	return nil
}

func (c *ClickHouseSink) Close() error {
	return c.conn.Close()
}

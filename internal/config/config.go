package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

type Config struct {
	// RPC settings
	RPCUrl string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Wallet
	WalletPrivateKey  string
	RequireSimulation bool
	ConfirmTimeout    time.Duration

	// Router
	RouterProgramID string
	PoolConfigPath  string

	// Execute limits
	MaxAmount       uint64
	DailyOperations int
	MinBalanceSOL   float64

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// API settings
	APIAddr string
	APIKey  string
	DevMode bool
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl: getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		// Wallet
		WalletPrivateKey:  getEnv("WALLET_PRIVATE_KEY", ""),
		RequireSimulation: getBoolEnv("REQUIRE_SIMULATION", true),
		ConfirmTimeout:    getDurationEnv("CONFIRM_TIMEOUT", 60*time.Second),

		// Router
		RouterProgramID: getEnv("ROUTER_PROGRAM_ID", ""),
		PoolConfigPath:  getEnv("POOL_CONFIG_PATH", "config/pools.json"),

		// Limits
		MaxAmount:       uint64(getIntEnv("MAX_AMOUNT", 0)),
		DailyOperations: getIntEnv("DAILY_OPERATIONS", 0),
		MinBalanceSOL:   getFloatEnv("MIN_BALANCE_SOL", 0.05),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// API
		APIAddr: getEnv("API_ADDR", ":8080"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),
	}
}

// Validate rejects settings the binaries cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIAddr) == "" {
		return fmt.Errorf("API_ADDR is required")
	}
	if c.RouterProgramID == "" {
		return fmt.Errorf("ROUTER_PROGRAM_ID is required")
	}
	if _, err := solana.PublicKeyFromBase58(c.RouterProgramID); err != nil {
		return fmt.Errorf("ROUTER_PROGRAM_ID: %w", err)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be >= 0")
	}
	if c.ClickHouseAddr != "" && c.ClickHouseDatabase == "" {
		return fmt.Errorf("CLICKHOUSE_DATABASE is required with CLICKHOUSE_ADDR")
	}
	return nil
}

// RouterProgram returns the parsed router program id. Call Validate first.
func (c *Config) RouterProgram() solana.PublicKey {
	pk, err := solana.PublicKeyFromBase58(c.RouterProgramID)
	if err != nil {
		return solana.PublicKey{}
	}
	return pk
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

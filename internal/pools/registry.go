package pools

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

// Raydium AMM v4 and Serum DEX v3 program IDs
const (
	RaydiumAmmV4ProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	SerumDexV3ProgramID   = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
)

// PoolConfig represents a pool entry in the JSON config
type PoolConfig struct {
	Name                 string `json:"name"`
	CoinMint             string `json:"coin_mint"`
	PcMint               string `json:"pc_mint"`
	LpMint               string `json:"lp_mint"`
	AmmProgram           string `json:"amm_program,omitempty"`
	TokenProgram         string `json:"token_program,omitempty"`
	Amm                  string `json:"amm"`
	AmmAuthority         string `json:"amm_authority"`
	AmmOpenOrders        string `json:"amm_open_orders"`
	AmmTargetOrders      string `json:"amm_target_orders"`
	PoolCoinTokenAccount string `json:"pool_coin_token_account"`
	PoolPcTokenAccount   string `json:"pool_pc_token_account"`
	SerumProgram         string `json:"serum_program,omitempty"`
	SerumMarket          string `json:"serum_market"`
	SerumBids            string `json:"serum_bids"`
	SerumAsks            string `json:"serum_asks"`
	SerumEventQueue      string `json:"serum_event_queue"`
	SerumCoinVault       string `json:"serum_coin_vault"`
	SerumPcVault         string `json:"serum_pc_vault"`
	SerumVaultSigner     string `json:"serum_vault_signer"`
}

// Pool is a parsed, ready-to-use set of AMM and order-book keys
type Pool struct {
	Name                 string
	CoinMint             solana.PublicKey
	PcMint               solana.PublicKey
	LpMint               solana.PublicKey
	AmmProgram           solana.PublicKey
	TokenProgram         solana.PublicKey
	Amm                  solana.PublicKey
	AmmAuthority         solana.PublicKey
	AmmOpenOrders        solana.PublicKey
	AmmTargetOrders      solana.PublicKey
	PoolCoinTokenAccount solana.PublicKey
	PoolPcTokenAccount   solana.PublicKey
	SerumProgram         solana.PublicKey
	SerumMarket          solana.PublicKey
	SerumBids            solana.PublicKey
	SerumAsks            solana.PublicKey
	SerumEventQueue      solana.PublicKey
	SerumCoinVault       solana.PublicKey
	SerumPcVault         solana.PublicKey
	SerumVaultSigner     solana.PublicKey
}

// Registry holds all configured pools
type Registry struct {
	pools []Pool
}

// NewRegistry loads pools from a JSON file
func NewRegistry(configPath string) (*Registry, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry parses a JSON array of pool configs
func ParseRegistry(data []byte) (*Registry, error) {
	var configs []PoolConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	pools := make([]Pool, 0, len(configs))
	seen := make(map[string]bool, len(configs))
	for i, cfg := range configs {
		pool, err := parsePoolConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("pool %d (%s): %w", i, cfg.Name, err)
		}
		if seen[pool.Name] {
			return nil, fmt.Errorf("pool %d: duplicate name %q", i, pool.Name)
		}
		seen[pool.Name] = true
		pools = append(pools, pool)
	}

	return &Registry{pools: pools}, nil
}

// parsePoolConfig converts a config struct to a Pool with validation
func parsePoolConfig(cfg PoolConfig) (Pool, error) {
	if cfg.Name == "" {
		return Pool{}, fmt.Errorf("name is required")
	}
	if cfg.AmmProgram == "" {
		cfg.AmmProgram = RaydiumAmmV4ProgramID
	}
	if cfg.SerumProgram == "" {
		cfg.SerumProgram = SerumDexV3ProgramID
	}
	if cfg.TokenProgram == "" {
		cfg.TokenProgram = solana.TokenProgramID.String()
	}

	p := &parser{}
	pool := Pool{
		Name:                 cfg.Name,
		CoinMint:             p.key("coin_mint", cfg.CoinMint),
		PcMint:               p.key("pc_mint", cfg.PcMint),
		LpMint:               p.key("lp_mint", cfg.LpMint),
		AmmProgram:           p.key("amm_program", cfg.AmmProgram),
		TokenProgram:         p.key("token_program", cfg.TokenProgram),
		Amm:                  p.key("amm", cfg.Amm),
		AmmAuthority:         p.key("amm_authority", cfg.AmmAuthority),
		AmmOpenOrders:        p.key("amm_open_orders", cfg.AmmOpenOrders),
		AmmTargetOrders:      p.key("amm_target_orders", cfg.AmmTargetOrders),
		PoolCoinTokenAccount: p.key("pool_coin_token_account", cfg.PoolCoinTokenAccount),
		PoolPcTokenAccount:   p.key("pool_pc_token_account", cfg.PoolPcTokenAccount),
		SerumProgram:         p.key("serum_program", cfg.SerumProgram),
		SerumMarket:          p.key("serum_market", cfg.SerumMarket),
		SerumBids:            p.key("serum_bids", cfg.SerumBids),
		SerumAsks:            p.key("serum_asks", cfg.SerumAsks),
		SerumEventQueue:      p.key("serum_event_queue", cfg.SerumEventQueue),
		SerumCoinVault:       p.key("serum_coin_vault", cfg.SerumCoinVault),
		SerumPcVault:         p.key("serum_pc_vault", cfg.SerumPcVault),
		SerumVaultSigner:     p.key("serum_vault_signer", cfg.SerumVaultSigner),
	}
	if p.err != nil {
		return Pool{}, p.err
	}
	return pool, nil
}

type parser struct {
	err error
}

func (p *parser) key(field, value string) solana.PublicKey {
	if p.err != nil {
		return solana.PublicKey{}
	}
	pk, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		p.err = fmt.Errorf("%s: invalid public key %q: %w", field, value, err)
	}
	return pk
}

// FindPoolByMints searches for a pool matching the given token pair
func (r *Registry) FindPoolByMints(mintA, mintB solana.PublicKey) (*Pool, error) {
	for i := range r.pools {
		pool := &r.pools[i]

		// Check both directions: coin/pc and pc/coin
		if (pool.CoinMint.Equals(mintA) && pool.PcMint.Equals(mintB)) ||
			(pool.CoinMint.Equals(mintB) && pool.PcMint.Equals(mintA)) {
			return pool, nil
		}
	}
	return nil, fmt.Errorf("no pool found for mints %s / %s", mintA, mintB)
}

// FindPoolByName searches for a pool by its name
func (r *Registry) FindPoolByName(name string) (*Pool, error) {
	for i := range r.pools {
		if r.pools[i].Name == name {
			return &r.pools[i], nil
		}
	}
	return nil, fmt.Errorf("pool not found: %s", name)
}

// GetAllPools returns all registered pools
func (r *Registry) GetAllPools() []Pool {
	return r.pools
}

// PoolCount returns the number of registered pools
func (r *Registry) PoolCount() int {
	return len(r.pools)
}

// SwapMints returns the (input, output) mints for a swap that starts from
// inputMint.
func (p *Pool) SwapMints(inputMint solana.PublicKey) (in, out solana.PublicKey, err error) {
	switch {
	case p.CoinMint.Equals(inputMint):
		return p.CoinMint, p.PcMint, nil
	case p.PcMint.Equals(inputMint):
		return p.PcMint, p.CoinMint, nil
	}
	return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("input mint %s does not match pool %s mints", inputMint, p.Name)
}

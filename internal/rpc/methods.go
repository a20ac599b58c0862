package rpc

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// GetLatestBlockhash fetches the most recent blockhash at commitment.
func (c *Client) GetLatestBlockhash(ctx context.Context, commitment string) (solana.Hash, error) {
	var resp response[contextValue[struct {
		Blockhash            string `json:"blockhash"`
		LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	}]]

	params := []any{map[string]any{"commitment": commitment}}
	if err := c.Call(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return solana.Hash{}, err
	}
	if resp.Error != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash: %w", resp.Error)
	}

	hash, err := solana.HashFromBase58(resp.Result.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return hash, nil
}

// SendTransaction submits a base64 encoded signed transaction and returns its
// signature.
func (c *Client) SendTransaction(ctx context.Context, encodedTx string, opts SendOptions) (string, error) {
	cfg := map[string]any{
		"encoding":            "base64",
		"skipPreflight":       opts.SkipPreflight,
		"preflightCommitment": opts.PreflightCommitment,
	}
	if opts.MaxRetries != nil {
		cfg["maxRetries"] = *opts.MaxRetries
	}

	var resp response[string]
	if err := c.Call(ctx, "sendTransaction", []any{encodedTx, cfg}, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("sendTransaction: %w", resp.Error)
	}
	return resp.Result, nil
}

// SimulateTransaction runs a base64 encoded transaction without committing it.
// A failed simulation returns both the result (with logs) and an error.
func (c *Client) SimulateTransaction(ctx context.Context, encodedTx string) (*SimulationResult, error) {
	var resp response[contextValue[struct {
		Err           any      `json:"err"`
		Logs          []string `json:"logs"`
		UnitsConsumed uint64   `json:"unitsConsumed,omitempty"`
	}]]

	params := []any{
		encodedTx,
		map[string]any{
			"encoding":   "base64",
			"commitment": "processed",
			"sigVerify":  false,
		},
	}
	if err := c.Call(ctx, "simulateTransaction", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("simulateTransaction: %w", resp.Error)
	}

	v := resp.Result.Value
	result := &SimulationResult{
		Success:       v.Err == nil,
		Logs:          v.Logs,
		UnitsConsumed: v.UnitsConsumed,
	}
	if v.Err != nil {
		result.Error = fmt.Sprintf("%v", v.Err)
		return result, fmt.Errorf("simulation failed: %v", v.Err)
	}
	return result, nil
}

// GetSignatureStatus returns the status of sig, or nil if the cluster has not
// seen it yet.
func (c *Client) GetSignatureStatus(ctx context.Context, sig string) (*SignatureStatus, error) {
	var resp response[contextValue[[]*SignatureStatus]]

	params := []any{
		[]string{sig},
		map[string]any{"searchTransactionHistory": true},
	}
	if err := c.Call(ctx, "getSignatureStatuses", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getSignatureStatuses: %w", resp.Error)
	}
	if len(resp.Result.Value) == 0 {
		return nil, nil
	}
	return resp.Result.Value[0], nil
}

// AccountExists checks if an account exists on-chain (getAccountInfo != nil).
func (c *Client) AccountExists(ctx context.Context, pubkey solana.PublicKey, commitment string) (bool, error) {
	var resp response[contextValue[any]]

	params := []any{
		pubkey.String(),
		map[string]any{
			"encoding":   "base64",
			"commitment": commitment,
		},
	}
	if err := c.Call(ctx, "getAccountInfo", params, &resp); err != nil {
		return false, err
	}
	if resp.Error != nil {
		return false, fmt.Errorf("getAccountInfo: %w", resp.Error)
	}
	return resp.Result.Value != nil, nil
}

// GetBalance returns the lamport balance of pubkey.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment string) (uint64, error) {
	var resp response[contextValue[uint64]]

	params := []any{
		pubkey.String(),
		map[string]any{"commitment": commitment},
	}
	if err := c.Call(ctx, "getBalance", params, &resp); err != nil {
		return 0, err
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getBalance: %w", resp.Error)
	}
	return resp.Result.Value, nil
}

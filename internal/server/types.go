package server

import (
	"github.com/aman-zulfiqar/solana-fee-router/internal/fees"
	"github.com/aman-zulfiqar/solana-fee-router/internal/instruction"
)

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Reason  string `json:"reason,omitempty"`  // Router error name, e.g. InvalidInstruction
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// DecodeRequest carries base58 instruction data
type DecodeRequest struct {
	Data string `json:"data"`
}

// DecodeResponse is a decoded router instruction
type DecodeResponse struct {
	Kind        instruction.Kind        `json:"kind"`
	Instruction instruction.Instruction `json:"instruction"`
}

// Tag tables accepted by EncodeRequest.Table.
const (
	TableForward = "forward"
	TableRouter  = "router"
)

// EncodeRequest describes an instruction to serialize. Only the fields of the
// chosen kind are read.
type EncodeRequest struct {
	Kind  instruction.Kind `json:"kind"`
	Table string           `json:"table"` // forward (default) or router

	AmountIn         uint64 `json:"amount_in"`
	MinimumAmountOut uint64 `json:"minimum_amount_out"`

	MaxCoinAmount uint64 `json:"max_coin_amount"`
	MaxPcAmount   uint64 `json:"max_pc_amount"`
	BaseSide      uint64 `json:"base_side"`
}

// EncodeResponse carries serialized instruction data
type EncodeResponse struct {
	Data   string `json:"data"` // base58
	Length int    `json:"length"`
}

// FeeQuoteResponse is the fee owed on an amount at a rate
type FeeQuoteResponse struct {
	Amount      uint64 `json:"amount"`
	Numerator   uint64 `json:"numerator"`
	Denominator uint64 `json:"denominator"`
	Fee         uint64 `json:"fee"`
	Net         uint64 `json:"net"`
}

// FeeValidateResponse echoes a valid fee record with its packed form
type FeeValidateResponse struct {
	OK     bool      `json:"ok"`
	Fees   fees.Fees `json:"fees"`
	Packed string    `json:"packed"` // base58 of the 64-byte record
}

package rpc

import "fmt"

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// response is the JSON-RPC envelope
type response[T any] struct {
	Result T         `json:"result"`
	Error  *RPCError `json:"error"`
}

// contextValue wraps results returned with an RPC context slot
type contextValue[T any] struct {
	Value T `json:"value"`
}

// SendOptions configures transaction sending behavior
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *int
}

// DefaultSendOptions returns recommended send settings
func DefaultSendOptions() SendOptions {
	maxRetries := 3
	return SendOptions{
		SkipPreflight:       false,
		PreflightCommitment: "processed",
		MaxRetries:          &maxRetries,
	}
}

// SimulationResult contains simulation output
type SimulationResult struct {
	Success       bool     `json:"success"`
	Error         string   `json:"error,omitempty"`
	Logs          []string `json:"logs"`
	UnitsConsumed uint64   `json:"units_consumed"`
}

// SignatureStatus is one entry of getSignatureStatuses
type SignatureStatus struct {
	Slot               uint64 `json:"slot"`
	Confirmations      *int   `json:"confirmations"`
	Err                any    `json:"err"`
	ConfirmationStatus string `json:"confirmationStatus"`
}

// Satisfies reports whether the status meets the requested commitment.
func (s *SignatureStatus) Satisfies(commitment string) bool {
	switch commitment {
	case "confirmed":
		return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
	case "finalized":
		return s.ConfirmationStatus == "finalized"
	default:
		return s.ConfirmationStatus != ""
	}
}

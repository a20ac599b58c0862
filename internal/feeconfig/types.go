package feeconfig

import (
	"errors"
	"time"

	"github.com/aman-zulfiqar/solana-fee-router/internal/fees"
)

var ErrNotFound = errors.New("fee config not found")

// Record is a pool's persisted fee configuration.
type Record struct {
	Pool      string    `json:"pool"`
	Fees      fees.Fees `json:"fees"`
	UpdatedAt time.Time `json:"updated_at"`
}

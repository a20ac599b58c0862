package engine

import (
	"fmt"
	"sync"
	"time"
)

// LimitConfig bounds what Execute will send. Zero values disable a check.
type LimitConfig struct {
	// MaxAmount caps the input of a single operation in raw token units
	// (amount_in for swaps, the larger side for deposits).
	MaxAmount uint64

	// DailyOperations caps executed operations in a rolling 24h window.
	DailyOperations int

	// MinBalanceSOL is the wallet balance kept back for transaction fees.
	MinBalanceSOL float64
}

// LimitCheck is the outcome of a limit evaluation.
type LimitCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`

	DailyUsed      int `json:"daily_used"`
	DailyRemaining int `json:"daily_remaining"`
}

// Limiter enforces LimitConfig.
type Limiter struct {
	config  LimitConfig
	tracker *dailyTracker
}

// NewLimiter creates a limiter with the given config
func NewLimiter(cfg LimitConfig) *Limiter {
	return &Limiter{
		config:  cfg,
		tracker: newDailyTracker(time.Now),
	}
}

// Check evaluates one operation of size amount against the limits.
func (l *Limiter) Check(amount uint64, balanceSOL float64) *LimitCheck {
	used := l.tracker.count()
	res := &LimitCheck{Allowed: true, DailyUsed: used}
	if l.config.DailyOperations > 0 {
		res.DailyRemaining = l.config.DailyOperations - used
	}

	if l.config.MaxAmount > 0 && amount > l.config.MaxAmount {
		res.Allowed = false
		res.Reason = fmt.Sprintf("amount %d exceeds max %d per operation", amount, l.config.MaxAmount)
		return res
	}

	if l.config.DailyOperations > 0 && used >= l.config.DailyOperations {
		res.Allowed = false
		res.Reason = fmt.Sprintf("daily limit reached: %d of %d operations", used, l.config.DailyOperations)
		return res
	}

	if balanceSOL < l.config.MinBalanceSOL {
		res.Allowed = false
		res.Reason = fmt.Sprintf("insufficient balance: %.4f SOL, need %.4f SOL minimum",
			balanceSOL, l.config.MinBalanceSOL)
		return res
	}

	return res
}

// Record counts one executed operation toward the daily window.
func (l *Limiter) Record() {
	l.tracker.record()
}

// dailyTracker counts operations in a rolling 24-hour window
type dailyTracker struct {
	mu   sync.Mutex
	now  func() time.Time
	seen []time.Time
}

func newDailyTracker(now func() time.Time) *dailyTracker {
	return &dailyTracker{now: now}
}

func (t *dailyTracker) record() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen = append(t.seen, t.now())
	t.cleanup()
}

func (t *dailyTracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanup()
	return len(t.seen)
}

// cleanup drops entries older than 24 hours; callers hold mu.
func (t *dailyTracker) cleanup() {
	cutoff := t.now().Add(-24 * time.Hour)
	kept := t.seen[:0]
	for _, ts := range t.seen {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	t.seen = kept
}

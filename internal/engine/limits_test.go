package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Check(t *testing.T) {
	l := NewLimiter(LimitConfig{MaxAmount: 100, DailyOperations: 2, MinBalanceSOL: 0.05})

	assert.True(t, l.Check(100, 1).Allowed)
	assert.False(t, l.Check(101, 1).Allowed)
	assert.False(t, l.Check(10, 0.01).Allowed)

	l.Record()
	check := l.Check(10, 1)
	assert.True(t, check.Allowed)
	assert.Equal(t, 1, check.DailyUsed)
	assert.Equal(t, 1, check.DailyRemaining)

	l.Record()
	assert.False(t, l.Check(10, 1).Allowed)
}

func TestLimiter_ZeroDisables(t *testing.T) {
	l := NewLimiter(LimitConfig{})
	for i := 0; i < 10; i++ {
		l.Record()
	}
	assert.True(t, l.Check(1<<63, 0).Allowed)
}

func TestDailyTracker_RollingWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := newDailyTracker(func() time.Time { return now })

	tr.record()
	tr.record()
	assert.Equal(t, 2, tr.count())

	now = now.Add(23 * time.Hour)
	tr.record()
	assert.Equal(t, 3, tr.count())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, tr.count())
}

package collect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
)

func TestBudget_Remaining(t *testing.T) {
	b := NewBudget(45*time.Second, 10*time.Second, 1500*time.Millisecond)

	base := time.Now()
	b.deadline = base.Add(45 * time.Second)
	b.nowFunc = func() time.Time { return base }

	assert.Equal(t, 43500*time.Millisecond, b.Remaining())
	assert.False(t, b.Exhausted())

	b.nowFunc = func() time.Time { return base.Add(44 * time.Second) }
	assert.Equal(t, time.Duration(0), b.Remaining())
	assert.True(t, b.Exhausted())
}

func TestBudget_CallTimeout(t *testing.T) {
	b := NewBudget(45*time.Second, 10*time.Second, 1500*time.Millisecond)
	base := time.Now()
	b.deadline = base.Add(45 * time.Second)

	b.nowFunc = func() time.Time { return base }
	timeout, ok := b.CallTimeout()
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, timeout)

	// Near the end the call gets only what is left.
	b.nowFunc = func() time.Time { return base.Add(40 * time.Second) }
	timeout, ok = b.CallTimeout()
	require.True(t, ok)
	assert.Equal(t, 3500*time.Millisecond, timeout)

	b.nowFunc = func() time.Time { return base.Add(45 * time.Second) }
	_, ok = b.CallTimeout()
	assert.False(t, ok)
}

func TestRunBudget_PrecisionPicksWindow(t *testing.T) {
	cfg := config.CollectorConfig{
		BudgetSecsBalanced: 45,
		BudgetSecsHigh:     60,
		PerCallTimeoutMs:   10000,
		SafetyMarginMs:     1500,
	}

	base := time.Now()
	balanced := RunBudget(cfg, model.PrecisionBalanced)
	balanced.nowFunc = func() time.Time { return base }
	assert.WithinDuration(t, base.Add(45*time.Second), balanced.deadline, time.Second)

	high := RunBudget(cfg, model.PrecisionHigh)
	high.nowFunc = func() time.Time { return base }
	assert.WithinDuration(t, base.Add(60*time.Second), high.deadline, time.Second)
	assert.Equal(t, 10*time.Second, high.perCall)
	assert.Equal(t, 1500*time.Millisecond, high.margin)
}

func TestBudget_CallContext(t *testing.T) {
	b := NewBudget(45*time.Second, 10*time.Second, 1500*time.Millisecond)

	ctx, cancel, ok := b.CallContext(context.Background())
	require.True(t, ok)
	defer cancel()

	deadline, has := ctx.Deadline()
	require.True(t, has)
	assert.WithinDuration(t, time.Now().Add(10*time.Second), deadline, time.Second)

	base := time.Now()
	b.deadline = base
	b.nowFunc = func() time.Time { return base }
	_, _, ok = b.CallContext(context.Background())
	assert.False(t, ok)
}

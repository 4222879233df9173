package collect

import (
	"context"
	"time"

	"github.com/brandscope/competitor-cli/internal/config"
	"github.com/brandscope/competitor-cli/internal/model"
)

// Budget tracks a wall-clock allowance shared by the network phases of a
// run, collection and resolution alike. Every outbound call borrows a
// timeout from the remaining allowance so the run as a whole lands inside
// its window.
type Budget struct {
	deadline time.Time
	perCall  time.Duration
	margin   time.Duration

	nowFunc func() time.Time
}

// NewBudget starts a budget of total wall-clock time. perCall caps any
// single outbound call; margin is reserved headroom so the final call can
// still complete and flush before the window closes.
func NewBudget(total, perCall, margin time.Duration) *Budget {
	now := time.Now()
	return &Budget{
		deadline: now.Add(total),
		perCall:  perCall,
		margin:   margin,
		nowFunc:  time.Now,
	}
}

// RunBudget builds the per-run budget for a precision mode from the
// collector's timing knobs.
func RunBudget(cfg config.CollectorConfig, p model.Precision) *Budget {
	secs := cfg.BudgetSecsBalanced
	if p == model.PrecisionHigh {
		secs = cfg.BudgetSecsHigh
	}
	return NewBudget(
		time.Duration(secs)*time.Second,
		time.Duration(cfg.PerCallTimeoutMs)*time.Millisecond,
		time.Duration(cfg.SafetyMarginMs)*time.Millisecond,
	)
}

// Remaining reports the usable allowance left, net of the safety margin.
func (b *Budget) Remaining() time.Duration {
	left := b.deadline.Sub(b.nowFunc()) - b.margin
	if left < 0 {
		return 0
	}
	return left
}

// Exhausted reports whether no usable allowance remains.
func (b *Budget) Exhausted() bool {
	return b.Remaining() <= 0
}

// CallTimeout returns the timeout the next outbound call may spend. The
// second return is false when the budget cannot fund another call.
func (b *Budget) CallTimeout() (time.Duration, bool) {
	left := b.Remaining()
	if left <= 0 {
		return 0, false
	}
	if left < b.perCall {
		return left, true
	}
	return b.perCall, true
}

// CallContext derives a context bounded by the per-call timeout. The
// third return is false when the budget is exhausted.
func (b *Budget) CallContext(ctx context.Context) (context.Context, context.CancelFunc, bool) {
	timeout, ok := b.CallTimeout()
	if !ok {
		return nil, nil, false
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	return callCtx, cancel, true
}

package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(threshold int, cooldown time.Duration) (*HealthTracker, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := NewHealthTracker(HealthConfig{FailureThreshold: threshold, CooldownPeriod: cooldown})
	tr.nowFunc = func() time.Time { return now }
	return tr, &now
}

func TestHealthTracker_DegradesAfterThreshold(t *testing.T) {
	tr, _ := newTestTracker(3, time.Minute)

	tr.ReportDegraded("jina", "timeout")
	tr.ReportDegraded("jina", "timeout")
	assert.False(t, tr.Degraded("jina"))

	tr.ReportDegraded("jina", "status 502")
	assert.True(t, tr.Degraded("jina"))
	assert.True(t, tr.ShouldSkip("jina"))
}

func TestHealthTracker_SuccessResetsFailureStreak(t *testing.T) {
	tr, _ := newTestTracker(3, time.Minute)

	tr.ReportDegraded("ddg", "timeout")
	tr.ReportDegraded("ddg", "timeout")
	tr.ReportOK("ddg")
	tr.ReportDegraded("ddg", "timeout")
	tr.ReportDegraded("ddg", "timeout")

	assert.False(t, tr.Degraded("ddg"))
}

func TestHealthTracker_CooldownAllowsProbe(t *testing.T) {
	tr, now := newTestTracker(1, time.Minute)

	tr.ReportDegraded("anthropic", "rate limit")
	require.True(t, tr.ShouldSkip("anthropic"))

	*now = now.Add(2 * time.Minute)
	assert.False(t, tr.ShouldSkip("anthropic"), "probe allowed after cooldown")
	assert.True(t, tr.ShouldSkip("anthropic"), "only one probe per cooldown window")

	tr.ReportOK("anthropic")
	assert.False(t, tr.ShouldSkip("anthropic"))
	assert.False(t, tr.Degraded("anthropic"))
}

func TestHealthTracker_OnDegradedFiresOnce(t *testing.T) {
	var fired []string
	tr := NewHealthTracker(HealthConfig{
		FailureThreshold: 2,
		CooldownPeriod:   time.Minute,
		OnDegraded:       func(connector, reason string) { fired = append(fired, connector+":"+reason) },
	})

	tr.ReportDegraded("jina", "timeout")
	tr.ReportDegraded("jina", "status 503")
	tr.ReportDegraded("jina", "status 503")

	assert.Equal(t, []string{"jina:status 503"}, fired)
}

func TestHealthTracker_DegradedConnectorsAndFailureRate(t *testing.T) {
	tr, _ := newTestTracker(1, time.Minute)

	tr.ReportOK("jina")
	tr.ReportDegraded("jina", "timeout")
	tr.ReportDegraded("ddg", "blocked")

	degraded := tr.DegradedConnectors()
	assert.Equal(t, map[string]string{"jina": "timeout", "ddg": "blocked"}, degraded)
	assert.InDelta(t, 0.5, tr.FailureRate("jina"), 0.001)
	assert.InDelta(t, 1.0, tr.FailureRate("ddg"), 0.001)
	assert.Zero(t, tr.FailureRate("unknown"))
}

package resilience

import (
	"sync"
	"time"
)

// HealthConfig controls when a connector is considered degraded.
type HealthConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// connector is marked degraded. Default: 3.
	FailureThreshold int

	// CooldownPeriod is how long a degraded connector stays skipped before
	// a single probe call is allowed through again. Default: 60s.
	CooldownPeriod time.Duration

	// OnDegraded is called once each time a connector transitions to
	// degraded, with the connector name and last failure reason.
	OnDegraded func(connector, reason string)
}

// DefaultHealthConfig returns the tracker defaults.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		FailureThreshold: 3,
		CooldownPeriod:   60 * time.Second,
	}
}

type connectorState struct {
	consecutiveFailures int
	degraded            bool
	degradedAt          time.Time
	lastReason          string
	calls               int
	failures            int
}

// HealthTracker records per-connector call outcomes. A connector that fails
// repeatedly is marked degraded: subsequent calls should be skipped until the
// cooldown elapses, at which point one probe call is allowed. Degradation is
// advisory; it never aborts a run, only lowers confidence in the output.
type HealthTracker struct {
	cfg HealthConfig

	mu     sync.Mutex
	states map[string]*connectorState

	nowFunc func() time.Time
}

// NewHealthTracker creates a tracker with the given config.
func NewHealthTracker(cfg HealthConfig) *HealthTracker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CooldownPeriod <= 0 {
		cfg.CooldownPeriod = 60 * time.Second
	}
	return &HealthTracker{
		cfg:     cfg,
		states:  make(map[string]*connectorState),
		nowFunc: time.Now,
	}
}

// ReportOK records a successful call, clearing any degraded mark.
func (t *HealthTracker) ReportOK(connector string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(connector)
	st.calls++
	st.consecutiveFailures = 0
	st.degraded = false
	st.lastReason = ""
}

// ReportDegraded records a failed call with its reason. Crossing the failure
// threshold marks the connector degraded.
func (t *HealthTracker) ReportDegraded(connector, reason string) {
	t.mu.Lock()
	st := t.state(connector)
	st.calls++
	st.failures++
	st.consecutiveFailures++
	st.lastReason = reason

	justDegraded := false
	if !st.degraded && st.consecutiveFailures >= t.cfg.FailureThreshold {
		st.degraded = true
		st.degradedAt = t.nowFunc()
		justDegraded = true
	}
	cb := t.cfg.OnDegraded
	t.mu.Unlock()

	if justDegraded && cb != nil {
		cb(connector, reason)
	}
}

// ShouldSkip reports whether calls to the connector should currently be
// skipped. After the cooldown it returns false once to allow a probe.
func (t *HealthTracker) ShouldSkip(connector string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(connector)
	if !st.degraded {
		return false
	}
	if t.nowFunc().Sub(st.degradedAt) >= t.cfg.CooldownPeriod {
		// Allow one probe; push the window forward so only one goroutine
		// probes per cooldown.
		st.degradedAt = t.nowFunc()
		return false
	}
	return true
}

// Degraded reports whether the connector is currently marked degraded.
func (t *HealthTracker) Degraded(connector string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state(connector).degraded
}

// DegradedConnectors returns name→reason for every degraded connector.
func (t *HealthTracker) DegradedConnectors() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]string)
	for name, st := range t.states {
		if st.degraded {
			out[name] = st.lastReason
		}
	}
	return out
}

// FailureRate returns failures/calls for the connector, or 0 with no calls.
func (t *HealthTracker) FailureRate(connector string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.state(connector)
	if st.calls == 0 {
		return 0
	}
	return float64(st.failures) / float64(st.calls)
}

func (t *HealthTracker) state(connector string) *connectorState {
	st, ok := t.states[connector]
	if !ok {
		st = &connectorState{}
		t.states[connector] = st
	}
	return st
}

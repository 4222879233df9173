// Package events delivers fire-and-forget run telemetry to a webhook.
// Delivery never gates pipeline control flow: failures are logged and
// dropped.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brandscope/competitor-cli/internal/config"
)

// Type identifies the kind of lifecycle event.
type Type string

const (
	EventRunStarted         Type = "started"
	EventCollectorCompleted Type = "collector.completed"
	EventResolverCompleted  Type = "resolver.completed"
	EventShortlistGenerated Type = "shortlist.generated"
	EventConnectorDegraded  Type = "connector.degraded"
	EventRunFailed          Type = "run.failed"
)

// Event is one lifecycle notification.
type Event struct {
	Type      Type           `json:"type"`
	JobID     string         `json:"job_id"`
	RunID     string         `json:"run_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notifier posts events to the configured webhook. A Notifier with no
// webhook URL drops everything silently, so callers never need a nil check.
type Notifier struct {
	cfg    config.EventsConfig
	client *http.Client
	logger *zap.Logger
}

// NewNotifier builds a Notifier from config.
func NewNotifier(cfg config.EventsConfig) *Notifier {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: zap.L().With(zap.String("component", "events")),
	}
}

// Emit delivers one event. Errors are logged, never returned; the pipeline
// must not care whether anyone is listening.
func (n *Notifier) Emit(ctx context.Context, typ Type, jobID, runID string, details map[string]any) {
	if n.cfg.WebhookURL == "" {
		return
	}
	ev := Event{
		Type:      typ,
		JobID:     jobID,
		RunID:     runID,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
	if err := n.post(ctx, ev); err != nil {
		n.logger.Warn("event delivery failed",
			zap.String("type", string(typ)),
			zap.String("job_id", jobID),
			zap.Error(err))
		return
	}
	n.logger.Debug("event delivered",
		zap.String("type", string(typ)),
		zap.String("job_id", jobID))
}

func (n *Notifier) post(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "events: marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "events: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "events: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("events: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

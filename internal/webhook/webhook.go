// Package webhook posts room events to an operator-configured URL.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/codehive-dev/codehive/internal/domain"
)

const deliveryTimeout = 5 * time.Second

// Fanout posts event notifications for rooms that have an active
// webhook configuration. Failures are logged once and never retried.
type Fanout struct {
	client *http.Client
	onSend func(event, outcome string) // optional metrics hook
}

// New returns a Fanout with a 5s total-request timeout per delivery.
func New() *Fanout {
	return &Fanout{client: &http.Client{Timeout: deliveryTimeout}}
}

// OnDeliver registers a callback invoked after every delivery attempt
// with the event name and "ok"/"error" outcome, for metrics wiring.
func (f *Fanout) OnDeliver(cb func(event, outcome string)) { f.onSend = cb }

// Fire posts payload to cfg's URL if cfg fires for event. payload's
// fields are merged alongside the standard event/room/timestamp keys.
// Delivery errors are swallowed after being logged at Warn.
func (f *Fanout) Fire(ctx context.Context, cfg *domain.WebhookConfig, event, room string, now int64, payload map[string]any) {
	if !cfg.Fires(event) {
		return
	}

	body := map[string]any{
		"event":     event,
		"room":      room,
		"timestamp": now,
	}
	for k, v := range payload {
		body[k] = v
	}

	data, err := json.Marshal(body)
	if err != nil {
		slog.Warn("webhook marshal failed", "room", room, "event", event, "err", err)
		f.report(event, "error")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(data))
	if err != nil {
		slog.Warn("webhook request build failed", "room", room, "event", event, "err", err)
		f.report(event, "error")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Warn("webhook delivery failed", "room", room, "event", event, "url", cfg.URL, "err", err)
		f.report(event, "error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		slog.Warn("webhook delivery rejected", "room", room, "event", event, "status", resp.StatusCode)
		f.report(event, "error")
		return
	}
	f.report(event, "ok")
}

func (f *Fanout) report(event, outcome string) {
	if f.onSend != nil {
		f.onSend(event, outcome)
	}
}

package authgw

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/revlinehq/revline-api/internal/models"
	"github.com/revlinehq/revline-api/pkg/logger"
	"github.com/revlinehq/revline-api/pkg/metrics"
)

// Auth-state change event types published by the platform.
const (
	EventInitialSession = "INITIAL_SESSION"
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

// Event is one auth-state change notification. Session is nil for sign-out.
type Event struct {
	Type    string          `json:"type"`
	Session *models.Session `json:"session,omitempty"`
}

// ErrNoEventStream is returned by Subscribe when no redis client was wired.
var ErrNoEventStream = errors.New("authgw: event stream not configured")

// Subscribe listens on the platform's auth-state pub/sub channel. The returned
// func unsubscribes and closes the event channel. Malformed payloads are
// logged and skipped.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	if c.events == nil {
		return nil, nil, ErrNoEventStream
	}
	ps := c.events.Subscribe(ctx, c.channel)
	// force the subscription to be established before returning
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}
	out := make(chan Event, 8)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warnf("authgw: dropping malformed auth event: %v", err)
				continue
			}
			metrics.AuthEvents.WithLabelValues(ev.Type).Inc()
			out <- ev
		}
	}()
	return out, func() { _ = ps.Close() }, nil
}

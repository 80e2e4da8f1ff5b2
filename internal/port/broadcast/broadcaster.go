// Package broadcast defines the port for pushing session events to connected clients.
package broadcast

import "context"

// Broadcaster delivers typed events to subscribed clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event. Payloads scoped to a session reach
	// only that session's subscribers.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

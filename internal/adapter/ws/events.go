package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/SpellForge/internal/domain/prompt"
)

// Event type constants for WebSocket messages.
const (
	EventSessionSnapshot = "session.snapshot"
	EventSessionClosed   = "session.closed"
)

// SessionScoped is implemented by payloads that belong to a single session.
type SessionScoped interface {
	ScopeSessionID() string
}

// SessionSnapshotEvent is broadcast after every applied session mutation.
type SessionSnapshotEvent struct {
	SessionID string        `json:"session_id"`
	Version   uint64        `json:"version"`
	Prompt    prompt.Prompt `json:"prompt"`
	Compiled  string        `json:"compiled"`
	FocusHint *int          `json:"focus_hint"`
}

// ScopeSessionID implements SessionScoped.
func (e SessionSnapshotEvent) ScopeSessionID() string { return e.SessionID }

// SessionClosedEvent is broadcast when a session is deleted or evicted.
type SessionClosedEvent struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"` // "deleted" or "expired"
}

// ScopeSessionID implements SessionScoped.
func (e SessionClosedEvent) ScopeSessionID() string { return e.SessionID }

// BroadcastEvent marshals a typed event and delivers it. Session-scoped
// payloads reach only that session's subscribers; a session.closed event
// also disconnects them.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}
	msg := Message{Type: eventType, Payload: json.RawMessage(data)}

	scoped, ok := payload.(SessionScoped)
	if !ok {
		h.Broadcast(ctx, msg)
		return
	}
	h.BroadcastToSession(ctx, scoped.ScopeSessionID(), msg)
	if eventType == EventSessionClosed {
		h.CloseSession(scoped.ScopeSessionID())
	}
}

func encode(eventType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: eventType, Payload: json.RawMessage(data)})
}

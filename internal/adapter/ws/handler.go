// Package ws implements the WebSocket adapter that streams session snapshots.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/SpellForge/internal/domain"
)

const writeTimeout = 5 * time.Second

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SnapshotSource resolves the state sent to a connection right after it
// subscribes. It returns an error wrapping domain.ErrNotFound for unknown
// sessions.
type SnapshotSource interface {
	SessionSnapshot(ctx context.Context, sessionID string) (SessionSnapshotEvent, error)
}

// SnapshotFunc adapts a function to SnapshotSource.
type SnapshotFunc func(ctx context.Context, sessionID string) (SessionSnapshotEvent, error)

// SessionSnapshot implements SnapshotSource.
func (f SnapshotFunc) SessionSnapshot(ctx context.Context, sessionID string) (SessionSnapshotEvent, error) {
	return f(ctx, sessionID)
}

// conn wraps a single WebSocket connection subscribed to one session.
type conn struct {
	ws        *websocket.Conn
	cancel    context.CancelFunc
	sessionID string
}

// Hub manages active WebSocket connections and routes session events.
type Hub struct {
	mu      sync.RWMutex
	conns   map[*conn]struct{}
	origins []string
	source  SnapshotSource
}

// NewHub creates a new WebSocket hub. An empty origin disables the origin
// check. source may be nil, in which case any session id is accepted and no
// initial snapshot is sent.
func NewHub(origin string, source SnapshotSource) *Hub {
	h := &Hub{
		conns:  make(map[*conn]struct{}),
		source: source,
	}
	if origin != "" && origin != "*" {
		// OriginPatterns match against the host part only.
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			origin = u.Host
		}
		h.origins = []string{origin}
	}
	return h
}

// HandleWS upgrades GET /ws?session_id=... and blocks until the client goes away.
//
// The connection is registered before the initial snapshot is read, so an
// update racing the subscribe is delivered rather than lost. The client may
// then see that update ahead of the initial snapshot and should keep the
// higher Version.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	if h.source != nil {
		if _, err := h.source.SessionSnapshot(r.Context(), sessionID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "session not found", http.StatusNotFound)
				return
			}
			slog.Error("websocket snapshot lookup failed", "session_id", sessionID, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: len(h.origins) == 0,
		OriginPatterns:     h.origins,
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ws: ws, cancel: cancel, sessionID: sessionID}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr, "session_id", sessionID)

	status, reason := websocket.StatusNormalClosure, ""
	defer func() {
		h.remove(c)
		_ = ws.Close(status, reason)
	}()

	if h.source != nil {
		snap, err := h.source.SessionSnapshot(ctx, sessionID)
		if err != nil {
			// Deleted between the upgrade and registration.
			status, reason = websocket.StatusPolicyViolation, "session not found"
			if !errors.Is(err, domain.ErrNotFound) {
				status, reason = websocket.StatusInternalError, "snapshot lookup failed"
			}
			return
		}
		if data, err := encode(EventSessionSnapshot, snap); err == nil {
			if err := h.write(ctx, c, data); err != nil {
				return
			}
		}
	}

	// Read loop detects disconnects and consumes pings.
	for {
		if _, _, err := ws.Read(ctx); err != nil {
			return
		}
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	h.send(ctx, msg, func(*conn) bool { return true })
}

// BroadcastToSession sends a message to the subscribers of one session.
func (h *Hub) BroadcastToSession(ctx context.Context, sessionID string, msg Message) {
	h.send(ctx, msg, func(c *conn) bool { return c.sessionID == sessionID })
}

// CloseSession disconnects every subscriber of a session.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if c.sessionID == sessionID {
			c.cancel()
			delete(h.conns, c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) send(ctx context.Context, msg Message, match func(*conn) bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		if match(c) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := h.write(ctx, c, data); err != nil {
			slog.Debug("websocket write failed", "session_id", c.sessionID, "error", err)
			h.remove(c)
		}
	}
}

func (h *Hub) write(ctx context.Context, c *conn, data []byte) error {
	// Detach from the caller's cancellation: a cancelled write closes the socket.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "session_id", c.sessionID)
	}
}

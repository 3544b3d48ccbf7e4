// Package hub implements the real-time coordination core: the connection
// registry, the event router, call session state, presence snapshots, and
// chat fanout, all over persistent websocket connections.
package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatwave-backend/internal/domain"
	"chatwave-backend/pkg/constants"
	"chatwave-backend/pkg/logger"
	"chatwave-backend/pkg/metrics"
)

// PresenceMirror receives registry transitions so online status can be
// observed outside the hub. Implementations must not block.
type PresenceMirror interface {
	SetOnline(ctx context.Context, userID uuid.UUID)
	SetOffline(ctx context.Context, userID uuid.UUID)
}

type noopMirror struct{}

func (noopMirror) SetOnline(context.Context, uuid.UUID)  {}
func (noopMirror) SetOffline(context.Context, uuid.UUID) {}

// Config holds hub tuning knobs
type Config struct {
	RingTimeout    time.Duration
	MaxConnections int
}

// Hub coordinates every live connection of the chat service
type Hub struct {
	registry *Registry
	calls    *CallTable
	presence PresenceMirror
	metrics  *metrics.Metrics

	ringTimeout time.Duration
	semaphore   chan struct{}
}

// New creates a hub. A nil presence mirror disables the Redis mirror, which
// is how tests run.
func New(cfg Config, presence PresenceMirror, m *metrics.Metrics) *Hub {
	if cfg.RingTimeout <= 0 {
		cfg.RingTimeout = constants.RingTimeout
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = constants.DefaultMaxConnections
	}
	if presence == nil {
		presence = noopMirror{}
	}

	return &Hub{
		registry:    NewRegistry(),
		calls:       newCallTable(),
		presence:    presence,
		metrics:     m,
		ringTimeout: cfg.RingTimeout,
		semaphore:   make(chan struct{}, cfg.MaxConnections),
	}
}

// Registry exposes the connection registry for read-side consumers
func (h *Hub) Registry() *Registry {
	return h.registry
}

// handleConnect admits a client into the registry, displacing any previous
// connection for the same identity, and broadcasts the new presence snapshot
func (h *Hub) handleConnect(c *Client) {
	old := h.registry.Admit(c)
	if old != nil {
		logger.Info("connection superseded",
			zap.String("user_id", c.userID.String()))
		old.close()
	} else {
		h.metrics.ConnectionOpened()
		h.presence.SetOnline(context.Background(), c.userID)
	}

	logger.Info("client connected",
		zap.String("user_id", c.userID.String()),
		zap.Int("online", h.registry.Count()))

	h.broadcastPresence()
}

// handleDisconnect removes a departing client. A superseded connection is
// not the current mapping anymore and tears nothing down. For a genuine
// departure every live call the user was party to ends, with exactly one
// end-call delivered to each surviving peer.
func (h *Hub) handleDisconnect(c *Client) {
	defer c.close()

	if !h.registry.Remove(c) {
		return
	}

	h.metrics.ConnectionClosed()
	h.presence.SetOffline(context.Background(), c.userID)
	h.calls.teardownFor(h, c.userID)

	logger.Info("client disconnected",
		zap.String("user_id", c.userID.String()),
		zap.Int("online", h.registry.Count()))

	h.broadcastPresence()
}

// broadcastPresence sends the full online snapshot to every connection
func (h *Hub) broadcastPresence() {
	ids := h.registry.Online()
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}

	data, err := json.Marshal(strs)
	if err != nil {
		return
	}
	payload := encodeEvent(EventOnlineUsers, uuid.Nil, data)

	h.registry.each(func(c *Client) {
		c.enqueue(EventOnlineUsers, payload)
	})
}

// sendTo delivers an event to a single user. Returns the delivery outcome
// for metrics: forwarded, dropped, or unreachable.
func (h *Hub) sendTo(userID uuid.UUID, event string, from uuid.UUID, data json.RawMessage) string {
	target := h.registry.Lookup(userID)
	if target == nil {
		return "unreachable"
	}
	if !target.enqueue(event, encodeEvent(event, from, data)) {
		return "dropped"
	}
	return "forwarded"
}

// IsOnline reports whether a user has a live connection
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	return h.registry.Lookup(userID) != nil
}

// CurrentCall returns the live call session the user is party to, or nil.
// Clients use this to resynchronize call state after a reconnect.
func (h *Hub) CurrentCall(userID uuid.UUID) *domain.Call {
	return h.calls.sessionFor(userID)
}

// ActiveCalls reports how many call sessions are live
func (h *Hub) ActiveCalls() int {
	return h.calls.active()
}

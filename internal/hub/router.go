package hub

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatwave-backend/pkg/logger"
)

// route dispatches one inbound frame from an authenticated connection.
// Malformed frames and unknown events are dropped without closing the
// connection; a misbehaving client only hurts itself.
func (h *Hub) route(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.metrics.RecordEvent("invalid", "rejected")
		logger.Debug("dropping malformed frame",
			zap.Error(err),
			zap.String("user_id", c.userID.String()))
		return
	}

	to, err := uuid.Parse(env.To)
	if err != nil {
		h.metrics.RecordEvent(env.Event, "rejected")
		logger.Debug("dropping frame with bad recipient",
			zap.String("event", env.Event),
			zap.String("user_id", c.userID.String()))
		return
	}

	switch env.Event {
	case EventTyping, EventStopTyping:
		outcome := h.sendTo(to, env.Event, c.userID, env.Data)
		h.metrics.RecordEvent(env.Event, outcome)

	case EventCallUser:
		h.calls.initiate(h, c, to, env.Data)

	case EventAcceptCall:
		h.calls.accept(h, c, to, env.Data)

	case EventOffer, EventAnswer, EventIceCandidate:
		h.calls.relay(h, c, to, env.Event, env.Data)

	case EventRemoteAudioMuted, EventRemoteVideoMuted:
		h.calls.relayActive(h, c, to, env.Event, env.Data)

	case EventEndCall:
		h.calls.end(h, c, to, env.Data)

	default:
		h.metrics.RecordEvent(env.Event, "rejected")
		logger.Debug("dropping unknown event",
			zap.String("event", env.Event),
			zap.String("user_id", c.userID.String()))
	}
}

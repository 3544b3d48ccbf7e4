package hub

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatwave-backend/internal/domain"
	"chatwave-backend/pkg/logger"
)

// NotifyNewMessage delivers a persisted message to its recipient's live
// connection, if any. Returns false when the recipient is offline so the
// caller can fall back to a push notification.
func (h *Hub) NotifyNewMessage(msg *domain.Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to encode message for fanout", zap.Error(err))
		return false
	}

	outcome := h.sendTo(msg.ReceiverID, EventNewMessage, msg.SenderID, data)
	h.metrics.RecordRelayed(EventNewMessage)
	if outcome == "unreachable" {
		return false
	}
	return true
}

// NotifyMessageDeleted tells both parties that a message was retracted. The
// sender gets an echo too, so their other views converge without a refetch.
func (h *Hub) NotifyMessageDeleted(senderID, receiverID, messageID uuid.UUID) {
	data, err := json.Marshal(map[string]string{"messageId": messageID.String()})
	if err != nil {
		return
	}

	h.sendTo(receiverID, EventMessageDeleted, senderID, json.RawMessage(data))
	h.sendTo(senderID, EventMessageDeleted, senderID, json.RawMessage(data))
	h.metrics.RecordRelayed(EventMessageDeleted)
}

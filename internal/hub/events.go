package hub

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Wire event names. These match what the mobile and web clients emit and
// listen for, so renaming any of them is a breaking protocol change.
const (
	EventOnlineUsers    = "getOnlineUsers"
	EventNewMessage     = "newMessage"
	EventMessageDeleted = "messageDeleted"
	EventTyping         = "typing"
	EventStopTyping     = "stopTyping"

	EventCallUser         = "call-user"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventIceCandidate     = "ice-candidate"
	EventAcceptCall       = "accept-call"
	EventEndCall          = "end-call"
	EventRemoteAudioMuted = "remote-audio-muted"
	EventRemoteVideoMuted = "remote-video-muted"
)

// Envelope is the inbound frame format. Clients address peers with "to";
// the "from" field is never read from the wire, it is stamped server-side
// from the authenticated connection.
type Envelope struct {
	Event string          `json:"event"`
	To    string          `json:"to,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundEvent is the frame format delivered to clients
type OutboundEvent struct {
	Event string          `json:"event"`
	From  string          `json:"from,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encodeEvent marshals an outbound frame. A Nil from is omitted, which is
// used for server-originated events like presence snapshots.
func encodeEvent(event string, from uuid.UUID, data json.RawMessage) []byte {
	out := OutboundEvent{Event: event, Data: data}
	if from != uuid.Nil {
		out.From = from.String()
	}
	payload, err := json.Marshal(out)
	if err != nil {
		// All inputs are already valid JSON fragments
		return nil
	}
	return payload
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Call is the wire representation of a call session, used when reporting a
// session to clients or logs. The live state machine lives in the hub.
type Call struct {
	CallerID  uuid.UUID `json:"caller_id"`
	CalleeID  uuid.UUID `json:"callee_id"`
	CallType  string    `json:"call_type"` // audio, video
	Status    string    `json:"status"`    // ringing, active, ended
	StartedAt time.Time `json:"started_at"`
}

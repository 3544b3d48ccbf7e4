package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatwave-backend/internal/domain"
	"chatwave-backend/pkg/constants"
	"chatwave-backend/pkg/logger"
)

// callSession is one call between two users. Its lifecycle is
// ringing -> active -> ended; ended sessions leave the table immediately.
type callSession struct {
	callerID  uuid.UUID
	calleeID  uuid.UUID
	callType  string
	status    string
	startedAt time.Time
	ringTimer *time.Timer
}

func (s *callSession) peerOf(userID uuid.UUID) uuid.UUID {
	if s.callerID == userID {
		return s.calleeID
	}
	return s.callerID
}

// CallTable tracks every live call session, keyed by the caller. A user can
// originate at most one call at a time; being called does not hold the slot.
type CallTable struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*callSession
}

func newCallTable() *CallTable {
	return &CallTable{sessions: make(map[uuid.UUID]*callSession)}
}

// lookupPair finds the live session between two users, in either direction
func (t *CallTable) lookupPair(a, b uuid.UUID) *callSession {
	if s := t.sessions[a]; s != nil && s.calleeID == b {
		return s
	}
	if s := t.sessions[b]; s != nil && s.calleeID == a {
		return s
	}
	return nil
}

func (t *CallTable) remove(h *Hub, s *callSession, outcome string) {
	if s.ringTimer != nil {
		s.ringTimer.Stop()
	}
	s.status = constants.CallStatusEnded
	delete(t.sessions, s.callerID)
	h.metrics.CallEnded(outcome)

	logger.Info("call ended",
		zap.String("caller_id", s.callerID.String()),
		zap.String("callee_id", s.calleeID.String()),
		zap.String("outcome", outcome),
		zap.Duration("duration", time.Since(s.startedAt)))
}

// initiate starts a new call session in the ringing state and forwards the
// invitation to the callee. An offline callee ends the attempt immediately
// with an end-call back to the caller.
func (t *CallTable) initiate(h *Hub, caller *Client, calleeID uuid.UUID, data json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if calleeID == caller.userID {
		h.metrics.RecordEvent(EventCallUser, "rejected")
		return
	}
	if t.sessions[caller.userID] != nil {
		h.metrics.RecordEvent(EventCallUser, "rejected")
		logger.Warn("call rejected, caller already in a call",
			zap.String("caller_id", caller.userID.String()))
		return
	}

	if !h.IsOnline(calleeID) {
		h.metrics.RecordEvent(EventCallUser, "unreachable")
		caller.enqueue(EventEndCall, encodeEvent(EventEndCall, calleeID, json.RawMessage(`{"reason":"unavailable"}`)))
		return
	}

	callerID := caller.userID
	s := &callSession{
		callerID:  callerID,
		calleeID:  calleeID,
		callType:  parseCallType(data),
		status:    constants.CallStatusRinging,
		startedAt: time.Now(),
	}
	s.ringTimer = time.AfterFunc(h.ringTimeout, func() {
		t.onRingTimeout(h, s)
	})
	t.sessions[callerID] = s
	h.metrics.CallStarted()

	outcome := h.sendTo(calleeID, EventCallUser, callerID, data)
	h.metrics.RecordEvent(EventCallUser, outcome)

	logger.Info("call ringing",
		zap.String("caller_id", callerID.String()),
		zap.String("callee_id", calleeID.String()),
		zap.String("call_type", s.callType))
}

// accept moves a ringing session to active. Only the invited callee may
// accept, and only while the session is still ringing.
func (t *CallTable) accept(h *Hub, callee *Client, callerID uuid.UUID, data json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.sessions[callerID]
	if s == nil || s.calleeID != callee.userID || s.status != constants.CallStatusRinging {
		h.metrics.RecordEvent(EventAcceptCall, "rejected")
		return
	}

	if s.ringTimer != nil {
		s.ringTimer.Stop()
	}
	s.status = constants.CallStatusActive

	outcome := h.sendTo(callerID, EventAcceptCall, callee.userID, data)
	h.metrics.RecordEvent(EventAcceptCall, outcome)

	logger.Info("call active",
		zap.String("caller_id", callerID.String()),
		zap.String("callee_id", s.calleeID.String()))
}

// relay forwards a negotiation event (offer, answer, ice-candidate) between
// the two parties of a live session. Events with no backing session are
// dropped, which covers trickled candidates arriving after the call ended.
func (t *CallTable) relay(h *Hub, c *Client, peerID uuid.UUID, event string, data json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.lookupPair(c.userID, peerID)
	if s == nil {
		h.metrics.RecordEvent(event, "dropped")
		return
	}

	outcome := h.sendTo(s.peerOf(c.userID), event, c.userID, data)
	h.metrics.RecordEvent(event, outcome)
}

// relayActive forwards mute state changes, which are only meaningful while
// the call is active
func (t *CallTable) relayActive(h *Hub, c *Client, peerID uuid.UUID, event string, data json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.lookupPair(c.userID, peerID)
	if s == nil || s.status != constants.CallStatusActive {
		h.metrics.RecordEvent(event, "dropped")
		return
	}

	outcome := h.sendTo(s.peerOf(c.userID), event, c.userID, data)
	h.metrics.RecordEvent(event, outcome)
}

// end terminates the session between the sender and the peer, in any state.
// A ringing call ended by the callee is a decline, by the caller a cancel;
// an active call ended by either side is a hangup. Ending a call that does
// not exist is a harmless no-op.
func (t *CallTable) end(h *Hub, c *Client, peerID uuid.UUID, data json.RawMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.lookupPair(c.userID, peerID)
	if s == nil {
		h.metrics.RecordEvent(EventEndCall, "dropped")
		return
	}

	var callOutcome string
	switch {
	case s.status == constants.CallStatusRinging && c.userID == s.calleeID:
		callOutcome = "declined"
	case s.status == constants.CallStatusRinging:
		callOutcome = "canceled"
	default:
		callOutcome = "hangup"
	}

	peer := s.peerOf(c.userID)
	t.remove(h, s, callOutcome)

	outcome := h.sendTo(peer, EventEndCall, c.userID, data)
	h.metrics.RecordEvent(EventEndCall, outcome)
}

// onRingTimeout ends a session that is still ringing when the ring window
// expires. Both parties are told, so the caller stops ringing out and the
// callee's UI stops showing the invitation. The table entry must still be
// this exact session: a fired timer can lose the race against cancel plus
// redial, and must not touch the caller's replacement session.
func (t *CallTable) onRingTimeout(h *Hub, s *callSession) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sessions[s.callerID] != s || s.status != constants.CallStatusRinging {
		return
	}

	callerID, calleeID := s.callerID, s.calleeID
	t.remove(h, s, "timeout")

	reason := json.RawMessage(`{"reason":"timeout"}`)
	h.sendTo(callerID, EventEndCall, calleeID, reason)
	h.sendTo(calleeID, EventEndCall, callerID, reason)
}

// teardownFor ends every live session the departing user was party to,
// delivering exactly one end-call to each surviving peer
func (t *CallTable) teardownFor(h *Hub, userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.sessions {
		if s.callerID != userID && s.calleeID != userID {
			continue
		}
		peer := s.peerOf(userID)
		t.remove(h, s, "disconnected")
		h.sendTo(peer, EventEndCall, userID, json.RawMessage(`{"reason":"disconnected"}`))
	}
}

// active reports how many sessions are live, for tests and health output
func (t *CallTable) active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// sessionFor returns the live session the user is party to, if any
func (t *CallTable) sessionFor(userID uuid.UUID) *domain.Call {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.sessions {
		if s.callerID == userID || s.calleeID == userID {
			return &domain.Call{
				CallerID:  s.callerID,
				CalleeID:  s.calleeID,
				CallType:  s.callType,
				Status:    s.status,
				StartedAt: s.startedAt,
			}
		}
	}
	return nil
}

func parseCallType(data json.RawMessage) string {
	var payload struct {
		CallType string `json:"callType"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.CallType == "" {
		return constants.CallTypeVideo
	}
	return payload.CallType
}

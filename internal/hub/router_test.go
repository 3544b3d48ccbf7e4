package hub

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRouteTypingForwarded(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	drain(t, bob)

	h.route(alice, frame(EventTyping, bob, ""))
	ev := waitForEvent(t, bob, EventTyping)
	assert.Equal(t, alice.userID.String(), ev.From)

	h.route(alice, frame(EventStopTyping, bob, ""))
	ev = waitForEvent(t, bob, EventStopTyping)
	assert.Equal(t, alice.userID.String(), ev.From)
}

func TestRouteTypingToOfflinePeer(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())

	ghost := newClient(h, nil, uuid.New())
	h.route(alice, frame(EventTyping, ghost, ""))

	// Nothing comes back to the sender either
	assert.Equal(t, 0, countEvents(drain(t, alice), EventTyping))
}

func TestRouteStampsSenderIdentity(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	drain(t, bob)

	// A forged "from" on the wire is ignored; the server stamps the
	// authenticated sender
	raw, _ := json.Marshal(map[string]interface{}{
		"event": EventTyping,
		"to":    bob.userID.String(),
		"from":  uuid.New().String(),
	})
	h.route(alice, raw)

	ev := waitForEvent(t, bob, EventTyping)
	assert.Equal(t, alice.userID.String(), ev.From)
}

func TestRouteMalformedFrame(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	drain(t, bob)

	h.route(alice, []byte(`{not json`))
	h.route(alice, []byte(`"just a string"`))

	assert.Empty(t, drain(t, bob))
	assert.True(t, h.IsOnline(alice.userID), "malformed frames must not close the connection")
}

func TestRouteMissingRecipient(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	drain(t, bob)

	raw, _ := json.Marshal(Envelope{Event: EventTyping})
	h.route(alice, raw)
	raw, _ = json.Marshal(Envelope{Event: EventTyping, To: "not-a-uuid"})
	h.route(alice, raw)

	assert.Empty(t, drain(t, bob))
}

func TestRouteUnknownEvent(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	drain(t, bob)

	h.route(alice, frame("self-destruct", bob, ""))
	assert.Empty(t, drain(t, bob))
	assert.True(t, h.IsOnline(alice.userID))
}

func TestSendBufferOverflowDropsEvent(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	drain(t, bob)

	// Fill bob's send buffer to capacity
	for i := 0; i < cap(bob.send); i++ {
		bob.send <- []byte(`{}`)
	}

	// The overflowing event is dropped, not blocking the router
	h.route(alice, frame(EventTyping, bob, ""))
	assert.Equal(t, cap(bob.send), len(bob.send))
	assert.True(t, h.IsOnline(bob.userID), "slow consumer is not force-closed")
}

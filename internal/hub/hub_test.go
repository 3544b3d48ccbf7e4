package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwave-backend/internal/domain"
	"chatwave-backend/pkg/metrics"
)

// Prometheus collectors register globally, so the whole test binary shares
// one metrics instance.
var testMetrics = metrics.New("hub-test")

func newTestHub(ringTimeout time.Duration) *Hub {
	return New(Config{RingTimeout: ringTimeout, MaxConnections: 64}, nil, testMetrics)
}

// connect admits a client without a real websocket behind it. Events queue
// on the send buffer where tests can inspect them.
func connect(h *Hub, userID uuid.UUID) *Client {
	c := newClient(h, nil, userID)
	h.handleConnect(c)
	return c
}

// waitForEvent drains the client's send buffer until a frame with the given
// event name shows up
func waitForEvent(t *testing.T, c *Client, event string) OutboundEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case payload := <-c.send:
			var ev OutboundEvent
			require.NoError(t, json.Unmarshal(payload, &ev))
			if ev.Event == event {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %q event received", event)
			return OutboundEvent{}
		}
	}
}

// drain discards everything currently queued for the client and returns the
// decoded frames
func drain(t *testing.T, c *Client) []OutboundEvent {
	t.Helper()
	var events []OutboundEvent
	for {
		select {
		case payload := <-c.send:
			var ev OutboundEvent
			require.NoError(t, json.Unmarshal(payload, &ev))
			events = append(events, ev)
		default:
			return events
		}
	}
}

func countEvents(events []OutboundEvent, name string) int {
	n := 0
	for _, ev := range events {
		if ev.Event == name {
			n++
		}
	}
	return n
}

type recordingMirror struct {
	mu      sync.Mutex
	online  []uuid.UUID
	offline []uuid.UUID
}

func (m *recordingMirror) SetOnline(_ context.Context, userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = append(m.online, userID)
}

func (m *recordingMirror) SetOffline(_ context.Context, userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = append(m.offline, userID)
}

func TestPresenceSnapshotOnConnect(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	drain(t, alice)

	bob := connect(h, uuid.New())

	for _, c := range []*Client{alice, bob} {
		ev := waitForEvent(t, c, EventOnlineUsers)
		assert.Empty(t, ev.From)

		var ids []string
		require.NoError(t, json.Unmarshal(ev.Data, &ids))
		assert.Len(t, ids, 2)
		assert.Contains(t, ids, alice.userID.String())
		assert.Contains(t, ids, bob.userID.String())
	}
}

func TestPresenceSnapshotOnDisconnect(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	drain(t, alice)

	h.handleDisconnect(bob)

	ev := waitForEvent(t, alice, EventOnlineUsers)
	var ids []string
	require.NoError(t, json.Unmarshal(ev.Data, &ids))
	assert.Equal(t, []string{alice.userID.String()}, ids)
}

func TestPresenceMirrorTransitions(t *testing.T) {
	mirror := &recordingMirror{}
	h := New(Config{MaxConnections: 8}, mirror, testMetrics)

	userID := uuid.New()
	c := newClient(h, nil, userID)
	h.handleConnect(c)
	h.handleDisconnect(c)

	assert.Equal(t, []uuid.UUID{userID}, mirror.online)
	assert.Equal(t, []uuid.UUID{userID}, mirror.offline)
}

func TestSupersedeKeepsIdentityOnline(t *testing.T) {
	h := newTestHub(0)
	userID := uuid.New()

	first := connect(h, userID)
	second := connect(h, userID)

	assert.Same(t, second, h.registry.Lookup(userID))

	// The superseded connection going away must not remove its replacement
	h.handleDisconnect(first)
	assert.Same(t, second, h.registry.Lookup(userID))
	assert.True(t, h.IsOnline(userID))

	select {
	case <-first.closed:
	default:
		t.Fatal("superseded connection was not closed")
	}
}

func TestSupersedeKeepsCallAlive(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())

	startActiveCall(t, h, alice, bob)

	// Alice reconnects; her old connection dying must not end the call
	alice2 := connect(h, alice.userID)
	h.handleDisconnect(alice)

	assert.Equal(t, 1, h.calls.active())
	assert.Same(t, alice2, h.registry.Lookup(alice.userID))
}

func TestNotifyNewMessage(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	drain(t, bob)

	now := time.Now().UTC()
	msg := &domain.Message{
		MessageID:  uuid.New(),
		PairKey:    domain.PairKey(alice.userID, bob.userID),
		Bucket:     domain.CalculateBucket(now),
		SenderID:   alice.userID,
		ReceiverID: bob.userID,
		Text:       "hello",
		SentAt:     now,
	}

	assert.True(t, h.NotifyNewMessage(msg))

	ev := waitForEvent(t, bob, EventNewMessage)
	assert.Equal(t, alice.userID.String(), ev.From)

	var got domain.Message
	require.NoError(t, json.Unmarshal(ev.Data, &got))
	assert.Equal(t, msg.MessageID, got.MessageID)
	assert.Equal(t, "hello", got.Text)
}

func TestNotifyNewMessageOfflineRecipient(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())

	msg := &domain.Message{
		MessageID:  uuid.New(),
		SenderID:   alice.userID,
		ReceiverID: uuid.New(),
		Text:       "anyone there",
		SentAt:     time.Now().UTC(),
	}
	assert.False(t, h.NotifyNewMessage(msg))
}

func TestNotifyMessageDeleted(t *testing.T) {
	h := newTestHub(0)
	alice := connect(h, uuid.New())
	bob := connect(h, uuid.New())
	drain(t, bob)

	drain(t, alice)

	messageID := uuid.New()
	h.NotifyMessageDeleted(alice.userID, bob.userID, messageID)

	ev := waitForEvent(t, bob, EventMessageDeleted)
	assert.Equal(t, alice.userID.String(), ev.From)

	var data map[string]string
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, messageID.String(), data["messageId"])

	// The deleting side hears about it too
	echo := waitForEvent(t, alice, EventMessageDeleted)
	assert.Equal(t, alice.userID.String(), echo.From)
	assert.JSONEq(t, string(ev.Data), string(echo.Data))
}

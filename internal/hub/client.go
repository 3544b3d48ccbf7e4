package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatwave-backend/pkg/constants"
	"chatwave-backend/pkg/logger"
)

// Client is one authenticated websocket connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, constants.SendBufferSize),
		closed: make(chan struct{}),
	}
}

// UserID returns the authenticated identity behind this connection
func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// enqueue hands a frame to the write pump without blocking. A full buffer
// means the consumer is too slow; the frame is dropped and counted.
func (c *Client) enqueue(event string, payload []byte) bool {
	if payload == nil {
		return false
	}
	select {
	case <-c.closed:
		return false
	case c.send <- payload:
		return true
	default:
		c.hub.metrics.RecordSendDropped(event)
		logger.Warn("send buffer full, dropping event",
			zap.String("event", event),
			zap.String("user_id", c.userID.String()))
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// readPump reads frames off the connection and dispatches them in arrival
// order. Dispatch is synchronous so per-connection ordering is preserved
// all the way to the recipient's send buffer.
func (c *Client) readPump() {
	defer func() {
		c.hub.handleDisconnect(c)
	}()

	c.conn.SetReadLimit(constants.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(constants.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(constants.PongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read error",
					zap.Error(err),
					zap.String("user_id", c.userID.String()))
			}
			return
		}
		c.hub.route(c, raw)
	}
}

// writePump drains the send buffer onto the connection and keeps the
// connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(constants.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(constants.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
